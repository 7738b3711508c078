package main

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/gearsim/internal/config"
	"github.com/chazu/gearsim/internal/log"
	"github.com/chazu/gearsim/pkg/engine"
	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/kernel"
	"github.com/chazu/gearsim/pkg/kernel/sdfx"
	"github.com/chazu/gearsim/pkg/render"
	"github.com/chazu/gearsim/pkg/scene"
	"github.com/chazu/gearsim/pkg/sim"
	"github.com/chazu/gearsim/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to gears.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs the whole pipeline: source -> graph -> scene -> frames.
type App struct {
	cfg    config.Config
	engine *engine.Engine
	cache  *gear.Cache
	kernel kernel.Kernel
}

// Point is a JSON-friendly 2D point.
type Point [2]float64

// GearData is the JSON-serializable state of one gear in the last frame.
type GearData struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Teeth    int     `json:"teeth"`
	Color    string  `json:"color"`
	Position Point   `json:"position"`
	Rotation float64 `json:"rotation"`
	Outline  []Point `json:"outline"`
	Boundary []Point `json:"boundary"`
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Part     string    `json:"part"`
	Color    string    `json:"color"`
}

// MessageData is a JSON-serializable error or warning.
type MessageData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ContactData summarizes the contact diagnostics of one meshed pair.
// Clearance is omitted when no edge of either gear comes near the other.
type ContactData struct {
	Parent    string   `json:"parent"`
	Child     string   `json:"child"`
	Contacts  int      `json:"contacts"`
	Depth     float64  `json:"depth"`
	Clearance *float64 `json:"clearance,omitempty"`
}

// RunOptions controls App.Run.
type RunOptions struct {
	Frames int     // steps to simulate
	Dt     float64 // seconds per step
	PNGDir string  // write one PNG per frame here when set
	Meshes bool    // tessellate the last frame
	Base   bool    // add a mounting plate to the meshes
}

// RunResult is the full result of a run.
type RunResult struct {
	Frames   int           `json:"frames"`
	Time     float64       `json:"time"`
	Gears    []GearData    `json:"gears"`
	Meshes   []MeshData    `json:"meshes"`
	Contacts []ContactData `json:"contacts"`
	Errors   []MessageData `json:"errors"`
	Warnings []MessageData `json:"warnings"`
}

// NewApp creates an App from cfg.
func NewApp(cfg config.Config) *App {
	return &App{
		cfg: cfg,
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.EvalTimeout),
			engine.WithDriveSpeed(cfg.DriveSpeed),
		),
		cache:  gear.NewCache(gear.WithEpsilon(cfg.Epsilon)),
		kernel: sdfx.New(cfg.MeshCells),
	}
}

// Evaluate checks source and returns the scene at time zero.
func (a *App) Evaluate(source string) RunResult {
	return a.Run(source, RunOptions{})
}

// Run evaluates source, builds its scene and simulates it.
func (a *App) Run(source string, opts RunOptions) RunResult {
	result := RunResult{
		Gears:    []GearData{},
		Meshes:   []MeshData{},
		Contacts: []ContactData{},
		Errors:   []MessageData{},
		Warnings: []MessageData{},
	}

	// Step 1: Evaluate and validate the source.
	checked, err := a.engine.Check(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Error("evaluate failed", "error", err)
		result.Errors = append(result.Errors, MessageData{Message: err.Error()})
		return result
	}
	for _, w := range checked.Warnings {
		result.Warnings = append(result.Warnings, MessageData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	if len(checked.Errors) > 0 {
		for _, e := range checked.Errors {
			result.Errors = append(result.Errors, MessageData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	// Step 2: Build the scene.
	sc, err := scene.Build(checked.Graph, a.cache)
	if err != nil {
		log.Error("scene build failed", "error", err)
		result.Errors = append(result.Errors, MessageData{Message: err.Error()})
		return result
	}
	for i := range sc.Gears {
		if sc.Gears[i].Color == "" {
			sc.Gears[i].Color = colorPalette[i%len(colorPalette)]
		}
	}

	// Step 3: Simulate.
	var out render.Renderer
	if opts.PNGDir != "" {
		mode, err := render.ParseMode(a.cfg.RenderMode)
		if err != nil {
			result.Errors = append(result.Errors, MessageData{Message: err.Error()})
			return result
		}
		seq, err := render.NewSequence(opts.PNGDir, "frame", a.cfg.FrameWidth, a.cfg.FrameHeight, mode)
		if err != nil {
			result.Errors = append(result.Errors, MessageData{Message: err.Error()})
			return result
		}
		defer seq.Close()
		out = seq
	}

	s := sim.New(sc, sim.WithDiagnostics(a.cfg.Diagnostics))
	var shapes []render.Shape
	frame := s.Step(0, false)
	if out != nil {
		shapes = frame.Shapes(shapes)
		if err := out.Render(shapes); err != nil {
			result.Errors = append(result.Errors, MessageData{Message: err.Error()})
			return result
		}
	}
	err = s.Run(opts.Frames, opts.Dt, func(f *sim.Frame) error {
		frame = f
		if out == nil {
			return nil
		}
		shapes = f.Shapes(shapes)
		return out.Render(shapes)
	})
	if err != nil {
		log.Error("simulation failed", "error", err)
		result.Errors = append(result.Errors, MessageData{Message: err.Error()})
		return result
	}

	result.Frames = frame.Index
	result.Time = frame.Time
	for i, g := range frame.Gears {
		prof := sc.Gears[i].Node.Profile()
		result.Gears = append(result.Gears, GearData{
			Name:     g.Name,
			Type:     g.Type.String(),
			Teeth:    prof.Teeth(),
			Color:    g.Color,
			Position: Point{g.Position.X, g.Position.Y},
			Rotation: g.Rotation,
			Outline:  points(g.Outline),
			Boundary: points(g.Boundary),
		})
	}
	for _, rep := range frame.Reports {
		cd := ContactData{
			Parent:   rep.Parent.Name,
			Child:    rep.Child.Name,
			Contacts: len(rep.Contacts),
			Depth:    rep.MaxDepth(),
		}
		if !math.IsInf(rep.Clearance, 0) {
			c := rep.Clearance
			cd.Clearance = &c
		}
		result.Contacts = append(result.Contacts, cd)
	}

	// Step 4: Tessellate the final frame.
	if opts.Meshes {
		topts := []tessellate.Option{tessellate.WithThickness(a.cfg.Thickness)}
		if opts.Base {
			topts = append(topts, tessellate.WithBase(a.cfg.Thickness))
		}
		meshes, err := tessellate.Tessellate(sc, a.kernel, topts...)
		if err != nil {
			log.Error("tessellate failed", "error", err)
			result.Errors = append(result.Errors, MessageData{Message: "tessellation failed: " + err.Error()})
			return result
		}
		colors := make(map[string]string, len(sc.Gears))
		for _, g := range sc.Gears {
			colors[g.Node.Name] = g.Color
		}
		for _, m := range meshes {
			result.Meshes = append(result.Meshes, MeshData{
				Vertices: m.Vertices,
				Normals:  m.Normals,
				Indices:  m.Indices,
				Part:     m.Part,
				Color:    colors[m.Part],
			})
		}
	}

	return result
}

func points(src []v2.Vec) []Point {
	out := make([]Point, len(src))
	for i, p := range src {
		out[i] = Point{p.X, p.Y}
	}
	return out
}
