// Command gearsim evaluates a gear-train scene, simulates it and reports
// the result.
//
// Usage:
//
//	gearsim [flags] scene.gear
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/gearsim/internal/config"
	"github.com/chazu/gearsim/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gearsim: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("gearsim", flag.ContinueOnError)
	var (
		frames      = fs.Int("frames", 60, "number of steps to simulate")
		dt          = fs.Float64("dt", 1.0/60, "seconds per step")
		pngDir      = fs.String("png", "", "write one PNG per frame into this directory")
		meshes      = fs.Bool("mesh", false, "tessellate the last frame")
		base        = fs.Bool("base", false, "add a mounting plate to the meshes")
		jsonOut     = fs.Bool("json", false, "print the full result as JSON")
		logLevel    = fs.String("log-level", cfg.LogLevel, "debug, info, warn or error")
		mode        = fs.String("mode", cfg.RenderMode, "PNG render mode: lines or filled")
		diagnostics = fs.Bool("diagnostics", cfg.Diagnostics, "inspect gear contacts every frame")
		speed       = fs.Float64("speed", cfg.DriveSpeed, "default drive speed in rad/s")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: gearsim [flags] scene.gear\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	if *frames < 0 || !(*dt >= 0) {
		fmt.Fprintf(os.Stderr, "gearsim: -frames and -dt must not be negative\n")
		return 2
	}

	cfg.LogLevel = *logLevel
	cfg.RenderMode = *mode
	cfg.Diagnostics = *diagnostics
	cfg.DriveSpeed = *speed
	log.Init(cfg.LogLevel)

	path := fs.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		log.Error("read scene", "path", path, "error", err)
		return 1
	}

	app := NewApp(*cfg)
	result := app.Run(string(source), RunOptions{
		Frames: *frames,
		Dt:     *dt,
		PNGDir: *pngDir,
		Meshes: *meshes,
		Base:   *base,
	})

	for _, w := range result.Warnings {
		log.Warn(w.Message, "line", w.Line)
	}
	for _, e := range result.Errors {
		log.Error(e.Message, "line", e.Line, "col", e.Col)
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Error("encode result", "error", err)
			return 1
		}
	} else {
		printSummary(stdout, result)
	}

	if len(result.Errors) > 0 {
		return 1
	}
	log.Info("done", "scene", path, "frames", result.Frames, "gears", len(result.Gears), "meshes", len(result.Meshes))
	return 0
}

func printSummary(w io.Writer, r RunResult) {
	if len(r.Errors) > 0 {
		return
	}
	fmt.Fprintf(w, "t=%.3fs after %d frames\n", r.Time, r.Frames)
	for _, g := range r.Gears {
		fmt.Fprintf(w, "  %-12s %-8s %3d teeth  at (%7.3f, %7.3f)  rot %8.4f rad\n",
			g.Name, g.Type, g.Teeth, g.Position[0], g.Position[1], g.Rotation)
	}
	for _, c := range r.Contacts {
		if c.Contacts > 0 {
			fmt.Fprintf(w, "  contact %s/%s: %d crossings, depth %.4f\n", c.Parent, c.Child, c.Contacts, c.Depth)
		}
	}
	for _, m := range r.Meshes {
		fmt.Fprintf(w, "  mesh %-12s %6d triangles\n", m.Part, len(m.Indices)/3)
	}
}
