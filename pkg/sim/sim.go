// Package sim steps a built scene through time.
package sim

import (
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/gearsim/internal/log"
	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/render"
	"github.com/chazu/gearsim/pkg/scene"
	"github.com/chazu/gearsim/pkg/train"
)

// GearFrame is the state of one gear after a step. Outline and Boundary
// are in world coordinates and are overwritten by the next step.
type GearFrame struct {
	Name     string
	Color    string
	Type     gear.Type
	Position v2.Vec
	Rotation float64
	Outline  []v2.Vec
	Boundary []v2.Vec
}

// Frame is the result of one step. The simulator owns it and reuses it.
type Frame struct {
	Index   int
	Time    float64
	Gears   []GearFrame
	Reports []train.PairReport // nil unless diagnostics are on
}

// Shapes appends one render shape per gear to dst. The shapes share the
// frame's buffers.
func (f *Frame) Shapes(dst []render.Shape) []render.Shape {
	dst = dst[:0]
	for i := range f.Gears {
		g := &f.Gears[i]
		s := render.Shape{Outer: g.Outline, Inner: g.Boundary, Color: g.Color}
		if g.Type == gear.Internal {
			s.Outer, s.Inner = g.Boundary, g.Outline
		}
		dst = append(dst, s)
	}
	return dst
}

// Simulator drives the roots of a scene. It is not safe for concurrent use.
type Simulator struct {
	scene       *scene.Scene
	diagnostics bool
	inspector   train.Inspector

	frame Frame
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithDiagnostics turns on contact inspection of every meshed pair.
func WithDiagnostics(on bool) Option {
	return func(s *Simulator) { s.diagnostics = on }
}

// New returns a simulator at time zero.
func New(sc *scene.Scene, opts ...Option) *Simulator {
	s := &Simulator{scene: sc}
	for _, o := range opts {
		o(s)
	}
	s.frame.Index = -1
	s.frame.Gears = make([]GearFrame, len(sc.Gears))
	for i, g := range sc.Gears {
		s.frame.Gears[i] = GearFrame{
			Name:  g.Node.Name,
			Color: g.Color,
			Type:  g.Node.Profile().Type(),
		}
	}
	return s
}

// Scene returns the simulated scene.
func (s *Simulator) Scene() *scene.Scene { return s.scene }

// Step advances every driven root by dt times its speed when advance is
// set, propagates rotation down each tree and fills the frame. With
// advance false the frame is redrawn at the current time.
func (s *Simulator) Step(dt float64, advance bool) *Frame {
	if advance {
		for _, r := range s.scene.Roots {
			if r.Driven {
				r.Node.Advance(dt * r.Speed)
			}
		}
		s.frame.Time += dt
	}
	for _, r := range s.scene.Roots {
		train.Update(r.Node)
	}
	s.frame.Index++

	for i, g := range s.scene.Gears {
		gf := &s.frame.Gears[i]
		gf.Position = g.Node.Position()
		gf.Rotation = g.Node.Rotation()
		gf.Outline = g.Node.TransformedOutline(gf.Outline)
		gf.Boundary = g.Node.TransformedBoundary(gf.Boundary)
	}

	s.frame.Reports = s.frame.Reports[:0]
	if s.diagnostics {
		for _, r := range s.scene.Roots {
			s.frame.Reports = append(s.frame.Reports, s.inspector.InspectTree(r.Node)...)
		}
		for _, rep := range s.frame.Reports {
			if rep.Overlapping() {
				log.Debug("gear contact",
					"frame", s.frame.Index,
					"parent", rep.Parent.Name,
					"child", rep.Child.Name,
					"contacts", len(rep.Contacts),
					"depth", rep.MaxDepth())
			}
		}
	}
	return &s.frame
}

// Run takes n steps of dt and calls fn after each one. It stops early if
// fn returns an error.
func (s *Simulator) Run(n int, dt float64, fn func(*Frame) error) error {
	for i := 0; i < n; i++ {
		f := s.Step(dt, true)
		if fn == nil {
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
