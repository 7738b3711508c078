// Package render draws gear outlines. Renderers see only transformed
// outlines, never the kinematic tree.
package render

import (
	"fmt"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/gearsim/pkg/geom"
)

// Mode selects how shapes are drawn.
type Mode int

const (
	ModeLines  Mode = iota // outline strokes only
	ModeFilled             // solid bodies with open bores
)

func (m Mode) String() string {
	switch m {
	case ModeLines:
		return "lines"
	case ModeFilled:
		return "filled"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "lines" or "filled".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "lines", "line", "":
		return ModeLines, nil
	case "filled", "fill":
		return ModeFilled, nil
	}
	return 0, fmt.Errorf("render: unknown mode %q (expected lines or filled)", s)
}

// Shape is one gear body in world coordinates, y up. Inner is cut out of
// Outer; for a ring gear Outer is the rim and Inner the teeth.
type Shape struct {
	Outer []v2.Vec
	Inner []v2.Vec
	Color string // "#rrggbb", empty for the default
}

// Renderer consumes one frame of shapes.
type Renderer interface {
	Render(shapes []Shape) error
}

// Bounds returns the box enclosing every point of shapes. ok is false when
// there are no points.
func Bounds(shapes []Shape) (lo, hi v2.Vec, ok bool) {
	for _, s := range shapes {
		for _, poly := range [][]v2.Vec{s.Outer, s.Inner} {
			if len(poly) == 0 {
				continue
			}
			min, max := geom.Bounds(poly)
			if ok {
				lo, hi = lo.Min(min), hi.Max(max)
			} else {
				lo, hi, ok = min, max, true
			}
		}
	}
	return lo, hi, ok
}
