// Package tessellate walks a built scene and produces triangle meshes
// using a geometry kernel. One mesh is produced per gear, plus an optional
// mounting plate.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/gearsim/internal/log"
	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/kernel"
	"github.com/chazu/gearsim/pkg/scene"
	"github.com/chazu/gearsim/pkg/train"
)

// BasePart is the part name of the mounting plate mesh.
const BasePart = "base"

// DefaultThickness is the plate height used when none is configured.
const DefaultThickness = 1.0

type options struct {
	thickness float64
	base      bool
	margin    float64
}

// Option configures Tessellate.
type Option func(*options)

// WithThickness sets the gear plate height. Values that are not positive
// are ignored.
func WithThickness(h float64) Option {
	return func(o *options) {
		if h > 0 {
			o.thickness = h
		}
	}
}

// WithBase adds a mounting plate under the gears, margin wider than them
// on every side, with a hole under every external gear's bore.
func WithBase(margin float64) Option {
	return func(o *options) {
		o.base = true
		o.margin = math.Max(margin, 0)
	}
}

// Tessellate produces one mesh per scene gear, in scene order, using each
// gear's current rotation and position. The tessellator is read-only and
// never mutates the scene.
func Tessellate(s *scene.Scene, k kernel.Kernel, opts ...Option) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}
	o := options{thickness: DefaultThickness}
	for _, opt := range opts {
		opt(&o)
	}

	var meshes []*kernel.Mesh
	for _, r := range s.Roots {
		var err error
		train.Walk(r.Node, func(n *train.Node, _ int) bool {
			if err != nil {
				return false
			}
			m, gerr := gearMesh(k, n, o.thickness)
			if gerr != nil {
				err = fmt.Errorf("tessellate: gear %q: %w", n.Name, gerr)
				return false
			}
			meshes = append(meshes, m)
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	if o.base && len(s.Gears) > 0 {
		m, err := baseMesh(k, s, o)
		if err != nil {
			return nil, fmt.Errorf("tessellate: base: %w", err)
		}
		meshes = append(meshes, m)
	}

	log.Debug("tessellated", "meshes", len(meshes), "thickness", o.thickness)
	return meshes, nil
}

// gearMesh extrudes a gear body, turns it and moves it into place.
func gearMesh(k kernel.Kernel, n *train.Node, thickness float64) (*kernel.Mesh, error) {
	prof := n.Profile()
	solid, err := k.Plate(prof.Outer(), prof.Inner(), thickness)
	if err != nil {
		return nil, err
	}

	if rot := n.Rotation(); rot != 0 {
		solid = k.RotateZ(solid, rot)
	}
	if pos := n.Position(); pos.X != 0 || pos.Y != 0 {
		solid = k.Translate(solid, pos.X, pos.Y, 0)
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, err
	}
	mesh.Part = n.Name
	return mesh, nil
}

// baseMesh builds a plate under the whole scene with axle holes.
func baseMesh(k kernel.Kernel, s *scene.Scene, o options) (*kernel.Mesh, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	var holes kernel.Solid
	for _, g := range s.Gears {
		pos := g.Node.Position()
		prof := g.Node.Profile()
		reach := prof.RadiusMax()
		if prof.Type() == gear.Internal {
			reach = prof.BoundaryRadius()
		}
		minX, maxX = math.Min(minX, pos.X-reach), math.Max(maxX, pos.X+reach)
		minY, maxY = math.Min(minY, pos.Y-reach), math.Max(maxY, pos.Y+reach)

		if prof.Type() != gear.External {
			continue
		}
		hole := k.Translate(k.Cylinder(2*o.thickness, prof.BoundaryRadius()), pos.X, pos.Y, -o.thickness)
		if holes == nil {
			holes = hole
		} else {
			holes = k.Union(holes, hole)
		}
	}

	w := maxX - minX + 2*o.margin
	h := maxY - minY + 2*o.margin
	// Sits directly under the gear plates.
	plate := k.Translate(k.Box(w, h, o.thickness), (minX+maxX)/2, (minY+maxY)/2, -o.thickness)
	if holes != nil {
		plate = k.Difference(plate, holes)
	}

	mesh, err := k.ToMesh(plate)
	if err != nil {
		return nil, err
	}
	mesh.Part = BasePart
	return mesh, nil
}
