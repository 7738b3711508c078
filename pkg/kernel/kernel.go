// Package kernel defines the geometry kernel used to turn gears into
// solids. Implementations live in subpackages; the rest of the system only
// sees this interface.
package kernel

import v2 "github.com/deadsy/sdfx/vec/v2"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the geometry kernel interface.
type Kernel interface {
	// Primitives. Box and Cylinder are centered on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	// Plate extrudes the region inside outer and outside inner along Z,
	// centered on z = 0. inner may be empty.
	Plate(outer, inner []v2.Vec, height float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	RotateZ(s Solid, angle float64) Solid // radians, counter-clockwise

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
