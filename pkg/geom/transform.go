package geom

import (
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// RotateTranslate returns the matrix that rotates a point by rot radians
// about the origin and then translates it by pos.
func RotateTranslate(rot float64, pos v2.Vec) sdf.M33 {
	return sdf.Translate2d(pos).Mul(sdf.Rotate2d(rot))
}

// TransformPoints writes m applied to every point of src into dst, growing
// dst as needed, and returns it.
func TransformPoints(dst, src []v2.Vec, m sdf.M33) []v2.Vec {
	if cap(dst) < len(src) {
		dst = make([]v2.Vec, len(src))
	}
	dst = dst[:len(src)]
	for i, p := range src {
		dst[i] = m.MulPosition(p)
	}
	return dst
}

// RotatePoints rotates every point of src by rot radians about the origin.
// dst may be src.
func RotatePoints(dst, src []v2.Vec, rot float64) []v2.Vec {
	return TransformPoints(dst, src, sdf.Rotate2d(rot))
}

// Bounds returns the axis-aligned bounding box of pts.
func Bounds(pts []v2.Vec) (min, max v2.Vec) {
	if len(pts) == 0 {
		return v2.Vec{}, v2.Vec{}
	}
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		min = min.Min(p)
		max = max.Max(p)
	}
	return min, max
}
