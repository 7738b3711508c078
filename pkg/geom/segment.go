package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// minSegmentLength2 floors the squared length used when projecting onto a
// segment, so a zero-length segment projects onto its first endpoint.
const minSegmentLength2 = 1e-12

// Segment is a line segment between two points.
type Segment struct {
	A, B v2.Vec
}

// Length returns the distance between the endpoints.
func (s Segment) Length() float64 {
	return s.B.Sub(s.A).Length()
}

// ClosestPoint returns the point on s nearest to p.
func (s Segment) ClosestPoint(p v2.Vec) v2.Vec {
	return ClosestPointOnSegment(s.A, s.B, p)
}

// ClosestPointOnSegment projects p onto the line through a and b and clamps
// the projection to the segment.
func ClosestPointOnSegment(a, b, p v2.Vec) v2.Vec {
	d := b.Sub(a)
	den := math.Max(d.Length2(), minSegmentLength2)
	u := p.Sub(a).Dot(d) / den
	u = math.Max(0, math.Min(1, u))
	return a.Add(d.MulScalar(u))
}

// SegmentIntersection returns the point where segments a1-a2 and b1-b2
// cross. Parallel and collinear segments report no intersection; the
// denominator test is exact on purpose.
func SegmentIntersection(a1, a2, b1, b2 v2.Vec) (v2.Vec, bool) {
	den := (b2.Y-b1.Y)*(a2.X-a1.X) - (b2.X-b1.X)*(a2.Y-a1.Y)
	if den == 0 {
		return v2.Vec{}, false
	}

	ua := ((b2.X-b1.X)*(a1.Y-b1.Y) - (b2.Y-b1.Y)*(a1.X-b1.X)) / den
	ub := ((a2.X-a1.X)*(a1.Y-b1.Y) - (a2.Y-a1.Y)*(a1.X-b1.X)) / den
	if ua < 0 || ua > 1 || ub < 0 || ub > 1 {
		return v2.Vec{}, false
	}

	return v2.Vec{
		X: a1.X + ua*(a2.X-a1.X),
		Y: a1.Y + ua*(a2.Y-a1.Y),
	}, true
}

// Intersect is SegmentIntersection for two Segment values.
func (s Segment) Intersect(o Segment) (v2.Vec, bool) {
	return SegmentIntersection(s.A, s.B, o.A, o.B)
}

// PenetrationDepth is the distance from the nearer endpoint of s to the
// intersection point p.
func PenetrationDepth(s Segment, p v2.Vec) float64 {
	return math.Min(s.A.Sub(p).Length(), s.B.Sub(p).Length())
}

// Edges returns the closing edge loop of a polygon, reusing dst.
func Edges(dst []Segment, poly []v2.Vec) []Segment {
	dst = dst[:0]
	n := len(poly)
	if n < 2 {
		return dst
	}
	for i := 0; i < n; i++ {
		dst = append(dst, Segment{A: poly[i], B: poly[(i+1)%n]})
	}
	return dst
}
