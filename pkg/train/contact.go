package train

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/gearsim/pkg/geom"
)

// Contact is one crossing between an edge of a parent's outline and an edge
// of its child's outline.
type Contact struct {
	Point v2.Vec
	// Depth is the distance from the crossing to the nearer endpoint of
	// the parent's edge: a rough measure of how far the teeth overlap.
	Depth float64
}

// PairReport summarizes the contact state of one parent/child pair.
type PairReport struct {
	Parent   *Node
	Child    *Node
	Contacts []Contact
	// Clearance is the smallest gap between the two outlines. It is zero
	// when they overlap.
	Clearance float64
}

// MaxDepth returns the deepest penetration in the report.
func (r PairReport) MaxDepth() float64 {
	d := 0.0
	for _, c := range r.Contacts {
		d = math.Max(d, c.Depth)
	}
	return d
}

// Overlapping reports whether any edges cross.
func (r PairReport) Overlapping() bool {
	return len(r.Contacts) > 0
}

// Inspector computes contact reports. It keeps scratch buffers between
// calls and is not safe for concurrent use.
type Inspector struct {
	outA, outB   []v2.Vec
	edgeA, edgeB []geom.Segment
}

// Inspect reports contacts between parent and child using their current
// positions and rotations. Edges outside the other gear's tip circle are
// skipped.
func (in *Inspector) Inspect(parent, child *Node) PairReport {
	in.outA = parent.TransformedOutline(in.outA)
	in.outB = child.TransformedOutline(in.outB)
	in.edgeA = nearEdges(in.edgeA, in.outA, child)
	in.edgeB = nearEdges(in.edgeB, in.outB, parent)

	rep := PairReport{Parent: parent, Child: child}
	for _, a := range in.edgeA {
		for _, b := range in.edgeB {
			if p, ok := a.Intersect(b); ok {
				rep.Contacts = append(rep.Contacts, Contact{Point: p, Depth: geom.PenetrationDepth(a, p)})
			}
		}
	}
	if rep.Overlapping() {
		return rep
	}

	rep.Clearance = math.Inf(1)
	if len(in.edgeA) == 0 || len(in.edgeB) == 0 {
		return rep
	}
	for _, a := range in.edgeA {
		for _, b := range in.edgeB {
			rep.Clearance = math.Min(rep.Clearance, a.B.Sub(b.ClosestPoint(a.B)).Length())
			rep.Clearance = math.Min(rep.Clearance, b.B.Sub(a.ClosestPoint(b.B)).Length())
		}
	}
	return rep
}

// InspectTree reports every parent/child pair below root, depth-first.
func (in *Inspector) InspectTree(root *Node) []PairReport {
	var reports []PairReport
	Walk(root, func(n *Node, _ int) bool {
		for _, c := range n.children {
			reports = append(reports, in.Inspect(n, c.Child))
		}
		return true
	})
	return reports
}

// nearEdges collects the edges of poly that come within other's tip circle.
func nearEdges(dst []geom.Segment, poly []v2.Vec, other *Node) []geom.Segment {
	reach := other.profile.RadiusMax()
	center := other.position
	all := geom.Edges(dst, poly)
	near := all[:0]
	for _, s := range all {
		if s.ClosestPoint(center).Sub(center).Length() <= reach {
			near = append(near, s)
		}
	}
	return near
}
