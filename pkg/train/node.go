// Package train links gear profiles into a kinematic tree and propagates
// rotation from a driven root to every descendant.
//
// Propagation is stateless: each Update recomputes every descendant's
// rotation from the root's absolute rotation, so no error accumulates
// between steps.
package train

import (
	"errors"
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/gearsim/pkg/gear"
	"github.com/chazu/gearsim/pkg/geom"
)

var (
	// ErrUnsupportedMeshing reports a parent/child type pairing the tree
	// cannot place. Only external-external and internal-external are valid.
	ErrUnsupportedMeshing = errors.New("train: unsupported meshing configuration")
	// ErrAlreadyAttached reports a child that already has a parent.
	ErrAlreadyAttached = errors.New("train: gear already attached")
	// ErrCycle reports an attach that would make a node its own ancestor.
	ErrCycle = errors.New("train: attach would create a cycle")
)

// Connection is a child gear and the direction, in radians from the
// parent's center, at which it sits.
type Connection struct {
	Child      *Node
	JointAngle float64
}

// Node is one gear in the tree. Its position is fixed when it is attached;
// only its rotation changes during simulation.
type Node struct {
	Name     string
	profile  *gear.Profile
	position v2.Vec
	rotation float64
	parent   *Node
	children []Connection
}

// NewNode wraps a profile in an unattached node at the origin.
func NewNode(name string, p *gear.Profile) *Node {
	return &Node{Name: name, profile: p}
}

// NewRoot wraps a profile in a node placed at pos. Use it for the driven
// gear of a train; children are placed relative to it.
func NewRoot(name string, p *gear.Profile, pos v2.Vec) *Node {
	return &Node{Name: name, profile: p, position: pos}
}

// Profile returns the shared, read-only profile.
func (n *Node) Profile() *gear.Profile { return n.profile }

// Position returns the node's center.
func (n *Node) Position() v2.Vec { return n.position }

// Rotation returns the node's rotation in radians.
func (n *Node) Rotation() float64 { return n.rotation }

// SetRotation sets the rotation of a root. Descendant rotations are owned
// by Update and are overwritten on the next call.
func (n *Node) SetRotation(r float64) { n.rotation = r }

// Advance adds delta radians to the node's rotation.
func (n *Node) Advance(delta float64) { n.rotation += delta }

// Parent returns the node this one is attached to, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's connections in attach order.
func (n *Node) Children() []Connection { return n.children }

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// Teeth is a shortcut for Profile().Teeth().
func (n *Node) Teeth() int { return n.profile.Teeth() }

// CenterDistance returns how far apart the centers of parent and child must
// be for their pitch circles to touch.
func CenterDistance(parent, child *gear.Profile) (float64, error) {
	switch {
	case parent.Type() == gear.External && child.Type() == gear.External:
		return parent.PitchRadius() + child.PitchRadius(), nil
	case parent.Type() == gear.Internal && child.Type() == gear.External:
		return parent.PitchRadius() - child.PitchRadius(), nil
	}
	return 0, fmt.Errorf("%w: %s parent with %s child", ErrUnsupportedMeshing, parent.Type(), child.Type())
}

// AttachChild places child on parent's pitch circle in the direction
// jointAngle and records the connection. On error the tree is unchanged.
func AttachChild(parent, child *Node, jointAngle float64) error {
	dist, err := CenterDistance(parent.profile, child.profile)
	if err != nil {
		return err
	}
	if !child.IsRoot() {
		return fmt.Errorf("%w: %q is already a child of %q", ErrAlreadyAttached, child.Name, child.parent.Name)
	}
	for a := parent; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("%w: %q is an ancestor of %q", ErrCycle, child.Name, parent.Name)
		}
	}

	child.position = parent.position.Add(v2.Vec{
		X: dist * math.Cos(jointAngle),
		Y: dist * math.Sin(jointAngle),
	})
	child.parent = parent
	parent.children = append(parent.children, Connection{Child: child, JointAngle: jointAngle})
	return nil
}

// Attach is AttachChild with n as the parent.
func (n *Node) Attach(child *Node, jointAngle float64) error {
	return AttachChild(n, child, jointAngle)
}

// ChildRotation returns the rotation of a child meshed with parent at
// jointAngle when the parent is at parentRotation.
func ChildRotation(parent *gear.Profile, parentRotation float64, child *gear.Profile, jointAngle float64) float64 {
	ratio := float64(parent.Teeth()) / float64(child.Teeth())
	if parent.Type() == gear.Internal {
		return math.Pi + (parentRotation+jointAngle)*ratio - jointAngle
	}
	return math.Pi - (parentRotation+jointAngle)*ratio - jointAngle
}

// Update recomputes the rotation of every descendant of n from n's current
// rotation. Call it once per step on each root after advancing the root.
func Update(n *Node) {
	for _, c := range n.children {
		c.Child.rotation = ChildRotation(n.profile, n.rotation, c.Child.profile, c.JointAngle)
		Update(c.Child)
	}
}

// TransformedOutline writes n's outline, rotated by n's rotation about its
// own center and then translated to its position, into dst.
func (n *Node) TransformedOutline(dst []v2.Vec) []v2.Vec {
	return geom.TransformPoints(dst, n.profile.Outline(), geom.RotateTranslate(n.rotation, n.position))
}

// TransformedBoundary does the same for the paired bore or rim circle.
func (n *Node) TransformedBoundary(dst []v2.Vec) []v2.Vec {
	return geom.TransformPoints(dst, n.profile.Boundary(), geom.RotateTranslate(n.rotation, n.position))
}

// Walk visits n and its descendants depth-first in attach order. Returning
// false from fn skips the node's subtree.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		walk(c.Child, depth+1, fn)
	}
}

// Count returns the number of nodes in n's subtree, including n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node, int) bool {
		total++
		return true
	})
	return total
}
