package graph

import (
	"fmt"

	"github.com/chazu/gearsim/pkg/gear"
)

// DefaultDriveSpeed is the drive speed in radians per second used when a
// (drive ...) form gives none.
const DefaultDriveSpeed = 0.5

// GlobalDefaults contains graph-wide default settings.
type GlobalDefaults struct {
	DiametralPitch float64 `json:"diametral_pitch"`
	PressureAngle  float64 `json:"pressure_angle"` // degrees
	DriveSpeed     float64 `json:"drive_speed"`    // rad/s
}

// DesignGraph is the top-level immutable data structure produced by Lisp evaluation.
// It is never mutated in place; each evaluation produces a new graph.
type DesignGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Order     []NodeID          `json:"order"` // insertion order
	Roots     []NodeID          `json:"roots"` // trains
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  GlobalDefaults    `json:"defaults"`
	Version   uint64            `json:"version"`
}

// New creates an empty DesignGraph with default settings.
func New() *DesignGraph {
	return &DesignGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Defaults: GlobalDefaults{
			DiametralPitch: gear.DefaultDiametralPitch,
			PressureAngle:  gear.DefaultPressureAngleDeg,
			DriveSpeed:     DefaultDriveSpeed,
		},
	}
}

// AddNode adds a node to the graph. A node with an ID already present
// replaces it and keeps its original position in Order.
func (g *DesignGraph) AddNode(n *Node) {
	if _, ok := g.Nodes[n.ID]; !ok {
		g.Order = append(g.Order, n.ID)
	}
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a train as a root of the graph.
func (g *DesignGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *DesignGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *DesignGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *DesignGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

func (g *DesignGraph) ofKind(k NodeKind) []*Node {
	var out []*Node
	for _, id := range g.Order {
		if n := g.Nodes[id]; n != nil && n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// Gears returns all gear nodes in insertion order.
func (g *DesignGraph) Gears() []*Node { return g.ofKind(NodeGear) }

// Meshes returns all mesh nodes in insertion order.
func (g *DesignGraph) Meshes() []*Node { return g.ofKind(NodeMesh) }

// Drives returns all drive nodes in insertion order.
func (g *DesignGraph) Drives() []*Node { return g.ofKind(NodeDrive) }

// Trains returns all group nodes in insertion order.
func (g *DesignGraph) Trains() []*Node { return g.ofKind(NodeGroup) }

// ParentMesh returns the first mesh whose child is id, or nil.
func (g *DesignGraph) ParentMesh(id NodeID) *Node {
	for _, m := range g.Meshes() {
		if d, ok := m.Data.(MeshData); ok && d.Child == id {
			return m
		}
	}
	return nil
}

// ChildMeshes returns the meshes whose parent is id, in insertion order.
func (g *DesignGraph) ChildMeshes(id NodeID) []*Node {
	var out []*Node
	for _, m := range g.Meshes() {
		if d, ok := m.Data.(MeshData); ok && d.Parent == id {
			out = append(out, m)
		}
	}
	return out
}

// GearRoots returns the gears that are not the child of any mesh, in
// insertion order. Each one roots a kinematic tree.
func (g *DesignGraph) GearRoots() []*Node {
	child := make(map[NodeID]bool)
	for _, m := range g.Meshes() {
		if d, ok := m.Data.(MeshData); ok {
			child[d.Child] = true
		}
	}
	var out []*Node
	for _, n := range g.Gears() {
		if !child[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// TreeRoot returns the gear at the top of id's chain of parent meshes.
// It stops where the chain loops back on itself.
func (g *DesignGraph) TreeRoot(id NodeID) NodeID {
	seen := make(map[NodeID]bool)
	for !seen[id] {
		seen[id] = true
		m := g.ParentMesh(id)
		if m == nil {
			break
		}
		id = m.Data.(MeshData).Parent
	}
	return id
}

// SceneRoots returns the roots of the trees a scene is built from: the
// tree root of every gear a train names, in train order. Trees no train
// reaches are left out. Without any trains every gear root is a scene root.
func (g *DesignGraph) SceneRoots() []*Node {
	trains := g.Trains()
	if len(trains) == 0 {
		return g.GearRoots()
	}
	seen := make(map[NodeID]bool)
	var out []*Node
	for _, t := range trains {
		for _, m := range g.Children(t) {
			if m.Kind != NodeGear {
				continue
			}
			r := g.Nodes[g.TreeRoot(m.ID)]
			if r == nil || seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out
}

// DriveOf returns the first drive targeting id, or nil.
func (g *DesignGraph) DriveOf(id NodeID) *Node {
	for _, d := range g.Drives() {
		if dd, ok := d.Data.(DriveData); ok && dd.Target == id {
			return d
		}
	}
	return nil
}

// Children returns the child nodes of the given node, skipping dangling
// references.
func (g *DesignGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *DesignGraph) NodeCount() int {
	return len(g.Nodes)
}

// NameOf returns the node's name, or its short ID when it has none.
func (g *DesignGraph) NameOf(id NodeID) string {
	if n := g.Nodes[id]; n != nil && n.Name != "" {
		return n.Name
	}
	return id.Short()
}
