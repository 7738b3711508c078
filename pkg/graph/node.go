package graph

// NodeKind enumerates the types of nodes in the design graph.
type NodeKind int

const (
	NodeGear  NodeKind = iota // a gear (gear)
	NodeMesh                  // a parent/child meshing (mesh)
	NodeDrive                 // a driven root (drive)
	NodeGroup                 // a named train (train)
)

func (k NodeKind) String() string {
	switch k {
	case NodeGear:
		return "gear"
	case NodeMesh:
		return "mesh"
	case NodeDrive:
		return "drive"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the design graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
