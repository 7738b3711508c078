package graph

import (
	"github.com/google/uuid"
)

// NodeID identifies a node. IDs are name-based (UUID v5) so the same
// source always produces the same IDs.
type NodeID uuid.UUID

// ZeroID is the unset NodeID.
var ZeroID NodeID

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/gearsim/graph"))

// NewNodeID derives a NodeID from a path such as "gear/sun" or
// "mesh/sun/planet".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(path)))
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first eight hex digits, for messages.
func (id NodeID) Short() string {
	return id.String()[:8]
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

func (id NodeID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *NodeID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = NodeID(u)
	return nil
}
