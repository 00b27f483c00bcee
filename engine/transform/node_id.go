package transform

import "fmt"

// NodeID is a stable handle to a node in a Graph. The zero value is NilNode.
type NodeID struct {
	index      uint32
	generation uint32
}

// NilNode is the handle that refers to no node (a root's parent).
var NilNode = NodeID{}

// IsValid reports whether the handle is non-nil. It does not check liveness; use Graph.Valid.
func (id NodeID) IsValid() bool {
	return id.generation != 0
}

// Index returns the arena slot of the handle.
func (id NodeID) Index() uint32 {
	return id.index
}

func (id NodeID) String() string {
	if !id.IsValid() {
		return "node(nil)"
	}
	return fmt.Sprintf("node(%d#%d)", id.index, id.generation)
}
