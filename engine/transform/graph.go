package transform

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrInvalidNode is returned when a NodeID does not refer to a live node.
	ErrInvalidNode = errors.New("transform: invalid node")

	// ErrCycle is returned when a reparent would make a node its own ancestor.
	ErrCycle = errors.New("transform: parent would create a cycle")
)

// MatrixUpdate is a bit set describing which matrices of a node were recomputed.
type MatrixUpdate uint8

const (
	// ModelUpdated means the local-to-parent matrix was recomputed.
	ModelUpdated MatrixUpdate = 1 << iota

	// WorldUpdated means the local-to-world matrix was recomputed.
	WorldUpdated
)

// Observer is invoked during UpdateMatrixStack right after a node's own matrices were recomputed
// and before any of its children are visited. It is never invoked for a node that did not change.
type Observer func(id NodeID, update MatrixUpdate)

// UpdateStats counts the work done by one UpdateMatrixStack call.
type UpdateStats struct {
	ModelRecomputed int
	WorldRecomputed int
	NodesVisited    int
}

// Recomputed returns the total number of matrices recomputed.
func (s UpdateStats) Recomputed() int {
	return s.ModelRecomputed + s.WorldRecomputed
}

// node is one arena slot. A slot is live while alive is true; generation is bumped on release
// so stale NodeIDs can be detected.
type node struct {
	generation uint32
	alive      bool
	label      string

	parent   NodeID
	children []NodeID

	position   mgl32.Vec3
	euler      mgl32.Vec3
	quaternion mgl32.Quat
	scale      mgl32.Vec3
	pivot      mgl32.Vec3

	model mgl32.Mat4
	world mgl32.Mat4

	modelDirty bool
	worldDirty bool

	observer Observer

	updatedFrame uint64
	lastUpdate   MatrixUpdate
}

// Graph is an arena of transform nodes addressed by generation-checked handles.
// Parent and child links are handles, so no node holds a pointer to another.
// A Graph is not safe for concurrent use; it is driven from the frame loop.
type Graph struct {
	nodes []node
	free  []uint32

	frame uint64

	logger common.Logger
}

// NewGraph creates an empty Graph.
//
// Parameters:
//   - options: functional options (capacity, logger)
//
// Returns:
//   - *Graph: the new graph
func NewGraph(options ...GraphBuilderOption) *Graph {
	g := &Graph{
		logger: common.NopLogger(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// CreateNode allocates a node with identity local transform and no parent.
// Released slots are reused; their generation differs so old handles stay invalid.
//
// Parameters:
//   - label: a debug label (may be empty)
//
// Returns:
//   - NodeID: the handle of the new node
func (g *Graph) CreateNode(label string) NodeID {
	var index uint32
	if n := len(g.free); n > 0 {
		index = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		index = uint32(len(g.nodes))
		g.nodes = append(g.nodes, node{})
	}
	n := &g.nodes[index]
	generation := n.generation + 1
	*n = node{
		generation: generation,
		alive:      true,
		label:      label,
		parent:     NilNode,
		quaternion: mgl32.QuatIdent(),
		scale:      mgl32.Vec3{1, 1, 1},
		model:      mgl32.Ident4(),
		world:      mgl32.Ident4(),
		modelDirty: true,
		worldDirty: true,
	}
	return NodeID{index: index, generation: generation}
}

// Destroy detaches the node from its parent and releases its children, which become roots.
// The slot is returned to the free list. Destroying an invalid handle does nothing.
func (g *Graph) Destroy(id NodeID) {
	n := g.get(id)
	if n == nil {
		return
	}
	if n.parent.IsValid() {
		g.detach(id, n.parent)
	}
	for _, child := range n.children {
		if c := g.get(child); c != nil {
			c.parent = NilNode
			c.worldDirty = true
		}
	}
	n.children = nil
	n.alive = false
	n.observer = nil
	g.free = append(g.free, id.index)
}

// Valid reports whether id refers to a live node of this graph.
func (g *Graph) Valid(id NodeID) bool {
	return g.get(id) != nil
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return len(g.nodes) - len(g.free)
}

// SetParent reparents id under parent, or detaches it when parent is NilNode.
// Assigning the current parent is a no-op that sets no dirty flag and leaves every child list untouched.
//
// Parameters:
//   - id: the node to move
//   - parent: the new parent, or NilNode
//
// Returns:
//   - error: ErrInvalidNode for stale handles, ErrCycle if parent is id or one of its descendants
func (g *Graph) SetParent(id, parent NodeID) error {
	n := g.get(id)
	if n == nil {
		return ErrInvalidNode
	}
	if n.parent == parent {
		return nil
	}
	if parent.IsValid() {
		if g.get(parent) == nil {
			return ErrInvalidNode
		}
		for p := parent; p.IsValid(); p = g.nodes[p.index].parent {
			if p == id {
				g.logger.Debugf("rejected parenting %s under %s: cycle", id, parent)
				return ErrCycle
			}
		}
	}

	if n.parent.IsValid() {
		g.detach(id, n.parent)
	}
	n.parent = parent
	if parent.IsValid() {
		pn := &g.nodes[parent.index]
		pn.children = append(pn.children, id)
	}
	n.worldDirty = true
	return nil
}

// detach removes id from parent's child list, preserving sibling order.
func (g *Graph) detach(id, parent NodeID) {
	p := g.get(parent)
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == id {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
}

// Parent returns the parent handle of id, or NilNode.
func (g *Graph) Parent(id NodeID) NodeID {
	if n := g.get(id); n != nil {
		return n.parent
	}
	return NilNode
}

// Children returns a copy of id's ordered child list.
func (g *Graph) Children(id NodeID) []NodeID {
	n := g.get(id)
	if n == nil {
		return nil
	}
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

// Label returns the debug label of id.
func (g *Graph) Label(id NodeID) string {
	if n := g.get(id); n != nil {
		return n.label
	}
	return ""
}

// SetObserver installs (or clears, with nil) the matrix observer for id.
func (g *Graph) SetObserver(id NodeID, fn Observer) {
	if n := g.get(id); n != nil {
		n.observer = fn
	}
}

// UpdatedThisFrame returns which matrices of id were recomputed by the most recent UpdateMatrixStack.
// This is the pull-based alternative to an Observer.
func (g *Graph) UpdatedThisFrame(id NodeID) MatrixUpdate {
	n := g.get(id)
	if n == nil || n.updatedFrame != g.frame {
		return 0
	}
	return n.lastUpdate
}

// IsDirty reports whether id has a pending model or world recomputation.
func (g *Graph) IsDirty(id NodeID) (model, world bool) {
	if n := g.get(id); n != nil {
		return n.modelDirty, n.worldDirty
	}
	return false, false
}

// UpdateMatrixStack walks the subtree rooted at root parent-before-child and recomputes every
// dirty matrix. A node whose world matrix is recomputed marks its direct children world-dirty;
// they are recomputed when the walk reaches them.
//
// Parameters:
//   - root: the subtree root, usually the scene root
//
// Returns:
//   - UpdateStats: how many matrices were recomputed
func (g *Graph) UpdateMatrixStack(root NodeID) UpdateStats {
	g.frame++
	var stats UpdateStats
	if g.get(root) == nil {
		return stats
	}
	g.updateNode(root, &stats)
	return stats
}

func (g *Graph) updateNode(id NodeID, stats *UpdateStats) {
	n := &g.nodes[id.index]
	stats.NodesVisited++

	var update MatrixUpdate
	if n.modelDirty {
		n.model = common.ComposeModelMatrix(n.position, n.quaternion, n.scale, n.pivot)
		n.modelDirty = false
		n.worldDirty = true
		update |= ModelUpdated
		stats.ModelRecomputed++
	}
	if n.worldDirty {
		if p := g.get(n.parent); p != nil {
			n.world = p.world.Mul4(n.model)
		} else {
			n.world = n.model
		}
		n.worldDirty = false
		update |= WorldUpdated
		stats.WorldRecomputed++
		for _, c := range n.children {
			g.nodes[c.index].worldDirty = true
		}
	}

	if update != 0 {
		n.updatedFrame = g.frame
		n.lastUpdate = update
		if n.observer != nil {
			n.observer(id, update)
		}
	}

	// the observer may create nodes and grow the arena, so re-read the slot per child.
	for i := 0; i < len(g.nodes[id.index].children); i++ {
		child := g.nodes[id.index].children[i]
		if g.get(child) != nil {
			g.updateNode(child, stats)
		}
	}
}

func (g *Graph) get(id NodeID) *node {
	if !id.IsValid() || int(id.index) >= len(g.nodes) {
		return nil
	}
	n := &g.nodes[id.index]
	if !n.alive || n.generation != id.generation {
		return nil
	}
	return n
}
