package transform

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-4

func assertMat4Near(t *testing.T, name string, got, want mgl32.Mat4) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], epsilon, "%s = %v, want %v", name, got, want)
}

func TestCreateNodeIdentity(t *testing.T) {
	g := NewGraph()
	id := g.CreateNode("root")
	require.True(t, g.Valid(id))

	g.UpdateMatrixStack(id)
	assertMat4Near(t, "model", g.ModelMatrix(id), mgl32.Ident4())
	assertMat4Near(t, "world", g.WorldMatrix(id), mgl32.Ident4())
	assert.Equal(t, NilNode, g.Parent(id))
}

func TestChainWorldIsProductOfModels(t *testing.T) {
	g := NewGraph()
	const depth = 6
	ids := make([]NodeID, depth)
	for i := range ids {
		ids[i] = g.CreateNode("")
		if i > 0 {
			require.NoError(t, g.SetParent(ids[i], ids[i-1]))
		}
		f := float32(i + 1)
		g.SetPosition(ids[i], mgl32.Vec3{f, -f * 0.5, f * 2})
		g.SetRotation(ids[i], mgl32.Vec3{0.1 * f, 0.2, -0.05 * f})
		g.SetScale(ids[i], mgl32.Vec3{1 + 0.1*f, 1, 0.9})
		if i%2 == 0 {
			g.SetPivot(ids[i], mgl32.Vec3{0.5, 0, -0.5})
		}
	}

	g.UpdateMatrixStack(ids[0])

	want := mgl32.Ident4()
	for _, id := range ids {
		want = want.Mul4(g.ModelMatrix(id))
	}
	assertMat4Near(t, "leaf world", g.WorldMatrix(ids[depth-1]), want)
}

func TestUpdateMatrixStackIsIdempotent(t *testing.T) {
	g := NewGraph()
	root := g.CreateNode("root")
	a := g.CreateNode("a")
	b := g.CreateNode("b")
	require.NoError(t, g.SetParent(a, root))
	require.NoError(t, g.SetParent(b, a))
	g.SetPosition(b, mgl32.Vec3{1, 2, 3})

	first := g.UpdateMatrixStack(root)
	assert.Equal(t, 3, first.ModelRecomputed)
	assert.Equal(t, 3, first.WorldRecomputed)

	second := g.UpdateMatrixStack(root)
	assert.Zero(t, second.Recomputed())
	assert.Equal(t, 3, second.NodesVisited)
}

func TestParentChangePropagatesToDescendantsOnly(t *testing.T) {
	g := NewGraph()
	root := g.CreateNode("root")
	a := g.CreateNode("a")
	b := g.CreateNode("b")
	sibling := g.CreateNode("sibling")
	require.NoError(t, g.SetParent(a, root))
	require.NoError(t, g.SetParent(b, a))
	require.NoError(t, g.SetParent(sibling, root))
	g.UpdateMatrixStack(root)

	g.SetPosition(a, mgl32.Vec3{0, 5, 0})
	stats := g.UpdateMatrixStack(root)

	// a: model + world, b: world only, root and sibling untouched.
	assert.Equal(t, 1, stats.ModelRecomputed)
	assert.Equal(t, 2, stats.WorldRecomputed)
	assert.Equal(t, ModelUpdated|WorldUpdated, g.UpdatedThisFrame(a))
	assert.Equal(t, WorldUpdated, g.UpdatedThisFrame(b))
	assert.Zero(t, g.UpdatedThisFrame(sibling))
	assert.InDelta(t, 5, g.WorldPosition(b).Y(), epsilon)
}

func TestSetSameParentIsNoOp(t *testing.T) {
	g := NewGraph()
	root := g.CreateNode("root")
	a := g.CreateNode("a")
	b := g.CreateNode("b")
	require.NoError(t, g.SetParent(a, root))
	require.NoError(t, g.SetParent(b, root))
	g.UpdateMatrixStack(root)

	before := g.Children(root)
	require.NoError(t, g.SetParent(a, root))

	modelDirty, worldDirty := g.IsDirty(a)
	assert.False(t, modelDirty)
	assert.False(t, worldDirty)
	assert.Equal(t, before, g.Children(root))
	assert.Zero(t, g.UpdateMatrixStack(root).Recomputed())
}

func TestReparentMovesBetweenChildLists(t *testing.T) {
	g := NewGraph()
	p1 := g.CreateNode("p1")
	p2 := g.CreateNode("p2")
	c := g.CreateNode("c")
	require.NoError(t, g.SetParent(c, p1))
	require.NoError(t, g.SetParent(c, p2))

	assert.Empty(t, g.Children(p1))
	assert.Equal(t, []NodeID{c}, g.Children(p2))
	assert.Equal(t, p2, g.Parent(c))

	require.NoError(t, g.SetParent(c, NilNode))
	assert.Empty(t, g.Children(p2))
	assert.Equal(t, NilNode, g.Parent(c))
}

func TestSetParentRejectsCycles(t *testing.T) {
	g := NewGraph()
	a := g.CreateNode("a")
	b := g.CreateNode("b")
	c := g.CreateNode("c")
	require.NoError(t, g.SetParent(b, a))
	require.NoError(t, g.SetParent(c, b))

	assert.ErrorIs(t, g.SetParent(a, a), ErrCycle)
	assert.ErrorIs(t, g.SetParent(a, c), ErrCycle)
	assert.Equal(t, NilNode, g.Parent(a))
	assert.Equal(t, []NodeID{c}, g.Children(b))
}

func TestDestroyReleasesChildrenAndInvalidatesHandle(t *testing.T) {
	g := NewGraph()
	root := g.CreateNode("root")
	mid := g.CreateNode("mid")
	leaf := g.CreateNode("leaf")
	require.NoError(t, g.SetParent(mid, root))
	require.NoError(t, g.SetParent(leaf, mid))
	g.SetPosition(mid, mgl32.Vec3{3, 0, 0})
	g.UpdateMatrixStack(root)
	require.InDelta(t, 3, g.WorldPosition(leaf).X(), epsilon)

	g.Destroy(mid)
	assert.False(t, g.Valid(mid))
	assert.True(t, g.Valid(leaf))
	assert.Equal(t, NilNode, g.Parent(leaf))
	assert.Empty(t, g.Children(root))

	g.UpdateMatrixStack(leaf)
	assert.InDelta(t, 0, g.WorldPosition(leaf).X(), epsilon)

	reused := g.CreateNode("reused")
	assert.Equal(t, mid.Index(), reused.Index())
	assert.NotEqual(t, mid, reused)
	assert.False(t, g.Valid(mid))
	assert.ErrorIs(t, g.SetParent(mid, root), ErrInvalidNode)
}

func TestObserverFiresOnlyOnRecompute(t *testing.T) {
	g := NewGraph()
	root := g.CreateNode("root")
	child := g.CreateNode("child")
	require.NoError(t, g.SetParent(child, root))

	var calls []NodeID
	var parentWorldSeen mgl32.Mat4
	g.SetObserver(root, func(id NodeID, _ MatrixUpdate) { calls = append(calls, id) })
	g.SetObserver(child, func(id NodeID, update MatrixUpdate) {
		calls = append(calls, id)
		parentWorldSeen = g.WorldMatrix(root)
	})

	g.SetPosition(root, mgl32.Vec3{0, 0, 7})
	g.UpdateMatrixStack(root)
	assert.Equal(t, []NodeID{root, child}, calls)
	assertMat4Near(t, "parent world seen by child", parentWorldSeen, mgl32.Translate3D(0, 0, 7))

	calls = nil
	g.UpdateMatrixStack(root)
	assert.Empty(t, calls)
}

func TestObserverMayCreateNodes(t *testing.T) {
	g := NewGraph()
	root := g.CreateNode("root")
	child := g.CreateNode("child")
	require.NoError(t, g.SetParent(child, root))
	g.SetObserver(root, func(NodeID, MatrixUpdate) {
		for i := 0; i < 64; i++ {
			g.CreateNode("")
		}
	})

	stats := g.UpdateMatrixStack(root)
	assert.Equal(t, 2, stats.NodesVisited)
	assert.Equal(t, 66, g.Len())
}

func TestPivotRotatesAroundPoint(t *testing.T) {
	g := NewGraph()
	n := g.CreateNode("n")
	g.SetPivot(n, mgl32.Vec3{1, 0, 0})
	g.SetRotation(n, mgl32.Vec3{0, 0, mgl32.DegToRad(90)})
	g.UpdateMatrixStack(n)

	// the pivot itself is a fixed point of the transform.
	p := g.WorldMatrix(n).Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 1, p.X(), epsilon)
	assert.InDelta(t, 0, p.Y(), epsilon)

	o := g.WorldMatrix(n).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 1, o.X(), epsilon)
	assert.InDelta(t, -1, o.Y(), epsilon)
}

func TestLookAtPointsNegativeZAtTarget(t *testing.T) {
	g := NewGraph()
	n := g.CreateNode("n")
	eye := mgl32.Vec3{0, 0, 10}
	g.SetPosition(n, eye)
	g.LookAt(n, mgl32.Vec3{10, 0, 10}, eye, mgl32.Vec3{0, 1, 0})
	g.UpdateMatrixStack(n)

	forward := g.WorldMatrix(n).Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	assert.InDelta(t, 1, forward.X(), epsilon)
	assert.InDelta(t, 0, forward.Y(), epsilon)
	assert.InDelta(t, 0, forward.Z(), epsilon)
}

func TestEulerAndQuaternionStayInSync(t *testing.T) {
	g := NewGraph()
	n := g.CreateNode("n")
	euler := mgl32.Vec3{0.3, -0.4, 1.1}
	g.SetRotation(n, euler)
	q := g.Quaternion(n)

	g.SetQuaternion(n, q)
	got := g.Rotation(n)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, euler[i], got[i], epsilon)
	}
}
