package input

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	key    func(common.Key, bool)
	button func(common.MouseButton, bool, float32, float32)
	cursor func(float32, float32)
	scroll func(float32)
}

func (f *fakeSource) SetKeyCallback(cb func(common.Key, bool)) { f.key = cb }
func (f *fakeSource) SetCursorCallback(cb func(float32, float32)) { f.cursor = cb }
func (f *fakeSource) SetScrollCallback(cb func(float32)) { f.scroll = cb }

func (f *fakeSource) SetMouseButtonCallback(cb func(common.MouseButton, bool, float32, float32)) {
	f.button = cb
}

func TestKeysPressedOncePerHold(t *testing.T) {
	s := NewState()
	src := &fakeSource{}
	s.Attach(src)
	require.NotNil(t, src.key)

	src.key(common.KeyW, true)
	src.key(common.KeyW, true) // repeat
	assert.True(t, s.Held(common.KeyW))
	assert.True(t, s.Pressed(common.KeyW))

	s.EndTick()
	assert.True(t, s.Held(common.KeyW), "held keys survive the tick")
	assert.False(t, s.Pressed(common.KeyW))

	src.key(common.KeyW, true)
	assert.False(t, s.Pressed(common.KeyW), "repeat is not a new press")
	src.key(common.KeyW, false)
	assert.False(t, s.Held(common.KeyW))
}

func TestDragAccumulatesWhileHeld(t *testing.T) {
	s := NewState()
	src := &fakeSource{}
	s.Attach(src)

	src.cursor(5, 5)
	src.button(common.MouseButtonMiddle, true, 10, 10)
	src.cursor(13, 8)
	src.cursor(15, 4)
	dx, dy := s.Drag(common.MouseButtonMiddle)
	assert.Equal(t, float32(5), dx)
	assert.Equal(t, float32(-6), dy)
	x, y := s.CursorPosition()
	assert.Equal(t, float32(15), x)
	assert.Equal(t, float32(4), y)

	src.button(common.MouseButtonMiddle, false, 15, 4)
	src.cursor(100, 100)
	dx, _ = s.Drag(common.MouseButtonMiddle)
	assert.Equal(t, float32(5), dx, "moves after release are not dragged")

	src.scroll(1)
	src.scroll(0.5)
	assert.Equal(t, float32(1.5), s.ScrollDelta())

	s.EndTick()
	dx, dy = s.Drag(common.MouseButtonMiddle)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	assert.Zero(t, s.ScrollDelta())
}

func TestOrbitBinding(t *testing.T) {
	g := transform.NewGraph()
	cam := camera.NewPerspectiveCamera(g)
	oc := camera.NewOrbitController(cam, camera.WithRadius(10), camera.WithElevation(0))
	b := NewOrbitBinding(oc)
	s := NewState()

	assert.True(t, b.Apply(s), "the first update places the camera")
	assert.False(t, b.Apply(s))

	s.Key(common.KeyW, true)
	assert.True(t, b.Apply(s))
	target := oc.Target()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, target[:], 1e-4, "target %v", target)
	s.Key(common.KeyW, false)

	s.Scroll(2)
	assert.True(t, b.Apply(s))
	assert.Equal(t, float32(8), oc.Radius())
	s.EndTick()

	s.MouseButton(common.MouseButtonMiddle, true, 0, 0)
	s.Cursor(10, 0)
	assert.True(t, b.Apply(s))
	assert.Less(t, oc.Azimuth(), float32(0))
	s.EndTick()

	assert.False(t, b.Apply(s))
	g.UpdateMatrixStack(cam.Node())
	assert.InDelta(t, 8, cam.WorldPosition().Sub(oc.Target()).Len(), 1e-3)
}
