package engine

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	polls    int
	openFor  int
	closed   bool
	onResize func(width, height int)
}

func (w *fakeWindow) PollEvents() bool {
	w.polls++
	return w.polls <= w.openFor
}

func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }

func (w *fakeWindow) Close() error {
	w.closed = true
	return nil
}

type fakeClock struct {
	t    time.Time
	step time.Duration
}

// now advances by step on every call so each frame sees the same delta.
func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newScene(t *testing.T, backend *renderer.MemoryBackend, name string, clear [4]float64) (scene.Scene, renderer.Renderer) {
	t.Helper()
	r, err := renderer.NewRenderer(backend, renderer.WithSize(32, 32), renderer.WithClearColor(clear))
	require.NoError(t, err)
	g := transform.NewGraph()
	s, err := scene.NewScene(name, r, scene.WithGraph(g), scene.WithCamera(camera.NewPerspectiveCamera(g)))
	require.NoError(t, err)
	return s, r
}

func TestFixedTickRate(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: 250 * time.Millisecond}
	ticks := 0
	e := NewEngine(WithTickRate(10), WithClock(clock.now, nil), WithLogger(common.NopLogger()))
	e.SetTickCallback(func(dt float32) {
		assert.InDelta(t, 0.1, dt, 1e-6)
		ticks++
	})

	for range 5 {
		require.NoError(t, e.Step())
	}
	// the first frame has no delta; four of 250ms follow
	assert.Equal(t, 10, ticks)
	assert.Equal(t, 10, e.Ticks())
	assert.Equal(t, 5, e.Frames())
}

func TestTickBacklogIsDropped(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: 10 * time.Second}
	e := NewEngine(WithTickRate(10), WithMaxTicksPerFrame(3), WithClock(clock.now, nil), WithLogger(common.NopLogger()))

	require.NoError(t, e.Step())
	assert.Zero(t, e.Ticks(), "the first frame has no delta")
	require.NoError(t, e.Step())
	assert.Equal(t, 3, e.Ticks())

	clock.step = 100 * time.Millisecond
	require.NoError(t, e.Step())
	assert.Equal(t, 4, e.Ticks(), "the dropped backlog does not carry over")
}

func TestScenesRenderInKeyOrder(t *testing.T) {
	backend := renderer.NewMemoryBackend()
	red, _ := newScene(t, backend, "red", [4]float64{1, 0, 0, 1})
	blue, _ := newScene(t, backend, "blue", [4]float64{0, 0, 1, 1})
	hidden, _ := newScene(t, backend, "hidden", [4]float64{0, 1, 0, 1})
	hidden.SetActive(false)

	e := NewEngine(WithScene(2, red), WithScene(1, blue), WithLogger(common.NopLogger()))
	e.AddScene(3, hidden)
	require.NoError(t, e.Step())

	passes := backend.Submitted()
	require.Len(t, passes, 2)
	assert.Equal(t, [4]float64{0, 0, 1, 1}, passes[0].Desc.ClearColor)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, passes[1].Desc.ClearColor)

	assert.Same(t, red, e.Scene(2))
	e.RemoveScene(2)
	assert.Nil(t, e.Scene(2))
	assert.Len(t, e.Scenes(), 2)
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	backend := renderer.NewMemoryBackend()
	s, r := newScene(t, backend, "main", [4]float64{})
	w := &fakeWindow{openFor: 3}
	e := NewEngine(WithWindow(w), WithScene(0, s), WithLogger(common.NopLogger()))

	require.NoError(t, e.Run())
	assert.Equal(t, 3, e.Frames())
	assert.Equal(t, 3, r.Frames())
	assert.True(t, w.closed)
	assert.Same(t, w, e.Window())
}

func TestRunHeadlessStopsAtMaxFrames(t *testing.T) {
	backend := renderer.NewMemoryBackend()
	s, r := newScene(t, backend, "main", [4]float64{})
	rendered := 0
	e := NewEngine(WithScene(0, s), WithMaxFrames(4), WithLogger(common.NopLogger()))
	e.SetRenderCallback(func(float32) { rendered++ })

	require.NoError(t, e.Run())
	assert.Equal(t, 4, r.Frames())
	assert.Equal(t, 4, rendered)
}

func TestQuitFromTick(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: 40 * time.Millisecond}
	e := NewEngine(WithTickRate(100), WithClock(clock.now, nil), WithLogger(common.NopLogger()))
	e.SetTickCallback(func(float32) {
		if e.Ticks() >= 2 {
			e.Quit()
		}
	})

	require.NoError(t, e.Run())
	assert.GreaterOrEqual(t, e.Ticks(), 3)
}

func TestFrameLimitSleepsRemainder(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Millisecond}
	var slept []time.Duration
	e := NewEngine(WithRenderFrameLimit(100), WithMaxFrames(2), WithLogger(common.NopLogger()),
		WithClock(clock.now, func(d time.Duration) { slept = append(slept, d) }))

	require.NoError(t, e.Run())
	require.Len(t, slept, 2)
	for _, d := range slept {
		assert.Less(t, d, 10*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestResizeForwardsToScenes(t *testing.T) {
	backend := renderer.NewMemoryBackend()
	s, r := newScene(t, backend, "main", [4]float64{})
	w := &fakeWindow{openFor: 1}
	NewEngine(WithWindow(w), WithScene(0, s), WithLogger(common.NopLogger()))

	require.NotNil(t, w.onResize)
	w.onResize(200, 100)
	width, height := r.Size()
	assert.Equal(t, 200, width)
	assert.Equal(t, 100, height)
	assert.Equal(t, float32(2), s.Camera().(camera.PerspectiveCamera).Aspect())
}

func TestProfilerReceivesSceneStats(t *testing.T) {
	backend := renderer.NewMemoryBackend()
	s, _ := newScene(t, backend, "main", [4]float64{})
	var out bytes.Buffer
	clock := &fakeClock{t: time.Unix(0, 0), step: 600 * time.Millisecond}
	e := NewEngine(WithScene(0, s), WithClock(clock.now, nil),
		WithLogger(common.NewWriterLogger(&out, &out, "Engine", false)))

	require.NoError(t, e.Step())
	assert.Zero(t, out.Len(), "profiling is off by default")

	e.EnableProfiler()
	for range 4 {
		require.NoError(t, e.Step())
	}
	assert.Contains(t, out.String(), "[Engine] INFO: FPS:")

	e.DisableProfiler()
	out.Reset()
	for range 4 {
		require.NoError(t, e.Step())
	}
	assert.Zero(t, out.Len())
}
