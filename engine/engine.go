package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/input"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// Window is the part of window.Window the engine loop drives. A window that also implements
// input.EventSource feeds the engine's input state.
type Window interface {
	// PollEvents dispatches pending events and reports whether the window is still open.
	PollEvents() bool

	// SetResizeCallback sets the function called when the framebuffer is resized.
	SetResizeCallback(callback func(width, height int))

	// Close destroys the window.
	Close() error
}

// engine implements the Engine interface.
// Everything runs on the goroutine that calls Run or Step: event polling, ticks and rendering.
type engine struct {
	window Window
	input  *input.State
	logger common.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	now   func() time.Time
	sleep func(time.Duration)

	tickRate         time.Duration
	maxTicksPerFrame int
	accumulator      time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        int           // 0 = unlimited

	scenes map[int]scene.Scene

	lastFrame time.Time
	frames    int
	ticks     int
	quit      atomic.Bool
}

// Engine is the main entry point for the engine.
// It orchestrates the window, fixed-rate ticks and scene rendering in one loop.
type Engine interface {
	// Window returns the window, or nil for a headless engine.
	//
	// Returns:
	//   - Window: the window instance
	Window() Window

	// Input returns the input state filled by the window between ticks.
	//
	// Returns:
	//   - *input.State: the input state
	Input() *input.State

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, before the frame is
	// rendered. Use this for game logic, input processing and moving scene nodes.
	//
	// Parameters:
	//   - callback: function receiving the fixed tick duration in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after the scenes of each frame rendered.
	//
	// Parameters:
	//   - callback: function receiving the frame delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Step runs one loop iteration: poll events, run the ticks that are due, render every
	// active scene and call the render callback.
	//
	// Returns:
	//   - error: the joined errors of the scenes that failed to render
	Step() error

	// Run calls Step until the window closes, Quit is called or the frame limit is reached.
	// Scene errors are logged and do not stop the loop.
	//
	// Returns:
	//   - error: error from closing the window
	Run() error

	// Frames returns the number of loop iterations run.
	Frames() int

	// Ticks returns the number of ticks run.
	Ticks() int

	// Quit stops Run after the current iteration. Safe to call from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (window, scenes, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		input:            input.NewState(),
		logger:           common.NewDefaultLogger("Engine", false),
		now:              time.Now,
		sleep:            time.Sleep,
		tickRate:         time.Second / 60,
		maxTicksPerFrame: 5,
		scenes:           make(map[int]scene.Scene),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(e.logger, profiler.WithClock(e.now))
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
		if src, ok := e.window.(input.EventSource); ok {
			e.input.Attach(src)
		}
	}
	return e
}

func (e *engine) Window() Window {
	return e.window
}

func (e *engine) Input() *input.State {
	return e.input
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	e.tickRate = tickDuration(fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameLimit(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func (e *engine) Frames() int {
	return e.frames
}

func (e *engine) Ticks() int {
	return e.ticks
}

func (e *engine) Quit() {
	e.quit.Store(true)
}

func (e *engine) Run() error {
	for !e.quit.Load() {
		var start time.Time
		if e.renderFrameLimit > 0 {
			start = e.now()
		}
		if err := e.Step(); err != nil {
			e.logger.Errorf("frame %d: %v", e.frames, err)
		}
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
				e.sleep(remaining)
			}
		}
	}
	if e.window != nil {
		return e.window.Close()
	}
	return nil
}

func (e *engine) Step() error {
	now := e.now()
	if e.lastFrame.IsZero() {
		e.lastFrame = now
	}
	dt := now.Sub(e.lastFrame)
	e.lastFrame = now

	if e.window != nil && !e.window.PollEvents() {
		e.Quit()
		return nil
	}

	e.runTicks(dt)
	err := e.renderScenes()

	if e.renderCallback != nil {
		e.renderCallback(float32(dt.Seconds()))
	}
	e.frames++
	if e.maxFrames > 0 && e.frames >= e.maxFrames {
		e.Quit()
	}
	return err
}

// runTicks runs the fixed-rate ticks that fit in the accumulated time. A backlog larger than
// maxTicksPerFrame is dropped so a stalled frame cannot snowball.
func (e *engine) runTicks(dt time.Duration) {
	e.accumulator += dt
	n := 0
	for e.accumulator >= e.tickRate && n < e.maxTicksPerFrame {
		if e.tickCallback != nil {
			e.tickCallback(float32(e.tickRate.Seconds()))
		}
		e.input.EndTick()
		e.accumulator -= e.tickRate
		e.ticks++
		n++
	}
	if e.accumulator >= e.tickRate {
		e.logger.Debugf("dropping %v of tick backlog", e.accumulator)
		e.accumulator = 0
	}
}

// renderScenes renders every active scene in ascending key order.
func (e *engine) renderScenes() error {
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sample profiler.Sample
	var errs []error
	for _, k := range keys {
		s := e.scenes[k]
		if !s.Active() {
			continue
		}
		if err := s.Frame(); err != nil {
			errs = append(errs, fmt.Errorf("scene %d (%s): %w", k, s.Name(), err))
		}
		st := s.Stats()
		sample.Drawn += st.Drawn
		sample.Culled += st.Culled
		sample.Recomputed += st.Update.Recomputed()
		sample.ShadowPasses += st.ShadowPasses
		sample.BytesFlushed += st.BytesFlushed
		sample.Overflows += st.Overflows
	}
	if e.profilingEnabled {
		e.profiler.Tick(sample)
	}
	return errors.Join(errs...)
}

// resize forwards a framebuffer resize to every scene.
func (e *engine) resize(width, height int) {
	for k, s := range e.scenes {
		if err := s.Resize(width, height); err != nil {
			e.logger.Warnf("resize scene %d to %dx%d: %v", k, width, height, err)
		}
	}
}

func tickDuration(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
