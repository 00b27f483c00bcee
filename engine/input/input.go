package input

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
)

// EventSource is the callback surface of a window. window.Window implements it.
type EventSource interface {
	SetKeyCallback(callback func(key common.Key, down bool))
	SetMouseButtonCallback(callback func(button common.MouseButton, down bool, x, y float32))
	SetCursorCallback(callback func(x, y float32))
	SetScrollCallback(callback func(delta float32))
}

// State accumulates window input between ticks: held keys, keys pressed since the last tick,
// mouse drag deltas per button and scroll. It is filled by window callbacks and read by tick
// callbacks on the same goroutine.
type State struct {
	held    map[common.Key]bool
	pressed map[common.Key]bool

	buttons  map[common.MouseButton]bool
	cursorX  float32
	cursorY  float32
	hasMoved bool
	drag     map[common.MouseButton][2]float32

	scroll float32
}

// NewState creates an empty input state.
func NewState() *State {
	return &State{
		held:    make(map[common.Key]bool),
		pressed: make(map[common.Key]bool),
		buttons: make(map[common.MouseButton]bool),
		drag:    make(map[common.MouseButton][2]float32),
	}
}

// Attach installs the state's event sinks as w's input callbacks, replacing any set before.
//
// Parameters:
//   - w: the window
func (s *State) Attach(w EventSource) {
	w.SetKeyCallback(s.Key)
	w.SetMouseButtonCallback(s.MouseButton)
	w.SetCursorCallback(s.Cursor)
	w.SetScrollCallback(s.Scroll)
}

// Key records a key press or release. Repeats of a held key are not counted as new presses.
func (s *State) Key(key common.Key, down bool) {
	if down && !s.held[key] {
		s.pressed[key] = true
	}
	s.held[key] = down
}

// MouseButton records a button press or release at the given cursor position.
func (s *State) MouseButton(button common.MouseButton, down bool, x, y float32) {
	s.buttons[button] = down
	s.cursorX, s.cursorY, s.hasMoved = x, y, true
}

// Cursor records a cursor move and adds the delta to every held button's drag.
func (s *State) Cursor(x, y float32) {
	if s.hasMoved {
		dx, dy := x-s.cursorX, y-s.cursorY
		for b, down := range s.buttons {
			if down {
				d := s.drag[b]
				s.drag[b] = [2]float32{d[0] + dx, d[1] + dy}
			}
		}
	}
	s.cursorX, s.cursorY, s.hasMoved = x, y, true
}

// Scroll accumulates wheel deltas.
func (s *State) Scroll(delta float32) {
	s.scroll += delta
}

// Held reports whether key is currently down.
func (s *State) Held(key common.Key) bool {
	return s.held[key]
}

// Pressed reports whether key went down since the last EndTick.
func (s *State) Pressed(key common.Key) bool {
	return s.pressed[key]
}

// ButtonHeld reports whether a mouse button is currently down.
func (s *State) ButtonHeld(button common.MouseButton) bool {
	return s.buttons[button]
}

// CursorPosition returns the last known cursor position.
func (s *State) CursorPosition() (x, y float32) {
	return s.cursorX, s.cursorY
}

// Drag returns the cursor motion accumulated while button was held since the last EndTick.
func (s *State) Drag(button common.MouseButton) (dx, dy float32) {
	d := s.drag[button]
	return d[0], d[1]
}

// ScrollDelta returns the wheel motion accumulated since the last EndTick.
func (s *State) ScrollDelta() float32 {
	return s.scroll
}

// EndTick clears per-tick presses, drags and scroll. Held keys and buttons stay.
func (s *State) EndTick() {
	clear(s.pressed)
	clear(s.drag)
	s.scroll = 0
}
