package input

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
)

// OrbitKeys maps keys to orbit controller movements.
type OrbitKeys struct {
	Forward, Back common.Key
	Left, Right   common.Key
	Up, Down      common.Key

	OrbitLeft, OrbitRight common.Key
	OrbitUp, OrbitDown    common.Key
}

// DefaultOrbitKeys pans with WASD, moves vertically with Q/E and orbits with the arrow keys.
func DefaultOrbitKeys() OrbitKeys {
	return OrbitKeys{
		Forward:    common.KeyW,
		Back:       common.KeyS,
		Left:       common.KeyA,
		Right:      common.KeyD,
		Up:         common.KeyQ,
		Down:       common.KeyE,
		OrbitLeft:  common.KeyLeft,
		OrbitRight: common.KeyRight,
		OrbitUp:    common.KeyUp,
		OrbitDown:  common.KeyDown,
	}
}

// OrbitBinding drives an orbit controller from an input State: held keys pan and orbit,
// a drag with the orbit button rotates and the wheel zooms.
type OrbitBinding struct {
	Controller  camera.OrbitController
	Keys        OrbitKeys
	OrbitButton common.MouseButton
}

// NewOrbitBinding binds oc with the default keys and the middle mouse button.
//
// Parameters:
//   - oc: the controller to drive
//
// Returns:
//   - *OrbitBinding: the binding
func NewOrbitBinding(oc camera.OrbitController) *OrbitBinding {
	return &OrbitBinding{
		Controller:  oc,
		Keys:        DefaultOrbitKeys(),
		OrbitButton: common.MouseButtonMiddle,
	}
}

// Apply feeds one tick of input into the controller and moves the camera.
//
// Parameters:
//   - s: the input state
//
// Returns:
//   - bool: true when the camera moved
func (b *OrbitBinding) Apply(s *State) bool {
	oc, k := b.Controller, b.Keys

	var right, up, forward float32
	if s.Held(k.Forward) {
		forward++
	}
	if s.Held(k.Back) {
		forward--
	}
	if s.Held(k.Right) {
		right++
	}
	if s.Held(k.Left) {
		right--
	}
	if s.Held(k.Up) {
		up++
	}
	if s.Held(k.Down) {
		up--
	}
	if right != 0 || up != 0 || forward != 0 {
		oc.Pan(right, up, forward)
	}

	if s.Held(k.OrbitLeft) {
		oc.OrbitLeft()
	}
	if s.Held(k.OrbitRight) {
		oc.OrbitRight()
	}
	if s.Held(k.OrbitUp) {
		oc.OrbitUp()
	}
	if s.Held(k.OrbitDown) {
		oc.OrbitDown()
	}

	if dx, dy := s.Drag(b.OrbitButton); dx != 0 || dy != 0 {
		oc.Orbit(dx, dy)
	}
	if d := s.ScrollDelta(); d != 0 {
		oc.Zoom(d)
	}
	return oc.Update()
}
