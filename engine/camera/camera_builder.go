package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// cameraSettings collects construction parameters for both camera variants. Lens parameters
// that do not apply to a variant are ignored by its constructor.
type cameraSettings struct {
	label    string
	position mgl32.Vec3
	target   *mgl32.Vec3
	up       mgl32.Vec3

	near float32
	far  float32

	fov        float32
	width      float32
	height     float32
	pixelRatio float32

	left   float32
	right  float32
	top    float32
	bottom float32

	onChange func(Camera)
	registry renderer.LightsBindingRegistry
}

func newCameraSettings(kind string) *cameraSettings {
	return &cameraSettings{
		label:      kind + "_" + uuid.NewString()[:8],
		up:         mgl32.Vec3{0, 1, 0},
		near:       0.1,
		far:        1000,
		fov:        50,
		width:      800,
		height:     600,
		pixelRatio: 1,
		left:       -1,
		right:      1,
		top:        1,
		bottom:     -1,
	}
}

// CameraBuilderOption is a functional option for configuring a camera at construction.
type CameraBuilderOption func(*cameraSettings)

// WithLabel sets the debug label of the camera's node.
//
// Parameters:
//   - label: the node label
//
// Returns:
//   - CameraBuilderOption: functional option to set the label
func WithLabel(label string) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.label = label
	}
}

// WithPosition sets the camera's initial local position.
//
// Parameters:
//   - position: position in parent space
//
// Returns:
//   - CameraBuilderOption: functional option to set the position
func WithPosition(position mgl32.Vec3) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.position = position
	}
}

// WithTarget orients the camera toward target after the position is applied.
//
// Parameters:
//   - target: the point to face, in parent space
//
// Returns:
//   - CameraBuilderOption: functional option to set the look-at target
func WithTarget(target mgl32.Vec3) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.target = &target
	}
}

// WithUp sets the up vector used when looking at a target.
//
// Parameters:
//   - up: the up vector
//
// Returns:
//   - CameraBuilderOption: functional option to set the up vector
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.up = up
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.far = far
	}
}

// WithFov sets the vertical field of view of a perspective camera, in degrees.
//
// Parameters:
//   - degrees: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: functional option to set the field of view
func WithFov(degrees float32) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.fov = degrees
	}
}

// WithSize sets the viewport size of a perspective camera. The aspect ratio is width / height.
//
// Parameters:
//   - width, height: viewport size in physical pixels
//
// Returns:
//   - CameraBuilderOption: functional option to set the viewport size
func WithSize(width, height float32) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.width = width
		s.height = height
	}
}

// WithPixelRatio sets the physical-to-logical pixel ratio of a perspective camera.
//
// Parameters:
//   - ratio: the pixel ratio
//
// Returns:
//   - CameraBuilderOption: functional option to set the pixel ratio
func WithPixelRatio(ratio float32) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.pixelRatio = ratio
	}
}

// WithBounds sets the view-space box of an orthographic camera.
//
// Parameters:
//   - left, right, top, bottom: the box extents
//
// Returns:
//   - CameraBuilderOption: functional option to set the box
func WithBounds(left, right, top, bottom float32) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.left = left
		s.right = right
		s.top = top
		s.bottom = bottom
	}
}

// WithOnChange installs the change callback at construction.
//
// Parameters:
//   - fn: called after every view or projection change
//
// Returns:
//   - CameraBuilderOption: functional option to set the callback
func WithOnChange(fn func(Camera)) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.onChange = fn
	}
}

// WithRenderer attaches the camera to a registry at construction.
//
// Parameters:
//   - registry: the lights binding registry receiving the camera uniform
//
// Returns:
//   - CameraBuilderOption: functional option to attach the camera
func WithRenderer(registry renderer.LightsBindingRegistry) CameraBuilderOption {
	return func(s *cameraSettings) {
		s.registry = registry
	}
}
