package mesh

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

type meshSettings struct {
	label    string
	color    mgl32.Vec4
	position mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3
	parent   transform.NodeID
	visible  bool
	logger   common.Logger
}

// MeshBuilderOption is a functional option for configuring a Mesh.
type MeshBuilderOption func(s *meshSettings)

// WithLabel sets the mesh label used for its node and GPU resources. Defaults to the primitive name.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithLabel(label string) MeshBuilderOption {
	return func(s *meshSettings) {
		s.label = label
	}
}

// WithColor sets the linear RGBA color. Defaults to opaque white.
//
// Parameters:
//   - color: the color
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithColor(color mgl32.Vec4) MeshBuilderOption {
	return func(s *meshSettings) {
		s.color = color
	}
}

// WithPosition sets the node's local position.
func WithPosition(position mgl32.Vec3) MeshBuilderOption {
	return func(s *meshSettings) {
		s.position = position
	}
}

// WithRotation sets the node's local rotation as Euler angles in radians.
func WithRotation(euler mgl32.Vec3) MeshBuilderOption {
	return func(s *meshSettings) {
		s.rotation = euler
	}
}

// WithScale sets the node's local scale.
func WithScale(scale mgl32.Vec3) MeshBuilderOption {
	return func(s *meshSettings) {
		s.scale = scale
	}
}

// WithParent parents the mesh node under parent.
func WithParent(parent transform.NodeID) MeshBuilderOption {
	return func(s *meshSettings) {
		s.parent = parent
	}
}

// WithVisible sets the initial main pass visibility.
func WithVisible(visible bool) MeshBuilderOption {
	return func(s *meshSettings) {
		s.visible = visible
	}
}

// WithLogger overrides the renderer's logger.
func WithLogger(logger common.Logger) MeshBuilderOption {
	return func(s *meshSettings) {
		s.logger = logger
	}
}
