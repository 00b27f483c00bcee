package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
)

type sceneSettings struct {
	active          bool
	graph           *transform.Graph
	camera          camera.Camera
	lights          []light.Light
	drawables       []renderer.Drawable
	casters         []renderer.Drawable
	cullingDisabled bool
	logger          common.Logger
}

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *sceneSettings)

// WithActive sets whether the scene renders on Frame. Scenes are active by default.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *sceneSettings) {
		s.active = active
	}
}

// WithGraph makes the scene use an existing transform graph. Cameras and lights passed to the
// scene must be built on this graph.
//
// Parameters:
//   - graph: the transform graph
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithGraph(graph *transform.Graph) SceneBuilderOption {
	return func(s *sceneSettings) {
		s.graph = graph
	}
}

// WithCamera sets the initial camera.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *sceneSettings) {
		s.camera = cam
	}
}

// WithLights adds initial lights. They are attached to the renderer in order, so their
// slot indices follow the argument order.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *sceneSettings) {
		s.lights = append(s.lights, lights...)
	}
}

// WithDrawables adds initial drawables.
//
// Parameters:
//   - drawables: the drawables to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDrawables(drawables ...renderer.Drawable) SceneBuilderOption {
	return func(s *sceneSettings) {
		s.drawables = append(s.drawables, drawables...)
	}
}

// WithShadowCasters adds initial drawables that also cast shadows.
//
// Parameters:
//   - drawables: the shadow casting drawables
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShadowCasters(drawables ...renderer.Drawable) SceneBuilderOption {
	return func(s *sceneSettings) {
		s.casters = append(s.casters, drawables...)
	}
}

// WithCullingDisabled disables frustum culling for the scene. When set to true, every visible
// drawable is handed to the main pass regardless of its bounds.
// By default culling is enabled (disabled = false).
//
// Parameters:
//   - disabled: true to disable frustum culling, false to enable it (default)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *sceneSettings) {
		s.cullingDisabled = disabled
	}
}

// WithLogger sets the scene logger. The renderer's logger is used by default.
func WithLogger(logger common.Logger) SceneBuilderOption {
	return func(s *sceneSettings) {
		s.logger = logger
	}
}
