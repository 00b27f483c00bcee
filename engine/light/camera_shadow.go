package light

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
)

// cameraShadow renders a single depth layer through a camera parented to the light's node,
// so the camera inherits the light's position and aim.
type cameraShadow struct {
	*shadowBase
	cam camera.Camera
}

func newCameraShadow(l *lightBase, build func(onChange camera.CameraBuilderOption) camera.Camera) *cameraShadow {
	c := &cameraShadow{}
	c.shadowBase = newShadowBase(l, c)
	c.cam = build(camera.WithOnChange(func(camera.Camera) { c.write() }))
	if err := c.cam.SetParent(l.node); err != nil {
		l.logger.Warnf("parent %s shadow camera: %v", l.kind, err)
	}
	return c
}

func (c *cameraShadow) faces() int {
	return 1
}

func (c *cameraShadow) encode(header GPUShadowHeader) []byte {
	g := GPUCameraShadow{
		GPUShadowHeader:  header,
		ViewMatrix:       c.cam.ViewMatrix(),
		ProjectionMatrix: c.cam.ProjectionMatrix(),
	}
	return g.Marshal()
}

func (c *cameraShadow) destroy() {
	c.cam.Destroy()
}

type directionalShadow struct {
	*cameraShadow
	ortho camera.OrthographicCamera
}

// DirectionalShadow is the shadow of a directional light. It renders through an orthographic
// camera whose box is centered on the light's position and faces the light's target.
type DirectionalShadow interface {
	Shadow

	// Camera returns the orthographic shadow camera. Its bounds and depth range may be tuned
	// to fit the scene; changes are pushed to the shadow slot.
	//
	// Returns:
	//   - camera.OrthographicCamera: the shadow camera
	Camera() camera.OrthographicCamera
}

var _ DirectionalShadow = &directionalShadow{}

func newDirectionalShadow(l *lightBase) *directionalShadow {
	d := &directionalShadow{}
	d.cameraShadow = newCameraShadow(l, func(onChange camera.CameraBuilderOption) camera.Camera {
		d.ortho = camera.NewOrthographicCamera(l.graph,
			camera.WithLabel(l.label+"_shadow_camera"),
			camera.WithBounds(-DefaultShadowHalfExtent, DefaultShadowHalfExtent, DefaultShadowHalfExtent, -DefaultShadowHalfExtent),
			camera.WithNear(DefaultShadowNear),
			camera.WithFar(DefaultShadowFar),
			onChange,
		)
		return d.ortho
	})
	return d
}

func (d *directionalShadow) Camera() camera.OrthographicCamera {
	return d.ortho
}

type spotShadow struct {
	*cameraShadow
	persp camera.PerspectiveCamera
}

// SpotShadow is the shadow of a spot light. It renders through a square perspective camera
// whose field of view covers the light's cone and whose far plane follows the light's range.
type SpotShadow interface {
	Shadow

	// Camera returns the perspective shadow camera.
	//
	// Returns:
	//   - camera.PerspectiveCamera: the shadow camera
	Camera() camera.PerspectiveCamera
}

var _ SpotShadow = &spotShadow{}

func newSpotShadow(l *lightBase, angle, lightRange float32) *spotShadow {
	s := &spotShadow{}
	s.cameraShadow = newCameraShadow(l, func(onChange camera.CameraBuilderOption) camera.Camera {
		s.persp = camera.NewPerspectiveCamera(l.graph,
			camera.WithLabel(l.label+"_shadow_camera"),
			camera.WithFov(2*angle),
			camera.WithSize(1, 1),
			camera.WithNear(DefaultShadowNear),
			camera.WithFar(shadowFar(lightRange)),
			onChange,
		)
		return s.persp
	})
	return s
}

func (s *spotShadow) Camera() camera.PerspectiveCamera {
	return s.persp
}

// shadowFar maps a light range to a shadow far plane; an unbounded light uses the default.
func shadowFar(lightRange float32) float32 {
	if lightRange > 0 {
		return lightRange
	}
	return DefaultShadowFar
}
