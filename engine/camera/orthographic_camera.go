package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// minExtent is the smallest width or height of an orthographic box.
const minExtent float32 = 1e-3

type orthographicCamera struct {
	*cameraImpl

	left   float32
	right  float32
	top    float32
	bottom float32
}

// OrthographicCamera is a Camera with a box-shaped view volume.
type OrthographicCamera interface {
	Camera
	Projectable

	// Bounds returns the view-space box extents.
	//
	// Returns:
	//   - left, right, top, bottom: the box extents
	Bounds() (left, right, top, bottom float32)

	// SetBounds sets the view-space box extents. A box narrower than a small minimum on either
	// axis is widened to it.
	//
	// Parameters:
	//   - left, right, top, bottom: the box extents
	SetBounds(left, right, top, bottom float32)
}

var _ OrthographicCamera = &orthographicCamera{}

// NewOrthographicCamera creates an orthographic camera with its own node in graph.
//
// Parameters:
//   - graph: the transform graph to create the camera's node in
//   - options: functional options (bounds, near, far, position, target, ...)
//
// Returns:
//   - OrthographicCamera: the new camera
func NewOrthographicCamera(graph *transform.Graph, options ...CameraBuilderOption) OrthographicCamera {
	s := newCameraSettings("orthographic_camera")
	for _, option := range options {
		option(s)
	}

	o := &orthographicCamera{}
	o.left, o.right, o.top, o.bottom = clampBounds(s.left, s.right, s.top, s.bottom)
	o.cameraImpl = newCamera(graph, s, o, o)
	if s.registry != nil {
		o.SetRenderer(s.registry)
	}
	return o
}

func clampBounds(left, right, top, bottom float32) (float32, float32, float32, float32) {
	if right-left < minExtent {
		right = left + minExtent
	}
	if top-bottom < minExtent {
		top = bottom + minExtent
	}
	return left, right, top, bottom
}

func (o *orthographicCamera) Projection(near, far float32) mgl32.Mat4 {
	return common.Orthographic(o.left, o.right, o.bottom, o.top, near, far)
}

// Frustum builds the box planes in view space and moves them to world space with the view
// matrix, without going through the projection.
func (o *orthographicCamera) Frustum(view, _ mgl32.Mat4, near, far float32) common.Frustum {
	var planes [6]common.Plane
	planes[common.FrustumLeft] = common.Plane{Normal: mgl32.Vec3{1, 0, 0}, Distance: -o.left}
	planes[common.FrustumRight] = common.Plane{Normal: mgl32.Vec3{-1, 0, 0}, Distance: o.right}
	planes[common.FrustumBottom] = common.Plane{Normal: mgl32.Vec3{0, 1, 0}, Distance: -o.bottom}
	planes[common.FrustumTop] = common.Plane{Normal: mgl32.Vec3{0, -1, 0}, Distance: o.top}
	planes[common.FrustumNear] = common.Plane{Normal: mgl32.Vec3{0, 0, -1}, Distance: -near}
	planes[common.FrustumFar] = common.Plane{Normal: mgl32.Vec3{0, 0, 1}, Distance: far}
	return common.TransformViewPlanes(view, planes)
}

func (o *orthographicCamera) Bounds() (float32, float32, float32, float32) {
	return o.left, o.right, o.top, o.bottom
}

func (o *orthographicCamera) SetBounds(left, right, top, bottom float32) {
	l, r, t, b := clampBounds(left, right, top, bottom)
	if l == o.left && r == o.right && t == o.top && b == o.bottom {
		return
	}
	o.left, o.right, o.top, o.bottom = l, r, t, b
	o.markProjectionDirty()
}
