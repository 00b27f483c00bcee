package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MinFov and MaxFov bound the vertical field of view, in degrees.
	MinFov float32 = 1
	MaxFov float32 = 179

	minPixelRatio float32 = 0.01
)

type perspectiveCamera struct {
	*cameraImpl

	fov        float32 // degrees
	width      float32
	height     float32
	pixelRatio float32
}

// PerspectiveCamera is a Camera with a symmetric perspective frustum.
type PerspectiveCamera interface {
	Camera
	Projectable

	// Fov returns the vertical field of view in degrees.
	//
	// Returns:
	//   - float32: field of view in degrees
	Fov() float32

	// SetFov sets the vertical field of view, clamped to [MinFov, MaxFov] degrees.
	//
	// Parameters:
	//   - degrees: field of view in degrees
	SetFov(degrees float32)

	// Size returns the viewport size in physical pixels.
	//
	// Returns:
	//   - width, height: viewport size
	Size() (width, height float32)

	// SetSize sets the viewport size in physical pixels. Each side is clamped to at least 1.
	//
	// Parameters:
	//   - width, height: viewport size
	SetSize(width, height float32)

	// Aspect returns width / height.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// PixelRatio returns the ratio of physical to logical pixels.
	//
	// Returns:
	//   - float32: the pixel ratio
	PixelRatio() float32

	// SetPixelRatio sets the ratio of physical to logical pixels.
	//
	// Parameters:
	//   - ratio: the pixel ratio
	SetPixelRatio(ratio float32)

	// VisibleSize returns the size of the visible region on the world z=0 plane, measured at the
	// camera's distance from that plane after the last matrix update. Distances below the near
	// plane are measured at the near plane.
	//
	// Returns:
	//   - width, height: world-space extent at depth 0
	VisibleSize() (width, height float32)

	// CSSPerspective returns the distance, in logical pixels, at which one world unit spans one
	// logical pixel. It matches the CSS perspective property for an overlay of the same viewport.
	//
	// Returns:
	//   - float32: the perspective distance
	CSSPerspective() float32
}

var _ PerspectiveCamera = &perspectiveCamera{}

// NewPerspectiveCamera creates a perspective camera with its own node in graph.
//
// Parameters:
//   - graph: the transform graph to create the camera's node in
//   - options: functional options (fov, size, near, far, position, target, ...)
//
// Returns:
//   - PerspectiveCamera: the new camera
func NewPerspectiveCamera(graph *transform.Graph, options ...CameraBuilderOption) PerspectiveCamera {
	s := newCameraSettings("perspective_camera")
	for _, option := range options {
		option(s)
	}

	p := &perspectiveCamera{}
	p.fov = clampFov(s.fov)
	p.width, p.height = clampSize(s.width, s.height)
	p.pixelRatio = math32.Max(s.pixelRatio, minPixelRatio)
	p.cameraImpl = newCamera(graph, s, p, p)
	if s.registry != nil {
		p.SetRenderer(s.registry)
	}
	return p
}

func clampFov(degrees float32) float32 {
	return common.Clamp(degrees, MinFov, MaxFov)
}

func clampSize(width, height float32) (float32, float32) {
	return math32.Max(width, 1), math32.Max(height, 1)
}

func (p *perspectiveCamera) Projection(near, far float32) mgl32.Mat4 {
	return common.Perspective(mgl32.DegToRad(p.fov), p.Aspect(), near, far)
}

func (p *perspectiveCamera) Frustum(_, viewProjection mgl32.Mat4, _, _ float32) common.Frustum {
	return common.ExtractFrustumFromMatrix(viewProjection)
}

func (p *perspectiveCamera) Fov() float32 {
	return p.fov
}

func (p *perspectiveCamera) SetFov(degrees float32) {
	fov := clampFov(degrees)
	if fov == p.fov {
		return
	}
	p.fov = fov
	p.markProjectionDirty()
}

func (p *perspectiveCamera) Size() (float32, float32) {
	return p.width, p.height
}

func (p *perspectiveCamera) SetSize(width, height float32) {
	w, h := clampSize(width, height)
	if w == p.width && h == p.height {
		return
	}
	p.width, p.height = w, h
	p.markProjectionDirty()
}

func (p *perspectiveCamera) Aspect() float32 {
	return p.width / p.height
}

func (p *perspectiveCamera) PixelRatio() float32 {
	return p.pixelRatio
}

// SetPixelRatio only affects CSSPerspective; the projection does not depend on it.
func (p *perspectiveCamera) SetPixelRatio(ratio float32) {
	p.pixelRatio = math32.Max(ratio, minPixelRatio)
}

func (p *perspectiveCamera) VisibleSize() (float32, float32) {
	depth := math32.Max(math32.Abs(p.WorldPosition().Z()), p.near)
	height := 2 * depth * math32.Tan(mgl32.DegToRad(p.fov)/2)
	return height * p.Aspect(), height
}

func (p *perspectiveCamera) CSSPerspective() float32 {
	return 0.5 * (p.height / p.pixelRatio) / math32.Tan(mgl32.DegToRad(p.fov)/2)
}
