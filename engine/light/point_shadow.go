package light

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// CubeFaces are the view directions and up vectors of the six point shadow faces, in cube map
// layer order (+X, -X, +Y, -Y, +Z, -Z).
var CubeFaces = [6]struct {
	Direction mgl32.Vec3
	Up        mgl32.Vec3
}{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}},
}

type pointShadow struct {
	*shadowBase

	near, far  float32
	projection mgl32.Mat4
	views      [6]mgl32.Mat4
}

// PointShadow is the omnidirectional shadow of a point light. There is no shadow camera:
// six view matrices around the light's world position share one 90 degree square projection,
// and each frame renders the six faces of a cube depth texture.
type PointShadow interface {
	Shadow

	// Near returns the near plane of the cube projection.
	Near() float32

	// Far returns the far plane of the cube projection, derived from the light's range.
	Far() float32

	// ProjectionMatrix returns the shared 90 degree projection.
	ProjectionMatrix() mgl32.Mat4

	// ViewMatrices returns the per-face view matrices in cube map layer order.
	ViewMatrices() [6]mgl32.Mat4
}

var _ PointShadow = &pointShadow{}

func newPointShadow(l *lightBase, lightRange float32) *pointShadow {
	p := &pointShadow{near: DefaultShadowNear}
	p.shadowBase = newShadowBase(l, p)
	p.setFar(shadowFar(lightRange))
	p.updateViews(l.WorldPosition())
	return p
}

func (p *pointShadow) Near() float32 {
	return p.near
}

func (p *pointShadow) Far() float32 {
	return p.far
}

func (p *pointShadow) ProjectionMatrix() mgl32.Mat4 {
	return p.projection
}

func (p *pointShadow) ViewMatrices() [6]mgl32.Mat4 {
	return p.views
}

func (p *pointShadow) setFar(far float32) {
	p.far = max(far, p.near+camera.MinDepthSpan)
	p.projection = common.Perspective(mgl32.DegToRad(90), 1, p.near, p.far)
}

// updateViews rebuilds the six face views around position.
func (p *pointShadow) updateViews(position mgl32.Vec3) {
	for i, face := range CubeFaces {
		p.views[i] = mgl32.LookAtV(position, position.Add(face.Direction), face.Up)
	}
}

func (p *pointShadow) faces() int {
	return len(CubeFaces)
}

func (p *pointShadow) encode(header GPUShadowHeader) []byte {
	g := GPUPointShadow{
		GPUShadowHeader:  header,
		CameraNear:       p.near,
		CameraFar:        p.far,
		ProjectionMatrix: p.projection,
		ViewMatrices:     p.views,
	}
	return g.Marshal()
}

func (p *pointShadow) destroy() {}
