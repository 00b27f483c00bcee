package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestOrbitControllerPlacesCamera(t *testing.T) {
	g := transform.NewGraph()
	cam := NewPerspectiveCamera(g)
	oc := NewOrbitController(cam, WithRadius(10), WithElevation(0), WithOrbitTarget(mgl32.Vec3{1, 0, 0}))

	assert.True(t, oc.Update())
	assert.False(t, oc.Update(), "nothing pending")
	g.UpdateMatrixStack(cam.Node())

	assertVec3Near(t, "position", cam.WorldPosition(), mgl32.Vec3{1, 0, 10})
	got := common.TransformPoint(cam.ViewMatrix(), oc.Target())
	assertVec3Near(t, "target in view space", got, mgl32.Vec3{0, 0, -10})
}

func TestOrbitControllerClamps(t *testing.T) {
	g := transform.NewGraph()
	oc := NewOrbitController(NewPerspectiveCamera(g),
		WithRadius(5), WithRadiusBounds(2, 8), WithElevationBounds(-0.5, 0.5), WithOrbitSpeed(0.2))

	oc.Zoom(10)
	assert.Equal(t, float32(2), oc.Radius())
	oc.Zoom(-100)
	assert.Equal(t, float32(8), oc.Radius())

	for range 10 {
		oc.OrbitUp()
	}
	assert.Equal(t, float32(0.5), oc.Elevation())
	for range 10 {
		oc.OrbitDown()
	}
	assert.Equal(t, float32(-0.5), oc.Elevation())
}

func TestOrbitControllerOrbitAndPan(t *testing.T) {
	g := transform.NewGraph()
	cam := NewPerspectiveCamera(g)
	oc := NewOrbitController(cam, WithRadius(4), WithElevation(0), WithMouseSensitivity(0.01))

	oc.Orbit(-50*math32.Pi, 0)
	assert.InDelta(t, math32.Pi/2, oc.Azimuth(), epsilon)
	assertVec3Near(t, "quarter turn", oc.Position(), mgl32.Vec3{4, 0, 0})

	// looking down -X, right is -Z.
	oc.Pan(1, 0, 0)
	assertVec3Near(t, "target", oc.Target(), mgl32.Vec3{0, 0, -1})
	assertVec3Near(t, "position", oc.Position(), mgl32.Vec3{4, 0, -1})

	oc.Pan(0, 0, 2)
	assertVec3Near(t, "target after forward", oc.Target(), mgl32.Vec3{-2, 0, -1})
}
