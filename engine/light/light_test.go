package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRendererWritesSlot(t *testing.T) {
	r, _ := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewPointLight(g, WithColor(mgl32.Vec3{1, 0.5, 0.25}), WithIntensity(2),
		WithPosition(mgl32.Vec3{1, 2, 3}), WithRange(7))
	assert.Equal(t, -1, l.Index())

	l.SetIntensity(3)
	require.NoError(t, l.SetRenderer(r))
	assert.Equal(t, 0, l.Index())
	assert.Same(t, r, l.Renderer())
	assert.Equal(t, 1, r.Registry().Count(renderer.LightTypePoint))

	g.UpdateMatrixStack(l.Node())
	data := r.Registry().LightSlotData(renderer.LightTypePoint, 0)
	assert.Equal(t, float32(0.5), common.Float32At(data, 4))
	assert.Equal(t, float32(3), common.Float32At(data, 12), "writes before attachment are kept")
	assert.Equal(t, []float32{1, 2, 3}, []float32{
		common.Float32At(data, 16), common.Float32At(data, 20), common.Float32At(data, 24),
	})
	assert.Equal(t, float32(7), common.Float32At(data, 28))

	shadow := r.Registry().ShadowSlotData(renderer.LightTypePoint, 0)
	assert.Equal(t, uint32(0), uint32At(shadow, 0), "shadow starts inactive")
	assert.Equal(t, float32(7), common.Float32At(shadow, 24), "far plane follows the range")
}

func TestSixthPointLightGrowsRegistry(t *testing.T) {
	r, _ := newTestRenderer(t)
	g := transform.NewGraph()
	registry := r.Registry()
	require.Equal(t, renderer.DefaultPointLights, registry.Capacity(renderer.LightTypePoint))

	var lights []PointLight
	for i := range renderer.DefaultPointLights + 1 {
		l := NewPointLight(g, WithIntensity(float32(i+1)))
		require.NoError(t, l.SetRenderer(r))
		lights = append(lights, l)
	}

	assert.Equal(t, 5, lights[5].Index())
	assert.Equal(t, 6, registry.Capacity(renderer.LightTypePoint))
	assert.Equal(t, 6, registry.Count(renderer.LightTypePoint))
	assert.Equal(t, 1, registry.Stats().Overflows)
	for i, l := range lights {
		data := registry.LightSlotData(renderer.LightTypePoint, l.Index())
		assert.Equal(t, float32(i+1), common.Float32At(data, 12), "slot %d survives the rebuild", i)
	}
	require.NoError(t, r.Render(nil))
}

func TestDestroyFreesSlot(t *testing.T) {
	r, _ := newTestRenderer(t)
	g := transform.NewGraph()
	first := NewSpotLight(g, WithIntensity(4))
	second := NewSpotLight(g)
	require.NoError(t, first.SetRenderer(r))
	require.NoError(t, second.SetRenderer(r))
	require.Equal(t, 1, second.Index())

	node := first.Node()
	first.Destroy()
	assert.False(t, g.Valid(node))
	assert.Equal(t, 1, r.Registry().Count(renderer.LightTypeSpot))
	assert.Equal(t, float32(0), common.Float32At(r.Registry().LightSlotData(renderer.LightTypeSpot, 0), 12))

	third := NewSpotLight(g)
	require.NoError(t, third.SetRenderer(r))
	assert.Equal(t, 0, third.Index(), "the freed slot is reused")
}

func TestMoveToAnotherRenderer(t *testing.T) {
	a, _ := newTestRenderer(t)
	b, _ := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewDirectionalLight(g)

	require.NoError(t, l.SetRenderer(a))
	require.NoError(t, l.SetRenderer(b))
	assert.Equal(t, 0, a.Registry().Count(renderer.LightTypeDirectional))
	assert.Equal(t, 1, b.Registry().Count(renderer.LightTypeDirectional))
	assert.Equal(t, 0, l.Index())
	assert.ErrorIs(t, l.SetRenderer(nil), ErrNoRenderer)
}

func TestFailedMoveKeepsPreviousSlot(t *testing.T) {
	a, _ := newTestRenderer(t)
	b, _ := newTestRenderer(t)
	g := transform.NewGraph()
	mover := NewPointLight(g, WithIntensity(9))
	occupant := NewPointLight(g, WithIntensity(1))
	require.NoError(t, mover.SetRenderer(a))
	require.NoError(t, occupant.SetRenderer(b))
	require.Equal(t, 0, mover.Index())
	require.Equal(t, 0, occupant.Index())

	assert.ErrorIs(t, mover.SetRenderer(b), renderer.ErrSlotTaken)
	assert.Same(t, a, mover.Renderer())
	assert.Equal(t, 1, a.Registry().Count(renderer.LightTypePoint), "a still holds the light")

	other := NewPointLight(g, WithIntensity(3))
	require.NoError(t, other.SetRenderer(a))
	assert.Equal(t, 1, other.Index(), "slot 0 is still taken in a")

	mover.SetPosition(mgl32.Vec3{1, 2, 3})
	g.UpdateMatrixStack(mover.Node())
	assert.Equal(t, float32(9), common.Float32At(a.Registry().LightSlotData(renderer.LightTypePoint, 0), 12))
	assert.Equal(t, float32(3), common.Float32At(a.Registry().LightSlotData(renderer.LightTypePoint, 1), 12))
	assert.Equal(t, float32(1), common.Float32At(b.Registry().LightSlotData(renderer.LightTypePoint, 0), 12))
}

func TestAmbientIgnoresTransform(t *testing.T) {
	r, _ := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewAmbientLight(g, WithColor(mgl32.Vec3{0.2, 0.3, 0.4}), WithIntensity(-1))
	assert.Equal(t, float32(0), l.Intensity(), "intensity is clamped")
	assert.Nil(t, l.Shadow())

	l.SetPosition(mgl32.Vec3{5, 5, 5})
	assert.Equal(t, mgl32.Vec3{}, l.Position())

	require.NoError(t, l.SetRenderer(r))
	l.SetIntensity(0.5)
	data := r.Registry().LightSlotData(renderer.LightTypeAmbient, 0)
	assert.Equal(t, float32(0.3), common.Float32At(data, 4))
	assert.Equal(t, float32(0.5), common.Float32At(data, 12))
}

func TestDirectionFollowsTarget(t *testing.T) {
	r, _ := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewDirectionalLight(g, WithPosition(mgl32.Vec3{0, 10, 0}), WithTarget(mgl32.Vec3{}))
	require.NoError(t, l.SetRenderer(r))
	g.UpdateMatrixStack(l.Node())

	assertVec3Near(t, "direction", l.Direction(), mgl32.Vec3{0, -1, 0})
	cam := l.DirectionalShadow().Camera()
	assertVec3Near(t, "target in shadow view", common.TransformPoint(cam.ViewMatrix(), mgl32.Vec3{}), mgl32.Vec3{0, 0, -10})

	l.SetTarget(mgl32.Vec3{10, 10, 0})
	g.UpdateMatrixStack(l.Node())
	assertVec3Near(t, "new direction", l.Direction(), mgl32.Vec3{1, 0, 0})
	assertVec3Near(t, "new target in shadow view", common.TransformPoint(cam.ViewMatrix(), mgl32.Vec3{10, 10, 0}), mgl32.Vec3{0, 0, -10})

	data := r.Registry().LightSlotData(renderer.LightTypeDirectional, 0)
	assert.InDelta(t, 1, common.Float32At(data, 16), epsilon)

	shadow := r.Registry().ShadowSlotData(renderer.LightTypeDirectional, 0)
	assert.Equal(t, cam.ViewMatrix(), common.Mat4At(shadow, 32))
	assert.Equal(t, cam.ProjectionMatrix(), common.Mat4At(shadow, 96))
}

func TestTargetIsInParentSpace(t *testing.T) {
	g := transform.NewGraph()
	rig := g.CreateNode("rig")
	g.SetPosition(rig, mgl32.Vec3{100, 0, 0})
	l := NewSpotLight(g, WithPosition(mgl32.Vec3{0, 0, 5}), WithTarget(mgl32.Vec3{}))
	require.NoError(t, l.SetParent(rig))
	g.UpdateMatrixStack(rig)

	assertVec3Near(t, "world position", l.WorldPosition(), mgl32.Vec3{100, 0, 5})
	assertVec3Near(t, "direction", l.Direction(), mgl32.Vec3{0, 0, -1})
}

func TestSpotLightClamps(t *testing.T) {
	r, _ := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewSpotLight(g, WithAngle(120), WithPenumbra(2), WithRange(-5))

	assert.Equal(t, MaxSpotAngle, l.Angle())
	assert.Equal(t, float32(1), l.Penumbra())
	assert.Equal(t, float32(0), l.Range())
	cam := l.SpotShadow().Camera()
	assert.Equal(t, DefaultShadowFar, cam.Far())
	assert.Equal(t, 2*MaxSpotAngle, cam.Fov())

	l.SetRange(25)
	l.SetAngle(0)
	assert.Equal(t, float32(25), cam.Far())
	assert.Equal(t, MinSpotAngle, l.Angle())
	assert.Equal(t, 2*MinSpotAngle, cam.Fov())

	require.NoError(t, l.SetRenderer(r))
	l.SetAngle(60)
	l.SetPenumbra(0.5)
	data := r.Registry().LightSlotData(renderer.LightTypeSpot, 0)
	assert.InDelta(t, 0.5, common.Float32At(data, 44), epsilon)
	assert.InDelta(t, math32.Sqrt(3)/2, common.Float32At(data, 48), epsilon)
	assert.Equal(t, float32(25), common.Float32At(data, 28))
}

func TestPointRangeDrivesShadowFar(t *testing.T) {
	g := transform.NewGraph()
	l := NewPointLight(g, WithRange(-1))
	assert.Equal(t, float32(0), l.Range())
	assert.Equal(t, DefaultShadowFar, l.PointShadow().Far())

	l.SetRange(30)
	assert.Equal(t, float32(30), l.PointShadow().Far())
	assert.Equal(t, common.Perspective(mgl32.DegToRad(90), 1, DefaultShadowNear, 30), l.PointShadow().ProjectionMatrix())

	l.SetRange(0.5)
	assert.InDelta(t, DefaultShadowNear+1, l.PointShadow().Far(), epsilon, "far never collapses onto near")
}

func TestPointShadowFaceViews(t *testing.T) {
	g := transform.NewGraph()
	position := mgl32.Vec3{1, 2, 3}
	l := NewPointLight(g, WithPosition(position))
	g.UpdateMatrixStack(l.Node())

	views := l.PointShadow().ViewMatrices()
	for i, face := range CubeFaces {
		got := common.TransformPoint(views[i], position.Add(face.Direction))
		assertVec3Near(t, "face looks down -Z", got, mgl32.Vec3{0, 0, -1})

		forward := views[i].Inv().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
		assertVec3Near(t, "forward in world", forward, face.Direction)
	}

	l.SetPosition(mgl32.Vec3{-4, 0, 0})
	g.UpdateMatrixStack(l.Node())
	got := common.TransformPoint(l.PointShadow().ViewMatrices()[0], mgl32.Vec3{-2, 0, 0})
	assertVec3Near(t, "views follow the light", got, mgl32.Vec3{0, 0, -2})
}
