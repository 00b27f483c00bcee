package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallShadow() ShadowParams {
	p := DefaultShadowParams()
	p.DepthTextureSize = 64
	return p
}

func TestShadowParamsClamped(t *testing.T) {
	p := ShadowParams{DepthTextureSize: 1, Bias: -1, NormalBias: -2, PCFSamples: 0, Intensity: 3}.Clamped()
	assert.Equal(t, ShadowParams{DepthTextureSize: MinShadowMapResolution, PCFSamples: 1, Intensity: 1}, p)

	p = ShadowParams{DepthTextureSize: 1 << 20, PCFSamples: 99, Intensity: 0.5}.Clamped()
	assert.Equal(t, uint32(MaxShadowMapResolution), p.DepthTextureSize)
	assert.Equal(t, MaxPCFSamples, p.PCFSamples)
	assert.Equal(t, float32(0.5), p.Intensity)
}

func TestCastBeforeRendererDefersAllocation(t *testing.T) {
	g := transform.NewGraph()
	l := NewSpotLight(g, WithShadow(smallShadow()))
	shadow := l.SpotShadow()
	assert.True(t, shadow.IsActive())
	assert.Zero(t, shadow.DepthTexture())
	assert.ErrorIs(t, shadow.RenderOnce(), ErrNoRenderer)

	r, backend := newTestRenderer(t)
	require.NoError(t, l.SetRenderer(r))
	tex, ok := backend.Texture(shadow.DepthTexture())
	require.True(t, ok)
	assert.Equal(t, uint32(64), tex.Desc.Width)
	assert.Equal(t, uint32(1), tex.Desc.Layers)
	assert.Equal(t, ShadowDepthFormat, tex.Desc.Format)
	assert.Equal(t, 1, r.Scheduler().Len())

	data := r.Registry().ShadowSlotData(renderer.LightTypeSpot, 0)
	assert.Equal(t, uint32(1), uint32At(data, 0))
	assert.Equal(t, DefaultPCFSamples, uint32At(data, 4))
	assert.Equal(t, DefaultShadowBias, common.Float32At(data, 8))
}

func TestDeactivateAndRecast(t *testing.T) {
	r, backend := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewPointLight(g)
	require.NoError(t, l.SetRenderer(r))
	shadow := l.PointShadow()

	assert.ErrorIs(t, shadow.AddShadowCastingMesh(newFakeDrawable(g, mgl32.Vec3{})), ErrShadowInactive)
	assert.ErrorIs(t, shadow.RenderOnce(), ErrShadowInactive)

	require.NoError(t, shadow.Cast(smallShadow()))
	first := shadow.DepthTexture()
	tex, ok := backend.Texture(first)
	require.True(t, ok)
	assert.Equal(t, uint32(6), tex.Desc.Layers)
	view, ok := backend.TextureView(shadow.DepthView())
	require.True(t, ok)
	assert.Equal(t, renderer.TextureViewDimensionCube, view.Desc.Dimension)

	caster := newFakeDrawable(g, mgl32.Vec3{})
	require.NoError(t, shadow.AddShadowCastingMesh(caster))
	require.Len(t, g.Children(caster.Node()), 1, "the proxy follows the caster")
	require.NoError(t, r.Render(nil))
	assert.Equal(t, 6, tex.PassesRendered)

	shadow.Deactivate()
	assert.False(t, shadow.IsActive())
	assert.True(t, tex.Destroyed)
	assert.Zero(t, shadow.DepthTexture())
	assert.Zero(t, r.Scheduler().Len(), "the depth pass is removed in the same call")
	assert.Empty(t, shadow.CastingMeshes())
	assert.Empty(t, g.Children(caster.Node()))
	assert.Equal(t, uint32(0), uint32At(r.Registry().ShadowSlotData(renderer.LightTypePoint, 0), 0))

	require.NoError(t, shadow.Cast(smallShadow()))
	assert.NotEqual(t, first, shadow.DepthTexture())
	fresh, ok := backend.Texture(shadow.DepthTexture())
	require.True(t, ok)
	assert.False(t, fresh.Destroyed)
	assert.Zero(t, fresh.PassesRendered)
	assert.Equal(t, 2, shadow.Stats().Allocations)
}

func TestCastResizesTexture(t *testing.T) {
	r, backend := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewDirectionalLight(g, WithShadow(smallShadow()))
	require.NoError(t, l.SetRenderer(r))
	shadow := l.DirectionalShadow()
	first := shadow.DepthTexture()

	require.NoError(t, shadow.Cast(smallShadow()))
	assert.Equal(t, first, shadow.DepthTexture(), "same size keeps the texture")
	assert.Equal(t, 1, r.Scheduler().Len())

	bigger := smallShadow()
	bigger.DepthTextureSize = 128
	require.NoError(t, shadow.Cast(bigger))
	old, _ := backend.Texture(first)
	assert.True(t, old.Destroyed)
	tex, ok := backend.Texture(shadow.DepthTexture())
	require.True(t, ok)
	assert.Equal(t, uint32(128), tex.Desc.Height)
}

func TestShadowClearsWithoutVisibleCasters(t *testing.T) {
	r, backend := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewPointLight(g, WithShadow(smallShadow()))
	require.NoError(t, l.SetRenderer(r))
	shadow := l.PointShadow()

	caster := newFakeDrawable(g, mgl32.Vec3{0, -2, 0})
	caster.visible = false
	require.NoError(t, shadow.AddShadowCastingMesh(caster))
	g.UpdateMatrixStack(caster.Node())

	require.NoError(t, r.Render(nil))
	clears := passesWithPrefix(backend, "point Shadow 0 Clear")
	require.Len(t, clears, 6)
	for _, p := range clears {
		assert.Empty(t, p.Draws)
		assert.Equal(t, float32(1), p.Desc.DepthClear)
	}
	assert.Equal(t, ShadowStats{Clears: 1, Allocations: 1}, shadow.Stats())

	backend.ResetSubmitted()
	caster.visible = true
	require.NoError(t, r.Render(nil))
	faces := passesWithPrefix(backend, "point Shadow 0 Face")
	require.Len(t, faces, 6)
	assert.Empty(t, passesWithPrefix(backend, "point Shadow 0 Clear"))

	lights := r.Registry().BindGroup()
	for f, p := range faces {
		require.Len(t, p.Draws, 1)
		draw := p.Draws[0]
		assert.Equal(t, uint32(f), p.DepthView.Desc.BaseArrayLayer)
		assert.Equal(t, lights, draw.BindGroups[0])
		assert.Equal(t, []uint32{uint32(f * shader.DepthInstanceAlignment)}, draw.DynamicOffsets[1])
		assert.Equal(t, caster.geom.VertexBuffer, draw.VertexBuffer)
		assert.Equal(t, caster.geom.VertexCount, draw.Count)

		pipeline, ok := backend.Pipeline(draw.Pipeline)
		require.True(t, ok)
		assert.Equal(t, shader.DepthVertexEntryPoint, pipeline.VertexEntryPoint)
		assert.Equal(t, ShadowDepthFormat, pipeline.DepthFormat)
		assert.Zero(t, pipeline.FragmentModule)
	}

	group, ok := backend.BindGroup(faces[0].Draws[0].BindGroups[1])
	require.True(t, ok)
	instances := group.Entries[0].Buffer
	buf, ok := backend.Buffer(instances)
	require.True(t, ok)
	for f := range 6 {
		off := f * shader.DepthInstanceAlignment
		assert.Equal(t, caster.WorldMatrix(), common.Mat4At(buf.Data, off))
		assert.Equal(t, uint32(f), uint32At(buf.Data, off+64))
	}
	assert.Equal(t, float32(-2), common.Mat4At(buf.Data, 0).Col(3).Y())
	assert.Equal(t, ShadowStats{Renders: 1, Clears: 1, Passes: 6, Allocations: 1}, shadow.Stats())

	assert.True(t, shadow.RemoveShadowCastingMesh(caster))
	assert.False(t, shadow.RemoveShadowCastingMesh(caster))
	_, ok = backend.Buffer(instances)
	assert.False(t, ok, "the proxy buffer is destroyed with the proxy")
}

func TestRenderOnce(t *testing.T) {
	r, _ := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewSpotLight(g, WithShadow(smallShadow()))
	require.NoError(t, l.SetRenderer(r))
	shadow := l.SpotShadow()

	require.NoError(t, shadow.RenderOnce())
	require.NoError(t, shadow.RenderOnce())
	assert.Equal(t, 1, r.Scheduler().Len())

	require.NoError(t, r.Render(nil))
	assert.Equal(t, 1, shadow.Stats().Clears)
	assert.Zero(t, r.Scheduler().Len())

	require.NoError(t, r.Render(nil))
	assert.Equal(t, 1, shadow.Stats().Clears, "one-shot renders do not repeat")

	require.NoError(t, shadow.Cast(shadow.Params()))
	require.NoError(t, r.Render(nil))
	assert.Equal(t, 2, shadow.Stats().Clears, "cast resumes the per-frame pass")
}

func TestReceiversFollowTexture(t *testing.T) {
	r, _ := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewDirectionalLight(g)
	require.NoError(t, l.SetRenderer(r))
	shadow := l.DirectionalShadow()

	recv := newFakeReceiver()
	shadow.AddShadowReceivingMesh(recv)
	shadow.AddShadowReceivingMesh(recv)
	assert.Empty(t, recv.maps)

	require.NoError(t, shadow.Cast(smallShadow()))
	m, ok := recv.maps[renderer.LightTypeDirectional]
	require.True(t, ok)
	assert.Equal(t, shadow.DepthView(), m.View)
	assert.Equal(t, r.ShadowSampler(), m.Sampler)
	assert.Equal(t, 0, m.Index)

	late := newFakeReceiver()
	shadow.AddShadowReceivingMesh(late)
	assert.Contains(t, late.maps, renderer.LightTypeDirectional)

	shadow.Deactivate()
	assert.Empty(t, recv.maps)
	assert.Equal(t, 1, recv.cleared, "registered once")

	assert.True(t, shadow.RemoveShadowReceivingMesh(late))
	assert.False(t, shadow.RemoveShadowReceivingMesh(late))
}

func TestDestroyLightReleasesShadow(t *testing.T) {
	r, backend := newTestRenderer(t)
	g := transform.NewGraph()
	l := NewSpotLight(g, WithShadow(smallShadow()))
	require.NoError(t, l.SetRenderer(r))
	caster := newFakeDrawable(g, mgl32.Vec3{})
	require.NoError(t, l.Shadow().AddShadowCastingMesh(caster))
	camNode := l.SpotShadow().Camera().Node()
	tex := l.Shadow().DepthTexture()

	l.Destroy()
	assert.Zero(t, r.Scheduler().Len())
	assert.False(t, g.Valid(camNode))
	assert.Empty(t, g.Children(caster.Node()))
	mt, _ := backend.Texture(tex)
	assert.True(t, mt.Destroyed)
	assert.Zero(t, r.Registry().Count(renderer.LightTypeSpot))
}
