package scene

import (
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mesh struct {
	graph   *transform.Graph
	node    transform.NodeID
	radius  float32
	visible bool
	maps    map[renderer.LightType]renderer.ShadowMap
}

func newMesh(g *transform.Graph, position mgl32.Vec3) *mesh {
	m := &mesh{
		graph:   g,
		node:    g.CreateNode("mesh"),
		radius:  1,
		visible: true,
		maps:    make(map[renderer.LightType]renderer.ShadowMap),
	}
	g.SetPosition(m.node, position)
	return m
}

func (m *mesh) Node() transform.NodeID { return m.node }
func (m *mesh) WorldMatrix() mgl32.Mat4 { return m.graph.WorldMatrix(m.node) }
func (m *mesh) Visible() bool { return m.visible }
func (m *mesh) ExtraBindGroups() []renderer.ExtraBindGroup { return nil }

func (m *mesh) Geometry() renderer.Geometry {
	return renderer.Geometry{VertexBuffer: 7, VertexCount: 3}
}

func (m *mesh) Draw(pass renderer.RenderPass, lights renderer.BindGroupHandle) error {
	pass.SetBindGroup(0, lights, nil)
	renderer.DrawGeometry(pass, m.Geometry())
	return nil
}

func (m *mesh) BoundingSphere() (mgl32.Vec3, float32) {
	return m.graph.WorldPosition(m.node), m.radius
}

func (m *mesh) SetShadowMap(sm renderer.ShadowMap) { m.maps[sm.LightType] = sm }
func (m *mesh) ClearShadowMap(t renderer.LightType, _ int) { delete(m.maps, t) }

type fixture struct {
	graph   *transform.Graph
	backend *renderer.MemoryBackend
	r       renderer.Renderer
	cam     camera.PerspectiveCamera
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := renderer.NewMemoryBackend()
	r, err := renderer.NewRenderer(backend, renderer.WithSize(64, 64))
	require.NoError(t, err)
	g := transform.NewGraph()
	cam := camera.NewPerspectiveCamera(g, camera.WithSize(64, 64),
		camera.WithPosition(mgl32.Vec3{0, 0, 10}), camera.WithTarget(mgl32.Vec3{}))
	return &fixture{graph: g, backend: backend, r: r, cam: cam}
}

func (f *fixture) scene(t *testing.T, options ...SceneBuilderOption) Scene {
	t.Helper()
	s, err := NewScene("test", f.r, append([]SceneBuilderOption{WithGraph(f.graph), WithCamera(f.cam)}, options...)...)
	require.NoError(t, err)
	return s
}

func smallShadow() light.ShadowParams {
	p := light.DefaultShadowParams()
	p.DepthTextureSize = 64
	return p
}

func TestFrameRendersShadowsBeforeMainPass(t *testing.T) {
	f := newFixture(t)
	caster := newMesh(f.graph, mgl32.Vec3{})
	lamp := light.NewPointLight(f.graph, light.WithPosition(mgl32.Vec3{0, 5, 0}), light.WithShadow(smallShadow()))
	s := f.scene(t, WithLights(lamp), WithShadowCasters(caster))

	assert.Equal(t, s.Root(), f.graph.Parent(f.cam.Node()))
	assert.Equal(t, s.Root(), f.graph.Parent(lamp.Node()))
	assert.Equal(t, s.Root(), f.graph.Parent(caster.Node()))

	require.NoError(t, s.Frame())
	passes := f.backend.Submitted()
	require.Len(t, passes, 7)
	for _, p := range passes[:6] {
		assert.True(t, strings.HasPrefix(p.Desc.Label, "point Shadow 0 Face"), p.Desc.Label)
	}
	main := passes[6]
	assert.Equal(t, "Main Pass", main.Desc.Label)
	require.Len(t, main.Draws, 1)
	assert.Equal(t, f.r.Registry().BindGroup(), main.Draws[0].BindGroups[0])

	cameraData := f.r.Registry().CameraData()
	assert.Equal(t, float32(10), common.Float32At(cameraData, 136))
	assert.Len(t, lamp.Shadow().CastingMeshes(), 1)

	stats := s.Stats()
	assert.Equal(t, 1, stats.Frames)
	assert.Equal(t, 1, stats.Drawn)
	assert.Equal(t, 6, stats.ShadowPasses)
	assert.Positive(t, stats.BytesFlushed)
	assert.Zero(t, stats.Overflows)
	assert.Positive(t, stats.Update.WorldRecomputed)

	require.NoError(t, s.Frame())
	assert.Zero(t, s.Stats().Update.Recomputed(), "nothing moved")
	assert.Equal(t, 2, f.r.Frames())
}

func TestInactiveSceneSkipsFrame(t *testing.T) {
	f := newFixture(t)
	s := f.scene(t, WithActive(false))

	require.NoError(t, s.Frame())
	assert.Empty(t, f.backend.Submitted())
	assert.Zero(t, s.Stats().Frames)

	s.SetActive(true)
	require.NoError(t, s.Frame())
	assert.Len(t, f.backend.Submitted(), 1)
}

func TestMembershipChangesDuringFrames(t *testing.T) {
	f := newFixture(t)
	s := f.scene(t)
	meshes := make([]*mesh, 8)
	for i := range meshes {
		meshes[i] = newMesh(f.graph, mgl32.Vec3{float32(i) - 4, 0, 0})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 50 {
			for _, m := range meshes {
				assert.NoError(t, s.Add(m))
			}
			for _, m := range meshes[:4] {
				s.Remove(m)
			}
		}
	}()
	for range 50 {
		require.NoError(t, s.Frame())
	}
	wg.Wait()

	assert.Equal(t, 4, s.Count())
	require.NoError(t, s.Frame())
	assert.Equal(t, 51, s.Stats().Frames)
	assert.Equal(t, 4, s.Stats().Drawn)
}

func TestFrustumCulling(t *testing.T) {
	f := newFixture(t)
	front := newMesh(f.graph, mgl32.Vec3{})
	behind := newMesh(f.graph, mgl32.Vec3{0, 0, 50})
	hidden := newMesh(f.graph, mgl32.Vec3{1, 0, 0})
	hidden.visible = false
	s := f.scene(t, WithDrawables(front, behind, hidden))
	assert.Equal(t, 3, s.Count())

	require.NoError(t, s.Frame())
	assert.Equal(t, 1, s.Stats().Drawn)
	assert.Equal(t, 1, s.Stats().Culled)

	s.SetCullingDisabled(true)
	require.NoError(t, s.Frame())
	assert.Equal(t, 2, s.Stats().Drawn)
	assert.Zero(t, s.Stats().Culled)
}

func TestCastersFollowShadowReactivation(t *testing.T) {
	f := newFixture(t)
	lamp := light.NewSpotLight(f.graph, light.WithPosition(mgl32.Vec3{0, 5, 0}), light.WithShadow(smallShadow()))
	s := f.scene(t, WithLights(lamp))
	caster := newMesh(f.graph, mgl32.Vec3{})
	require.NoError(t, s.AddShadowCaster(caster))
	require.NoError(t, s.AddShadowCaster(caster))
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.Frame())
	shadow := lamp.SpotShadow()
	assert.Len(t, shadow.CastingMeshes(), 1)

	shadow.Deactivate()
	require.NoError(t, s.Frame())
	assert.Empty(t, shadow.CastingMeshes(), "inactive shadows get no casters")

	require.NoError(t, shadow.Cast(smallShadow()))
	require.NoError(t, s.Frame())
	assert.Len(t, shadow.CastingMeshes(), 1)

	assert.True(t, s.Remove(caster))
	assert.False(t, s.Remove(caster))
	assert.Empty(t, shadow.CastingMeshes())
	assert.Zero(t, s.Count())
}

func TestReceiversGetShadowMaps(t *testing.T) {
	f := newFixture(t)
	receiver := newMesh(f.graph, mgl32.Vec3{})
	s := f.scene(t, WithDrawables(receiver))

	sun := light.NewDirectionalLight(f.graph, light.WithShadow(smallShadow()))
	require.NoError(t, s.AddLight(sun))
	sm, ok := receiver.maps[renderer.LightTypeDirectional]
	require.True(t, ok)
	assert.Equal(t, sun.Shadow().DepthView(), sm.View)

	s.Clear()
	assert.Empty(t, receiver.maps)
	assert.Empty(t, s.Drawables())
}

func TestAddAndRemoveLight(t *testing.T) {
	f := newFixture(t)
	s := f.scene(t)
	registry := f.r.Registry()

	lamp := light.NewPointLight(f.graph)
	require.NoError(t, s.AddLight(lamp))
	require.NoError(t, s.AddLight(lamp))
	assert.Len(t, s.Lights(), 1)
	assert.Equal(t, 1, registry.Count(renderer.LightTypePoint))

	rig := f.graph.CreateNode("rig")
	child := light.NewAmbientLight(f.graph)
	require.NoError(t, child.SetParent(rig))
	require.NoError(t, s.AddLight(child))
	assert.Equal(t, rig, f.graph.Parent(child.Node()), "parented lights keep their parent")

	node := lamp.Node()
	assert.True(t, s.RemoveLight(lamp))
	assert.False(t, s.RemoveLight(lamp))
	assert.False(t, f.graph.Valid(node))
	assert.Zero(t, registry.Count(renderer.LightTypePoint))
}

func TestSetCameraRejectsForeignGraph(t *testing.T) {
	f := newFixture(t)
	s := f.scene(t)

	other := camera.NewPerspectiveCamera(transform.NewGraph())
	assert.ErrorIs(t, s.SetCamera(other), ErrForeignGraph)
	assert.Same(t, f.cam, s.Camera())

	_, err := NewScene("bad", f.r, WithCamera(other))
	assert.ErrorIs(t, err, ErrForeignGraph)

	_, err = NewScene("nil", nil)
	assert.Error(t, err)
}

func TestResize(t *testing.T) {
	f := newFixture(t)
	s := f.scene(t)

	require.NoError(t, s.Resize(128, 64))
	w, h := f.r.Size()
	assert.Equal(t, 128, w)
	assert.Equal(t, 64, h)
	assert.Equal(t, float32(2), f.cam.Aspect())
}

func TestRelease(t *testing.T) {
	f := newFixture(t)
	lamp := light.NewSpotLight(f.graph, light.WithShadow(smallShadow()))
	s := f.scene(t, WithLights(lamp))
	root := s.Root()
	camNode := f.cam.Node()

	s.Release()
	assert.Zero(t, f.r.Registry().Count(renderer.LightTypeSpot))
	assert.Zero(t, f.r.Scheduler().Len())
	assert.False(t, f.graph.Valid(camNode))
	assert.False(t, f.graph.Valid(root))
	assert.Nil(t, s.Camera())
}
