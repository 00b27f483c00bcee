package light

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-4

func assertVec3Near(t *testing.T, name string, got, want mgl32.Vec3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], epsilon, "%s = %v, want %v", name, got, want)
}

func newTestRenderer(t *testing.T, options ...renderer.RegistryBuilderOption) (renderer.Renderer, *renderer.MemoryBackend) {
	t.Helper()
	backend := renderer.NewMemoryBackend()
	r, err := renderer.NewRenderer(backend, renderer.WithSize(64, 64), renderer.WithRegistryOptions(options...))
	require.NoError(t, err)
	return r, backend
}

func uint32At(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

// passesWithPrefix returns the submitted passes whose label starts with prefix.
func passesWithPrefix(backend *renderer.MemoryBackend, prefix string) []renderer.RecordedPass {
	var out []renderer.RecordedPass
	for _, p := range backend.Submitted() {
		if len(p.Desc.Label) >= len(prefix) && p.Desc.Label[:len(prefix)] == prefix {
			out = append(out, p)
		}
	}
	return out
}

type fakeDrawable struct {
	node    transform.NodeID
	graph   *transform.Graph
	geom    renderer.Geometry
	visible bool
}

func newFakeDrawable(g *transform.Graph, position mgl32.Vec3) *fakeDrawable {
	d := &fakeDrawable{
		node:    g.CreateNode("caster"),
		graph:   g,
		geom:    renderer.Geometry{VertexBuffer: 42, VertexCount: 36},
		visible: true,
	}
	g.SetPosition(d.node, position)
	return d
}

func (d *fakeDrawable) Node() transform.NodeID { return d.node }
func (d *fakeDrawable) Geometry() renderer.Geometry { return d.geom }
func (d *fakeDrawable) WorldMatrix() mgl32.Mat4 { return d.graph.WorldMatrix(d.node) }
func (d *fakeDrawable) Visible() bool { return d.visible }
func (d *fakeDrawable) ExtraBindGroups() []renderer.ExtraBindGroup { return nil }

func (d *fakeDrawable) Draw(pass renderer.RenderPass, lights renderer.BindGroupHandle) error {
	pass.SetBindGroup(0, lights, nil)
	renderer.DrawGeometry(pass, d.geom)
	return nil
}

type fakeReceiver struct {
	maps    map[renderer.LightType]renderer.ShadowMap
	cleared int
}

func newFakeReceiver() *fakeReceiver {
	return &fakeReceiver{maps: make(map[renderer.LightType]renderer.ShadowMap)}
}

func (r *fakeReceiver) SetShadowMap(m renderer.ShadowMap) {
	r.maps[m.LightType] = m
}

func (r *fakeReceiver) ClearShadowMap(t renderer.LightType, _ int) {
	delete(r.maps, t)
	r.cleared++
}
