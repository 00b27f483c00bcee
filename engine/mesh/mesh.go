package mesh

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// shadowKey identifies one received shadow map.
type shadowKey struct {
	kind  renderer.LightType
	index int
}

// pipelineKey is everything the lit pipeline and its shadow group were built from.
type pipelineKey struct {
	layoutVersion uint64
	sampling      bool
	shadow        shadowKey
	view          renderer.TextureViewHandle
	sampler       renderer.SamplerHandle
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	label     string
	graph     *transform.Graph
	node      transform.NodeID
	renderer  renderer.Renderer
	logger    common.Logger
	primitive Primitive
	color     mgl32.Vec4
	visible   bool

	shadowMaps map[shadowKey]renderer.ShadowMap

	// The following fields are GPU allocated resources and must be released when no longer needed.

	vertexBuffer  renderer.BufferHandle
	indexBuffer   renderer.BufferHandle
	uniformBuffer renderer.BufferHandle
	provider      renderer.BindGroupProvider
	shadowLayout  renderer.BindGroupLayoutHandle
	shadowGroup   renderer.BindGroupHandle
	pipeline      renderer.PipelineHandle

	built    pipelineKey
	uploaded []byte
	released bool
}

// Mesh is a drawable primitive with a flat color, shaded by every light of its renderer's
// registry. It owns a node in the scene graph, casts shadows through depth proxies like any
// drawable, and samples one directional or spot shadow map it receives.
type Mesh interface {
	renderer.Drawable
	renderer.ShadowReceiver

	// Label returns the mesh label.
	Label() string

	// Graph returns the transform graph owning the mesh node.
	Graph() *transform.Graph

	// Primitive returns the CPU geometry the mesh was created from.
	Primitive() Primitive

	// Color returns the linear RGBA color.
	Color() mgl32.Vec4

	// SetColor sets the linear RGBA color, uploaded with the next draw.
	//
	// Parameters:
	//   - color: the color
	SetColor(color mgl32.Vec4)

	// SetVisible shows or hides the mesh. Hidden meshes neither draw nor cast shadows.
	//
	// Parameters:
	//   - visible: the visibility
	SetVisible(visible bool)

	// BoundingSphere returns the world-space bounding sphere after the last matrix update.
	//
	// Returns:
	//   - mgl32.Vec3: the center
	//   - float32: the radius scaled by the largest world axis scale
	BoundingSphere() (mgl32.Vec3, float32)

	// ShadowMaps returns the received shadow maps ordered by light type then slot.
	ShadowMaps() []renderer.ShadowMap

	// SampledShadowMap returns the shadow map the lit shader samples: the first received
	// directional or spot map.
	//
	// Returns:
	//   - renderer.ShadowMap: the map
	//   - bool: false if no 2D shadow map was received
	SampledShadowMap() (renderer.ShadowMap, bool)

	// Release frees the GPU resources and destroys the mesh node. Children become roots.
	Release()
}

var _ Mesh = &mesh{}

// NewMesh uploads a primitive and creates its node in graph. The lit pipeline is created on the
// first draw, once the registry layout exists.
//
// Parameters:
//   - graph: the transform graph
//   - r: the renderer the mesh draws with
//   - p: the geometry
//   - options: functional options
//
// Returns:
//   - Mesh: the mesh
//   - error: error for empty geometry or a failed buffer allocation
func NewMesh(graph *transform.Graph, r renderer.Renderer, p Primitive, options ...MeshBuilderOption) (Mesh, error) {
	if graph == nil || r == nil {
		return nil, errors.New("mesh needs a graph and a renderer")
	}
	if len(p.Vertices) == 0 || len(p.Indices) == 0 {
		return nil, fmt.Errorf("mesh %q has no geometry", p.Name)
	}

	settings := meshSettings{
		label:   p.Name,
		color:   mgl32.Vec4{1, 1, 1, 1},
		scale:   mgl32.Vec3{1, 1, 1},
		visible: true,
	}
	for _, opt := range options {
		opt(&settings)
	}

	m := &mesh{
		label:      settings.label,
		graph:      graph,
		renderer:   r,
		logger:     common.Coalesce[common.Logger](settings.logger, r.Logger()),
		primitive:  p,
		color:      settings.color,
		visible:    settings.visible,
		shadowMaps: make(map[shadowKey]renderer.ShadowMap),
		provider:   renderer.NewBindGroupProvider(settings.label + " Mesh"),
	}
	if err := m.allocate(); err != nil {
		m.releaseGPU()
		return nil, err
	}

	m.node = graph.CreateNode(settings.label)
	if settings.parent.IsValid() {
		if err := graph.SetParent(m.node, settings.parent); err != nil {
			m.Release()
			return nil, fmt.Errorf("mesh %q: %w", settings.label, err)
		}
	}
	graph.SetPosition(m.node, settings.position)
	graph.SetRotation(m.node, settings.rotation)
	graph.SetScale(m.node, settings.scale)
	return m, nil
}

// allocate uploads the geometry and creates the uniform buffer and mesh group.
func (m *mesh) allocate() error {
	backend := m.renderer.Backend()
	vertices := MarshalVertices(m.primitive.Vertices)
	indices := MarshalIndices(m.primitive.Indices)

	var err error
	if m.vertexBuffer, err = m.createBuffer("Vertices", vertices, renderer.BufferUsageVertex); err != nil {
		return err
	}
	if m.indexBuffer, err = m.createBuffer("Indices", indices, renderer.BufferUsageIndex); err != nil {
		return err
	}
	if m.uniformBuffer, err = m.createBuffer("Uniform", make([]byte, MeshUniformSize), renderer.BufferUsageUniform); err != nil {
		return err
	}
	m.provider.SetBuffer("mesh", renderer.BindingTypeUniformBuffer,
		renderer.ShaderStageVertex|renderer.ShaderStageFragment, m.uniformBuffer)
	return m.provider.Rebuild(backend)
}

func (m *mesh) createBuffer(kind string, data []byte, usage renderer.BufferUsage) (renderer.BufferHandle, error) {
	backend := m.renderer.Backend()
	label := fmt.Sprintf("%s %s", m.label, kind)
	buf, err := backend.CreateBuffer(renderer.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | renderer.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("create %s buffer: %w", label, err)
	}
	if err := backend.WriteBuffer(buf, 0, data); err != nil {
		backend.DestroyBuffer(buf)
		return 0, fmt.Errorf("write %s buffer: %w", label, err)
	}
	return buf, nil
}

func (m *mesh) Label() string {
	return m.label
}

func (m *mesh) Graph() *transform.Graph {
	return m.graph
}

func (m *mesh) Node() transform.NodeID {
	return m.node
}

func (m *mesh) Primitive() Primitive {
	return m.primitive
}

func (m *mesh) Color() mgl32.Vec4 {
	return m.color
}

func (m *mesh) SetColor(color mgl32.Vec4) {
	m.color = color
}

func (m *mesh) Visible() bool {
	return m.visible && !m.released
}

func (m *mesh) SetVisible(visible bool) {
	m.visible = visible
}

func (m *mesh) WorldMatrix() mgl32.Mat4 {
	return m.graph.WorldMatrix(m.node)
}

func (m *mesh) ExtraBindGroups() []renderer.ExtraBindGroup {
	return nil
}

func (m *mesh) Geometry() renderer.Geometry {
	return renderer.Geometry{
		VertexBuffer: m.vertexBuffer,
		VertexCount:  uint32(len(m.primitive.Vertices)),
		VertexLayout: VertexLayout,
		IndexBuffer:  m.indexBuffer,
		IndexCount:   uint32(len(m.primitive.Indices)),
		IndexFormat:  renderer.IndexFormatUint16,
	}
}

func (m *mesh) BoundingSphere() (mgl32.Vec3, float32) {
	world := m.WorldMatrix()
	scale := max(world.Col(0).Vec3().Len(), world.Col(1).Vec3().Len(), world.Col(2).Vec3().Len())
	return world.Col(3).Vec3(), m.primitive.Radius * scale
}

func (m *mesh) SetShadowMap(sm renderer.ShadowMap) {
	m.shadowMaps[shadowKey{sm.LightType, sm.Index}] = sm
}

func (m *mesh) ClearShadowMap(t renderer.LightType, index int) {
	delete(m.shadowMaps, shadowKey{t, index})
}

func (m *mesh) ShadowMaps() []renderer.ShadowMap {
	out := make([]renderer.ShadowMap, 0, len(m.shadowMaps))
	for _, sm := range m.shadowMaps {
		out = append(out, sm)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LightType != out[j].LightType {
			return out[i].LightType < out[j].LightType
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func (m *mesh) SampledShadowMap() (renderer.ShadowMap, bool) {
	for _, sm := range m.ShadowMaps() {
		if SampledShadow(sm.LightType) && sm.View != 0 {
			if sm.Sampler == 0 {
				sm.Sampler = m.renderer.ShadowSampler()
			}
			return sm, true
		}
	}
	return renderer.ShadowMap{}, false
}

func (m *mesh) Draw(pass renderer.RenderPass, lights renderer.BindGroupHandle) error {
	if m.released {
		return fmt.Errorf("mesh %q was released", m.label)
	}
	if err := m.prepare(); err != nil {
		return err
	}
	if err := m.upload(); err != nil {
		return err
	}
	pass.SetPipeline(m.pipeline)
	pass.SetBindGroup(0, lights, nil)
	pass.SetBindGroup(MeshGroup, m.provider.BindGroup(), nil)
	if m.shadowGroup != 0 {
		pass.SetBindGroup(ShadowGroup, m.shadowGroup, nil)
	}
	renderer.DrawGeometry(pass, m.Geometry())
	return nil
}

// upload writes the mesh uniform when the world matrix or color changed since the last draw.
func (m *mesh) upload() error {
	world := m.WorldMatrix()
	u := GPUMeshUniform{ModelMatrix: world, NormalMatrix: normalMatrix(world), Color: m.color}
	data := u.Marshal()
	if bytes.Equal(data, m.uploaded) {
		return nil
	}
	if err := m.renderer.Backend().WriteBuffer(m.uniformBuffer, 0, data); err != nil {
		return fmt.Errorf("write %s uniform: %w", m.label, err)
	}
	m.uploaded = data
	return nil
}

// prepare rebuilds the lit pipeline when the registry layout or the sampled shadow map changed.
func (m *mesh) prepare() error {
	registry := m.renderer.Registry()
	key := pipelineKey{layoutVersion: registry.LayoutVersion()}
	sampled, ok := m.SampledShadowMap()
	if ok {
		key.sampling = true
		key.shadow = shadowKey{sampled.LightType, sampled.Index}
		key.view, key.sampler = sampled.View, sampled.Sampler
	}
	if m.pipeline != 0 && key == m.built {
		return nil
	}
	m.releasePipeline()

	var sampledMap *renderer.ShadowMap
	if ok {
		sampledMap = &sampled
	}
	module, err := LitShader(registry.Bindings(), sampledMap)
	if err != nil {
		return fmt.Errorf("mesh %q shader: %w", m.label, err)
	}

	backend := m.renderer.Backend()
	layouts := []renderer.BindGroupLayoutHandle{registry.BindGroupLayout(), m.provider.BindGroupLayout()}
	if ok {
		layout, err := backend.CreateBindGroupLayout(renderer.BindGroupLayoutDescriptor{
			Label:   m.label + " Shadow Layout",
			Entries: module.LayoutEntries(ShadowGroup, renderer.ShaderStageFragment),
		})
		if err != nil {
			return fmt.Errorf("create %s shadow layout: %w", m.label, err)
		}
		m.shadowLayout = layout
		group, err := backend.CreateBindGroup(renderer.BindGroupDescriptor{
			Label:  m.label + " Shadow Bind Group",
			Layout: layout,
			Entries: []renderer.BindGroupEntry{
				{Binding: 0, TextureView: sampled.View},
				{Binding: 1, Sampler: sampled.Sampler},
			},
		})
		if err != nil {
			m.releasePipeline()
			return fmt.Errorf("create %s shadow bind group: %w", m.label, err)
		}
		m.shadowGroup = group
		layouts = append(layouts, layout)
	}

	handle, err := module.Create(backend)
	if err != nil {
		m.releasePipeline()
		return err
	}
	pipeline, err := backend.CreateRenderPipeline(renderer.RenderPipelineDescriptor{
		Label:              m.label + " Lit Pipeline",
		BindGroupLayouts:   layouts,
		VertexModule:       handle,
		VertexEntryPoint:   module.EntryPoint(renderer.ShaderStageVertex),
		VertexBuffers:      []renderer.VertexBufferLayout{VertexLayout},
		FragmentModule:     handle,
		FragmentEntryPoint: module.EntryPoint(renderer.ShaderStageFragment),
		ColorFormat:        renderer.TextureFormatSurface,
		DepthFormat:        m.renderer.DepthFormat(),
		CullMode:           renderer.CullModeBack,
	})
	if err != nil {
		m.releasePipeline()
		return fmt.Errorf("create %s pipeline: %w", m.label, err)
	}
	m.pipeline = pipeline
	m.built = key
	m.logger.Debugf("built %s", module.Key())
	return nil
}

func (m *mesh) releasePipeline() {
	backend := m.renderer.Backend()
	if m.pipeline != 0 {
		backend.ReleasePipeline(m.pipeline)
		m.pipeline = 0
	}
	if m.shadowGroup != 0 {
		backend.ReleaseBindGroup(m.shadowGroup)
		m.shadowGroup = 0
	}
	if m.shadowLayout != 0 {
		backend.ReleaseBindGroupLayout(m.shadowLayout)
		m.shadowLayout = 0
	}
	m.built = pipelineKey{}
}

func (m *mesh) releaseGPU() {
	m.releasePipeline()
	backend := m.renderer.Backend()
	m.provider.Release(backend)
	for _, buf := range []*renderer.BufferHandle{&m.vertexBuffer, &m.indexBuffer, &m.uniformBuffer} {
		if *buf != 0 {
			backend.DestroyBuffer(*buf)
			*buf = 0
		}
	}
	m.uploaded = nil
}

func (m *mesh) Release() {
	if m.released {
		return
	}
	m.releaseGPU()
	m.graph.Destroy(m.node)
	m.shadowMaps = make(map[shadowKey]renderer.ShadowMap)
	m.released = true
}
