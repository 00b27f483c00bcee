package renderer

import (
	"fmt"
	"sync"
)

// MemoryBuffer is the CPU copy of a buffer owned by a MemoryBackend.
type MemoryBuffer struct {
	Desc   BufferDescriptor
	Data   []byte
	Writes int
}

// MemoryTexture is the bookkeeping record of a texture owned by a MemoryBackend.
type MemoryTexture struct {
	Desc      TextureDescriptor
	Destroyed bool
	Views     []TextureViewHandle

	// PassesRendered counts the render passes that used this texture as depth attachment.
	PassesRendered int
}

// MemoryTextureView is the bookkeeping record of a texture view.
type MemoryTextureView struct {
	Texture TextureHandle
	Desc    TextureViewDescriptor
}

// RecordedDraw is one draw call captured by a memory render pass.
type RecordedDraw struct {
	Pipeline       PipelineHandle
	BindGroups     map[uint32]BindGroupHandle
	DynamicOffsets map[uint32][]uint32
	VertexBuffer   BufferHandle
	IndexBuffer    BufferHandle
	Indexed        bool
	Count          uint32
	InstanceCount  uint32
}

// RecordedPass is one render pass captured by a memory command encoder.
type RecordedPass struct {
	Desc      RenderPassDescriptor
	DepthView MemoryTextureView
	Draws     []RecordedDraw
	Ended     bool
}

// MemoryStats counts backend calls for assertions and diagnostics.
type MemoryStats struct {
	BuffersCreated    int
	BufferWrites      int
	BytesWritten      int
	TexturesCreated   int
	LayoutsCreated    int
	BindGroupsCreated int
	PipelinesCreated  int
	EncodersCreated   int
	EncodersReleased  int
	Submits           int
}

// MemoryBackend is a headless SurfaceBackend that keeps every object on the CPU and records passes.
// It backs the unit tests and lets a scene run without a GPU.
type MemoryBackend struct {
	mu sync.Mutex

	nextHandle uint64

	buffers    map[BufferHandle]*MemoryBuffer
	textures   map[TextureHandle]*MemoryTexture
	views      map[TextureViewHandle]MemoryTextureView
	samplers   map[SamplerHandle]SamplerDescriptor
	layouts    map[BindGroupLayoutHandle]BindGroupLayoutDescriptor
	bindGroups map[BindGroupHandle]BindGroupDescriptor
	modules    map[ShaderModuleHandle]ShaderModuleDescriptor
	pipelines  map[PipelineHandle]RenderPipelineDescriptor

	submitted []RecordedPass
	stats     MemoryStats

	width, height int
	presentMode   PresentMode
	presented     int
	acquireErr    error
}

var _ SurfaceBackend = &MemoryBackend{}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		buffers:    make(map[BufferHandle]*MemoryBuffer),
		textures:   make(map[TextureHandle]*MemoryTexture),
		views:      make(map[TextureViewHandle]MemoryTextureView),
		samplers:   make(map[SamplerHandle]SamplerDescriptor),
		layouts:    make(map[BindGroupLayoutHandle]BindGroupLayoutDescriptor),
		bindGroups: make(map[BindGroupHandle]BindGroupDescriptor),
		modules:    make(map[ShaderModuleHandle]ShaderModuleDescriptor),
		pipelines:  make(map[PipelineHandle]RenderPipelineDescriptor),
	}
}

func (m *MemoryBackend) handle() uint64 {
	m.nextHandle++
	return m.nextHandle
}

func (m *MemoryBackend) CreateBuffer(desc BufferDescriptor) (BufferHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if desc.Size == 0 {
		return 0, fmt.Errorf("buffer %q: zero size", desc.Label)
	}
	h := BufferHandle(m.handle())
	m.buffers[h] = &MemoryBuffer{Desc: desc, Data: make([]byte, desc.Size)}
	m.stats.BuffersCreated++
	return h, nil
}

func (m *MemoryBackend) WriteBuffer(buffer BufferHandle, offset uint64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[buffer]
	if !ok {
		return ErrUnknownHandle
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return fmt.Errorf("write of %d bytes at %d overflows buffer %q of %d", len(data), offset, b.Desc.Label, len(b.Data))
	}
	copy(b.Data[offset:], data)
	b.Writes++
	m.stats.BufferWrites++
	m.stats.BytesWritten += len(data)
	return nil
}

func (m *MemoryBackend) DestroyBuffer(buffer BufferHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, buffer)
}

func (m *MemoryBackend) CreateTexture(desc TextureDescriptor) (TextureHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if desc.Width == 0 || desc.Height == 0 {
		return 0, fmt.Errorf("texture %q: zero size", desc.Label)
	}
	if desc.Layers == 0 {
		desc.Layers = 1
	}
	h := TextureHandle(m.handle())
	m.textures[h] = &MemoryTexture{Desc: desc}
	m.stats.TexturesCreated++
	return h, nil
}

func (m *MemoryBackend) CreateTextureView(texture TextureHandle, desc TextureViewDescriptor) (TextureViewHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.textures[texture]
	if !ok || t.Destroyed {
		return 0, ErrUnknownHandle
	}
	if desc.BaseArrayLayer >= t.Desc.Layers {
		return 0, fmt.Errorf("view of layer %d on texture %q with %d layers", desc.BaseArrayLayer, t.Desc.Label, t.Desc.Layers)
	}
	h := TextureViewHandle(m.handle())
	m.views[h] = MemoryTextureView{Texture: texture, Desc: desc}
	t.Views = append(t.Views, h)
	return h, nil
}

func (m *MemoryBackend) DestroyTexture(texture TextureHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.textures[texture]
	if !ok || t.Destroyed {
		return
	}
	for _, v := range t.Views {
		delete(m.views, v)
	}
	t.Destroyed = true
}

func (m *MemoryBackend) CreateSampler(desc SamplerDescriptor) (SamplerHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := SamplerHandle(m.handle())
	m.samplers[h] = desc
	return h, nil
}

func (m *MemoryBackend) CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayoutHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := BindGroupLayoutHandle(m.handle())
	m.layouts[h] = desc
	m.stats.LayoutsCreated++
	return h, nil
}

func (m *MemoryBackend) ReleaseBindGroupLayout(layout BindGroupLayoutHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.layouts, layout)
}

func (m *MemoryBackend) CreateBindGroup(desc BindGroupDescriptor) (BindGroupHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	layout, ok := m.layouts[desc.Layout]
	if !ok {
		return 0, fmt.Errorf("bind group %q layout: %w", desc.Label, ErrUnknownHandle)
	}
	if len(layout.Entries) != len(desc.Entries) {
		return 0, fmt.Errorf("bind group %q has %d entries, layout expects %d", desc.Label, len(desc.Entries), len(layout.Entries))
	}
	for _, e := range desc.Entries {
		switch {
		case e.Buffer != 0:
			if _, ok := m.buffers[e.Buffer]; !ok {
				return 0, fmt.Errorf("bind group %q binding %d: %w", desc.Label, e.Binding, ErrUnknownHandle)
			}
		case e.TextureView != 0:
			if _, ok := m.views[e.TextureView]; !ok {
				return 0, fmt.Errorf("bind group %q binding %d: %w", desc.Label, e.Binding, ErrUnknownHandle)
			}
		case e.Sampler != 0:
			if _, ok := m.samplers[e.Sampler]; !ok {
				return 0, fmt.Errorf("bind group %q binding %d: %w", desc.Label, e.Binding, ErrUnknownHandle)
			}
		}
	}
	h := BindGroupHandle(m.handle())
	m.bindGroups[h] = desc
	m.stats.BindGroupsCreated++
	return h, nil
}

func (m *MemoryBackend) ReleaseBindGroup(group BindGroupHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindGroups, group)
}

func (m *MemoryBackend) CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModuleHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if desc.Code == "" {
		return 0, fmt.Errorf("shader module %q: empty source", desc.Label)
	}
	h := ShaderModuleHandle(m.handle())
	m.modules[h] = desc
	return h, nil
}

func (m *MemoryBackend) CreateRenderPipeline(desc RenderPipelineDescriptor) (PipelineHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.modules[desc.VertexModule]; !ok {
		return 0, fmt.Errorf("pipeline %q vertex module: %w", desc.Label, ErrUnknownHandle)
	}
	for i, l := range desc.BindGroupLayouts {
		if _, ok := m.layouts[l]; !ok {
			return 0, fmt.Errorf("pipeline %q bind group layout %d: %w", desc.Label, i, ErrUnknownHandle)
		}
	}
	h := PipelineHandle(m.handle())
	m.pipelines[h] = desc
	m.stats.PipelinesCreated++
	return h, nil
}

func (m *MemoryBackend) ReleasePipeline(pipeline PipelineHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pipelines, pipeline)
}

func (m *MemoryBackend) CreateCommandEncoder(label string) (CommandEncoder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.EncodersCreated++
	return &memoryCommandEncoder{backend: m, label: label}, nil
}

func (m *MemoryBackend) Submit(encoder CommandEncoder) error {
	e, ok := encoder.(*memoryCommandEncoder)
	if !ok || e.backend != m {
		return fmt.Errorf("encoder was not created by this backend")
	}
	if e.submitted {
		return fmt.Errorf("encoder %q already submitted", e.label)
	}
	if e.released {
		return fmt.Errorf("encoder %q was released", e.label)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range e.passes {
		if !p.Ended {
			return fmt.Errorf("encoder %q has an unended render pass %q", e.label, p.Desc.Label)
		}
		if t, ok := m.textures[p.DepthView.Texture]; ok && p.Desc.DepthView != 0 {
			t.PassesRendered++
		}
		m.submitted = append(m.submitted, *p)
	}
	e.submitted = true
	m.stats.Submits++
	return nil
}

func (m *MemoryBackend) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.buffers)
	clear(m.textures)
	clear(m.views)
	clear(m.samplers)
	clear(m.layouts)
	clear(m.bindGroups)
	clear(m.modules)
	clear(m.pipelines)
}

func (m *MemoryBackend) ConfigureSurface(width, height int) error {
	m.width, m.height = width, height
	return nil
}

func (m *MemoryBackend) SetPresentMode(mode PresentMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presentMode = mode
}

func (m *MemoryBackend) AcquireFrame() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireErr
}

// FailAcquire makes every following AcquireFrame return err. A nil err restores success.
func (m *MemoryBackend) FailAcquire(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquireErr = err
}

func (m *MemoryBackend) Present() {
	m.presented++
}

func (m *MemoryBackend) SurfaceFormat() TextureFormat {
	return TextureFormatBGRA8Unorm
}

// Buffer returns the CPU record of a live buffer.
func (m *MemoryBackend) Buffer(h BufferHandle) (*MemoryBuffer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buffers[h]
	return b, ok
}

// Texture returns the record of a texture, including destroyed ones.
func (m *MemoryBackend) Texture(h TextureHandle) (*MemoryTexture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.textures[h]
	return t, ok
}

// TextureView returns the record of a live texture view.
func (m *MemoryBackend) TextureView(h TextureViewHandle) (MemoryTextureView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[h]
	return v, ok
}

// BindGroup returns the descriptor of a live bind group.
func (m *MemoryBackend) BindGroup(h BindGroupHandle) (BindGroupDescriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.bindGroups[h]
	return g, ok
}

// BindGroupLayout returns the descriptor of a live layout.
func (m *MemoryBackend) BindGroupLayout(h BindGroupLayoutHandle) (BindGroupLayoutDescriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.layouts[h]
	return l, ok
}

// Pipeline returns the descriptor of a live pipeline.
func (m *MemoryBackend) Pipeline(h PipelineHandle) (RenderPipelineDescriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pipelines[h]
	return p, ok
}

// ShaderSource returns the WGSL source of a shader module.
func (m *MemoryBackend) ShaderSource(h ShaderModuleHandle) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.modules[h]
	return s.Code, ok
}

// Submitted returns every pass submitted so far, in submission order.
func (m *MemoryBackend) Submitted() []RecordedPass {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedPass, len(m.submitted))
	copy(out, m.submitted)
	return out
}

// ResetSubmitted forgets the recorded passes.
func (m *MemoryBackend) ResetSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = nil
}

// Stats returns the call counters.
func (m *MemoryBackend) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// PresentMode returns the last present mode set on the surface.
func (m *MemoryBackend) PresentMode() PresentMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presentMode
}

// LiveTextures returns the number of textures not yet destroyed.
func (m *MemoryBackend) LiveTextures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.textures {
		if !t.Destroyed {
			n++
		}
	}
	return n
}

type memoryCommandEncoder struct {
	backend   *MemoryBackend
	label     string
	passes    []*RecordedPass
	submitted bool
	released  bool
}

func (e *memoryCommandEncoder) Release() {
	if e.submitted || e.released {
		return
	}
	m := e.backend
	m.mu.Lock()
	defer m.mu.Unlock()
	e.released = true
	m.stats.EncodersReleased++
}

func (e *memoryCommandEncoder) BeginRenderPass(desc RenderPassDescriptor) (RenderPass, error) {
	m := e.backend
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &RecordedPass{Desc: desc}
	if desc.DepthView != 0 {
		v, ok := m.views[desc.DepthView]
		if !ok {
			return nil, fmt.Errorf("render pass %q depth: %w", desc.Label, ErrUnknownHandle)
		}
		rec.DepthView = v
	}
	if desc.ColorView != 0 {
		if _, ok := m.views[desc.ColorView]; !ok {
			return nil, fmt.Errorf("render pass %q color: %w", desc.Label, ErrUnknownHandle)
		}
	}
	e.passes = append(e.passes, rec)
	return &memoryRenderPass{rec: rec}, nil
}

type memoryRenderPass struct {
	rec *RecordedPass

	pipeline       PipelineHandle
	bindGroups     map[uint32]BindGroupHandle
	dynamicOffsets map[uint32][]uint32
	vertexBuffer   BufferHandle
	indexBuffer    BufferHandle
}

func (p *memoryRenderPass) SetPipeline(pipeline PipelineHandle) {
	p.pipeline = pipeline
}

func (p *memoryRenderPass) SetBindGroup(index uint32, group BindGroupHandle, dynamicOffsets []uint32) {
	if p.bindGroups == nil {
		p.bindGroups = make(map[uint32]BindGroupHandle)
		p.dynamicOffsets = make(map[uint32][]uint32)
	}
	p.bindGroups[index] = group
	p.dynamicOffsets[index] = append([]uint32(nil), dynamicOffsets...)
}

func (p *memoryRenderPass) SetVertexBuffer(slot uint32, buffer BufferHandle) {
	if slot == 0 {
		p.vertexBuffer = buffer
	}
}

func (p *memoryRenderPass) SetIndexBuffer(buffer BufferHandle, _ IndexFormat) {
	p.indexBuffer = buffer
}

func (p *memoryRenderPass) Draw(vertexCount, instanceCount, _, _ uint32) {
	p.record(false, vertexCount, instanceCount)
}

func (p *memoryRenderPass) DrawIndexed(indexCount, instanceCount, _ uint32, _ int32, _ uint32) {
	p.record(true, indexCount, instanceCount)
}

func (p *memoryRenderPass) record(indexed bool, count, instances uint32) {
	groups := make(map[uint32]BindGroupHandle, len(p.bindGroups))
	offsets := make(map[uint32][]uint32, len(p.dynamicOffsets))
	for k, v := range p.bindGroups {
		groups[k] = v
	}
	for k, v := range p.dynamicOffsets {
		offsets[k] = v
	}
	p.rec.Draws = append(p.rec.Draws, RecordedDraw{
		Pipeline:       p.pipeline,
		BindGroups:     groups,
		DynamicOffsets: offsets,
		VertexBuffer:   p.vertexBuffer,
		IndexBuffer:    p.indexBuffer,
		Indexed:        indexed,
		Count:          count,
		InstanceCount:  instances,
	})
}

func (p *memoryRenderPass) End() error {
	if p.rec.Ended {
		return fmt.Errorf("render pass %q ended twice", p.rec.Desc.Label)
	}
	p.rec.Ended = true
	return nil
}
