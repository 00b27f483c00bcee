package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture pairs a texture with the views created from it so DestroyTexture can release both.
type wgpuTexture struct {
	texture *wgpu.Texture
	views   []TextureViewHandle
}

// wgpuCommandEncoder is the CommandEncoder for the wgpu backend.
type wgpuCommandEncoder struct {
	backend  *wgpuRendererBackendImpl
	encoder  *wgpu.CommandEncoder
	released bool
}

// wgpuRenderPass is the RenderPass for the wgpu backend. Handles are resolved at record time.
type wgpuRenderPass struct {
	backend *wgpuRendererBackendImpl
	pass    *wgpu.RenderPassEncoder
}

// wgpuRendererBackendImpl implements SurfaceBackend on top of cogentcore/webgpu.
// Objects live in handle-keyed maps so callers never hold wgpu pointers.
type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	nextHandle uint64

	buffers     map[BufferHandle]*wgpu.Buffer
	textures    map[TextureHandle]*wgpuTexture
	views       map[TextureViewHandle]*wgpu.TextureView
	samplers    map[SamplerHandle]*wgpu.Sampler
	layouts     map[BindGroupLayoutHandle]*wgpu.BindGroupLayout
	bindGroups  map[BindGroupHandle]*wgpu.BindGroup
	modules     map[ShaderModuleHandle]*wgpu.ShaderModule
	pipelines   map[PipelineHandle]*wgpu.RenderPipeline
	pipeLayouts map[PipelineHandle]*wgpu.PipelineLayout

	logger common.Logger
}

var _ SurfaceBackend = &wgpuRendererBackendImpl{}

// NewWGPUBackend creates a wgpu device, optionally bound to a window surface.
// The calling goroutine is locked to its OS thread, as required by the native driver.
//
// Parameters:
//   - surfaceDescriptor: the window surface descriptor, or nil for a headless device
//   - forceFallbackAdapter: request a software adapter
//   - logger: diagnostics sink (nil for none)
//
// Returns:
//   - SurfaceBackend: the backend
//   - error: error if no adapter or device could be acquired
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, logger common.Logger) (SurfaceBackend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		buffers:     make(map[BufferHandle]*wgpu.Buffer),
		textures:    make(map[TextureHandle]*wgpuTexture),
		views:       make(map[TextureViewHandle]*wgpu.TextureView),
		samplers:    make(map[SamplerHandle]*wgpu.Sampler),
		layouts:     make(map[BindGroupLayoutHandle]*wgpu.BindGroupLayout),
		bindGroups:  make(map[BindGroupHandle]*wgpu.BindGroup),
		modules:     make(map[ShaderModuleHandle]*wgpu.ShaderModule),
		pipelines:   make(map[PipelineHandle]*wgpu.RenderPipeline),
		pipeLayouts: make(map[PipelineHandle]*wgpu.PipelineLayout),
		logger:      common.Coalesce(logger, common.NopLogger()),
	}
	if surfaceDescriptor != nil {
		b.surface = b.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Scene Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()
	return b, nil
}

func (b *wgpuRendererBackendImpl) handle() uint64 {
	b.nextHandle++
	return b.nextHandle
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return fmt.Errorf("backend has no surface")
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return fmt.Errorf("surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() TextureFormat {
	return TextureFormatSurface
}

// colorFormat resolves TextureFormatSurface against the configured surface.
func (b *wgpuRendererBackendImpl) colorFormat(f TextureFormat) wgpu.TextureFormat {
	if f == TextureFormatSurface {
		return b.surfaceFormat
	}
	return toWGPUTextureFormat(f)
}

func (b *wgpuRendererBackendImpl) AcquireFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return nil
	}
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.frameView.Release()
	b.frameSurface.Release()
	b.frameView = nil
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(desc BufferDescriptor) (BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: toWGPUBufferUsage(desc.Usage),
	})
	if err != nil {
		return 0, err
	}
	h := BufferHandle(b.handle())
	b.buffers[h] = buf
	return h, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buffer BufferHandle, offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.buffers[buffer]
	if !ok {
		return ErrUnknownHandle
	}
	if offset+uint64(len(data)) > buf.GetSize() {
		return fmt.Errorf("write of %d bytes at %d overflows buffer of %d", len(data), offset, buf.GetSize())
	}
	b.queue.WriteBuffer(buf, offset, data)
	return nil
}

func (b *wgpuRendererBackendImpl) DestroyBuffer(buffer BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if buf, ok := b.buffers[buffer]; ok {
		buf.Destroy()
		buf.Release()
		delete(b.buffers, buffer)
	}
}

func (b *wgpuRendererBackendImpl) CreateTexture(desc TextureDescriptor) (TextureHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: max(desc.Layers, 1),
		},
		MipLevelCount: 1,
		SampleCount:   max(desc.SampleCount, 1),
		Dimension:     wgpu.TextureDimension2D,
		Format:        toWGPUTextureFormat(desc.Format),
		Usage:         toWGPUTextureUsage(desc.Usage),
	})
	if err != nil {
		return 0, err
	}
	h := TextureHandle(b.handle())
	b.textures[h] = &wgpuTexture{texture: tex}
	return h, nil
}

func (b *wgpuRendererBackendImpl) CreateTextureView(texture TextureHandle, desc TextureViewDescriptor) (TextureViewHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[texture]
	if !ok {
		return 0, ErrUnknownHandle
	}
	layers := desc.ArrayLayerCount
	if layers == 0 {
		layers = t.texture.GetDepthOrArrayLayers() - desc.BaseArrayLayer
	}
	view, err := t.texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          t.texture.GetFormat(),
		Dimension:       toWGPUViewDimension(desc.Dimension),
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  desc.BaseArrayLayer,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return 0, err
	}
	h := TextureViewHandle(b.handle())
	b.views[h] = view
	t.views = append(t.views, h)
	return h, nil
}

func (b *wgpuRendererBackendImpl) DestroyTexture(texture TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[texture]
	if !ok {
		return
	}
	for _, v := range t.views {
		if view, ok := b.views[v]; ok {
			view.Release()
			delete(b.views, v)
		}
	}
	t.texture.Destroy()
	t.texture.Release()
	delete(b.textures, texture)
}

func (b *wgpuRendererBackendImpl) CreateSampler(desc SamplerDescriptor) (SamplerHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sd := &wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
	if desc.Compare {
		sd.Compare = wgpu.CompareFunctionLess
	}
	samp, err := b.device.CreateSampler(sd)
	if err != nil {
		return 0, err
	}
	h := SamplerHandle(b.handle())
	b.samplers[h] = samp
	return h, nil
}

func (b *wgpuRendererBackendImpl) CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayoutHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: toWGPUShaderStage(e.Visibility),
		}
		switch e.Type {
		case BindingTypeUniformBuffer:
			entry.Buffer = wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: e.HasDynamicOffset,
				MinBindingSize:   e.MinBindingSize,
			}
		case BindingTypeReadOnlyStorageBuffer:
			entry.Buffer = wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeReadOnlyStorage,
				HasDynamicOffset: e.HasDynamicOffset,
				MinBindingSize:   e.MinBindingSize,
			}
		case BindingTypeDepthTexture:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeDepth,
				ViewDimension: toWGPUViewDimension(e.ViewDimension),
			}
		case BindingTypeComparisonSampler:
			entry.Sampler = wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeComparison,
			}
		}
		entries[i] = entry
	}

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return 0, err
	}
	h := BindGroupLayoutHandle(b.handle())
	b.layouts[h] = layout
	return h, nil
}

func (b *wgpuRendererBackendImpl) ReleaseBindGroupLayout(layout BindGroupLayoutHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if l, ok := b.layouts[layout]; ok {
		l.Release()
		delete(b.layouts, layout)
	}
}

func (b *wgpuRendererBackendImpl) CreateBindGroup(desc BindGroupDescriptor) (BindGroupHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	layout, ok := b.layouts[desc.Layout]
	if !ok {
		return 0, fmt.Errorf("bind group %q layout: %w", desc.Label, ErrUnknownHandle)
	}
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != 0:
			buf, ok := b.buffers[e.Buffer]
			if !ok {
				return 0, fmt.Errorf("bind group %q binding %d: %w", desc.Label, e.Binding, ErrUnknownHandle)
			}
			entry.Buffer = buf
			entry.Offset = e.Offset
			entry.Size = e.Size
			if entry.Size == 0 {
				entry.Size = wgpu.WholeSize
			}
		case e.TextureView != 0:
			view, ok := b.views[e.TextureView]
			if !ok {
				return 0, fmt.Errorf("bind group %q binding %d: %w", desc.Label, e.Binding, ErrUnknownHandle)
			}
			entry.TextureView = view
		case e.Sampler != 0:
			samp, ok := b.samplers[e.Sampler]
			if !ok {
				return 0, fmt.Errorf("bind group %q binding %d: %w", desc.Label, e.Binding, ErrUnknownHandle)
			}
			entry.Sampler = samp
		}
		entries[i] = entry
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return 0, err
	}
	h := BindGroupHandle(b.handle())
	b.bindGroups[h] = group
	return h, nil
}

func (b *wgpuRendererBackendImpl) ReleaseBindGroup(group BindGroupHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if g, ok := b.bindGroups[group]; ok {
		g.Release()
		delete(b.bindGroups, group)
	}
}

func (b *wgpuRendererBackendImpl) CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModuleHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Code,
		},
	})
	if err != nil {
		return 0, err
	}
	h := ShaderModuleHandle(b.handle())
	b.modules[h] = module
	return h, nil
}

func (b *wgpuRendererBackendImpl) CreateRenderPipeline(desc RenderPipelineDescriptor) (PipelineHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vs, ok := b.modules[desc.VertexModule]
	if !ok {
		return 0, fmt.Errorf("pipeline %q vertex module: %w", desc.Label, ErrUnknownHandle)
	}

	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, lh := range desc.BindGroupLayouts {
		l, ok := b.layouts[lh]
		if !ok {
			return 0, fmt.Errorf("pipeline %q bind group layout %d: %w", desc.Label, i, ErrUnknownHandle)
		}
		layouts[i] = l
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " Layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return 0, err
	}

	vertexBuffers := make([]wgpu.VertexBufferLayout, len(desc.VertexBuffers))
	for i, vb := range desc.VertexBuffers {
		attrs := make([]wgpu.VertexAttribute, len(vb.Attributes))
		for j, a := range vb.Attributes {
			attrs[j] = wgpu.VertexAttribute{
				Format:         toWGPUVertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		vertexBuffers[i] = wgpu.VertexBufferLayout{
			ArrayStride: vb.ArrayStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		}
	}

	// Depth-only pipelines (shadow casters) have no fragment stage and no color targets.
	var fragment *wgpu.FragmentState
	if desc.FragmentModule != 0 && desc.ColorFormat != TextureFormatUndefined {
		fs, ok := b.modules[desc.FragmentModule]
		if !ok {
			pipelineLayout.Release()
			return 0, fmt.Errorf("pipeline %q fragment module: %w", desc.Label, ErrUnknownHandle)
		}
		fragment = &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: desc.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.colorFormat(desc.ColorFormat),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		}
	}

	var depthStencil *wgpu.DepthStencilState
	if desc.DepthFormat != TextureFormatUndefined {
		depthStencil = &wgpu.DepthStencilState{
			Format:              toWGPUTextureFormat(desc.DepthFormat),
			DepthWriteEnabled:   true,
			DepthCompare:        wgpu.CompareFunctionLess,
			DepthBias:           desc.DepthBias,
			DepthBiasSlopeScale: desc.DepthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    vertexBuffers,
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toWGPUCullMode(desc.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		pipelineLayout.Release()
		return 0, err
	}
	h := PipelineHandle(b.handle())
	b.pipelines[h] = created
	b.pipeLayouts[h] = pipelineLayout
	return h, nil
}

func (b *wgpuRendererBackendImpl) ReleasePipeline(pipeline PipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pipelines[pipeline]; ok {
		p.Release()
		delete(b.pipelines, pipeline)
	}
	if l, ok := b.pipeLayouts[pipeline]; ok {
		l.Release()
		delete(b.pipeLayouts, pipeline)
	}
}

func (b *wgpuRendererBackendImpl) CreateCommandEncoder(label string) (CommandEncoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &wgpuCommandEncoder{backend: b, encoder: encoder}, nil
}

func (b *wgpuRendererBackendImpl) Submit(encoder CommandEncoder) error {
	e, ok := encoder.(*wgpuCommandEncoder)
	if !ok || e.backend != b {
		return fmt.Errorf("encoder was not created by this backend")
	}

	if e.released {
		return fmt.Errorf("encoder was already released")
	}

	commandBuffer, err := e.encoder.Finish(nil)
	if err != nil {
		e.Release()
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	e.Release()
	return nil
}

func (e *wgpuCommandEncoder) Release() {
	if e.released {
		return
	}
	e.encoder.Release()
	e.released = true
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for h, p := range b.pipelines {
		p.Release()
		delete(b.pipelines, h)
	}
	for h, l := range b.pipeLayouts {
		l.Release()
		delete(b.pipeLayouts, h)
	}
	for h, g := range b.bindGroups {
		g.Release()
		delete(b.bindGroups, h)
	}
	for h, l := range b.layouts {
		l.Release()
		delete(b.layouts, h)
	}
	for h, s := range b.samplers {
		s.Release()
		delete(b.samplers, h)
	}
	for h, v := range b.views {
		v.Release()
		delete(b.views, h)
	}
	for h, t := range b.textures {
		t.texture.Release()
		delete(b.textures, h)
	}
	for h, buf := range b.buffers {
		buf.Release()
		delete(b.buffers, h)
	}
	for h, m := range b.modules {
		m.Release()
		delete(b.modules, h)
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	b.instance.Release()
	b.logger.Debugf("wgpu backend released")
}

func (e *wgpuCommandEncoder) BeginRenderPass(desc RenderPassDescriptor) (RenderPass, error) {
	b := e.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	pd := &wgpu.RenderPassDescriptor{Label: desc.Label}

	var colorView *wgpu.TextureView
	switch {
	case desc.UseSurface:
		colorView = b.frameView
		if colorView == nil && b.surface != nil {
			return nil, fmt.Errorf("render pass %q: surface frame not acquired", desc.Label)
		}
	case desc.ColorView != 0:
		v, ok := b.views[desc.ColorView]
		if !ok {
			return nil, fmt.Errorf("render pass %q color: %w", desc.Label, ErrUnknownHandle)
		}
		colorView = v
	}
	if colorView != nil {
		pd.ColorAttachments = []wgpu.RenderPassColorAttachment{
			{
				View:    colorView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: desc.ClearColor[0], G: desc.ClearColor[1], B: desc.ClearColor[2], A: desc.ClearColor[3],
				},
			},
		}
	}

	if desc.DepthView != 0 {
		v, ok := b.views[desc.DepthView]
		if !ok {
			return nil, fmt.Errorf("render pass %q depth: %w", desc.Label, ErrUnknownHandle)
		}
		pd.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            v,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.DepthClear,
		}
	}

	return &wgpuRenderPass{backend: b, pass: e.encoder.BeginRenderPass(pd)}, nil
}

func (p *wgpuRenderPass) SetPipeline(pipeline PipelineHandle) {
	if rp, ok := p.backend.pipelines[pipeline]; ok {
		p.pass.SetPipeline(rp)
	}
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group BindGroupHandle, dynamicOffsets []uint32) {
	if g, ok := p.backend.bindGroups[group]; ok {
		p.pass.SetBindGroup(index, g, dynamicOffsets)
	}
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buffer BufferHandle) {
	if buf, ok := p.backend.buffers[buffer]; ok {
		p.pass.SetVertexBuffer(slot, buf, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) SetIndexBuffer(buffer BufferHandle, format IndexFormat) {
	buf, ok := p.backend.buffers[buffer]
	if !ok {
		return
	}
	f := wgpu.IndexFormatUint32
	if format == IndexFormatUint16 {
		f = wgpu.IndexFormatUint16
	}
	p.pass.SetIndexBuffer(buf, f, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *wgpuRenderPass) End() error {
	p.pass.End()
	p.pass.Release()
	return nil
}

func toWGPUBufferUsage(u BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	if u&BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	return out
}

func toWGPUTextureUsage(u TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&TextureUsageRenderAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&TextureUsageTextureBinding != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

func toWGPUTextureFormat(f TextureFormat) wgpu.TextureFormat {
	switch f {
	case TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	case TextureFormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus
	case TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	default:
		return wgpu.TextureFormatBGRA8Unorm
	}
}

func toWGPUViewDimension(d TextureViewDimension) wgpu.TextureViewDimension {
	switch d {
	case TextureViewDimension2DArray:
		return wgpu.TextureViewDimension2DArray
	case TextureViewDimensionCube:
		return wgpu.TextureViewDimensionCube
	default:
		return wgpu.TextureViewDimension2D
	}
}

func toWGPUShaderStage(s ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func toWGPUVertexFormat(f VertexFormat) wgpu.VertexFormat {
	switch f {
	case VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	default:
		return wgpu.VertexFormatFloat32x3
	}
}

func toWGPUCullMode(c CullMode) wgpu.CullMode {
	switch c {
	case CullModeFront:
		return wgpu.CullModeFront
	case CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}
