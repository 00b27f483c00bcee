package renderer

import "errors"

// ErrUnknownHandle is returned by a Backend when a handle does not refer to a live object.
var ErrUnknownHandle = errors.New("renderer: unknown handle")

// Opaque backend handles. The zero value of every handle is "no object".
type (
	BufferHandle          uint64
	TextureHandle         uint64
	TextureViewHandle     uint64
	SamplerHandle         uint64
	BindGroupLayoutHandle uint64
	BindGroupHandle       uint64
	ShaderModuleHandle    uint64
	PipelineHandle        uint64
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// BufferUsage is a bit set of the ways a buffer may be used.
type BufferUsage uint32

const (
	BufferUsageCopyDst BufferUsage = 1 << iota
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageVertex
	BufferUsageIndex
)

// BufferDescriptor describes a buffer allocation.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// TextureFormat enumerates the texture formats this engine allocates.
type TextureFormat int

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatDepth32Float
	TextureFormatDepth24Plus
	TextureFormatBGRA8Unorm
	TextureFormatRGBA8Unorm

	// TextureFormatSurface resolves to whatever format the presentation surface was configured with.
	TextureFormatSurface
)

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth32Float || f == TextureFormatDepth24Plus
}

// TextureUsage is a bit set of the ways a texture may be used.
type TextureUsage uint32

const (
	TextureUsageRenderAttachment TextureUsage = 1 << iota
	TextureUsageTextureBinding
	TextureUsageCopyDst
)

// TextureDescriptor describes a 2D texture, optionally with several array layers (6 for cube maps).
type TextureDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	Layers      uint32
	Format      TextureFormat
	SampleCount uint32
	Usage       TextureUsage
}

// TextureViewDimension is the dimension a texture view exposes to shaders.
type TextureViewDimension int

const (
	TextureViewDimension2D TextureViewDimension = iota
	TextureViewDimension2DArray
	TextureViewDimensionCube
)

// TextureViewDescriptor selects a subresource range of a texture.
// ArrayLayerCount 0 means "all remaining layers".
type TextureViewDescriptor struct {
	Label           string
	Dimension       TextureViewDimension
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
}

// SamplerDescriptor describes a sampler. Compare selects a depth comparison sampler (less).
type SamplerDescriptor struct {
	Label   string
	Compare bool
}

// ShaderStage is a bit set of shader stages.
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
)

// BindingType is the resource kind of a bind group layout entry.
type BindingType int

const (
	BindingTypeUniformBuffer BindingType = iota
	BindingTypeReadOnlyStorageBuffer
	BindingTypeDepthTexture
	BindingTypeComparisonSampler
)

// BindGroupLayoutEntry describes one binding slot of a layout.
type BindGroupLayoutEntry struct {
	Binding          uint32
	Visibility       ShaderStage
	Type             BindingType
	ViewDimension    TextureViewDimension
	HasDynamicOffset bool
	MinBindingSize   uint64
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds one resource. Exactly one of Buffer, TextureView or Sampler is set.
// Size 0 binds the whole buffer.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      BufferHandle
	Offset      uint64
	Size        uint64
	TextureView TextureViewHandle
	Sampler     SamplerHandle
}

// BindGroupDescriptor describes a bind group for a layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayoutHandle
	Entries []BindGroupEntry
}

// ShaderModuleDescriptor carries WGSL source.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// VertexFormat is the format of one vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// VertexAttribute describes one attribute inside a vertex buffer.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexBufferLayout describes the memory layout of one vertex buffer.
type VertexBufferLayout struct {
	ArrayStride uint64
	Attributes  []VertexAttribute
}

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	IndexFormatUint32 IndexFormat = iota
	IndexFormatUint16
)

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// RenderPipelineDescriptor describes a render pipeline.
// A zero FragmentModule or ColorFormat produces a depth-only pipeline with no color targets.
type RenderPipelineDescriptor struct {
	Label               string
	BindGroupLayouts    []BindGroupLayoutHandle
	VertexModule        ShaderModuleHandle
	VertexEntryPoint    string
	VertexBuffers       []VertexBufferLayout
	FragmentModule      ShaderModuleHandle
	FragmentEntryPoint  string
	ColorFormat         TextureFormat
	DepthFormat         TextureFormat
	CullMode            CullMode
	DepthBias           int32
	DepthBiasSlopeScale float32
}

// RenderPassDescriptor describes the attachments of a render pass.
// UseSurface targets the backend's current surface texture (ignored by headless backends).
// A zero DepthView means no depth attachment.
type RenderPassDescriptor struct {
	Label      string
	UseSurface bool
	ColorView  TextureViewHandle
	ClearColor [4]float64
	DepthView  TextureViewHandle
	DepthClear float32
}

// RenderPass records draw commands into a pass. End must be called exactly once.
type RenderPass interface {
	SetPipeline(p PipelineHandle)
	SetBindGroup(index uint32, group BindGroupHandle, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buffer BufferHandle)
	SetIndexBuffer(buffer BufferHandle, format IndexFormat)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End() error
}

// CommandEncoder records render passes for one submission.
type CommandEncoder interface {
	// BeginRenderPass starts a pass with the given attachments.
	//
	// Parameters:
	//   - desc: the pass attachments
	//
	// Returns:
	//   - RenderPass: the pass to record into
	//   - error: error if an attachment handle is unknown
	BeginRenderPass(desc RenderPassDescriptor) (RenderPass, error)

	// Release discards an encoder that will not be submitted. It is a no-op once the encoder
	// was submitted or released.
	Release()
}

// Backend is the low-level GPU object factory consumed by the registry, lights, shadows and scene.
// Callers treat every handle opaquely. Backends are driven from the render thread only.
type Backend interface {
	// CreateBuffer allocates a GPU buffer.
	//
	// Parameters:
	//   - desc: size and usage of the buffer
	//
	// Returns:
	//   - BufferHandle: the new buffer
	//   - error: error if the allocation failed
	CreateBuffer(desc BufferDescriptor) (BufferHandle, error)

	// WriteBuffer copies data into buffer at offset. The write is ordered before the next Submit.
	//
	// Parameters:
	//   - buffer: destination buffer
	//   - offset: byte offset inside the buffer
	//   - data: bytes to copy
	//
	// Returns:
	//   - error: ErrUnknownHandle, or an out-of-range error
	WriteBuffer(buffer BufferHandle, offset uint64, data []byte) error

	// DestroyBuffer frees a buffer. Unknown handles are ignored.
	DestroyBuffer(buffer BufferHandle)

	// CreateTexture allocates a texture. Its contents start cleared.
	//
	// Parameters:
	//   - desc: size, layers, format and usage
	//
	// Returns:
	//   - TextureHandle: the new texture
	//   - error: error if the allocation failed
	CreateTexture(desc TextureDescriptor) (TextureHandle, error)

	// CreateTextureView creates a view over a subresource range of texture.
	//
	// Parameters:
	//   - texture: the viewed texture
	//   - desc: dimension and layer range
	//
	// Returns:
	//   - TextureViewHandle: the view
	//   - error: ErrUnknownHandle if texture is not live
	CreateTextureView(texture TextureHandle, desc TextureViewDescriptor) (TextureViewHandle, error)

	// DestroyTexture frees a texture and every view created from it. Unknown handles are ignored.
	DestroyTexture(texture TextureHandle)

	// CreateSampler creates a sampler.
	CreateSampler(desc SamplerDescriptor) (SamplerHandle, error)

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayoutHandle, error)

	// ReleaseBindGroupLayout frees a layout. Unknown handles are ignored.
	ReleaseBindGroupLayout(layout BindGroupLayoutHandle)

	// CreateBindGroup creates a bind group against a layout.
	CreateBindGroup(desc BindGroupDescriptor) (BindGroupHandle, error)

	// ReleaseBindGroup frees a bind group. Unknown handles are ignored.
	ReleaseBindGroup(group BindGroupHandle)

	// CreateShaderModule compiles WGSL source.
	CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModuleHandle, error)

	// CreateRenderPipeline creates a render pipeline.
	CreateRenderPipeline(desc RenderPipelineDescriptor) (PipelineHandle, error)

	// ReleasePipeline frees a render pipeline. Unknown handles are ignored.
	ReleasePipeline(pipeline PipelineHandle)

	// CreateCommandEncoder starts recording a command submission.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit finishes and submits an encoder created by this backend.
	Submit(encoder CommandEncoder) error

	// Release frees every object still owned by the backend.
	Release()
}

// SurfaceBackend is a Backend that presents to a window surface.
type SurfaceBackend interface {
	Backend

	// ConfigureSurface (re)configures the surface for a framebuffer size in pixels.
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the present mode applied by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// AcquireFrame acquires the next surface texture for passes with UseSurface set.
	AcquireFrame() error

	// Present presents the acquired surface texture.
	Present()

	// SurfaceFormat returns the color format of the configured surface.
	SurfaceFormat() TextureFormat
}
