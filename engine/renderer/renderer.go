package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend  Backend
	surface  SurfaceBackend
	registry LightsBindingRegistry
	sched    Scheduler
	logger   common.Logger

	registryOptions []RegistryBuilderOption

	width, height int
	clearColor    [4]float64
	depthFormat   TextureFormat
	presentMode   *PresentMode

	// The following fields are GPU allocated resources and must be released when no longer needed.

	depthTexture  TextureHandle
	depthView     TextureViewHandle
	shadowSampler SamplerHandle

	frames int
}

// Renderer drives one frame on top of a Backend: it flushes the lights registry, runs the
// before-render scheduler (shadow depth passes), then records the main pass over the given
// drawables and submits everything in one command encoder.
type Renderer interface {
	// Backend returns the GPU backend.
	//
	// Returns:
	//   - Backend: the backend
	Backend() Backend

	// Registry returns the lights binding registry shared by every light, shadow and camera.
	//
	// Returns:
	//   - LightsBindingRegistry: the registry
	Registry() LightsBindingRegistry

	// Scheduler returns the before-render scheduler.
	//
	// Returns:
	//   - Scheduler: the scheduler
	Scheduler() Scheduler

	// Logger returns the renderer's logger.
	Logger() common.Logger

	// DepthFormat returns the format of the main pass depth attachment.
	DepthFormat() TextureFormat

	// ShadowSampler returns the comparison sampler shadow receivers sample depth textures with.
	ShadowSampler() SamplerHandle

	// Render records and submits one frame.
	//
	// Parameters:
	//   - drawables: the drawables of the main pass; invisible ones are skipped
	//
	// Returns:
	//   - error: error from the registry flush, a scheduled task or the backend
	Render(drawables []Drawable) error

	// Resize reconfigures the surface (when the backend has one) and the main depth texture.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: error if the surface or depth texture could not be recreated
	Resize(width, height int) error

	// Size returns the current framebuffer size.
	Size() (width, height int)

	// Frames returns the number of frames submitted.
	Frames() int

	// Release frees the renderer's GPU resources, the registry and the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer over backend. When backend is a SurfaceBackend, frames are
// presented to its surface.
//
// Parameters:
//   - backend: the GPU backend
//   - options: functional options
//
// Returns:
//   - Renderer: the renderer
//   - error: error if the registry, sampler or depth texture could not be created
func NewRenderer(backend Backend, options ...RendererBuilderOption) (Renderer, error) {
	if backend == nil {
		return nil, errors.New("renderer: nil backend")
	}
	r := &renderer{
		backend:     backend,
		logger:      common.NopLogger(),
		width:       800,
		height:      600,
		clearColor:  [4]float64{0, 0, 0, 1},
		depthFormat: TextureFormatDepth24Plus,
	}
	for _, opt := range options {
		opt(r)
	}
	if s, ok := backend.(SurfaceBackend); ok {
		r.surface = s
		if r.presentMode != nil {
			s.SetPresentMode(*r.presentMode)
		}
	}

	registry, err := NewLightsBindingRegistry(backend, append([]RegistryBuilderOption{WithRegistryLogger(r.logger)}, r.registryOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("create lights registry: %w", err)
	}
	r.registry = registry
	r.sched = NewScheduler(r.logger)

	sampler, err := backend.CreateSampler(SamplerDescriptor{Label: "Shadow Comparison Sampler", Compare: true})
	if err != nil {
		registry.Release()
		return nil, fmt.Errorf("create shadow sampler: %w", err)
	}
	r.shadowSampler = sampler

	if err := r.Resize(r.width, r.height); err != nil {
		registry.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) Backend() Backend {
	return r.backend
}

func (r *renderer) Registry() LightsBindingRegistry {
	return r.registry
}

func (r *renderer) Scheduler() Scheduler {
	return r.sched
}

func (r *renderer) Logger() common.Logger {
	return r.logger
}

func (r *renderer) DepthFormat() TextureFormat {
	return r.depthFormat
}

func (r *renderer) ShadowSampler() SamplerHandle {
	return r.shadowSampler
}

func (r *renderer) Size() (int, int) {
	return r.width, r.height
}

func (r *renderer) Frames() int {
	return r.frames
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		// minimized window
		return nil
	}
	r.width, r.height = width, height
	if r.surface != nil {
		if err := r.surface.ConfigureSurface(width, height); err != nil {
			return fmt.Errorf("configure surface: %w", err)
		}
	}

	if r.depthTexture != 0 {
		r.backend.DestroyTexture(r.depthTexture)
		r.depthTexture, r.depthView = 0, 0
	}
	tex, err := r.backend.CreateTexture(TextureDescriptor{
		Label:       "Main Depth Texture",
		Width:       uint32(width),
		Height:      uint32(height),
		Layers:      1,
		Format:      r.depthFormat,
		SampleCount: 1,
		Usage:       TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	view, err := r.backend.CreateTextureView(tex, TextureViewDescriptor{Label: "Main Depth View"})
	if err != nil {
		r.backend.DestroyTexture(tex)
		return fmt.Errorf("create depth view: %w", err)
	}
	r.depthTexture, r.depthView = tex, view
	return nil
}

func (r *renderer) Render(drawables []Drawable) error {
	if err := r.registry.Flush(); err != nil {
		return err
	}

	enc, err := r.backend.CreateCommandEncoder(fmt.Sprintf("Frame %d", r.frames))
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	submitted := false
	defer func() {
		if !submitted {
			enc.Release()
		}
	}()

	// shadow passes; a failing task does not cost the main pass
	taskErr := r.sched.Run(enc)

	if r.surface != nil {
		if err := r.surface.AcquireFrame(); err != nil {
			return fmt.Errorf("acquire frame: %w", err)
		}
	}
	pass, err := enc.BeginRenderPass(RenderPassDescriptor{
		Label:      "Main Pass",
		UseSurface: r.surface != nil,
		ClearColor: r.clearColor,
		DepthView:  r.depthView,
		DepthClear: 1,
	})
	if err != nil {
		return fmt.Errorf("begin main pass: %w", err)
	}

	lights := r.registry.BindGroup()
	var drawErrs []error
	for _, d := range drawables {
		if d == nil || !d.Visible() {
			continue
		}
		if err := d.Draw(pass, lights); err != nil {
			drawErrs = append(drawErrs, err)
		}
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("end main pass: %w", err)
	}
	if err := r.backend.Submit(enc); err != nil {
		return fmt.Errorf("submit frame: %w", err)
	}
	submitted = true
	if r.surface != nil {
		r.surface.Present()
	}
	r.frames++

	if len(drawErrs) > 0 {
		r.logger.Warnf("%d drawables failed to draw", len(drawErrs))
	}
	return errors.Join(append(drawErrs, taskErr)...)
}

func (r *renderer) Release() {
	if r.depthTexture != 0 {
		r.backend.DestroyTexture(r.depthTexture)
		r.depthTexture, r.depthView = 0, 0
	}
	if r.registry != nil {
		r.registry.Release()
	}
	r.backend.Release()
}
