package light

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
)

// ShadowMapResolution is the default width and height in texels of a shadow
// depth texture (each cube face for point shadows).
const ShadowMapResolution = 2048

// MinShadowMapResolution and MaxShadowMapResolution bound ShadowParams.DepthTextureSize.
const (
	MinShadowMapResolution = 16
	MaxShadowMapResolution = 8192
)

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// used for the directional light shadow frustum. Controls how much of the scene
// around the light is captured in the shadow map.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane of every shadow projection.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane of every shadow projection. Point and spot
// shadows use the light's range instead when it is set.
const DefaultShadowFar float32 = 200.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.001

// DefaultShadowNormalBias is the distance the shadow sample point is pushed along the surface
// normal, reducing self-shadowing on concave geometry.
const DefaultShadowNormalBias float32 = 0.02

// DefaultPCFSamples is the default number of filter taps per axis.
const DefaultPCFSamples uint32 = 2

// MaxPCFSamples bounds ShadowParams.PCFSamples.
const MaxPCFSamples uint32 = 8

// ShadowDepthFormat is the format of every shadow depth texture.
const ShadowDepthFormat = renderer.TextureFormatDepth32Float

// ShadowParams are the tunables of a shadow. Out of range values are clamped, never rejected.
type ShadowParams struct {
	// DepthTextureSize is the edge of the (square) depth texture in texels.
	DepthTextureSize uint32 `yaml:"depth_texture_size"`
	// Bias is the constant depth bias.
	Bias float32 `yaml:"bias"`
	// NormalBias is the normal-offset distance.
	NormalBias float32 `yaml:"normal_bias"`
	// PCFSamples is the number of filter taps per axis, 1 disables filtering.
	PCFSamples uint32 `yaml:"pcf_samples"`
	// Intensity blends the shadow in: 0 = no darkening, 1 = full shadow.
	Intensity float32 `yaml:"intensity"`
}

// DefaultShadowParams returns the parameters used when a shadow is cast without overrides.
//
// Returns:
//   - ShadowParams: the defaults
func DefaultShadowParams() ShadowParams {
	return ShadowParams{
		DepthTextureSize: ShadowMapResolution,
		Bias:             DefaultShadowBias,
		NormalBias:       DefaultShadowNormalBias,
		PCFSamples:       DefaultPCFSamples,
		Intensity:        1,
	}
}

// Clamped returns p with every field forced into its valid range.
//
// Returns:
//   - ShadowParams: the clamped parameters
func (p ShadowParams) Clamped() ShadowParams {
	p.DepthTextureSize = common.Clamp(p.DepthTextureSize, MinShadowMapResolution, MaxShadowMapResolution)
	p.Bias = max(p.Bias, 0)
	p.NormalBias = max(p.NormalBias, 0)
	p.PCFSamples = common.Clamp(p.PCFSamples, 1, MaxPCFSamples)
	p.Intensity = common.Clamp(p.Intensity, 0, 1)
	return p
}

// ShadowStats reports the GPU work a shadow recorded.
type ShadowStats struct {
	// Renders counts frames that drew at least one caster.
	Renders int
	// Clears counts frames that only cleared the depth texture because no caster was visible.
	Clears int
	// Passes counts depth passes recorded, one per face per rendered frame.
	Passes int
	// Allocations counts depth texture allocations.
	Allocations int
}

// Shadow is the depth-map half of a light. It is owned by exactly one light and shares its
// slot index. A shadow is constructed inactive; Cast activates it.
type Shadow interface {
	// LightType returns the owning light's type.
	LightType() renderer.LightType

	// Index returns the owning light's slot index.
	Index() int

	// IsActive reports whether the shadow is cast.
	//
	// Returns:
	//   - bool: true between Cast and Deactivate
	IsActive() bool

	// Params returns the current shadow parameters.
	//
	// Returns:
	//   - ShadowParams: the parameters
	Params() ShadowParams

	// Cast activates the shadow with params. Once the light is attached to a renderer this
	// allocates a cleared depth texture and registers a depth pass with the renderer's
	// scheduler; before that the parameters are stored and allocation waits for SetRenderer.
	// Casting an active shadow updates its parameters and reallocates the texture when the
	// size changed.
	//
	// Parameters:
	//   - params: the shadow parameters, clamped to their valid ranges
	//
	// Returns:
	//   - error: error if the depth texture could not be created
	Cast(params ShadowParams) error

	// Deactivate destroys the depth texture and every casting proxy and removes the depth
	// pass from the scheduler. Receivers stay registered and are told the map is gone.
	Deactivate()

	// RenderOnce replaces the per-frame depth pass with a single pass on the next frame.
	// Cast re-enables the per-frame pass.
	//
	// Returns:
	//   - error: ErrShadowInactive or ErrNoRenderer
	RenderOnce() error

	// DepthTexture returns the depth texture, or 0 when none is allocated.
	DepthTexture() renderer.TextureHandle

	// DepthView returns the sampling view of the depth texture (2D or cube), or 0.
	DepthView() renderer.TextureViewHandle

	// AddShadowCastingMesh creates a depth-only proxy for d. Adding a mesh twice does nothing.
	//
	// Parameters:
	//   - d: the drawable to cast from
	//
	// Returns:
	//   - error: ErrShadowInactive if the shadow is not cast
	AddShadowCastingMesh(d renderer.Drawable) error

	// RemoveShadowCastingMesh destroys the proxy of d.
	//
	// Parameters:
	//   - d: the drawable
	//
	// Returns:
	//   - bool: whether d was casting
	RemoveShadowCastingMesh(d renderer.Drawable) bool

	// CastingMeshes returns the drawables with a depth proxy, in insertion order.
	CastingMeshes() []renderer.Drawable

	// AddShadowReceivingMesh registers a receiver. The shadow does not own it; it only
	// notifies it when the depth texture is created or destroyed.
	//
	// Parameters:
	//   - r: the receiver
	AddShadowReceivingMesh(r renderer.ShadowReceiver)

	// RemoveShadowReceivingMesh unregisters a receiver and clears its map.
	//
	// Parameters:
	//   - r: the receiver
	//
	// Returns:
	//   - bool: whether r was registered
	RemoveShadowReceivingMesh(r renderer.ShadowReceiver) bool

	// Render records the depth passes into enc. When no caster is visible the depth texture is
	// cleared instead so no stale depth survives.
	//
	// Parameters:
	//   - enc: the frame's command encoder
	//
	// Returns:
	//   - error: error from proxy setup or the encoder
	Render(enc renderer.CommandEncoder) error

	// Stats returns the shadow's counters.
	Stats() ShadowStats
}

// shadowVariant is implemented by each concrete shadow.
type shadowVariant interface {
	// faces is the number of depth layers rendered per frame.
	faces() int
	// encode serializes the shadow slot.
	encode(header GPUShadowHeader) []byte
	// destroy frees variant-owned nodes.
	destroy()
}

type shadowBase struct {
	light   *lightBase
	variant shadowVariant

	active bool
	params ShadowParams

	renderer renderer.Renderer
	task     renderer.TaskID
	once     renderer.TaskID

	casters   []*depthProxy
	receivers []renderer.ShadowReceiver

	// The following fields are GPU allocated resources and must be released when no longer needed.

	texture   renderer.TextureHandle
	view      renderer.TextureViewHandle
	faceViews []renderer.TextureViewHandle

	depthModule    renderer.ShaderModuleHandle
	instanceLayout renderer.BindGroupLayoutHandle
	layoutVersion  uint64
	generation     int

	stats ShadowStats
}

var _ shadowOwner = &shadowBase{}

func newShadowBase(l *lightBase, variant shadowVariant) *shadowBase {
	return &shadowBase{light: l, variant: variant, params: DefaultShadowParams()}
}

func (s *shadowBase) LightType() renderer.LightType {
	return s.light.kind
}

func (s *shadowBase) Index() int {
	return s.light.index
}

func (s *shadowBase) IsActive() bool {
	return s.active
}

func (s *shadowBase) Params() ShadowParams {
	return s.params
}

func (s *shadowBase) DepthTexture() renderer.TextureHandle {
	return s.texture
}

func (s *shadowBase) DepthView() renderer.TextureViewHandle {
	return s.view
}

func (s *shadowBase) Stats() ShadowStats {
	return s.stats
}

func (s *shadowBase) Cast(params ShadowParams) error {
	params = params.Clamped()
	resized := s.texture != 0 && params.DepthTextureSize != s.params.DepthTextureSize
	s.params = params
	s.active = true
	if resized {
		s.releaseTexture()
	}
	if s.renderer != nil {
		if err := s.allocate(); err != nil {
			return err
		}
		s.schedule()
	}
	s.write()
	return nil
}

func (s *shadowBase) Deactivate() {
	if !s.active {
		return
	}
	s.unschedule()
	for _, p := range s.casters {
		p.destroy()
	}
	s.casters = nil
	s.releaseTexture()
	s.active = false
	s.write()
}

func (s *shadowBase) RenderOnce() error {
	if !s.active {
		return ErrShadowInactive
	}
	if s.renderer == nil {
		return ErrNoRenderer
	}
	sched := s.renderer.Scheduler()
	sched.Remove(s.task)
	s.task = renderer.TaskID{}
	if sched.Has(s.once) {
		return nil
	}
	s.once = sched.Once(func(enc renderer.CommandEncoder) error {
		s.once = renderer.TaskID{}
		return s.Render(enc)
	})
	return nil
}

func (s *shadowBase) AddShadowCastingMesh(d renderer.Drawable) error {
	if !s.active {
		return ErrShadowInactive
	}
	if d == nil || s.proxyIndex(d) >= 0 {
		return nil
	}
	s.casters = append(s.casters, newDepthProxy(s, d))
	return nil
}

func (s *shadowBase) RemoveShadowCastingMesh(d renderer.Drawable) bool {
	i := s.proxyIndex(d)
	if i < 0 {
		return false
	}
	s.casters[i].destroy()
	s.casters = slices.Delete(s.casters, i, i+1)
	return true
}

func (s *shadowBase) CastingMeshes() []renderer.Drawable {
	out := make([]renderer.Drawable, len(s.casters))
	for i, p := range s.casters {
		out[i] = p.drawable
	}
	return out
}

func (s *shadowBase) proxyIndex(d renderer.Drawable) int {
	return slices.IndexFunc(s.casters, func(p *depthProxy) bool { return p.drawable == d })
}

func (s *shadowBase) AddShadowReceivingMesh(r renderer.ShadowReceiver) {
	if r == nil || slices.Contains(s.receivers, r) {
		return
	}
	s.receivers = append(s.receivers, r)
	if s.view != 0 {
		r.SetShadowMap(s.shadowMap())
	}
}

func (s *shadowBase) RemoveShadowReceivingMesh(r renderer.ShadowReceiver) bool {
	i := slices.Index(s.receivers, r)
	if i < 0 {
		return false
	}
	s.receivers = slices.Delete(s.receivers, i, i+1)
	r.ClearShadowMap(s.light.kind, s.light.index)
	return true
}

func (s *shadowBase) shadowMap() renderer.ShadowMap {
	m := renderer.ShadowMap{LightType: s.light.kind, Index: s.light.index, View: s.view}
	if s.renderer != nil {
		m.Sampler = s.renderer.ShadowSampler()
	}
	return m
}

// write pushes the shadow slot. It is a no-op until the light is attached.
func (s *shadowBase) write() {
	l := s.light
	if l.renderer == nil || l.index < 0 {
		return
	}
	header := GPUShadowHeader{
		IsActive:   s.active,
		PCFSamples: s.params.PCFSamples,
		Bias:       s.params.Bias,
		NormalBias: s.params.NormalBias,
		Intensity:  s.params.Intensity,
	}
	l.renderer.Registry().WriteShadow(l.kind, l.index, s.variant.encode(header))
}

// bind moves the shadow's GPU state to r. Resources created on a previous renderer are
// released first; casters keep their drawables and rebuild their proxies lazily.
func (s *shadowBase) bind(r renderer.Renderer) error {
	if s.renderer != nil && s.renderer != r {
		s.unschedule()
		s.releaseGPU()
	}
	s.renderer = r
	if s.active {
		if err := s.allocate(); err != nil {
			return err
		}
		s.schedule()
	}
	s.write()
	return nil
}

// release tears the shadow down for good when its light is destroyed.
func (s *shadowBase) release() {
	s.Deactivate()
	s.receivers = nil
	s.releaseGPU()
	s.renderer = nil
	s.variant.destroy()
}

func (s *shadowBase) schedule() {
	sched := s.renderer.Scheduler()
	if sched.Has(s.task) {
		return
	}
	s.task = sched.OnBeforeRender(s.Render)
}

// unschedule removes every scheduled callback synchronously.
func (s *shadowBase) unschedule() {
	if s.renderer == nil {
		return
	}
	sched := s.renderer.Scheduler()
	sched.Remove(s.task)
	sched.Remove(s.once)
	s.task, s.once = renderer.TaskID{}, renderer.TaskID{}
}

// allocate creates the depth texture and its views if they do not exist yet.
func (s *shadowBase) allocate() error {
	if s.texture != 0 {
		return nil
	}
	backend := s.renderer.Backend()
	faces := s.variant.faces()
	label := fmt.Sprintf("%s Shadow %d", s.light.kind, s.light.index)

	tex, err := backend.CreateTexture(renderer.TextureDescriptor{
		Label:       label,
		Width:       s.params.DepthTextureSize,
		Height:      s.params.DepthTextureSize,
		Layers:      uint32(faces),
		Format:      ShadowDepthFormat,
		SampleCount: 1,
		Usage:       renderer.TextureUsageRenderAttachment | renderer.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("create %s depth texture: %w", label, err)
	}

	dimension := renderer.TextureViewDimension2D
	if faces == 6 {
		dimension = renderer.TextureViewDimensionCube
	}
	view, err := backend.CreateTextureView(tex, renderer.TextureViewDescriptor{Label: label, Dimension: dimension})
	if err != nil {
		backend.DestroyTexture(tex)
		return fmt.Errorf("create %s depth view: %w", label, err)
	}
	faceViews := make([]renderer.TextureViewHandle, faces)
	for f := range faces {
		faceViews[f], err = backend.CreateTextureView(tex, renderer.TextureViewDescriptor{
			Label:           fmt.Sprintf("%s Face %d", label, f),
			Dimension:       renderer.TextureViewDimension2D,
			BaseArrayLayer:  uint32(f),
			ArrayLayerCount: 1,
		})
		if err != nil {
			backend.DestroyTexture(tex)
			return fmt.Errorf("create %s face view %d: %w", label, f, err)
		}
	}

	s.texture, s.view, s.faceViews = tex, view, faceViews
	s.stats.Allocations++
	m := s.shadowMap()
	for _, r := range s.receivers {
		r.SetShadowMap(m)
	}
	return nil
}

func (s *shadowBase) releaseTexture() {
	if s.texture == 0 {
		return
	}
	if s.renderer != nil {
		s.renderer.Backend().DestroyTexture(s.texture)
	}
	s.texture, s.view, s.faceViews = 0, 0, nil
	for _, r := range s.receivers {
		r.ClearShadowMap(s.light.kind, s.light.index)
	}
}

// releaseGPU frees everything created on the current renderer's backend.
func (s *shadowBase) releaseGPU() {
	for _, p := range s.casters {
		p.releaseGPU()
	}
	s.releaseTexture()
	if s.renderer != nil && s.instanceLayout != 0 {
		s.renderer.Backend().ReleaseBindGroupLayout(s.instanceLayout)
	}
	s.depthModule, s.instanceLayout, s.layoutVersion = 0, 0, 0
	s.generation++
}

// ensureDepthState compiles the depth shader against the registry's current layout. It is
// rebuilt whenever the registry's layout version changes, which also invalidates every proxy.
func (s *shadowBase) ensureDepthState() error {
	registry := s.renderer.Registry()
	if s.depthModule != 0 && s.layoutVersion == registry.LayoutVersion() {
		return nil
	}
	backend := s.renderer.Backend()

	module, err := shader.NewDepthModule(registry.Bindings(), s.light.kind, s.light.index, 0)
	if err != nil {
		return err
	}
	handle, err := module.Create(backend)
	if err != nil {
		return fmt.Errorf("create %s depth module: %w", module.Key(), err)
	}
	entries := module.LayoutEntries(1, renderer.ShaderStageVertex)
	for i := range entries {
		entries[i].HasDynamicOffset = true
	}
	layout, err := backend.CreateBindGroupLayout(renderer.BindGroupLayoutDescriptor{
		Label:   module.Key() + " Instance Layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create %s instance layout: %w", module.Key(), err)
	}

	if s.instanceLayout != 0 {
		backend.ReleaseBindGroupLayout(s.instanceLayout)
	}
	s.depthModule, s.instanceLayout = handle, layout
	s.layoutVersion = registry.LayoutVersion()
	s.generation++
	s.light.logger.Debugf("compiled %s for registry layout %d", module.Key(), s.layoutVersion)
	return nil
}

func (s *shadowBase) Render(enc renderer.CommandEncoder) error {
	if !s.active || s.renderer == nil {
		return nil
	}
	if err := s.allocate(); err != nil {
		return err
	}

	var visible []*depthProxy
	for _, p := range s.casters {
		if p.drawable.Visible() {
			visible = append(visible, p)
		}
	}
	if len(visible) == 0 {
		s.stats.Clears++
		return s.clear(enc)
	}

	if err := s.ensureDepthState(); err != nil {
		return err
	}
	faces := s.variant.faces()
	var writes []renderer.BufferWrite
	for _, p := range visible {
		if err := p.prepare(); err != nil {
			return err
		}
		writes = append(writes, p.instanceWrites(faces)...)
	}
	if err := renderer.WriteBuffers(s.renderer.Backend(), writes); err != nil {
		return err
	}

	lights := s.renderer.Registry().BindGroup()
	for f := range faces {
		pass, err := enc.BeginRenderPass(renderer.RenderPassDescriptor{
			Label:      fmt.Sprintf("%s Shadow %d Face %d", s.light.kind, s.light.index, f),
			DepthView:  s.faceViews[f],
			DepthClear: 1,
		})
		if err != nil {
			return err
		}
		for _, p := range visible {
			p.draw(pass, lights, f)
		}
		if err := pass.End(); err != nil {
			return err
		}
		s.stats.Passes++
	}
	s.stats.Renders++
	return nil
}

// clear records one empty depth pass per face, resetting every texel to the far plane.
func (s *shadowBase) clear(enc renderer.CommandEncoder) error {
	for f, view := range s.faceViews {
		pass, err := enc.BeginRenderPass(renderer.RenderPassDescriptor{
			Label:      fmt.Sprintf("%s Shadow %d Clear %d", s.light.kind, s.light.index, f),
			DepthView:  view,
			DepthClear: 1,
		})
		if err != nil {
			return err
		}
		if err := pass.End(); err != nil {
			return err
		}
	}
	return nil
}
