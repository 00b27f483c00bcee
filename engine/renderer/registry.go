package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

var (
	// ErrNotAttached is returned when a light has no slot index yet.
	ErrNotAttached = errors.New("renderer: light has no slot index")

	// ErrSlotTaken is returned when two lights of a type claim the same slot.
	ErrSlotTaken = errors.New("renderer: light slot already taken")
)

// LightSlot is the registry's view of a light: its type, its slot index and a way to re-push
// every value it owns (light and shadow) into the registry after a reallocation.
type LightSlot interface {
	LightType() LightType
	Index() int
	Reset()
}

// RegistryStats reports the registry's rebuild and upload activity.
type RegistryStats struct {
	// Overflows counts capacity overflow rebuilds.
	Overflows int
	// LayoutRebuilds counts bind group layout rebuilds (the first build included).
	LayoutRebuilds int
	// GroupRebuilds counts bind group rebuilds (the first build included).
	GroupRebuilds int
	// Flushes counts Flush calls that uploaded at least one region.
	Flushes int
	// BytesFlushed counts bytes uploaded by Flush.
	BytesFlushed int
}

// LightsBindingRegistry owns the camera uniform, one storage buffer per light type, one per shadow
// type, and the combined bind group exposing all of them. It is the only component allowed to
// reallocate those buffers. Lights, shadows and cameras only write into their own slot.
type LightsBindingRegistry interface {
	// Capacity returns the current max slot count of a light type.
	//
	// Parameters:
	//   - t: the light type
	//
	// Returns:
	//   - int: the capacity
	Capacity(t LightType) int

	// Count returns the number of registered lights of a type.
	//
	// Parameters:
	//   - t: the light type
	//
	// Returns:
	//   - int: the live count
	Count(t LightType) int

	// NextIndex returns the slot a newly attached light of type t would receive:
	// the first free slot, or the current capacity when every slot is taken.
	//
	// Parameters:
	//   - t: the light type
	//
	// Returns:
	//   - int: the slot index
	NextIndex(t LightType) int

	// EnsureCapacity runs the overflow protocol when index does not fit the current capacity:
	// bump the capacity, reallocate the light and shadow buffers, replace or append the bind group
	// entries, reset every existing light of the type and mark the bind group dirty.
	//
	// Parameters:
	//   - t: the light type
	//   - index: the slot that must fit
	//
	// Returns:
	//   - bool: true if a rebuild happened
	//   - error: error if a buffer could not be allocated (capacity is left unchanged)
	EnsureCapacity(t LightType, index int) (bool, error)

	// AddLight registers a light in its slot, growing the capacity first if needed.
	//
	// Parameters:
	//   - l: the light
	//
	// Returns:
	//   - error: ErrNotAttached, ErrSlotTaken or an allocation error
	AddLight(l LightSlot) error

	// RemoveLight unregisters a light and zeroes its light and shadow slots.
	//
	// Parameters:
	//   - l: the light
	RemoveLight(l LightSlot)

	// Lights returns the registered lights of a type in slot order.
	//
	// Parameters:
	//   - t: the light type
	//
	// Returns:
	//   - []LightSlot: the lights
	Lights(t LightType) []LightSlot

	// WriteLight stores the light struct of slot index. Out-of-range writes are dropped.
	//
	// Parameters:
	//   - t: the light type
	//   - index: the slot
	//   - data: the marshalled struct
	WriteLight(t LightType, index int, data []byte)

	// WriteShadow stores the shadow struct of slot index. Out-of-range writes are dropped.
	//
	// Parameters:
	//   - t: the light type owning the shadow
	//   - index: the slot
	//   - data: the marshalled struct
	WriteShadow(t LightType, index int, data []byte)

	// WriteCamera stores the camera uniform.
	//
	// Parameters:
	//   - data: the marshalled camera uniform
	WriteCamera(data []byte)

	// LightSlotData returns the CPU mirror of one light slot (nil when out of range).
	LightSlotData(t LightType, index int) []byte

	// ShadowSlotData returns the CPU mirror of one shadow slot (nil when out of range).
	ShadowSlotData(t LightType, index int) []byte

	// CameraData returns the CPU mirror of the camera uniform.
	CameraData() []byte

	// Flush rebuilds the combined bind group if it is dirty, releases buffers retired by an
	// overflow, and uploads only the dirty slots.
	//
	// Returns:
	//   - error: the first backend error
	Flush() error

	// BindGroup returns the combined bind group (valid after the first Flush).
	BindGroup() BindGroupHandle

	// BindGroupLayout returns the combined bind group layout (valid after the first Flush).
	BindGroupLayout() BindGroupLayoutHandle

	// LayoutVersion increments whenever the combined layout is rebuilt; pipelines built against
	// an older version must be recreated.
	LayoutVersion() uint64

	// Bindings returns the combined bind group entries in binding order.
	Bindings() []BindingEntry

	// Stats returns rebuild and upload counters.
	Stats() RegistryStats

	// Release frees every buffer and the bind group.
	Release()
}

// lightPool is the per-type bookkeeping: slot owners plus the light and shadow buffer mirrors.
type lightPool struct {
	lightType LightType
	max       int
	count     int
	slots     []LightSlot
	lights    *slotBuffer
	shadows   *slotBuffer
}

// registry implements LightsBindingRegistry.
type registry struct {
	backend Backend
	logger  common.Logger
	label   string

	capacities map[LightType]int

	camera *slotBuffer
	pools  [len(LightTypes)]*lightPool

	provider BindGroupProvider
	retired  []BufferHandle

	stats RegistryStats
}

var _ LightsBindingRegistry = &registry{}

// NewLightsBindingRegistry allocates the camera buffer and one light/shadow buffer pair for every
// light type with a non-zero initial capacity. Types with capacity 0 get no binding until their
// first light arrives.
//
// Parameters:
//   - backend: the GPU backend
//   - options: functional options (capacities, logger, label)
//
// Returns:
//   - LightsBindingRegistry: the registry
//   - error: error if a buffer could not be allocated
func NewLightsBindingRegistry(backend Backend, options ...RegistryBuilderOption) (LightsBindingRegistry, error) {
	r := &registry{
		backend: backend,
		logger:  common.NopLogger(),
		label:   "Lights",
		capacities: map[LightType]int{
			LightTypeAmbient:     DefaultAmbientLights,
			LightTypeDirectional: DefaultDirectionalLights,
			LightTypePoint:       DefaultPointLights,
			LightTypeSpot:        DefaultSpotLights,
		},
	}
	for _, opt := range options {
		opt(r)
	}
	r.provider = NewBindGroupProvider(r.label)

	r.camera = newSlotBuffer(CameraBindingName, BindingTypeUniformBuffer, CameraUniformSize, 1)
	if err := r.allocate(r.camera, BufferUsageUniform|BufferUsageCopyDst); err != nil {
		return nil, err
	}
	r.provider.SetBuffer(r.camera.name, r.camera.kind, ShaderStageVertex|ShaderStageFragment, r.camera.handle)

	for _, t := range LightTypes {
		pool := &lightPool{lightType: t}
		r.pools[t] = pool
		if c := r.capacities[t]; c > 0 {
			if err := r.grow(pool, c); err != nil {
				r.Release()
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *registry) allocate(b *slotBuffer, usage BufferUsage) error {
	h, err := r.backend.CreateBuffer(BufferDescriptor{
		Label: r.label + " " + b.name,
		Size:  b.size(),
		Usage: usage,
	})
	if err != nil {
		return fmt.Errorf("allocate %s buffer: %w", b.name, err)
	}
	b.handle = h
	return nil
}

// grow reallocates the light and shadow buffers of pool at capacity n and swaps them into the
// bind group. Old buffers are retired and destroyed at the next Flush, after the bind group no
// longer references them. On failure the pool is left untouched.
func (r *registry) grow(pool *lightPool, n int) error {
	t := pool.lightType
	lights := newSlotBuffer(LightBindingName(t), BindingTypeReadOnlyStorageBuffer, LightStride(t), n)
	if err := r.allocate(lights, BufferUsageStorage|BufferUsageCopyDst); err != nil {
		return err
	}
	var shadows *slotBuffer
	if t.HasShadow() {
		shadows = newSlotBuffer(ShadowBindingName(t), BindingTypeReadOnlyStorageBuffer, ShadowStride(t), n)
		if err := r.allocate(shadows, BufferUsageStorage|BufferUsageCopyDst); err != nil {
			r.backend.DestroyBuffer(lights.handle)
			return err
		}
	}

	if pool.lights != nil {
		r.retired = append(r.retired, pool.lights.handle)
	}
	if pool.shadows != nil {
		r.retired = append(r.retired, pool.shadows.handle)
	}

	slots := make([]LightSlot, n)
	copy(slots, pool.slots)
	pool.slots = slots
	pool.max = n
	pool.lights = lights
	pool.shadows = shadows
	lights.markAllDirty()

	visibility := ShaderStageVertex | ShaderStageFragment
	appended := r.provider.SetBuffer(lights.name, lights.kind, visibility, lights.handle)
	if shadows != nil {
		shadows.markAllDirty()
		if r.provider.SetBuffer(shadows.name, shadows.kind, visibility, shadows.handle) {
			appended = true
		}
	}
	if appended {
		r.logger.Debugf("%s bindings appended, layout will be rebuilt", t)
	}
	return nil
}

func (r *registry) pool(t LightType) *lightPool {
	if t < 0 || int(t) >= len(r.pools) {
		return nil
	}
	return r.pools[t]
}

func (r *registry) Capacity(t LightType) int {
	if p := r.pool(t); p != nil {
		return p.max
	}
	return 0
}

func (r *registry) Count(t LightType) int {
	if p := r.pool(t); p != nil {
		return p.count
	}
	return 0
}

func (r *registry) NextIndex(t LightType) int {
	p := r.pool(t)
	if p == nil {
		return 0
	}
	for i, s := range p.slots {
		if s == nil {
			return i
		}
	}
	return p.max
}

func (r *registry) EnsureCapacity(t LightType, index int) (bool, error) {
	p := r.pool(t)
	if p == nil {
		return false, fmt.Errorf("unknown light type %d", t)
	}
	if index+1 <= p.max {
		return false, nil
	}

	previous := p.max
	if err := r.grow(p, index+1); err != nil {
		return false, err
	}
	r.stats.Overflows++
	if diagnosticsEnabled {
		r.logger.Warnf("%s light capacity exceeded (%d), buffers grown to %d; allocate a larger initial capacity to avoid the rebuild",
			t, previous, p.max)
	}

	for _, l := range p.slots {
		if l != nil {
			l.Reset()
		}
	}
	r.provider.MarkDirty()
	return true, nil
}

func (r *registry) AddLight(l LightSlot) error {
	t, index := l.LightType(), l.Index()
	if index < 0 {
		return ErrNotAttached
	}
	p := r.pool(t)
	if p == nil {
		return fmt.Errorf("unknown light type %d", t)
	}
	if _, err := r.EnsureCapacity(t, index); err != nil {
		return err
	}
	switch p.slots[index] {
	case l:
		return nil
	case nil:
		p.slots[index] = l
		p.count++
		return nil
	default:
		return fmt.Errorf("%s slot %d: %w", t, index, ErrSlotTaken)
	}
}

func (r *registry) RemoveLight(l LightSlot) {
	t, index := l.LightType(), l.Index()
	p := r.pool(t)
	if p == nil || index < 0 || index >= p.max || p.slots[index] != l {
		return
	}
	p.slots[index] = nil
	p.count--
	p.lights.zero(index)
	if p.shadows != nil {
		p.shadows.zero(index)
	}
}

func (r *registry) Lights(t LightType) []LightSlot {
	p := r.pool(t)
	if p == nil {
		return nil
	}
	out := make([]LightSlot, 0, p.count)
	for _, s := range p.slots {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (r *registry) WriteLight(t LightType, index int, data []byte) {
	p := r.pool(t)
	if p == nil || p.lights == nil || !p.lights.write(index, data) {
		r.logger.Debugf("dropped %s light write to slot %d", t, index)
	}
}

func (r *registry) WriteShadow(t LightType, index int, data []byte) {
	p := r.pool(t)
	if p == nil || p.shadows == nil || !p.shadows.write(index, data) {
		r.logger.Debugf("dropped %s shadow write to slot %d", t, index)
	}
}

func (r *registry) WriteCamera(data []byte) {
	r.camera.write(0, data)
}

func (r *registry) LightSlotData(t LightType, index int) []byte {
	p := r.pool(t)
	if p == nil || p.lights == nil {
		return nil
	}
	return p.lights.slot(index)
}

func (r *registry) ShadowSlotData(t LightType, index int) []byte {
	p := r.pool(t)
	if p == nil || p.shadows == nil {
		return nil
	}
	return p.shadows.slot(index)
}

func (r *registry) CameraData() []byte {
	return r.camera.slot(0)
}

func (r *registry) Flush() error {
	if err := r.provider.Rebuild(r.backend); err != nil {
		return err
	}
	r.stats.LayoutRebuilds, r.stats.GroupRebuilds = r.provider.Rebuilds()

	for _, h := range r.retired {
		r.backend.DestroyBuffer(h)
	}
	r.retired = r.retired[:0]

	writes := r.camera.pendingWrites()
	for _, p := range r.pools {
		if p.lights != nil {
			writes = append(writes, p.lights.pendingWrites()...)
		}
		if p.shadows != nil {
			writes = append(writes, p.shadows.pendingWrites()...)
		}
	}
	if len(writes) == 0 {
		return nil
	}
	if err := WriteBuffers(r.backend, writes); err != nil {
		return fmt.Errorf("flush %s: %w", r.label, err)
	}
	r.stats.Flushes++
	for _, w := range writes {
		r.stats.BytesFlushed += len(w.Data)
	}
	return nil
}

func (r *registry) BindGroup() BindGroupHandle {
	return r.provider.BindGroup()
}

func (r *registry) BindGroupLayout() BindGroupLayoutHandle {
	return r.provider.BindGroupLayout()
}

func (r *registry) LayoutVersion() uint64 {
	return r.provider.LayoutVersion()
}

func (r *registry) Bindings() []BindingEntry {
	return r.provider.Entries()
}

func (r *registry) Stats() RegistryStats {
	return r.stats
}

func (r *registry) Release() {
	r.provider.Release(r.backend)
	for _, h := range r.retired {
		r.backend.DestroyBuffer(h)
	}
	r.retired = nil
	if r.camera != nil && r.camera.handle != 0 {
		r.backend.DestroyBuffer(r.camera.handle)
		r.camera.handle = 0
	}
	for _, p := range r.pools {
		if p == nil {
			continue
		}
		if p.lights != nil {
			r.backend.DestroyBuffer(p.lights.handle)
		}
		if p.shadows != nil {
			r.backend.DestroyBuffer(p.shadows.handle)
		}
	}
}
