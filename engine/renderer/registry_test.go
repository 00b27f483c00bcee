package renderer

import (
	"bytes"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLight struct {
	lightType LightType
	index     int
	registry  LightsBindingRegistry
	payload   []byte
	resets    int
}

func (l *fakeLight) LightType() LightType { return l.lightType }
func (l *fakeLight) Index() int { return l.index }

func (l *fakeLight) Reset() {
	l.resets++
	l.registry.WriteLight(l.lightType, l.index, l.payload)
}

func newFakeLight(r LightsBindingRegistry, t LightType, fill byte) *fakeLight {
	return &fakeLight{
		lightType: t,
		index:     r.NextIndex(t),
		registry:  r,
		payload:   bytes.Repeat([]byte{fill}, LightStride(t)),
	}
}

func attach(t *testing.T, r LightsBindingRegistry, l *fakeLight) {
	t.Helper()
	require.NoError(t, r.AddLight(l))
	r.WriteLight(l.lightType, l.index, l.payload)
}

func bindingNames(r LightsBindingRegistry) []string {
	var names []string
	for _, b := range r.Bindings() {
		names = append(names, b.Name)
	}
	return names
}

func TestRegistryInitialBindings(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewLightsBindingRegistry(backend, WithLightCapacity(LightTypeSpot, 0))
	require.NoError(t, err)
	require.NoError(t, r.Flush())

	assert.Equal(t, []string{
		"camera",
		"ambientLights",
		"directionalLights", "directionalShadows",
		"pointLights", "pointShadows",
	}, bindingNames(r))
	assert.Equal(t, 2, r.Capacity(LightTypeAmbient))
	assert.Equal(t, 5, r.Capacity(LightTypePoint))
	assert.Equal(t, 0, r.Capacity(LightTypeSpot))
	assert.Equal(t, uint64(1), r.LayoutVersion())
	assert.NotZero(t, r.BindGroup())

	entry := r.Bindings()[0]
	assert.Equal(t, BindingTypeUniformBuffer, entry.Type)
	buf, ok := backend.Buffer(entry.Buffer)
	require.True(t, ok)
	assert.Len(t, buf.Data, CameraUniformSize)

	pointShadows := r.Bindings()[5]
	buf, ok = backend.Buffer(pointShadows.Buffer)
	require.True(t, ok)
	assert.Len(t, buf.Data, 5*PointShadowStride)
}

func TestRegistryOverflowGrowsCapacityOnce(t *testing.T) {
	backend := NewMemoryBackend()
	logger := &recordingLogger{}
	r, err := NewLightsBindingRegistry(backend, WithRegistryLogger(logger))
	require.NoError(t, err)

	var lights []*fakeLight
	for i := range 5 {
		l := newFakeLight(r, LightTypePoint, byte(i+1))
		assert.Equal(t, i, l.index)
		attach(t, r, l)
		lights = append(lights, l)
	}
	require.NoError(t, r.Flush())
	layoutVersion := r.LayoutVersion()
	oldEntry, _ := bindingEntry(r, "pointLights")

	sixth := newFakeLight(r, LightTypePoint, 0xAA)
	assert.Equal(t, 5, sixth.index)
	attach(t, r, sixth)

	assert.Equal(t, 6, r.Capacity(LightTypePoint))
	assert.Equal(t, 6, r.Count(LightTypePoint))
	assert.Equal(t, 1, r.Stats().Overflows)
	for i, l := range lights {
		assert.Equal(t, 1, l.resets, "light %d reset", i)
		assert.Equal(t, l.payload, r.LightSlotData(LightTypePoint, i), "slot %d bytes", i)
	}
	assert.Equal(t, sixth.payload, r.LightSlotData(LightTypePoint, 5))
	if diagnosticsEnabled {
		assert.Len(t, logger.warnings, 1)
	}

	require.NoError(t, r.Flush())
	// same binding count, so only the group is rebuilt
	assert.Equal(t, layoutVersion, r.LayoutVersion())
	assert.Equal(t, 1, r.Stats().LayoutRebuilds)
	assert.Equal(t, 2, r.Stats().GroupRebuilds)

	newEntry, _ := bindingEntry(r, "pointLights")
	assert.NotEqual(t, oldEntry.Buffer, newEntry.Buffer)
	_, alive := backend.Buffer(oldEntry.Buffer)
	assert.False(t, alive, "retired buffer is destroyed at flush")

	buf, ok := backend.Buffer(newEntry.Buffer)
	require.True(t, ok)
	require.Len(t, buf.Data, 6*PointLightStride)
	for i, l := range append(lights, sixth) {
		assert.Equal(t, l.payload, buf.Data[i*PointLightStride:(i+1)*PointLightStride])
	}

	shadows, _ := bindingEntry(r, "pointShadows")
	buf, ok = backend.Buffer(shadows.Buffer)
	require.True(t, ok)
	assert.Len(t, buf.Data, 6*PointShadowStride)
}

func TestRegistryOverflowFromZeroCapacityAppendsBindings(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewLightsBindingRegistry(backend, WithLightCapacity(LightTypeSpot, 0))
	require.NoError(t, err)
	require.NoError(t, r.Flush())
	before := r.LayoutVersion()

	attach(t, r, newFakeLight(r, LightTypeSpot, 7))
	require.NoError(t, r.Flush())

	assert.Equal(t, 1, r.Capacity(LightTypeSpot))
	assert.Equal(t, before+1, r.LayoutVersion())
	assert.Contains(t, bindingNames(r), "spotLights")
	assert.Contains(t, bindingNames(r), "spotShadows")
	assert.Len(t, r.Bindings(), 8)
}

func TestRegistryFlushWritesOnlyDirtySlots(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewLightsBindingRegistry(backend)
	require.NoError(t, err)
	require.NoError(t, r.Flush())

	before := backend.Stats()
	require.NoError(t, r.Flush())
	assert.Equal(t, before.BufferWrites, backend.Stats().BufferWrites, "clean flush uploads nothing")

	r.WriteLight(LightTypePoint, 2, bytes.Repeat([]byte{1}, PointLightStride))
	r.WriteLight(LightTypePoint, 3, bytes.Repeat([]byte{2}, PointLightStride))
	r.WriteLight(LightTypeSpot, 0, []byte{9})
	require.NoError(t, r.Flush())

	after := backend.Stats()
	assert.Equal(t, 2, after.BufferWrites-before.BufferWrites, "contiguous slots coalesce")
	assert.Equal(t, 2*PointLightStride+SpotLightStride, after.BytesWritten-before.BytesWritten)

	entry, _ := bindingEntry(r, "spotLights")
	buf, _ := backend.Buffer(entry.Buffer)
	assert.Equal(t, byte(9), buf.Data[0])
	assert.Equal(t, byte(0), buf.Data[1], "short writes zero the rest of the slot")
}

func TestRegistryRemoveLightZeroesSlot(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewLightsBindingRegistry(backend)
	require.NoError(t, err)

	a := newFakeLight(r, LightTypeDirectional, 3)
	attach(t, r, a)
	r.WriteShadow(LightTypeDirectional, a.index, []byte{1, 0, 0, 0})
	b := newFakeLight(r, LightTypeDirectional, 4)
	attach(t, r, b)

	r.RemoveLight(a)
	assert.Equal(t, 1, r.Count(LightTypeDirectional))
	assert.Equal(t, make([]byte, DirectionalLightStride), r.LightSlotData(LightTypeDirectional, 0))
	assert.Equal(t, make([]byte, DirectionalShadowStride), r.ShadowSlotData(LightTypeDirectional, 0))
	assert.Equal(t, 0, r.NextIndex(LightTypeDirectional), "freed slot is reused first")
	assert.Equal(t, []LightSlot{b}, r.Lights(LightTypeDirectional))
}

func TestRegistryRejectsTakenSlot(t *testing.T) {
	r, err := NewLightsBindingRegistry(NewMemoryBackend())
	require.NoError(t, err)

	a := newFakeLight(r, LightTypeAmbient, 1)
	attach(t, r, a)
	require.NoError(t, r.AddLight(a), "re-adding the same light is a no-op")

	b := &fakeLight{lightType: LightTypeAmbient, index: a.index, registry: r}
	assert.ErrorIs(t, r.AddLight(b), ErrSlotTaken)

	c := &fakeLight{lightType: LightTypeAmbient, index: -1, registry: r}
	assert.ErrorIs(t, r.AddLight(c), ErrNotAttached)
}

func TestRegistryDropsOutOfRangeWrites(t *testing.T) {
	r, err := NewLightsBindingRegistry(NewMemoryBackend())
	require.NoError(t, err)

	r.WriteLight(LightTypeAmbient, 7, []byte{1})
	r.WriteShadow(LightTypeAmbient, 0, []byte{1})
	assert.Nil(t, r.LightSlotData(LightTypeAmbient, 7))
	assert.Nil(t, r.ShadowSlotData(LightTypeAmbient, 0))
}

func TestRegistryCameraUniform(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewLightsBindingRegistry(backend)
	require.NoError(t, err)

	data := make([]byte, CameraUniformSize)
	common.PutFloat32(data, 128, 3)
	r.WriteCamera(data)
	require.NoError(t, r.Flush())

	entry, _ := bindingEntry(r, CameraBindingName)
	buf, _ := backend.Buffer(entry.Buffer)
	assert.Equal(t, float32(3), common.Float32At(buf.Data, 128))
}

func bindingEntry(r LightsBindingRegistry, name string) (BindingEntry, bool) {
	for _, b := range r.Bindings() {
		if b.Name == name {
			return b, true
		}
	}
	return BindingEntry{}, false
}
