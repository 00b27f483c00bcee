package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererRunsScheduledPassesBeforeMainPass(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewRenderer(backend, WithSize(64, 32))
	require.NoError(t, err)

	depth, err := backend.CreateTexture(TextureDescriptor{Label: "shadow", Width: 16, Height: 16, Format: TextureFormatDepth32Float})
	require.NoError(t, err)
	view, err := backend.CreateTextureView(depth, TextureViewDescriptor{})
	require.NoError(t, err)
	r.Scheduler().OnBeforeRender(func(enc CommandEncoder) error {
		pass, err := enc.BeginRenderPass(RenderPassDescriptor{Label: "Shadow", DepthView: view, DepthClear: 1})
		if err != nil {
			return err
		}
		return pass.End()
	})

	visible := &fakeDrawable{visible: true, geom: Geometry{VertexBuffer: 1, VertexCount: 3}}
	hidden := &fakeDrawable{visible: false}
	require.NoError(t, r.Render([]Drawable{visible, hidden}))

	passes := backend.Submitted()
	require.Len(t, passes, 2)
	assert.Equal(t, "Shadow", passes[0].Desc.Label)
	assert.Equal(t, "Main Pass", passes[1].Desc.Label)
	require.Len(t, passes[1].Draws, 1)
	assert.Equal(t, r.Registry().BindGroup(), passes[1].Draws[0].BindGroups[0])
	assert.Equal(t, uint32(3), passes[1].Draws[0].Count)
	assert.Equal(t, uint32(1), passes[1].Draws[0].InstanceCount)
	assert.Equal(t, 0, hidden.draws)
	assert.Equal(t, 1, r.Frames())

	tex, _ := backend.Texture(depth)
	assert.Equal(t, 1, tex.PassesRendered)
}

func TestRendererReportsDrawErrors(t *testing.T) {
	r, err := NewRenderer(NewMemoryBackend())
	require.NoError(t, err)

	bad := errors.New("no pipeline")
	d := &fakeDrawable{visible: true, drawErr: bad}
	assert.ErrorIs(t, r.Render([]Drawable{d}), bad)
	assert.Equal(t, 1, r.Frames(), "a failing drawable does not drop the frame")
}

func TestRendererResize(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewRenderer(backend, WithSize(10, 10))
	require.NoError(t, err)
	live := backend.LiveTextures()

	require.NoError(t, r.Resize(20, 40))
	w, h := r.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 40, h)
	assert.Equal(t, live, backend.LiveTextures(), "old depth texture is destroyed")

	require.NoError(t, r.Resize(0, 0))
	w, _ = r.Size()
	assert.Equal(t, 20, w, "zero size is ignored")
}

func TestRendererIndexedDraw(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewRenderer(backend)
	require.NoError(t, err)

	d := &fakeDrawable{visible: true, geom: Geometry{VertexBuffer: 1, IndexBuffer: 2, IndexCount: 6, InstanceCount: 4}}
	require.NoError(t, r.Render([]Drawable{d}))
	draw := backend.Submitted()[0].Draws[0]
	assert.True(t, draw.Indexed)
	assert.Equal(t, uint32(6), draw.Count)
	assert.Equal(t, uint32(4), draw.InstanceCount)
	assert.Equal(t, BufferHandle(2), draw.IndexBuffer)
}

func TestRendererReleasesEncoderOnFailedFrame(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := NewRenderer(backend, WithSize(16, 16))
	require.NoError(t, err)

	lost := errors.New("surface lost")
	backend.FailAcquire(lost)
	assert.ErrorIs(t, r.Render(nil), lost)
	stats := backend.Stats()
	assert.Equal(t, 1, stats.EncodersCreated)
	assert.Equal(t, 1, stats.EncodersReleased)
	assert.Zero(t, stats.Submits)
	assert.Zero(t, r.Frames())

	backend.FailAcquire(nil)
	backend.DestroyTexture(r.(*renderer).depthTexture)
	assert.ErrorIs(t, r.Render(nil), ErrUnknownHandle, "the main pass has lost its depth view")
	stats = backend.Stats()
	assert.Equal(t, 2, stats.EncodersCreated)
	assert.Equal(t, 2, stats.EncodersReleased)

	require.NoError(t, r.Resize(16, 8))
	require.NoError(t, r.Render(nil))
	stats = backend.Stats()
	assert.Equal(t, 3, stats.EncodersCreated)
	assert.Equal(t, 2, stats.EncodersReleased, "a submitted encoder is not released again")
	assert.Equal(t, 1, stats.Submits)
}
