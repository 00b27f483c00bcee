package renderer

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry describes the vertex and index buffers of a drawable.
// A zero IndexBuffer means a non-indexed draw of VertexCount vertices.
type Geometry struct {
	VertexBuffer  BufferHandle
	VertexCount   uint32
	VertexLayout  VertexBufferLayout
	IndexBuffer   BufferHandle
	IndexCount    uint32
	IndexFormat   IndexFormat
	InstanceCount uint32
}

// Instances returns InstanceCount, or 1 when unset.
func (g Geometry) Instances() uint32 {
	return max(g.InstanceCount, 1)
}

// ExtraBindGroup is a bind group a drawable needs besides the lights group (instancing, skinning).
// Depth proxies bind the same groups at the same indices, shifted after the lights group.
type ExtraBindGroup struct {
	Layout BindGroupLayoutHandle
	Group  BindGroupHandle
}

// Drawable is anything the main pass draws and a shadow can cast from.
type Drawable interface {
	// Node returns the drawable's transform node.
	Node() transform.NodeID

	// Geometry returns the buffers used by both the main pass and depth proxies.
	Geometry() Geometry

	// WorldMatrix returns the node's world matrix after the last matrix update.
	WorldMatrix() mgl32.Mat4

	// Visible reports whether the drawable should be drawn this frame.
	Visible() bool

	// ExtraBindGroups returns the drawable's bind groups other than the lights group.
	ExtraBindGroups() []ExtraBindGroup

	// Draw records the drawable into the main pass. lights is the registry's combined group
	// which the drawable binds at index 0.
	//
	// Parameters:
	//   - pass: the main render pass
	//   - lights: the registry bind group
	//
	// Returns:
	//   - error: error if the drawable could not record its draw
	Draw(pass RenderPass, lights BindGroupHandle) error
}

// ShadowMap describes a shadow's depth texture for receivers.
type ShadowMap struct {
	LightType LightType
	Index     int
	View      TextureViewHandle
	Sampler   SamplerHandle
}

// ShadowReceiver is implemented by drawables that sample shadow maps. Shadows notify receivers
// when their depth texture is created or destroyed.
type ShadowReceiver interface {
	SetShadowMap(m ShadowMap)
	ClearShadowMap(t LightType, index int)
}

// DrawGeometry binds the geometry buffers and issues the indexed or non-indexed draw.
//
// Parameters:
//   - pass: the render pass
//   - g: the geometry
func DrawGeometry(pass RenderPass, g Geometry) {
	pass.SetVertexBuffer(0, g.VertexBuffer)
	if g.IndexBuffer != 0 {
		pass.SetIndexBuffer(g.IndexBuffer, g.IndexFormat)
		pass.DrawIndexed(g.IndexCount, g.Instances(), 0, 0, 0)
		return
	}
	pass.Draw(g.VertexCount, g.Instances(), 0, 0)
}
