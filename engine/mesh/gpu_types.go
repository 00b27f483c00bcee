package mesh

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is the size of one Vertex in the vertex buffer.
const VertexStride = 24

// MeshUniformSize is the size of the WGSL MeshUniform struct.
const MeshUniformSize = 144

// Vertex is one vertex of a primitive: position at location 0 and normal at location 1.
// Depth proxies only read location 0.
type Vertex struct {
	Position mgl32.Vec3 // offset  0
	Normal   mgl32.Vec3 // offset 12
}

// VertexLayout is the buffer layout of Vertex.
var VertexLayout = renderer.VertexBufferLayout{
	ArrayStride: VertexStride,
	Attributes: []renderer.VertexAttribute{
		{Format: renderer.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: renderer.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
	},
}

// MarshalVertices packs vertices for upload.
//
// Parameters:
//   - vertices: the vertices
//
// Returns:
//   - []byte: len(vertices) * VertexStride bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	off := 0
	for _, v := range vertices {
		off = common.PutVec3(buf, off, v.Position)
		off = common.PutVec3(buf, off, v.Normal)
	}
	return buf
}

// MarshalIndices packs 16-bit indices, padded to a multiple of 4 bytes as buffer writes require.
func MarshalIndices(indices []uint16) []byte {
	n := len(indices) * 2
	buf := make([]byte, (n+3)&^3)
	for i, idx := range indices {
		buf[2*i] = byte(idx)
		buf[2*i+1] = byte(idx >> 8)
	}
	return buf
}

// GPUMeshUniform is the GPU-aligned representation of the per-mesh uniform.
// Matches the WGSL MeshUniform struct of LitShader.
// Size: 144 bytes.
type GPUMeshUniform struct {
	ModelMatrix  mgl32.Mat4 // offset   0
	NormalMatrix mgl32.Mat4 // offset  64: inverse transpose of the model matrix's upper 3x3
	Color        mgl32.Vec4 // offset 128: linear RGBA
}

// Size returns the size of the GPUMeshUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUMeshUniform) Size() int {
	return MeshUniformSize
}

// Marshal serializes the GPUMeshUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 144-byte buffer ready for GPU upload
func (g *GPUMeshUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutMat4(buf, 0, g.ModelMatrix)
	off = common.PutMat4(buf, off, g.NormalMatrix)
	off = common.PutVec3(buf, off, g.Color.Vec3())
	common.PutFloat32(buf, off, g.Color.W())
	return buf
}

// normalMatrix returns the inverse transpose of model's rotation and scale. A singular model
// matrix falls back to its own upper 3x3.
func normalMatrix(model mgl32.Mat4) mgl32.Mat4 {
	m3 := model.Mat3()
	if m3.Det() == 0 {
		return m3.Mat4()
	}
	return m3.Inv().Transpose().Mat4()
}
