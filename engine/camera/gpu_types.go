package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly (see shader.GPUCameraUniformSource).
// Size: 144 bytes.
type GPUCameraUniform struct {
	ViewMatrix       mgl32.Mat4 // offset   0: world-to-view matrix (mat4x4<f32>)
	ProjectionMatrix mgl32.Mat4 // offset  64: view-to-clip matrix (mat4x4<f32>)
	Position         mgl32.Vec3 // offset 128: world-space camera position (vec3<f32>)
	_pad             float32    // offset 140: padding to 144 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUCameraUniform) Size() int {
	return renderer.CameraUniformSize
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutMat4(buf, 0, g.ViewMatrix)
	off = common.PutMat4(buf, off, g.ProjectionMatrix)
	common.PutVec3(buf, off, g.Position)
	return buf
}
