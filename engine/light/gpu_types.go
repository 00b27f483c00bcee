package light

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUAmbientLight is the GPU-aligned representation of an ambient light slot.
// Matches the WGSL AmbientLight struct layout exactly (see shader.GPUAmbientLightSource).
// Size: 16 bytes.
type GPUAmbientLight struct {
	Color     mgl32.Vec3 // offset  0: linear RGB
	Intensity float32    // offset 12: scalar multiplier
}

// Size returns the size of the GPUAmbientLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUAmbientLight) Size() int {
	return renderer.AmbientLightStride
}

// Marshal serializes the GPUAmbientLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUAmbientLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutVec3(buf, 0, g.Color)
	common.PutFloat32(buf, off, g.Intensity)
	return buf
}

// GPUDirectionalLight is the GPU-aligned representation of a directional light slot.
// Matches the WGSL DirectionalLight struct layout exactly (see shader.GPUDirectionalLightSource).
// Size: 32 bytes.
type GPUDirectionalLight struct {
	Color     mgl32.Vec3 // offset  0: linear RGB
	Intensity float32    // offset 12: scalar multiplier
	Direction mgl32.Vec3 // offset 16: normalized direction the light travels
	_pad      float32    // offset 28: padding to 32 bytes
}

// Size returns the size of the GPUDirectionalLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUDirectionalLight) Size() int {
	return renderer.DirectionalLightStride
}

// Marshal serializes the GPUDirectionalLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUDirectionalLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutVec3(buf, 0, g.Color)
	off = common.PutFloat32(buf, off, g.Intensity)
	common.PutVec3(buf, off, g.Direction)
	return buf
}

// GPUPointLight is the GPU-aligned representation of a point light slot.
// Matches the WGSL PointLight struct layout exactly (see shader.GPUPointLightSource).
// Size: 32 bytes.
type GPUPointLight struct {
	Color     mgl32.Vec3 // offset  0: linear RGB
	Intensity float32    // offset 12: scalar multiplier
	Position  mgl32.Vec3 // offset 16: world-space position
	Range     float32    // offset 28: attenuation cutoff, 0 = unbounded
}

// Size returns the size of the GPUPointLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUPointLight) Size() int {
	return renderer.PointLightStride
}

// Marshal serializes the GPUPointLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUPointLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutVec3(buf, 0, g.Color)
	off = common.PutFloat32(buf, off, g.Intensity)
	off = common.PutVec3(buf, off, g.Position)
	common.PutFloat32(buf, off, g.Range)
	return buf
}

// GPUSpotLight is the GPU-aligned representation of a spot light slot.
// Matches the WGSL SpotLight struct layout exactly (see shader.GPUSpotLightSource).
// Size: 64 bytes.
type GPUSpotLight struct {
	Color       mgl32.Vec3 // offset  0: linear RGB
	Intensity   float32    // offset 12: scalar multiplier
	Position    mgl32.Vec3 // offset 16: world-space position
	Range       float32    // offset 28: attenuation cutoff, 0 = unbounded
	Direction   mgl32.Vec3 // offset 32: normalized cone axis
	ConeCos     float32    // offset 44: cos(cone half-angle)
	PenumbraCos float32    // offset 48: cos(half-angle where the falloff starts)
	_pad        [3]float32 // offset 52: padding to 64 bytes
}

// Size returns the size of the GPUSpotLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUSpotLight) Size() int {
	return renderer.SpotLightStride
}

// Marshal serializes the GPUSpotLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPUSpotLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutVec3(buf, 0, g.Color)
	off = common.PutFloat32(buf, off, g.Intensity)
	off = common.PutVec3(buf, off, g.Position)
	off = common.PutFloat32(buf, off, g.Range)
	off = common.PutVec3(buf, off, g.Direction)
	off = common.PutFloat32(buf, off, g.ConeCos)
	common.PutFloat32(buf, off, g.PenumbraCos)
	return buf
}

// GPUShadowHeader is the parameter block shared by every shadow struct.
type GPUShadowHeader struct {
	IsActive   bool    // offset  0: u32, 1 when the shadow map is valid
	PCFSamples uint32  // offset  4: filter taps per axis
	Bias       float32 // offset  8: constant depth bias
	NormalBias float32 // offset 12: normal-offset distance
	Intensity  float32 // offset 16: 0 = no darkening, 1 = full shadow
}

func (h *GPUShadowHeader) put(buf []byte) int {
	var active uint32
	if h.IsActive {
		active = 1
	}
	off := common.PutUint32(buf, 0, active)
	off = common.PutUint32(buf, off, h.PCFSamples)
	off = common.PutFloat32(buf, off, h.Bias)
	off = common.PutFloat32(buf, off, h.NormalBias)
	return common.PutFloat32(buf, off, h.Intensity)
}

// GPUCameraShadow is the GPU-aligned representation of a directional or spot shadow slot.
// Matches the WGSL DirectionalShadow and SpotShadow struct layouts exactly.
// Size: 160 bytes.
type GPUCameraShadow struct {
	GPUShadowHeader // offset 0: 20 bytes (+12 padding)

	ViewMatrix       mgl32.Mat4 // offset 32: light view matrix
	ProjectionMatrix mgl32.Mat4 // offset 96: light projection matrix
}

// Size returns the size of the GPUCameraShadow struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (160)
func (g *GPUCameraShadow) Size() int {
	return renderer.DirectionalShadowStride
}

// Marshal serializes the GPUCameraShadow struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 160-byte buffer ready for GPU upload
func (g *GPUCameraShadow) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.GPUShadowHeader.put(buf)
	off := common.PutMat4(buf, 32, g.ViewMatrix)
	common.PutMat4(buf, off, g.ProjectionMatrix)
	return buf
}

// GPUPointShadow is the GPU-aligned representation of a point shadow slot.
// Matches the WGSL PointShadow struct layout exactly (see shader.GPUPointShadowSource).
// Size: 480 bytes.
type GPUPointShadow struct {
	GPUShadowHeader // offset 0: 20 bytes

	CameraNear       float32       // offset 20: near plane of the cube projection
	CameraFar        float32       // offset 24: far plane of the cube projection
	ProjectionMatrix mgl32.Mat4    // offset 32: shared 90 degree projection
	ViewMatrices     [6]mgl32.Mat4 // offset 96: one view per cube face (+X, -X, +Y, -Y, +Z, -Z)
}

// Size returns the size of the GPUPointShadow struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (480)
func (g *GPUPointShadow) Size() int {
	return renderer.PointShadowStride
}

// Marshal serializes the GPUPointShadow struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 480-byte buffer ready for GPU upload
func (g *GPUPointShadow) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := g.GPUShadowHeader.put(buf)
	off = common.PutFloat32(buf, off, g.CameraNear)
	common.PutFloat32(buf, off, g.CameraFar)
	off = common.PutMat4(buf, 32, g.ProjectionMatrix)
	for _, m := range g.ViewMatrices {
		off = common.PutMat4(buf, off, m)
	}
	return buf
}

// GPUDepthInstance is the per-caster uniform of a depth proxy, one copy per rendered face.
// Matches the WGSL DepthInstance struct layout exactly (see shader.GPUDepthInstanceSource).
// Size: 80 bytes; copies are spaced shader.DepthInstanceAlignment bytes apart.
type GPUDepthInstance struct {
	ModelMatrix mgl32.Mat4 // offset  0: caster world matrix
	Face        uint32     // offset 64: cube face (0 for single-face shadows)
	_pad        [3]uint32  // offset 68: padding to 80 bytes
}

// Size returns the size of the GPUDepthInstance struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUDepthInstance) Size() int {
	return shader.DepthInstanceSize
}

// Marshal serializes the GPUDepthInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (g *GPUDepthInstance) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutMat4(buf, 0, g.ModelMatrix)
	common.PutUint32(buf, off, g.Face)
	return buf
}
