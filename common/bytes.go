package common

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPU structs are marshalled little-endian with WGSL (std430-like) alignment.
// Callers own offset bookkeeping; every helper returns the offset just past what it wrote.

// PutFloat32 writes v at off.
func PutFloat32(buf []byte, off int, v float32) int {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	return off + 4
}

// PutUint32 writes v at off.
func PutUint32(buf []byte, off int, v uint32) int {
	binary.LittleEndian.PutUint32(buf[off:], v)
	return off + 4
}

// PutVec3 writes the three components of v at off (12 bytes, no padding).
func PutVec3(buf []byte, off int, v mgl32.Vec3) int {
	for i := 0; i < 3; i++ {
		off = PutFloat32(buf, off, v[i])
	}
	return off
}

// PutMat4 writes m column-major at off (64 bytes).
func PutMat4(buf []byte, off int, m mgl32.Mat4) int {
	for i := 0; i < 16; i++ {
		off = PutFloat32(buf, off, m[i])
	}
	return off
}

// Float32At reads a float32 at off.
func Float32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

// Mat4At reads a column-major matrix at off.
func Mat4At(buf []byte, off int) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := 0; i < 16; i++ {
		m[i] = Float32At(buf, off+i*4)
	}
	return m
}
