package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the tolerance used when comparing derived vectors against zero.
const Epsilon float32 = 1e-6

// Perspective builds a right-handed perspective projection matrix with a [0, 1] depth range (WebGPU clip space).
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport width divided by height
//   - near: distance to the near clipping plane
//   - far: distance to the far clipping plane
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1 / math32.Tan(fovY/2)
	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1
	out[14] = near * far / (near - far)
	return out
}

// Orthographic builds a right-handed orthographic projection matrix with a [0, 1] depth range.
//
// Parameters:
//   - left, right, bottom, top: the box extents on the view-space X and Y axes
//   - near, far: distances to the near and far clipping planes
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Orthographic(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	var out mgl32.Mat4
	out[0] = 2 / (right - left)
	out[5] = 2 / (top - bottom)
	out[10] = 1 / (near - far)
	out[12] = -(right + left) / (right - left)
	out[13] = -(top + bottom) / (top - bottom)
	out[14] = near / (near - far)
	out[15] = 1
	return out
}

// ComposeModelMatrix builds a local-to-parent matrix as translate(pivot) * T * R * S * translate(-pivot).
//
// Parameters:
//   - position: local translation
//   - rotation: local orientation
//   - scale: local scale
//   - pivot: point the rotation and scale are applied around
//
// Returns:
//   - mgl32.Mat4: the composed model matrix
func ComposeModelMatrix(position mgl32.Vec3, rotation mgl32.Quat, scale, pivot mgl32.Vec3) mgl32.Mat4 {
	trs := mgl32.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
	if pivot == (mgl32.Vec3{}) {
		return trs
	}
	return mgl32.Translate3D(pivot.X(), pivot.Y(), pivot.Z()).
		Mul4(trs).
		Mul4(mgl32.Translate3D(-pivot.X(), -pivot.Y(), -pivot.Z()))
}

// LookAtRotation returns the orientation whose local -Z axis points from eye toward target.
// When up is parallel to the view direction a substitute up axis is used.
//
// Parameters:
//   - eye: the viewing position
//   - target: the point to look at
//   - up: the preferred up direction
//
// Returns:
//   - mgl32.Quat: the resulting orientation (identity when eye and target coincide)
func LookAtRotation(eye, target, up mgl32.Vec3) mgl32.Quat {
	z := eye.Sub(target)
	if z.Len() < Epsilon {
		return mgl32.QuatIdent()
	}
	z = z.Normalize()
	if up.Len() < Epsilon {
		up = mgl32.Vec3{0, 1, 0}
	}
	x := up.Cross(z)
	if x.Len() < Epsilon {
		// up is parallel to the view direction, nudge it.
		if math32.Abs(z.Z()) > 0.9 {
			up = mgl32.Vec3{0, 1, 0}
		} else {
			up = mgl32.Vec3{0, 0, 1}
		}
		x = up.Cross(z)
		if x.Len() < Epsilon {
			up = mgl32.Vec3{1, 0, 0}
			x = up.Cross(z)
		}
	}
	x = x.Normalize()
	y := z.Cross(x)
	return mgl32.Mat4ToQuat(mgl32.Mat3FromCols(x, y, z).Mat4()).Normalize()
}

// EulerToQuat converts XYZ-ordered Euler angles (radians) to a quaternion (R = Rx * Ry * Rz).
func EulerToQuat(e mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(e.X(), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(e.Y(), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(e.Z(), mgl32.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz).Normalize()
}

// QuatToEuler converts a quaternion back to XYZ-ordered Euler angles (radians).
// Inverse of EulerToQuat away from the gimbal-lock singularity at Y = ±90°.
func QuatToEuler(q mgl32.Quat) mgl32.Vec3 {
	m := q.Normalize().Mat4()
	m13 := Clamp(m.At(0, 2), -1, 1)
	y := math32.Asin(m13)
	var x, z float32
	if math32.Abs(m13) < 0.9999999 {
		x = math32.Atan2(-m.At(1, 2), m.At(2, 2))
		z = math32.Atan2(-m.At(0, 1), m.At(0, 0))
	} else {
		x = math32.Atan2(m.At(2, 1), m.At(1, 1))
	}
	return mgl32.Vec3{x, y, z}
}

// NormalizeOr returns v normalized, or fallback when v has no usable length.
func NormalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < Epsilon {
		return fallback
	}
	return v.Normalize()
}

// TransformPoint applies m to the point p (w = 1) and returns the XYZ result.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}
