package transform

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Local transform setters mark the node model- and world-dirty. Getters on stale handles
// return zero values.

// SetPosition sets the local translation of id.
func (g *Graph) SetPosition(id NodeID, position mgl32.Vec3) {
	if n := g.get(id); n != nil {
		n.position = position
		n.markModelDirty()
	}
}

// Position returns the local translation of id.
func (g *Graph) Position(id NodeID) mgl32.Vec3 {
	if n := g.get(id); n != nil {
		return n.position
	}
	return mgl32.Vec3{}
}

// SetRotation sets the local orientation of id from XYZ-ordered Euler angles in radians.
// The quaternion representation is kept in sync.
func (g *Graph) SetRotation(id NodeID, euler mgl32.Vec3) {
	if n := g.get(id); n != nil {
		n.euler = euler
		n.quaternion = common.EulerToQuat(euler)
		n.markModelDirty()
	}
}

// Rotation returns the local orientation of id as XYZ Euler angles in radians.
func (g *Graph) Rotation(id NodeID) mgl32.Vec3 {
	if n := g.get(id); n != nil {
		return n.euler
	}
	return mgl32.Vec3{}
}

// SetQuaternion sets the local orientation of id. The Euler representation is kept in sync.
func (g *Graph) SetQuaternion(id NodeID, q mgl32.Quat) {
	if n := g.get(id); n != nil {
		n.quaternion = q.Normalize()
		n.euler = common.QuatToEuler(n.quaternion)
		n.markModelDirty()
	}
}

// Quaternion returns the local orientation of id.
func (g *Graph) Quaternion(id NodeID) mgl32.Quat {
	if n := g.get(id); n != nil {
		return n.quaternion
	}
	return mgl32.QuatIdent()
}

// SetScale sets the local scale of id.
func (g *Graph) SetScale(id NodeID, scale mgl32.Vec3) {
	if n := g.get(id); n != nil {
		n.scale = scale
		n.markModelDirty()
	}
}

// Scale returns the local scale of id.
func (g *Graph) Scale(id NodeID) mgl32.Vec3 {
	if n := g.get(id); n != nil {
		return n.scale
	}
	return mgl32.Vec3{}
}

// SetPivot sets the point rotation and scale are applied around, in local space.
func (g *Graph) SetPivot(id NodeID, pivot mgl32.Vec3) {
	if n := g.get(id); n != nil {
		n.pivot = pivot
		n.markModelDirty()
	}
}

// Pivot returns the local pivot of id.
func (g *Graph) Pivot(id NodeID) mgl32.Vec3 {
	if n := g.get(id); n != nil {
		return n.pivot
	}
	return mgl32.Vec3{}
}

// LookAt orients id so that its local -Z axis points from eye toward target.
//
// Parameters:
//   - id: the node to orient
//   - target: the point to face, in the node's parent space
//   - eye: the viewing position, in the node's parent space (usually its position)
//   - up: the preferred up direction
func (g *Graph) LookAt(id NodeID, target, eye, up mgl32.Vec3) {
	if n := g.get(id); n != nil {
		n.quaternion = common.LookAtRotation(eye, target, up)
		n.euler = common.QuatToEuler(n.quaternion)
		n.markModelDirty()
	}
}

// ModelMatrix returns the local-to-parent matrix computed by the last update.
func (g *Graph) ModelMatrix(id NodeID) mgl32.Mat4 {
	if n := g.get(id); n != nil {
		return n.model
	}
	return mgl32.Ident4()
}

// WorldMatrix returns the local-to-world matrix computed by the last update.
func (g *Graph) WorldMatrix(id NodeID) mgl32.Mat4 {
	if n := g.get(id); n != nil {
		return n.world
	}
	return mgl32.Ident4()
}

// WorldPosition returns the translation column of the world matrix.
func (g *Graph) WorldPosition(id NodeID) mgl32.Vec3 {
	return g.WorldMatrix(id).Col(3).Vec3()
}

func (n *node) markModelDirty() {
	n.modelDirty = true
	n.worldDirty = true
}
