package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MinNear is the smallest accepted near plane distance.
	MinNear float32 = 1e-4

	// MinDepthSpan is the smallest accepted distance between the near and far planes.
	MinDepthSpan float32 = 1
)

// Projectable is implemented by each camera variant. It owns the variant's lens parameters and
// turns them into a projection matrix and frustum planes.
type Projectable interface {
	// Projection builds the view-to-clip matrix with a [0, 1] depth range.
	//
	// Parameters:
	//   - near: the near plane distance
	//   - far: the far plane distance
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection(near, far float32) mgl32.Mat4

	// Frustum returns the six normalized world-space planes of the camera volume.
	//
	// Parameters:
	//   - view: the current world-to-view matrix
	//   - viewProjection: projection * view
	//   - near: the near plane distance
	//   - far: the far plane distance
	//
	// Returns:
	//   - common.Frustum: planes in left, right, bottom, top, near, far order
	Frustum(view, viewProjection mgl32.Mat4, near, far float32) common.Frustum
}

// Stats counts matrix recomputations and uniform uploads of a camera.
type Stats struct {
	ViewComputations       int
	ProjectionComputations int
	Uploads                int
}

type cameraImpl struct {
	graph *transform.Graph
	node  transform.NodeID
	up    mgl32.Vec3

	near float32
	far  float32

	lens Projectable
	self Camera

	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4
	frustum        common.Frustum

	viewDirty           bool
	projectionDirty     bool
	viewProjectionDirty bool
	frustumDirty        bool

	registry renderer.LightsBindingRegistry
	onChange func(Camera)

	stats Stats
}

// Camera is a transform node that derives view, projection and view-projection matrices.
// The view matrix is the inverse of the node's world matrix and follows UpdateMatrixStack;
// the projection follows the variant's lens parameters. Every matrix is recomputed lazily on
// read, and a projection change never recomputes the view (or the reverse).
type Camera interface {
	// Node returns the camera's transform node.
	//
	// Returns:
	//   - transform.NodeID: the node handle
	Node() transform.NodeID

	// Graph returns the graph the camera's node lives in.
	//
	// Returns:
	//   - *transform.Graph: the owning graph
	Graph() *transform.Graph

	// SetParent attaches the camera's node under parent (NilNode detaches).
	//
	// Parameters:
	//   - parent: the new parent node
	//
	// Returns:
	//   - error: transform.ErrCycle or transform.ErrInvalidNode
	SetParent(parent transform.NodeID) error

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// SetNear sets the near plane, clamped to MinNear. The far plane is pushed out to keep
	// at least MinDepthSpan between the two.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far plane, clamped to near + MinDepthSpan.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// Position returns the camera's local position.
	//
	// Returns:
	//   - mgl32.Vec3: position in parent space
	Position() mgl32.Vec3

	// WorldPosition returns the camera's position after the last matrix update.
	//
	// Returns:
	//   - mgl32.Vec3: world-space position
	WorldPosition() mgl32.Vec3

	// SetPosition sets the camera's local position.
	//
	// Parameters:
	//   - position: position in parent space
	SetPosition(position mgl32.Vec3)

	// SetRotation sets the camera's local orientation from XYZ Euler angles in radians.
	//
	// Parameters:
	//   - euler: rotation in radians
	SetRotation(euler mgl32.Vec3)

	// LookAt orients the camera so that it faces target from its current local position.
	//
	// Parameters:
	//   - target: the point to face, in parent space
	LookAt(target mgl32.Vec3)

	// Up returns the up vector used by LookAt.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// SetUp sets the up vector used by LookAt.
	//
	// Parameters:
	//   - up: the up vector
	SetUp(up mgl32.Vec3)

	// ViewMatrix returns the world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the view-to-clip matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix
	ViewProjectionMatrix() mgl32.Mat4

	// FrustumPlanes returns the normalized world-space frustum planes, consistent with the
	// current matrices.
	//
	// Returns:
	//   - common.Frustum: the six planes
	FrustumPlanes() common.Frustum

	// Uniform returns the camera's GPU uniform.
	//
	// Returns:
	//   - GPUCameraUniform: view, projection and world position
	Uniform() GPUCameraUniform

	// SetRenderer attaches the camera to a registry. The camera uniform is written into the
	// registry immediately and again on every view or projection change. Passing nil detaches.
	//
	// Parameters:
	//   - registry: the lights binding registry
	SetRenderer(registry renderer.LightsBindingRegistry)

	// SetOnChange installs a callback fired after every view or projection change.
	// Shadows use it to push their camera's matrices into their own slot.
	//
	// Parameters:
	//   - fn: the callback, or nil
	SetOnChange(fn func(Camera))

	// Stats returns the recomputation and upload counters.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats

	// Destroy detaches the camera from its registry and frees its node.
	Destroy()
}

// newCamera creates the node and shared state of a camera variant. self is the outer variant
// passed to change callbacks.
func newCamera(graph *transform.Graph, s *cameraSettings, lens Projectable, self Camera) *cameraImpl {
	c := &cameraImpl{
		graph:               graph,
		node:                graph.CreateNode(s.label),
		up:                  s.up,
		lens:                lens,
		self:                self,
		viewDirty:           true,
		projectionDirty:     true,
		viewProjectionDirty: true,
		frustumDirty:        true,
		onChange:            s.onChange,
	}
	c.near, c.far = clampDepth(s.near, s.far)
	graph.SetPosition(c.node, s.position)
	if s.target != nil {
		graph.LookAt(c.node, *s.target, s.position, c.up)
	}
	graph.SetObserver(c.node, c.onMatrixUpdate)
	return c
}

// clampDepth enforces near >= MinNear and far >= near + MinDepthSpan.
func clampDepth(near, far float32) (float32, float32) {
	if near < MinNear {
		near = MinNear
	}
	if far < near+MinDepthSpan {
		far = near + MinDepthSpan
	}
	return near, far
}

func (c *cameraImpl) Node() transform.NodeID {
	return c.node
}

func (c *cameraImpl) Graph() *transform.Graph {
	return c.graph
}

func (c *cameraImpl) SetParent(parent transform.NodeID) error {
	return c.graph.SetParent(c.node, parent)
}

func (c *cameraImpl) Near() float32 {
	return c.near
}

func (c *cameraImpl) Far() float32 {
	return c.far
}

func (c *cameraImpl) SetNear(near float32) {
	n, f := clampDepth(near, c.far)
	if n == c.near && f == c.far {
		return
	}
	c.near, c.far = n, f
	c.markProjectionDirty()
}

func (c *cameraImpl) SetFar(far float32) {
	_, f := clampDepth(c.near, far)
	if f == c.far {
		return
	}
	c.far = f
	c.markProjectionDirty()
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	return c.graph.Position(c.node)
}

func (c *cameraImpl) WorldPosition() mgl32.Vec3 {
	return c.graph.WorldPosition(c.node)
}

func (c *cameraImpl) SetPosition(position mgl32.Vec3) {
	c.graph.SetPosition(c.node, position)
}

func (c *cameraImpl) SetRotation(euler mgl32.Vec3) {
	c.graph.SetRotation(c.node, euler)
}

func (c *cameraImpl) LookAt(target mgl32.Vec3) {
	c.graph.LookAt(c.node, target, c.graph.Position(c.node), c.up)
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	return c.up
}

func (c *cameraImpl) SetUp(up mgl32.Vec3) {
	c.up = up
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	if c.viewDirty {
		c.view = c.graph.WorldMatrix(c.node).Inv()
		c.viewDirty = false
		c.stats.ViewComputations++
	}
	return c.view
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	if c.projectionDirty {
		c.projection = c.lens.Projection(c.near, c.far)
		c.projectionDirty = false
		c.stats.ProjectionComputations++
	}
	return c.projection
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	if c.viewProjectionDirty {
		c.viewProjection = c.ProjectionMatrix().Mul4(c.ViewMatrix())
		c.viewProjectionDirty = false
	}
	return c.viewProjection
}

func (c *cameraImpl) FrustumPlanes() common.Frustum {
	if c.frustumDirty {
		c.frustum = c.lens.Frustum(c.ViewMatrix(), c.ViewProjectionMatrix(), c.near, c.far)
		c.frustumDirty = false
	}
	return c.frustum
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		ViewMatrix:       c.ViewMatrix(),
		ProjectionMatrix: c.ProjectionMatrix(),
		Position:         c.WorldPosition(),
	}
}

func (c *cameraImpl) SetRenderer(registry renderer.LightsBindingRegistry) {
	c.registry = registry
	c.upload()
}

func (c *cameraImpl) SetOnChange(fn func(Camera)) {
	c.onChange = fn
}

func (c *cameraImpl) Stats() Stats {
	return c.stats
}

func (c *cameraImpl) Destroy() {
	c.registry = nil
	c.onChange = nil
	c.graph.SetObserver(c.node, nil)
	c.graph.Destroy(c.node)
}

// onMatrixUpdate is the node observer. Only a world matrix change affects the view.
func (c *cameraImpl) onMatrixUpdate(_ transform.NodeID, update transform.MatrixUpdate) {
	if update&transform.WorldUpdated == 0 {
		return
	}
	c.viewDirty = true
	c.viewProjectionDirty = true
	c.frustumDirty = true
	c.changed()
}

// markProjectionDirty invalidates the projection-derived matrices and notifies listeners.
// The view matrix is left untouched.
func (c *cameraImpl) markProjectionDirty() {
	c.projectionDirty = true
	c.viewProjectionDirty = true
	c.frustumDirty = true
	c.changed()
}

func (c *cameraImpl) changed() {
	c.upload()
	if c.onChange != nil {
		c.onChange(c.self)
	}
}

func (c *cameraImpl) upload() {
	if c.registry == nil {
		return
	}
	u := c.Uniform()
	c.registry.WriteCamera(u.Marshal())
	c.stats.Uploads++
}
