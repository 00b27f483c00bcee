package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// orbitController moves a camera on a sphere around a target. Orbit methods change the
// spherical coordinates; pan methods translate both the target and the camera along the
// camera's local axes, preserving the orbit relationship.
type orbitController struct {
	camera Camera

	target mgl32.Vec3

	// spherical coordinates, offset from target
	radius    float32
	azimuth   float32 // around +Y, 0 = +Z
	elevation float32 // from the horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32

	dirty bool
}

// OrbitController drives a Camera around a target point from input deltas.
// Changes are accumulated and applied to the camera's node by Update, once per tick.
type OrbitController interface {
	// Camera returns the driven camera.
	//
	// Returns:
	//   - Camera: the camera
	Camera() Camera

	// Position returns the orbit position the camera is moved to on Update.
	//
	// Returns:
	//   - mgl32.Vec3: position in the camera's parent space
	Position() mgl32.Vec3

	// Target returns the orbit center.
	//
	// Returns:
	//   - mgl32.Vec3: the target point
	Target() mgl32.Vec3

	// SetTarget moves the orbit center, keeping the spherical offset.
	//
	// Parameters:
	//   - target: the new orbit center
	SetTarget(target mgl32.Vec3)

	// Orbit rotates around the target by mouse deltas scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal delta in pixels
	//   - dy: vertical delta in pixels
	Orbit(dx, dy float32)

	// OrbitLeft rotates one keyboard step counter-clockwise around the target.
	OrbitLeft()

	// OrbitRight rotates one keyboard step clockwise around the target.
	OrbitRight()

	// OrbitUp raises the camera one keyboard step, clamped to the maximum elevation.
	OrbitUp()

	// OrbitDown lowers the camera one keyboard step, clamped to the minimum elevation.
	OrbitDown()

	// Zoom moves toward (positive) or away from (negative) the target, clamped to the radius bounds.
	//
	// Parameters:
	//   - delta: scroll delta
	Zoom(delta float32)

	// Pan translates the target and camera along the camera's right, up and forward axes.
	//
	// Parameters:
	//   - right, up, forward: deltas scaled by the pan speed
	Pan(right, up, forward float32)

	// Radius returns the distance from the target.
	//
	// Returns:
	//   - float32: the radius
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius bounds.
	//
	// Parameters:
	//   - radius: the new radius
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle in radians.
	//
	// Returns:
	//   - float32: the azimuth
	Azimuth() float32

	// Elevation returns the vertical angle in radians.
	//
	// Returns:
	//   - float32: the elevation
	Elevation() float32

	// Update applies pending changes to the camera's position and orientation.
	//
	// Returns:
	//   - bool: true when the camera was moved
	Update() bool
}

var _ OrbitController = &orbitController{}

// NewOrbitController creates a controller that drives cam. The camera is moved to the initial
// orbit position on the first Update.
//
// Parameters:
//   - cam: the camera to drive
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the new controller
func NewOrbitController(cam Camera, options ...OrbitControllerOption) OrbitController {
	oc := &orbitController{
		camera: cam,

		radius:    10,
		azimuth:   0,
		elevation: math32.Pi / 6,

		minRadius:    1,
		maxRadius:    500,
		minElevation: -math32.Pi/2 + 0.05,
		maxElevation: math32.Pi/2 - 0.05,

		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        1,
		panSpeed:         1,

		dirty: true,
	}
	for _, option := range options {
		option(oc)
	}
	oc.radius = common.Clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = common.Clamp(oc.elevation, oc.minElevation, oc.maxElevation)
	return oc
}

func (oc *orbitController) Camera() Camera {
	return oc.camera
}

func (oc *orbitController) Position() mgl32.Vec3 {
	cosElev, sinElev := math32.Cos(oc.elevation), math32.Sin(oc.elevation)
	cosAzim, sinAzim := math32.Cos(oc.azimuth), math32.Sin(oc.azimuth)
	return oc.target.Add(mgl32.Vec3{
		oc.radius * cosElev * sinAzim,
		oc.radius * sinElev,
		oc.radius * cosElev * cosAzim,
	})
}

func (oc *orbitController) Target() mgl32.Vec3 {
	return oc.target
}

func (oc *orbitController) SetTarget(target mgl32.Vec3) {
	oc.target = target
	oc.dirty = true
}

func (oc *orbitController) Orbit(dx, dy float32) {
	oc.azimuth -= dx * oc.mouseSensitivity
	oc.setElevation(oc.elevation + dy*oc.mouseSensitivity)
}

func (oc *orbitController) OrbitLeft() {
	oc.azimuth -= oc.orbitSpeed
	oc.dirty = true
}

func (oc *orbitController) OrbitRight() {
	oc.azimuth += oc.orbitSpeed
	oc.dirty = true
}

func (oc *orbitController) OrbitUp() {
	oc.setElevation(oc.elevation + oc.orbitSpeed)
}

func (oc *orbitController) OrbitDown() {
	oc.setElevation(oc.elevation - oc.orbitSpeed)
}

func (oc *orbitController) setElevation(elevation float32) {
	oc.elevation = common.Clamp(elevation, oc.minElevation, oc.maxElevation)
	oc.dirty = true
}

func (oc *orbitController) Zoom(delta float32) {
	oc.SetRadius(oc.radius - delta*oc.zoomSpeed)
}

func (oc *orbitController) Pan(right, up, forward float32) {
	r, u, f, ok := oc.localAxes()
	if !ok {
		return
	}
	offset := r.Mul(right * oc.panSpeed).
		Add(u.Mul(up * oc.panSpeed)).
		Add(f.Mul(forward * oc.panSpeed))
	oc.target = oc.target.Add(offset)
	oc.dirty = true
}

// localAxes returns the camera's right, up and forward axes for the current orbit, matching
// the orientation LookAt produces. ok is false when the camera sits on the target.
func (oc *orbitController) localAxes() (right, up, forward mgl32.Vec3, ok bool) {
	back := oc.Position().Sub(oc.target)
	if back.Len() < common.Epsilon {
		return
	}
	back = back.Normalize()
	right = oc.camera.Up().Cross(back)
	if right.Len() < common.Epsilon {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up = back.Cross(right)
	return right, up, back.Mul(-1), true
}

func (oc *orbitController) Radius() float32 {
	return oc.radius
}

func (oc *orbitController) SetRadius(radius float32) {
	oc.radius = common.Clamp(radius, oc.minRadius, oc.maxRadius)
	oc.dirty = true
}

func (oc *orbitController) Azimuth() float32 {
	return oc.azimuth
}

func (oc *orbitController) Elevation() float32 {
	return oc.elevation
}

func (oc *orbitController) Update() bool {
	if !oc.dirty {
		return false
	}
	oc.dirty = false
	oc.camera.SetPosition(oc.Position())
	oc.camera.LookAt(oc.target)
	return true
}
