package light

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Spot cone limits in degrees.
const (
	MinSpotAngle     float32 = 1
	MaxSpotAngle     float32 = 89
	DefaultSpotAngle float32 = 30
)

type spotLight struct {
	*lightBase
	target     mgl32.Vec3
	direction  mgl32.Vec3
	lightRange float32
	angle      float32
	penumbra   float32
	spShadow   *spotShadow
}

// SpotLight emits a cone from its world position toward its target. Light fades from the
// inner cone (angle * (1 - penumbra)) to zero at the outer cone (angle).
type SpotLight interface {
	Light

	// Target returns the aim point.
	//
	// Returns:
	//   - mgl32.Vec3: the target in the light's parent space
	Target() mgl32.Vec3

	// SetTarget sets the aim point. The direction is recomputed on the next matrix update.
	//
	// Parameters:
	//   - target: the target in the light's parent space
	SetTarget(target mgl32.Vec3)

	// Direction returns the world-space cone axis.
	//
	// Returns:
	//   - mgl32.Vec3: a unit vector
	Direction() mgl32.Vec3

	// Range returns the attenuation cutoff.
	//
	// Returns:
	//   - float32: the range, 0 for unbounded
	Range() float32

	// SetRange sets the attenuation cutoff, clamped to at least 0. The shadow camera's far
	// plane follows it.
	//
	// Parameters:
	//   - lightRange: the range
	SetRange(lightRange float32)

	// Angle returns the cone half-angle in degrees.
	Angle() float32

	// SetAngle sets the cone half-angle in degrees, clamped to [MinSpotAngle, MaxSpotAngle].
	// The shadow camera's field of view follows it.
	//
	// Parameters:
	//   - degrees: the half-angle
	SetAngle(degrees float32)

	// Penumbra returns the fading fraction of the cone.
	Penumbra() float32

	// SetPenumbra sets the fading fraction of the cone, clamped to [0, 1].
	//
	// Parameters:
	//   - penumbra: the fraction
	SetPenumbra(penumbra float32)

	// SpotShadow returns the light's shadow.
	SpotShadow() SpotShadow
}

var _ SpotLight = &spotLight{}

// NewSpotLight creates a spot light with its own node in graph.
//
// Parameters:
//   - graph: the transform graph
//   - options: functional options (color, intensity, position, target, range, angle, penumbra, shadow, label)
//
// Returns:
//   - SpotLight: the new light
func NewSpotLight(graph *transform.Graph, options ...LightBuilderOption) SpotLight {
	s := newLightSettings("spot")
	for _, option := range options {
		option(s)
	}
	sp := &spotLight{
		lightBase:  newLightBase(graph, renderer.LightTypeSpot, s),
		target:     s.target,
		direction:  common.NormalizeOr(s.target.Sub(s.position), defaultDirection),
		lightRange: max(s.lightRange, 0),
		angle:      common.Clamp(s.angle, MinSpotAngle, MaxSpotAngle),
		penumbra:   common.Clamp(s.penumbra, 0, 1),
	}
	sp.variant = sp
	sp.self = sp
	sp.spShadow = newSpotShadow(sp.lightBase, sp.angle, sp.lightRange)
	sp.shadow = sp.spShadow
	sp.observe()

	graph.SetPosition(sp.node, s.position)
	sp.aim(sp.target)
	if s.shadow != nil {
		_ = sp.spShadow.Cast(*s.shadow) // no renderer yet, nothing to allocate
	}
	return sp
}

func (s *spotLight) SetPosition(position mgl32.Vec3) {
	s.graph.SetPosition(s.node, position)
	s.aim(s.target)
}

func (s *spotLight) Target() mgl32.Vec3 {
	return s.target
}

func (s *spotLight) SetTarget(target mgl32.Vec3) {
	s.target = target
	s.aim(target)
}

func (s *spotLight) Direction() mgl32.Vec3 {
	return s.direction
}

func (s *spotLight) Range() float32 {
	return s.lightRange
}

func (s *spotLight) SetRange(lightRange float32) {
	s.lightRange = max(lightRange, 0)
	s.write()
	// the camera pushes the shadow slot through its change callback
	s.spShadow.persp.SetFar(shadowFar(s.lightRange))
}

func (s *spotLight) Angle() float32 {
	return s.angle
}

func (s *spotLight) SetAngle(degrees float32) {
	s.angle = common.Clamp(degrees, MinSpotAngle, MaxSpotAngle)
	s.write()
	s.spShadow.persp.SetFov(2 * s.angle)
}

func (s *spotLight) Penumbra() float32 {
	return s.penumbra
}

func (s *spotLight) SetPenumbra(penumbra float32) {
	s.penumbra = common.Clamp(penumbra, 0, 1)
	s.write()
}

func (s *spotLight) SpotShadow() SpotShadow {
	return s.spShadow
}

// coneCosines returns cos(angle) and cos(angle * (1 - penumbra)).
func (s *spotLight) coneCosines() (float32, float32) {
	outer := mgl32.DegToRad(s.angle)
	inner := outer * (1 - s.penumbra)
	return math32.Cos(outer), math32.Cos(inner)
}

func (s *spotLight) encode() []byte {
	coneCos, penumbraCos := s.coneCosines()
	g := GPUSpotLight{
		Color:       s.color,
		Intensity:   s.intensity,
		Position:    s.WorldPosition(),
		Range:       s.lightRange,
		Direction:   s.direction,
		ConeCos:     coneCos,
		PenumbraCos: penumbraCos,
	}
	return g.Marshal()
}

func (s *spotLight) onWorldUpdate() {
	s.direction = s.directionTo(s.target)
}
