package light

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

type directionalLight struct {
	*lightBase
	target    mgl32.Vec3
	direction mgl32.Vec3
	dirShadow *directionalShadow
}

// DirectionalLight is an infinitely distant light shining along normalize(target - position).
// The node is oriented toward the target so its shadow camera looks the same way.
type DirectionalLight interface {
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

	// Direction returns the world-space direction the light travels.
	//
	// Returns:
	//   - mgl32.Vec3: a unit vector
	Direction() mgl32.Vec3

	// DirectionalShadow returns the light's shadow.
	DirectionalShadow() DirectionalShadow
}

var _ DirectionalLight = &directionalLight{}

// NewDirectionalLight creates a directional light with its own node in graph.
//
// Parameters:
//   - graph: the transform graph
//   - options: functional options (color, intensity, position, target, shadow, label)
//
// Returns:
//   - DirectionalLight: the new light
func NewDirectionalLight(graph *transform.Graph, options ...LightBuilderOption) DirectionalLight {
	s := newLightSettings("directional")
	for _, option := range options {
		option(s)
	}
	d := &directionalLight{
		lightBase: newLightBase(graph, renderer.LightTypeDirectional, s),
		target:    s.target,
		direction: common.NormalizeOr(s.target.Sub(s.position), defaultDirection),
	}
	d.variant = d
	d.self = d
	d.dirShadow = newDirectionalShadow(d.lightBase)
	d.shadow = d.dirShadow
	d.observe()

	graph.SetPosition(d.node, s.position)
	d.aim(d.target)
	if s.shadow != nil {
		_ = d.dirShadow.Cast(*s.shadow) // no renderer yet, nothing to allocate
	}
	return d
}

func (d *directionalLight) SetPosition(position mgl32.Vec3) {
	d.graph.SetPosition(d.node, position)
	d.aim(d.target)
}

func (d *directionalLight) Target() mgl32.Vec3 {
	return d.target
}

func (d *directionalLight) SetTarget(target mgl32.Vec3) {
	d.target = target
	d.aim(target)
}

func (d *directionalLight) Direction() mgl32.Vec3 {
	return d.direction
}

func (d *directionalLight) DirectionalShadow() DirectionalShadow {
	return d.dirShadow
}

func (d *directionalLight) encode() []byte {
	g := GPUDirectionalLight{Color: d.color, Intensity: d.intensity, Direction: d.direction}
	return g.Marshal()
}

func (d *directionalLight) onWorldUpdate() {
	d.direction = d.directionTo(d.target)
}
