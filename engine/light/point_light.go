package light

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
)

type pointLight struct {
	*lightBase
	lightRange float32
	ptShadow   *pointShadow
}

// PointLight emits in every direction from its world position, attenuated to zero at its range.
type PointLight interface {
	Light

	// Range returns the attenuation cutoff.
	//
	// Returns:
	//   - float32: the range, 0 for unbounded
	Range() float32

	// SetRange sets the attenuation cutoff, clamped to at least 0. The shadow's far plane
	// follows it.
	//
	// Parameters:
	//   - lightRange: the range
	SetRange(lightRange float32)

	// PointShadow returns the light's shadow.
	PointShadow() PointShadow
}

var _ PointLight = &pointLight{}

// NewPointLight creates a point light with its own node in graph.
//
// Parameters:
//   - graph: the transform graph
//   - options: functional options (color, intensity, position, range, shadow, label)
//
// Returns:
//   - PointLight: the new light
func NewPointLight(graph *transform.Graph, options ...LightBuilderOption) PointLight {
	s := newLightSettings("point")
	for _, option := range options {
		option(s)
	}
	p := &pointLight{
		lightBase:  newLightBase(graph, renderer.LightTypePoint, s),
		lightRange: max(s.lightRange, 0),
	}
	p.variant = p
	p.self = p
	p.ptShadow = newPointShadow(p.lightBase, p.lightRange)
	p.shadow = p.ptShadow
	p.observe()

	graph.SetPosition(p.node, s.position)
	if s.shadow != nil {
		_ = p.ptShadow.Cast(*s.shadow) // no renderer yet, nothing to allocate
	}
	return p
}

func (p *pointLight) Range() float32 {
	return p.lightRange
}

func (p *pointLight) SetRange(lightRange float32) {
	p.lightRange = max(lightRange, 0)
	p.ptShadow.setFar(shadowFar(p.lightRange))
	p.write()
	p.ptShadow.write()
}

func (p *pointLight) PointShadow() PointShadow {
	return p.ptShadow
}

func (p *pointLight) encode() []byte {
	g := GPUPointLight{Color: p.color, Intensity: p.intensity, Position: p.WorldPosition(), Range: p.lightRange}
	return g.Marshal()
}

func (p *pointLight) onWorldUpdate() {
	p.ptShadow.updateViews(p.WorldPosition())
	p.ptShadow.write()
}
