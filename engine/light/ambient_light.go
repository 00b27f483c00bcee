package light

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

type ambientLight struct {
	*lightBase
}

// AmbientLight lights every surface uniformly. Its node can be parented like any other, but
// its transform never affects the light's contribution.
type AmbientLight interface {
	Light
}

var _ AmbientLight = &ambientLight{}

// NewAmbientLight creates an ambient light with its own node in graph.
//
// Parameters:
//   - graph: the transform graph
//   - options: functional options (color, intensity, label)
//
// Returns:
//   - AmbientLight: the new light
func NewAmbientLight(graph *transform.Graph, options ...LightBuilderOption) AmbientLight {
	s := newLightSettings("ambient")
	for _, option := range options {
		option(s)
	}
	a := &ambientLight{lightBase: newLightBase(graph, renderer.LightTypeAmbient, s)}
	a.variant = a
	a.self = a
	return a
}

func (a *ambientLight) SetPosition(mgl32.Vec3) {}

func (a *ambientLight) encode() []byte {
	g := GPUAmbientLight{Color: a.color, Intensity: a.intensity}
	return g.Marshal()
}

func (a *ambientLight) onWorldUpdate() {}
