package light

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type lightSettings struct {
	label      string
	color      mgl32.Vec3
	intensity  float32
	position   mgl32.Vec3
	target     mgl32.Vec3
	lightRange float32
	angle      float32
	penumbra   float32
	shadow     *ShadowParams
}

func newLightSettings(kind string) *lightSettings {
	return &lightSettings{
		label:     kind + "_light_" + uuid.NewString()[:8],
		color:     mgl32.Vec3{1, 1, 1},
		intensity: 1,
		target:    defaultDirection,
		angle:     DefaultSpotAngle,
	}
}

// LightBuilderOption is a functional option for configuring a light at construction.
// Options that do not apply to a light type are ignored.
type LightBuilderOption func(*lightSettings)

// WithLabel sets the debug label of the light's node.
//
// Parameters:
//   - label: the node label
//
// Returns:
//   - LightBuilderOption: functional option to set the label
func WithLabel(label string) LightBuilderOption {
	return func(s *lightSettings) {
		s.label = label
	}
}

// WithColor sets the light's linear RGB color.
//
// Parameters:
//   - color: the color
//
// Returns:
//   - LightBuilderOption: functional option to set the color
func WithColor(color mgl32.Vec3) LightBuilderOption {
	return func(s *lightSettings) {
		s.color = color
	}
}

// WithIntensity sets the light's scalar multiplier.
//
// Parameters:
//   - intensity: the intensity, clamped to at least 0
//
// Returns:
//   - LightBuilderOption: functional option to set the intensity
func WithIntensity(intensity float32) LightBuilderOption {
	return func(s *lightSettings) {
		s.intensity = intensity
	}
}

// WithPosition sets the light's local position. Ambient lights ignore it.
//
// Parameters:
//   - position: position in parent space
//
// Returns:
//   - LightBuilderOption: functional option to set the position
func WithPosition(position mgl32.Vec3) LightBuilderOption {
	return func(s *lightSettings) {
		s.position = position
	}
}

// WithTarget sets the point a directional or spot light aims at. The default is (0, -1, 0).
//
// Parameters:
//   - target: the target in the light's parent space
//
// Returns:
//   - LightBuilderOption: functional option to set the target
func WithTarget(target mgl32.Vec3) LightBuilderOption {
	return func(s *lightSettings) {
		s.target = target
	}
}

// WithRange sets the attenuation cutoff of a point or spot light.
//
// Parameters:
//   - lightRange: the range, 0 for unbounded
//
// Returns:
//   - LightBuilderOption: functional option to set the range
func WithRange(lightRange float32) LightBuilderOption {
	return func(s *lightSettings) {
		s.lightRange = lightRange
	}
}

// WithAngle sets the cone half-angle of a spot light in degrees.
//
// Parameters:
//   - degrees: the half-angle
//
// Returns:
//   - LightBuilderOption: functional option to set the angle
func WithAngle(degrees float32) LightBuilderOption {
	return func(s *lightSettings) {
		s.angle = degrees
	}
}

// WithPenumbra sets the fraction of a spot light's cone that fades out.
//
// Parameters:
//   - penumbra: the fraction in [0, 1]
//
// Returns:
//   - LightBuilderOption: functional option to set the penumbra
func WithPenumbra(penumbra float32) LightBuilderOption {
	return func(s *lightSettings) {
		s.penumbra = penumbra
	}
}

// WithShadow makes the light cast shadows as soon as it is attached to a renderer.
//
// Parameters:
//   - params: the shadow parameters
//
// Returns:
//   - LightBuilderOption: functional option to enable the shadow
func WithShadow(params ShadowParams) LightBuilderOption {
	return func(s *lightSettings) {
		s.shadow = &params
	}
}
