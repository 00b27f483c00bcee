package renderer

import "github.com/Carmen-Shannon/oxy-scene/common"

// Default per-type light capacities.
const (
	DefaultAmbientLights     = 2
	DefaultDirectionalLights = 5
	DefaultPointLights       = 5
	DefaultSpotLights        = 5
)

// RegistryBuilderOption is a functional option applied to a registry during construction.
type RegistryBuilderOption func(*registry)

// WithLightCapacity sets the initial capacity of one light type. Negative values are clamped to 0.
//
// Parameters:
//   - t: the light type
//   - capacity: the initial slot count
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithLightCapacity(t LightType, capacity int) RegistryBuilderOption {
	return func(r *registry) {
		r.capacities[t] = max(capacity, 0)
	}
}

// WithRegistryLogger sets the logger that receives overflow diagnostics.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithRegistryLogger(logger common.Logger) RegistryBuilderOption {
	return func(r *registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryLabel sets the debug label used for the buffers and bind group.
func WithRegistryLabel(label string) RegistryBuilderOption {
	return func(r *registry) {
		r.label = label
	}
}
