package renderer

import "github.com/Carmen-Shannon/oxy-scene/common"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = &mode
	}
}

// WithSize sets the initial framebuffer size used for the surface and the main depth texture.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.width, r.height = width, height
	}
}

// WithClearColor sets the RGBA color the main pass clears to.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(color [4]float64) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = color
	}
}

// WithDepthFormat sets the format of the main pass depth texture.
func WithDepthFormat(format TextureFormat) RendererBuilderOption {
	return func(r *renderer) {
		if format.IsDepth() {
			r.depthFormat = format
		}
	}
}

// WithLogger sets the logger shared by the renderer, its registry and its scheduler.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger common.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryOptions forwards options to the lights binding registry the renderer creates.
//
// Parameters:
//   - options: registry options (capacities, label)
//
// Returns:
//   - RendererBuilderOption: a function that applies the registry options to a renderer
func WithRegistryOptions(options ...RegistryBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.registryOptions = append(r.registryOptions, options...)
	}
}
