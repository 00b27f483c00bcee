package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the render config location relative to the process working directory.
const DefaultPath = "config/render.yaml"

// Present mode names accepted in the config file.
const (
	PresentModeVSync    = "vsync"
	PresentModeUncapped = "uncapped"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid render config")

// LightCapacities holds the initial registry slot count of each light type.
// The registry still grows past these on overflow.
type LightCapacities struct {
	Ambient     int `yaml:"ambient"`
	Directional int `yaml:"directional"`
	Point       int `yaml:"point"`
	Spot        int `yaml:"spot"`
}

// RenderConfig is the YAML render configuration document.
type RenderConfig struct {
	Lights      LightCapacities    `yaml:"lights"`
	Shadow      light.ShadowParams `yaml:"shadow"`
	ClearColor  Color              `yaml:"clear_color"`
	PresentMode string             `yaml:"present_mode"`
	Debug       bool               `yaml:"debug"`
}

// Default returns the configuration used when no file is present.
func Default() RenderConfig {
	return RenderConfig{
		Lights: LightCapacities{
			Ambient:     renderer.DefaultAmbientLights,
			Directional: renderer.DefaultDirectionalLights,
			Point:       renderer.DefaultPointLights,
			Spot:        renderer.DefaultSpotLights,
		},
		Shadow:      light.DefaultShadowParams(),
		ClearColor:  Color{0.1, 0.1, 0.12, 1},
		PresentMode: PresentModeVSync,
	}
}

// Load reads a render config from path. Keys absent from the file keep their Default() value.
// A missing file yields Default() and no error; an unreadable, malformed or invalid file is an error.
//
// Parameters:
//   - path: the YAML file path
//
// Returns:
//   - RenderConfig: the loaded configuration
//   - error: error if the file exists but cannot be used
func Load(path string) (RenderConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return RenderConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over Default() and validates it.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - RenderConfig: the decoded configuration
//   - error: error if the document is malformed or invalid
func Parse(data []byte) (RenderConfig, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return RenderConfig{}, fmt.Errorf("parse render config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return RenderConfig{}, err
	}
	return c, nil
}

// Save writes c to path as YAML, creating the parent directory if needed.
//
// Parameters:
//   - path: the YAML file path
//   - c: the configuration
//
// Returns:
//   - error: error if the directory or file could not be written
func Save(path string, c RenderConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode render config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects negative capacities and unknown present modes.
// Shadow parameters are not rejected; ShadowParams clamps them.
func (c RenderConfig) Validate() error {
	for _, t := range renderer.LightTypes {
		if n := c.Lights.Capacity(t); n < 0 {
			return fmt.Errorf("%w: lights.%s is %d", ErrInvalidConfig, t, n)
		}
	}
	if _, err := ParsePresentMode(c.PresentMode); err != nil {
		return err
	}
	return nil
}

// ParsePresentMode maps a config name to a renderer.PresentMode. Names are case-insensitive
// and an empty name means vsync.
//
// Parameters:
//   - name: the present mode name
//
// Returns:
//   - renderer.PresentMode: the present mode
//   - error: error if the name is unknown
func ParsePresentMode(name string) (renderer.PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresentModeVSync:
		return renderer.PresentModeVSync, nil
	case PresentModeUncapped:
		return renderer.PresentModeUncapped, nil
	default:
		return renderer.PresentModeVSync, fmt.Errorf("%w: unknown present_mode %q", ErrInvalidConfig, name)
	}
}

// Capacity returns the configured capacity of a light type.
func (l LightCapacities) Capacity(t renderer.LightType) int {
	switch t {
	case renderer.LightTypeAmbient:
		return l.Ambient
	case renderer.LightTypeDirectional:
		return l.Directional
	case renderer.LightTypePoint:
		return l.Point
	case renderer.LightTypeSpot:
		return l.Spot
	default:
		return 0
	}
}

// RegistryOptions converts the light capacities into registry options.
func (c RenderConfig) RegistryOptions() []renderer.RegistryBuilderOption {
	options := make([]renderer.RegistryBuilderOption, 0, len(renderer.LightTypes))
	for _, t := range renderer.LightTypes {
		options = append(options, renderer.WithLightCapacity(t, c.Lights.Capacity(t)))
	}
	return options
}

// RendererOptions converts the configuration into renderer options, registry options included.
// The config is assumed valid; an unknown present mode falls back to vsync.
func (c RenderConfig) RendererOptions() []renderer.RendererBuilderOption {
	mode, _ := ParsePresentMode(c.PresentMode)
	return []renderer.RendererBuilderOption{
		renderer.WithClearColor([4]float64(c.ClearColor)),
		renderer.WithPresentMode(mode),
		renderer.WithRegistryOptions(c.RegistryOptions()...),
	}
}

// ShadowParams returns the shadow defaults with out-of-range values clamped.
func (c RenderConfig) ShadowParams() light.ShadowParams {
	return c.Shadow.Clamped()
}
