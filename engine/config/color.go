package config

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Color is a linear RGBA clear color. In YAML it is either a sequence of three or four numbers
// in [0, 1], a hex string (#rrggbb or #rrggbbaa) or an SVG color name such as "midnightblue".
type Color [4]float64

// UnmarshalYAML decodes any of the accepted Color forms.
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var values []float64
		if err := node.Decode(&values); err != nil {
			return err
		}
		if len(values) != 3 && len(values) != 4 {
			return fmt.Errorf("%w: clear_color needs 3 or 4 components, got %d", ErrInvalidConfig, len(values))
		}
		*c = Color{values[0], values[1], values[2], 1}
		if len(values) == 4 {
			c[3] = values[3]
		}
		return nil
	case yaml.ScalarNode:
		parsed, err := ParseColor(node.Value)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	default:
		return fmt.Errorf("%w: clear_color must be a sequence or a string", ErrInvalidConfig)
	}
}

// ParseColor parses a hex string or an SVG color name. Names are case-insensitive.
//
// Parameters:
//   - s: the color text
//
// Returns:
//   - Color: the parsed color with components in [0, 1]
//   - error: error if s is neither valid hex nor a known name
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 && len(hex) != 8 {
			return Color{}, fmt.Errorf("%w: bad hex color %q", ErrInvalidConfig, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("%w: bad hex color %q", ErrInvalidConfig, s)
		}
		if len(hex) == 6 {
			v = v<<8 | 0xff
		}
		return Color{
			float64(v>>24&0xff) / 255,
			float64(v>>16&0xff) / 255,
			float64(v>>8&0xff) / 255,
			float64(v&0xff) / 255,
		}, nil
	}
	named, ok := colornames.Map[s]
	if !ok {
		return Color{}, fmt.Errorf("%w: unknown color %q", ErrInvalidConfig, s)
	}
	return Color{
		float64(named.R) / 255,
		float64(named.G) / 255,
		float64(named.B) / 255,
		float64(named.A) / 255,
	}, nil
}
