package raster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ParseColor parses a background color. Accepted forms are SVG/CSS color
// names ("white", "RebeccaPurple"), "#rgb", "#rgba", "#rrggbb" and
// "#rrggbbaa". The leading '#' may be omitted for hex forms.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color")
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if !isHex(hex) {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}

	alpha := uint8(0xff)
	switch len(hex) {
	case 3, 6:
	case 4:
		a, _ := strconv.ParseUint(strings.Repeat(hex[3:], 2), 16, 8)
		alpha, hex = uint8(a), hex[:3]
	case 8:
		a, _ := strconv.ParseUint(hex[6:], 16, 8)
		alpha, hex = uint8(a), hex[:6]
	default:
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("unknown color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

func isHex(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
