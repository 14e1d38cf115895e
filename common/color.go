package common

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var (
	White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Red   = color.RGBA{R: 0xff, A: 0xff}
)

// ParseColor accepts "#rrggbb", "#rrggbbaa" or an SVG color name.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return White, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("common: invalid color %q", s)
	}
	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(hex[start:start+2], 16, 8)
		return uint8(v), err
	}
	var out color.RGBA
	var err error
	if out.R, err = parse(0); err != nil {
		return color.RGBA{}, fmt.Errorf("common: invalid color %q: %w", s, err)
	}
	if out.G, err = parse(2); err != nil {
		return color.RGBA{}, fmt.Errorf("common: invalid color %q: %w", s, err)
	}
	if out.B, err = parse(4); err != nil {
		return color.RGBA{}, fmt.Errorf("common: invalid color %q: %w", s, err)
	}
	out.A = 0xff
	if len(hex) == 8 {
		if out.A, err = parse(6); err != nil {
			return color.RGBA{}, fmt.Errorf("common: invalid color %q: %w", s, err)
		}
	}
	return out, nil
}

// LerpColor blends from a toward b by t in [0,1].
func LerpColor(a, b color.RGBA, t float64) color.RGBA {
	t = Clamp(t, 0, 1)
	mix := func(x, y uint8) uint8 {
		return uint8(Lerp(float64(x), float64(y), t) + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
