// Package colorramp classifies elevations into a seven-stop color gradient.
package colorramp

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Stops is the number of colors in a scheme.
const Stops = 7

// Breakpoints are the elevations, in meters, of the seven color stops.
var Breakpoints = [Stops]float32{-4, 250, 500, 750, 1000, 1250, 1466}

// Scheme is one color per breakpoint.
type Scheme [Stops]color.RGBA

var defaultScheme = Scheme{
	{0x00, 0x00, 0xFF, 0xFF},
	{0x00, 0xCF, 0x41, 0xFF},
	{0x90, 0xEE, 0x90, 0xFF},
	{0xFF, 0xFF, 0x00, 0xFF},
	{0xFF, 0xA5, 0x00, 0xFF},
	{0xFF, 0x45, 0x00, 0xFF},
	{0xFF, 0x00, 0x00, 0xFF},
}

// Default returns the blue-green-yellow-red scheme.
func Default() Scheme { return defaultScheme }

// ColorFor returns the RGB color, each channel in [0,1], for elevation e.
func (s Scheme) ColorFor(e float32) [3]float32 {
	return Interpolate(s.Uniforms(), e)
}

// Interpolate evaluates the ramp over seven RGB triples. Elevations at or
// below the first breakpoint get the first color, those at or above the last
// get the last, and everything between is interpolated linearly between the
// two surrounding stops.
func Interpolate(colors [Stops][3]float32, e float32) [3]float32 {
	if !(e > Breakpoints[0]) {
		return colors[0]
	}
	for i := 1; i < Stops; i++ {
		if e < Breakpoints[i] {
			t := (e - Breakpoints[i-1]) / (Breakpoints[i] - Breakpoints[i-1])
			a, b := colors[i-1], colors[i]
			return [3]float32{
				a[0] + (b[0]-a[0])*t,
				a[1] + (b[1]-a[1])*t,
				a[2] + (b[2]-a[2])*t,
			}
		}
	}
	return colors[Stops-1]
}

// RGBA is ColorFor as an opaque 8-bit color.
func (s Scheme) RGBA(e float32) color.RGBA {
	c := s.ColorFor(e)
	return color.RGBA{to8(c[0]), to8(c[1]), to8(c[2]), 0xFF}
}

// Uniforms returns the scheme as seven RGB float triples.
func (s Scheme) Uniforms() [Stops][3]float32 {
	var u [Stops][3]float32
	for i, c := range s {
		u[i] = unit(c)
	}
	return u
}

// Hex formats the scheme as "#RRGGBB" strings.
func (s Scheme) Hex() []string {
	out := make([]string, Stops)
	for i, c := range s {
		out[i] = fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return out
}

func unit(c color.RGBA) [3]float32 {
	return [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

func to8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xFF
	}
	return uint8(v*255 + 0.5)
}

// Ramp holds the active scheme of a view.
type Ramp struct {
	scheme Scheme
}

// New returns a Ramp with the default scheme.
func New() *Ramp {
	return &Ramp{scheme: defaultScheme}
}

// Scheme returns the active scheme.
func (r *Ramp) Scheme() Scheme { return r.scheme }

// Apply replaces the active scheme. Exactly seven colors are required; alpha
// is ignored.
func (r *Ramp) Apply(colors []color.RGBA) error {
	if len(colors) != Stops {
		return fmt.Errorf("color scheme needs %d colors, got %d", Stops, len(colors))
	}
	for i, c := range colors {
		c.A = 0xFF
		r.scheme[i] = c
	}
	return nil
}

// Reset restores the default scheme.
func (r *Ramp) Reset() {
	r.scheme = defaultScheme
}

// ParseHex parses "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xFF}, nil
}

// ParseScheme parses seven hex colors.
func ParseScheme(hex []string) (Scheme, error) {
	var s Scheme
	if len(hex) != Stops {
		return s, fmt.Errorf("color scheme needs %d colors, got %d", Stops, len(hex))
	}
	for i, h := range hex {
		c, err := ParseHex(h)
		if err != nil {
			return s, fmt.Errorf("color %d: %w", i+1, err)
		}
		s[i] = c
	}
	return s, nil
}
