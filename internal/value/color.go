package value

import (
	"fmt"
	"math"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Color holds RGB channels in 0..255 and alpha in 0..1.
type Color struct {
	R, G, B, A float64

	// Original is the source text of a color literal, kept until the color is modified.
	Original string
}

func (*Color) Type() string {
	return "color"
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func NewRGBA(r, g, b, a float64) *Color {
	return &Color{
		R: clamp(r, 0, 255),
		G: clamp(g, 0, 255),
		B: clamp(b, 0, 255),
		A: clamp(a, 0, 1),
	}
}

func fromParsed(c csscolorparser.Color, original string) *Color {
	col := NewRGBA(c.R*255, c.G*255, c.B*255, c.A)
	col.Original = original
	return col
}

// ParseHex parses a "#rgb", "#rgba", "#rrggbb" or "#rrggbbaa" literal.
func ParseHex(text string) (*Color, bool) {
	if !strings.HasPrefix(text, "#") {
		return nil, false
	}

	switch len(text) {
	case 4, 5, 7, 9:
	default:
		return nil, false
	}

	for _, r := range text[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return nil, false
		}
	}

	c, err := csscolorparser.Parse(text)
	if err != nil {
		return nil, false
	}

	return fromParsed(c, text), true
}

// ParseNamed parses a CSS color keyword such as "red" or "transparent".
func ParseNamed(name string) (*Color, bool) {
	hasNonHex := false

	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return nil, false
		}

		if !strings.ContainsRune("abcdefABCDEF", r) {
			hasNonHex = true
		}
	}

	// The parser also accepts bare hex digits, which are not color names.
	if !hasNonHex {
		return nil, false
	}

	c, err := csscolorparser.Parse(name)
	if err != nil {
		return nil, false
	}

	return fromParsed(c, name), true
}

// RGB255 returns the rounded channels.
func (c *Color) RGB255() (r, g, b int) {
	return int(math.Round(c.R)), int(math.Round(c.G)), int(math.Round(c.B))
}

func (c *Color) WithAlpha(a float64) *Color {
	return NewRGBA(c.R, c.G, c.B, a)
}

// FromHSL builds a color from hue in degrees and saturation/lightness in 0..100.
func FromHSL(h, s, l, a float64) *Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360
	s = clamp(s, 0, 100) / 100
	l = clamp(l, 0, 100) / 100

	var m2 float64
	if l <= 0.5 {
		m2 = l * (s + 1)
	} else {
		m2 = l + s - l*s
	}
	m1 := l*2 - m2

	return NewRGBA(
		hueToRGB(m1, m2, h+1.0/3)*255,
		hueToRGB(m1, m2, h)*255,
		hueToRGB(m1, m2, h-1.0/3)*255,
		a,
	)
}

func hueToRGB(m1, m2, h float64) float64 {
	if h < 0 {
		h++
	}
	if h > 1 {
		h--
	}

	switch {
	case h*6 < 1:
		return m1 + (m2-m1)*h*6
	case h*2 < 1:
		return m2
	case h*3 < 2:
		return m1 + (m2-m1)*(2.0/3-h)*6
	}

	return m1
}

// HSL returns hue in degrees and saturation/lightness in 0..100.
func (c *Color) HSL() (h, s, l float64) {
	r, g, b := c.R/255, c.G/255, c.B/255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	switch {
	case delta == 0:
		h = 0
	case max == r:
		h = math.Mod(60*(g-b)/delta, 360)
	case max == g:
		h = 60*(b-r)/delta + 120
	default:
		h = 60*(r-g)/delta + 240
	}
	if h < 0 {
		h += 360
	}

	l = (max + min) / 2

	switch {
	case delta == 0:
		s = 0
	case l < 0.5:
		s = delta / (max + min)
	default:
		s = delta / (2 - max - min)
	}

	return h, s * 100, l * 100
}

func (c *Color) hex() string {
	r, g, b := c.RGB255()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func (c *Color) shortHex() (string, bool) {
	r, g, b := c.RGB255()
	if r%17 != 0 || g%17 != 0 || b%17 != 0 {
		return "", false
	}

	return fmt.Sprintf("#%x%x%x", r/17, g/17, b/17), true
}

func (c *Color) format(compressed bool) string {
	if c.A >= 1 {
		hex := c.hex()
		if short, ok := c.shortHex(); ok && compressed {
			hex = short
		}

		switch {
		case c.Original == "":
			return hex
		case compressed && len(hex) < len(c.Original):
			return hex
		}

		return c.Original
	}

	if c.Original != "" {
		return c.Original
	}

	r, g, b := c.RGB255()
	if c.A == 0 && r == 0 && g == 0 && b == 0 {
		return "transparent"
	}

	alpha := FormatRat(Float(c.A, Units{}).Value, compressed)
	if compressed {
		return fmt.Sprintf("rgba(%d,%d,%d,%s)", r, g, b, alpha)
	}

	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, alpha)
}

func fuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-10
}
