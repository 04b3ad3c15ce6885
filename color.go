package magick

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// QuantumMax maximum channel value
const QuantumMax = 0xffff

// Color 16 bit per channel color.
// K is only meaningful when IsCMYK is set, R G B then hold cyan magenta yellow.
type Color struct {
	R, G, B, A uint16
	K          uint16
	IsCMYK     bool
}

// Common colors
var (
	ColorNone        = Color{}
	ColorTransparent = Color{}
	ColorBlack       = Color{A: QuantumMax}
	ColorWhite       = Color{R: QuantumMax, G: QuantumMax, B: QuantumMax, A: QuantumMax}
	ColorRed         = Color{R: QuantumMax, A: QuantumMax}
	ColorGreen       = Color{G: QuantumMax, A: QuantumMax}
	ColorBlue        = Color{B: QuantumMax, A: QuantumMax}
)

// NewColorRGB opaque color of 8 bit channels
func NewColorRGB(r, g, b uint8) Color {
	return Color{R: scale8(r), G: scale8(g), B: scale8(b), A: QuantumMax}
}

// NewColorRGBA color of 8 bit channels
func NewColorRGBA(r, g, b, a uint8) Color {
	return Color{R: scale8(r), G: scale8(g), B: scale8(b), A: scale8(a)}
}

// NewColorCMYK cmyk color of 16 bit channels
func NewColorCMYK(c, m, y, k, a uint16) Color {
	return Color{R: c, G: m, B: y, K: k, A: a, IsCMYK: true}
}

// ColorFromStd converts a standard library color
func ColorFromStd(c color.Color) Color {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

func scale8(v uint8) uint16 {
	return uint16(v) * 0x101
}

// ParseColor parses #RGB, #RGBA, #RRGGBB, #RRGGBBAA, 16 bit hex forms,
// rgb(r,g,b), rgba(r,g,b,a), cmyk(c,m,y,k), none, transparent and SVG color names
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return Color{}, argError("color", "value cannot be empty")
	case v == "none" || v == "transparent":
		return ColorTransparent, nil
	case strings.HasPrefix(v, "#"):
		return parseHexColor(s, v[1:])
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		return parseFuncColor(s, v, false)
	case strings.HasPrefix(v, "cmyk(") || strings.HasPrefix(v, "cmyka("):
		return parseFuncColor(s, v, true)
	}
	if c, ok := colornames.Map[v]; ok {
		return ColorFromStd(c), nil
	}
	// hex without the hash sign
	if c, err := parseHexColor(s, v); err == nil {
		return c, nil
	}
	return Color{}, argError("color", "unknown color %q", s)
}

// MustParseColor like ParseColor but panics on error
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHexColor(orig, h string) (Color, error) {
	var values []uint16
	switch len(h) {
	case 3, 4:
		for i := 0; i < len(h); i++ {
			n, err := strconv.ParseUint(h[i:i+1], 16, 8)
			if err != nil {
				return Color{}, argError("color", "invalid hex color %q", orig)
			}
			values = append(values, uint16(n)*0x1111)
		}
	case 6, 8:
		for i := 0; i < len(h); i += 2 {
			n, err := strconv.ParseUint(h[i:i+2], 16, 8)
			if err != nil {
				return Color{}, argError("color", "invalid hex color %q", orig)
			}
			values = append(values, scale8(uint8(n)))
		}
	case 12, 16:
		for i := 0; i < len(h); i += 4 {
			n, err := strconv.ParseUint(h[i:i+4], 16, 16)
			if err != nil {
				return Color{}, argError("color", "invalid hex color %q", orig)
			}
			values = append(values, uint16(n))
		}
	default:
		return Color{}, argError("color", "invalid hex color %q", orig)
	}
	c := Color{R: values[0], G: values[1], B: values[2], A: QuantumMax}
	if len(values) == 4 {
		c.A = values[3]
	}
	return c, nil
}

func parseFuncColor(orig, v string, cmyk bool) (Color, error) {
	open, end := strings.IndexByte(v, '('), strings.LastIndexByte(v, ')')
	if end < open {
		return Color{}, argError("color", "invalid color %q", orig)
	}
	parts := strings.Split(v[open+1:end], ",")
	expect := 3
	if cmyk {
		expect = 4
	}
	if len(parts) != expect && len(parts) != expect+1 {
		return Color{}, argError("color", "invalid color %q", orig)
	}
	values := make([]uint16, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		var f float64
		var err error
		switch {
		case strings.HasSuffix(p, "%"):
			f, err = strconv.ParseFloat(p[:len(p)-1], 64)
			f = f / 100 * QuantumMax
		case i == expect:
			// alpha is a fraction
			f, err = strconv.ParseFloat(p, 64)
			f *= QuantumMax
		default:
			f, err = strconv.ParseFloat(p, 64)
			f *= 257
		}
		if err != nil || f < 0 || f > QuantumMax+0.5 {
			return Color{}, argError("color", "invalid color %q", orig)
		}
		values = append(values, uint16(f+0.5))
	}
	c := Color{R: values[0], G: values[1], B: values[2], A: QuantumMax, IsCMYK: cmyk}
	if cmyk {
		c.K = values[3]
	}
	if len(values) == expect+1 {
		c.A = values[expect]
	}
	return c, nil
}

// RGBA implements color.Color
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.ToStd().RGBA()
}

// ToStd converts to a non premultiplied standard library color
func (c Color) ToStd() color.NRGBA64 {
	if c.IsCMYK {
		k := 1 - float64(c.K)/QuantumMax
		return color.NRGBA64{
			R: uint16((1 - float64(c.R)/QuantumMax) * k * QuantumMax),
			G: uint16((1 - float64(c.G)/QuantumMax) * k * QuantumMax),
			B: uint16((1 - float64(c.B)/QuantumMax) * k * QuantumMax),
			A: c.A,
		}
	}
	return color.NRGBA64{R: c.R, G: c.G, B: c.B, A: c.A}
}

// IsOpaque reports full alpha
func (c Color) IsOpaque() bool {
	return c.A == QuantumMax
}

// String #RRRRGGGGBBBBAAAA, or cmyka(...) for cmyk colors
func (c Color) String() string {
	if c.IsCMYK {
		return fmt.Sprintf("cmyka(%d,%d,%d,%d,%.4g)", c.R>>8, c.G>>8, c.B>>8, c.K>>8, float64(c.A)/QuantumMax)
	}
	return fmt.Sprintf("#%04X%04X%04X%04X", c.R, c.G, c.B, c.A)
}

// ShortString like String but omits opaque alpha
func (c Color) ShortString() string {
	if c.IsCMYK || !c.IsOpaque() {
		return c.String()
	}
	return fmt.Sprintf("#%04X%04X%04X", c.R, c.G, c.B)
}

// FuzzyEquals reports whether o is within fuzz distance of c
func (c Color) FuzzyEquals(o Color, fuzz Percentage) bool {
	if c == o {
		return true
	}
	d := fuzz.Multiply(QuantumMax)
	d *= d * 3
	dr := float64(c.R) - float64(o.R)
	dg := float64(c.G) - float64(o.G)
	db := float64(c.B) - float64(o.B)
	return dr*dr+dg*dg+db*db <= d
}

func (c Color) colorful() colorful.Color {
	n := c.ToStd()
	return colorful.Color{R: float64(n.R) / QuantumMax, G: float64(n.G) / QuantumMax, B: float64(n.B) / QuantumMax}
}

func fromColorful(cf colorful.Color, alpha uint16) Color {
	cf = cf.Clamped()
	return Color{
		R: uint16(cf.R*QuantumMax + 0.5),
		G: uint16(cf.G*QuantumMax + 0.5),
		B: uint16(cf.B*QuantumMax + 0.5),
		A: alpha,
	}
}

// ColorHSL hue in degrees, saturation and lightness in [0, 1]
type ColorHSL struct {
	Hue, Saturation, Lightness float64
}

// HSL converts to hue saturation lightness
func (c Color) HSL() ColorHSL {
	h, s, l := c.colorful().Hsl()
	return ColorHSL{Hue: h, Saturation: s, Lightness: l}
}

// Color converts back to an opaque color
func (h ColorHSL) Color() Color {
	return fromColorful(colorful.Hsl(h.Hue, h.Saturation, h.Lightness), QuantumMax)
}

// ColorHSV hue in degrees, saturation and value in [0, 1]
type ColorHSV struct {
	Hue, Saturation, Value float64
}

// HSV converts to hue saturation value
func (c Color) HSV() ColorHSV {
	h, s, v := c.colorful().Hsv()
	return ColorHSV{Hue: h, Saturation: s, Value: v}
}

// Color converts back to an opaque color
func (h ColorHSV) Color() Color {
	return fromColorful(colorful.Hsv(h.Hue, h.Saturation, h.Value), QuantumMax)
}

// ColorLab CIE L*a*b* with D65 white point
type ColorLab struct {
	L, A, B float64
}

// Lab converts to CIE L*a*b*
func (c Color) Lab() ColorLab {
	l, a, b := c.colorful().Lab()
	return ColorLab{L: l, A: a, B: b}
}

// Color converts back to an opaque color
func (l ColorLab) Color() Color {
	return fromColorful(colorful.Lab(l.L, l.A, l.B), QuantumMax)
}

// Distance perceptual CIE76 distance between two colors
func (c Color) Distance(o Color) float64 {
	return c.colorful().DistanceLab(o.colorful())
}
