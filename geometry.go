package magick

import (
	"math"
	"strconv"
	"strings"
)

// Geometry width, height and offset descriptor of the engine geometry
// mini-language e.g. 100x100+10+10, 50%, 300x200^
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int

	IsPercentage      bool
	IgnoreAspectRatio bool
	Greater           bool
	Less              bool
	FillArea          bool
	LimitPixels       bool
	AspectRatio       bool

	includeXY bool
}

// NewGeometry geometry of width and height
func NewGeometry(width, height int) Geometry {
	return Geometry{Width: width, Height: height}
}

// NewGeometryWithOffset geometry of width and height at offset x, y.
// The offset is always part of the string form.
func NewGeometryWithOffset(x, y, width, height int) Geometry {
	return Geometry{X: x, Y: y, Width: width, Height: height, includeXY: true}
}

// NewPercentageGeometry percentage geometry e.g. 50x50%
func NewPercentageGeometry(width, height Percentage) (Geometry, error) {
	if err := checkNotNegative("width", float64(width)); err != nil {
		return Geometry{}, err
	}
	if err := checkNotNegative("height", float64(height)); err != nil {
		return Geometry{}, err
	}
	return Geometry{
		Width: int(width), Height: int(height), IsPercentage: true,
	}, nil
}

// ParseGeometry parses the geometry mini-language
func ParseGeometry(value string) (Geometry, error) {
	var g Geometry
	s := strings.TrimSpace(value)
	if s == "" {
		return g, argError("geometry", "value cannot be empty")
	}
	g.includeXY = strings.ContainsAny(s, "+-")
	if i := strings.IndexByte(s, ':'); i > 0 {
		w, err1 := strconv.Atoi(s[:i])
		h, err2 := strconv.Atoi(s[i+1:])
		if err1 != nil || err2 != nil || w < 0 || h < 0 {
			return Geometry{}, argError("geometry", "invalid aspect ratio %q", value)
		}
		return Geometry{Width: w, Height: h, AspectRatio: true}, nil
	}
	// trailing flags may appear in any order
flags:
	for len(s) > 0 {
		switch s[len(s)-1] {
		case '%':
			g.IsPercentage = true
		case '!':
			g.IgnoreAspectRatio = true
		case '>':
			g.Greater = true
		case '<':
			g.Less = true
		case '^':
			g.FillArea = true
		case '@':
			g.LimitPixels = true
		default:
			break flags
		}
		s = s[:len(s)-1]
	}
	offset := ""
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		s, offset = s[:i], s[i:]
	}
	// percent sign may also precede the offset e.g. 50%+10+10
	if strings.HasSuffix(s, "%") {
		g.IsPercentage = true
		s = s[:len(s)-1]
	}
	var err error
	if s != "" {
		wStr, hStr, hasX := strings.Cut(strings.ToLower(s), "x")
		if wStr != "" {
			if g.Width, err = parseSize(wStr); err != nil {
				return Geometry{}, argError("geometry", "invalid width %q", value)
			}
		}
		if hasX && hStr != "" {
			if g.Height, err = parseSize(hStr); err != nil {
				return Geometry{}, argError("geometry", "invalid height %q", value)
			}
		}
	}
	if offset != "" {
		if g.X, g.Y, err = parseOffset(offset); err != nil {
			return Geometry{}, argError("geometry", "invalid offset %q", value)
		}
	}
	return g, nil
}

func parseSize(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, strconv.ErrRange
	}
	return int(f), nil
}

func parseOffset(s string) (x, y int, err error) {
	i := strings.IndexAny(s[1:], "+-")
	if i < 0 {
		x, err = strconv.Atoi(s)
		return
	}
	if x, err = strconv.Atoi(s[:i+1]); err != nil {
		return
	}
	y, err = strconv.Atoi(s[i+1:])
	return
}

// MustParseGeometry like ParseGeometry but panics on error
func MustParseGeometry(value string) Geometry {
	g, err := ParseGeometry(value)
	if err != nil {
		panic(err)
	}
	return g
}

// String formats the geometry in the engine mini-language
func (g Geometry) String() string {
	if g.AspectRatio {
		return strconv.Itoa(g.Width) + ":" + strconv.Itoa(g.Height)
	}
	var sb strings.Builder
	if g.Width == 0 && g.Height == 0 {
		sb.WriteString("0x0")
	} else {
		if g.Width > 0 {
			sb.WriteString(strconv.Itoa(g.Width))
		}
		if g.Height > 0 {
			sb.WriteString("x" + strconv.Itoa(g.Height))
		} else if !g.IsPercentage {
			sb.WriteString("x")
		}
	}
	if g.X != 0 || g.Y != 0 || g.includeXY {
		if g.X >= 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(strconv.Itoa(g.X))
		if g.Y >= 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(strconv.Itoa(g.Y))
	}
	if g.IsPercentage {
		sb.WriteByte('%')
	}
	if g.IgnoreAspectRatio {
		sb.WriteByte('!')
	}
	if g.Greater {
		sb.WriteByte('>')
	}
	if g.Less {
		sb.WriteByte('<')
	}
	if g.FillArea {
		sb.WriteByte('^')
	}
	if g.LimitPixels {
		sb.WriteByte('@')
	}
	return sb.String()
}

// Validate checks width and height are not negative
func (g Geometry) Validate() error {
	if g.Width < 0 {
		return argError("width", "value should not be negative")
	}
	if g.Height < 0 {
		return argError("height", "value should not be negative")
	}
	return nil
}

// Equal compares values and flags, the string form of the offset is ignored
func (g Geometry) Equal(o Geometry) bool {
	g.includeXY, o.includeXY = false, false
	return g == o
}

// Compare orders by area
func (g Geometry) Compare(o Geometry) int {
	l, r := g.Width*g.Height, o.Width*o.Height
	switch {
	case l == r:
		return 0
	case l < r:
		return -1
	}
	return 1
}

// Rectangle returns the geometry as rectangle, flags dropped
func (g Geometry) Rectangle() Rectangle {
	return Rectangle{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

// Fit resolves the target size of resizing an image of width x height
// to the geometry, following the engine semantics of the flags.
func (g Geometry) Fit(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	w, h := float64(width), float64(height)
	gw, gh := float64(g.Width), float64(g.Height)
	switch {
	case g.AspectRatio:
		if gw == 0 || gh == 0 {
			return width, height
		}
		ratio := gw / gh
		if w/h > ratio {
			return round(h * ratio), height
		}
		return width, round(w / ratio)
	case g.IsPercentage:
		if gh == 0 {
			gh = gw
		}
		return maxOne(round(w * gw / 100)), maxOne(round(h * gh / 100))
	case g.LimitPixels:
		area := gw
		if gh > 0 {
			area = gw * gh
		}
		if area <= 0 || w*h <= area {
			return width, height
		}
		scale := math.Sqrt(area / (w * h))
		return maxOne(int(w * scale)), maxOne(int(h * scale))
	}
	if gw == 0 && gh == 0 {
		return width, height
	}
	if g.Greater && (gw == 0 || width <= g.Width) && (gh == 0 || height <= g.Height) {
		return width, height
	}
	if g.Less && (gw == 0 || width >= g.Width) && (gh == 0 || height >= g.Height) {
		return width, height
	}
	switch {
	case gw == 0:
		return maxOne(round(w * gh / h)), g.Height
	case gh == 0:
		return g.Width, maxOne(round(h * gw / w))
	case g.IgnoreAspectRatio:
		return g.Width, g.Height
	}
	sx, sy := gw/w, gh/h
	scale := math.Min(sx, sy)
	if g.FillArea {
		scale = math.Max(sx, sy)
	}
	return maxOne(round(w * scale)), maxOne(round(h * scale))
}

func round(v float64) int {
	return int(math.Round(v))
}

func maxOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Rectangle integer area of an image
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Geometry returns the rectangle as geometry including its offset
func (r Rectangle) Geometry() Geometry {
	return NewGeometryWithOffset(r.X, r.Y, r.Width, r.Height)
}

// Empty reports whether the rectangle has no area
func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
