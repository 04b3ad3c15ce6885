package magick

import (
	"math"
	"strconv"
	"strings"
)

// Percentage a value in percent, 100 means the whole
type Percentage float64

// NewPercentage percentage of value
func NewPercentage(value float64) Percentage {
	return Percentage(value)
}

// ParsePercentage parses "12.5%" or "12.5"
func ParsePercentage(s string) (Percentage, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, argError("percentage", "invalid value %q", s)
	}
	return Percentage(v), nil
}

// Multiply returns value multiplied by the percentage
func (p Percentage) Multiply(value float64) float64 {
	return value * float64(p) / 100
}

// Float returns the percentage value, 50% is 50
func (p Percentage) Float() float64 {
	return float64(p)
}

// Fraction returns the percentage as fraction, 50% is 0.5
func (p Percentage) Fraction() float64 {
	return float64(p) / 100
}

// Int rounds the value away from zero
func (p Percentage) Int() int {
	if p < 0 {
		return -int(math.Floor(-float64(p) + 0.5))
	}
	return int(math.Floor(float64(p) + 0.5))
}

// String e.g. 12.35%
func (p Percentage) String() string {
	v := math.Round(float64(p)*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// DensityUnit unit of a density
type DensityUnit int

// DensityUnit values
const (
	DensityUndefined           DensityUnit = 0
	DensityPixelsPerInch       DensityUnit = 1
	DensityPixelsPerCentimeter DensityUnit = 2
)

// Density horizontal and vertical resolution
type Density struct {
	X     float64
	Y     float64
	Units DensityUnit
}

// NewDensity density of the same horizontal and vertical resolution
func NewDensity(xy float64, units DensityUnit) Density {
	return Density{X: xy, Y: xy, Units: units}
}

// ParseDensity parses "72" or "300x200"
func ParseDensity(s string) (Density, error) {
	var d Density
	xs, ys, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil || x < 0 {
		return d, argError("density", "invalid value %q", s)
	}
	d.X, d.Y = x, x
	if ok {
		if d.Y, err = strconv.ParseFloat(ys, 64); err != nil || d.Y < 0 {
			return Density{}, argError("density", "invalid value %q", s)
		}
	}
	return d, nil
}

// IsZero reports an unset density
func (d Density) IsZero() bool {
	return d.X == 0 && d.Y == 0
}

// ChangeUnits converts the density to the given units
func (d Density) ChangeUnits(units DensityUnit) Density {
	if d.Units == units || d.Units == DensityUndefined || units == DensityUndefined {
		return Density{X: d.X, Y: d.Y, Units: units}
	}
	if units == DensityPixelsPerInch {
		return Density{X: d.X * 2.54, Y: d.Y * 2.54, Units: units}
	}
	return Density{X: d.X / 2.54, Y: d.Y / 2.54, Units: units}
}

// String e.g. 72x72
func (d Density) String() string {
	return strconv.FormatFloat(d.X, 'f', -1, 64) + "x" + strconv.FormatFloat(d.Y, 'f', -1, 64)
}
