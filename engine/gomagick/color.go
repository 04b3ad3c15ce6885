package gomagick

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/cshum/magick"
)

// Threshold implements magick.NativeImage, value in quantum scale
func (img *Image) Threshold(value float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return mapChannels(p, channels, func(v float64) float64 {
			if v > value {
				return magick.QuantumMax
			}
			return 0
		}), nil
	})
}

// AdaptiveThreshold implements magick.NativeImage using the local mean
// of a width x height window, bias in quantum scale
func (img *Image) AdaptiveThreshold(width, height int, bias float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		mean := toNRGBA(blur.Box(p, math.Max(float64(max(width, height))/2, 1)))
		out := imaging.Clone(p)
		ch := channels.Resolve()
		offset := bias / quantumScale
		for i := range out.Pix {
			switch i % 4 {
			case 0:
				if !ch.Has(magick.ChannelRed) {
					continue
				}
			case 1:
				if !ch.Has(magick.ChannelGreen) {
					continue
				}
			case 2:
				if !ch.Has(magick.ChannelBlue) {
					continue
				}
			case 3:
				continue
			}
			if float64(p.Pix[i]) > float64(mean.Pix[i])+offset {
				out.Pix[i] = 0xff
			} else {
				out.Pix[i] = 0
			}
		}
		return out, nil
	})
}

// Negate implements magick.NativeImage
func (img *Image) Negate(onlyGrayscale bool, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		if !onlyGrayscale && channels.Resolve().Has(magick.ChannelsRGB) {
			return keepAlpha(p, imaging.Invert(p)), nil
		}
		ch := channels.Resolve()
		return imaging.AdjustFunc(p, func(c color.NRGBA) color.NRGBA {
			if onlyGrayscale && (c.R != c.G || c.G != c.B) {
				return c
			}
			if ch.Has(magick.ChannelRed) {
				c.R = 255 - c.R
			}
			if ch.Has(magick.ChannelGreen) {
				c.G = 255 - c.G
			}
			if ch.Has(magick.ChannelBlue) {
				c.B = 255 - c.B
			}
			return c
		}), nil
	})
}

func keepAlpha(src, dst *image.NRGBA) *image.NRGBA {
	for i := 3; i < len(dst.Pix) && i < len(src.Pix); i += 4 {
		dst.Pix[i] = src.Pix[i]
	}
	return dst
}

func intensityOf(method magick.PixelIntensityMethod, c color.NRGBA) float64 {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	switch method {
	case magick.PixelIntensityAverage:
		return (r + g + b) / 3
	case magick.PixelIntensityBrightness:
		return math.Max(r, math.Max(g, b))
	case magick.PixelIntensityLightness:
		return (math.Min(r, math.Min(g, b)) + math.Max(r, math.Max(g, b))) / 2
	case magick.PixelIntensityMS:
		return (r*r + g*g + b*b) / 3 / 255
	case magick.PixelIntensityRec601Luma, magick.PixelIntensityRec601Luminance:
		return 0.298839*r + 0.586811*g + 0.114350*b
	case magick.PixelIntensityRMS:
		return math.Sqrt((r*r + g*g + b*b) / 3)
	}
	return intensity(c)
}

// Grayscale implements magick.NativeImage
func (img *Image) Grayscale(method magick.PixelIntensityMethod) (magick.NativeImage, error) {
	out, err := img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		if method == magick.PixelIntensityUndefined {
			return imaging.Grayscale(p), nil
		}
		return imaging.AdjustFunc(p, func(c color.NRGBA) color.NRGBA {
			v := clamp8(intensityOf(method, c))
			return color.NRGBA{R: v, G: v, B: v, A: c.A}
		}), nil
	})
	if err != nil {
		return nil, err
	}
	out.(*Image).colorSpace = magick.ColorSpaceGray
	return out, nil
}

// TransformColorSpace implements magick.NativeImage for gray and RGB targets
func (img *Image) TransformColorSpace(colorSpace magick.ColorSpace) (magick.NativeImage, error) {
	switch colorSpace {
	case magick.ColorSpaceGray, magick.ColorSpaceLinearGray:
		return img.Grayscale(magick.PixelIntensityUndefined)
	case magick.ColorSpaceSRGB, magick.ColorSpaceRGB:
		out, err := img.Clone()
		if err != nil {
			return nil, err
		}
		out.(*Image).colorSpace = colorSpace
		return out, nil
	}
	return nil, missingDelegate("colorspace " + colorSpace.String())
}

// TransformProfile implements magick.NativeImage. Without a color management
// module only identical profiles convert, by attaching the target.
func (img *Image) TransformProfile(source, target []byte) (magick.NativeImage, error) {
	if !bytes.Equal(source, target) {
		return nil, missingDelegate("lcms")
	}
	out, err := img.Clone()
	if err != nil {
		return nil, err
	}
	return out, out.SetProfile("icc", target)
}

// BrightnessContrast implements magick.NativeImage, values in percent -100..100
func (img *Image) BrightnessContrast(brightness, contrast float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		out := imaging.AdjustContrast(imaging.AdjustBrightness(p, brightness), contrast)
		return keepChannels(p, out, channels), nil
	})
}

// Modulate implements magick.NativeImage, 100 percent leaves a component unchanged
func (img *Image) Modulate(brightness, saturation, hue float64) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return imaging.AdjustFunc(p, func(c color.NRGBA) color.NRGBA {
			cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
			h, s, l := cf.Hsl()
			h = math.Mod(h+(hue-100)*1.8+360, 360)
			s = math.Min(s*saturation/100, 1)
			l = math.Min(l*brightness/100, 1)
			r, g, b := colorful.Hsl(h, s, l).Clamped().RGB255()
			return color.NRGBA{R: r, G: g, B: b, A: c.A}
		}), nil
	})
}

// Gamma implements magick.NativeImage
func (img *Image) Gamma(value float64, channels magick.Channels) (magick.NativeImage, error) {
	if value <= 0 {
		return nil, magick.NewException(magick.OptionError, "invalid gamma", formatFloat(value))
	}
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		if channels.Resolve().Has(magick.ChannelsRGB) {
			return keepChannels(p, toNRGBA(adjust.Gamma(p, value)), channels), nil
		}
		return mapChannels(p, channels, func(v float64) float64 {
			return magick.QuantumMax * math.Pow(v/magick.QuantumMax, 1/value)
		}), nil
	})
}

// Level implements magick.NativeImage, black and white points in quantum scale
func (img *Image) Level(blackPoint, whitePoint, gamma float64, channels magick.Channels) (magick.NativeImage, error) {
	if whitePoint <= blackPoint || gamma <= 0 {
		return nil, magick.NewException(magick.OptionError, "invalid level",
			formatFloat(blackPoint)+","+formatFloat(whitePoint))
	}
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return mapChannels(p, channels, func(v float64) float64 {
			f := math.Min(math.Max((v-blackPoint)/(whitePoint-blackPoint), 0), 1)
			return magick.QuantumMax * math.Pow(f, 1/gamma)
		}), nil
	})
}

// Colorize implements magick.NativeImage, alpha is the blend fraction
func (img *Image) Colorize(c magick.Color, alpha float64) (magick.NativeImage, error) {
	fill := nrgbaOf(c)
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return imaging.AdjustFunc(p, func(px color.NRGBA) color.NRGBA {
			px.R = clamp8(float64(px.R)*(1-alpha) + float64(fill.R)*alpha)
			px.G = clamp8(float64(px.G)*(1-alpha) + float64(fill.G)*alpha)
			px.B = clamp8(float64(px.B)*(1-alpha) + float64(fill.B)*alpha)
			return px
		}), nil
	})
}

// Deskew implements magick.NativeImage
func (img *Image) Deskew(threshold float64) (magick.NativeImage, error) {
	return nil, missingDelegate("deskew")
}

// SepiaTone implements magick.NativeImage, threshold in quantum scale
func (img *Image) SepiaTone(threshold float64) (magick.NativeImage, error) {
	t := threshold / quantumScale
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return imaging.AdjustFunc(p, func(c color.NRGBA) color.NRGBA {
			i := intensity(c)
			r, g, b := 255.0, 255.0, 0.0
			if i <= t {
				r = i + 255 - t
			}
			if i <= 7*t/6 {
				g = i + 255 - 7*t/6
			}
			if i >= t/6 {
				b = i - t/6
			}
			return color.NRGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: c.A}
		}), nil
	})
}

// Solarize implements magick.NativeImage, factor in quantum scale
func (img *Image) Solarize(factor float64) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return mapChannels(p, magick.ChannelsRGB, func(v float64) float64 {
			if v > factor {
				return magick.QuantumMax - v
			}
			return v
		}), nil
	})
}

// EvaluateOperator implements magick.NativeImage, value in quantum scale
// except for Multiply, Divide and Pow
func (img *Image) EvaluateOperator(operator magick.EvaluateOperator, value float64, channels magick.Channels) (magick.NativeImage, error) {
	fn, ok := evaluateFn(operator, value)
	if !ok {
		return nil, missingDelegate("evaluate " + operator.String())
	}
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return mapChannels(p, channels, fn), nil
	})
}

func evaluateFn(operator magick.EvaluateOperator, value float64) (func(v float64) float64, bool) {
	q := float64(magick.QuantumMax)
	switch operator {
	case magick.EvaluateAbs:
		return func(v float64) float64 { return math.Abs(v + value) }, true
	case magick.EvaluateAdd:
		return func(v float64) float64 { return v + value }, true
	case magick.EvaluateSubtract:
		return func(v float64) float64 { return v - value }, true
	case magick.EvaluateMultiply:
		return func(v float64) float64 { return v * value }, true
	case magick.EvaluateDivide:
		if value == 0 {
			return func(v float64) float64 { return q }, true
		}
		return func(v float64) float64 { return v / value }, true
	case magick.EvaluateSet:
		return func(float64) float64 { return value }, true
	case magick.EvaluateMin:
		return func(v float64) float64 { return math.Min(v, value) }, true
	case magick.EvaluateMax:
		return func(v float64) float64 { return math.Max(v, value) }, true
	case magick.EvaluatePow:
		return func(v float64) float64 { return q * math.Pow(v/q, value) }, true
	case magick.EvaluateAnd:
		return func(v float64) float64 { return float64(uint16(v) & uint16(value)) }, true
	case magick.EvaluateOr:
		return func(v float64) float64 { return float64(uint16(v) | uint16(value)) }, true
	case magick.EvaluateXor:
		return func(v float64) float64 { return float64(uint16(v) ^ uint16(value)) }, true
	case magick.EvaluateThreshold:
		return func(v float64) float64 {
			if v > value {
				return q
			}
			return 0
		}, true
	case magick.EvaluateThresholdHigh:
		return func(v float64) float64 {
			if v > value {
				return q
			}
			return v
		}, true
	}
	return nil, false
}
