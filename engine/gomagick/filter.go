package gomagick

import (
	"bytes"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/noise"
	"github.com/disintegration/imaging"

	"github.com/cshum/magick"
)

func sigmaOf(radius, sigma float64) float64 {
	if sigma > 0 {
		return sigma
	}
	if radius > 0 {
		return radius / 2
	}
	return 1
}

// Blur implements magick.NativeImage
func (img *Image) Blur(radius, sigma float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return keepChannels(p, imaging.Blur(p, sigmaOf(radius, sigma)), channels), nil
	})
}

// AdaptiveBlur implements magick.NativeImage
func (img *Image) AdaptiveBlur(radius, sigma float64) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return toNRGBA(blur.Gaussian(p, math.Max(radius, 2*sigmaOf(radius, sigma)))), nil
	})
}

// Sharpen implements magick.NativeImage
func (img *Image) Sharpen(radius, sigma float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return keepChannels(p, imaging.Sharpen(p, sigmaOf(radius, sigma)), channels), nil
	})
}

// AdaptiveSharpen implements magick.NativeImage
func (img *Image) AdaptiveSharpen(radius, sigma float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return keepChannels(p, toNRGBA(effect.Sharpen(p)), channels), nil
	})
}

// UnsharpMask implements magick.NativeImage, threshold is a fraction of quantum
func (img *Image) UnsharpMask(radius, sigma, amount, threshold float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		blurred := imaging.Blur(p, sigmaOf(radius, sigma))
		out := imaging.Clone(p)
		limit := threshold * 255
		for i := range out.Pix {
			if i%4 == 3 {
				continue
			}
			d := float64(p.Pix[i]) - float64(blurred.Pix[i])
			if math.Abs(d) >= limit {
				out.Pix[i] = clamp8(float64(p.Pix[i]) + amount*d)
			}
		}
		return keepChannels(p, out, channels), nil
	})
}

// Charcoal implements magick.NativeImage
func (img *Image) Charcoal(radius, sigma float64) (magick.NativeImage, error) {
	out, err := img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		edges := toNRGBA(effect.EdgeDetection(imaging.Grayscale(p), math.Max(radius, 1)))
		return imaging.Blur(imaging.Invert(imaging.Grayscale(edges)), sigmaOf(radius, sigma)), nil
	})
	if err != nil {
		return nil, err
	}
	out.(*Image).colorSpace = magick.ColorSpaceGray
	return out, nil
}

// Emboss implements magick.NativeImage
func (img *Image) Emboss(radius, sigma float64) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		src := p
		if radius > 0 || sigma > 0 {
			src = imaging.Blur(p, sigmaOf(radius, sigma)/2)
		}
		return toNRGBA(effect.Emboss(src)), nil
	})
}

// Edge implements magick.NativeImage
func (img *Image) Edge(radius float64) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return toNRGBA(effect.EdgeDetection(p, math.Max(radius, 1))), nil
	})
}

// Median implements magick.NativeImage
func (img *Image) Median(radius float64) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return toNRGBA(effect.Median(p, math.Max(radius, 1))), nil
	})
}

// OilPaint implements magick.NativeImage
func (img *Image) OilPaint(radius, sigma float64) (magick.NativeImage, error) {
	return nil, missingDelegate("oil paint")
}

// Swirl implements magick.NativeImage, swirling by degrees at the center
func (img *Image) Swirl(degrees float64) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		w, h := p.Rect.Dx(), p.Rect.Dy()
		out := image.NewNRGBA(p.Rect)
		cx, cy := float64(w)/2, float64(h)/2
		radius := math.Max(cx, cy)
		angle := degrees * math.Pi / 180
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dx, dy := float64(x)-cx, float64(y)-cy
				d := math.Hypot(dx, dy)
				sx, sy := x, y
				if d < radius {
					f := 1 - d/radius
					a := angle * f * f
					sin, cos := math.Sincos(a)
					sx = int(math.Round(cx + cos*dx - sin*dy))
					sy = int(math.Round(cy + sin*dx + cos*dy))
					sx = min(max(sx, 0), w-1)
					sy = min(max(sy, 0), h-1)
				}
				i, j := out.PixOffset(x, y), p.PixOffset(sx, sy)
				copy(out.Pix[i:i+4], p.Pix[j:j+4])
			}
		}
		return out, nil
	})
}

var noiseFns = map[magick.NoiseType]noise.Fn{
	magick.NoiseUniform:  noise.Uniform,
	magick.NoiseGaussian: noise.Gaussian,
	magick.NoiseImpulse:  noise.Binary,
	magick.NoiseRandom:   noise.Uniform,
}

// AddNoise implements magick.NativeImage
func (img *Image) AddNoise(noiseType magick.NoiseType, attenuate float64, channels magick.Channels) (magick.NativeImage, error) {
	fn, ok := noiseFns[noiseType]
	if !ok {
		return nil, missingDelegate("noise " + noiseType.String())
	}
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		n := noise.Generate(p.Rect.Dx(), p.Rect.Dy(), &noise.Options{NoiseFn: fn})
		out := imaging.Clone(p)
		for i := range out.Pix {
			if i%4 == 3 {
				continue
			}
			out.Pix[i] = clamp8(float64(p.Pix[i]) + attenuate*(float64(n.Pix[i])-128)/2)
		}
		return keepChannels(p, out, channels), nil
	})
}

// Morphology implements magick.NativeImage for the Convolve, Erode, Dilate,
// Open, Close and Edge methods. Kernels are Disk:r, Square:r, Diamond:r or an
// explicit 3x3 / 5x5 convolution kernel e.g. "3x3: 0,-1,0,-1,5,-1,0,-1,0".
func (img *Image) Morphology(method magick.MorphologyMethod, kernel string, iterations int, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		if method == magick.MorphologyConvolve || method == magick.MorphologyCorrelate {
			return convolve(p, kernel)
		}
		radius, err := kernelRadius(kernel)
		if err != nil {
			return nil, err
		}
		erode := func(src *image.NRGBA) *image.NRGBA { return toNRGBA(effect.Erode(src, radius)) }
		dilate := func(src *image.NRGBA) *image.NRGBA { return toNRGBA(effect.Dilate(src, radius)) }
		var step func(src *image.NRGBA) *image.NRGBA
		switch method {
		case magick.MorphologyErode:
			step = erode
		case magick.MorphologyDilate:
			step = dilate
		case magick.MorphologyOpen:
			step = func(src *image.NRGBA) *image.NRGBA { return dilate(erode(src)) }
		case magick.MorphologyClose:
			step = func(src *image.NRGBA) *image.NRGBA { return erode(dilate(src)) }
		case magick.MorphologyEdge:
			step = func(src *image.NRGBA) *image.NRGBA { return difference(dilate(src), erode(src)) }
		case magick.MorphologyEdgeIn:
			step = func(src *image.NRGBA) *image.NRGBA { return difference(src, erode(src)) }
		case magick.MorphologyEdgeOut:
			step = func(src *image.NRGBA) *image.NRGBA { return difference(dilate(src), src) }
		default:
			return nil, missingDelegate("morphology " + method.String())
		}
		out := p
		// -1 repeats until the image no longer changes
		limit := iterations
		if limit < 0 {
			limit = max(p.Rect.Dx(), p.Rect.Dy())
		}
		for i := 0; i < max(limit, 1); i++ {
			next := step(out)
			if iterations < 0 && bytes.Equal(next.Pix, out.Pix) {
				break
			}
			out = next
		}
		return keepChannels(p, out, channels), nil
	})
}

func kernelRadius(kernel string) (float64, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(kernel), ":")
	switch strings.ToLower(name) {
	case "disk", "square", "diamond", "octagon", "plus", "cross":
	default:
		return 0, magick.NewException(magick.OptionError, "unrecognized kernel", kernel)
	}
	if arg == "" {
		return 1, nil
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(strings.Split(arg, ",")[0]), 64)
	if err != nil || r <= 0 {
		return 0, magick.NewException(magick.OptionError, "invalid kernel radius", kernel)
	}
	return r, nil
}

func convolve(p *image.NRGBA, kernel string) (*image.NRGBA, error) {
	size, values, ok := strings.Cut(kernel, ":")
	if !ok {
		return nil, magick.NewException(magick.OptionError, "unrecognized kernel", kernel)
	}
	var k []float64
	for _, v := range strings.Split(values, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, magick.NewException(magick.OptionError, "invalid kernel value", v)
		}
		k = append(k, f)
	}
	options := &imaging.ConvolveOptions{Normalize: true}
	switch strings.TrimSpace(size) {
	case "3x3", "3":
		if len(k) == 9 {
			return imaging.Convolve3x3(p, [9]float64(k), options), nil
		}
	case "5x5", "5":
		if len(k) == 25 {
			return imaging.Convolve5x5(p, [25]float64(k), options), nil
		}
	}
	return nil, magick.NewException(magick.OptionError, "unsupported kernel size", kernel)
}

func difference(a, b *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(a)
	for i := range out.Pix {
		if i%4 == 3 {
			continue
		}
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		out.Pix[i] = uint8(d)
	}
	return out
}
