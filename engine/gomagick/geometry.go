package gomagick

import (
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/cshum/magick"
)

var filters = map[magick.FilterType]imaging.ResampleFilter{
	magick.FilterPoint:     imaging.NearestNeighbor,
	magick.FilterBox:       imaging.Box,
	magick.FilterTriangle:  imaging.Linear,
	magick.FilterHermite:   imaging.Hermite,
	magick.FilterHann:      imaging.Hann,
	magick.FilterHamming:   imaging.Hamming,
	magick.FilterBlackman:  imaging.Blackman,
	magick.FilterGaussian:  imaging.Gaussian,
	magick.FilterCubic:     imaging.BSpline,
	magick.FilterCatrom:    imaging.CatmullRom,
	magick.FilterMitchell:  imaging.MitchellNetravali,
	magick.FilterWelch:     imaging.Welch,
	magick.FilterBartlett:  imaging.Bartlett,
	magick.FilterLanczos:   imaging.Lanczos,
	magick.FilterCosine:    imaging.Cosine,
	magick.FilterSpline:    imaging.BSpline,
}

func resampleFilter(filter magick.FilterType) imaging.ResampleFilter {
	if f, ok := filters[filter]; ok {
		return f
	}
	return imaging.Lanczos
}

func parseGeometry(geometry string) (magick.Geometry, error) {
	g, err := magick.ParseGeometry(geometry)
	if err != nil {
		return g, magick.NewException(magick.OptionError, "invalid geometry", geometry)
	}
	return g, nil
}

func (img *Image) resize(geometry string, fn func(p *image.NRGBA, w, h int) *image.NRGBA) (magick.NativeImage, error) {
	g, err := parseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		w, h := g.Fit(p.Rect.Dx(), p.Rect.Dy())
		if w == p.Rect.Dx() && h == p.Rect.Dy() {
			return imaging.Clone(p), nil
		}
		return fn(p, w, h), nil
	})
}

// Resize implements magick.NativeImage
func (img *Image) Resize(geometry string, filter magick.FilterType) (magick.NativeImage, error) {
	f := resampleFilter(filter)
	return img.resize(geometry, func(p *image.NRGBA, w, h int) *image.NRGBA {
		return imaging.Resize(p, w, h, f)
	})
}

// AdaptiveResize implements magick.NativeImage
func (img *Image) AdaptiveResize(geometry string) (magick.NativeImage, error) {
	return img.resize(geometry, func(p *image.NRGBA, w, h int) *image.NRGBA {
		return imaging.Resize(p, w, h, imaging.MitchellNetravali)
	})
}

// Thumbnail implements magick.NativeImage
func (img *Image) Thumbnail(geometry string) (magick.NativeImage, error) {
	out, err := img.resize(geometry, func(p *image.NRGBA, w, h int) *image.NRGBA {
		return imaging.Resize(p, w, h, imaging.Lanczos)
	})
	if err != nil {
		return nil, err
	}
	t := out.(*Image)
	t.profiles = map[string][]byte{}
	return t, nil
}

// Scale implements magick.NativeImage
func (img *Image) Scale(geometry string) (magick.NativeImage, error) {
	return img.resize(geometry, func(p *image.NRGBA, w, h int) *image.NRGBA {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Rect, p, p.Rect, draw.Src, nil)
		return dst
	})
}

// Sample implements magick.NativeImage
func (img *Image) Sample(geometry string) (magick.NativeImage, error) {
	return img.resize(geometry, func(p *image.NRGBA, w, h int) *image.NRGBA {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.NearestNeighbor.Scale(dst, dst.Rect, p, p.Rect, draw.Src, nil)
		return dst
	})
}

// region resolves geometry with gravity on a width x height image
func region(g magick.Geometry, gravity magick.Gravity, width, height int) image.Rectangle {
	w, h := g.Width, g.Height
	if g.IsPercentage {
		if h == 0 {
			h = w
		}
		w, h = width*w/100, height*h/100
	}
	if w == 0 {
		w = width
	}
	if h == 0 {
		h = height
	}
	x, y := gravity.Offset(width, height, w, h, g.X, g.Y)
	return image.Rect(x, y, x+w, y+h)
}

// Crop implements magick.NativeImage
func (img *Image) Crop(geometry string, gravity magick.Gravity) (magick.NativeImage, error) {
	g, err := parseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		r := region(g, gravity, p.Rect.Dx(), p.Rect.Dy()).Intersect(p.Rect)
		if r.Empty() {
			return nil, magick.NewException(magick.OptionError,
				"geometry does not contain image", geometry)
		}
		return imaging.Crop(p, r), nil
	})
}

// Extent implements magick.NativeImage
func (img *Image) Extent(geometry string, gravity magick.Gravity, background magick.Color) (magick.NativeImage, error) {
	g, err := parseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	if g.Width <= 0 || g.Height <= 0 {
		return nil, magick.NewException(magick.OptionError, "invalid geometry", geometry)
	}
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		x, y := gravity.Offset(g.Width, g.Height, p.Rect.Dx(), p.Rect.Dy(), -g.X, -g.Y)
		canvas := newCanvas(g.Width, g.Height, background)
		return imaging.Overlay(canvas, p, image.Pt(x, y), 1), nil
	})
}

// Border implements magick.NativeImage
func (img *Image) Border(width, height int, c magick.Color) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		canvas := newCanvas(p.Rect.Dx()+2*width, p.Rect.Dy()+2*height, c)
		return imaging.Paste(canvas, p, image.Pt(width, height)), nil
	})
}

// Shave implements magick.NativeImage
func (img *Image) Shave(width, height int) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		r := image.Rect(width, height, p.Rect.Dx()-width, p.Rect.Dy()-height)
		if r.Empty() {
			return nil, magick.NewException(magick.OptionError,
				"geometry does not contain image", strconv.Itoa(width)+"x"+strconv.Itoa(height))
		}
		return imaging.Crop(p, r), nil
	})
}

// Chop implements magick.NativeImage
func (img *Image) Chop(geometry string) (magick.NativeImage, error) {
	g, err := parseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		w, h := p.Rect.Dx(), p.Rect.Dy()
		// a zero width or height removes full rows or columns only
		x0, x1 := min(max(g.X, 0), w), min(max(g.X+g.Width, 0), w)
		y0, y1 := min(max(g.Y, 0), h), min(max(g.Y+g.Height, 0), h)
		cut := image.Rect(x0, y0, x1, y1)
		cw, ch := x1-x0, y1-y0
		if cw >= w || ch >= h || cw+ch == 0 {
			return nil, magick.NewException(magick.OptionError,
				"geometry does not contain image", geometry)
		}
		out := image.NewNRGBA(image.Rect(0, 0, w-cw, h-ch))
		for y, oy := 0, 0; y < h; y++ {
			if ch > 0 && y >= cut.Min.Y && y < cut.Max.Y {
				continue
			}
			for x, ox := 0, 0; x < w; x++ {
				if cw > 0 && x >= cut.Min.X && x < cut.Max.X {
					continue
				}
				copy(out.Pix[out.PixOffset(ox, oy):out.PixOffset(ox, oy)+4], p.Pix[p.PixOffset(x, y):p.PixOffset(x, y)+4])
				ox++
			}
			oy++
		}
		return out, nil
	})
}

// Trim implements magick.NativeImage
func (img *Image) Trim(fuzz float64) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		bg := p.NRGBAAt(0, 0)
		tolerance := fuzz / quantumScale
		bounds := image.Rectangle{}
		for y := 0; y < p.Rect.Dy(); y++ {
			for x := 0; x < p.Rect.Dx(); x++ {
				c := p.NRGBAAt(x, y)
				d := math.Sqrt((sq(float64(c.R)-float64(bg.R)) + sq(float64(c.G)-float64(bg.G)) +
					sq(float64(c.B)-float64(bg.B)) + sq(float64(c.A)-float64(bg.A))) / 4)
				if d > tolerance {
					bounds = bounds.Union(image.Rect(x, y, x+1, y+1))
				}
			}
		}
		if bounds.Empty() {
			return imaging.Crop(p, image.Rect(0, 0, 1, 1)), nil
		}
		return imaging.Crop(p, bounds), nil
	})
}

func sq(v float64) float64 {
	return v * v
}

// Rotate implements magick.NativeImage, positive degrees rotate clockwise
func (img *Image) Rotate(degrees float64, background magick.Color) (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return imaging.Rotate(p, -degrees, background), nil
	})
}

// Flip implements magick.NativeImage
func (img *Image) Flip() (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return imaging.FlipV(p), nil
	})
}

// Flop implements magick.NativeImage
func (img *Image) Flop() (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return imaging.FlipH(p), nil
	})
}

// Transpose implements magick.NativeImage
func (img *Image) Transpose() (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return imaging.Transpose(p), nil
	})
}

// Transverse implements magick.NativeImage
func (img *Image) Transverse() (magick.NativeImage, error) {
	return img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		return imaging.Transverse(p), nil
	})
}

// AutoOrient implements magick.NativeImage using the exif:Orientation attribute
func (img *Image) AutoOrient() (magick.NativeImage, error) {
	orientation, _ := strconv.Atoi(img.attributes["exif:Orientation"])
	out, err := img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		switch orientation {
		case 2:
			return imaging.FlipH(p), nil
		case 3:
			return imaging.Rotate180(p), nil
		case 4:
			return imaging.FlipV(p), nil
		case 5:
			return imaging.Transpose(p), nil
		case 6:
			return imaging.Rotate270(p), nil
		case 7:
			return imaging.Transverse(p), nil
		case 8:
			return imaging.Rotate90(p), nil
		}
		return imaging.Clone(p), nil
	})
	if err != nil {
		return nil, err
	}
	if orientation > 1 {
		out.SetAttribute("exif:Orientation", "1")
	}
	return out, nil
}

// Distort implements magick.NativeImage for the ScaleRotateTranslate and
// Resize methods. The distort:viewport artifact crops the result.
func (img *Image) Distort(method magick.DistortMethod, bestFit bool, args []float64) (magick.NativeImage, error) {
	p, err := img.nrgba()
	if err != nil {
		return nil, err
	}
	var out *image.NRGBA
	switch method {
	case magick.DistortScaleRotateTranslate:
		scale, angle := 1.0, 0.0
		switch len(args) {
		case 1:
			angle = args[0]
		default:
			scale, angle = args[0], args[1]
		}
		if scale <= 0 {
			return nil, magick.NewException(magick.OptionError, "invalid argument", "scale")
		}
		out = p
		if scale != 1 {
			out = imaging.Resize(p, max(1, int(math.Round(float64(p.Rect.Dx())*scale))), 0, imaging.Lanczos)
		}
		out = toNRGBA(transform.Rotate(out, angle, &transform.RotationOptions{ResizeBounds: bestFit}))
	case magick.DistortResize:
		if len(args) < 2 || args[0] < 1 || args[1] < 1 {
			return nil, magick.NewException(magick.OptionError, "invalid argument", "width and height")
		}
		out = imaging.Resize(p, int(args[0]), int(args[1]), imaging.Lanczos)
	default:
		return nil, missingDelegate("distort " + method.String())
	}
	if v, ok := img.artifacts["distort:viewport"]; ok {
		g, err := parseGeometry(v)
		if err != nil {
			return nil, err
		}
		canvas := image.NewNRGBA(image.Rect(0, 0, max(1, g.Width), max(1, g.Height)))
		out = imaging.Paste(canvas, out, image.Pt(-g.X, -g.Y))
	}
	res := img.derive(out)
	res.artifacts = withoutPrefix(res.artifacts, "distort:")
	return res, nil
}

func withoutPrefix(m map[string]string, prefix string) map[string]string {
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			delete(m, k)
		}
	}
	return m
}
