package gomagick

import (
	"image"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"

	"github.com/cshum/magick"
)

type blendFn func(bg, fg image.Image) *image.RGBA

var blendFns = map[magick.CompositeOperator]blendFn{
	magick.CompositeMultiply:    blend.Multiply,
	magick.CompositeScreen:      blend.Screen,
	magick.CompositeOverlay:     blend.Overlay,
	magick.CompositeSoftLight:   blend.SoftLight,
	magick.CompositeDarken:      blend.Darken,
	magick.CompositeLighten:     blend.Lighten,
	magick.CompositeDifference:  blend.Difference,
	magick.CompositeExclusion:   blend.Exclusion,
	magick.CompositeColorBurn:   blend.ColorBurn,
	magick.CompositeColorDodge:  blend.ColorDodge,
	magick.CompositeLinearBurn:  blend.LinearBurn,
	magick.CompositeLinearLight: blend.LinearLight,
	magick.CompositeLinearDodge: blend.Add,
	magick.CompositePlus:        blend.Add,
	magick.CompositeMinusSrc:    blend.Subtract,
	magick.CompositeDivideSrc:   blend.Divide,
	magick.CompositeHardLight: func(bg, fg image.Image) *image.RGBA {
		return blend.Overlay(fg, bg)
	},
}

// porter duff factors of source and destination for alpha as, ab
type porterDuff func(as, ab float64) (fa, fb float64)

var porterDuffs = map[magick.CompositeOperator]porterDuff{
	magick.CompositeUndefined: func(as, ab float64) (float64, float64) { return 1, 1 - as },
	magick.CompositeOver:      func(as, ab float64) (float64, float64) { return 1, 1 - as },
	magick.CompositeSrcOver:   func(as, ab float64) (float64, float64) { return 1, 1 - as },
	magick.CompositeDstOver:   func(as, ab float64) (float64, float64) { return 1 - ab, 1 },
	magick.CompositeAtop:      func(as, ab float64) (float64, float64) { return ab, 1 - as },
	magick.CompositeXor:       func(as, ab float64) (float64, float64) { return 1 - ab, 1 - as },
	magick.CompositeDstIn:     func(as, ab float64) (float64, float64) { return 0, as },
	magick.CompositeDstOut:    func(as, ab float64) (float64, float64) { return 0, 1 - as },
	magick.CompositeSrc:       func(as, ab float64) (float64, float64) { return 1, 0 },
	magick.CompositeCopy:      func(as, ab float64) (float64, float64) { return 1, 0 },
	magick.CompositeReplace:   func(as, ab float64) (float64, float64) { return 1, 0 },
	magick.CompositeClear:     func(as, ab float64) (float64, float64) { return 0, 0 },
	magick.CompositeNo:        func(as, ab float64) (float64, float64) { return 0, 1 },
}

func (f porterDuff) compose(bg, fg *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(bg.Rect)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		as, ab := float64(fg.Pix[i+3])/255, float64(bg.Pix[i+3])/255
		fa, fb := f(as, ab)
		ao := as*fa + ab*fb
		if ao <= 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			v := (float64(fg.Pix[i+c])*as*fa + float64(bg.Pix[i+c])*ab*fb) / ao
			out.Pix[i+c] = clamp8(v)
		}
		out.Pix[i+3] = clamp8(ao * 255)
	}
	return out
}

// Composite implements magick.NativeImage, source is placed at x, y.
// Dissolve and Blend read the percentage from the compose:args artifact.
func (img *Image) Composite(source magick.NativeImage, x, y int, operator magick.CompositeOperator, channels magick.Channels) (magick.NativeImage, error) {
	srcs, err := images([]magick.NativeImage{source})
	if err != nil {
		return nil, err
	}
	sp, err := srcs[0].nrgba()
	if err != nil {
		return nil, err
	}
	compose, err := img.composer(operator)
	if err != nil {
		return nil, err
	}
	out, err := img.apply(func(p *image.NRGBA) (*image.NRGBA, error) {
		offset := image.Pt(x, y)
		r := sp.Rect.Add(offset).Intersect(p.Rect)
		if r.Empty() {
			return imaging.Clone(p), nil
		}
		bg := imaging.Crop(p, r)
		fg := imaging.Crop(sp, r.Sub(offset))
		return imaging.Paste(p, keepChannels(bg, compose(bg, fg), channels), r.Min), nil
	})
	if err != nil {
		return nil, err
	}
	if srcs[0].alpha && operator != magick.CompositeCopy {
		out.(*Image).alpha = true
	}
	return out, nil
}

func (img *Image) composer(operator magick.CompositeOperator) (func(bg, fg *image.NRGBA) *image.NRGBA, error) {
	if pd, ok := porterDuffs[operator]; ok {
		return pd.compose, nil
	}
	if fn, ok := blendFns[operator]; ok {
		return func(bg, fg *image.NRGBA) *image.NRGBA {
			return toNRGBA(fn(bg, fg))
		}, nil
	}
	switch operator {
	case magick.CompositeDissolve, magick.CompositeBlend:
		percent := 50.0
		if v, ok := img.artifacts["compose:args"]; ok {
			f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
			if err != nil {
				return nil, magick.NewException(magick.OptionError, "invalid compose args", v)
			}
			percent = f
		}
		return func(bg, fg *image.NRGBA) *image.NRGBA {
			return toNRGBA(blend.Opacity(bg, fg, percent/100))
		}, nil
	case magick.CompositeCopyAlpha:
		return func(bg, fg *image.NRGBA) *image.NRGBA {
			out := imaging.Clone(bg)
			for i := 3; i < len(out.Pix); i += 4 {
				if fg.Pix[i] == 0xff {
					out.Pix[i] = clamp8(intensityAt(fg, i-3))
				} else {
					out.Pix[i] = fg.Pix[i]
				}
			}
			return out
		}, nil
	}
	return nil, missingDelegate("compose " + operator.String())
}

func intensityAt(p *image.NRGBA, i int) float64 {
	return 0.212656*float64(p.Pix[i]) + 0.715158*float64(p.Pix[i+1]) + 0.072186*float64(p.Pix[i+2])
}
