package gomagick

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"math"
	"slices"

	"github.com/disintegration/imaging"

	"github.com/cshum/magick"
)

// frames pixels of every frame
func framePixels(frames []magick.NativeImage) ([]*Image, []*image.NRGBA, error) {
	imgs, err := images(frames)
	if err != nil {
		return nil, nil, err
	}
	if len(imgs) == 0 {
		return nil, nil, magick.NewException(magick.OptionError,
			"no images defined", "image list is empty")
	}
	pix := make([]*image.NRGBA, len(imgs))
	for i, img := range imgs {
		if pix[i], err = img.nrgba(); err != nil {
			return nil, nil, err
		}
	}
	return imgs, pix, nil
}

func anyAlpha(imgs []*Image) bool {
	return slices.ContainsFunc(imgs, func(img *Image) bool { return img.alpha })
}

func listBackground(imgs []*Image) color.NRGBA {
	if anyAlpha(imgs) {
		return color.NRGBA{}
	}
	return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

// Append implements magick.Engine
func (e *Engine) Append(frames []magick.NativeImage, vertical bool) (magick.NativeImage, error) {
	return e.Smush(frames, 0, vertical)
}

// Smush implements magick.Engine, frames are appended offset pixels apart
func (e *Engine) Smush(frames []magick.NativeImage, offset int, vertical bool) (magick.NativeImage, error) {
	imgs, pix, err := framePixels(frames)
	if err != nil {
		return nil, err
	}
	width, height := 0, 0
	for i, p := range pix {
		gap := 0
		if i > 0 {
			gap = offset
		}
		if vertical {
			width = max(width, p.Rect.Dx())
			height += p.Rect.Dy() + gap
		} else {
			width += p.Rect.Dx() + gap
			height = max(height, p.Rect.Dy())
		}
	}
	if width <= 0 || height <= 0 {
		return nil, magick.NewException(magick.OptionError,
			"negative or zero image size", "smush")
	}
	canvas := newCanvas(width, height, listBackground(imgs))
	pos := image.Point{}
	for _, p := range pix {
		canvas = imaging.Overlay(canvas, p, pos, 1)
		if vertical {
			pos.Y += p.Rect.Dy() + offset
		} else {
			pos.X += p.Rect.Dx() + offset
		}
	}
	out := imgs[0].derive(canvas)
	out.page = image.Point{}
	out.alpha = anyAlpha(imgs)
	return out, nil
}

func canvasBounds(imgs []*Image) image.Rectangle {
	var r image.Rectangle
	for i, img := range imgs {
		b := image.Rect(0, 0, img.width, img.height).Add(img.page)
		if i == 0 {
			r = b
		} else {
			r = r.Union(b)
		}
	}
	return r
}

// Coalesce implements magick.Engine, honoring the GIF frame disposal
func (e *Engine) Coalesce(frames []magick.NativeImage) ([]magick.NativeImage, error) {
	imgs, pix, err := framePixels(frames)
	if err != nil {
		return nil, err
	}
	bounds := canvasBounds(imgs).Union(image.Rect(0, 0, imgs[0].width, imgs[0].height))
	canvas := newCanvas(bounds.Max.X, bounds.Max.Y, color.NRGBA{})
	out := make([]magick.NativeImage, 0, len(imgs))
	for i, img := range imgs {
		previous := canvas
		canvas = imaging.Overlay(canvas, pix[i], img.page, 1)
		frame := img.derive(imaging.Clone(canvas))
		frame.page = image.Point{}
		frame.alpha = !isOpaque(canvas)
		out = append(out, frame)
		switch img.disposal {
		case gif.DisposalBackground:
			r := image.Rect(0, 0, img.width, img.height).Add(img.page)
			canvas = imaging.Clone(canvas)
			draw.Draw(canvas, r, image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return out, nil
}

// Layers implements magick.Engine for the Merge, Flatten and Mosaic methods
func (e *Engine) Layers(frames []magick.NativeImage, method magick.LayerMethod) (magick.NativeImage, error) {
	imgs, pix, err := framePixels(frames)
	if err != nil {
		return nil, err
	}
	var (
		bounds     image.Rectangle
		background = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	)
	switch method {
	case magick.LayerMerge:
		bounds = canvasBounds(imgs)
		background = color.NRGBA{}
	case magick.LayerFlatten:
		bounds = image.Rect(0, 0, imgs[0].width, imgs[0].height)
	case magick.LayerMosaic:
		b := canvasBounds(imgs)
		bounds = image.Rect(0, 0, max(b.Max.X, 0), max(b.Max.Y, 0))
	default:
		return nil, missingDelegate("layers " + method.String())
	}
	canvas := newCanvas(bounds.Dx(), bounds.Dy(), background)
	for i, img := range imgs {
		canvas = imaging.Overlay(canvas, pix[i], img.page.Sub(bounds.Min), 1)
	}
	out := imgs[0].derive(canvas)
	out.page = image.Point{}
	if method == magick.LayerMerge {
		out.page = bounds.Min
		out.alpha = true
	}
	return out, nil
}

// Combine implements magick.Engine, the intensity of each frame becomes
// one channel of the result in R, G, B, A order
func (e *Engine) Combine(frames []magick.NativeImage, colorSpace magick.ColorSpace) (magick.NativeImage, error) {
	imgs, pix, err := framePixels(frames)
	if err != nil {
		return nil, err
	}
	n := 4
	switch colorSpace {
	case magick.ColorSpaceGray:
		n = 1
	case magick.ColorSpaceSRGB, magick.ColorSpaceRGB, magick.ColorSpaceUndefined:
	default:
		return nil, missingDelegate("combine " + colorSpace.String())
	}
	pix = pix[:min(len(pix), n)]
	w, h := imgs[0].width, imgs[0].height
	canvas := newCanvas(w, h, color.NRGBA{A: 0xff})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			j := canvas.PixOffset(x, y)
			for c, p := range pix {
				if !(image.Point{X: x, Y: y}).In(p.Rect) {
					continue
				}
				v := clamp8(intensityAt(p, p.PixOffset(x, y)))
				if colorSpace == magick.ColorSpaceGray {
					canvas.Pix[j], canvas.Pix[j+1], canvas.Pix[j+2] = v, v, v
				} else {
					canvas.Pix[j+c] = v
				}
			}
		}
	}
	out := imgs[0].derive(canvas)
	out.alpha = len(pix) > 3
	if colorSpace == magick.ColorSpaceGray {
		out.colorSpace = magick.ColorSpaceGray
	} else {
		out.colorSpace = magick.ColorSpaceSRGB
	}
	return out, nil
}

// Evaluate implements magick.Engine, applying operator per pixel across frames
func (e *Engine) Evaluate(frames []magick.NativeImage, operator magick.EvaluateOperator) (magick.NativeImage, error) {
	imgs, pix, err := framePixels(frames)
	if err != nil {
		return nil, err
	}
	for _, p := range pix[1:] {
		if p.Rect.Size() != pix[0].Rect.Size() {
			return nil, magick.NewException(magick.ImageError,
				"image widths or heights differ", "evaluate")
		}
	}
	var reduce func(values []float64) float64
	switch operator {
	case magick.EvaluateMean:
		reduce = func(values []float64) float64 { return sum(values) / float64(len(values)) }
	case magick.EvaluateAdd, magick.EvaluateSum:
		reduce = sum
	case magick.EvaluateSubtract:
		reduce = func(values []float64) float64 { return 2*values[0] - sum(values) }
	case magick.EvaluateMultiply:
		reduce = func(values []float64) float64 {
			out := 1.0
			for _, v := range values {
				out *= v / 255
			}
			return out * 255
		}
	case magick.EvaluateMin:
		reduce = slices.Min[[]float64]
	case magick.EvaluateMax:
		reduce = slices.Max[[]float64]
	case magick.EvaluateMedian:
		reduce = func(values []float64) float64 {
			slices.Sort(values)
			return values[len(values)/2]
		}
	default:
		return nil, missingDelegate("evaluate " + operator.String())
	}
	out := imaging.Clone(pix[0])
	values := make([]float64, len(pix))
	for i := range out.Pix {
		for k, p := range pix {
			values[k] = float64(p.Pix[i])
		}
		out.Pix[i] = clamp8(math.Round(reduce(values)))
	}
	res := imgs[0].derive(out)
	res.alpha = anyAlpha(imgs)
	return res, nil
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}
