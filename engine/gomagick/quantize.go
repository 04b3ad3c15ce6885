package gomagick

import (
	"cmp"
	"image"
	"image/color"
	"image/draw"
	"slices"

	"github.com/disintegration/imaging"

	"github.com/cshum/magick"
)

// buildPalette palette of at most n colors. Images with few colors get
// their exact colors, others the most popular colors of a 15 bit histogram.
// Pixels with alpha below half map to a transparent entry.
func buildPalette(p *image.NRGBA, n int) color.Palette {
	if pal := exactPalette(p, n); pal != nil {
		return pal
	}
	type bucket struct {
		r, g, b, count int
	}
	buckets := map[uint16]*bucket{}
	transparent := false
	for i := 0; i+3 < len(p.Pix); i += 4 {
		if p.Pix[i+3] < 0x80 {
			transparent = true
			continue
		}
		r, g, b := p.Pix[i], p.Pix[i+1], p.Pix[i+2]
		key := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{}
			buckets[key] = bk
		}
		bk.r += int(r)
		bk.g += int(g)
		bk.b += int(b)
		bk.count++
	}
	sorted := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		sorted = append(sorted, bk)
	}
	slices.SortFunc(sorted, func(a, b *bucket) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.r+a.g+a.b, b.r+b.g+b.b)
	})
	var pal color.Palette
	if transparent {
		pal = append(pal, color.NRGBA{})
	}
	for _, bk := range sorted {
		if len(pal) >= n {
			break
		}
		pal = append(pal, color.NRGBA{
			R: uint8(bk.r / bk.count),
			G: uint8(bk.g / bk.count),
			B: uint8(bk.b / bk.count),
			A: 0xff,
		})
	}
	if len(pal) == 0 {
		pal = color.Palette{color.NRGBA{A: 0xff}}
	}
	return pal
}

func exactPalette(p *image.NRGBA, n int) color.Palette {
	seen := map[color.NRGBA]struct{}{}
	var pal color.Palette
	for i := 0; i+3 < len(p.Pix); i += 4 {
		c := color.NRGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: p.Pix[i+3]}
		if c.A < 0x80 {
			c = color.NRGBA{}
		} else {
			c.A = 0xff
		}
		if _, ok := seen[c]; ok {
			continue
		}
		if len(pal) >= n {
			return nil
		}
		seen[c] = struct{}{}
		pal = append(pal, c)
	}
	if len(pal) == 0 {
		return nil
	}
	return pal
}

// Quantize implements magick.NativeImage
func (img *Image) Quantize(settings *magick.QuantizeSettings) (magick.NativeImage, error) {
	if settings.ColorSpace != magick.ColorSpaceUndefined &&
		settings.ColorSpace != magick.ColorSpaceSRGB &&
		settings.ColorSpace != magick.ColorSpaceRGB &&
		settings.ColorSpace != magick.ColorSpaceGray {
		return nil, missingDelegate("quantize " + settings.ColorSpace.String())
	}
	p, err := img.nrgba()
	if err != nil {
		return nil, err
	}
	if settings.ColorSpace == magick.ColorSpaceGray {
		p = imaging.Grayscale(p)
	}
	n := min(settings.Colors, 256)
	pal := buildPalette(p, n)
	out := image.NewPaletted(p.Rect, pal)
	var drawer draw.Drawer = draw.FloydSteinberg
	if settings.DitherMethod == magick.DitherNo {
		drawer = draw.Src
	}
	drawer.Draw(out, out.Rect, p, image.Point{})
	res := img.derive(imaging.Clone(out))
	if settings.ColorSpace == magick.ColorSpaceGray {
		res.colorSpace = magick.ColorSpaceGray
	}
	if settings.MeasureErrors {
		res.attributes["quantize:mean-error"] = formatFloat(meanError(p, res.pix))
	}
	return res, nil
}

func meanError(a, b *image.NRGBA) float64 {
	var sum float64
	for i := range a.Pix {
		d := float64(a.Pix[i]) - float64(b.Pix[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	if len(a.Pix) == 0 {
		return 0
	}
	return sum / float64(len(a.Pix)) / 255
}
