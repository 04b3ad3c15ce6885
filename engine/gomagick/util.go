package gomagick

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/cshum/magick"
)

const quantumScale = float64(magick.QuantumMax) / 255

// quantum 8 bit value in quantum scale
func quantum(v uint8) float64 {
	return float64(v) * quantumScale
}

// scale16 8 bit value widened to 16 bits
func scale16(v uint8) uint16 {
	return uint16(v) * 0x101
}

// byteOf quantum value clamped into 8 bits
func byteOf(v float64) uint8 {
	v = math.Round(v / quantumScale)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// mapChannels applies fn in quantum scale to the selected channels
func mapChannels(p *image.NRGBA, channels magick.Channels, fn func(v float64) float64) *image.NRGBA {
	ch := channels.Resolve()
	return imaging.AdjustFunc(p, func(c color.NRGBA) color.NRGBA {
		if ch.Has(magick.ChannelRed) {
			c.R = byteOf(fn(quantum(c.R)))
		}
		if ch.Has(magick.ChannelGreen) {
			c.G = byteOf(fn(quantum(c.G)))
		}
		if ch.Has(magick.ChannelBlue) {
			c.B = byteOf(fn(quantum(c.B)))
		}
		if ch.Has(magick.ChannelAlpha) && ch != magick.ChannelsComposite {
			c.A = byteOf(fn(quantum(c.A)))
		}
		return c
	})
}

// keepChannels copies the channels not selected from src into dst
func keepChannels(src, dst *image.NRGBA, channels magick.Channels) *image.NRGBA {
	ch := channels.Resolve()
	if ch.Has(magick.ChannelsRGB | magick.ChannelAlpha) {
		return dst
	}
	for i := 0; i+3 < len(dst.Pix) && i+3 < len(src.Pix); i += 4 {
		if !ch.Has(magick.ChannelRed) {
			dst.Pix[i] = src.Pix[i]
		}
		if !ch.Has(magick.ChannelGreen) {
			dst.Pix[i+1] = src.Pix[i+1]
		}
		if !ch.Has(magick.ChannelBlue) {
			dst.Pix[i+2] = src.Pix[i+2]
		}
		if !ch.Has(magick.ChannelAlpha) {
			dst.Pix[i+3] = src.Pix[i+3]
		}
	}
	return dst
}

// toNRGBA converts the results of image libraries working in RGBA
func toNRGBA(img image.Image) *image.NRGBA {
	if p, ok := img.(*image.NRGBA); ok && p.Rect.Min == (image.Point{}) {
		return p
	}
	return imaging.Clone(img)
}

func intensity(c color.NRGBA) float64 {
	return 0.212656*float64(c.R) + 0.715158*float64(c.G) + 0.072186*float64(c.B)
}

func nrgbaOf(c magick.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
