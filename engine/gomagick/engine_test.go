package gomagick

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cshum/magick"
)

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func solid(width, height int, c color.NRGBA) *Image {
	img := newImage(imaging.New(width, height, c), magick.FormatPNG)
	img.alpha = c.A != 0xff
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func at(t *testing.T, h magick.NativeImage, x, y int) color.NRGBA {
	img, ok := h.(*Image)
	require.True(t, ok)
	return img.pix.NRGBAAt(x, y)
}

func TestReadWrite(t *testing.T) {
	e := New()
	src := imaging.New(40, 20, blue)
	src.SetNRGBA(3, 4, red)
	frames, err := e.Read(encodePNG(t, src), nil)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, 40, frames[0].Width())
	assert.Equal(t, 20, frames[0].Height())
	assert.Equal(t, magick.FormatPNG, frames[0].Format())
	assert.False(t, frames[0].HasAlpha())
	assert.Equal(t, red, at(t, frames[0], 3, 4))

	for _, format := range []magick.Format{magick.FormatPNG, magick.FormatBMP, magick.FormatTIFF} {
		t.Run(string(format), func(t *testing.T) {
			settings := magick.NewSettings()
			settings.Format = format
			data, err := e.Write(frames, &settings)
			require.NoError(t, err)
			out, err := e.Read(data, nil)
			require.NoError(t, err)
			assert.Equal(t, format, out[0].Format())
			assert.Equal(t, red, at(t, out[0], 3, 4))
			assert.Equal(t, blue, at(t, out[0], 0, 0))
		})
	}
	t.Run("jpeg", func(t *testing.T) {
		settings := magick.NewSettings()
		settings.Format = magick.FormatJPEG
		settings.Quality = 80
		data, err := e.Write(frames, &settings)
		require.NoError(t, err)
		out, err := e.Read(data, nil)
		require.NoError(t, err)
		assert.Equal(t, magick.FormatJPEG, out[0].Format())
		assert.Equal(t, 40, out[0].Width())
	})
	t.Run("webp is read only", func(t *testing.T) {
		settings := magick.NewSettings()
		settings.Format = magick.FormatWEBP
		_, err := e.Write(frames, &settings)
		assert.True(t, magick.IsException(err, magick.MissingDelegateError))
	})
}

func TestReadCorrupt(t *testing.T) {
	_, err := New().Read([]byte("not an image"), nil)
	assert.True(t, magick.IsException(err, magick.CorruptImageError))
}

func TestPing(t *testing.T) {
	e := New()
	frames, err := e.Ping(encodePNG(t, imaging.New(30, 10, red)), nil)
	require.NoError(t, err)
	assert.Equal(t, 30, frames[0].Width())
	assert.Equal(t, 10, frames[0].Height())
	_, err = frames[0].Blur(1, 1, magick.ChannelsUndefined)
	assert.True(t, magick.IsException(err, magick.CorruptImageError))
}

func TestGIF(t *testing.T) {
	pal := color.Palette{color.Transparent, red, blue}
	g := &gif.GIF{LoopCount: 2}
	for i := 0; i < 3; i++ {
		p := image.NewPaletted(image.Rect(i*2, 0, i*2+4, 4), pal)
		for j := range p.Pix {
			p.Pix[j] = uint8(1 + i%2)
		}
		g.Image = append(g.Image, p)
		g.Delay = append(g.Delay, 10)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	g.Config = image.Config{Width: 8, Height: 4}
	buf := &bytes.Buffer{}
	require.NoError(t, gif.EncodeAll(buf, g))

	e := New()
	frames, err := e.Read(buf.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	loop, ok := frames[0].Attribute("gif:loop")
	assert.True(t, ok)
	assert.Equal(t, "2", loop)

	t.Run("frame selection", func(t *testing.T) {
		rs := magick.NewReadSettings()
		rs.FrameIndex = 1
		rs.FrameCount = 1
		out, err := e.Read(buf.Bytes(), rs)
		require.NoError(t, err)
		assert.Len(t, out, 1)
		rs.FrameIndex = 5
		_, err = e.Read(buf.Bytes(), rs)
		assert.True(t, magick.IsException(err, magick.OptionError))
	})
	t.Run("max frames", func(t *testing.T) {
		out, err := New(WithMaxFrames(2)).Read(buf.Bytes(), nil)
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})
	t.Run("coalesce", func(t *testing.T) {
		out, err := e.Coalesce(frames)
		require.NoError(t, err)
		require.Len(t, out, 3)
		for _, f := range out {
			assert.Equal(t, 8, f.Width())
			assert.Equal(t, 4, f.Height())
		}
		assert.Equal(t, red, at(t, out[2], 0, 0))
		assert.Equal(t, blue, at(t, out[1], 2, 0))
		assert.Equal(t, red, at(t, out[2], 5, 0))
	})
	t.Run("write", func(t *testing.T) {
		settings := magick.NewSettings()
		settings.Format = magick.FormatGIF
		data, err := e.Write(frames, &settings)
		require.NoError(t, err)
		decoded, err := gif.DecodeAll(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Len(t, decoded.Image, 3)
		assert.Equal(t, 2, decoded.LoopCount)
		assert.Equal(t, []int{10, 10, 10}, decoded.Delay)
	})
	t.Run("single frame format", func(t *testing.T) {
		settings := magick.NewSettings()
		settings.Format = magick.FormatPNG
		data, err := e.Write(frames, &settings)
		assert.NotEmpty(t, data)
		assert.True(t, magick.IsException(err, magick.CoderWarning))
	})
}

func TestGeometry(t *testing.T) {
	img := solid(100, 50, red)
	tests := []struct {
		name          string
		fn            func() (magick.NativeImage, error)
		width, height int
	}{
		{"resize", func() (magick.NativeImage, error) { return img.Resize("50x50", magick.FilterUndefined) }, 50, 25},
		{"resize exact", func() (magick.NativeImage, error) { return img.Resize("50x50!", magick.FilterTriangle) }, 50, 50},
		{"thumbnail", func() (magick.NativeImage, error) { return img.Thumbnail("20x20") }, 20, 10},
		{"scale", func() (magick.NativeImage, error) { return img.Scale("200x100") }, 200, 100},
		{"sample", func() (magick.NativeImage, error) { return img.Sample("10x5") }, 10, 5},
		{"crop", func() (magick.NativeImage, error) { return img.Crop("10x10+5+5", magick.GravityUndefined) }, 10, 10},
		{"crop clipped", func() (magick.NativeImage, error) { return img.Crop("30x30+90+40", magick.GravityUndefined) }, 10, 10},
		{"extent", func() (magick.NativeImage, error) { return img.Extent("120x60", magick.GravityCenter, magick.ColorWhite) }, 120, 60},
		{"border", func() (magick.NativeImage, error) { return img.Border(2, 3, magick.ColorBlack) }, 104, 56},
		{"shave", func() (magick.NativeImage, error) { return img.Shave(10, 5) }, 80, 40},
		{"chop", func() (magick.NativeImage, error) { return img.Chop("10x0") }, 90, 50},
		{"rotate", func() (magick.NativeImage, error) { return img.Rotate(90, magick.ColorWhite) }, 50, 100},
		{"transpose", func() (magick.NativeImage, error) { return img.Transpose() }, 50, 100},
		{"flip", func() (magick.NativeImage, error) { return img.Flip() }, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.width, out.Width())
			assert.Equal(t, tt.height, out.Height())
		})
	}
	t.Run("invalid geometry", func(t *testing.T) {
		_, err := img.Resize("abc", magick.FilterUndefined)
		assert.True(t, magick.IsException(err, magick.OptionError))
	})
	t.Run("receiver unchanged", func(t *testing.T) {
		assert.Equal(t, 100, img.Width())
		assert.Equal(t, red, img.pix.NRGBAAt(0, 0))
	})
}

func TestTrim(t *testing.T) {
	p := imaging.New(20, 20, white)
	for y := 5; y < 10; y++ {
		for x := 4; x < 12; x++ {
			p.SetNRGBA(x, y, red)
		}
	}
	out, err := newImage(p, magick.FormatPNG).Trim(0)
	require.NoError(t, err)
	assert.Equal(t, 8, out.Width())
	assert.Equal(t, 5, out.Height())
}

func TestFlopAutoOrient(t *testing.T) {
	p := imaging.New(2, 1, blue)
	p.SetNRGBA(0, 0, red)
	img := newImage(p, magick.FormatJPEG)

	out, err := img.Flop()
	require.NoError(t, err)
	assert.Equal(t, blue, at(t, out, 0, 0))
	assert.Equal(t, red, at(t, out, 1, 0))

	img.SetAttribute("exif:Orientation", "6")
	out, err = img.AutoOrient()
	require.NoError(t, err)
	assert.Equal(t, 1, out.Width())
	assert.Equal(t, 2, out.Height())
}

func TestColor(t *testing.T) {
	img := solid(4, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 0xff})

	out, err := img.Negate(false, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 55, G: 155, B: 205, A: 0xff}, at(t, out, 0, 0))

	out, err = img.Negate(false, magick.ChannelRed)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 55, G: 100, B: 50, A: 0xff}, at(t, out, 0, 0))

	out, err = img.Threshold(magick.QuantumMax/2, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0, B: 0, A: 0xff}, at(t, out, 1, 1))

	out, err = img.Grayscale(magick.PixelIntensityAverage)
	require.NoError(t, err)
	assert.Equal(t, magick.ColorSpaceGray, out.ColorSpace())
	c := at(t, out, 0, 0)
	assert.Equal(t, uint8(117), c.R)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.R, c.B)

	out, err = img.Modulate(100, 100, 100)
	require.NoError(t, err)
	c = at(t, out, 0, 0)
	assert.InDelta(t, 200, int(c.R), 1)
	assert.InDelta(t, 100, int(c.G), 1)
	assert.InDelta(t, 50, int(c.B), 1)

	out, err = img.EvaluateOperator(magick.EvaluateSet, 0, magick.ChannelBlue)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 0, A: 0xff}, at(t, out, 0, 0))

	out, err = img.EvaluateOperator(magick.EvaluateMultiply, 2, magick.ChannelsRGB)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 200, B: 100, A: 0xff}, at(t, out, 0, 0))

	out, err = img.Level(0, magick.QuantumMax, 1, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, at(t, img, 0, 0), at(t, out, 0, 0))

	out, err = img.Solarize(magick.QuantumMax / 2)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 55, G: 100, B: 50, A: 0xff}, at(t, out, 0, 0))

	_, err = img.Gamma(0, magick.ChannelsUndefined)
	assert.True(t, magick.IsException(err, magick.OptionError))

	_, err = img.Deskew(40)
	assert.True(t, magick.IsException(err, magick.MissingDelegateError))

	_, err = img.TransformColorSpace(magick.ColorSpaceCMYK)
	assert.True(t, magick.IsException(err, magick.MissingDelegateError))
}

func TestFilters(t *testing.T) {
	img := solid(16, 16, red)
	for name, fn := range map[string]func() (magick.NativeImage, error){
		"blur":           func() (magick.NativeImage, error) { return img.Blur(0, 1, magick.ChannelsUndefined) },
		"adaptive blur":  func() (magick.NativeImage, error) { return img.AdaptiveBlur(2, 1) },
		"sharpen":        func() (magick.NativeImage, error) { return img.Sharpen(0, 1, magick.ChannelsUndefined) },
		"unsharp":        func() (magick.NativeImage, error) { return img.UnsharpMask(0, 1, 1, 0.05, magick.ChannelsUndefined) },
		"median":         func() (magick.NativeImage, error) { return img.Median(1) },
		"erode":          func() (magick.NativeImage, error) { return img.Morphology(magick.MorphologyErode, "Disk:1", 1, magick.ChannelsUndefined) },
		"convolve":       func() (magick.NativeImage, error) { return img.Morphology(magick.MorphologyConvolve, "3x3: 0,0,0,0,1,0,0,0,0", 1, magick.ChannelsUndefined) },
		"sepia":          func() (magick.NativeImage, error) { return img.SepiaTone(0.8 * magick.QuantumMax) },
		"swirl":          func() (magick.NativeImage, error) { return img.Swirl(90) },
		"brightness":     func() (magick.NativeImage, error) { return img.BrightnessContrast(0, 0, magick.ChannelsUndefined) },
		"adaptive thres": func() (magick.NativeImage, error) { return img.AdaptiveThreshold(3, 3, 0, magick.ChannelsUndefined) },
	} {
		t.Run(name, func(t *testing.T) {
			out, err := fn()
			require.NoError(t, err)
			assert.Equal(t, 16, out.Width())
			assert.Equal(t, 16, out.Height())
		})
	}
	t.Run("uniform stays uniform", func(t *testing.T) {
		out, err := img.Blur(0, 1, magick.ChannelsUndefined)
		require.NoError(t, err)
		assert.Equal(t, red, at(t, out, 8, 8))
		out, err = img.Morphology(magick.MorphologyConvolve, "3x3: 0,0,0,0,1,0,0,0,0", 1, magick.ChannelsUndefined)
		require.NoError(t, err)
		assert.Equal(t, red, at(t, out, 8, 8))
	})
	t.Run("invalid kernel", func(t *testing.T) {
		_, err := img.Morphology(magick.MorphologyErode, "Blob:1", 1, magick.ChannelsUndefined)
		assert.True(t, magick.IsException(err, magick.OptionError))
		_, err = img.Morphology(magick.MorphologyConvolve, "3x3: 1,2", 1, magick.ChannelsUndefined)
		assert.True(t, magick.IsException(err, magick.OptionError))
	})
	t.Run("oil paint", func(t *testing.T) {
		_, err := img.OilPaint(1, 1)
		assert.True(t, magick.IsException(err, magick.MissingDelegateError))
	})
}

func TestComposite(t *testing.T) {
	bg := solid(10, 10, blue)
	fg := solid(4, 4, red)

	out, err := bg.Composite(fg, 2, 3, magick.CompositeOver, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, blue, at(t, out, 1, 3))
	assert.Equal(t, red, at(t, out, 2, 3))
	assert.Equal(t, red, at(t, out, 5, 6))
	assert.Equal(t, blue, at(t, out, 6, 7))

	out, err = bg.Composite(fg, 8, 8, magick.CompositeMultiply, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 0xff}, at(t, out, 9, 9))
	assert.Equal(t, blue, at(t, out, 7, 7))

	out, err = bg.Composite(fg, 0, 0, magick.CompositeClear, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), at(t, out, 0, 0).A)

	out, err = bg.Composite(fg, 20, 20, magick.CompositeOver, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, blue, at(t, out, 0, 0))

	_, err = bg.Composite(fg, 0, 0, magick.CompositeColorize, magick.ChannelsUndefined)
	assert.True(t, magick.IsException(err, magick.MissingDelegateError))
}

func TestCompare(t *testing.T) {
	a := solid(4, 4, red)
	b := solid(4, 4, red)
	for _, metric := range []magick.ErrorMetric{
		magick.ErrorMetricAbsolute,
		magick.ErrorMetricMeanAbsolute,
		magick.ErrorMetricMeanSquared,
		magick.ErrorMetricRootMeanSquared,
		magick.ErrorMetricPeakAbsolute,
	} {
		d, err := a.Compare(b, metric, magick.ChannelsUndefined)
		require.NoError(t, err)
		assert.Zero(t, d, metric.String())
	}
	d, err := a.Compare(b, magick.ErrorMetricPeakSignalToNoiseRatio, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.True(t, math.IsInf(d, 1))

	b.pix.SetNRGBA(1, 1, blue)
	d, err = a.Compare(b, magick.ErrorMetricAbsolute, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, 1.0, d)
	d, err = a.Compare(b, magick.ErrorMetricPeakAbsolute, magick.ChannelsUndefined)
	require.NoError(t, err)
	assert.Equal(t, 1.0, d)
	d, err = a.Compare(b, magick.ErrorMetricAbsolute, magick.ChannelGreen)
	require.NoError(t, err)
	assert.Zero(t, d)

	t.Run("difference", func(t *testing.T) {
		a.SetArtifact("compare:highlight-color", "#00ff00")
		defer a.RemoveArtifact("compare:highlight-color")
		d, diff, err := a.CompareDifference(b, magick.ErrorMetricAbsolute, magick.ChannelsUndefined)
		require.NoError(t, err)
		assert.Equal(t, 1.0, d)
		assert.Equal(t, color.NRGBA{G: 0xff, A: 0xff}, at(t, diff, 1, 1))
		assert.NotEqual(t, color.NRGBA{G: 0xff, A: 0xff}, at(t, diff, 0, 0))
	})
	t.Run("size mismatch", func(t *testing.T) {
		_, err := a.Compare(solid(2, 2, red), magick.ErrorMetricAbsolute, magick.ChannelsUndefined)
		assert.True(t, magick.IsException(err, magick.ImageError))
	})
}

func TestStatistics(t *testing.T) {
	p := imaging.New(2, 1, color.NRGBA{R: 0, G: 0x80, B: 0xff, A: 0xff})
	p.SetNRGBA(1, 0, color.NRGBA{R: 0xff, G: 0x80, B: 0xff, A: 0xff})
	stats, err := newImage(p, magick.FormatPNG).Statistics(magick.ChannelsUndefined)
	require.NoError(t, err)
	require.Len(t, stats.Channels, 3)

	r, ok := stats.Channel(magick.ChannelRed)
	require.True(t, ok)
	assert.Equal(t, 0.0, r.Minimum)
	assert.Equal(t, float64(magick.QuantumMax), r.Maximum)
	assert.InDelta(t, magick.QuantumMax/2, r.Mean, 1)
	assert.InDelta(t, 1.0/8, r.Entropy, 1e-9)

	b, ok := stats.Channel(magick.ChannelBlue)
	require.True(t, ok)
	assert.Zero(t, b.StandardDeviation)
	assert.Zero(t, b.Entropy)
}

func TestPixels(t *testing.T) {
	img := solid(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff})

	data, err := img.ExportPixels(0, 0, 1, 1, "RGBA", magick.StorageChar)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 0xff}, data)

	data, err = img.ExportPixels(1, 1, 1, 1, "BGR", magick.StorageShort)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1e, 0x1e, 0x14, 0x14, 0x0a, 0x0a}, data)
	assert.Equal(t, uint16(0xffff), scale16(0xff))
	assert.Equal(t, uint16(0), scale16(0))

	for _, storage := range []magick.StorageType{
		magick.StorageChar, magick.StorageShort, magick.StorageQuantum,
		magick.StorageLong, magick.StorageLongLong, magick.StorageFloat, magick.StorageDouble,
	} {
		in := make([]byte, 4*3*storage.Size())
		codec := sampleCodecs[storage]
		for i := 0; i < 4*3; i++ {
			codec.encode(in[i*storage.Size():], uint8(i*20))
		}
		out, err := img.ImportPixels(1, 0, 2, 2, "RGB", storage, in)
		require.NoError(t, err)
		back, err := out.ExportPixels(1, 0, 2, 2, "RGB", storage)
		require.NoError(t, err)
		assert.Equal(t, in, back)
		assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff}, at(t, out, 0, 0))
	}

	t.Run("alpha mapping", func(t *testing.T) {
		out, err := img.ImportPixels(0, 0, 1, 1, "O", magick.StorageChar, []byte{0xff})
		require.NoError(t, err)
		assert.True(t, out.HasAlpha())
		assert.Equal(t, uint8(0), at(t, out, 0, 0).A)
	})
	t.Run("errors", func(t *testing.T) {
		_, err := img.ExportPixels(2, 1, 2, 2, "RGB", magick.StorageChar)
		assert.True(t, magick.IsException(err, magick.OptionError))
		_, err = img.ExportPixels(0, 0, 1, 1, "RGBX", magick.StorageChar)
		assert.True(t, magick.IsException(err, magick.OptionError))
		_, err = img.ImportPixels(0, 0, 1, 1, "RGB", magick.StorageChar, []byte{1})
		assert.True(t, magick.IsException(err, magick.OptionError))
		_, err = img.ExportPixels(0, 0, 1, 1, "RGB", magick.StorageUndefined)
		assert.True(t, magick.IsException(err, magick.OptionError))
	})
}

func TestList(t *testing.T) {
	e := New()
	a, b := solid(10, 5, red), solid(6, 8, blue)
	frames := []magick.NativeImage{a, b}

	out, err := e.Append(frames, false)
	require.NoError(t, err)
	assert.Equal(t, 16, out.Width())
	assert.Equal(t, 8, out.Height())
	assert.Equal(t, white, at(t, out, 0, 7))
	assert.Equal(t, blue, at(t, out, 10, 7))

	out, err = e.Append(frames, true)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Width())
	assert.Equal(t, 13, out.Height())

	out, err = e.Smush(frames, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 15, out.Height())

	b.page = image.Pt(8, 0)
	defer func() { b.page = image.Point{} }()
	out, err = e.Layers(frames, magick.LayerMosaic)
	require.NoError(t, err)
	assert.Equal(t, 14, out.Width())
	assert.Equal(t, 8, out.Height())

	out, err = e.Layers(frames, magick.LayerFlatten)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Width())
	assert.Equal(t, 5, out.Height())
	assert.Equal(t, blue, at(t, out, 9, 0))

	out, err = e.Layers(frames, magick.LayerMerge)
	require.NoError(t, err)
	assert.Equal(t, 14, out.Width())
	assert.True(t, out.HasAlpha())
	assert.Equal(t, uint8(0), at(t, out, 0, 6).A)

	_, err = e.Layers(frames, magick.LayerOptimize)
	assert.True(t, magick.IsException(err, magick.MissingDelegateError))

	_, err = e.Append(nil, false)
	assert.True(t, magick.IsException(err, magick.OptionError))
}

func TestEvaluateCombine(t *testing.T) {
	e := New()
	frames := []magick.NativeImage{
		solid(2, 2, color.NRGBA{R: 10, G: 10, B: 10, A: 0xff}),
		solid(2, 2, color.NRGBA{R: 30, G: 50, B: 70, A: 0xff}),
		solid(2, 2, color.NRGBA{R: 20, G: 90, B: 40, A: 0xff}),
	}
	tests := []struct {
		operator magick.EvaluateOperator
		expected color.NRGBA
	}{
		{magick.EvaluateMean, color.NRGBA{R: 20, G: 50, B: 40, A: 0xff}},
		{magick.EvaluateMin, color.NRGBA{R: 10, G: 10, B: 10, A: 0xff}},
		{magick.EvaluateMax, color.NRGBA{R: 30, G: 90, B: 70, A: 0xff}},
		{magick.EvaluateMedian, color.NRGBA{R: 20, G: 50, B: 40, A: 0xff}},
		{magick.EvaluateSum, color.NRGBA{R: 60, G: 150, B: 120, A: 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.operator.String(), func(t *testing.T) {
			out, err := e.Evaluate(frames, tt.operator)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, at(t, out, 1, 1))
		})
	}
	_, err := e.Evaluate(append(frames, solid(3, 3, red)), magick.EvaluateMean)
	assert.True(t, magick.IsException(err, magick.ImageError))

	out, err := e.Combine([]magick.NativeImage{solid(2, 2, white), solid(2, 2, color.NRGBA{A: 0xff}), solid(2, 2, white)}, magick.ColorSpaceSRGB)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, B: 0xff, A: 0xff}, at(t, out, 0, 0))
}

func TestQuantize(t *testing.T) {
	p := imaging.New(8, 8, red)
	for x := 0; x < 8; x++ {
		p.SetNRGBA(x, 0, blue)
	}
	img := newImage(p, magick.FormatPNG)
	settings := magick.NewQuantizeSettings()
	settings.Colors = 2
	settings.DitherMethod = magick.DitherNo
	settings.MeasureErrors = true
	out, err := img.Quantize(settings)
	require.NoError(t, err)
	assert.Equal(t, blue, at(t, out, 0, 0))
	assert.Equal(t, red, at(t, out, 0, 1))
	v, ok := out.Attribute("quantize:mean-error")
	assert.True(t, ok)
	assert.Equal(t, "0", v)
}

func TestStripProfiles(t *testing.T) {
	img := solid(2, 2, red)
	require.NoError(t, img.SetProfile("icc", []byte{1, 2, 3}))
	img.SetAttribute("comment", "hello")
	img.SetArtifact("distort:viewport", "2x2")
	out, err := img.Strip()
	require.NoError(t, err)
	assert.Empty(t, out.ProfileNames())
	assert.Empty(t, out.AttributeNames())
	_, ok := out.Artifact("distort:viewport")
	assert.True(t, ok)
	assert.Equal(t, []string{"icc"}, img.ProfileNames())

	require.NoError(t, img.SetProfile("icc", nil))
	assert.Empty(t, img.ProfileNames())
}

func TestDestroy(t *testing.T) {
	img := solid(2, 2, red)
	img.Destroy()
	img.Destroy()
	_, err := img.Flip()
	assert.True(t, magick.IsException(err, magick.CorruptImageError))
}

func TestForeignImage(t *testing.T) {
	_, err := New().Append([]magick.NativeImage{nil}, false)
	assert.True(t, magick.IsException(err, magick.ImageError))
}
