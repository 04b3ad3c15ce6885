package gomagick

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"strconv"
	"strings"

	// register decoders
	_ "image/jpeg"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"go.uber.org/zap"

	"github.com/cshum/magick"
)

func decodeError(err error) error {
	return magick.NewException(magick.CorruptImageError, "improper image header", err.Error())
}

// Read implements magick.Engine
func (e *Engine) Read(data []byte, settings *magick.ReadSettings) ([]magick.NativeImage, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	format := magick.ParseFormat(name)
	var frames []*Image
	if format == magick.FormatGIF {
		if frames, err = e.decodeGIF(data); err != nil {
			return nil, err
		}
	} else {
		src, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, decodeError(err)
		}
		img := newImage(imaging.Clone(src), format)
		img.alpha = !isOpaque(img.pix)
		switch src.(type) {
		case *image.Gray, *image.Gray16:
			img.colorSpace = magick.ColorSpaceGray
		}
		frames = []*Image{img}
	}
	if frames, err = selectFrames(frames, settings); err != nil {
		return nil, err
	}
	if settings != nil && settings.ExtractArea != nil {
		for i, f := range frames {
			r := settings.ExtractArea.Rectangle()
			frames[i] = f.derive(imaging.Crop(f.pix, image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)))
		}
	}
	out := make([]magick.NativeImage, len(frames))
	for i, f := range frames {
		out[i] = f
	}
	e.Logger.Debug("read",
		zap.String("format", string(format)),
		zap.Int("frames", len(out)))
	return out, nil
}

// Ping implements magick.Engine
func (e *Engine) Ping(data []byte, settings *magick.ReadSettings) ([]magick.NativeImage, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	img := newImage(nil, magick.ParseFormat(name))
	img.width, img.height = cfg.Width, cfg.Height
	return []magick.NativeImage{img}, nil
}

func (e *Engine) decodeGIF(data []byte) ([]*Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	n := len(g.Image)
	if e.MaxFrames > 0 && n > e.MaxFrames {
		n = e.MaxFrames
	}
	frames := make([]*Image, n)
	for i := 0; i < n; i++ {
		p := g.Image[i]
		img := newImage(imaging.Clone(p), magick.FormatGIF)
		img.page = p.Rect.Min
		img.alpha = !isOpaque(img.pix)
		if i < len(g.Delay) {
			img.delay = g.Delay[i]
		}
		if i < len(g.Disposal) {
			img.disposal = g.Disposal[i]
		}
		img.attributes["gif:loop"] = strconv.Itoa(g.LoopCount)
		frames[i] = img
	}
	return frames, nil
}

func selectFrames(frames []*Image, settings *magick.ReadSettings) ([]*Image, error) {
	if settings == nil || (settings.FrameIndex == 0 && settings.FrameCount == 0) {
		return frames, nil
	}
	if settings.FrameIndex >= len(frames) {
		return nil, magick.NewException(magick.OptionError, "frame index out of range",
			strconv.Itoa(settings.FrameIndex))
	}
	end := len(frames)
	if settings.FrameCount > 0 {
		end = min(end, settings.FrameIndex+settings.FrameCount)
	}
	return frames[settings.FrameIndex:end], nil
}

func isOpaque(p *image.NRGBA) bool {
	for i := 3; i < len(p.Pix); i += 4 {
		if p.Pix[i] != 0xff {
			return false
		}
	}
	return true
}

// Write implements magick.Engine
func (e *Engine) Write(frames []magick.NativeImage, settings *magick.Settings) ([]byte, error) {
	imgs, err := images(frames)
	if err != nil {
		return nil, err
	}
	if len(imgs) == 0 {
		return nil, magick.NewException(magick.ImageError, "no images defined", "write")
	}
	if settings == nil {
		s := magick.NewSettings()
		settings = &s
	}
	format := settings.Format
	if format == magick.FormatUnknown {
		format = imgs[0].format
	}
	for _, img := range imgs {
		if _, err = img.nrgba(); err != nil {
			return nil, err
		}
	}
	buf := &bytes.Buffer{}
	if format == magick.FormatGIF {
		if err = encodeGIF(buf, imgs, settings); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	var f imaging.Format
	var options []imaging.EncodeOption
	src := imgs[0].pix
	switch format {
	case magick.FormatJPEG:
		f = imaging.JPEG
		quality := settings.Quality
		if quality <= 0 {
			quality = e.DefaultQuality
		}
		options = append(options, imaging.JPEGQuality(quality))
		if imgs[0].alpha {
			src = imaging.Overlay(newCanvas(src.Rect.Dx(), src.Rect.Dy(), settings.BackgroundColor), src, image.Point{}, 1)
		}
	case magick.FormatPNG:
		f = imaging.PNG
		options = append(options, imaging.PNGCompressionLevel(pngCompression(settings)))
	case magick.FormatBMP:
		f = imaging.BMP
	case magick.FormatTIFF:
		f = imaging.TIFF
	default:
		return nil, magick.NewException(magick.MissingDelegateError,
			"no encode delegate for this image format", string(format))
	}
	if err = imaging.Encode(buf, src, f, options...); err != nil {
		return nil, magick.NewException(magick.CoderError, "unable to encode image", err.Error())
	}
	if len(imgs) > 1 {
		return buf.Bytes(), magick.NewException(magick.CoderWarning,
			"format does not support multiple frames, wrote the first", string(format))
	}
	return buf.Bytes(), nil
}

func pngCompression(settings *magick.Settings) png.CompressionLevel {
	level := -1
	if v, ok := settings.Define(magick.FormatPNG, "compression-level"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			level = n
		}
	} else if settings.Quality > 0 {
		level = settings.Quality / 10
	}
	switch {
	case level < 0:
		return png.DefaultCompression
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	}
	return png.BestCompression
}

func encodeGIF(buf *bytes.Buffer, imgs []*Image, settings *magick.Settings) error {
	g := &gif.GIF{}
	for _, img := range imgs {
		r := image.Rectangle{Min: img.page, Max: img.page.Add(image.Pt(img.width, img.height))}
		g.Config.Width = max(g.Config.Width, r.Max.X)
		g.Config.Height = max(g.Config.Height, r.Max.Y)
		pal := buildPalette(img.pix, 256)
		p := image.NewPaletted(r, pal)
		var drawer draw.Drawer = draw.Src
		if len(pal) == 256 && countColors(img.pix, 257) > 256 {
			drawer = draw.FloydSteinberg
		}
		drawer.Draw(p, r, img.pix, image.Point{})
		g.Image = append(g.Image, p)
		g.Delay = append(g.Delay, img.delay)
		g.Disposal = append(g.Disposal, img.disposal)
	}
	if v, ok := imgs[0].attributes["gif:loop"]; ok {
		g.LoopCount, _ = strconv.Atoi(v)
	}
	if v, ok := settings.Define(magick.FormatGIF, "loop"); ok {
		g.LoopCount, _ = strconv.Atoi(v)
	}
	if err := gif.EncodeAll(buf, g); err != nil {
		return magick.NewException(magick.CoderError, "unable to encode image", err.Error())
	}
	return nil
}

// countColors counts distinct colors up to limit
func countColors(p *image.NRGBA, limit int) int {
	seen := map[color.NRGBA]struct{}{}
	for i := 0; i+3 < len(p.Pix); i += 4 {
		seen[color.NRGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: p.Pix[i+3]}] = struct{}{}
		if len(seen) >= limit {
			break
		}
	}
	return len(seen)
}
