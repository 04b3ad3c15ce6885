//go:build magickwand

// Package wand implements magick.Engine on the ImageMagick MagickWand C API.
// Build with the magickwand tag and the ImageMagick 7 development headers.
package wand

import (
	"errors"
	"mime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gographics/imagick.v3/imagick"

	"github.com/cshum/magick"
)

var initOnce sync.Once

// Engine MagickWand implementation of magick.Engine
type Engine struct {
	Logger *zap.Logger
	// DefaultQuality encode quality when the settings carry none
	DefaultQuality int
	// MaxFrames upper bound of frames decoded from an animation, zero means no limit
	MaxFrames int
}

// New creates Engine, initializing the MagickWand environment once per process
func New(options ...Option) *Engine {
	initOnce.Do(imagick.Initialize)
	e := &Engine{
		Logger: zap.NewNop(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Name implements magick.Engine
func (e *Engine) Name() string {
	return "wand"
}

// Version implements magick.Engine
func (e *Engine) Version() string {
	v, _ := imagick.GetVersion()
	return v
}

var multiFrameFormats = map[magick.Format]bool{
	magick.FormatGIF:  true,
	magick.FormatWEBP: true,
	magick.FormatTIFF: true,
	magick.FormatPDF:  true,
	magick.FormatICO:  true,
	magick.FormatAVIF: true,
	magick.FormatHEIC: true,
	"APNG":            true,
	"MNG":             true,
}

// Formats implements magick.Engine
func (e *Engine) Formats() []magick.FormatInfo {
	names := imagick.QueryFormats("*")
	sort.Strings(names)
	infos := make([]magick.FormatInfo, 0, len(names))
	for _, name := range names {
		f := magick.ParseFormat(name)
		infos = append(infos, magick.FormatInfo{
			Format:                 f,
			MimeType:               mime.TypeByExtension(f.Extension()),
			SupportsReading:        true,
			SupportsWriting:        true,
			SupportsMultipleFrames: multiFrameFormats[f],
		})
	}
	return infos
}

// NewImage implements magick.Engine
func (e *Engine) NewImage(width, height int, background magick.Color) (magick.NativeImage, error) {
	if width <= 0 || height <= 0 {
		return nil, magick.NewException(magick.OptionError, "negative or zero image size", "new")
	}
	pw := pixelWand(background)
	defer pw.Destroy()
	mw := imagick.NewMagickWand()
	if err := mw.NewImage(uint(width), uint(height), pw); err != nil {
		mw.Destroy()
		return nil, exception(err, "new")
	}
	return &Image{mw: mw}, nil
}

// Read implements magick.Engine
func (e *Engine) Read(data []byte, settings *magick.ReadSettings) ([]magick.NativeImage, error) {
	return e.read(data, settings, false)
}

// Ping implements magick.Engine
func (e *Engine) Ping(data []byte, settings *magick.ReadSettings) ([]magick.NativeImage, error) {
	return e.read(data, settings, true)
}

func (e *Engine) read(data []byte, settings *magick.ReadSettings, ping bool) ([]magick.NativeImage, error) {
	if len(data) == 0 {
		return nil, magick.NewException(magick.BlobError, "zero-length blob not permitted", "read")
	}
	mw := imagick.NewMagickWand()
	defer mw.Destroy()
	if settings != nil {
		applyReadSettings(mw, settings)
	}
	var err error
	if ping {
		err = mw.PingImageBlob(data)
	} else {
		err = mw.ReadImageBlob(data)
	}
	var warning error
	if err != nil {
		ex := exception(err, "read")
		if ex.Severity >= magick.ErrorSeverity {
			return nil, ex
		}
		e.Logger.Debug("read warning", zap.Error(ex))
		warning = ex
	}
	frames := split(mw)
	if settings != nil {
		if frames, err = selectFrames(frames, settings.FrameIndex, settings.FrameCount); err != nil {
			return nil, err
		}
		if area := settings.ExtractArea; area != nil {
			for _, f := range frames {
				img := f.(*Image)
				if err = img.mw.CropImage(uint(area.Width), uint(area.Height), area.X, area.Y); err != nil {
					destroy(frames)
					return nil, exception(err, "extract")
				}
				_ = img.mw.ResetImagePage("")
			}
		}
	}
	if e.MaxFrames > 0 && len(frames) > e.MaxFrames {
		destroy(frames[e.MaxFrames:])
		frames = frames[:e.MaxFrames]
	}
	return frames, warning
}

func applyReadSettings(mw *imagick.MagickWand, settings *magick.ReadSettings) {
	if settings.Format != magick.FormatUnknown {
		_ = mw.SetFormat(string(settings.Format))
	}
	if settings.Width > 0 || settings.Height > 0 {
		_ = mw.SetSize(uint(settings.Width), uint(settings.Height))
	}
	if d := settings.Density; d.X > 0 {
		y := d.Y
		if y <= 0 {
			y = d.X
		}
		_ = mw.SetResolution(d.X, y)
	}
	if settings.Depth > 0 {
		_ = mw.SetDepth(uint(settings.Depth))
	}
	pw := pixelWand(settings.BackgroundColor)
	_ = mw.SetBackgroundColor(pw)
	pw.Destroy()
	if settings.UseMonochrome {
		_ = mw.SetOption("monochrome", "true")
	}
	for key, value := range settings.Options() {
		_ = mw.SetOption(key, value)
	}
}

func selectFrames(frames []magick.NativeImage, index, count int) ([]magick.NativeImage, error) {
	if index == 0 && count == 0 {
		return frames, nil
	}
	if index < 0 || index >= len(frames) {
		destroy(frames)
		return nil, magick.NewException(magick.OptionError, "frame index out of range", "read")
	}
	end := len(frames)
	if count > 0 && index+count < end {
		end = index + count
	}
	destroy(frames[:index])
	destroy(frames[end:])
	return frames[index:end], nil
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
		format = imgs[0].Format()
	}
	if format == magick.FormatUnknown {
		return nil, magick.NewException(magick.MissingDelegateError, "no encode delegate for this image format", "write")
	}
	quality := settings.Quality
	if quality <= 0 {
		quality = e.DefaultQuality
	}
	mw := imagick.NewMagickWand()
	defer mw.Destroy()
	for _, img := range imgs {
		if err = mw.AddImage(img.mw); err != nil {
			return nil, exception(err, "write")
		}
	}
	for key, value := range settings.Options() {
		_ = mw.SetOption(key, value)
	}
	if settings.Interlace != 0 {
		_ = mw.SetInterlaceScheme(imagick.InterlaceType(settings.Interlace))
	}
	mw.ResetIterator()
	for mw.NextImage() {
		if err = mw.SetImageFormat(string(format)); err != nil {
			return nil, exception(err, "write")
		}
		if quality > 0 {
			_ = mw.SetImageCompressionQuality(uint(quality))
		}
		if settings.Depth > 0 {
			_ = mw.SetImageDepth(uint(settings.Depth))
		}
	}
	var blob []byte
	if len(imgs) > 1 && multiFrameFormats[format] {
		blob, err = mw.GetImagesBlob()
	} else {
		mw.SetIteratorIndex(0)
		blob, err = mw.GetImageBlob()
	}
	if err != nil {
		return nil, exception(err, "write")
	}
	return blob, nil
}

// Append implements magick.Engine
func (e *Engine) Append(frames []magick.NativeImage, vertical bool) (magick.NativeImage, error) {
	return reduce(frames, "append", func(mw *imagick.MagickWand) *imagick.MagickWand {
		return mw.AppendImages(vertical)
	})
}

// Coalesce implements magick.Engine
func (e *Engine) Coalesce(frames []magick.NativeImage) ([]magick.NativeImage, error) {
	mw, err := list(frames)
	if err != nil {
		return nil, err
	}
	defer mw.Destroy()
	res := mw.CoalesceImages()
	if res == nil {
		return nil, exception(mw.GetLastError(), "coalesce")
	}
	defer res.Destroy()
	return split(res), nil
}

// Layers implements magick.Engine
func (e *Engine) Layers(frames []magick.NativeImage, method magick.LayerMethod) (magick.NativeImage, error) {
	return reduce(frames, "layers", func(mw *imagick.MagickWand) *imagick.MagickWand {
		return mw.MergeImageLayers(imagick.LayerMethod(method))
	})
}

// Combine implements magick.Engine
func (e *Engine) Combine(frames []magick.NativeImage, colorSpace magick.ColorSpace) (magick.NativeImage, error) {
	return reduce(frames, "combine", func(mw *imagick.MagickWand) *imagick.MagickWand {
		return mw.CombineImages(imagick.ColorspaceType(colorSpace))
	})
}

// Evaluate implements magick.Engine
func (e *Engine) Evaluate(frames []magick.NativeImage, operator magick.EvaluateOperator) (magick.NativeImage, error) {
	return reduce(frames, "evaluate", func(mw *imagick.MagickWand) *imagick.MagickWand {
		return mw.EvaluateImages(imagick.EvaluateOperator(operator))
	})
}

// Smush implements magick.Engine
func (e *Engine) Smush(frames []magick.NativeImage, offset int, vertical bool) (magick.NativeImage, error) {
	return reduce(frames, "smush", func(mw *imagick.MagickWand) *imagick.MagickWand {
		return mw.SmushImages(vertical, offset)
	})
}

// reduce merges frames into a single image with fn
func reduce(frames []magick.NativeImage, operation string, fn func(mw *imagick.MagickWand) *imagick.MagickWand) (magick.NativeImage, error) {
	mw, err := list(frames)
	if err != nil {
		return nil, err
	}
	defer mw.Destroy()
	res := fn(mw)
	if res == nil {
		return nil, exception(mw.GetLastError(), operation)
	}
	if res.GetNumberImages() > 1 {
		defer res.Destroy()
		res.SetIteratorIndex(0)
		return &Image{mw: res.GetImage()}, nil
	}
	return &Image{mw: res}, nil
}

// list copies frames into one wand of the image sequence
func list(frames []magick.NativeImage) (*imagick.MagickWand, error) {
	imgs, err := images(frames)
	if err != nil {
		return nil, err
	}
	if len(imgs) == 0 {
		return nil, magick.NewException(magick.ImageError, "no images defined", "list")
	}
	mw := imagick.NewMagickWand()
	for _, img := range imgs {
		if err = mw.AddImage(img.mw); err != nil {
			mw.Destroy()
			return nil, exception(err, "list")
		}
	}
	return mw, nil
}

// split copies each image of the sequence into its own Image
func split(mw *imagick.MagickWand) []magick.NativeImage {
	n := int(mw.GetNumberImages())
	frames := make([]magick.NativeImage, 0, n)
	for i := 0; i < n; i++ {
		mw.SetIteratorIndex(i)
		frames = append(frames, &Image{mw: mw.GetImage()})
	}
	return frames
}

func destroy(frames []magick.NativeImage) {
	for _, f := range frames {
		f.Destroy()
	}
}

func images(frames []magick.NativeImage) ([]*Image, error) {
	imgs := make([]*Image, 0, len(frames))
	for _, f := range frames {
		img, ok := f.(*Image)
		if !ok || img.mw == nil {
			return nil, magick.NewException(magick.WandError, "image of another engine", "wand")
		}
		imgs = append(imgs, img)
	}
	return imgs, nil
}

func pixelWand(c magick.Color) *imagick.PixelWand {
	pw := imagick.NewPixelWand()
	pw.SetColor(c.String())
	return pw
}

// exception maps a MagickWand error onto *magick.Exception
func exception(err error, operation string) *magick.Exception {
	if err == nil {
		return magick.NewException(magick.WandError, "unknown wand error", operation)
	}
	var ex *magick.Exception
	if errors.As(err, &ex) {
		return ex
	}
	var mwe *imagick.MagickWandException
	if errors.As(err, &mwe) {
		return magick.NewException(magick.Severity(mwe.Kind()), mwe.Description(), operation)
	}
	return magick.NewException(magick.WandError, err.Error(), operation)
}

// Option Engine option
type Option func(e *Engine)

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.Logger = logger
		}
	}
}

// WithDefaultQuality with encode quality used when settings carry none
func WithDefaultQuality(quality int) Option {
	return func(e *Engine) {
		if quality > 0 && quality <= 100 {
			e.DefaultQuality = quality
		}
	}
}

// WithMaxFrames with maximum number of decoded animation frames
func WithMaxFrames(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.MaxFrames = n
		}
	}
}
