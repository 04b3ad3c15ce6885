package gomagick

import (
	"go.uber.org/zap"

	"github.com/cshum/magick"
)

// Version engine version
const Version = "1.0.0"

// Engine pure Go implementation of magick.Engine
type Engine struct {
	Logger *zap.Logger
	// DefaultQuality JPEG quality when the settings carry none
	DefaultQuality int
	// MaxFrames upper bound of frames decoded from an animation, zero means no limit
	MaxFrames int
}

// New creates Engine
func New(options ...Option) *Engine {
	e := &Engine{
		Logger:         zap.NewNop(),
		DefaultQuality: 92,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Name implements magick.Engine
func (e *Engine) Name() string {
	return "gomagick"
}

// Version implements magick.Engine
func (e *Engine) Version() string {
	return Version
}

// Formats implements magick.Engine
func (e *Engine) Formats() []magick.FormatInfo {
	return []magick.FormatInfo{
		{Format: magick.FormatBMP, Description: "Microsoft Windows bitmap image", MimeType: "image/bmp", SupportsReading: true, SupportsWriting: true},
		{Format: magick.FormatGIF, Description: "CompuServe graphics interchange format", MimeType: "image/gif", SupportsReading: true, SupportsWriting: true, SupportsMultipleFrames: true},
		{Format: magick.FormatJPEG, Description: "Joint Photographic Experts Group JFIF format", MimeType: "image/jpeg", SupportsReading: true, SupportsWriting: true},
		{Format: magick.FormatPNG, Description: "Portable Network Graphics", MimeType: "image/png", SupportsReading: true, SupportsWriting: true},
		{Format: magick.FormatTIFF, Description: "Tagged Image File Format", MimeType: "image/tiff", SupportsReading: true, SupportsWriting: true},
		{Format: magick.FormatWEBP, Description: "WebP Image Format", MimeType: "image/webp", SupportsReading: true},
	}
}

// NewImage implements magick.Engine
func (e *Engine) NewImage(width, height int, background magick.Color) (magick.NativeImage, error) {
	img := newImage(newCanvas(width, height, background), magick.FormatUnknown)
	img.alpha = background.A < magick.QuantumMax
	return img, nil
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

// WithDefaultQuality with JPEG quality used when settings carry none
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

func missingDelegate(operation string) error {
	return magick.NewException(magick.MissingDelegateError,
		"delegate library support not built-in", operation)
}
