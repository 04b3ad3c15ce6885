package magick

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Version magick version
const Version = "1.0.0"

// Observer receives the name, duration and outcome of every engine call
type Observer func(operation string, duration time.Duration, err error)

// WarningHandler receives engine warnings that did not abort an operation
type WarningHandler func(warning *Exception)

// ResourceLimits upper bounds checked on every image read, zero means no limit
type ResourceLimits struct {
	Width  int
	Height int
	Area   int64
}

// Magick binds an engine and creates images backed by it
type Magick struct {
	Engine         Engine
	Logger         *zap.Logger
	Debug          bool
	Limits         ResourceLimits
	Observer       Observer
	WarningHandler WarningHandler
}

// New creates Magick bound to the engine
func New(engine Engine, options ...Option) *Magick {
	m := &Magick{
		Engine: engine,
		Logger: zap.NewNop(),
	}
	for _, option := range options {
		option(m)
	}
	if m.Debug {
		m.Logger.Debug("magick",
			zap.String("engine", engine.Name()),
			zap.String("engine_version", engine.Version()),
			zap.Int("limit_width", m.Limits.Width),
			zap.Int("limit_height", m.Limits.Height),
			zap.Int64("limit_area", m.Limits.Area),
		)
	}
	return m
}

// Formats formats supported by the engine
func (m *Magick) Formats() []FormatInfo {
	return m.Engine.Formats()
}

// FormatInfo support of a format by the engine
func (m *Magick) FormatInfo(format Format) (FormatInfo, bool) {
	return FindFormat(m.Engine.Formats(), format)
}

// NewImage creates an empty image without handle, to be read into
func (m *Magick) NewImage() *Image {
	return newImage(m, nil, NewSettings())
}

// NewImageColor creates an image of width x height filled with color
func (m *Magick) NewImageColor(color Color, width, height int) (*Image, error) {
	if width <= 0 {
		return nil, argError("width", "value should be greater than zero")
	}
	if height <= 0 {
		return nil, argError("height", "value should be greater than zero")
	}
	if err := m.checkSize(width, height); err != nil {
		return nil, err
	}
	var h NativeImage
	err := m.call("NewImage", func() (err error) {
		h, err = m.Engine.NewImage(width, height, color)
		return
	})
	if err = m.accept(err, nil); err != nil {
		return nil, err
	}
	settings := NewSettings()
	settings.BackgroundColor = color
	return newImage(m, h, settings), nil
}

// ReadImage reads an image from bytes
func (m *Magick) ReadImage(data []byte, settings ...*ReadSettings) (*Image, error) {
	img := m.NewImage()
	if err := img.Read(data, settings...); err != nil {
		return nil, err
	}
	return img, nil
}

// ReadImageFile reads an image from a file
func (m *Magick) ReadImageFile(name string, settings ...*ReadSettings) (*Image, error) {
	return m.ReadImageFileContext(context.Background(), name, settings...)
}

// ReadImageFileContext reads an image from a file, ctx is honored until the engine is entered
func (m *Magick) ReadImageFileContext(ctx context.Context, name string, settings ...*ReadSettings) (*Image, error) {
	img := m.NewImage()
	if err := img.ReadFileContext(ctx, name, settings...); err != nil {
		return nil, err
	}
	return img, nil
}

// ReadImageStream reads an image from a reader
func (m *Magick) ReadImageStream(r io.Reader, settings ...*ReadSettings) (*Image, error) {
	img := m.NewImage()
	if err := img.ReadStream(r, settings...); err != nil {
		return nil, err
	}
	return img, nil
}

// PingImage reads the image header only
func (m *Magick) PingImage(data []byte, settings ...*ReadSettings) (*Image, error) {
	img := m.NewImage()
	if err := img.Ping(data, settings...); err != nil {
		return nil, err
	}
	return img, nil
}

// NewCollection creates an empty collection
func (m *Magick) NewCollection() *Collection {
	return &Collection{magick: m}
}

// ReadCollection reads all frames from bytes
func (m *Magick) ReadCollection(data []byte, settings ...*ReadSettings) (*Collection, error) {
	c := m.NewCollection()
	if err := c.Read(data, settings...); err != nil {
		return nil, err
	}
	return c, nil
}

// call runs an engine call and reports it to the observer
func (m *Magick) call(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if m.Observer != nil {
		m.Observer(operation, time.Since(start), err)
	}
	return err
}

// accept turns warning exceptions into notifications, other errors are returned
func (m *Magick) accept(err error, handler WarningHandler) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Exception)
	if !ok || !e.IsWarning() {
		return err
	}
	m.Logger.Warn("engine warning",
		zap.String("severity", e.Severity.String()),
		zap.String("message", e.Error()))
	if handler == nil {
		handler = m.WarningHandler
	}
	if handler != nil {
		handler(e)
	}
	return nil
}

func (m *Magick) checkSize(width, height int) error {
	l := m.Limits
	if (l.Width > 0 && width > l.Width) ||
		(l.Height > 0 && height > l.Height) ||
		(l.Area > 0 && int64(width)*int64(height) > l.Area) {
		return NewException(ResourceLimitError, "width or height exceeds limit",
			fmt.Sprintf("%dx%d", width, height))
	}
	return nil
}

func (m *Magick) read(data []byte, settings *ReadSettings, ping bool, handler WarningHandler) ([]NativeImage, error) {
	if len(data) == 0 {
		return nil, argError("data", "value cannot be empty")
	}
	if settings == nil {
		settings = NewReadSettings()
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	var frames []NativeImage
	op := "Read"
	if ping {
		op = "Ping"
	}
	err := m.call(op, func() (err error) {
		if ping {
			frames, err = m.Engine.Ping(data, settings)
		} else {
			frames, err = m.Engine.Read(data, settings)
		}
		return
	})
	if err = m.accept(err, handler); err != nil {
		destroyAll(frames)
		return nil, err
	}
	if len(frames) == 0 {
		return nil, NewException(CorruptImageError, "no images found", "")
	}
	for _, f := range frames {
		if err = m.checkSize(f.Width(), f.Height()); err != nil {
			destroyAll(frames)
			return nil, err
		}
	}
	return frames, nil
}

func (m *Magick) write(frames []NativeImage, settings *Settings, handler WarningHandler) ([]byte, error) {
	var buf []byte
	err := m.call("Write", func() (err error) {
		buf, err = m.Engine.Write(frames, settings)
		return
	})
	if err = m.accept(err, handler); err != nil {
		return nil, err
	}
	return buf, nil
}

func destroyAll(frames []NativeImage) {
	for _, f := range frames {
		if f != nil {
			f.Destroy()
		}
	}
}

func readFileContext(ctx context.Context, name string) ([]byte, error) {
	if err := checkNotEmpty("fileName", name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, NewException(FileOpenError, "unable to open image", err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

func writeFileContext(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(name, data, 0666); err != nil {
		return NewException(FileOpenError, "unable to write image", err.Error())
	}
	return nil
}
