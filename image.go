package magick

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Image owns one engine image handle.
// Transform operations of the embedded in-place Mutator replace the
// handle, e.g. img.Resize(g). An Image must not be used concurrently.
type Image struct {
	*Mutator

	magick         *Magick
	handle         NativeImage
	settings       Settings
	warningHandler WarningHandler
	closed         bool
}

func newImage(m *Magick, h NativeImage, settings Settings) *Image {
	img := &Image{
		magick:         m,
		handle:         h,
		settings:       settings,
		warningHandler: m.WarningHandler,
	}
	img.Mutator = newInPlaceMutator(img)
	return img
}

// SetWarningHandler sets the handler of engine warnings raised by this image
func (img *Image) SetWarningHandler(handler WarningHandler) {
	img.warningHandler = handler
}

// Settings image settings, changes apply to subsequent operations
func (img *Image) Settings() *Settings {
	return &img.settings
}

// Magick the binding that created the image
func (img *Image) Magick() *Magick {
	return img.magick
}

// Width image width, 0 when empty
func (img *Image) Width() int {
	if img.handle == nil {
		return 0
	}
	return img.handle.Width()
}

// Height image height, 0 when empty
func (img *Image) Height() int {
	if img.handle == nil {
		return 0
	}
	return img.handle.Height()
}

// Format settings format when set, else the format the image was read from
func (img *Image) Format() Format {
	if img.settings.Format != FormatUnknown {
		return img.settings.Format
	}
	if img.handle == nil {
		return FormatUnknown
	}
	return img.handle.Format()
}

// HasAlpha image has an alpha channel
func (img *Image) HasAlpha() bool {
	return img.handle != nil && img.handle.HasAlpha()
}

// ColorSpace color space of the pixels
func (img *Image) ColorSpace() ColorSpace {
	if img.handle == nil {
		return ColorSpaceUndefined
	}
	return img.handle.ColorSpace()
}

// Native the engine handle, owned by the image
func (img *Image) Native() NativeImage {
	return img.handle
}

// Close releases the handle. Closing twice is a no-op.
func (img *Image) Close() {
	if img.closed {
		return
	}
	img.closed = true
	if img.handle != nil {
		img.handle.Destroy()
		img.handle = nil
	}
}

func (img *Image) isClosed() bool {
	return img.closed
}

func (img *Image) native() (NativeImage, error) {
	if img.closed {
		return nil, ErrDisposed
	}
	if img.handle == nil {
		return nil, NewException(WandError, "image contains no pixels", "read an image first")
	}
	return img.handle, nil
}

// replace takes ownership of h and destroys the previous handle
func (img *Image) replace(h NativeImage) {
	old := img.handle
	img.handle = h
	if old != nil && old != h {
		old.Destroy()
	}
}

func (img *Image) accept(err error) error {
	return img.magick.accept(err, img.warningHandler)
}

// Clone deep copies the image with its settings
func (img *Image) Clone() (*Image, error) {
	h, err := img.native()
	if err != nil {
		return nil, err
	}
	var c NativeImage
	err = img.magick.call("Clone", func() (err error) {
		c, err = h.Clone()
		return
	})
	if err = img.accept(err); err != nil {
		return nil, err
	}
	out := newImage(img.magick, c, img.settings.Clone())
	out.warningHandler = img.warningHandler
	return out, nil
}

// CloneAndMutate runs fn with a clone mode Mutator on this image and
// returns the new image holding its result. The receiver is unchanged.
func (img *Image) CloneAndMutate(fn func(m *Mutator) error) (*Image, error) {
	if _, err := img.native(); err != nil {
		return nil, err
	}
	m := newCloneMutator(img)
	if err := fn(m); err != nil {
		m.discard()
		return nil, err
	}
	h, err := m.TakeResult()
	if err != nil {
		return nil, err
	}
	out := newImage(img.magick, h, img.settings.Clone())
	out.warningHandler = img.warningHandler
	return out, nil
}

func firstSettings(settings []*ReadSettings) *ReadSettings {
	if len(settings) > 0 && settings[0] != nil {
		return settings[0]
	}
	return nil
}

func (img *Image) read(data []byte, settings []*ReadSettings, ping bool) error {
	if img.closed {
		return ErrDisposed
	}
	rs := firstSettings(settings)
	frames, err := img.magick.read(data, rs, ping, img.warningHandler)
	if err != nil {
		return err
	}
	destroyAll(frames[1:])
	img.replace(frames[0])
	if rs != nil {
		img.settings = rs.Settings.Clone()
	}
	return nil
}

// Read replaces the image with the first frame read from data
func (img *Image) Read(data []byte, settings ...*ReadSettings) error {
	return img.read(data, settings, false)
}

// Ping reads the image attributes without pixels
func (img *Image) Ping(data []byte, settings ...*ReadSettings) error {
	return img.read(data, settings, true)
}

// ReadFile reads the image from a file
func (img *Image) ReadFile(name string, settings ...*ReadSettings) error {
	return img.ReadFileContext(context.Background(), name, settings...)
}

// ReadFileContext reads the image from a file.
// ctx is checked while staging the file and before entering the engine.
func (img *Image) ReadFileContext(ctx context.Context, name string, settings ...*ReadSettings) error {
	data, err := readFileContext(ctx, name)
	if err != nil {
		return err
	}
	return img.read(data, settings, false)
}

// ReadStream reads the image from r
func (img *Image) ReadStream(r io.Reader, settings ...*ReadSettings) error {
	return img.ReadStreamContext(context.Background(), r, settings...)
}

// ReadStreamContext reads the image from r, ctx is checked before entering the engine
func (img *Image) ReadStreamContext(ctx context.Context, r io.Reader, settings ...*ReadSettings) error {
	if r == nil {
		return argError("stream", "value cannot be nil")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return NewException(StreamError, "unable to read stream", err.Error())
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	return img.read(data, settings, false)
}

func (img *Image) writeSettings(format Format) Settings {
	s := img.settings
	switch {
	case format != FormatUnknown:
		s.Format = format
	case s.Format == FormatUnknown && img.handle != nil:
		s.Format = img.handle.Format()
	}
	return s
}

// ToBytes encodes the image, format defaults to Format()
func (img *Image) ToBytes(format ...Format) ([]byte, error) {
	h, err := img.native()
	if err != nil {
		return nil, err
	}
	var f Format
	if len(format) > 0 {
		f = format[0]
	}
	s := img.writeSettings(f)
	return img.magick.write([]NativeImage{h}, &s, img.warningHandler)
}

// Write encodes the image to w
func (img *Image) Write(w io.Writer, format ...Format) error {
	buf, err := img.ToBytes(format...)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(buf))
	return err
}

// WriteFile encodes the image to a file, format from the extension when known
func (img *Image) WriteFile(name string) error {
	return img.WriteFileContext(context.Background(), name)
}

// WriteFileContext encodes the image to a file, ctx is checked before encoding and writing
func (img *Image) WriteFileContext(ctx context.Context, name string) error {
	if err := checkNotEmpty("fileName", name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := img.ToBytes(FormatFromFilename(name))
	if err != nil {
		return err
	}
	return writeFileContext(ctx, name, buf)
}

// Signature sha256 hex digest of the pixels
func (img *Image) Signature() (string, error) {
	buf, err := img.Pixels().ToByteArray(0, 0, img.Width(), img.Height(), "RGBA")
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}
