package magick

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
)

// Collection ordered list of images processed as one engine list.
// An image may appear at most once. Images added by reference stay owned
// by the caller until Clear or Close.
type Collection struct {
	magick *Magick
	images []*Image
}

// Len number of images
func (c *Collection) Len() int {
	return len(c.images)
}

// At image at index, nil when out of range
func (c *Collection) At(index int) *Image {
	if index < 0 || index >= len(c.images) {
		return nil
	}
	return c.images[index]
}

// Images the images in order, the slice is a copy
func (c *Collection) Images() []*Image {
	return slices.Clone(c.images)
}

// IndexOf index of img, -1 when absent
func (c *Collection) IndexOf(img *Image) int {
	return slices.Index(c.images, img)
}

// Contains reports whether img is in the collection
func (c *Collection) Contains(img *Image) bool {
	return c.IndexOf(img) >= 0
}

func (c *Collection) checkAdd(img *Image) error {
	if err := checkImage("item", img); err != nil {
		return err
	}
	if c.Contains(img) {
		return ErrDuplicateImage
	}
	return nil
}

// Add appends img, the same reference cannot be added twice
func (c *Collection) Add(img *Image) error {
	if err := c.checkAdd(img); err != nil {
		return err
	}
	c.images = append(c.images, img)
	return nil
}

// AddRange appends images in order, nothing is added on failure
func (c *Collection) AddRange(images ...*Image) error {
	seen := make(map[*Image]struct{}, len(images))
	for _, img := range images {
		if err := c.checkAdd(img); err != nil {
			return err
		}
		if _, ok := seen[img]; ok {
			return ErrDuplicateImage
		}
		seen[img] = struct{}{}
	}
	c.images = append(c.images, images...)
	return nil
}

// Insert inserts img at index
func (c *Collection) Insert(index int, img *Image) error {
	if index < 0 || index > len(c.images) {
		return argError("index", "value %d is out of range", index)
	}
	if err := c.checkAdd(img); err != nil {
		return err
	}
	c.images = slices.Insert(c.images, index, img)
	return nil
}

// Remove removes img without closing it, reports whether it was present
func (c *Collection) Remove(img *Image) bool {
	i := c.IndexOf(img)
	if i < 0 {
		return false
	}
	c.images = slices.Delete(c.images, i, i+1)
	return true
}

// RemoveAt removes and returns the image at index without closing it
func (c *Collection) RemoveAt(index int) (*Image, error) {
	if index < 0 || index >= len(c.images) {
		return nil, argError("index", "value %d is out of range", index)
	}
	img := c.images[index]
	c.images = slices.Delete(c.images, index, index+1)
	return img, nil
}

// Reverse reverses the order of the images
func (c *Collection) Reverse() {
	slices.Reverse(c.images)
}

// Clear closes and removes all images
func (c *Collection) Clear() {
	for _, img := range c.images {
		img.Close()
	}
	c.images = nil
}

// Close closes all images, closing twice is a no-op
func (c *Collection) Close() {
	c.Clear()
}

// Clone deep copies every image into a new collection
func (c *Collection) Clone() (*Collection, error) {
	out := c.magick.NewCollection()
	for _, img := range c.images {
		cl, err := img.Clone()
		if err != nil {
			out.Clear()
			return nil, err
		}
		out.images = append(out.images, cl)
	}
	return out, nil
}

func (c *Collection) frames() ([]NativeImage, error) {
	if len(c.images) == 0 {
		return nil, ErrEmptyCollection
	}
	frames := make([]NativeImage, len(c.images))
	for i, img := range c.images {
		h, err := img.native()
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		frames[i] = h
	}
	return frames, nil
}

func (c *Collection) settings() Settings {
	if len(c.images) > 0 {
		return c.images[0].settings.Clone()
	}
	return NewSettings()
}

func (c *Collection) read(data []byte, settings []*ReadSettings, ping bool) error {
	rs := firstSettings(settings)
	frames, err := c.magick.read(data, rs, ping, c.magick.WarningHandler)
	if err != nil {
		return err
	}
	s := NewSettings()
	if rs != nil {
		s = rs.Settings
	}
	c.Clear()
	for _, f := range frames {
		c.images = append(c.images, newImage(c.magick, f, s.Clone()))
	}
	return nil
}

// Read replaces the images with all frames read from data
func (c *Collection) Read(data []byte, settings ...*ReadSettings) error {
	return c.read(data, settings, false)
}

// Ping replaces the images with the attributes of all frames
func (c *Collection) Ping(data []byte, settings ...*ReadSettings) error {
	return c.read(data, settings, true)
}

// ReadFile reads all frames from a file
func (c *Collection) ReadFile(name string, settings ...*ReadSettings) error {
	return c.ReadContext(context.Background(), name, settings...)
}

// ReadContext reads all frames from a file, ctx is checked before entering the engine
func (c *Collection) ReadContext(ctx context.Context, name string, settings ...*ReadSettings) error {
	data, err := readFileContext(ctx, name)
	if err != nil {
		return err
	}
	return c.read(data, settings, false)
}

// ReadStream reads all frames from r
func (c *Collection) ReadStream(r io.Reader, settings ...*ReadSettings) error {
	if r == nil {
		return argError("stream", "value cannot be nil")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return NewException(StreamError, "unable to read stream", err.Error())
	}
	return c.read(data, settings, false)
}

// ToBytes encodes all images as one multi frame file
func (c *Collection) ToBytes(format ...Format) ([]byte, error) {
	frames, err := c.frames()
	if err != nil {
		return nil, err
	}
	s := c.settings()
	if len(format) > 0 && format[0] != FormatUnknown {
		s.Format = format[0]
	} else if s.Format == FormatUnknown {
		s.Format = frames[0].Format()
	}
	return c.magick.write(frames, &s, c.magick.WarningHandler)
}

// Write encodes all images to w
func (c *Collection) Write(w io.Writer, format ...Format) error {
	buf, err := c.ToBytes(format...)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(buf))
	return err
}

// WriteFile encodes all images to a file. Formats without multi frame
// support write one file per image named name-0.ext, name-1.ext and so on.
func (c *Collection) WriteFile(name string) error {
	return c.WriteFileContext(context.Background(), name)
}

// WriteFileContext encodes all images to a file, ctx is checked before each write
func (c *Collection) WriteFileContext(ctx context.Context, name string) error {
	if err := checkNotEmpty("fileName", name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	format := FormatFromFilename(name)
	if format == FormatUnknown {
		format = c.settings().Format
	}
	if info, ok := c.magick.FormatInfo(format); ok && !info.SupportsMultipleFrames && len(c.images) > 1 {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		for i, img := range c.images {
			buf, err := img.ToBytes(format)
			if err != nil {
				return err
			}
			if err = writeFileContext(ctx, fmt.Sprintf("%s-%d%s", base, i, ext), buf); err != nil {
				return err
			}
		}
		return nil
	}
	buf, err := c.ToBytes(format)
	if err != nil {
		return err
	}
	return writeFileContext(ctx, name, buf)
}

func (c *Collection) list(operation string, fn func(frames []NativeImage) (NativeImage, error)) (*Image, error) {
	frames, err := c.frames()
	if err != nil {
		return nil, err
	}
	var out NativeImage
	err = c.magick.call(operation, func() (err error) {
		out, err = fn(frames)
		return
	})
	if err = c.magick.accept(err, c.magick.WarningHandler); err != nil {
		if out != nil {
			out.Destroy()
		}
		return nil, err
	}
	if out == nil {
		return nil, NewException(ImageError, "engine returned no image", operation)
	}
	return newImage(c.magick, out, c.settings()), nil
}

// Append joins the images left to right, or top to bottom when vertical
func (c *Collection) Append(vertical bool) (*Image, error) {
	return c.list("Append", func(frames []NativeImage) (NativeImage, error) {
		return c.magick.Engine.Append(frames, vertical)
	})
}

// Coalesce replaces the images with fully composed animation frames
func (c *Collection) Coalesce() error {
	frames, err := c.frames()
	if err != nil {
		return err
	}
	var out []NativeImage
	err = c.magick.call("Coalesce", func() (err error) {
		out, err = c.magick.Engine.Coalesce(frames)
		return
	})
	if err = c.magick.accept(err, c.magick.WarningHandler); err != nil {
		destroyAll(out)
		return err
	}
	s := c.settings()
	c.Clear()
	for _, f := range out {
		c.images = append(c.images, newImage(c.magick, f, s.Clone()))
	}
	return nil
}

// Layers composes the images with the layer method
func (c *Collection) Layers(method LayerMethod) (*Image, error) {
	return c.list("Layers", func(frames []NativeImage) (NativeImage, error) {
		return c.magick.Engine.Layers(frames, method)
	})
}

// Merge merges the images on a canvas large enough for all of them
func (c *Collection) Merge() (*Image, error) {
	return c.Layers(LayerMerge)
}

// Flatten flattens the images onto the canvas of the first
func (c *Collection) Flatten() (*Image, error) {
	return c.Layers(LayerFlatten)
}

// Mosaic composes the images on a canvas from the origin
func (c *Collection) Mosaic() (*Image, error) {
	return c.Layers(LayerMosaic)
}

// Combine combines grayscale images as channels of one image
func (c *Collection) Combine(colorSpace ColorSpace) (*Image, error) {
	return c.list("Combine", func(frames []NativeImage) (NativeImage, error) {
		return c.magick.Engine.Combine(frames, colorSpace)
	})
}

// Evaluate applies the operator across the images pixel by pixel
func (c *Collection) Evaluate(operator EvaluateOperator) (*Image, error) {
	return c.list("Evaluate", func(frames []NativeImage) (NativeImage, error) {
		return c.magick.Engine.Evaluate(frames, operator)
	})
}

// Smush appends the images removing offset pixels of spacing between them
func (c *Collection) Smush(offset int, vertical bool) (*Image, error) {
	return c.list("Smush", func(frames []NativeImage) (NativeImage, error) {
		return c.magick.Engine.Smush(frames, offset, vertical)
	})
}
