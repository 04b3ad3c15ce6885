package gomagick

import (
	"image"
	"image/color"
	"maps"
	"slices"

	"github.com/disintegration/imaging"

	"github.com/cshum/magick"
)

// Image in memory 8 bit NRGBA image implementing magick.NativeImage.
// A pinged Image carries its size without pixels.
type Image struct {
	pix           *image.NRGBA
	width, height int
	format        magick.Format
	colorSpace    magick.ColorSpace
	alpha         bool
	page          image.Point
	delay         int
	disposal      byte
	artifacts     map[string]string
	attributes    map[string]string
	profiles      map[string][]byte
}

func newImage(pix *image.NRGBA, format magick.Format) *Image {
	img := &Image{
		pix:        pix,
		format:     format,
		colorSpace: magick.ColorSpaceSRGB,
		artifacts:  map[string]string{},
		attributes: map[string]string{},
		profiles:   map[string][]byte{},
	}
	if pix != nil {
		img.width, img.height = pix.Rect.Dx(), pix.Rect.Dy()
	}
	return img
}

func newCanvas(width, height int, background color.Color) *image.NRGBA {
	return imaging.New(width, height, background)
}

// derive new Image of pix carrying the metadata of img
func (img *Image) derive(pix *image.NRGBA) *Image {
	out := newImage(pix, img.format)
	out.colorSpace = img.colorSpace
	out.alpha = img.alpha
	out.page = img.page
	out.delay = img.delay
	out.disposal = img.disposal
	out.artifacts = maps.Clone(img.artifacts)
	out.attributes = maps.Clone(img.attributes)
	out.profiles = maps.Clone(img.profiles)
	return out
}

// nrgba pixels of the image, pinged images have none
func (img *Image) nrgba() (*image.NRGBA, error) {
	if img.pix == nil {
		return nil, magick.NewException(magick.CorruptImageError,
			"image has no pixel data", "image was pinged or destroyed")
	}
	return img.pix, nil
}

// apply runs fn on the pixels and derives the result
func (img *Image) apply(fn func(p *image.NRGBA) (*image.NRGBA, error)) (magick.NativeImage, error) {
	p, err := img.nrgba()
	if err != nil {
		return nil, err
	}
	out, err := fn(p)
	if err != nil {
		return nil, err
	}
	return img.derive(out), nil
}

// Image the pixels as image.Image, nil for a pinged image
func (img *Image) Image() image.Image {
	if img.pix == nil {
		return nil
	}
	return img.pix
}

// Width implements magick.NativeImage
func (img *Image) Width() int {
	return img.width
}

// Height implements magick.NativeImage
func (img *Image) Height() int {
	return img.height
}

// Format implements magick.NativeImage
func (img *Image) Format() magick.Format {
	return img.format
}

// SetFormat implements magick.NativeImage
func (img *Image) SetFormat(format magick.Format) {
	img.format = format
}

// HasAlpha implements magick.NativeImage
func (img *Image) HasAlpha() bool {
	return img.alpha
}

// ColorSpace implements magick.NativeImage
func (img *Image) ColorSpace() magick.ColorSpace {
	return img.colorSpace
}

// Clone implements magick.NativeImage
func (img *Image) Clone() (magick.NativeImage, error) {
	if img.pix == nil {
		out := img.derive(nil)
		out.width, out.height = img.width, img.height
		return out, nil
	}
	return img.derive(imaging.Clone(img.pix)), nil
}

// Destroy implements magick.NativeImage
func (img *Image) Destroy() {
	img.pix = nil
	img.artifacts = nil
	img.attributes = nil
	img.profiles = nil
}

// Artifact implements magick.NativeImage
func (img *Image) Artifact(name string) (string, bool) {
	v, ok := img.artifacts[name]
	return v, ok
}

// SetArtifact implements magick.NativeImage
func (img *Image) SetArtifact(name, value string) {
	img.artifacts[name] = value
}

// RemoveArtifact implements magick.NativeImage
func (img *Image) RemoveArtifact(name string) {
	delete(img.artifacts, name)
}

// Attribute implements magick.NativeImage
func (img *Image) Attribute(name string) (string, bool) {
	v, ok := img.attributes[name]
	return v, ok
}

// SetAttribute implements magick.NativeImage
func (img *Image) SetAttribute(name, value string) {
	img.attributes[name] = value
}

// AttributeNames implements magick.NativeImage
func (img *Image) AttributeNames() []string {
	return slices.Collect(maps.Keys(img.attributes))
}

// Profile implements magick.NativeImage
func (img *Image) Profile(name string) ([]byte, bool) {
	v, ok := img.profiles[name]
	return v, ok
}

// SetProfile implements magick.NativeImage
func (img *Image) SetProfile(name string, data []byte) error {
	if len(data) == 0 {
		delete(img.profiles, name)
		return nil
	}
	img.profiles[name] = slices.Clone(data)
	return nil
}

// RemoveProfile implements magick.NativeImage
func (img *Image) RemoveProfile(name string) {
	delete(img.profiles, name)
}

// ProfileNames implements magick.NativeImage
func (img *Image) ProfileNames() []string {
	return slices.Collect(maps.Keys(img.profiles))
}

// Strip implements magick.NativeImage
func (img *Image) Strip() (magick.NativeImage, error) {
	p, err := img.nrgba()
	if err != nil {
		return nil, err
	}
	out := img.derive(imaging.Clone(p))
	out.profiles = map[string][]byte{}
	out.attributes = map[string]string{}
	return out, nil
}

func images(frames []magick.NativeImage) ([]*Image, error) {
	out := make([]*Image, len(frames))
	for i, f := range frames {
		img, ok := f.(*Image)
		if !ok {
			return nil, magick.NewException(magick.ImageError,
				"image belongs to a different engine", "gomagick")
		}
		out[i] = img
	}
	return out, nil
}
