package magick

import (
	"encoding/binary"
	"fmt"
)

// Pixels pixel access of an image
type Pixels struct {
	image *Image
}

// Pixels pixel access of the image
func (img *Image) Pixels() *Pixels {
	return &Pixels{image: img}
}

func (p *Pixels) checkArea(x, y, width, height int) error {
	if width <= 0 {
		return argError("width", "value should be greater than zero")
	}
	if height <= 0 {
		return argError("height", "value should be greater than zero")
	}
	if x < 0 || y < 0 || x+width > p.image.Width() || y+height > p.image.Height() {
		return argError("geometry", "area %dx%d+%d+%d is outside the image",
			width, height, x, y)
	}
	return nil
}

// ToByteArray exports the area as 8 bit values in mapping order e.g. RGBA
func (p *Pixels) ToByteArray(x, y, width, height int, mapping string) ([]byte, error) {
	return p.export(x, y, width, height, mapping, StorageChar)
}

// ToShortArray exports the area as quantum values in mapping order
func (p *Pixels) ToShortArray(x, y, width, height int, mapping string) ([]uint16, error) {
	buf, err := p.export(x, y, width, height, mapping, StorageShort)
	if err != nil {
		return nil, err
	}
	values := make([]uint16, len(buf)/2)
	for i := range values {
		values[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return values, nil
}

// GetArea quantum values of all channels of the area
func (p *Pixels) GetArea(x, y, width, height int) ([]uint16, error) {
	return p.ToShortArray(x, y, width, height, p.mapping())
}

// GetPixel color at x, y
func (p *Pixels) GetPixel(x, y int) (Color, error) {
	v, err := p.ToShortArray(x, y, 1, 1, "RGBA")
	if err != nil {
		return Color{}, err
	}
	return Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

// SetArea writes quantum values of all channels into the area
func (p *Pixels) SetArea(x, y, width, height int, values []uint16) error {
	if err := p.checkArea(x, y, width, height); err != nil {
		return err
	}
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return p.image.ImportPixels(&PixelImportSettings{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Mapping:     p.mapping(),
		StorageType: StorageShort,
		Data:        buf,
	})
}

// SetPixel sets the color at x, y
func (p *Pixels) SetPixel(x, y int, c Color) error {
	values := []uint16{c.R, c.G, c.B}
	if p.image.HasAlpha() {
		values = append(values, c.A)
	}
	return p.SetArea(x, y, 1, 1, values)
}

func (p *Pixels) mapping() string {
	if p.image.HasAlpha() {
		return "RGBA"
	}
	return "RGB"
}

func (p *Pixels) export(x, y, width, height int, mapping string, storage StorageType) ([]byte, error) {
	if err := checkNotEmpty("mapping", mapping); err != nil {
		return nil, err
	}
	h, err := p.image.native()
	if err != nil {
		return nil, err
	}
	if err = p.checkArea(x, y, width, height); err != nil {
		return nil, err
	}
	var buf []byte
	err = p.image.magick.call("ExportPixels", func() (err error) {
		buf, err = h.ExportPixels(x, y, width, height, mapping, storage)
		return
	})
	if err = p.image.accept(err); err != nil {
		return nil, err
	}
	if expected := width * height * len(mapping) * storage.Size(); len(buf) != expected {
		return nil, fmt.Errorf("magick: export returned %d bytes, expected %d", len(buf), expected)
	}
	return buf, nil
}
