package gomagick

import (
	"encoding/binary"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/cshum/magick"
)

// pixel codec of a storage type, values are 8 bit samples
type sampleCodec struct {
	size   int
	encode func(b []byte, v uint8)
	decode func(b []byte) uint8
}

var sampleCodecs = map[magick.StorageType]sampleCodec{
	magick.StorageChar: {1,
		func(b []byte, v uint8) { b[0] = v },
		func(b []byte) uint8 { return b[0] }},
	magick.StorageShort: {2,
		func(b []byte, v uint8) { binary.LittleEndian.PutUint16(b, scale16(v)) },
		func(b []byte) uint8 { return byteOf(float64(binary.LittleEndian.Uint16(b))) }},
	magick.StorageQuantum: {2,
		func(b []byte, v uint8) { binary.LittleEndian.PutUint16(b, scale16(v)) },
		func(b []byte) uint8 { return byteOf(float64(binary.LittleEndian.Uint16(b))) }},
	magick.StorageLong: {4,
		func(b []byte, v uint8) { binary.LittleEndian.PutUint32(b, uint32(v)*0x01010101) },
		func(b []byte) uint8 { return clamp8(float64(binary.LittleEndian.Uint32(b)) / 0x01010101) }},
	magick.StorageLongLong: {8,
		func(b []byte, v uint8) { binary.LittleEndian.PutUint64(b, uint64(v)*0x0101010101010101) },
		func(b []byte) uint8 { return clamp8(float64(binary.LittleEndian.Uint64(b)) / 0x0101010101010101) }},
	magick.StorageFloat: {4,
		func(b []byte, v uint8) { binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)/255)) },
		func(b []byte) uint8 { return clamp8(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) * 255) }},
	magick.StorageDouble: {8,
		func(b []byte, v uint8) { binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v)/255)) },
		func(b []byte) uint8 { return clamp8(math.Float64frombits(binary.LittleEndian.Uint64(b)) * 255) }},
}

func pixelArea(p *image.NRGBA, x, y, width, height int, mapping string, storage magick.StorageType) (image.Rectangle, sampleCodec, error) {
	codec, ok := sampleCodecs[storage]
	if !ok {
		return image.Rectangle{}, codec, magick.NewException(magick.OptionError,
			"unrecognized storage type", strconv.Itoa(int(storage)))
	}
	r := image.Rect(x, y, x+width, y+height)
	if width <= 0 || height <= 0 || !r.In(p.Rect) {
		return r, codec, magick.NewException(magick.OptionError,
			"unable to access pixels", "geometry does not contain image")
	}
	if i := strings.IndexFunc(strings.ToUpper(mapping), func(c rune) bool {
		return !strings.ContainsRune("RGBAOIP", c)
	}); i >= 0 {
		return r, codec, magick.NewException(magick.OptionError,
			"unrecognized pixel map", mapping)
	}
	return r, codec, nil
}

// ExportPixels implements magick.NativeImage. Mapping characters are
// R, G, B, A (alpha), O (opacity), I (intensity) and P (pad).
func (img *Image) ExportPixels(x, y, width, height int, mapping string, storage magick.StorageType) ([]byte, error) {
	p, err := img.nrgba()
	if err != nil {
		return nil, err
	}
	r, codec, err := pixelArea(p, x, y, width, height, mapping, storage)
	if err != nil {
		return nil, err
	}
	mapping = strings.ToUpper(mapping)
	out := make([]byte, r.Dx()*r.Dy()*len(mapping)*codec.size)
	n := 0
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			i := p.PixOffset(px, py)
			for _, c := range mapping {
				var v uint8
				switch c {
				case 'R':
					v = p.Pix[i]
				case 'G':
					v = p.Pix[i+1]
				case 'B':
					v = p.Pix[i+2]
				case 'A':
					v = p.Pix[i+3]
				case 'O':
					v = 255 - p.Pix[i+3]
				case 'I':
					v = clamp8(intensityAt(p, i))
				}
				codec.encode(out[n:], v)
				n += codec.size
			}
		}
	}
	return out, nil
}

// ImportPixels implements magick.NativeImage
func (img *Image) ImportPixels(x, y, width, height int, mapping string, storage magick.StorageType, data []byte) (magick.NativeImage, error) {
	p, err := img.nrgba()
	if err != nil {
		return nil, err
	}
	r, codec, err := pixelArea(p, x, y, width, height, mapping, storage)
	if err != nil {
		return nil, err
	}
	mapping = strings.ToUpper(mapping)
	if expected := r.Dx() * r.Dy() * len(mapping) * codec.size; len(data) != expected {
		return nil, magick.NewException(magick.OptionError,
			"pixel buffer size mismatch", mapping)
	}
	out, err := img.Clone()
	if err != nil {
		return nil, err
	}
	res := out.(*Image)
	q := res.pix
	n := 0
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			i := q.PixOffset(px, py)
			for _, c := range mapping {
				v := codec.decode(data[n:])
				n += codec.size
				switch c {
				case 'R':
					q.Pix[i] = v
				case 'G':
					q.Pix[i+1] = v
				case 'B':
					q.Pix[i+2] = v
				case 'A':
					q.Pix[i+3] = v
				case 'O':
					q.Pix[i+3] = 255 - v
				case 'I':
					q.Pix[i], q.Pix[i+1], q.Pix[i+2] = v, v, v
				}
			}
		}
	}
	if strings.ContainsAny(mapping, "AO") {
		res.alpha = true
	}
	return res, nil
}
