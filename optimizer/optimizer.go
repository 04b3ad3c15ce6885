package optimizer

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/cshum/magick"
)

// ErrUnsupportedFormat format without optimizer support
var ErrUnsupportedFormat = errors.New("optimizer: unsupported format")

// lossy JPEG quality
const jpegQuality = 75

// ImageOptimizer re-encodes JPEG, PNG and GIF images to smaller size
type ImageOptimizer struct {
	Magick *magick.Magick
	Logger *zap.Logger
	// OptimalCompression tries PNG compression level 90 to 95 and keeps the smallest
	OptimalCompression bool
	// IgnoreUnsupportedFormats unsupported formats are left as is instead of ErrUnsupportedFormat
	IgnoreUnsupportedFormats bool
}

// New creates ImageOptimizer encoding images with m
func New(m *magick.Magick, options ...Option) *ImageOptimizer {
	o := &ImageOptimizer{
		Magick: m,
		Logger: zap.NewNop(),
	}
	for _, option := range options {
		option(o)
	}
	return o
}

func detect(data []byte) magick.Format {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return magick.FormatJPEG
	case "image/png":
		return magick.FormatPNG
	case "image/gif":
		return magick.FormatGIF
	}
	return magick.FormatUnknown
}

// IsSupported data is an image format the optimizer can compress
func (o *ImageOptimizer) IsSupported(data []byte) bool {
	return detect(data) != magick.FormatUnknown
}

// IsSupportedFile file is an image format the optimizer can compress
func (o *ImageOptimizer) IsSupportedFile(name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := f.Read(head)
	return o.IsSupported(head[:n])
}

// Compress lossy compression, returns the result and true
// only if it is smaller than data
func (o *ImageOptimizer) Compress(data []byte) ([]byte, bool, error) {
	return o.compress(data, false)
}

// LosslessCompress compression without quality loss, returns the result
// and true only if it is smaller than data
func (o *ImageOptimizer) LosslessCompress(data []byte) ([]byte, bool, error) {
	return o.compress(data, true)
}

// CompressFile lossy compression of file, rewritten only when smaller
func (o *ImageOptimizer) CompressFile(ctx context.Context, name string) (bool, error) {
	return o.compressFile(ctx, name, false)
}

// LosslessCompressFile lossless compression of file, rewritten only when smaller
func (o *ImageOptimizer) LosslessCompressFile(ctx context.Context, name string) (bool, error) {
	return o.compressFile(ctx, name, true)
}

func (o *ImageOptimizer) compressFile(ctx context.Context, name string, lossless bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return false, err
	}
	out, ok, err := o.compress(data, lossless)
	if err != nil || !ok {
		return false, err
	}
	if err = ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(name)
	if err != nil {
		return false, err
	}
	if err = os.WriteFile(name, out, info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

func (o *ImageOptimizer) compress(data []byte, lossless bool) ([]byte, bool, error) {
	var (
		out []byte
		err error
	)
	format := detect(data)
	switch format {
	case magick.FormatJPEG:
		if lossless {
			out, err = stripJPEG(data)
		} else {
			out, err = o.encode(data, format, jpegQuality)
		}
	case magick.FormatPNG:
		out, err = o.compressPNG(data)
	case magick.FormatGIF:
		out, err = o.compressGIF(data)
	default:
		if o.IgnoreUnsupportedFormats {
			return data, false, nil
		}
		return data, false, ErrUnsupportedFormat
	}
	if err != nil {
		return data, false, err
	}
	o.Logger.Debug("optimize",
		zap.String("format", string(format)),
		zap.Bool("lossless", lossless),
		zap.Int("size", len(data)),
		zap.Int("optimized_size", len(out)))
	if len(out) >= len(data) {
		return data, false, nil
	}
	return out, true, nil
}

// encode strips profiles and re-encodes with quality
func (o *ImageOptimizer) encode(data []byte, format magick.Format, quality int) ([]byte, error) {
	img, err := o.Magick.ReadImage(data)
	if err != nil {
		return nil, err
	}
	defer img.Close()
	if err = img.Strip(); err != nil {
		return nil, err
	}
	img.Settings().Quality = quality
	return img.ToBytes(format)
}

func (o *ImageOptimizer) compressPNG(data []byte) ([]byte, error) {
	qualities := []int{95}
	if o.OptimalCompression {
		qualities = []int{90, 91, 92, 93, 94, 95}
	}
	var best []byte
	for _, quality := range qualities {
		out, err := o.encode(data, magick.FormatPNG, quality)
		if err != nil {
			return nil, err
		}
		if best == nil || len(out) < len(best) {
			best = out
		}
	}
	return best, nil
}

func (o *ImageOptimizer) compressGIF(data []byte) ([]byte, error) {
	c, err := o.Magick.ReadCollection(data)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	for _, img := range c.Images() {
		if err = img.Strip(); err != nil {
			return nil, err
		}
	}
	return c.ToBytes(magick.FormatGIF)
}

// stripJPEG drops the APP1 to APP15 segments but APP14 Adobe, and the
// comments, leaving the entropy coded data untouched
func stripJPEG(data []byte) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, magick.NewException(magick.CorruptImageError, "not a JPEG file", "optimizer")
	}
	out := bytes.NewBuffer(make([]byte, 0, len(data)))
	out.Write(data[:2])
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil, magick.NewException(magick.CorruptImageError, "corrupt JPEG data", "optimizer")
		}
		marker := data[i+1]
		if marker == 0xFF {
			// fill byte
			i++
			continue
		}
		if marker == 0xDA {
			// start of scan, rest is image data
			out.Write(data[i:])
			return out.Bytes(), nil
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			out.Write(data[i : i+2])
			i += 2
			continue
		}
		end := i + 2 + int(binary.BigEndian.Uint16(data[i+2:]))
		if end > len(data) {
			return nil, magick.NewException(magick.CorruptImageError, "premature end of JPEG file", "optimizer")
		}
		strip := marker == 0xFE || (marker >= 0xE1 && marker <= 0xEF && marker != 0xEE)
		if !strip {
			out.Write(data[i:end])
		}
		i = end
	}
	return nil, magick.NewException(magick.CorruptImageError, "premature end of JPEG file", "optimizer")
}
