package optimizer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cshum/magick"
	"github.com/cshum/magick/engine/gomagick"
)

func newOptimizer(t *testing.T, options ...Option) *ImageOptimizer {
	m := magick.New(gomagick.New())
	return New(m, append([]Option{WithLogger(zaptest.NewLogger(t))}, options...)...)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 0x80, A: 0xff})
		}
	}
	return img
}

func uncompressedPNG(t *testing.T) []byte {
	buf := &bytes.Buffer{}
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(buf, gradient(64, 64)))
	return buf.Bytes()
}

func segment(marker byte, payload []byte) []byte {
	n := len(payload) + 2
	return append([]byte{0xFF, marker, byte(n >> 8), byte(n)}, payload...)
}

func TestLosslessCompressJPEG(t *testing.T) {
	o := newOptimizer(t)
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, gradient(16, 16), nil))
	plain := buf.Bytes()

	var data []byte
	data = append(data, plain[:2]...)
	data = append(data, segment(0xE1, append([]byte("Exif\x00\x00"), make([]byte, 100)...))...)
	data = append(data, segment(0xFE, []byte("a comment"))...)
	data = append(data, plain[2:]...)
	require.True(t, o.IsSupported(data))

	out, ok, err := o.LosslessCompress(data)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, plain, out)

	out, ok, err = o.LosslessCompress(plain)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, plain, out)
}

func TestCompressJPEG(t *testing.T) {
	o := newOptimizer(t)
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, gradient(64, 64), &jpeg.Options{Quality: 100}))
	out, ok, err := o.Compress(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Less(t, len(out), buf.Len())
}

func TestCompressPNG(t *testing.T) {
	for _, optimal := range []bool{false, true} {
		o := newOptimizer(t, WithOptimalCompression(optimal))
		data := uncompressedPNG(t)
		out, ok, err := o.LosslessCompress(data)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Less(t, len(out), len(data))

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
	}
}

func TestCompressFile(t *testing.T) {
	o := newOptimizer(t)
	name := filepath.Join(t.TempDir(), "image.png")
	data := uncompressedPNG(t)
	require.NoError(t, os.WriteFile(name, data, 0600))
	assert.True(t, o.IsSupportedFile(name))

	ok, err := o.LosslessCompressFile(context.Background(), name)
	require.NoError(t, err)
	assert.True(t, ok)
	info, err := os.Stat(name)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(data)))
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	ok, err = o.CompressFile(context.Background(), name)
	require.NoError(t, err)
	assert.False(t, ok, "already compressed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.CompressFile(ctx, name)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompressGIF(t *testing.T) {
	o := newOptimizer(t)
	pal := color.Palette{color.Black, color.White}
	g := &gif.GIF{}
	for i := 0; i < 2; i++ {
		p := image.NewPaletted(image.Rect(0, 0, 8, 8), pal)
		p.SetColorIndex(i, i, 1)
		g.Image = append(g.Image, p)
		g.Delay = append(g.Delay, 10)
	}
	buf := &bytes.Buffer{}
	require.NoError(t, gif.EncodeAll(buf, g))
	require.True(t, o.IsSupported(buf.Bytes()))
	out, _, err := o.LosslessCompress(buf.Bytes())
	require.NoError(t, err)
	decoded, err := gif.DecodeAll(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, decoded.Image, 2)
}

func TestUnsupportedFormat(t *testing.T) {
	o := newOptimizer(t)
	data := []byte("hello world")
	assert.False(t, o.IsSupported(data))
	assert.False(t, o.IsSupportedFile(filepath.Join(t.TempDir(), "missing")))

	_, ok, err := o.Compress(data)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, ok)

	o = newOptimizer(t, WithIgnoreUnsupportedFormats(true))
	out, ok, err := o.Compress(data)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, data, out)
}

func TestCorruptJPEG(t *testing.T) {
	o := newOptimizer(t)
	_, _, err := o.LosslessCompress([]byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00})
	assert.True(t, magick.IsException(err, magick.CorruptImageError))

	_, _, err = o.LosslessCompress([]byte{0xFF, 0xD8, 0xFF, 0xE1, 0xFF, 0xFF, 0x00, 0x00})
	assert.True(t, magick.IsException(err, magick.CorruptImageError))
}
