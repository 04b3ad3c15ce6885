package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/cshum/magick"
)

// BlobType sniffed type of the blob content
type BlobType int

// BlobType values
const (
	BlobTypeUnknown BlobType = iota
	BlobTypeEmpty
	BlobTypeJSON
	BlobTypeJPEG
	BlobTypePNG
	BlobTypeGIF
	BlobTypeWEBP
	BlobTypeAVIF
	BlobTypeTIFF
	BlobTypeBMP
)

const sniffLen = 512

// Stat blob attributes from a storage
type Stat struct {
	ModifiedTime time.Time
	Size         int64
	ETag         string
}

// Blob bytes or file path content, read lazily once
type Blob struct {
	path     string
	buf      []byte
	once     sync.Once
	sniffBuf []byte
	err      error

	blobType    BlobType
	contentType string

	Stat *Stat
}

// NewBlobFromFile blob read from file path on demand,
// Stat is filled from the file info when the file exists
func NewBlobFromFile(filepath string) *Blob {
	b := &Blob{path: filepath}
	if info, err := os.Stat(filepath); err == nil {
		b.Stat = &Stat{
			ModifiedTime: info.ModTime(),
			Size:         info.Size(),
		}
	}
	return b
}

// NewBlobFromBytes blob from bytes
func NewBlobFromBytes(buf []byte) *Blob {
	return &Blob{buf: buf}
}

// NewBlobFromJSONMarshal blob of the JSON encoding of v
func NewBlobFromJSONMarshal(v any) *Blob {
	buf, err := json.Marshal(v)
	return &Blob{buf: buf, err: err, blobType: BlobTypeJSON}
}

// NewEmptyBlob empty blob
func NewEmptyBlob() *Blob {
	return &Blob{}
}

var (
	jpegHeader = []byte("\xFF\xD8\xFF")
	gifHeader  = []byte("\x47\x49\x46")
	webpHeader = []byte("\x57\x45\x42\x50")
	pngHeader  = []byte("\x89\x50\x4E\x47")
	tiffII     = []byte("\x49\x49\x2A\x00")
	tiffMM     = []byte("\x4D\x4D\x00\x2A")
	bmpHeader  = []byte("BM")
	ftyp       = []byte("ftyp")
	avif       = []byte("avif")
	avis       = []byte("avis")
)

// Sniff detects the blob type from the leading bytes
func Sniff(buf []byte) BlobType {
	switch {
	case len(buf) == 0:
		return BlobTypeEmpty
	case bytes.HasPrefix(buf, jpegHeader):
		return BlobTypeJPEG
	case bytes.HasPrefix(buf, pngHeader):
		return BlobTypePNG
	case bytes.HasPrefix(buf, gifHeader):
		return BlobTypeGIF
	case len(buf) >= 12 && bytes.Equal(buf[8:12], webpHeader):
		return BlobTypeWEBP
	case len(buf) >= 12 && bytes.Equal(buf[4:8], ftyp) &&
		(bytes.Equal(buf[8:12], avif) || bytes.Equal(buf[8:12], avis)):
		return BlobTypeAVIF
	case bytes.HasPrefix(buf, tiffII) || bytes.HasPrefix(buf, tiffMM):
		return BlobTypeTIFF
	case len(buf) >= 14 && bytes.HasPrefix(buf, bmpHeader):
		return BlobTypeBMP
	}
	if trimmed := bytes.TrimSpace(buf); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return BlobTypeJSON
	}
	return BlobTypeUnknown
}

var blobContentTypes = map[BlobType]string{
	BlobTypeJSON: "application/json",
	BlobTypeJPEG: "image/jpeg",
	BlobTypePNG:  "image/png",
	BlobTypeGIF:  "image/gif",
	BlobTypeWEBP: "image/webp",
	BlobTypeAVIF: "image/avif",
	BlobTypeTIFF: "image/tiff",
	BlobTypeBMP:  "image/bmp",
}

var blobFormats = map[BlobType]magick.Format{
	BlobTypeJSON: magick.FormatJSON,
	BlobTypeJPEG: magick.FormatJPEG,
	BlobTypePNG:  magick.FormatPNG,
	BlobTypeGIF:  magick.FormatGIF,
	BlobTypeWEBP: magick.FormatWEBP,
	BlobTypeAVIF: magick.FormatAVIF,
	BlobTypeTIFF: magick.FormatTIFF,
	BlobTypeBMP:  magick.FormatBMP,
}

func (b *Blob) init() {
	b.once.Do(func() {
		if b.err != nil {
			return
		}
		if len(b.buf) == 0 && b.path != "" {
			b.buf, b.err = os.ReadFile(b.path)
			if os.IsNotExist(b.err) {
				b.err = ErrNotFound
			}
		}
		if len(b.buf) > sniffLen {
			b.sniffBuf = b.buf[:sniffLen]
		} else {
			b.sniffBuf = b.buf
		}
		if b.blobType == BlobTypeUnknown {
			b.blobType = Sniff(b.sniffBuf)
		}
		if ct, ok := blobContentTypes[b.blobType]; ok {
			b.contentType = ct
		} else if b.blobType == BlobTypeUnknown {
			b.contentType = http.DetectContentType(b.sniffBuf)
		}
	})
}

// IsEmpty check if blob is empty
func (b *Blob) IsEmpty() bool {
	b.init()
	return len(b.buf) == 0
}

// BlobType sniffed blob type
func (b *Blob) BlobType() BlobType {
	b.init()
	return b.blobType
}

// Sniff leading bytes used for type detection
func (b *Blob) Sniff() []byte {
	b.init()
	return b.sniffBuf
}

// ContentType MIME type of the blob
func (b *Blob) ContentType() string {
	b.init()
	return b.contentType
}

// Format image format of the blob, magick.FormatUnknown if not an image
func (b *Blob) Format() magick.Format {
	b.init()
	return blobFormats[b.blobType]
}

// SupportsAnimation blob type may hold multiple frames
func (b *Blob) SupportsAnimation() bool {
	t := b.BlobType()
	return t == BlobTypeGIF || t == BlobTypeWEBP
}

// FilePath file path of the blob, empty if not file based
func (b *Blob) FilePath() string {
	return b.path
}

// ReadAll reads all bytes of the blob
func (b *Blob) ReadAll() ([]byte, error) {
	b.init()
	return b.buf, b.err
}

// NewReader reader of the blob bytes with the total size
func (b *Blob) NewReader() (io.ReadCloser, int64, error) {
	buf, err := b.ReadAll()
	if err != nil {
		return nil, 0, err
	}
	return io.NopCloser(bytes.NewReader(buf)), int64(len(buf)), nil
}

// Err read error of the blob
func (b *Blob) Err() error {
	b.init()
	return b.err
}

func isEmpty(b *Blob) bool {
	return b == nil || b.IsEmpty()
}
