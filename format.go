package magick

import (
	"path/filepath"
	"strings"
)

// Format image file format, upper case engine module name
type Format string

// Format values
const (
	FormatUnknown Format = ""
	FormatAVIF    Format = "AVIF"
	FormatBMP     Format = "BMP"
	FormatDDS     Format = "DDS"
	FormatGIF     Format = "GIF"
	FormatHEIC    Format = "HEIC"
	FormatICO     Format = "ICO"
	FormatJPEG    Format = "JPEG"
	FormatJSON    Format = "JSON"
	FormatPDF     Format = "PDF"
	FormatPNG     Format = "PNG"
	FormatSVG     Format = "SVG"
	FormatTIFF    Format = "TIFF"
	FormatWEBP    Format = "WEBP"
)

var formatAliases = map[string]Format{
	"JPG":  FormatJPEG,
	"JPE":  FormatJPEG,
	"JFIF": FormatJPEG,
	"TIF":  FormatTIFF,
	"ICON": FormatICO,
	"HEIF": FormatHEIC,
}

// ParseFormat parses a format name or file extension, case insensitive
func ParseFormat(s string) Format {
	s = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f, ok := formatAliases[s]; ok {
		return f
	}
	return Format(s)
}

// FormatFromFilename format derived from the file extension
func FormatFromFilename(name string) Format {
	return ParseFormat(filepath.Ext(name))
}

// Extension lower case file extension with leading dot
func (f Format) Extension() string {
	switch f {
	case FormatUnknown:
		return ""
	case FormatJPEG:
		return ".jpg"
	case FormatTIFF:
		return ".tiff"
	}
	return "." + strings.ToLower(string(f))
}

// FormatInfo engine support of a format
type FormatInfo struct {
	Format                 Format `json:"format"`
	Description            string `json:"description,omitempty"`
	MimeType               string `json:"mime_type,omitempty"`
	SupportsReading        bool   `json:"supports_reading"`
	SupportsWriting        bool   `json:"supports_writing"`
	SupportsMultipleFrames bool   `json:"supports_multiple_frames"`
}

// FindFormat looks up format support among infos
func FindFormat(infos []FormatInfo, format Format) (FormatInfo, bool) {
	for _, info := range infos {
		if info.Format == format {
			return info, true
		}
	}
	return FormatInfo{}, false
}
