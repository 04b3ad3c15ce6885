package magick

import (
	"maps"
	"strconv"
	"strings"
)

// Settings image settings applied when the engine reads, writes and draws.
// An Image holds its Settings by value, cloning an image copies them.
type Settings struct {
	Format          Format
	Quality         int
	ColorFuzz       Percentage
	BackgroundColor Color
	BorderColor     Color
	FillColor       Color
	StrokeColor     Color
	StrokeWidth     float64
	FontPointSize   float64
	Density         Density
	Depth           int
	Compression     string
	Interlace       Interlace
	Endian          Endian
	Page            Geometry
	FilterType      FilterType
	AntiAlias       bool
	Verbose         bool

	defines map[string]string
}

// NewSettings default settings
func NewSettings() Settings {
	return Settings{
		BackgroundColor: ColorWhite,
		BorderColor:     NewColorRGB(0xdf, 0xdf, 0xdf),
		FillColor:       ColorBlack,
		StrokeColor:     ColorTransparent,
		StrokeWidth:     1,
		FontPointSize:   12,
		AntiAlias:       true,
	}
}

// Clone deep copies the settings
func (s Settings) Clone() Settings {
	s.defines = maps.Clone(s.defines)
	return s
}

func defineKey(format Format, name string) string {
	return strings.ToLower(string(format)) + ":" + name
}

// SetDefine sets a format specific option e.g. jpeg:optimize-coding
func (s *Settings) SetDefine(format Format, name, value string) {
	s.SetOption(defineKey(format, name), value)
}

// SetOption sets a raw engine option key
func (s *Settings) SetOption(key, value string) {
	if s.defines == nil {
		s.defines = map[string]string{}
	}
	s.defines[key] = value
}

// Define returns a format specific option
func (s *Settings) Define(format Format, name string) (string, bool) {
	return s.Option(defineKey(format, name))
}

// Option returns a raw engine option
func (s *Settings) Option(key string) (string, bool) {
	v, ok := s.defines[key]
	return v, ok
}

// RemoveDefine removes a format specific option
func (s *Settings) RemoveDefine(format Format, name string) {
	delete(s.defines, defineKey(format, name))
}

// SetDefines applies a set of write defines
func (s *Settings) SetDefines(defines WriteDefines) {
	for _, d := range defines.Defines() {
		s.SetDefine(d.Format, d.Name, d.Value)
	}
}

// Options returns a copy of all engine options
func (s *Settings) Options() map[string]string {
	return maps.Clone(s.defines)
}

// ReadSettings settings consumed when reading an image
type ReadSettings struct {
	Settings

	// Width and Height size hint for formats without intrinsic size
	Width  int
	Height int
	// FrameIndex first frame to read
	FrameIndex int
	// FrameCount number of frames to read, 0 reads all remaining frames
	FrameCount    int
	ExtractArea   *Geometry
	UseMonochrome bool
}

// NewReadSettings default read settings
func NewReadSettings() *ReadSettings {
	return &ReadSettings{Settings: NewSettings()}
}

// Size size hint in geometry form, empty when unset
func (r *ReadSettings) Size() string {
	if r.Width <= 0 && r.Height <= 0 {
		return ""
	}
	return NewGeometry(r.Width, r.Height).String()
}

// Scenes frame selection e.g. "2" or "1-3", empty when unset
func (r *ReadSettings) Scenes() string {
	index := strconv.Itoa(r.FrameIndex)
	switch {
	case r.FrameIndex <= 0 && r.FrameCount <= 0:
		return ""
	case r.FrameCount == 0:
		return index + "-"
	case r.FrameCount == 1:
		return index
	}
	return index + "-" + strconv.Itoa(r.FrameIndex+r.FrameCount-1)
}

func (r *ReadSettings) validate() error {
	if r.Width < 0 {
		return argError("width", "value should not be negative")
	}
	if r.Height < 0 {
		return argError("height", "value should not be negative")
	}
	if r.FrameIndex < 0 {
		return argError("frameIndex", "value should not be negative")
	}
	if r.FrameCount < 0 {
		return argError("frameCount", "value should not be negative")
	}
	return nil
}

// QuantizeSettings color reduction settings
type QuantizeSettings struct {
	Colors        int
	ColorSpace    ColorSpace
	DitherMethod  DitherMethod
	MeasureErrors bool
	TreeDepth     int
}

// NewQuantizeSettings default settings of 256 colors with Riemersma dithering
func NewQuantizeSettings() *QuantizeSettings {
	return &QuantizeSettings{
		Colors:       256,
		DitherMethod: DitherRiemersma,
	}
}

func (q *QuantizeSettings) validate() error {
	if q.Colors <= 0 {
		return argError("colors", "value should be greater than zero")
	}
	if q.TreeDepth < 0 {
		return argError("treeDepth", "value should not be negative")
	}
	return nil
}

// CompareSettings settings of CompareDifference
type CompareSettings struct {
	Metric         ErrorMetric
	HighlightColor *Color
	LowlightColor  *Color
	MasklightColor *Color
}

func (c *CompareSettings) artifacts() map[string]string {
	artifacts := map[string]string{}
	if c.HighlightColor != nil {
		artifacts["compare:highlight-color"] = c.HighlightColor.String()
	}
	if c.LowlightColor != nil {
		artifacts["compare:lowlight-color"] = c.LowlightColor.String()
	}
	if c.MasklightColor != nil {
		artifacts["compare:masklight-color"] = c.MasklightColor.String()
	}
	return artifacts
}

// DeskewSettings settings of Deskew
type DeskewSettings struct {
	Threshold Percentage
	AutoCrop  bool
}

// MorphologySettings settings of Morphology
type MorphologySettings struct {
	Method     MorphologyMethod
	Kernel     string
	Iterations int
	Channels   Channels
}

// PixelImportSettings pixel buffer to import into an image
type PixelImportSettings struct {
	X, Y          int
	Width, Height int
	Mapping       string
	StorageType   StorageType
	Data          []byte
}

func (p *PixelImportSettings) validate() error {
	if p.Width <= 0 {
		return argError("width", "value should be greater than zero")
	}
	if p.Height <= 0 {
		return argError("height", "value should be greater than zero")
	}
	if err := checkNotEmpty("mapping", p.Mapping); err != nil {
		return err
	}
	size := p.StorageType.Size()
	if size == 0 {
		return argError("storageType", "unsupported storage type %d", p.StorageType)
	}
	if expected := p.Width * p.Height * len(p.Mapping) * size; len(p.Data) != expected {
		return argError("data", "length should be %d but is %d", expected, len(p.Data))
	}
	return nil
}
