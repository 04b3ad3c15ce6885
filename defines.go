package magick

import "strconv"

// Define format specific engine option
type Define struct {
	Format Format
	Name   string
	Value  string
}

// WriteDefines a set of defines applied when writing a format
type WriteDefines interface {
	Format() Format
	Defines() []Define
}

// Parameter optional value that is only emitted when set
type Parameter[T any] struct {
	value T
	isSet bool
}

// Set sets the value
func (p *Parameter[T]) Set(v T) {
	p.value = v
	p.isSet = true
}

// Get returns the value, zero value when unset
func (p *Parameter[T]) Get() T {
	return p.value
}

// IsSet reports whether a value was set
func (p *Parameter[T]) IsSet() bool {
	return p.isSet
}

// Unset clears the value
func (p *Parameter[T]) Unset() {
	var zero T
	p.value, p.isSet = zero, false
}

type defineList struct {
	format  Format
	defines []Define
}

func (l *defineList) add(name, value string) {
	l.defines = append(l.defines, Define{Format: l.format, Name: name, Value: value})
}

func addBool(l *defineList, name string, p Parameter[bool]) {
	if p.IsSet() {
		l.add(name, strconv.FormatBool(p.Get()))
	}
}

func addInt(l *defineList, name string, p Parameter[int]) {
	if p.IsSet() {
		l.add(name, strconv.Itoa(p.Get()))
	}
}

func addString(l *defineList, name string, p Parameter[string]) {
	if p.IsSet() && p.Get() != "" {
		l.add(name, p.Get())
	}
}

// JpegWriteDefines jpeg encoder defines
type JpegWriteDefines struct {
	DctMethod        Parameter[string]
	Extent           Parameter[int]
	OptimizeCoding   Parameter[bool]
	SamplingFactor   Parameter[string]
	ArithmeticCoding Parameter[bool]
}

// Format implements WriteDefines
func (d *JpegWriteDefines) Format() Format { return FormatJPEG }

// Defines implements WriteDefines
func (d *JpegWriteDefines) Defines() []Define {
	l := &defineList{format: FormatJPEG}
	addString(l, "dct-method", d.DctMethod)
	if d.Extent.IsSet() {
		// extent is in kilobytes
		l.add("extent", strconv.Itoa(d.Extent.Get())+"KB")
	}
	addBool(l, "optimize-coding", d.OptimizeCoding)
	addString(l, "sampling-factor", d.SamplingFactor)
	addBool(l, "arithmetic-coding", d.ArithmeticCoding)
	return l.defines
}

// PngWriteDefines png encoder defines
type PngWriteDefines struct {
	CompressionLevel    Parameter[int]
	CompressionFilter   Parameter[int]
	CompressionStrategy Parameter[int]
	ExcludeChunks       Parameter[string]
	IncludeChunks       Parameter[string]
	PreserveColorMap    Parameter[bool]
	PreserveICCP        Parameter[bool]
	BitDepth            Parameter[int]
}

// Format implements WriteDefines
func (d *PngWriteDefines) Format() Format { return FormatPNG }

// Defines implements WriteDefines
func (d *PngWriteDefines) Defines() []Define {
	l := &defineList{format: FormatPNG}
	addInt(l, "compression-level", d.CompressionLevel)
	addInt(l, "compression-filter", d.CompressionFilter)
	addInt(l, "compression-strategy", d.CompressionStrategy)
	addString(l, "exclude-chunks", d.ExcludeChunks)
	addString(l, "include-chunks", d.IncludeChunks)
	addBool(l, "preserve-colormap", d.PreserveColorMap)
	addBool(l, "preserve-iCCP", d.PreserveICCP)
	addInt(l, "bit-depth", d.BitDepth)
	return l.defines
}

// WebPWriteDefines webp encoder defines
type WebPWriteDefines struct {
	AlphaQuality Parameter[int]
	AutoFilter   Parameter[bool]
	Exact        Parameter[bool]
	Lossless     Parameter[bool]
	Method       Parameter[int]
	Partitions   Parameter[int]
	TargetSize   Parameter[int]
	ThreadLevel  Parameter[int]
	UseSharpYuv  Parameter[bool]
}

// Format implements WriteDefines
func (d *WebPWriteDefines) Format() Format { return FormatWEBP }

// Defines implements WriteDefines
func (d *WebPWriteDefines) Defines() []Define {
	l := &defineList{format: FormatWEBP}
	addInt(l, "alpha-quality", d.AlphaQuality)
	addBool(l, "auto-filter", d.AutoFilter)
	addBool(l, "exact", d.Exact)
	addBool(l, "lossless", d.Lossless)
	addInt(l, "method", d.Method)
	addInt(l, "partitions", d.Partitions)
	addInt(l, "target-size", d.TargetSize)
	addInt(l, "thread-level", d.ThreadLevel)
	addBool(l, "use-sharp-yuv", d.UseSharpYuv)
	return l.defines
}

// DdsCompression dds compression scheme
type DdsCompression string

// DdsCompression values
const (
	DdsCompressionNone DdsCompression = "None"
	DdsCompressionDxt1 DdsCompression = "Dxt1"
	DdsCompressionDxt5 DdsCompression = "Dxt5"
)

// DdsWriteDefines dds encoder defines
type DdsWriteDefines struct {
	ClusterFit    Parameter[bool]
	Compression   Parameter[DdsCompression]
	FastMipmaps   Parameter[bool]
	Mipmaps       Parameter[int]
	WeightByAlpha Parameter[bool]
}

// Format implements WriteDefines
func (d *DdsWriteDefines) Format() Format { return FormatDDS }

// Defines implements WriteDefines
func (d *DdsWriteDefines) Defines() []Define {
	l := &defineList{format: FormatDDS}
	addBool(l, "cluster-fit", d.ClusterFit)
	if d.Compression.IsSet() {
		l.add("compression", string(d.Compression.Get()))
	}
	addBool(l, "fast-mipmaps", d.FastMipmaps)
	addInt(l, "mipmaps", d.Mipmaps)
	addBool(l, "weight-by-alpha", d.WeightByAlpha)
	return l.defines
}
