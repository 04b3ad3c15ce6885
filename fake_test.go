package magick

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// fakeEngine records every call with its forwarded arguments
type fakeEngine struct {
	calls     []string
	fail      error
	warn      error
	live      int
	destroyed int
	formats   []FormatInfo
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{formats: []FormatInfo{
		{Format: FormatPNG, SupportsReading: true, SupportsWriting: true},
		{Format: FormatGIF, SupportsReading: true, SupportsWriting: true, SupportsMultipleFrames: true},
	}}
}

func (e *fakeEngine) record(op string, args ...any) {
	call := op
	if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprint(a)
		}
		call += "(" + strings.Join(parts, ",") + ")"
	}
	e.calls = append(e.calls, call)
}

func (e *fakeEngine) newImage(width, height int, format Format) *fakeImage {
	e.live++
	return &fakeImage{
		engine:     e,
		width:      width,
		height:     height,
		format:     format,
		artifacts:  map[string]string{},
		attributes: map[string]string{},
		profiles:   map[string][]byte{},
	}
}

func (e *fakeEngine) result(out *fakeImage) (NativeImage, error) {
	if e.fail != nil {
		e.live--
		return nil, e.fail
	}
	return out, e.warn
}

func (e *fakeEngine) Name() string          { return "fake" }
func (e *fakeEngine) Version() string       { return "0" }
func (e *fakeEngine) Formats() []FormatInfo { return e.formats }

func (e *fakeEngine) NewImage(width, height int, background Color) (NativeImage, error) {
	e.record("NewImage", width, height, background)
	return e.result(e.newImage(width, height, FormatUnknown))
}

// Read data of the form "PNG 100x50 3" creates 3 frames of 100x50
func (e *fakeEngine) Read(data []byte, settings *ReadSettings) ([]NativeImage, error) {
	e.record("Read", string(data))
	if e.fail != nil {
		return nil, e.fail
	}
	var (
		format        string
		width, height int
		count         = 1
	)
	if _, err := fmt.Sscanf(string(data), "%s %dx%d %d", &format, &width, &height, &count); err != nil && width == 0 {
		return nil, NewException(CorruptImageError, "improper image header", err.Error())
	}
	frames := make([]NativeImage, count)
	for i := range frames {
		frames[i] = e.newImage(width, height, Format(format))
	}
	return frames, e.warn
}

func (e *fakeEngine) Ping(data []byte, settings *ReadSettings) ([]NativeImage, error) {
	return e.Read(data, settings)
}

func (e *fakeEngine) Write(frames []NativeImage, settings *Settings) ([]byte, error) {
	e.record("Write", len(frames), settings.Format)
	if e.fail != nil {
		return nil, e.fail
	}
	f := frames[0]
	return []byte(fmt.Sprintf("%s %dx%d %d", settings.Format, f.Width(), f.Height(), len(frames))), e.warn
}

func (e *fakeEngine) Append(frames []NativeImage, vertical bool) (NativeImage, error) {
	e.record("Append", len(frames), vertical)
	w, h := 0, 0
	for _, f := range frames {
		if vertical {
			w, h = max(w, f.Width()), h+f.Height()
		} else {
			w, h = w+f.Width(), max(h, f.Height())
		}
	}
	return e.result(e.newImage(w, h, frames[0].Format()))
}

func (e *fakeEngine) Coalesce(frames []NativeImage) ([]NativeImage, error) {
	e.record("Coalesce", len(frames))
	if e.fail != nil {
		return nil, e.fail
	}
	out := make([]NativeImage, len(frames))
	for i, f := range frames {
		out[i] = e.newImage(f.Width(), f.Height(), f.Format())
	}
	return out, nil
}

func (e *fakeEngine) Layers(frames []NativeImage, method LayerMethod) (NativeImage, error) {
	e.record("Layers", len(frames), method)
	return e.result(e.newImage(frames[0].Width(), frames[0].Height(), frames[0].Format()))
}

func (e *fakeEngine) Combine(frames []NativeImage, colorSpace ColorSpace) (NativeImage, error) {
	e.record("Combine", len(frames), colorSpace)
	return e.result(e.newImage(frames[0].Width(), frames[0].Height(), frames[0].Format()))
}

func (e *fakeEngine) Evaluate(frames []NativeImage, operator EvaluateOperator) (NativeImage, error) {
	e.record("EvaluateList", len(frames), operator)
	return e.result(e.newImage(frames[0].Width(), frames[0].Height(), frames[0].Format()))
}

func (e *fakeEngine) Smush(frames []NativeImage, offset int, vertical bool) (NativeImage, error) {
	e.record("Smush", len(frames), offset, vertical)
	return e.result(e.newImage(frames[0].Width(), frames[0].Height(), frames[0].Format()))
}

// fakeImage implements the operations exercised by the tests,
// others panic through the nil embedded interface
type fakeImage struct {
	NativeImage

	engine        *fakeEngine
	width, height int
	format        Format
	alpha         bool
	destroyed     bool
	artifacts     map[string]string
	attributes    map[string]string
	profiles      map[string][]byte
	pixels        []byte
}

func (f *fakeImage) derive(op string, width, height int, args ...any) (NativeImage, error) {
	f.engine.record(op, args...)
	out := f.engine.newImage(width, height, f.format)
	out.alpha = f.alpha
	out.profiles = maps.Clone(f.profiles)
	return f.engine.result(out)
}

func (f *fakeImage) same(op string, args ...any) (NativeImage, error) {
	return f.derive(op, f.width, f.height, args...)
}

func (f *fakeImage) Width() int              { return f.width }
func (f *fakeImage) Height() int             { return f.height }
func (f *fakeImage) Format() Format          { return f.format }
func (f *fakeImage) SetFormat(format Format) { f.format = format }
func (f *fakeImage) HasAlpha() bool          { return f.alpha }
func (f *fakeImage) ColorSpace() ColorSpace  { return ColorSpaceSRGB }

func (f *fakeImage) Clone() (NativeImage, error) {
	return f.same("Clone")
}

func (f *fakeImage) Destroy() {
	if f.destroyed {
		panic("double destroy")
	}
	f.destroyed = true
	f.engine.live--
	f.engine.destroyed++
}

func (f *fakeImage) Blur(radius, sigma float64, channels Channels) (NativeImage, error) {
	return f.same("Blur", radius, sigma, channels)
}

func (f *fakeImage) Sharpen(radius, sigma float64, channels Channels) (NativeImage, error) {
	return f.same("Sharpen", radius, sigma, channels)
}

func (f *fakeImage) UnsharpMask(radius, sigma, amount, threshold float64, channels Channels) (NativeImage, error) {
	return f.same("UnsharpMask", radius, sigma, amount, threshold, channels)
}

func (f *fakeImage) Resize(geometry string, filter FilterType) (NativeImage, error) {
	g, err := ParseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	w, h := g.Fit(f.width, f.height)
	return f.derive("Resize", w, h, geometry, filter)
}

func (f *fakeImage) Thumbnail(geometry string) (NativeImage, error) {
	g, err := ParseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	w, h := g.Fit(f.width, f.height)
	return f.derive("Thumbnail", w, h, geometry)
}

func (f *fakeImage) Crop(geometry string, gravity Gravity) (NativeImage, error) {
	g, err := ParseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	return f.derive("Crop", min(g.Width, f.width), min(g.Height, f.height), geometry, gravity)
}

func (f *fakeImage) Extent(geometry string, gravity Gravity, background Color) (NativeImage, error) {
	g, err := ParseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	return f.derive("Extent", g.Width, g.Height, geometry, gravity, background.ShortString())
}

func (f *fakeImage) Border(width, height int, color Color) (NativeImage, error) {
	return f.derive("Border", f.width+2*width, f.height+2*height, width, height, color.ShortString())
}

func (f *fakeImage) Rotate(degrees float64, background Color) (NativeImage, error) {
	return f.same("Rotate", degrees, background.ShortString())
}

func (f *fakeImage) Flip() (NativeImage, error) { return f.same("Flip") }
func (f *fakeImage) Flop() (NativeImage, error) { return f.same("Flop") }

func (f *fakeImage) Trim(fuzz float64) (NativeImage, error) {
	return f.same("Trim", fuzz)
}

func (f *fakeImage) Distort(method DistortMethod, bestFit bool, args []float64) (NativeImage, error) {
	viewport := f.artifacts["distort:viewport"]
	return f.same("Distort", method, bestFit, args, viewport)
}

func (f *fakeImage) Threshold(value float64, channels Channels) (NativeImage, error) {
	return f.same("Threshold", value, channels)
}

func (f *fakeImage) Modulate(brightness, saturation, hue float64) (NativeImage, error) {
	return f.same("Modulate", brightness, saturation, hue)
}

func (f *fakeImage) Level(black, white, gamma float64, channels Channels) (NativeImage, error) {
	return f.same("Level", black, white, gamma, channels)
}

func (f *fakeImage) Colorize(color Color, alpha float64) (NativeImage, error) {
	return f.same("Colorize", color.ShortString(), alpha)
}

func (f *fakeImage) SepiaTone(threshold float64) (NativeImage, error) {
	return f.same("SepiaTone", threshold)
}

func (f *fakeImage) Solarize(factor float64) (NativeImage, error) {
	return f.same("Solarize", factor)
}

func (f *fakeImage) Deskew(threshold float64) (NativeImage, error) {
	out, err := f.same("Deskew", threshold, f.artifacts["deskew:auto-crop"])
	if out != nil {
		out.SetArtifact("deskew:angle", "2.5")
	}
	return out, err
}

func (f *fakeImage) Morphology(method MorphologyMethod, kernel string, iterations int, channels Channels) (NativeImage, error) {
	return f.same("Morphology", method, kernel, iterations, channels)
}

func (f *fakeImage) Composite(source NativeImage, x, y int, operator CompositeOperator, channels Channels) (NativeImage, error) {
	return f.same("Composite", x, y, operator, channels)
}

func (f *fakeImage) TransformProfile(source, target []byte) (NativeImage, error) {
	out, err := f.same("TransformProfile", len(source), len(target))
	if fi, ok := out.(*fakeImage); ok {
		fi.profiles["icc"] = target
	}
	return out, err
}

func (f *fakeImage) Quantize(settings *QuantizeSettings) (NativeImage, error) {
	return f.same("Quantize", settings.Colors, settings.DitherMethod)
}

func (f *fakeImage) ImportPixels(x, y, width, height int, mapping string, storage StorageType, data []byte) (NativeImage, error) {
	out, err := f.same("ImportPixels", x, y, width, height, mapping, storage, len(data))
	if fi, ok := out.(*fakeImage); ok {
		fi.pixels = data
	}
	return out, err
}

func (f *fakeImage) ExportPixels(x, y, width, height int, mapping string, storage StorageType) ([]byte, error) {
	f.engine.record("ExportPixels", x, y, width, height, mapping, storage)
	if f.pixels != nil {
		return f.pixels, nil
	}
	buf := make([]byte, width*height*len(mapping)*storage.Size())
	for i := range buf {
		buf[i] = 0xff
	}
	return buf, nil
}

func (f *fakeImage) Compare(reference NativeImage, metric ErrorMetric, channels Channels) (float64, error) {
	f.engine.record("Compare", metric, channels)
	if f.engine.fail != nil {
		return 0, f.engine.fail
	}
	return 0.5, nil
}

func (f *fakeImage) CompareDifference(reference NativeImage, metric ErrorMetric, channels Channels) (float64, NativeImage, error) {
	keys := slices.Sorted(maps.Keys(f.artifacts))
	out, err := f.same("CompareDifference", metric, channels, strings.Join(keys, " "))
	if err != nil {
		return 0, nil, err
	}
	return 0.25, out, nil
}

func (f *fakeImage) Statistics(channels Channels) (*Statistics, error) {
	f.engine.record("Statistics", channels)
	return &Statistics{Channels: []ChannelStatistics{
		{Channel: ChannelRed, Minimum: 0, Maximum: QuantumMax, Mean: 100},
		{Channel: ChannelGreen, Minimum: 10, Maximum: 200, Mean: 50},
	}}, nil
}

func (f *fakeImage) Artifact(name string) (string, bool) {
	v, ok := f.artifacts[name]
	return v, ok
}

func (f *fakeImage) SetArtifact(name, value string) { f.artifacts[name] = value }
func (f *fakeImage) RemoveArtifact(name string)     { delete(f.artifacts, name) }

func (f *fakeImage) Attribute(name string) (string, bool) {
	v, ok := f.attributes[name]
	return v, ok
}

func (f *fakeImage) SetAttribute(name, value string) { f.attributes[name] = value }

func (f *fakeImage) AttributeNames() []string {
	return slices.Collect(maps.Keys(f.attributes))
}

func (f *fakeImage) Profile(name string) ([]byte, bool) {
	v, ok := f.profiles[name]
	return v, ok
}

func (f *fakeImage) SetProfile(name string, data []byte) error {
	f.profiles[name] = data
	return nil
}

func (f *fakeImage) RemoveProfile(name string) { delete(f.profiles, name) }

func (f *fakeImage) ProfileNames() []string {
	return slices.Collect(maps.Keys(f.profiles))
}

func newFakeMagick(options ...Option) (*Magick, *fakeEngine) {
	e := newFakeEngine()
	return New(e, options...), e
}
