package magick

// Engine is the native image engine consumed by the binding.
// Every call may fail with an *Exception. A warning level Exception
// returned together with a non nil result means the call succeeded.
type Engine interface {
	Name() string
	Version() string
	Formats() []FormatInfo

	NewImage(width, height int, background Color) (NativeImage, error)
	Read(data []byte, settings *ReadSettings) ([]NativeImage, error)
	Ping(data []byte, settings *ReadSettings) ([]NativeImage, error)
	Write(frames []NativeImage, settings *Settings) ([]byte, error)

	Append(frames []NativeImage, vertical bool) (NativeImage, error)
	Coalesce(frames []NativeImage) ([]NativeImage, error)
	Layers(frames []NativeImage, method LayerMethod) (NativeImage, error)
	Combine(frames []NativeImage, colorSpace ColorSpace) (NativeImage, error)
	Evaluate(frames []NativeImage, operator EvaluateOperator) (NativeImage, error)
	Smush(frames []NativeImage, offset int, vertical bool) (NativeImage, error)
}

// NativeImage is a handle to an engine owned image.
// Transforms never modify the receiver, they return a new handle
// that the caller owns.
type NativeImage interface {
	Width() int
	Height() int
	Format() Format
	SetFormat(format Format)
	HasAlpha() bool
	ColorSpace() ColorSpace
	Clone() (NativeImage, error)
	Destroy()

	Blur(radius, sigma float64, channels Channels) (NativeImage, error)
	AdaptiveBlur(radius, sigma float64) (NativeImage, error)
	Sharpen(radius, sigma float64, channels Channels) (NativeImage, error)
	AdaptiveSharpen(radius, sigma float64, channels Channels) (NativeImage, error)
	UnsharpMask(radius, sigma, amount, threshold float64, channels Channels) (NativeImage, error)

	Resize(geometry string, filter FilterType) (NativeImage, error)
	AdaptiveResize(geometry string) (NativeImage, error)
	Thumbnail(geometry string) (NativeImage, error)
	Scale(geometry string) (NativeImage, error)
	Sample(geometry string) (NativeImage, error)
	Crop(geometry string, gravity Gravity) (NativeImage, error)
	Extent(geometry string, gravity Gravity, background Color) (NativeImage, error)
	Border(width, height int, color Color) (NativeImage, error)
	Shave(width, height int) (NativeImage, error)
	Chop(geometry string) (NativeImage, error)
	Trim(fuzz float64) (NativeImage, error)

	Rotate(degrees float64, background Color) (NativeImage, error)
	Flip() (NativeImage, error)
	Flop() (NativeImage, error)
	Transpose() (NativeImage, error)
	Transverse() (NativeImage, error)
	AutoOrient() (NativeImage, error)
	Distort(method DistortMethod, bestFit bool, args []float64) (NativeImage, error)

	Threshold(value float64, channels Channels) (NativeImage, error)
	AdaptiveThreshold(width, height int, bias float64, channels Channels) (NativeImage, error)
	Negate(onlyGrayscale bool, channels Channels) (NativeImage, error)
	Grayscale(method PixelIntensityMethod) (NativeImage, error)
	TransformColorSpace(colorSpace ColorSpace) (NativeImage, error)
	TransformProfile(source, target []byte) (NativeImage, error)
	BrightnessContrast(brightness, contrast float64, channels Channels) (NativeImage, error)
	Modulate(brightness, saturation, hue float64) (NativeImage, error)
	Gamma(value float64, channels Channels) (NativeImage, error)
	Level(blackPoint, whitePoint, gamma float64, channels Channels) (NativeImage, error)
	Colorize(color Color, alpha float64) (NativeImage, error)
	Deskew(threshold float64) (NativeImage, error)
	Charcoal(radius, sigma float64) (NativeImage, error)
	Emboss(radius, sigma float64) (NativeImage, error)
	Edge(radius float64) (NativeImage, error)
	SepiaTone(threshold float64) (NativeImage, error)
	Median(radius float64) (NativeImage, error)
	OilPaint(radius, sigma float64) (NativeImage, error)
	Solarize(factor float64) (NativeImage, error)
	Swirl(degrees float64) (NativeImage, error)
	AddNoise(noise NoiseType, attenuate float64, channels Channels) (NativeImage, error)
	Morphology(method MorphologyMethod, kernel string, iterations int, channels Channels) (NativeImage, error)
	Composite(source NativeImage, x, y int, operator CompositeOperator, channels Channels) (NativeImage, error)
	EvaluateOperator(operator EvaluateOperator, value float64, channels Channels) (NativeImage, error)
	Strip() (NativeImage, error)
	Quantize(settings *QuantizeSettings) (NativeImage, error)
	ImportPixels(x, y, width, height int, mapping string, storage StorageType, data []byte) (NativeImage, error)

	Compare(reference NativeImage, metric ErrorMetric, channels Channels) (float64, error)
	CompareDifference(reference NativeImage, metric ErrorMetric, channels Channels) (float64, NativeImage, error)
	ExportPixels(x, y, width, height int, mapping string, storage StorageType) ([]byte, error)
	Statistics(channels Channels) (*Statistics, error)

	Artifact(name string) (string, bool)
	SetArtifact(name, value string)
	RemoveArtifact(name string)
	Attribute(name string) (string, bool)
	SetAttribute(name, value string)
	AttributeNames() []string
	Profile(name string) ([]byte, bool)
	SetProfile(name string, data []byte) error
	RemoveProfile(name string)
	ProfileNames() []string
}
