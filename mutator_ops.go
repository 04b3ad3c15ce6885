package magick

import (
	"strconv"
)

// BlurOptions options of Blur and AdaptiveBlur
type BlurOptions struct {
	Radius   float64
	Sigma    float64
	Channels Channels
}

// NewBlurOptions default blur options
func NewBlurOptions() *BlurOptions {
	return &BlurOptions{Sigma: 1}
}

func (o *BlurOptions) validate() error {
	if err := checkNotNegative("radius", o.Radius); err != nil {
		return err
	}
	return checkNotNegative("sigma", o.Sigma)
}

// SharpenOptions options of Sharpen and AdaptiveSharpen
type SharpenOptions = BlurOptions

// NewSharpenOptions default sharpen options
func NewSharpenOptions() *SharpenOptions {
	return NewBlurOptions()
}

// UnsharpMaskOptions options of UnsharpMask
type UnsharpMaskOptions struct {
	Radius    float64
	Sigma     float64
	Amount    float64
	Threshold float64
	Channels  Channels
}

// NewUnsharpMaskOptions default unsharp mask options
func NewUnsharpMaskOptions() *UnsharpMaskOptions {
	return &UnsharpMaskOptions{Sigma: 1, Amount: 1, Threshold: 0.05}
}

// DistortOptions options of Distort
type DistortOptions struct {
	// BestFit grows the canvas to fit the distorted image
	BestFit bool
	// Viewport output area, overrides BestFit
	Viewport *Geometry
}

// Blur gaussian like blur, nil options apply radius 0 sigma 1
func (m *Mutator) Blur(opts *BlurOptions) error {
	if opts == nil {
		opts = NewBlurOptions()
	}
	if err := opts.validate(); err != nil {
		return err
	}
	return m.exec("Blur", func(h NativeImage) (NativeImage, error) {
		return h.Blur(opts.Radius, opts.Sigma, opts.Channels.Resolve())
	})
}

// AdaptiveBlur blurs less near edges, channels are not used
func (m *Mutator) AdaptiveBlur(opts *BlurOptions) error {
	if opts == nil {
		opts = NewBlurOptions()
	}
	if err := opts.validate(); err != nil {
		return err
	}
	return m.exec("AdaptiveBlur", func(h NativeImage) (NativeImage, error) {
		return h.AdaptiveBlur(opts.Radius, opts.Sigma)
	})
}

// Sharpen sharpens the image
func (m *Mutator) Sharpen(opts *SharpenOptions) error {
	if opts == nil {
		opts = NewSharpenOptions()
	}
	if err := opts.validate(); err != nil {
		return err
	}
	return m.exec("Sharpen", func(h NativeImage) (NativeImage, error) {
		return h.Sharpen(opts.Radius, opts.Sigma, opts.Channels.Resolve())
	})
}

// AdaptiveSharpen sharpens more near edges
func (m *Mutator) AdaptiveSharpen(opts *SharpenOptions) error {
	if opts == nil {
		opts = NewSharpenOptions()
	}
	if err := opts.validate(); err != nil {
		return err
	}
	return m.exec("AdaptiveSharpen", func(h NativeImage) (NativeImage, error) {
		return h.AdaptiveSharpen(opts.Radius, opts.Sigma, opts.Channels.Resolve())
	})
}

// UnsharpMask sharpens with an unsharp mask
func (m *Mutator) UnsharpMask(opts *UnsharpMaskOptions) error {
	if opts == nil {
		opts = NewUnsharpMaskOptions()
	}
	if err := checkNotNegative("radius", opts.Radius); err != nil {
		return err
	}
	if err := checkNotNegative("sigma", opts.Sigma); err != nil {
		return err
	}
	if err := checkNotNegative("amount", opts.Amount); err != nil {
		return err
	}
	if err := checkNotNegative("threshold", opts.Threshold); err != nil {
		return err
	}
	return m.exec("UnsharpMask", func(h NativeImage) (NativeImage, error) {
		return h.UnsharpMask(opts.Radius, opts.Sigma, opts.Amount, opts.Threshold, opts.Channels.Resolve())
	})
}

func geometryArg(g Geometry) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	return g.String(), nil
}

func (m *Mutator) geometryOp(operation string, g Geometry, fn func(h NativeImage, geometry string) (NativeImage, error)) error {
	geometry, err := geometryArg(g)
	if err != nil {
		return err
	}
	return m.exec(operation, func(h NativeImage) (NativeImage, error) {
		return fn(h, geometry)
	})
}

// Resize resizes to the geometry using the settings filter
func (m *Mutator) Resize(g Geometry) error {
	filter := m.image.settings.FilterType
	return m.geometryOp("Resize", g, func(h NativeImage, geometry string) (NativeImage, error) {
		return h.Resize(geometry, filter)
	})
}

// ResizeSize resizes to fit width x height keeping aspect ratio
func (m *Mutator) ResizeSize(width, height int) error {
	return m.Resize(NewGeometry(width, height))
}

// ResizePercentage resizes by percentage
func (m *Mutator) ResizePercentage(p Percentage) error {
	g, err := NewPercentageGeometry(p, p)
	if err != nil {
		return err
	}
	return m.Resize(g)
}

// AdaptiveResize resizes using mesh interpolation
func (m *Mutator) AdaptiveResize(g Geometry) error {
	return m.geometryOp("AdaptiveResize", g, NativeImage.AdaptiveResize)
}

// Thumbnail resizes and strips profiles except color profiles
func (m *Mutator) Thumbnail(g Geometry) error {
	return m.geometryOp("Thumbnail", g, NativeImage.Thumbnail)
}

// Scale resizes by pixel averaging
func (m *Mutator) Scale(g Geometry) error {
	return m.geometryOp("Scale", g, NativeImage.Scale)
}

// Sample resizes by pixel sampling
func (m *Mutator) Sample(g Geometry) error {
	return m.geometryOp("Sample", g, NativeImage.Sample)
}

// Crop crops the area positioned by gravity
func (m *Mutator) Crop(g Geometry, gravity Gravity) error {
	return m.geometryOp("Crop", g, func(h NativeImage, geometry string) (NativeImage, error) {
		return h.Crop(geometry, gravity)
	})
}

// CropSize crops width x height at the gravity
func (m *Mutator) CropSize(width, height int, gravity Gravity) error {
	return m.Crop(NewGeometry(width, height), gravity)
}

// Extent extends or crops the canvas, new area filled with the settings background
func (m *Mutator) Extent(g Geometry, gravity Gravity) error {
	background := m.image.settings.BackgroundColor
	return m.geometryOp("Extent", g, func(h NativeImage, geometry string) (NativeImage, error) {
		return h.Extent(geometry, gravity, background)
	})
}

// Border surrounds the image with the settings border color
func (m *Mutator) Border(width, height int) error {
	if err := checkNotNegative("width", float64(width)); err != nil {
		return err
	}
	if err := checkNotNegative("height", float64(height)); err != nil {
		return err
	}
	color := m.image.settings.BorderColor
	return m.exec("Border", func(h NativeImage) (NativeImage, error) {
		return h.Border(width, height, color)
	})
}

// Shave removes width and height pixels from the edges
func (m *Mutator) Shave(width, height int) error {
	if err := checkNotNegative("width", float64(width)); err != nil {
		return err
	}
	if err := checkNotNegative("height", float64(height)); err != nil {
		return err
	}
	return m.exec("Shave", func(h NativeImage) (NativeImage, error) {
		return h.Shave(width, height)
	})
}

// Chop removes the rows and columns of the geometry
func (m *Mutator) Chop(g Geometry) error {
	return m.geometryOp("Chop", g, NativeImage.Chop)
}

// Trim removes edges matching the corner color within the settings color fuzz
func (m *Mutator) Trim() error {
	fuzz := m.image.settings.ColorFuzz.Multiply(QuantumMax)
	return m.exec("Trim", func(h NativeImage) (NativeImage, error) {
		return h.Trim(fuzz)
	})
}

// Rotate rotates clockwise, empty area filled with the settings background
func (m *Mutator) Rotate(degrees float64) error {
	background := m.image.settings.BackgroundColor
	return m.exec("Rotate", func(h NativeImage) (NativeImage, error) {
		return h.Rotate(degrees, background)
	})
}

// Flip mirrors vertically
func (m *Mutator) Flip() error {
	return m.exec("Flip", NativeImage.Flip)
}

// Flop mirrors horizontally
func (m *Mutator) Flop() error {
	return m.exec("Flop", NativeImage.Flop)
}

// Transpose mirrors along the top-left to bottom-right diagonal
func (m *Mutator) Transpose() error {
	return m.exec("Transpose", NativeImage.Transpose)
}

// Transverse mirrors along the bottom-left to top-right diagonal
func (m *Mutator) Transverse() error {
	return m.exec("Transverse", NativeImage.Transverse)
}

// AutoOrient rotates according to the orientation tag
func (m *Mutator) AutoOrient() error {
	return m.exec("AutoOrient", NativeImage.AutoOrient)
}

// Distort distorts by method with its arguments
func (m *Mutator) Distort(method DistortMethod, opts *DistortOptions, args ...float64) error {
	if len(args) == 0 {
		return argError("arguments", "value cannot be empty")
	}
	if opts == nil {
		opts = &DistortOptions{}
	}
	var viewport string
	if opts.Viewport != nil {
		var err error
		if viewport, err = geometryArg(*opts.Viewport); err != nil {
			return err
		}
	}
	return m.exec("Distort", func(h NativeImage) (NativeImage, error) {
		if viewport != "" {
			defer setArtifacts(h, map[string]string{"distort:viewport": viewport})()
		}
		return h.Distort(method, opts.BestFit, args)
	})
}

// Threshold sets pixels above the percentage of quantum to max, others to zero
func (m *Mutator) Threshold(p Percentage, channels Channels) error {
	if err := checkNotNegative("percentage", float64(p)); err != nil {
		return err
	}
	value := p.Multiply(QuantumMax)
	return m.exec("Threshold", func(h NativeImage) (NativeImage, error) {
		return h.Threshold(value, channels.Resolve())
	})
}

// AdaptiveThreshold thresholds against the local mean of width x height offset by bias
func (m *Mutator) AdaptiveThreshold(width, height int, bias Percentage, channels Channels) error {
	if err := checkNotNegative("width", float64(width)); err != nil {
		return err
	}
	if err := checkNotNegative("height", float64(height)); err != nil {
		return err
	}
	value := bias.Multiply(QuantumMax)
	return m.exec("AdaptiveThreshold", func(h NativeImage) (NativeImage, error) {
		return h.AdaptiveThreshold(width, height, value, channels.Resolve())
	})
}

// Negate inverts colors, onlyGrayscale limits to gray pixels
func (m *Mutator) Negate(onlyGrayscale bool, channels Channels) error {
	return m.exec("Negate", func(h NativeImage) (NativeImage, error) {
		return h.Negate(onlyGrayscale, channels.Resolve())
	})
}

// Grayscale converts to gray using the intensity method
func (m *Mutator) Grayscale(method PixelIntensityMethod) error {
	return m.exec("Grayscale", func(h NativeImage) (NativeImage, error) {
		return h.Grayscale(method)
	})
}

// SetColorSpace converts pixels to the color space
func (m *Mutator) SetColorSpace(colorSpace ColorSpace) error {
	if colorSpace == ColorSpaceUndefined {
		return argError("colorSpace", "value cannot be undefined")
	}
	return m.exec("TransformColorSpace", func(h NativeImage) (NativeImage, error) {
		return h.TransformColorSpace(colorSpace)
	})
}

// TransformColorSpace converts pixels from source to target profile.
// A nil source uses the embedded color profile. It reports false
// without calling the engine when there is no source profile or when
// the source profile does not match the image color space.
func (m *Mutator) TransformColorSpace(source, target *ColorProfile) (bool, error) {
	if target == nil {
		return false, argError("target", "value cannot be nil")
	}
	h, err := m.source()
	if err != nil {
		return false, err
	}
	var sourceData []byte
	if source == nil {
		embedded, err := m.image.ColorProfile()
		if err != nil || embedded == nil {
			return false, err
		}
		if !embedded.matches(h.ColorSpace()) {
			return false, nil
		}
	} else {
		if !source.matches(h.ColorSpace()) {
			return false, nil
		}
		sourceData = source.Data()
	}
	targetData := target.Data()
	if err = m.exec("TransformProfile", func(h NativeImage) (NativeImage, error) {
		return h.TransformProfile(sourceData, targetData)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// BrightnessContrast adjusts brightness and contrast, both in -100% to 100%
func (m *Mutator) BrightnessContrast(brightness, contrast Percentage, channels Channels) error {
	return m.exec("BrightnessContrast", func(h NativeImage) (NativeImage, error) {
		return h.BrightnessContrast(brightness.Float(), contrast.Float(), channels.Resolve())
	})
}

// Modulate scales brightness, saturation and hue, 100% is unchanged
func (m *Mutator) Modulate(brightness, saturation, hue Percentage) error {
	if err := checkNotNegative("brightness", float64(brightness)); err != nil {
		return err
	}
	if err := checkNotNegative("saturation", float64(saturation)); err != nil {
		return err
	}
	if err := checkNotNegative("hue", float64(hue)); err != nil {
		return err
	}
	return m.exec("Modulate", func(h NativeImage) (NativeImage, error) {
		return h.Modulate(brightness.Float(), saturation.Float(), hue.Float())
	})
}

// Gamma applies gamma correction
func (m *Mutator) Gamma(value float64, channels Channels) error {
	if err := checkNotNegative("gamma", value); err != nil {
		return err
	}
	return m.exec("Gamma", func(h NativeImage) (NativeImage, error) {
		return h.Gamma(value, channels.Resolve())
	})
}

// Level stretches the range between black and white point
func (m *Mutator) Level(blackPoint, whitePoint Percentage, gamma float64, channels Channels) error {
	if err := checkNotNegative("blackPoint", float64(blackPoint)); err != nil {
		return err
	}
	if err := checkNotNegative("whitePoint", float64(whitePoint)); err != nil {
		return err
	}
	if err := checkNotNegative("gamma", gamma); err != nil {
		return err
	}
	black, white := blackPoint.Multiply(QuantumMax), whitePoint.Multiply(QuantumMax)
	return m.exec("Level", func(h NativeImage) (NativeImage, error) {
		return h.Level(black, white, gamma, channels.Resolve())
	})
}

// Colorize blends the fill color with alpha percent
func (m *Mutator) Colorize(color Color, alpha Percentage) error {
	if err := checkNotNegative("alpha", float64(alpha)); err != nil {
		return err
	}
	return m.exec("Colorize", func(h NativeImage) (NativeImage, error) {
		return h.Colorize(color, alpha.Float())
	})
}

// Deskew straightens the image and returns the detected angle
func (m *Mutator) Deskew(settings DeskewSettings) (float64, error) {
	if err := checkNotNegative("threshold", float64(settings.Threshold)); err != nil {
		return 0, err
	}
	threshold := settings.Threshold.Multiply(QuantumMax)
	err := m.exec("Deskew", func(h NativeImage) (NativeImage, error) {
		if settings.AutoCrop {
			defer setArtifacts(h, map[string]string{"deskew:auto-crop": "true"})()
		}
		return h.Deskew(threshold)
	})
	if err != nil {
		return 0, err
	}
	v, ok := m.current().Artifact("deskew:angle")
	if !ok {
		return 0, nil
	}
	angle, _ := strconv.ParseFloat(v, 64)
	return angle, nil
}

// Charcoal simulates a charcoal drawing
func (m *Mutator) Charcoal(radius, sigma float64) error {
	return m.exec("Charcoal", func(h NativeImage) (NativeImage, error) {
		return h.Charcoal(radius, sigma)
	})
}

// Emboss applies a relief effect
func (m *Mutator) Emboss(radius, sigma float64) error {
	return m.exec("Emboss", func(h NativeImage) (NativeImage, error) {
		return h.Emboss(radius, sigma)
	})
}

// Edge highlights edges
func (m *Mutator) Edge(radius float64) error {
	if err := checkNotNegative("radius", radius); err != nil {
		return err
	}
	return m.exec("Edge", func(h NativeImage) (NativeImage, error) {
		return h.Edge(radius)
	})
}

// SepiaTone applies a sepia tone with the threshold, 80% when zero
func (m *Mutator) SepiaTone(threshold Percentage) error {
	if err := checkNotNegative("threshold", float64(threshold)); err != nil {
		return err
	}
	if threshold == 0 {
		threshold = 80
	}
	value := threshold.Multiply(QuantumMax)
	return m.exec("SepiaTone", func(h NativeImage) (NativeImage, error) {
		return h.SepiaTone(value)
	})
}

// Median replaces each pixel by the median of its neighborhood
func (m *Mutator) Median(radius float64) error {
	if err := checkNotNegative("radius", radius); err != nil {
		return err
	}
	return m.exec("Median", func(h NativeImage) (NativeImage, error) {
		return h.Median(radius)
	})
}

// OilPaint simulates an oil painting
func (m *Mutator) OilPaint(radius, sigma float64) error {
	if err := checkNotNegative("radius", radius); err != nil {
		return err
	}
	return m.exec("OilPaint", func(h NativeImage) (NativeImage, error) {
		return h.OilPaint(radius, sigma)
	})
}

// Solarize negates pixels above the factor of quantum
func (m *Mutator) Solarize(factor Percentage) error {
	if err := checkNotNegative("factor", float64(factor)); err != nil {
		return err
	}
	value := factor.Multiply(QuantumMax)
	return m.exec("Solarize", func(h NativeImage) (NativeImage, error) {
		return h.Solarize(value)
	})
}

// Swirl swirls pixels around the center
func (m *Mutator) Swirl(degrees float64) error {
	return m.exec("Swirl", func(h NativeImage) (NativeImage, error) {
		return h.Swirl(degrees)
	})
}

// AddNoise adds noise of the type, attenuate 1 is unchanged strength
func (m *Mutator) AddNoise(noise NoiseType, attenuate float64, channels Channels) error {
	if err := checkNotNegative("attenuate", attenuate); err != nil {
		return err
	}
	return m.exec("AddNoise", func(h NativeImage) (NativeImage, error) {
		return h.AddNoise(noise, attenuate, channels.Resolve())
	})
}

// Morphology applies a morphology method with the kernel
func (m *Mutator) Morphology(settings MorphologySettings) error {
	if err := checkNotEmpty("kernel", settings.Kernel); err != nil {
		return err
	}
	if settings.Iterations < -1 {
		return argError("iterations", "value should be -1 or greater")
	}
	return m.exec("Morphology", func(h NativeImage) (NativeImage, error) {
		return h.Morphology(settings.Method, settings.Kernel, settings.Iterations, settings.Channels.Resolve())
	})
}

// Composite draws src over the image at x, y
func (m *Mutator) Composite(src *Image, x, y int, operator CompositeOperator, channels Channels) error {
	if err := checkImage("image", src); err != nil {
		return err
	}
	sh, err := src.native()
	if err != nil {
		return err
	}
	return m.composite(sh, x, y, operator, channels)
}

// CompositeGravity draws src positioned by gravity, x and y offset away from the edge
func (m *Mutator) CompositeGravity(src *Image, gravity Gravity, x, y int, operator CompositeOperator, channels Channels) error {
	if err := checkImage("image", src); err != nil {
		return err
	}
	sh, err := src.native()
	if err != nil {
		return err
	}
	h, err := m.source()
	if err != nil {
		return err
	}
	x, y = gravity.Offset(h.Width(), h.Height(), sh.Width(), sh.Height(), x, y)
	return m.composite(sh, x, y, operator, channels)
}

func (m *Mutator) composite(src NativeImage, x, y int, operator CompositeOperator, channels Channels) error {
	return m.exec("Composite", func(h NativeImage) (NativeImage, error) {
		return h.Composite(src, x, y, operator, channels.Resolve())
	})
}

// Offset position of a srcWidth x srcHeight area placed with gravity on a
// width x height canvas, x and y are relative to the gravity edge
func (g Gravity) Offset(width, height, srcWidth, srcHeight, x, y int) (int, int) {
	switch g {
	case GravityNorth, GravityCenter, GravitySouth:
		x += (width - srcWidth) / 2
	case GravityNortheast, GravityEast, GravitySoutheast:
		x = width - srcWidth - x
	}
	switch g {
	case GravityWest, GravityCenter, GravityEast:
		y += (height - srcHeight) / 2
	case GravitySouthwest, GravitySouth, GravitySoutheast:
		y = height - srcHeight - y
	}
	return x, y
}

// Evaluate applies an arithmetic operator with value to the channels
func (m *Mutator) Evaluate(channels Channels, operator EvaluateOperator, value float64) error {
	return m.exec("Evaluate", func(h NativeImage) (NativeImage, error) {
		return h.EvaluateOperator(operator, value, channels.Resolve())
	})
}

// EvaluatePercentage applies an arithmetic operator with a percentage of quantum
func (m *Mutator) EvaluatePercentage(channels Channels, operator EvaluateOperator, p Percentage) error {
	return m.Evaluate(channels, operator, p.Multiply(QuantumMax))
}

// Strip removes profiles and comments
func (m *Mutator) Strip() error {
	return m.exec("Strip", NativeImage.Strip)
}

// Quantize reduces the number of colors, nil settings apply defaults
func (m *Mutator) Quantize(settings *QuantizeSettings) error {
	if settings == nil {
		settings = NewQuantizeSettings()
	}
	if err := settings.validate(); err != nil {
		return err
	}
	s := *settings
	return m.exec("Quantize", func(h NativeImage) (NativeImage, error) {
		return h.Quantize(&s)
	})
}

// ImportPixels writes a pixel buffer into the image area
func (m *Mutator) ImportPixels(settings *PixelImportSettings) error {
	if settings == nil {
		return argError("settings", "value cannot be nil")
	}
	if err := settings.validate(); err != nil {
		return err
	}
	s := *settings
	return m.exec("ImportPixels", func(h NativeImage) (NativeImage, error) {
		return h.ImportPixels(s.X, s.Y, s.Width, s.Height, s.Mapping, s.StorageType, s.Data)
	})
}
