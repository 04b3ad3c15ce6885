//go:build magickwand

package wand

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/gographics/imagick.v3/imagick"

	"github.com/cshum/magick"
)

// Image single image MagickWand implementing magick.NativeImage
type Image struct {
	mw *imagick.MagickWand
}

// apply runs fn on a clone, warnings keep the result
func (img *Image) apply(operation string, fn func(mw *imagick.MagickWand) error) (magick.NativeImage, error) {
	mw := img.mw.Clone()
	if err := fn(mw); err != nil {
		ex := exception(err, operation)
		if ex.Severity >= magick.ErrorSeverity {
			mw.Destroy()
			return nil, ex
		}
		return &Image{mw: mw}, ex
	}
	return &Image{mw: mw}, nil
}

// masked runs fn with the channel mask of channels
func masked(mw *imagick.MagickWand, channels magick.Channels, fn func() error) error {
	if channels == magick.ChannelsUndefined {
		return fn()
	}
	prev := mw.SetImageChannelMask(imagick.ChannelType(channels))
	defer mw.SetImageChannelMask(prev)
	return fn()
}

func (img *Image) fit(geometry string) (uint, uint, error) {
	g, err := magick.ParseGeometry(geometry)
	if err != nil {
		return 0, 0, err
	}
	w, h := g.Fit(img.Width(), img.Height())
	return uint(w), uint(h), nil
}

// region resolves geometry with gravity on the image
func (img *Image) region(geometry string, gravity magick.Gravity) (x, y, w, h int, err error) {
	g, err := magick.ParseGeometry(geometry)
	if err != nil {
		return
	}
	width, height := img.Width(), img.Height()
	w, h = g.Width, g.Height
	if g.IsPercentage {
		if h == 0 {
			h = w
		}
		w, h = width*w/100, height*h/100
	}
	if w == 0 {
		w = width
	}
	if h == 0 {
		h = height
	}
	x, y = gravity.Offset(width, height, w, h, g.X, g.Y)
	return
}

// Width implements magick.NativeImage
func (img *Image) Width() int {
	return int(img.mw.GetImageWidth())
}

// Height implements magick.NativeImage
func (img *Image) Height() int {
	return int(img.mw.GetImageHeight())
}

// Format implements magick.NativeImage
func (img *Image) Format() magick.Format {
	return magick.ParseFormat(img.mw.GetImageFormat())
}

// SetFormat implements magick.NativeImage
func (img *Image) SetFormat(format magick.Format) {
	_ = img.mw.SetImageFormat(string(format))
}

// HasAlpha implements magick.NativeImage
func (img *Image) HasAlpha() bool {
	return img.mw.GetImageAlphaChannel()
}

// ColorSpace implements magick.NativeImage
func (img *Image) ColorSpace() magick.ColorSpace {
	return magick.ColorSpace(img.mw.GetImageColorspace())
}

// Clone implements magick.NativeImage
func (img *Image) Clone() (magick.NativeImage, error) {
	return &Image{mw: img.mw.Clone()}, nil
}

// Destroy implements magick.NativeImage
func (img *Image) Destroy() {
	if img.mw != nil {
		img.mw.Destroy()
		img.mw = nil
	}
}

// Blur implements magick.NativeImage
func (img *Image) Blur(radius, sigma float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("blur", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error { return mw.BlurImage(radius, sigma) })
	})
}

// AdaptiveBlur implements magick.NativeImage
func (img *Image) AdaptiveBlur(radius, sigma float64) (magick.NativeImage, error) {
	return img.apply("adaptive-blur", func(mw *imagick.MagickWand) error {
		return mw.AdaptiveBlurImage(radius, sigma)
	})
}

// Sharpen implements magick.NativeImage
func (img *Image) Sharpen(radius, sigma float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("sharpen", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error { return mw.SharpenImage(radius, sigma) })
	})
}

// AdaptiveSharpen implements magick.NativeImage
func (img *Image) AdaptiveSharpen(radius, sigma float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("adaptive-sharpen", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error { return mw.AdaptiveSharpenImage(radius, sigma) })
	})
}

// UnsharpMask implements magick.NativeImage
func (img *Image) UnsharpMask(radius, sigma, amount, threshold float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("unsharp", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error {
			return mw.UnsharpMaskImage(radius, sigma, amount, threshold)
		})
	})
}

func (img *Image) resize(operation, geometry string, fn func(mw *imagick.MagickWand, w, h uint) error) (magick.NativeImage, error) {
	w, h, err := img.fit(geometry)
	if err != nil {
		return nil, err
	}
	return img.apply(operation, func(mw *imagick.MagickWand) error {
		return fn(mw, w, h)
	})
}

// Resize implements magick.NativeImage
func (img *Image) Resize(geometry string, filter magick.FilterType) (magick.NativeImage, error) {
	return img.resize("resize", geometry, func(mw *imagick.MagickWand, w, h uint) error {
		return mw.ResizeImage(w, h, imagick.FilterType(filter))
	})
}

// AdaptiveResize implements magick.NativeImage
func (img *Image) AdaptiveResize(geometry string) (magick.NativeImage, error) {
	return img.resize("adaptive-resize", geometry, func(mw *imagick.MagickWand, w, h uint) error {
		return mw.AdaptiveResizeImage(w, h)
	})
}

// Thumbnail implements magick.NativeImage
func (img *Image) Thumbnail(geometry string) (magick.NativeImage, error) {
	return img.resize("thumbnail", geometry, func(mw *imagick.MagickWand, w, h uint) error {
		return mw.ThumbnailImage(w, h)
	})
}

// Scale implements magick.NativeImage
func (img *Image) Scale(geometry string) (magick.NativeImage, error) {
	return img.resize("scale", geometry, func(mw *imagick.MagickWand, w, h uint) error {
		return mw.ScaleImage(w, h)
	})
}

// Sample implements magick.NativeImage
func (img *Image) Sample(geometry string) (magick.NativeImage, error) {
	return img.resize("sample", geometry, func(mw *imagick.MagickWand, w, h uint) error {
		return mw.SampleImage(w, h)
	})
}

// Crop implements magick.NativeImage
func (img *Image) Crop(geometry string, gravity magick.Gravity) (magick.NativeImage, error) {
	x, y, w, h, err := img.region(geometry, gravity)
	if err != nil {
		return nil, err
	}
	return img.apply("crop", func(mw *imagick.MagickWand) error {
		if err := mw.CropImage(uint(w), uint(h), x, y); err != nil {
			return err
		}
		return mw.ResetImagePage("")
	})
}

// Extent implements magick.NativeImage
func (img *Image) Extent(geometry string, gravity magick.Gravity, background magick.Color) (magick.NativeImage, error) {
	g, err := magick.ParseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	if g.Width <= 0 || g.Height <= 0 {
		return nil, magick.NewException(magick.OptionError, "invalid geometry", geometry)
	}
	x, y := gravity.Offset(g.Width, g.Height, img.Width(), img.Height(), -g.X, -g.Y)
	return img.apply("extent", func(mw *imagick.MagickWand) error {
		pw := pixelWand(background)
		defer pw.Destroy()
		if err := mw.SetImageBackgroundColor(pw); err != nil {
			return err
		}
		return mw.ExtentImage(uint(g.Width), uint(g.Height), -x, -y)
	})
}

// Border implements magick.NativeImage
func (img *Image) Border(width, height int, c magick.Color) (magick.NativeImage, error) {
	return img.apply("border", func(mw *imagick.MagickWand) error {
		pw := pixelWand(c)
		defer pw.Destroy()
		return mw.BorderImage(pw, uint(width), uint(height), imagick.COMPOSITE_OP_OVER)
	})
}

// Shave implements magick.NativeImage
func (img *Image) Shave(width, height int) (magick.NativeImage, error) {
	return img.apply("shave", func(mw *imagick.MagickWand) error {
		return mw.ShaveImage(uint(width), uint(height))
	})
}

// Chop implements magick.NativeImage
func (img *Image) Chop(geometry string) (magick.NativeImage, error) {
	g, err := magick.ParseGeometry(geometry)
	if err != nil {
		return nil, err
	}
	return img.apply("chop", func(mw *imagick.MagickWand) error {
		return mw.ChopImage(uint(g.Width), uint(g.Height), g.X, g.Y)
	})
}

// Trim implements magick.NativeImage
func (img *Image) Trim(fuzz float64) (magick.NativeImage, error) {
	return img.apply("trim", func(mw *imagick.MagickWand) error {
		if err := mw.TrimImage(fuzz); err != nil {
			return err
		}
		return mw.ResetImagePage("")
	})
}

// Rotate implements magick.NativeImage
func (img *Image) Rotate(degrees float64, background magick.Color) (magick.NativeImage, error) {
	return img.apply("rotate", func(mw *imagick.MagickWand) error {
		pw := pixelWand(background)
		defer pw.Destroy()
		return mw.RotateImage(pw, degrees)
	})
}

// Flip implements magick.NativeImage
func (img *Image) Flip() (magick.NativeImage, error) {
	return img.apply("flip", (*imagick.MagickWand).FlipImage)
}

// Flop implements magick.NativeImage
func (img *Image) Flop() (magick.NativeImage, error) {
	return img.apply("flop", (*imagick.MagickWand).FlopImage)
}

// Transpose implements magick.NativeImage
func (img *Image) Transpose() (magick.NativeImage, error) {
	return img.apply("transpose", (*imagick.MagickWand).TransposeImage)
}

// Transverse implements magick.NativeImage
func (img *Image) Transverse() (magick.NativeImage, error) {
	return img.apply("transverse", (*imagick.MagickWand).TransverseImage)
}

// AutoOrient implements magick.NativeImage
func (img *Image) AutoOrient() (magick.NativeImage, error) {
	return img.apply("auto-orient", (*imagick.MagickWand).AutoOrientImage)
}

// Distort implements magick.NativeImage
func (img *Image) Distort(method magick.DistortMethod, bestFit bool, args []float64) (magick.NativeImage, error) {
	return img.apply("distort", func(mw *imagick.MagickWand) error {
		return mw.DistortImage(imagick.DistortMethod(method), args, bestFit)
	})
}

// Threshold implements magick.NativeImage
func (img *Image) Threshold(value float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("threshold", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error { return mw.ThresholdImage(value) })
	})
}

// AdaptiveThreshold implements magick.NativeImage
func (img *Image) AdaptiveThreshold(width, height int, bias float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("adaptive-threshold", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error {
			return mw.AdaptiveThresholdImage(uint(width), uint(height), bias)
		})
	})
}

// Negate implements magick.NativeImage
func (img *Image) Negate(onlyGrayscale bool, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("negate", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error { return mw.NegateImage(onlyGrayscale) })
	})
}

// Grayscale implements magick.NativeImage. The intensity method of the
// image decides the conversion, method is recorded as the intensity artifact.
func (img *Image) Grayscale(method magick.PixelIntensityMethod) (magick.NativeImage, error) {
	return img.apply("grayscale", func(mw *imagick.MagickWand) error {
		if method != magick.PixelIntensityUndefined {
			_ = mw.SetImageArtifact("intensity", intensityNames[method])
		}
		return mw.TransformImageColorspace(imagick.COLORSPACE_GRAY)
	})
}

var intensityNames = map[magick.PixelIntensityMethod]string{
	magick.PixelIntensityAverage:         "Average",
	magick.PixelIntensityBrightness:      "Brightness",
	magick.PixelIntensityLightness:       "Lightness",
	magick.PixelIntensityMS:              "MS",
	magick.PixelIntensityRec601Luma:      "Rec601Luma",
	magick.PixelIntensityRec601Luminance: "Rec601Luminance",
	magick.PixelIntensityRec709Luma:      "Rec709Luma",
	magick.PixelIntensityRec709Luminance: "Rec709Luminance",
	magick.PixelIntensityRMS:             "RMS",
}

// TransformColorSpace implements magick.NativeImage
func (img *Image) TransformColorSpace(colorSpace magick.ColorSpace) (magick.NativeImage, error) {
	return img.apply("colorspace", func(mw *imagick.MagickWand) error {
		return mw.TransformImageColorspace(imagick.ColorspaceType(colorSpace))
	})
}

// TransformProfile implements magick.NativeImage, source is assigned when
// the image carries no ICC profile
func (img *Image) TransformProfile(source, target []byte) (magick.NativeImage, error) {
	return img.apply("profile", func(mw *imagick.MagickWand) error {
		if len(source) > 0 && mw.GetImageProfile("icc") == "" {
			if err := mw.SetImageProfile("icc", source); err != nil {
				return err
			}
		}
		return mw.ProfileImage("icc", target)
	})
}

// BrightnessContrast implements magick.NativeImage
func (img *Image) BrightnessContrast(brightness, contrast float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("brightness-contrast", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error {
			return mw.BrightnessContrastImage(brightness, contrast)
		})
	})
}

// Modulate implements magick.NativeImage
func (img *Image) Modulate(brightness, saturation, hue float64) (magick.NativeImage, error) {
	return img.apply("modulate", func(mw *imagick.MagickWand) error {
		return mw.ModulateImage(brightness, saturation, hue)
	})
}

// Gamma implements magick.NativeImage
func (img *Image) Gamma(value float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("gamma", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error { return mw.GammaImage(value) })
	})
}

// Level implements magick.NativeImage
func (img *Image) Level(blackPoint, whitePoint, gamma float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("level", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error {
			return mw.LevelImage(blackPoint, gamma, whitePoint)
		})
	})
}

// Colorize implements magick.NativeImage, alpha is the blend fraction
func (img *Image) Colorize(c magick.Color, alpha float64) (magick.NativeImage, error) {
	return img.apply("colorize", func(mw *imagick.MagickWand) error {
		fill := pixelWand(c)
		defer fill.Destroy()
		blend := imagick.NewPixelWand()
		defer blend.Destroy()
		p := alpha * 100
		blend.SetColor(fmt.Sprintf("rgb(%g%%,%g%%,%g%%)", p, p, p))
		return mw.ColorizeImage(fill, blend)
	})
}

// Deskew implements magick.NativeImage
func (img *Image) Deskew(threshold float64) (magick.NativeImage, error) {
	return img.apply("deskew", func(mw *imagick.MagickWand) error {
		return mw.DeskewImage(threshold)
	})
}

// Charcoal implements magick.NativeImage
func (img *Image) Charcoal(radius, sigma float64) (magick.NativeImage, error) {
	return img.apply("charcoal", func(mw *imagick.MagickWand) error {
		return mw.CharcoalImage(radius, sigma)
	})
}

// Emboss implements magick.NativeImage
func (img *Image) Emboss(radius, sigma float64) (magick.NativeImage, error) {
	return img.apply("emboss", func(mw *imagick.MagickWand) error {
		return mw.EmbossImage(radius, sigma)
	})
}

// Edge implements magick.NativeImage
func (img *Image) Edge(radius float64) (magick.NativeImage, error) {
	return img.apply("edge", func(mw *imagick.MagickWand) error {
		return mw.EdgeImage(radius)
	})
}

// SepiaTone implements magick.NativeImage
func (img *Image) SepiaTone(threshold float64) (magick.NativeImage, error) {
	return img.apply("sepia-tone", func(mw *imagick.MagickWand) error {
		return mw.SepiaToneImage(threshold)
	})
}

// Median implements magick.NativeImage
func (img *Image) Median(radius float64) (magick.NativeImage, error) {
	size := uint(2*math.Round(radius) + 1)
	return img.apply("median", func(mw *imagick.MagickWand) error {
		return mw.StatisticImage(imagick.STATISTIC_MEDIAN, size, size)
	})
}

// OilPaint implements magick.NativeImage
func (img *Image) OilPaint(radius, sigma float64) (magick.NativeImage, error) {
	return img.apply("oil-paint", func(mw *imagick.MagickWand) error {
		return mw.OilPaintImage(radius, sigma)
	})
}

// Solarize implements magick.NativeImage
func (img *Image) Solarize(factor float64) (magick.NativeImage, error) {
	return img.apply("solarize", func(mw *imagick.MagickWand) error {
		return mw.SolarizeImage(factor)
	})
}

// Swirl implements magick.NativeImage
func (img *Image) Swirl(degrees float64) (magick.NativeImage, error) {
	return img.apply("swirl", func(mw *imagick.MagickWand) error {
		return mw.SwirlImage(degrees, imagick.PixelInterpolateMethod(0))
	})
}

// AddNoise implements magick.NativeImage
func (img *Image) AddNoise(noise magick.NoiseType, attenuate float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("noise", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error {
			return mw.AddNoiseImage(imagick.NoiseType(noise), attenuate)
		})
	})
}

// Morphology implements magick.NativeImage
func (img *Image) Morphology(method magick.MorphologyMethod, kernel string, iterations int, channels magick.Channels) (magick.NativeImage, error) {
	ki, err := imagick.NewKernelInfo(kernel)
	if err != nil {
		return nil, exception(err, "morphology")
	}
	defer ki.Destroy()
	return img.apply("morphology", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error {
			return mw.MorphologyImage(imagick.MorphologyMethod(method), iterations, ki)
		})
	})
}

// Composite implements magick.NativeImage
func (img *Image) Composite(source magick.NativeImage, x, y int, operator magick.CompositeOperator, channels magick.Channels) (magick.NativeImage, error) {
	src, ok := source.(*Image)
	if !ok || src.mw == nil {
		return nil, magick.NewException(magick.WandError, "image of another engine", "composite")
	}
	return img.apply("composite", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error {
			return mw.CompositeImage(src.mw, imagick.CompositeOperator(operator), true, x, y)
		})
	})
}

// EvaluateOperator implements magick.NativeImage
func (img *Image) EvaluateOperator(operator magick.EvaluateOperator, value float64, channels magick.Channels) (magick.NativeImage, error) {
	return img.apply("evaluate", func(mw *imagick.MagickWand) error {
		return masked(mw, channels, func() error {
			return mw.EvaluateImage(imagick.EvaluateOperator(operator), value)
		})
	})
}

// Strip implements magick.NativeImage
func (img *Image) Strip() (magick.NativeImage, error) {
	return img.apply("strip", (*imagick.MagickWand).StripImage)
}

// Quantize implements magick.NativeImage
func (img *Image) Quantize(settings *magick.QuantizeSettings) (magick.NativeImage, error) {
	if settings == nil {
		settings = magick.NewQuantizeSettings()
	}
	return img.apply("quantize", func(mw *imagick.MagickWand) error {
		return mw.QuantizeImage(uint(settings.Colors), imagick.ColorspaceType(settings.ColorSpace),
			uint(settings.TreeDepth), imagick.DitherMethod(settings.DitherMethod), settings.MeasureErrors)
	})
}

func checkPixelArea(img *Image, x, y, width, height int, storage magick.StorageType) error {
	if storage.Size() == 0 {
		return magick.NewException(magick.OptionError,
			"unrecognized storage type", strconv.Itoa(int(storage)))
	}
	if width <= 0 || height <= 0 || x < 0 || y < 0 ||
		x+width > img.Width() || y+height > img.Height() {
		return magick.NewException(magick.OptionError,
			"unable to access pixels", "geometry does not contain image")
	}
	return nil
}

// ImportPixels implements magick.NativeImage, samples travel as
// normalized doubles regardless of storage
func (img *Image) ImportPixels(x, y, width, height int, mapping string, storage magick.StorageType, data []byte) (magick.NativeImage, error) {
	if err := checkPixelArea(img, x, y, width, height, storage); err != nil {
		return nil, err
	}
	size := storage.Size()
	if len(data) != width*height*len(mapping)*size {
		return nil, magick.NewException(magick.OptionError, "pixel buffer size mismatch", mapping)
	}
	samples := make([]float64, len(data)/size)
	for i := range samples {
		samples[i] = decodeSample(data[i*size:], storage)
	}
	return img.apply("import-pixels", func(mw *imagick.MagickWand) error {
		return mw.ImportImagePixels(x, y, uint(width), uint(height), mapping, imagick.PIXEL_DOUBLE, samples)
	})
}

// ExportPixels implements magick.NativeImage
func (img *Image) ExportPixels(x, y, width, height int, mapping string, storage magick.StorageType) ([]byte, error) {
	if err := checkPixelArea(img, x, y, width, height, storage); err != nil {
		return nil, err
	}
	v, err := img.mw.ExportImagePixels(x, y, uint(width), uint(height), mapping, imagick.PIXEL_DOUBLE)
	if err != nil {
		return nil, exception(err, "export-pixels")
	}
	samples, ok := v.([]float64)
	if !ok {
		return nil, magick.NewException(magick.WandError, "unexpected pixel storage", mapping)
	}
	size := storage.Size()
	out := make([]byte, len(samples)*size)
	for i, s := range samples {
		encodeSample(out[i*size:], storage, s)
	}
	return out, nil
}

func encodeSample(b []byte, storage magick.StorageType, v float64) {
	v = math.Min(math.Max(v, 0), 1)
	switch storage {
	case magick.StorageChar:
		b[0] = uint8(math.Round(v * math.MaxUint8))
	case magick.StorageShort, magick.StorageQuantum:
		binary.LittleEndian.PutUint16(b, uint16(math.Round(v*math.MaxUint16)))
	case magick.StorageLong:
		binary.LittleEndian.PutUint32(b, uint32(math.Round(v*math.MaxUint32)))
	case magick.StorageLongLong:
		n := uint64(math.MaxUint64)
		if v < 1 {
			n = uint64(v * (1 << 64))
		}
		binary.LittleEndian.PutUint64(b, n)
	case magick.StorageFloat:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case magick.StorageDouble:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

func decodeSample(b []byte, storage magick.StorageType) float64 {
	switch storage {
	case magick.StorageChar:
		return float64(b[0]) / math.MaxUint8
	case magick.StorageShort, magick.StorageQuantum:
		return float64(binary.LittleEndian.Uint16(b)) / math.MaxUint16
	case magick.StorageLong:
		return float64(binary.LittleEndian.Uint32(b)) / math.MaxUint32
	case magick.StorageLongLong:
		return float64(binary.LittleEndian.Uint64(b)) / math.MaxUint64
	case magick.StorageFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case magick.StorageDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// Compare implements magick.NativeImage
func (img *Image) Compare(reference magick.NativeImage, metric magick.ErrorMetric, channels magick.Channels) (float64, error) {
	ref, ok := reference.(*Image)
	if !ok || ref.mw == nil {
		return 0, magick.NewException(magick.WandError, "image of another engine", "compare")
	}
	var distortion float64
	err := masked(img.mw, channels, func() (err error) {
		distortion, err = img.mw.GetImageDistortion(ref.mw, imagick.MetricType(metric))
		return
	})
	if err != nil {
		return 0, exception(err, "compare")
	}
	return distortion, nil
}

// CompareDifference implements magick.NativeImage
func (img *Image) CompareDifference(reference magick.NativeImage, metric magick.ErrorMetric, channels magick.Channels) (float64, magick.NativeImage, error) {
	ref, ok := reference.(*Image)
	if !ok || ref.mw == nil {
		return 0, nil, magick.NewException(magick.WandError, "image of another engine", "compare")
	}
	var (
		diff       *imagick.MagickWand
		distortion float64
	)
	_ = masked(img.mw, channels, func() error {
		diff, distortion = img.mw.CompareImages(ref.mw, imagick.MetricType(metric))
		return nil
	})
	if diff == nil {
		return 0, nil, exception(img.mw.GetLastError(), "compare")
	}
	return distortion, &Image{mw: diff}, nil
}

// Statistics implements magick.NativeImage
func (img *Image) Statistics(channels magick.Channels) (*magick.Statistics, error) {
	candidates := []magick.Channels{magick.ChannelRed, magick.ChannelGreen, magick.ChannelBlue}
	if img.ColorSpace() == magick.ColorSpaceGray {
		candidates = candidates[:1]
	}
	if img.HasAlpha() {
		candidates = append(candidates, magick.ChannelAlpha)
	}
	resolved := channels.Resolve()
	stats := &magick.Statistics{}
	for _, channel := range candidates {
		if !resolved.Has(channel) {
			continue
		}
		s := magick.ChannelStatistics{Channel: channel}
		err := masked(img.mw, channel, func() (err error) {
			if s.Mean, s.StandardDeviation, err = img.mw.GetImageMean(); err != nil {
				return
			}
			if s.Minimum, s.Maximum, err = img.mw.GetImageRange(); err != nil {
				return
			}
			s.Kurtosis, s.Skewness, err = img.mw.GetImageKurtosis()
			return
		})
		if err != nil {
			return nil, exception(err, "statistics")
		}
		stats.Channels = append(stats.Channels, s)
	}
	return stats, nil
}

// Artifact implements magick.NativeImage
func (img *Image) Artifact(name string) (string, bool) {
	v := img.mw.GetImageArtifact(name)
	return v, v != ""
}

// SetArtifact implements magick.NativeImage
func (img *Image) SetArtifact(name, value string) {
	_ = img.mw.SetImageArtifact(name, value)
}

// RemoveArtifact implements magick.NativeImage
func (img *Image) RemoveArtifact(name string) {
	_ = img.mw.DeleteImageArtifact(name)
}

// Attribute implements magick.NativeImage
func (img *Image) Attribute(name string) (string, bool) {
	v := img.mw.GetImageProperty(name)
	return v, v != ""
}

// SetAttribute implements magick.NativeImage
func (img *Image) SetAttribute(name, value string) {
	_ = img.mw.SetImageProperty(name, value)
}

// AttributeNames implements magick.NativeImage
func (img *Image) AttributeNames() []string {
	return img.mw.GetImageProperties("*")
}

// Profile implements magick.NativeImage
func (img *Image) Profile(name string) ([]byte, bool) {
	v := img.mw.GetImageProfile(name)
	return []byte(v), v != ""
}

// SetProfile implements magick.NativeImage
func (img *Image) SetProfile(name string, data []byte) error {
	if err := img.mw.SetImageProfile(name, data); err != nil {
		return exception(err, "profile")
	}
	return nil
}

// RemoveProfile implements magick.NativeImage
func (img *Image) RemoveProfile(name string) {
	img.mw.RemoveImageProfile(name)
}

// ProfileNames implements magick.NativeImage
func (img *Image) ProfileNames() []string {
	return img.mw.GetImageProfiles("*")
}
