package magick

import (
	"strconv"
	"strings"
)

// Channels pixel channel bit mask
type Channels int

// Channels values
const (
	ChannelsUndefined Channels = 0
	ChannelRed        Channels = 0x0001
	ChannelGray       Channels = 0x0001
	ChannelCyan       Channels = 0x0001
	ChannelGreen      Channels = 0x0002
	ChannelMagenta    Channels = 0x0002
	ChannelBlue       Channels = 0x0004
	ChannelYellow     Channels = 0x0004
	ChannelBlack      Channels = 0x0008
	ChannelAlpha      Channels = 0x0010
	ChannelIndex      Channels = 0x0020
	ChannelsRGB       Channels = ChannelRed | ChannelGreen | ChannelBlue
	ChannelsCMYK      Channels = ChannelsRGB | ChannelBlack
	ChannelsComposite Channels = 0x001F
	ChannelsAll       Channels = 0x7ffffff
)

// Has reports whether all channels of c are set
func (c Channels) Has(channel Channels) bool {
	return c&channel == channel
}

// Resolve maps Undefined onto the composite channels
func (c Channels) Resolve() Channels {
	if c == ChannelsUndefined {
		return ChannelsComposite
	}
	return c
}

// ColorSpace image color space
type ColorSpace int

// ColorSpace values
const (
	ColorSpaceUndefined   ColorSpace = 0
	ColorSpaceCMY         ColorSpace = 1
	ColorSpaceCMYK        ColorSpace = 2
	ColorSpaceGray        ColorSpace = 3
	ColorSpaceHCL         ColorSpace = 4
	ColorSpaceHSB         ColorSpace = 6
	ColorSpaceHSL         ColorSpace = 8
	ColorSpaceHSV         ColorSpace = 9
	ColorSpaceLab         ColorSpace = 11
	ColorSpaceLCH         ColorSpace = 12
	ColorSpaceLuv         ColorSpace = 17
	ColorSpaceRGB         ColorSpace = 21
	ColorSpaceScRGB       ColorSpace = 22
	ColorSpaceSRGB        ColorSpace = 23
	ColorSpaceTransparent ColorSpace = 24
	ColorSpaceXYZ         ColorSpace = 26
	ColorSpaceYCbCr       ColorSpace = 27
	ColorSpaceYUV         ColorSpace = 32
	ColorSpaceLinearGray  ColorSpace = 33
)

var colorSpaceNames = map[ColorSpace]string{
	ColorSpaceUndefined:   "Undefined",
	ColorSpaceCMY:         "CMY",
	ColorSpaceCMYK:        "CMYK",
	ColorSpaceGray:        "Gray",
	ColorSpaceHCL:         "HCL",
	ColorSpaceHSB:         "HSB",
	ColorSpaceHSL:         "HSL",
	ColorSpaceHSV:         "HSV",
	ColorSpaceLab:         "Lab",
	ColorSpaceLCH:         "LCH",
	ColorSpaceLuv:         "Luv",
	ColorSpaceRGB:         "RGB",
	ColorSpaceScRGB:       "scRGB",
	ColorSpaceSRGB:        "sRGB",
	ColorSpaceTransparent: "Transparent",
	ColorSpaceXYZ:         "XYZ",
	ColorSpaceYCbCr:       "YCbCr",
	ColorSpaceYUV:         "YUV",
	ColorSpaceLinearGray:  "LinearGray",
}

func (c ColorSpace) String() string { return enumName(colorSpaceNames, c) }

// ParseColorSpace parses a color space name, case insensitive
func ParseColorSpace(s string) (ColorSpace, bool) { return parseEnum(colorSpaceNames, s) }

// CompositeOperator composite blend operator
type CompositeOperator int

// CompositeOperator values
const (
	CompositeUndefined   CompositeOperator = 0
	CompositeAlpha       CompositeOperator = 1
	CompositeAtop        CompositeOperator = 2
	CompositeBlend       CompositeOperator = 3
	CompositeClear       CompositeOperator = 7
	CompositeColorBurn   CompositeOperator = 8
	CompositeColorDodge  CompositeOperator = 9
	CompositeColorize    CompositeOperator = 10
	CompositeCopy        CompositeOperator = 13
	CompositeCopyAlpha   CompositeOperator = 17
	CompositeDarken      CompositeOperator = 20
	CompositeDifference  CompositeOperator = 22
	CompositeDissolve    CompositeOperator = 24
	CompositeDivideSrc   CompositeOperator = 27
	CompositeDstIn       CompositeOperator = 30
	CompositeDstOut      CompositeOperator = 31
	CompositeDstOver     CompositeOperator = 32
	CompositeExclusion   CompositeOperator = 33
	CompositeHardLight   CompositeOperator = 34
	CompositeLighten     CompositeOperator = 39
	CompositeLinearBurn  CompositeOperator = 41
	CompositeLinearDodge CompositeOperator = 42
	CompositeLinearLight CompositeOperator = 43
	CompositeMinusSrc    CompositeOperator = 47
	CompositeMultiply    CompositeOperator = 51
	CompositeNo          CompositeOperator = 52
	CompositeOver        CompositeOperator = 54
	CompositeOverlay     CompositeOperator = 55
	CompositePlus        CompositeOperator = 58
	CompositeReplace     CompositeOperator = 59
	CompositeScreen      CompositeOperator = 61
	CompositeSoftLight   CompositeOperator = 62
	CompositeSrc         CompositeOperator = 64
	CompositeSrcOver     CompositeOperator = 67
	CompositeXor         CompositeOperator = 70
)

var compositeNames = map[CompositeOperator]string{
	CompositeUndefined:   "Undefined",
	CompositeAlpha:       "Alpha",
	CompositeAtop:        "Atop",
	CompositeBlend:       "Blend",
	CompositeClear:       "Clear",
	CompositeColorBurn:   "ColorBurn",
	CompositeColorDodge:  "ColorDodge",
	CompositeColorize:    "Colorize",
	CompositeCopy:        "Copy",
	CompositeCopyAlpha:   "CopyAlpha",
	CompositeDarken:      "Darken",
	CompositeDifference:  "Difference",
	CompositeDissolve:    "Dissolve",
	CompositeDivideSrc:   "DivideSrc",
	CompositeDstIn:       "DstIn",
	CompositeDstOut:      "DstOut",
	CompositeDstOver:     "DstOver",
	CompositeExclusion:   "Exclusion",
	CompositeHardLight:   "HardLight",
	CompositeLighten:     "Lighten",
	CompositeLinearBurn:  "LinearBurn",
	CompositeLinearDodge: "LinearDodge",
	CompositeLinearLight: "LinearLight",
	CompositeMinusSrc:    "MinusSrc",
	CompositeMultiply:    "Multiply",
	CompositeNo:          "No",
	CompositeOver:        "Over",
	CompositeOverlay:     "Overlay",
	CompositePlus:        "Plus",
	CompositeReplace:     "Replace",
	CompositeScreen:      "Screen",
	CompositeSoftLight:   "SoftLight",
	CompositeSrc:         "Src",
	CompositeSrcOver:     "SrcOver",
	CompositeXor:         "Xor",
}

func (c CompositeOperator) String() string { return enumName(compositeNames, c) }

// ParseCompositeOperator parses an operator name, case insensitive
func ParseCompositeOperator(s string) (CompositeOperator, bool) { return parseEnum(compositeNames, s) }

// ErrorMetric image comparison metric
type ErrorMetric int

// ErrorMetric values
const (
	ErrorMetricUndefined                  ErrorMetric = 0
	ErrorMetricAbsolute                   ErrorMetric = 1
	ErrorMetricFuzz                       ErrorMetric = 2
	ErrorMetricMeanAbsolute               ErrorMetric = 3
	ErrorMetricMeanErrorPerPixel          ErrorMetric = 4
	ErrorMetricMeanSquared                ErrorMetric = 5
	ErrorMetricNormalizedCrossCorrelation ErrorMetric = 6
	ErrorMetricPeakAbsolute               ErrorMetric = 7
	ErrorMetricPeakSignalToNoiseRatio     ErrorMetric = 8
	ErrorMetricPerceptualHash             ErrorMetric = 9
	ErrorMetricRootMeanSquared            ErrorMetric = 10
	ErrorMetricStructuralSimilarity       ErrorMetric = 11
	ErrorMetricStructuralDissimilarity    ErrorMetric = 12
)

var errorMetricNames = map[ErrorMetric]string{
	ErrorMetricUndefined:                  "Undefined",
	ErrorMetricAbsolute:                   "AE",
	ErrorMetricFuzz:                       "Fuzz",
	ErrorMetricMeanAbsolute:               "MAE",
	ErrorMetricMeanErrorPerPixel:          "MEPP",
	ErrorMetricMeanSquared:                "MSE",
	ErrorMetricNormalizedCrossCorrelation: "NCC",
	ErrorMetricPeakAbsolute:               "PAE",
	ErrorMetricPeakSignalToNoiseRatio:     "PSNR",
	ErrorMetricPerceptualHash:             "PHASH",
	ErrorMetricRootMeanSquared:            "RMSE",
	ErrorMetricStructuralSimilarity:       "SSIM",
	ErrorMetricStructuralDissimilarity:    "DSSIM",
}

func (m ErrorMetric) String() string { return enumName(errorMetricNames, m) }

// ParseErrorMetric parses a metric short name e.g. RMSE
func ParseErrorMetric(s string) (ErrorMetric, bool) { return parseEnum(errorMetricNames, s) }

// FilterType resize filter
type FilterType int

// FilterType values
const (
	FilterUndefined FilterType = 0
	FilterPoint     FilterType = 1
	FilterBox       FilterType = 2
	FilterTriangle  FilterType = 3
	FilterHermite   FilterType = 4
	FilterHann      FilterType = 5
	FilterHamming   FilterType = 6
	FilterBlackman  FilterType = 7
	FilterGaussian  FilterType = 8
	FilterQuadratic FilterType = 9
	FilterCubic     FilterType = 10
	FilterCatrom    FilterType = 11
	FilterMitchell  FilterType = 12
	FilterSinc      FilterType = 14
	FilterWelch     FilterType = 17
	FilterBartlett  FilterType = 20
	FilterLanczos   FilterType = 22
	FilterCosine    FilterType = 28
	FilterSpline    FilterType = 29
)

var filterNames = map[FilterType]string{
	FilterUndefined: "Undefined",
	FilterPoint:     "Point",
	FilterBox:       "Box",
	FilterTriangle:  "Triangle",
	FilterHermite:   "Hermite",
	FilterHann:      "Hann",
	FilterHamming:   "Hamming",
	FilterBlackman:  "Blackman",
	FilterGaussian:  "Gaussian",
	FilterQuadratic: "Quadratic",
	FilterCubic:     "Cubic",
	FilterCatrom:    "Catrom",
	FilterMitchell:  "Mitchell",
	FilterSinc:      "Sinc",
	FilterWelch:     "Welch",
	FilterBartlett:  "Bartlett",
	FilterLanczos:   "Lanczos",
	FilterCosine:    "Cosine",
	FilterSpline:    "Spline",
}

func (f FilterType) String() string { return enumName(filterNames, f) }

// ParseFilterType parses a filter name, case insensitive
func ParseFilterType(s string) (FilterType, bool) { return parseEnum(filterNames, s) }

// DistortMethod distortion method
type DistortMethod int

// DistortMethod values
const (
	DistortUndefined             DistortMethod = 0
	DistortAffine                DistortMethod = 1
	DistortAffineProjection      DistortMethod = 2
	DistortScaleRotateTranslate  DistortMethod = 3
	DistortPerspective           DistortMethod = 4
	DistortPerspectiveProjection DistortMethod = 5
	DistortBilinearForward       DistortMethod = 6
	DistortBilinearReverse       DistortMethod = 7
	DistortPolynomial            DistortMethod = 8
	DistortArc                   DistortMethod = 9
	DistortPolar                 DistortMethod = 10
	DistortDePolar               DistortMethod = 11
	DistortBarrel                DistortMethod = 14
	DistortBarrelInverse         DistortMethod = 15
	DistortShepards              DistortMethod = 16
	DistortResize                DistortMethod = 17
)

var distortNames = map[DistortMethod]string{
	DistortUndefined:             "Undefined",
	DistortAffine:                "Affine",
	DistortAffineProjection:      "AffineProjection",
	DistortScaleRotateTranslate:  "ScaleRotateTranslate",
	DistortPerspective:           "Perspective",
	DistortPerspectiveProjection: "PerspectiveProjection",
	DistortBilinearForward:       "BilinearForward",
	DistortBilinearReverse:       "BilinearReverse",
	DistortPolynomial:            "Polynomial",
	DistortArc:                   "Arc",
	DistortPolar:                 "Polar",
	DistortDePolar:               "DePolar",
	DistortBarrel:                "Barrel",
	DistortBarrelInverse:         "BarrelInverse",
	DistortShepards:              "Shepards",
	DistortResize:                "Resize",
}

func (d DistortMethod) String() string { return enumName(distortNames, d) }

// ParseDistortMethod parses a distort method name, case insensitive
func ParseDistortMethod(s string) (DistortMethod, bool) { return parseEnum(distortNames, s) }

// NoiseType noise distribution
type NoiseType int

// NoiseType values
const (
	NoiseUndefined              NoiseType = 0
	NoiseUniform                NoiseType = 1
	NoiseGaussian               NoiseType = 2
	NoiseMultiplicativeGaussian NoiseType = 3
	NoiseImpulse                NoiseType = 4
	NoiseLaplacian              NoiseType = 5
	NoisePoisson                NoiseType = 6
	NoiseRandom                 NoiseType = 7
)

var noiseNames = map[NoiseType]string{
	NoiseUndefined:              "Undefined",
	NoiseUniform:                "Uniform",
	NoiseGaussian:               "Gaussian",
	NoiseMultiplicativeGaussian: "MultiplicativeGaussian",
	NoiseImpulse:                "Impulse",
	NoiseLaplacian:              "Laplacian",
	NoisePoisson:                "Poisson",
	NoiseRandom:                 "Random",
}

func (n NoiseType) String() string { return enumName(noiseNames, n) }

// ParseNoiseType parses a noise name, case insensitive
func ParseNoiseType(s string) (NoiseType, bool) { return parseEnum(noiseNames, s) }

// MorphologyMethod morphology method
type MorphologyMethod int

// MorphologyMethod values
const (
	MorphologyUndefined  MorphologyMethod = 0
	MorphologyConvolve   MorphologyMethod = 1
	MorphologyCorrelate  MorphologyMethod = 2
	MorphologyErode      MorphologyMethod = 3
	MorphologyDilate     MorphologyMethod = 4
	MorphologyOpen       MorphologyMethod = 8
	MorphologyClose      MorphologyMethod = 9
	MorphologySmooth     MorphologyMethod = 12
	MorphologyEdgeIn     MorphologyMethod = 13
	MorphologyEdgeOut    MorphologyMethod = 14
	MorphologyEdge       MorphologyMethod = 15
	MorphologyTopHat     MorphologyMethod = 16
	MorphologyBottomHat  MorphologyMethod = 17
	MorphologyHitAndMiss MorphologyMethod = 18
	MorphologyThinning   MorphologyMethod = 19
	MorphologyThicken    MorphologyMethod = 20
	MorphologyDistance   MorphologyMethod = 21
)

var morphologyNames = map[MorphologyMethod]string{
	MorphologyUndefined:  "Undefined",
	MorphologyConvolve:   "Convolve",
	MorphologyCorrelate:  "Correlate",
	MorphologyErode:      "Erode",
	MorphologyDilate:     "Dilate",
	MorphologyOpen:       "Open",
	MorphologyClose:      "Close",
	MorphologySmooth:     "Smooth",
	MorphologyEdgeIn:     "EdgeIn",
	MorphologyEdgeOut:    "EdgeOut",
	MorphologyEdge:       "Edge",
	MorphologyTopHat:     "TopHat",
	MorphologyBottomHat:  "BottomHat",
	MorphologyHitAndMiss: "HitAndMiss",
	MorphologyThinning:   "Thinning",
	MorphologyThicken:    "Thicken",
	MorphologyDistance:   "Distance",
}

func (m MorphologyMethod) String() string { return enumName(morphologyNames, m) }

// ParseMorphologyMethod parses a morphology method name, case insensitive
func ParseMorphologyMethod(s string) (MorphologyMethod, bool) { return parseEnum(morphologyNames, s) }

// LayerMethod image list layer method
type LayerMethod int

// LayerMethod values
const (
	LayerUndefined  LayerMethod = 0
	LayerCoalesce   LayerMethod = 1
	LayerDispose    LayerMethod = 5
	LayerOptimize   LayerMethod = 6
	LayerRemoveDups LayerMethod = 10
	LayerRemoveZero LayerMethod = 11
	LayerComposite  LayerMethod = 12
	LayerMerge      LayerMethod = 13
	LayerFlatten    LayerMethod = 14
	LayerMosaic     LayerMethod = 15
	LayerTrimBounds LayerMethod = 16
)

var layerNames = map[LayerMethod]string{
	LayerUndefined:  "Undefined",
	LayerCoalesce:   "Coalesce",
	LayerDispose:    "Dispose",
	LayerOptimize:   "Optimize",
	LayerRemoveDups: "RemoveDups",
	LayerRemoveZero: "RemoveZero",
	LayerComposite:  "Composite",
	LayerMerge:      "Merge",
	LayerFlatten:    "Flatten",
	LayerMosaic:     "Mosaic",
	LayerTrimBounds: "TrimBounds",
}

func (l LayerMethod) String() string { return enumName(layerNames, l) }

// ParseLayerMethod parses a layer method name, case insensitive
func ParseLayerMethod(s string) (LayerMethod, bool) { return parseEnum(layerNames, s) }

// EvaluateOperator arithmetic operator applied to pixel values
type EvaluateOperator int

// EvaluateOperator values
const (
	EvaluateUndefined     EvaluateOperator = 0
	EvaluateAbs           EvaluateOperator = 1
	EvaluateAdd           EvaluateOperator = 2
	EvaluateAnd           EvaluateOperator = 4
	EvaluateDivide        EvaluateOperator = 6
	EvaluateMax           EvaluateOperator = 13
	EvaluateMean          EvaluateOperator = 14
	EvaluateMedian        EvaluateOperator = 15
	EvaluateMin           EvaluateOperator = 16
	EvaluateMultiply      EvaluateOperator = 18
	EvaluateOr            EvaluateOperator = 19
	EvaluatePow           EvaluateOperator = 21
	EvaluateSet           EvaluateOperator = 24
	EvaluateSubtract      EvaluateOperator = 26
	EvaluateSum           EvaluateOperator = 27
	EvaluateThreshold     EvaluateOperator = 29
	EvaluateThresholdHigh EvaluateOperator = 30
	EvaluateXor           EvaluateOperator = 32
)

var evaluateNames = map[EvaluateOperator]string{
	EvaluateUndefined:     "Undefined",
	EvaluateAbs:           "Abs",
	EvaluateAdd:           "Add",
	EvaluateAnd:           "And",
	EvaluateDivide:        "Divide",
	EvaluateMax:           "Max",
	EvaluateMean:          "Mean",
	EvaluateMedian:        "Median",
	EvaluateMin:           "Min",
	EvaluateMultiply:      "Multiply",
	EvaluateOr:            "Or",
	EvaluatePow:           "Pow",
	EvaluateSet:           "Set",
	EvaluateSubtract:      "Subtract",
	EvaluateSum:           "Sum",
	EvaluateThreshold:     "Threshold",
	EvaluateThresholdHigh: "ThresholdWhite",
	EvaluateXor:           "Xor",
}

func (e EvaluateOperator) String() string { return enumName(evaluateNames, e) }

// ParseEvaluateOperator parses an operator name, case insensitive
func ParseEvaluateOperator(s string) (EvaluateOperator, bool) { return parseEnum(evaluateNames, s) }

// Gravity placement of an area relative to the image
type Gravity int

// Gravity values
const (
	GravityUndefined Gravity = 0
	GravityNorthwest Gravity = 1
	GravityNorth     Gravity = 2
	GravityNortheast Gravity = 3
	GravityWest      Gravity = 4
	GravityCenter    Gravity = 5
	GravityEast      Gravity = 6
	GravitySouthwest Gravity = 7
	GravitySouth     Gravity = 8
	GravitySoutheast Gravity = 9
)

var gravityNames = map[Gravity]string{
	GravityUndefined: "Undefined",
	GravityNorthwest: "Northwest",
	GravityNorth:     "North",
	GravityNortheast: "Northeast",
	GravityWest:      "West",
	GravityCenter:    "Center",
	GravityEast:      "East",
	GravitySouthwest: "Southwest",
	GravitySouth:     "South",
	GravitySoutheast: "Southeast",
}

func (g Gravity) String() string { return enumName(gravityNames, g) }

// ParseGravity parses a gravity name, case insensitive
func ParseGravity(s string) (Gravity, bool) { return parseEnum(gravityNames, s) }

// PixelIntensityMethod grayscale conversion method
type PixelIntensityMethod int

// PixelIntensityMethod values
const (
	PixelIntensityUndefined       PixelIntensityMethod = 0
	PixelIntensityAverage         PixelIntensityMethod = 1
	PixelIntensityBrightness      PixelIntensityMethod = 2
	PixelIntensityLightness       PixelIntensityMethod = 3
	PixelIntensityMS              PixelIntensityMethod = 4
	PixelIntensityRec601Luma      PixelIntensityMethod = 5
	PixelIntensityRec601Luminance PixelIntensityMethod = 6
	PixelIntensityRec709Luma      PixelIntensityMethod = 7
	PixelIntensityRec709Luminance PixelIntensityMethod = 8
	PixelIntensityRMS             PixelIntensityMethod = 9
)

// DitherMethod quantize dither method
type DitherMethod int

// DitherMethod values
const (
	DitherUndefined      DitherMethod = 0
	DitherNo             DitherMethod = 1
	DitherRiemersma      DitherMethod = 2
	DitherFloydSteinberg DitherMethod = 3
)

// StorageType pixel buffer storage type
type StorageType int

// StorageType values
const (
	StorageUndefined StorageType = 0
	StorageChar      StorageType = 1
	StorageDouble    StorageType = 2
	StorageFloat     StorageType = 3
	StorageLong      StorageType = 4
	StorageLongLong  StorageType = 5
	StorageQuantum   StorageType = 6
	StorageShort     StorageType = 7
)

// Size bytes per value
func (s StorageType) Size() int {
	switch s {
	case StorageChar:
		return 1
	case StorageShort, StorageQuantum:
		return 2
	case StorageFloat, StorageLong:
		return 4
	case StorageDouble, StorageLongLong:
		return 8
	}
	return 0
}

// Interlace image interlace scheme
type Interlace int

// Interlace values
const (
	InterlaceUndefined Interlace = 0
	InterlaceNo        Interlace = 1
	InterlaceLine      Interlace = 2
	InterlacePlane     Interlace = 3
	InterlacePartition Interlace = 4
	InterlaceGIF       Interlace = 5
	InterlaceJPEG      Interlace = 6
	InterlacePNG       Interlace = 7
)

// Endian byte order of multi byte samples
type Endian int

// Endian values
const (
	EndianUndefined Endian = 0
	EndianLSB       Endian = 1
	EndianMSB       Endian = 2
)

func enumName[T ~int](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return strconv.Itoa(int(v))
}

func parseEnum[T ~int](names map[T]string, s string) (T, bool) {
	s = strings.TrimSpace(s)
	for v, name := range names {
		if strings.EqualFold(name, s) {
			return v, true
		}
	}
	var zero T
	return zero, false
}
