package processor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cshum/magick"
	"github.com/cshum/magick/web"
)

// OpFunc applies a named operation of the path to img
type OpFunc func(ctx context.Context, img *magick.Image, load web.LoadFunc, args ...string) (err error)

// OpMap op name to OpFunc
type OpMap map[string]OpFunc

var intensityMethods = map[string]magick.PixelIntensityMethod{
	"average":         magick.PixelIntensityAverage,
	"brightness":      magick.PixelIntensityBrightness,
	"lightness":       magick.PixelIntensityLightness,
	"ms":              magick.PixelIntensityMS,
	"rec601luma":      magick.PixelIntensityRec601Luma,
	"rec601luminance": magick.PixelIntensityRec601Luminance,
	"rec709luma":      magick.PixelIntensityRec709Luma,
	"rec709luminance": magick.PixelIntensityRec709Luminance,
	"rms":             magick.PixelIntensityRMS,
	"":                magick.PixelIntensityUndefined,
	"undefined":       magick.PixelIntensityUndefined,
}

func defaultOps() OpMap {
	return OpMap{
		"resize":              geometryOp((*magick.Image).Resize),
		"thumbnail":           geometryOp((*magick.Image).Thumbnail),
		"scale":               geometryOp((*magick.Image).Scale),
		"sample":              geometryOp((*magick.Image).Sample),
		"crop":                gravityOp((*magick.Image).Crop),
		"extent":              gravityOp((*magick.Image).Extent),
		"border":              border,
		"rotate":              rotate,
		"flip":                noArgs((*magick.Image).Flip),
		"flop":                noArgs((*magick.Image).Flop),
		"strip":               noArgs((*magick.Image).Strip),
		"auto_orient":         noArgs((*magick.Image).AutoOrient),
		"trim":                noArgs((*magick.Image).Trim),
		"blur":                blur,
		"sharpen":             sharpen,
		"unsharp":             unsharp,
		"grayscale":           grayscale,
		"negate":              negate,
		"threshold":           threshold,
		"modulate":            modulate,
		"gamma":               gamma,
		"brightness_contrast": brightnessContrast,
		"sepia":               sepia,
		"charcoal":            charcoal,
		"emboss":              emboss,
		"edge":                edge,
		"median":              median,
		"noise":               noise,
		"quality":             quality,
		"format":              format,
		"background":          background,
		"fuzz":                fuzz,
		"deskew":              deskew,
		"colorize":            colorize,
		"quantize":            quantize,
		"composite":           composite,
	}
}

// splitArgs splits op args by comma, commas inside parentheses are kept
func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	var (
		args  []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}

func invalidArg(name string, args ...string) error {
	return web.NewError(fmt.Sprintf("invalid %s args %q", name, strings.Join(args, ",")), http.StatusBadRequest)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func floatArg(args []string, i int, def float64) (float64, error) {
	s := arg(args, i)
	if s == "" {
		return def, nil
	}
	return strconv.ParseFloat(s, 64)
}

func intArg(args []string, i int, def int) (int, error) {
	s := arg(args, i)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func percentageArg(args []string, i int, def float64) (magick.Percentage, error) {
	s := arg(args, i)
	if s == "" {
		return magick.NewPercentage(def), nil
	}
	return magick.ParsePercentage(s)
}

func boolArg(args []string, i int) bool {
	b, _ := strconv.ParseBool(arg(args, i))
	return b
}

func noArgs(fn func(img *magick.Image) error) OpFunc {
	return func(_ context.Context, img *magick.Image, _ web.LoadFunc, _ ...string) error {
		return fn(img)
	}
}

func geometryOp(fn func(img *magick.Image, g magick.Geometry) error) OpFunc {
	return func(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
		g, err := magick.ParseGeometry(arg(args, 0))
		if err != nil {
			return err
		}
		return fn(img, g)
	}
}

func gravityOp(fn func(img *magick.Image, g magick.Geometry, gravity magick.Gravity) error) OpFunc {
	return func(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
		g, err := magick.ParseGeometry(arg(args, 0))
		if err != nil {
			return err
		}
		gravity := magick.GravityUndefined
		if s := arg(args, 1); s != "" {
			var ok bool
			if gravity, ok = magick.ParseGravity(s); !ok {
				return invalidArg("gravity", s)
			}
		}
		return fn(img, g, gravity)
	}
}

func border(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	w, err := intArg(args, 0, 0)
	if err != nil {
		return invalidArg("border", args...)
	}
	h, err := intArg(args, 1, w)
	if err != nil {
		return invalidArg("border", args...)
	}
	return img.Border(w, h)
}

func rotate(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	degrees, err := floatArg(args, 0, 0)
	if err != nil {
		return invalidArg("rotate", args...)
	}
	return img.Rotate(degrees)
}

func blurOptions(name string, args []string) (*magick.BlurOptions, error) {
	opts := magick.NewBlurOptions()
	var err error
	if opts.Radius, err = floatArg(args, 0, opts.Radius); err != nil {
		return nil, invalidArg(name, args...)
	}
	if opts.Sigma, err = floatArg(args, 1, opts.Sigma); err != nil {
		return nil, invalidArg(name, args...)
	}
	return opts, nil
}

func blur(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	opts, err := blurOptions("blur", args)
	if err != nil {
		return err
	}
	return img.Blur(opts)
}

func sharpen(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	opts, err := blurOptions("sharpen", args)
	if err != nil {
		return err
	}
	return img.Sharpen(opts)
}

func unsharp(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) (err error) {
	opts := magick.NewUnsharpMaskOptions()
	if opts.Radius, err = floatArg(args, 0, opts.Radius); err != nil {
		return invalidArg("unsharp", args...)
	}
	if opts.Sigma, err = floatArg(args, 1, opts.Sigma); err != nil {
		return invalidArg("unsharp", args...)
	}
	if opts.Amount, err = floatArg(args, 2, opts.Amount); err != nil {
		return invalidArg("unsharp", args...)
	}
	if opts.Threshold, err = floatArg(args, 3, opts.Threshold); err != nil {
		return invalidArg("unsharp", args...)
	}
	return img.UnsharpMask(opts)
}

func grayscale(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	method, ok := intensityMethods[strings.ToLower(arg(args, 0))]
	if !ok {
		return invalidArg("grayscale", args...)
	}
	return img.Grayscale(method)
}

func negate(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	return img.Negate(boolArg(args, 0), magick.ChannelsUndefined)
}

func threshold(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	p, err := percentageArg(args, 0, 50)
	if err != nil {
		return err
	}
	return img.Threshold(p, magick.ChannelsUndefined)
}

func modulate(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	var values [3]magick.Percentage
	for i := range values {
		p, err := percentageArg(args, i, 100)
		if err != nil {
			return err
		}
		values[i] = p
	}
	return img.Modulate(values[0], values[1], values[2])
}

func gamma(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	v, err := floatArg(args, 0, 1)
	if err != nil {
		return invalidArg("gamma", args...)
	}
	return img.Gamma(v, magick.ChannelsUndefined)
}

func brightnessContrast(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	b, err := percentageArg(args, 0, 0)
	if err != nil {
		return err
	}
	c, err := percentageArg(args, 1, 0)
	if err != nil {
		return err
	}
	return img.BrightnessContrast(b, c, magick.ChannelsUndefined)
}

func sepia(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	p, err := percentageArg(args, 0, 80)
	if err != nil {
		return err
	}
	return img.SepiaTone(p)
}

func radiusSigma(name string, args []string) (radius, sigma float64, err error) {
	if radius, err = floatArg(args, 0, 0); err != nil {
		return 0, 0, invalidArg(name, args...)
	}
	if sigma, err = floatArg(args, 1, 1); err != nil {
		return 0, 0, invalidArg(name, args...)
	}
	return
}

func charcoal(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	radius, sigma, err := radiusSigma("charcoal", args)
	if err != nil {
		return err
	}
	return img.Charcoal(radius, sigma)
}

func emboss(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	radius, sigma, err := radiusSigma("emboss", args)
	if err != nil {
		return err
	}
	return img.Emboss(radius, sigma)
}

func edge(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	radius, err := floatArg(args, 0, 0)
	if err != nil {
		return invalidArg("edge", args...)
	}
	return img.Edge(radius)
}

func median(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	radius, err := floatArg(args, 0, 1)
	if err != nil {
		return invalidArg("median", args...)
	}
	return img.Median(radius)
}

func noise(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	noiseType := magick.NoiseGaussian
	if s := arg(args, 0); s != "" {
		var ok bool
		if noiseType, ok = magick.ParseNoiseType(s); !ok {
			return invalidArg("noise", args...)
		}
	}
	attenuate, err := floatArg(args, 1, 1)
	if err != nil {
		return invalidArg("noise", args...)
	}
	return img.AddNoise(noiseType, attenuate, magick.ChannelsUndefined)
}

func quality(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	q, err := intArg(args, 0, 0)
	if err != nil || q < 0 || q > 100 {
		return invalidArg("quality", args...)
	}
	img.Settings().Quality = q
	return nil
}

func format(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	f := magick.ParseFormat(arg(args, 0))
	info, ok := img.Magick().FormatInfo(f)
	if !ok || !info.SupportsWriting {
		return web.ErrUnsupportedFormat
	}
	img.Settings().Format = f
	return nil
}

func background(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	c, err := magick.ParseColor(arg(args, 0))
	if err != nil {
		return err
	}
	img.Settings().BackgroundColor = c
	return nil
}

func fuzz(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	p, err := percentageArg(args, 0, 0)
	if err != nil {
		return err
	}
	img.Settings().ColorFuzz = p
	return nil
}

func deskew(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	p, err := percentageArg(args, 0, 40)
	if err != nil {
		return err
	}
	_, err = img.Deskew(magick.DeskewSettings{Threshold: p, AutoCrop: boolArg(args, 1)})
	return err
}

func colorize(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	c, err := magick.ParseColor(arg(args, 0))
	if err != nil {
		return err
	}
	alpha, err := percentageArg(args, 1, 50)
	if err != nil {
		return err
	}
	return img.Colorize(c, alpha)
}

func quantize(_ context.Context, img *magick.Image, _ web.LoadFunc, args ...string) error {
	settings := magick.NewQuantizeSettings()
	colors, err := intArg(args, 0, settings.Colors)
	if err != nil {
		return invalidArg("quantize", args...)
	}
	settings.Colors = colors
	return img.Quantize(settings)
}

// composite(image[,x,y|gravity][,operator]) draws the loaded image over img
func composite(ctx context.Context, img *magick.Image, load web.LoadFunc, args ...string) (err error) {
	if len(args) == 0 || args[0] == "" {
		return invalidArg("composite", args...)
	}
	image := args[0]
	if unescape, e := url.QueryUnescape(image); e == nil {
		image = unescape
	}
	src, release, err := scopedImage(ctx, image, func() (*magick.Image, error) {
		blob, err := load(image)
		if err != nil {
			return nil, err
		}
		buf, err := blob.ReadAll()
		if err != nil {
			return nil, err
		}
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		return img.Magick().ReadImage(buf)
	})
	if err != nil {
		return
	}
	defer release()

	rest := args[1:]
	gravity, isGravity := magick.ParseGravity(arg(rest, 0))
	var x, y int
	if isGravity {
		rest = rest[1:]
	} else if len(rest) >= 2 {
		if x, err = strconv.Atoi(rest[0]); err != nil {
			return invalidArg("composite", args...)
		}
		if y, err = strconv.Atoi(rest[1]); err != nil {
			return invalidArg("composite", args...)
		}
		rest = rest[2:]
	}
	op := magick.CompositeOver
	if s := arg(rest, 0); s != "" {
		var ok bool
		if op, ok = magick.ParseCompositeOperator(s); !ok {
			return invalidArg("composite", args...)
		}
	}
	if isGravity {
		return img.CompositeGravity(src, gravity, 0, 0, op, magick.ChannelsUndefined)
	}
	return img.Composite(src, x, y, op, magick.ChannelsUndefined)
}
