package magick

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestImage(t *testing.T, m *Magick) *Image {
	img, err := m.ReadImage([]byte("PNG 200x100"))
	require.NoError(t, err)
	t.Cleanup(img.Close)
	return img
}

func TestCloneMutatorOperationPending(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	e.calls = nil

	out, err := img.CloneAndMutate(func(mu *Mutator) error {
		require.NoError(t, mu.Blur(nil))
		assert.True(t, mu.HasResult())
		assert.ErrorIs(t, mu.ResizeSize(10, 10), ErrOperationPending)
		assert.ErrorIs(t, mu.Flip(), ErrOperationPending)
		return nil
	})
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, []string{"Blur(0,1,31)"}, e.calls)
	assert.Equal(t, 200, out.Width())
	assert.NotSame(t, img.Native(), out.Native())
}

func TestCloneMutatorTakeResult(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	mu := newCloneMutator(img)

	_, err := mu.TakeResult()
	assert.ErrorIs(t, err, ErrNoResult)

	require.NoError(t, mu.Flip())
	h, err := mu.TakeResult()
	require.NoError(t, err)
	assert.False(t, mu.HasResult())

	require.NoError(t, mu.Flop(), "slot is free after take")
	h2, err := mu.TakeResult()
	require.NoError(t, err)
	h.Destroy()
	h2.Destroy()
	assert.Equal(t, 1, e.live)
}

func TestCloneAndMutateNoResult(t *testing.T) {
	m, _ := newFakeMagick()
	img := newTestImage(t, m)
	out, err := img.CloneAndMutate(func(*Mutator) error { return nil })
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestCloneAndMutateErrorDiscardsResult(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	fail := errors.New("abort")
	out, err := img.CloneAndMutate(func(mu *Mutator) error {
		require.NoError(t, mu.Flip())
		return fail
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, 1, e.live)
}

func TestInPlaceMutatorChaining(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	first := img.Native()

	require.NoError(t, img.Blur(&BlurOptions{Radius: 2, Sigma: 3, Channels: ChannelRed}))
	require.NoError(t, img.ResizeSize(100, 0))
	require.NoError(t, img.Flip())

	assert.Equal(t, 100, img.Width())
	assert.Equal(t, 50, img.Height())
	assert.True(t, first.(*fakeImage).destroyed)
	assert.Equal(t, 1, e.live, "replaced handles are destroyed")
	assert.False(t, img.HasResult())
	_, err := img.TakeResult()
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestResizeForwardsSameGeometry(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	e.calls = nil

	require.NoError(t, img.ResizeSize(100, 50))
	require.NoError(t, img.Resize(NewGeometry(100, 50)))
	require.Len(t, e.calls, 2)
	assert.Equal(t, e.calls[0], e.calls[1])
	assert.Equal(t, "Resize(100x50,Undefined)", e.calls[0])

	e.calls = nil
	img.Settings().FilterType = FilterLanczos
	require.NoError(t, img.ResizePercentage(50))
	assert.Equal(t, []string{"Resize(50x50%,Lanczos)"}, e.calls)
}

func TestGeometryOperations(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	img.Settings().BackgroundColor = ColorRed
	e.calls = nil

	require.NoError(t, img.Crop(NewGeometryWithOffset(10, 10, 50, 50), GravityUndefined))
	require.NoError(t, img.Extent(NewGeometry(80, 80), GravityCenter))
	require.NoError(t, img.Border(2, 3))
	require.NoError(t, img.Rotate(90))
	require.NoError(t, img.Thumbnail(MustParseGeometry("40x40^")))
	assert.Equal(t, []string{
		"Crop(50x50+10+10,Undefined)",
		"Extent(80x80,Center,#FFFF00000000)",
		"Border(2,3,#DFDFDFDFDFDF)",
		"Rotate(90,#FFFF00000000)",
		"Thumbnail(40x40^)",
	}, e.calls)

	err := img.Crop(Geometry{Width: -1}, GravityCenter)
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "width", argErr.Param)
}

func TestNegativePercentageRejected(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)

	tests := []struct {
		name  string
		param string
		op    func() error
	}{
		{"threshold", "percentage", func() error { return img.Threshold(-1, ChannelsUndefined) }},
		{"colorize", "alpha", func() error { return img.Colorize(ColorRed, -10) }},
		{"modulate", "saturation", func() error { return img.Modulate(100, -1, 100) }},
		{"level", "blackPoint", func() error { return img.Level(-5, 100, 1, ChannelsUndefined) }},
		{"sepia", "threshold", func() error { return img.SepiaTone(-80) }},
		{"solarize", "factor", func() error { return img.Solarize(-50) }},
		{"deskew", "threshold", func() error {
			_, err := img.Deskew(DeskewSettings{Threshold: -40})
			return err
		}},
		{"percentage geometry", "width", func() error { return img.ResizePercentage(-50) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.calls = nil
			err := tt.op()
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.param, argErr.Param)
			assert.Empty(t, e.calls, "engine not called")
		})
	}
}

func TestPercentageForwardedAsQuantum(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	e.calls = nil

	require.NoError(t, img.Threshold(50, ChannelsUndefined))
	require.NoError(t, img.SepiaTone(0))
	require.NoError(t, img.Level(0, 100, 1.2, ChannelRed))
	assert.Equal(t, []string{
		"Threshold(32767.5,31)",
		"SepiaTone(52428)",
		"Level(0,65535,1.2,1)",
	}, e.calls)
}

func TestMutatorArgumentChecks(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	e.calls = nil

	var argErr *ArgumentError
	require.ErrorAs(t, img.Distort(DistortArc, nil), &argErr)
	assert.Equal(t, "arguments", argErr.Param)
	require.ErrorAs(t, img.Morphology(MorphologySettings{Method: MorphologyDilate}), &argErr)
	assert.Equal(t, "kernel", argErr.Param)
	require.ErrorAs(t, img.ImportPixels(nil), &argErr)
	require.ErrorAs(t, img.ImportPixels(&PixelImportSettings{
		Width: 2, Height: 2, Mapping: "RGB", StorageType: StorageChar, Data: make([]byte, 11),
	}), &argErr)
	assert.Equal(t, "data", argErr.Param)
	require.ErrorAs(t, img.Quantize(&QuantizeSettings{Colors: 0}), &argErr)
	require.ErrorAs(t, img.Composite(nil, 0, 0, CompositeOver, ChannelsUndefined), &argErr)
	assert.Empty(t, e.calls)

	closed := newTestImage(t, m)
	closed.Close()
	assert.ErrorIs(t, img.Composite(closed, 0, 0, CompositeOver, ChannelsUndefined), ErrDisposed)
}

func TestDistortViewport(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	e.calls = nil
	vp := NewGeometryWithOffset(0, 0, 10, 10)
	require.NoError(t, img.Distort(DistortArc, &DistortOptions{Viewport: &vp}, 60))
	assert.Equal(t, []string{"Distort(Arc,false,[60],10x10+0+0)"}, e.calls)
	_, ok := img.Artifact("distort:viewport")
	assert.False(t, ok)

	img.SetArtifact("distort:viewport", "5x5+1+1")
	out, err := img.CloneAndMutate(func(mu *Mutator) error {
		return mu.Distort(DistortArc, &DistortOptions{Viewport: &vp}, 60)
	})
	require.NoError(t, err)
	defer out.Close()
	v, ok := img.Artifact("distort:viewport")
	assert.True(t, ok)
	assert.Equal(t, "5x5+1+1", v)
}

func TestDeskewReturnsAngle(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	e.calls = nil

	angle, err := img.Deskew(DeskewSettings{Threshold: 40, AutoCrop: true})
	require.NoError(t, err)
	assert.Equal(t, 2.5, angle)
	assert.Equal(t, []string{"Deskew(26214,true)"}, e.calls)

	var cloneAngle float64
	out, err := img.CloneAndMutate(func(mu *Mutator) (err error) {
		cloneAngle, err = mu.Deskew(DeskewSettings{Threshold: 40})
		return
	})
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 2.5, cloneAngle)

	img.SetArtifact("deskew:auto-crop", "false")
	e.calls = nil
	cropped, err := img.CloneAndMutate(func(mu *Mutator) error {
		_, err := mu.Deskew(DeskewSettings{Threshold: 40, AutoCrop: true})
		return err
	})
	require.NoError(t, err)
	defer cropped.Close()
	assert.Equal(t, []string{"Deskew(26214,true)"}, e.calls)
	v, ok := img.Artifact("deskew:auto-crop")
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}

func TestCompositeEmptySource(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	src := m.NewImage()
	defer src.Close()
	e.calls = nil

	err := img.Composite(src, 0, 0, CompositeOver, ChannelsUndefined)
	assert.True(t, IsException(err, WandError), err)
	err = img.CompositeGravity(src, GravityCenter, 0, 0, CompositeOver, ChannelsUndefined)
	assert.True(t, IsException(err, WandError), err)
	_, err = img.Compare(src, ErrorMetricRootMeanSquared, ChannelsUndefined)
	assert.True(t, IsException(err, WandError), err)
	_, _, err = img.CompareDifference(src, &CompareSettings{Metric: ErrorMetricRootMeanSquared}, ChannelsUndefined)
	assert.True(t, IsException(err, WandError), err)
	assert.Empty(t, e.calls)
}

func TestCompositeGravity(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	src, err := m.ReadImage([]byte("PNG 20x10"))
	require.NoError(t, err)
	defer src.Close()

	tests := []struct {
		gravity Gravity
		want    string
	}{
		{GravityNorthwest, "Composite(5,5,Over,31)"},
		{GravityNorth, "Composite(95,5,Over,31)"},
		{GravityNortheast, "Composite(175,5,Over,31)"},
		{GravityCenter, "Composite(95,50,Over,31)"},
		{GravitySoutheast, "Composite(175,85,Over,31)"},
		{GravitySouth, "Composite(95,85,Over,31)"},
	}
	for _, tt := range tests {
		t.Run(tt.gravity.String(), func(t *testing.T) {
			e.calls = nil
			require.NoError(t, img.CompositeGravity(src, tt.gravity, 5, 5, CompositeOver, ChannelsUndefined))
			assert.Equal(t, []string{tt.want}, e.calls)
		})
	}
}

func TestEngineFailureLeavesMutatorReusable(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	mu := newCloneMutator(img)

	e.fail = NewException(OptionError, "invalid argument", "blur")
	err := mu.Blur(nil)
	assert.True(t, IsException(err, OptionError))
	assert.False(t, mu.HasResult())

	e.fail = nil
	require.NoError(t, mu.Blur(nil))
	h, err := mu.TakeResult()
	require.NoError(t, err)
	h.Destroy()
	assert.Equal(t, 1, e.live)

	e.fail = NewException(ResourceLimitError, "cache exhausted", "")
	before := img.Native()
	assert.Error(t, img.Flip())
	assert.Same(t, before, img.Native(), "handle kept on failure")
}

func TestWarningAccepted(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var warnings []*Exception
	m, e := newFakeMagick(
		WithLogger(zap.New(core)),
		WithWarningHandler(func(w *Exception) { warnings = append(warnings, w) }),
	)
	img := newTestImage(t, m)

	e.warn = NewException(CoderWarning, "incorrect sRGB chunk", "png")
	require.NoError(t, img.Flip())
	require.Len(t, warnings, 1)
	assert.Equal(t, CoderWarning, warnings[0].Severity)
	assert.Equal(t, 1, logs.FilterMessage("engine warning").Len())

	var own []*Exception
	img.SetWarningHandler(func(w *Exception) { own = append(own, w) })
	require.NoError(t, img.Flop())
	assert.Len(t, own, 1)
	assert.Len(t, warnings, 1)
}

func TestObserver(t *testing.T) {
	var ops []string
	m, _ := newFakeMagick(WithObserver(func(op string, d time.Duration, err error) {
		assert.GreaterOrEqual(t, d, time.Duration(0))
		ops = append(ops, op)
	}))
	img := newTestImage(t, m)
	require.NoError(t, img.Flip())
	_, err := img.ToBytes()
	require.NoError(t, err)
	assert.Equal(t, []string{"Read", "Flip", "Write"}, ops)
}

func TestQuantizeDefaults(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	e.calls = nil
	require.NoError(t, img.Quantize(nil))
	assert.Equal(t, []string{"Quantize(256,2)"}, e.calls)
}

func TestTransformColorSpace(t *testing.T) {
	m, e := newFakeMagick()
	img := newTestImage(t, m)
	srgb := ColorProfileSRGB()
	e.calls = nil

	_, err := img.TransformColorSpace(srgb, nil)
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)

	ok, err := img.TransformColorSpace(nil, srgb)
	require.NoError(t, err)
	assert.False(t, ok, "no embedded profile")
	assert.Empty(t, e.calls)

	ok, err = img.TransformColorSpace(srgb, srgb)
	require.NoError(t, err)
	assert.True(t, ok)
	p, err := img.ColorProfile()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, ColorSpaceSRGB, p.ColorSpace())

	ok, err = img.TransformColorSpace(nil, srgb)
	require.NoError(t, err)
	assert.True(t, ok, "embedded profile used as source")
}
