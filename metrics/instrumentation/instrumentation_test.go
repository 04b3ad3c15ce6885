package instrumentation

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cshum/magick"
	"github.com/cshum/magick/engine/gomagick"
)

func TestObserve(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	i := New(reg, zap.New(core))

	i.Observe("Resize", time.Millisecond, nil)
	i.Observe("Resize", time.Millisecond*2, nil)
	i.Observe("Read", time.Millisecond, errors.New("corrupt"))

	assert.Equal(t, float64(2), testutil.ToFloat64(i.calls.WithLabelValues("Resize", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(i.calls.WithLabelValues("Read", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(i.latency))
	assert.Equal(t, 3, logs.FilterMessage("operation").Len())
}

func TestNewRegisteredTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, nil)
	b := New(reg, nil)
	a.Observe("Rotate", time.Millisecond, nil)
	b.Observe("Rotate", time.Millisecond, nil)
	assert.Equal(t, float64(2), testutil.ToFloat64(b.calls.WithLabelValues("Rotate", "success")))
}

func TestMagickObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	i := New(reg, nil)
	m := magick.New(gomagick.New(), magick.WithObserver(i.Observe))
	img, err := m.NewImageColor(magick.MustParseColor("red"), 4, 4)
	if assert.NoError(t, err) {
		defer img.Close()
		assert.NoError(t, img.Flip())
	}
	assert.Greater(t, testutil.CollectAndCount(i.calls), 0)
}
