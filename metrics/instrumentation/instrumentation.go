package instrumentation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Instrumentation records engine call durations and counts,
// Observe satisfies magick.Observer
type Instrumentation struct {
	Logger *zap.Logger

	latency *prometheus.HistogramVec
	calls   *prometheus.CounterVec
}

// New creates Instrumentation with collectors registered to reg,
// prometheus.DefaultRegisterer when nil
func New(reg prometheus.Registerer, logger *zap.Logger) *Instrumentation {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Instrumentation{
		Logger: logger,
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "magick_operation_duration_seconds",
				Help:    "A histogram of latencies of magick engine operations",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation", "status"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "magick_operation_calls_total",
				Help: "Total number of magick engine operations",
			},
			[]string{"operation", "status"},
		),
	}
	i.latency = register(reg, i.latency)
	i.calls = register(reg, i.calls)
	return i
}

// register returns the already registered collector on duplicate registration
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Observe records one engine operation
func (i *Instrumentation) Observe(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	i.latency.WithLabelValues(operation, status).Observe(duration.Seconds())
	i.calls.WithLabelValues(operation, status).Inc()
	i.Logger.Debug("operation",
		zap.String("operation", operation),
		zap.Duration("duration", duration),
		zap.String("status", status),
		zap.Error(err))
}
