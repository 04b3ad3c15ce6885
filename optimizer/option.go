package optimizer

import "go.uber.org/zap"

// Option ImageOptimizer option
type Option func(o *ImageOptimizer)

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(o *ImageOptimizer) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithOptimalCompression with the best of several PNG compression levels
func WithOptimalCompression(enabled bool) Option {
	return func(o *ImageOptimizer) {
		o.OptimalCompression = enabled
	}
}

// WithIgnoreUnsupportedFormats with unsupported formats passed through
func WithIgnoreUnsupportedFormats(enabled bool) Option {
	return func(o *ImageOptimizer) {
		o.IgnoreUnsupportedFormats = enabled
	}
}
