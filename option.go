package magick

import "go.uber.org/zap"

// Option Magick option
type Option func(m *Magick)

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(m *Magick) {
		if logger != nil {
			m.Logger = logger
		}
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(m *Magick) {
		m.Debug = debug
	}
}

// WithObserver with engine call observer option
func WithObserver(observer Observer) Option {
	return func(m *Magick) {
		m.Observer = observer
	}
}

// WithWarningHandler with default warning handler of images
func WithWarningHandler(handler WarningHandler) Option {
	return func(m *Magick) {
		m.WarningHandler = handler
	}
}

// WithMaxWidth with maximum image width read
func WithMaxWidth(width int) Option {
	return func(m *Magick) {
		if width > 0 {
			m.Limits.Width = width
		}
	}
}

// WithMaxHeight with maximum image height read
func WithMaxHeight(height int) Option {
	return func(m *Magick) {
		if height > 0 {
			m.Limits.Height = height
		}
	}
}

// WithMaxArea with maximum image pixel area read
func WithMaxArea(area int64) Option {
	return func(m *Magick) {
		if area > 0 {
			m.Limits.Area = area
		}
	}
}
