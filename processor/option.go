package processor

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cshum/magick"
)

// Option Processor option
type Option func(p *Processor)

// WithMagick with Magick instance, replaces the default pure Go engine
func WithMagick(m *magick.Magick) Option {
	return func(p *Processor) {
		p.Magick = m
	}
}

// WithEngine with engine of the default Magick instance, pure Go engine when nil
func WithEngine(engine magick.Engine) Option {
	return func(p *Processor) {
		p.Engine = engine
	}
}

// WithOp with custom op
func WithOp(name string, fn OpFunc) Option {
	return func(p *Processor) {
		if fn != nil {
			p.Ops[name] = fn
		}
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.Logger = logger
		}
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(p *Processor) {
		p.Debug = debug
	}
}

// WithMaxWidth with maximum width option
func WithMaxWidth(width int) Option {
	return func(p *Processor) {
		if width > 0 {
			p.MaxWidth = width
		}
	}
}

// WithMaxHeight with maximum height option
func WithMaxHeight(height int) Option {
	return func(p *Processor) {
		if height > 0 {
			p.MaxHeight = height
		}
	}
}

// WithMaxResolution with maximum resolution option
func WithMaxResolution(res int) Option {
	return func(p *Processor) {
		if res > 0 {
			p.MaxResolution = res
		}
	}
}

// WithMaxOps with maximum number of ops per path
func WithMaxOps(num int) Option {
	return func(p *Processor) {
		if num > 0 {
			p.MaxOps = num
		}
	}
}

// WithMaxFrames with maximum number of animation frames decoded
func WithMaxFrames(num int) Option {
	return func(p *Processor) {
		if num > 0 {
			p.MaxFrames = num
		}
	}
}

// WithOptimize with lossless optimization of the encoded result
func WithOptimize(optimize bool) Option {
	return func(p *Processor) {
		p.Optimize = optimize
	}
}

// WithObserver with engine call observer, used by the default Magick instance
func WithObserver(observer magick.Observer) Option {
	return func(p *Processor) {
		p.Observer = observer
	}
}

// WithDisableOps with disable ops option, names may be comma separated
func WithDisableOps(ops ...string) Option {
	return func(p *Processor) {
		for _, raw := range ops {
			for _, name := range strings.Split(raw, ",") {
				if name = strings.TrimSpace(name); name != "" {
					p.DisableOps = append(p.DisableOps, name)
				}
			}
		}
	}
}
