package config

import (
	"flag"

	"go.uber.org/zap"

	"github.com/cshum/magick/web"
)

// Option flag based config option
type Option func(fs *flag.FlagSet, cb func() (logger *zap.Logger, isDebug bool)) web.Option

// applyOptions transforms config.Option into web.Option.
// Flags of every option are defined before cb parses them.
func applyOptions(
	fs *flag.FlagSet, cb func() (*zap.Logger, bool), options ...Option,
) (webOptions []web.Option, logger *zap.Logger, isDebug bool) {
	if len(options) == 0 {
		logger, isDebug = cb()
		return
	}
	last := len(options) - 1
	if options[last] == nil {
		return applyOptions(fs, cb, options[:last]...)
	}
	var called bool
	var inner []web.Option
	opt := options[last](fs, func() (*zap.Logger, bool) {
		inner, logger, isDebug = applyOptions(fs, cb, options[:last]...)
		called = true
		return logger, isDebug
	})
	if !called {
		inner, logger, isDebug = applyOptions(fs, cb, options[:last]...)
	}
	return append(inner, opt), logger, isDebug
}
