//go:build magickwand

package main

import (
	"go.uber.org/zap"

	"github.com/cshum/magick"
	"github.com/cshum/magick/config"
	"github.com/cshum/magick/engine/wand"
)

func init() {
	config.RegisterEngine("wand", func(logger *zap.Logger, maxFrames, defaultQuality int) magick.Engine {
		return wand.New(
			wand.WithLogger(logger),
			wand.WithMaxFrames(maxFrames),
			wand.WithDefaultQuality(defaultQuality),
		)
	})
}
