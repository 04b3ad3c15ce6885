package config

import (
	"flag"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cshum/magick"
	"github.com/cshum/magick/engine/gomagick"
	"github.com/cshum/magick/processor"
	"github.com/cshum/magick/web"
)

// EngineFunc creates the magick.Engine selected by -magick-engine
type EngineFunc func(logger *zap.Logger, maxFrames, defaultQuality int) magick.Engine

var (
	enginesMu sync.RWMutex
	engines   = map[string]EngineFunc{
		"gomagick": func(logger *zap.Logger, maxFrames, defaultQuality int) magick.Engine {
			return gomagick.New(
				gomagick.WithLogger(logger),
				gomagick.WithMaxFrames(maxFrames),
				gomagick.WithDefaultQuality(defaultQuality),
			)
		},
	}
)

// RegisterEngine makes an engine selectable by name with -magick-engine
func RegisterEngine(name string, fn EngineFunc) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if fn == nil {
		panic("config: RegisterEngine fn is nil")
	}
	engines[name] = fn
}

// Engines names of registered engines, sorted
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func engineFunc(name string) (EngineFunc, bool) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	fn, ok := engines[name]
	return fn, ok
}

// WithProcessor with the operation path processor config option
func WithProcessor(fs *flag.FlagSet, cb func() (*zap.Logger, bool)) web.Option {
	var (
		magickEngine = fs.String("magick-engine", "gomagick",
			fmt.Sprintf("Image engine, one of %s", strings.Join(Engines(), ",")))
		magickMaxWidth = fs.Int("magick-max-width", 0,
			"Maximum width of source images. 0 for no limit")
		magickMaxHeight = fs.Int("magick-max-height", 0,
			"Maximum height of source images. 0 for no limit")
		magickMaxResolution = fs.Int("magick-max-resolution", 81000000,
			"Maximum resolution in pixels of source images")
		magickMaxOps = fs.Int("magick-max-ops", 10,
			"Maximum number of ops of an operation path")
		magickMaxFrames = fs.Int("magick-max-frames", 0,
			"Maximum number of animation frames decoded. 0 for no limit")
		magickDefaultQuality = fs.Int("magick-default-quality", 0,
			"Default encode quality of lossy formats. 0 for engine default")
		magickOptimize = fs.Bool("magick-optimize", false,
			"Lossless optimization of encoded results")
		magickDisableOps = fs.String("magick-disable-ops", "",
			"Disable ops by csv e.g. blur,composite")

		logger, isDebug = cb()
	)
	fn, ok := engineFunc(*magickEngine)
	if !ok {
		panic(fmt.Errorf("config: unknown magick engine %q", *magickEngine))
	}
	return web.WithProcessors(
		processor.NewProcessor(
			processor.WithEngine(fn(logger, *magickMaxFrames, *magickDefaultQuality)),
			processor.WithMaxWidth(*magickMaxWidth),
			processor.WithMaxHeight(*magickMaxHeight),
			processor.WithMaxResolution(*magickMaxResolution),
			processor.WithMaxOps(*magickMaxOps),
			processor.WithMaxFrames(*magickMaxFrames),
			processor.WithOptimize(*magickOptimize),
			processor.WithDisableOps(*magickDisableOps),
			processor.WithLogger(logger),
			processor.WithDebug(isDebug),
		),
	)
}
