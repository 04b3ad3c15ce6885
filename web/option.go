package web

import (
	"time"

	"go.uber.org/zap"

	"github.com/cshum/magick/magickpath"
)

// Option Web option
type Option func(app *Web)

// WithLogger with zap logger
func WithLogger(logger *zap.Logger) Option {
	return func(app *Web) {
		if logger != nil {
			app.Logger = logger
		}
	}
}

// WithLoaders with image loaders
func WithLoaders(loaders ...Loader) Option {
	return func(app *Web) {
		for _, loader := range loaders {
			if loader != nil {
				app.Loaders = append(app.Loaders, loader)
			}
		}
	}
}

// WithStorages with source image storages
func WithStorages(storages ...Storage) Option {
	return func(app *Web) {
		for _, storage := range storages {
			if storage != nil {
				app.Storages = append(app.Storages, storage)
			}
		}
	}
}

// WithResultStorages with processed result storages
func WithResultStorages(storages ...Storage) Option {
	return func(app *Web) {
		for _, storage := range storages {
			if storage != nil {
				app.ResultStorages = append(app.ResultStorages, storage)
			}
		}
	}
}

// WithProcessors with image processors
func WithProcessors(processors ...Processor) Option {
	return func(app *Web) {
		for _, processor := range processors {
			if processor != nil {
				app.Processors = append(app.Processors, processor)
			}
		}
	}
}

// WithRequestTimeout with request timeout
func WithRequestTimeout(timeout time.Duration) Option {
	return func(app *Web) {
		if timeout > 0 {
			app.RequestTimeout = timeout
		}
	}
}

// WithLoadTimeout with load timeout for loader and storage
func WithLoadTimeout(timeout time.Duration) Option {
	return func(app *Web) {
		if timeout > 0 {
			app.LoadTimeout = timeout
		}
	}
}

// WithSaveTimeout with storage save timeout
func WithSaveTimeout(timeout time.Duration) Option {
	return func(app *Web) {
		if timeout > 0 {
			app.SaveTimeout = timeout
		}
	}
}

// WithProcessTimeout with processor timeout
func WithProcessTimeout(timeout time.Duration) Option {
	return func(app *Web) {
		if timeout > 0 {
			app.ProcessTimeout = timeout
		}
	}
}

// WithProcessConcurrency with maximum number of concurrent processing
func WithProcessConcurrency(concurrency int64) Option {
	return func(app *Web) {
		if concurrency > 0 {
			app.ProcessConcurrency = concurrency
		}
	}
}

// WithCacheHeaderTTL with result Cache-Control max age, 0 disables caching
func WithCacheHeaderTTL(ttl time.Duration) Option {
	return func(app *Web) {
		if ttl >= 0 {
			app.CacheHeaderTTL = ttl
		}
	}
}

// WithCacheHeaderSWR with Cache-Control stale-while-revalidate
func WithCacheHeaderSWR(swr time.Duration) Option {
	return func(app *Web) {
		if swr > 0 {
			app.CacheHeaderSWR = swr
		}
	}
}

// WithCacheHeaderNoCache with no-cache Cache-Control header
func WithCacheHeaderNoCache(nocache bool) Option {
	return func(app *Web) {
		if nocache {
			app.CacheHeaderTTL = 0
		}
	}
}

// WithUnsafe with unsafe URL path without signature
func WithUnsafe(unsafe bool) Option {
	return func(app *Web) {
		app.Unsafe = unsafe
	}
}

// WithSigner with URL signature signer
func WithSigner(signer magickpath.Signer) Option {
	return func(app *Web) {
		if signer != nil {
			app.Signer = signer
		}
	}
}

// WithStorageHasher with storage key hasher
func WithStorageHasher(hasher magickpath.StorageHasher) Option {
	return func(app *Web) {
		if hasher != nil {
			app.StorageHasher = hasher
		}
	}
}

// WithResultStorageHasher with result storage key hasher
func WithResultStorageHasher(hasher magickpath.ResultStorageHasher) Option {
	return func(app *Web) {
		if hasher != nil {
			app.ResultStorageHasher = hasher
		}
	}
}

// WithBasePathRedirect with redirect for the base path
func WithBasePathRedirect(url string) Option {
	return func(app *Web) {
		app.BasePathRedirect = url
	}
}

// WithModifiedTimeCheck with result discarded if the source is newer
func WithModifiedTimeCheck(enabled bool) Option {
	return func(app *Web) {
		app.ModifiedTimeCheck = enabled
	}
}

// WithDisableErrorBody with error response without body
func WithDisableErrorBody(disabled bool) Option {
	return func(app *Web) {
		app.DisableErrorBody = disabled
	}
}

// WithDisableParamsEndpoint with /params endpoint disabled
func WithDisableParamsEndpoint(disabled bool) Option {
	return func(app *Web) {
		app.DisableParamsEndpoint = disabled
	}
}

// WithDebug with debug logging
func WithDebug(debug bool) Option {
	return func(app *Web) {
		app.Debug = debug
	}
}
