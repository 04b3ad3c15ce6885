package config

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/peterbourgon/ff/v3"
	"go.uber.org/zap"

	"github.com/cshum/magick/magickpath"
	"github.com/cshum/magick/metrics/instrumentation"
	"github.com/cshum/magick/metrics/prometheusmetrics"
	"github.com/cshum/magick/processor"
	"github.com/cshum/magick/server"
	"github.com/cshum/magick/web"
)

// NewWeb creates web.Web from flags, parsed on the cb call
func NewWeb(fs *flag.FlagSet, cb func() (*zap.Logger, bool), options ...Option) *web.Web {
	var (
		magickSecret = fs.String("magick-secret", "",
			"Secret key for signing URL paths")
		magickUnsafe = fs.Bool("magick-unsafe", false,
			"Unsafe mode accepting unsafe/ paths without signature. Prone to URL tampering")
		magickSignerType = fs.String("magick-signer-type", "sha1",
			"URL signature hasher type: sha1, sha256 or sha512")
		magickSignerTruncate = fs.Int("magick-signer-truncate", 0,
			"URL signature truncate at length")
		magickRequestTimeout = fs.Duration("magick-request-timeout",
			time.Second*30, "Timeout for performing a request")
		magickLoadTimeout = fs.Duration("magick-load-timeout",
			time.Second*20, "Timeout for loading a source image, should be smaller than magick-request-timeout")
		magickSaveTimeout = fs.Duration("magick-save-timeout",
			time.Second*20, "Timeout for saving to storages")
		magickProcessTimeout = fs.Duration("magick-process-timeout",
			time.Second*20, "Timeout for image processing")
		magickProcessConcurrency = fs.Int64("magick-process-concurrency",
			-1, "Maximum number of images processed concurrently. -1 for no limit")
		magickBasePathRedirect = fs.String("magick-base-path-redirect", "",
			"URL to redirect the / base path to e.g. https://www.google.com")
		magickCacheHeaderTTL = fs.Duration("magick-cache-header-ttl",
			time.Hour*24*7, "Cache-Control header TTL of successful responses")
		magickCacheHeaderSWR = fs.Duration("magick-cache-header-swr",
			time.Hour*24, "Cache-Control header stale-while-revalidate of successful responses")
		magickCacheHeaderNoCache = fs.Bool("magick-cache-header-no-cache", false,
			"Cache-Control header no-cache for successful responses")
		magickModifiedTimeCheck = fs.Bool("magick-modified-time-check", false,
			"Check modified time of the result against the source, discarding stale results at the cost of more lookups")
		magickDisableErrorBody = fs.Bool("magick-disable-error-body", false,
			"Disable response body on error")
		magickDisableParamsEndpoint = fs.Bool("magick-disable-params-endpoint", false,
			"Disable the /params endpoint")
		magickStoragePathStyle = fs.String("magick-storage-path-style", "original",
			"Storage key style: original or digest")
		magickResultStoragePathStyle = fs.String("magick-result-storage-path-style", "original",
			"Result storage key style: original, digest or suffix")
	)

	webOptions, logger, isDebug := applyOptions(fs, cb, options...)

	var storageHasher magickpath.StorageHasher
	if *magickStoragePathStyle == "digest" {
		storageHasher = magickpath.DigestStorageHasher
	}
	var resultStorageHasher magickpath.ResultStorageHasher
	switch *magickResultStoragePathStyle {
	case "digest":
		resultStorageHasher = magickpath.DigestResultStorageHasher
	case "suffix":
		resultStorageHasher = magickpath.SuffixResultStorageHasher
	}

	return web.New(append(
		webOptions,
		web.WithSigner(magickpath.NewSigner(
			*magickSignerType, *magickSignerTruncate, *magickSecret)),
		web.WithStorageHasher(storageHasher),
		web.WithResultStorageHasher(resultStorageHasher),
		web.WithBasePathRedirect(*magickBasePathRedirect),
		web.WithRequestTimeout(*magickRequestTimeout),
		web.WithLoadTimeout(*magickLoadTimeout),
		web.WithSaveTimeout(*magickSaveTimeout),
		web.WithProcessTimeout(*magickProcessTimeout),
		web.WithProcessConcurrency(*magickProcessConcurrency),
		web.WithCacheHeaderTTL(*magickCacheHeaderTTL),
		web.WithCacheHeaderSWR(*magickCacheHeaderSWR),
		web.WithCacheHeaderNoCache(*magickCacheHeaderNoCache),
		web.WithModifiedTimeCheck(*magickModifiedTimeCheck),
		web.WithDisableErrorBody(*magickDisableErrorBody),
		web.WithDisableParamsEndpoint(*magickDisableParamsEndpoint),
		web.WithUnsafe(*magickUnsafe),
		web.WithLogger(logger),
		web.WithDebug(isDebug),
	)...)
}

// CreateServer creates server.Server from command line args, environment
// variables and the .env config file
func CreateServer(args []string, options ...Option) (srv *server.Server) {
	var (
		fs     = flag.NewFlagSet("magickd", flag.ExitOnError)
		logger *zap.Logger
		err    error
		app    *web.Web

		debug        = fs.Bool("debug", false, "Debug mode")
		version      = fs.Bool("version", false, "Version")
		port         = fs.Int("port", 8000, "Server port")
		bind         = fs.String("bind", "", "Server address and port to bind, overrides -port")
		goMaxProcess = fs.Int("gomaxprocs", 0, "GOMAXPROCS")

		_ = fs.String("config", ".env", "Retrieve configuration from the given file")

		serverAddress = fs.String("server-address", "",
			"Server address")
		serverPathPrefix = fs.String("server-path-prefix", "",
			"Server path prefix")
		serverCORS = fs.Bool("server-cors", false,
			"Enable CORS")
		serverStripQueryString = fs.Bool("server-strip-query-string", false,
			"Enable strip query string redirection")
		serverAccessLog = fs.Bool("server-access-log", false,
			"Enable server access log")
		serverCertFile = fs.String("server-cert-file", "",
			"TLS certificate file, serves HTTPS together with -server-key-file")
		serverKeyFile = fs.String("server-key-file", "",
			"TLS key file")
		serverStartupTimeout = fs.Duration("server-startup-timeout", time.Second*10,
			"Timeout for app startup")
		serverShutdownTimeout = fs.Duration("server-shutdown-timeout", time.Second*10,
			"Timeout for graceful shutdown")

		sentryDsn = fs.String("sentry-dsn", "",
			"Sentry DSN reporting error logs")

		prometheusBind = fs.String("prometheus-bind", "",
			"Prometheus metrics server address to bind. Enables metrics only if this value present")
		prometheusPath = fs.String("prometheus-path", "/metrics",
			"Prometheus metrics path")
	)

	app = NewWeb(fs, func() (*zap.Logger, bool) {
		if err = ff.Parse(fs, args,
			ff.WithEnvVars(),
			ff.WithConfigFileFlag("config"),
			ff.WithIgnoreUndefined(true),
			ff.WithAllowMissingConfigFile(true),
			ff.WithConfigFileParser(ff.EnvParser),
		); err != nil {
			panic(err)
		}
		if *debug {
			if logger, err = zap.NewDevelopment(); err != nil {
				panic(err)
			}
		} else {
			if logger, err = zap.NewProduction(); err != nil {
				panic(err)
			}
		}
		return logger, *debug
	}, append([]Option{WithProcessor}, append(options, WithFileSystem, WithHTTPLoader)...)...)

	if *version {
		fmt.Println(web.Version)
		return
	}

	if *goMaxProcess > 0 {
		logger.Debug("GOMAXPROCS", zap.Int("count", *goMaxProcess))
		runtime.GOMAXPROCS(*goMaxProcess)
	}

	var metrics *prometheusmetrics.Server
	if *prometheusBind != "" {
		metrics = prometheusmetrics.New(
			prometheusmetrics.WithPath(*prometheusPath),
			prometheusmetrics.WithLogger(logger),
		)
		metrics.Addr = *prometheusBind
		observe := instrumentation.New(metrics.Registry, logger).Observe
		for _, p := range app.Processors {
			if p, ok := p.(*processor.Processor); ok && p.Observer == nil {
				p.Observer = observe
			}
		}
	}

	return server.New(app,
		server.WithAddr(*bind),
		server.WithAddress(*serverAddress),
		server.WithPort(*port),
		server.WithPathPrefix(*serverPathPrefix),
		server.WithCORS(*serverCORS),
		server.WithStripQueryString(*serverStripQueryString),
		server.WithAccessLog(*serverAccessLog),
		server.WithCertFile(*serverCertFile),
		server.WithKeyFile(*serverKeyFile),
		server.WithStartupTimeout(*serverStartupTimeout),
		server.WithShutdownTimeout(*serverShutdownTimeout),
		server.WithSentry(*sentryDsn),
		server.WithMetrics(metrics),
		server.WithLogger(logger),
		server.WithDebug(*debug),
	)
}
