package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strconv"
	"syscall"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service is a http.Handler with Startup and Shutdown lifecycle
type Service interface {
	http.Handler

	// Startup controls app startup
	Startup(ctx context.Context) error

	// Shutdown controls app shutdown
	Shutdown(ctx context.Context) error
}

// Metrics represents metrics Startup and Shutdown lifecycle and Handle middleware
type Metrics interface {
	Handle(next http.Handler) http.Handler
	Startup(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Server wraps the Service with additional http and app lifecycle handling
type Server struct {
	http.Server
	App             Service
	Address         string
	Port            int
	CertFile        string
	KeyFile         string
	PathPrefix      string
	SentryDsn       string
	StartupTimeout  time.Duration
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
	Debug           bool
	Metrics         Metrics
}

// New create new Server
func New(app Service, options ...Option) *Server {
	s := &Server{}
	s.App = app
	s.Port = 8000
	s.MaxHeaderBytes = 1 << 20
	s.StartupTimeout = time.Second * 10
	s.ShutdownTimeout = time.Second * 10
	s.Logger = zap.NewNop()

	s.Handler = noopHandler(s.App)

	for _, option := range options {
		option(s)
	}
	if s.SentryDsn != "" {
		s.Logger = s.withSentry(s.Logger)
	}
	s.ErrorLog = newServerErrorLog(s.Logger)
	if !isNil(s.Metrics) {
		s.Handler = s.Metrics.Handle(s.Handler)
	}
	s.Handler = s.panicHandler(s.Handler)
	if s.Addr == "" {
		s.Addr = s.Address + ":" + strconv.Itoa(s.Port)
	}
	return s
}

// Run server that terminates on SIGINT, SIGTERM signals
func (s *Server) Run() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	s.RunContext(ctx)
}

// RunContext run server with context
func (s *Server) RunContext(ctx context.Context) {
	s.startup(ctx)

	go func() {
		if err := s.listenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Fatal("listen", zap.Error(err))
		}
	}()
	s.Logger.Info("listen", zap.String("addr", s.Addr))
	<-ctx.Done()

	s.shutdown(context.Background())
}

func (s *Server) startup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.StartupTimeout)
	defer cancel()
	if err := s.App.Startup(ctx); err != nil {
		s.Logger.Fatal("app-startup", zap.Error(err))
	}
	if !isNil(s.Metrics) {
		if err := s.Metrics.Startup(ctx); err != nil {
			s.Logger.Fatal("metrics-startup", zap.Error(err))
		}
	}
}

func (s *Server) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.ShutdownTimeout)
	defer cancel()
	s.Logger.Info("shutdown")
	if err := s.Shutdown(ctx); err != nil {
		s.Logger.Error("server-shutdown", zap.Error(err))
	}
	if !isNil(s.Metrics) {
		if err := s.Metrics.Shutdown(ctx); err != nil {
			s.Logger.Error("metrics-shutdown", zap.Error(err))
		}
	}
	if err := s.App.Shutdown(ctx); err != nil {
		s.Logger.Error("app-shutdown", zap.Error(err))
	}
	if s.SentryDsn != "" {
		sentry.Flush(s.ShutdownTimeout)
	}
}

func (s *Server) listenAndServe() error {
	if s.CertFile != "" && s.KeyFile != "" {
		return s.ListenAndServeTLS(s.CertFile, s.KeyFile)
	}
	return s.ListenAndServe()
}

// withSentry reports error level logs to Sentry
func (s *Server) withSentry(logger *zap.Logger) *zap.Logger {
	if err := sentry.Init(sentry.ClientOptions{Dsn: s.SentryDsn}); err != nil {
		logger.Error("sentry", zap.Error(err))
		return logger
	}
	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
	}, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
	if err != nil {
		logger.Error("sentry", zap.Error(err))
		return logger
	}
	return zapsentry.AttachCoreToLogger(core, logger)
}

func isNil(c any) bool {
	return c == nil || (reflect.ValueOf(c).Kind() == reflect.Ptr && reflect.ValueOf(c).IsNil())
}
