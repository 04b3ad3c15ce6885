package prometheusmetrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server prometheus metrics server, also collecting request durations
// of the main server through Handle
type Server struct {
	http.Server

	Host      string
	Port      int
	Path      string
	Namespace string
	Logger    *zap.Logger
	Registry  *prometheus.Registry

	httpRequestDuration *prometheus.HistogramVec
}

// New create new metrics Server
func New(options ...Option) *Server {
	s := &Server{
		Port:      9000,
		Path:      "/metrics",
		Namespace: "magick",
		Logger:    zap.NewNop(),
	}
	for _, option := range options {
		option(s)
	}
	if s.Registry == nil {
		s.Registry = prometheus.NewRegistry()
		s.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: s.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Histogram of response latency (seconds) of HTTP requests",
	}, []string{"code", "method"})
	s.Registry.MustRegister(s.httpRequestDuration)

	s.Addr = s.Host + ":" + strconv.Itoa(s.Port)

	mux := http.NewServeMux()
	mux.Handle(s.Path, promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.Path, http.StatusPermanentRedirect)
	})
	s.Handler = mux
	return s
}

// Handle HTTP middleware recording request durations
func (s *Server) Handle(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(s.httpRequestDuration, next)
}

// Startup starts the metrics server in background
func (s *Server) Startup(_ context.Context) error {
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Fatal("prometheus listen", zap.Error(err))
		}
	}()
	s.Logger.Info("prometheus listen", zap.String("addr", s.Addr), zap.String("path", s.Path))
	return nil
}

// Shutdown metrics server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

// Option Server option
type Option func(s *Server)

// WithHost with server address option
func WithHost(address string) Option {
	return func(s *Server) {
		s.Host = address
	}
}

// WithPort with port option
func WithPort(port int) Option {
	return func(s *Server) {
		s.Port = port
	}
}

// WithPath with path option
func WithPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.Path = path
		}
	}
}

// WithNamespace with metric namespace option
func WithNamespace(namespace string) Option {
	return func(s *Server) {
		s.Namespace = namespace
	}
}

// WithRegistry with prometheus registry option
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.Registry = registry
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}
