package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type errorBody struct {
	Message string `json:"message,omitempty"`
	Code    int    `json:"status,omitempty"`
}

func (s *Server) panicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				s.Logger.Error("panic", zap.Error(err))
				resJSON(w, http.StatusInternalServerError, errorBody{
					Message: err.Error(),
					Code:    http.StatusInternalServerError,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func isNoopRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && (r.URL.Path == "/healthcheck" || r.URL.Path == "/favicon.ico")
}

func noopHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isNoopRequest(r) {
			handleOk(w, r)
			return
		}
		if r.Method == http.MethodGet && r.URL.Path == "/health" {
			resJSON(w, http.StatusOK, GetHealthStats())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleOk(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func stripQueryStringHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			r.URL.RawQuery = ""
			http.Redirect(w, r, r.URL.String(), http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLogHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wr := &statusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(wr, r)
		s.Logger.Info("access",
			zap.Int("status", wr.Status),
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.String("ip", RealIP(r)),
			zap.String("user_agent", r.UserAgent()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type serverErrorLogWriter struct {
	Logger *zap.Logger
}

func newServerErrorLog(logger *zap.Logger) *log.Logger {
	return log.New(&serverErrorLogWriter{Logger: logger}, "", 0)
}

func (w *serverErrorLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if strings.HasPrefix(msg, "http: TLS handshake error") ||
		strings.HasPrefix(msg, "http: URL query contains semicolon") {
		w.Logger.Debug("server", zap.String("log", msg))
	} else {
		w.Logger.Warn("server", zap.String("log", msg))
	}
	return len(p), nil
}

func resJSON(w http.ResponseWriter, status int, v any) {
	buf, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}
