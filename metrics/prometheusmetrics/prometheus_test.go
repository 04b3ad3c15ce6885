package prometheusmetrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWithOption(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		v := New()
		assert.Equal(t, "", v.Host)
		assert.Equal(t, 9000, v.Port)
		assert.Equal(t, "/metrics", v.Path)
		assert.Equal(t, "magick", v.Namespace)
		assert.Equal(t, ":9000", v.Addr)
		assert.NotNil(t, v.Logger)
		assert.NotNil(t, v.Registry)
	})

	t.Run("options", func(t *testing.T) {
		l := &zap.Logger{}
		reg := prometheus.NewRegistry()
		v := New(
			WithHost("domain.example.com"),
			WithPort(1111),
			WithPath("/path"),
			WithNamespace("ns"),
			WithRegistry(reg),
			WithLogger(l),
		)
		assert.Equal(t, "domain.example.com", v.Host)
		assert.Equal(t, 1111, v.Port)
		assert.Equal(t, "/path", v.Path)
		assert.Equal(t, "domain.example.com:1111", v.Addr)
		assert.Equal(t, &l, &v.Logger)
		assert.Same(t, reg, v.Registry)
	})
}

func TestHandle(t *testing.T) {
	v := New(WithRegistry(prometheus.NewRegistry()))
	h := v.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/b", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, 2, testutil.CollectAndCount(v.httpRequestDuration))

	w := httptest.NewRecorder()
	v.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "magick_http_request_duration_seconds_count"))

	w = httptest.NewRecorder()
	v.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusPermanentRedirect, w.Code)
	assert.Equal(t, "/metrics", w.Header().Get("Location"))
}

func TestStartupShutdown(t *testing.T) {
	v := New(WithHost("127.0.0.1"), WithPort(0))
	require.NoError(t, v.Startup(context.Background()))
	require.NoError(t, v.Shutdown(context.Background()))
}
