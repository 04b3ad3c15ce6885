package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cshum/magick/magickpath"
	"github.com/cshum/magick/web"
)

type testProcessor struct {
	StartupCnt  int
	ShutdownCnt int
}

func (app *testProcessor) Process(ctx context.Context, blob *web.Blob, p magickpath.Params, load web.LoadFunc) (*web.Blob, error) {
	return nil, nil
}

func (app *testProcessor) Startup(ctx context.Context) error {
	app.StartupCnt++
	return nil
}

func (app *testProcessor) Shutdown(ctx context.Context) error {
	app.ShutdownCnt++
	return nil
}

type slowTestProcessor struct {
	StartupCnt  int
	ShutdownCnt int
}

func (app *slowTestProcessor) Process(ctx context.Context, blob *web.Blob, p magickpath.Params, load web.LoadFunc) (*web.Blob, error) {
	return nil, nil
}

func (app *slowTestProcessor) Startup(ctx context.Context) error {
	app.StartupCnt++
	select {
	case <-time.After(100 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (app *slowTestProcessor) Shutdown(ctx context.Context) error {
	app.ShutdownCnt++
	return nil
}

type loaderFunc func(r *http.Request, image string) (blob *web.Blob, err error)

func (f loaderFunc) Get(r *http.Request, image string) (*web.Blob, error) {
	return f(r, image)
}

func TestServer_Run(t *testing.T) {
	ctx, done := context.WithCancel(context.Background())
	processor := &testProcessor{}
	app := web.New(web.WithProcessors(processor))
	s := New(app,
		WithDebug(true),
		WithAddr(":0"),
		WithStartupTimeout(time.Millisecond),
		WithShutdownTimeout(time.Millisecond),
		WithMetrics(nil),
		WithLogger(zap.NewExample()))
	go func() {
		time.Sleep(time.Millisecond)
		assert.Equal(t, 1, processor.StartupCnt)
		assert.Equal(t, 0, processor.ShutdownCnt)
		done()
	}()
	s.RunContext(ctx)
	assert.Equal(t, 1, processor.ShutdownCnt)
}

func TestServer(t *testing.T) {
	s := New(
		web.New(
			web.WithUnsafe(true),
			web.WithLoaders(loaderFunc(func(r *http.Request, image string) (*web.Blob, error) {
				return web.NewBlobFromBytes([]byte("foo")), nil
			})),
		),
		WithAccessLog(true),
		WithMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Foo", "Bar")
				if strings.Contains(r.URL.String(), "boom") {
					panic("booooom")
				}
				next.ServeHTTP(w, r)
			})
		}),
		WithCORS(true),
	)

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/favicon.ico", nil))
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, w.Header().Get("Vary"))
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "https://example.com/favicon.ico", nil))
	assert.Equal(t, 405, w.Code)

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/healthcheck", nil))
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, w.Header().Get("Vary"))
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/unsafe/foo.jpg", nil))
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, w.Header().Get("Vary"))
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/unsafe/bar.jpg?boom", nil))
	assert.Equal(t, 500, w.Code)
	assert.NotEmpty(t, w.Header().Get("Vary"))
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))
	assert.Equal(t, `{"message":"booooom","status":500}`, w.Body.String())
}

func TestServerErrorLog(t *testing.T) {
	expectLogged := []string{"panic", "server", "server"}
	var logged []string
	logger := zap.NewExample(zap.Hooks(func(entry zapcore.Entry) error {
		logged = append(logged, entry.Message)
		return nil
	}))
	s := New(
		web.New(
			web.WithUnsafe(true),
			web.WithLoaders(loaderFunc(func(r *http.Request, image string) (*web.Blob, error) {
				return web.NewBlobFromBytes([]byte("foo")), nil
			})),
		),
		WithAccessLog(true),
		WithDebug(true),
		WithLogger(logger),
		WithMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Foo", "Bar")
				if strings.Contains(r.URL.String(), "boom") {
					panic("booooom")
				}
				next.ServeHTTP(w, r)
			})
		}),
		WithCORS(true),
	)

	ts := httptest.NewServer(s.Handler)
	ts.Config = &s.Server
	defer ts.Close()

	w, err := http.Get(ts.URL + "/unsafe/bar.jpg?boom")
	assert.NoError(t, err)
	assert.Equal(t, 500, w.StatusCode)
	assert.NotEmpty(t, w.Header.Get("Vary"))
	assert.Equal(t, "Bar", w.Header.Get("X-Foo"))
	resp, err := io.ReadAll(w.Body)
	assert.NoError(t, err)
	assert.Equal(t, `{"message":"booooom","status":500}`, string(resp))

	_, err = ts.Config.ErrorLog.Writer().Write([]byte("http: TLS handshake error from 172.16.0.3:42672: EOF"))
	assert.NoError(t, err)
	_, err = ts.Config.ErrorLog.Writer().Write([]byte("foobar"))
	assert.NoError(t, err)

	assert.Equal(t, expectLogged, logged)
}

func TestWithStripQueryString(t *testing.T) {
	s := New(web.New(),
		WithAddr("https://example.com:1667"), WithPort(1234))
	assert.Equal(t, "https://example.com:1667", s.Addr)

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/?a=1&b=2", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s = New(web.New(),
		WithStripQueryString(true), WithAddress("https://foo.com"), WithPort(1234))
	assert.Equal(t, "https://foo.com:1234", s.Addr)

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/?a=1&b=2", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com/", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWithPathPrefix(t *testing.T) {
	s := New(web.New())

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s = New(web.New(), WithPathPrefix("/magick"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/magick", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), web.Version)
}

func TestWithSentry(t *testing.T) {
	s := New(web.New(), WithSentry("https://12345@sentry.com/123"))
	assert.Equal(t, "https://12345@sentry.com/123", s.SentryDsn)
}

func TestIsNil(t *testing.T) {
	t.Run("nil interface", func(t *testing.T) {
		var i interface{}
		assert.True(t, isNil(i))
	})

	t.Run("nil pointer", func(t *testing.T) {
		var p *testProcessor
		assert.True(t, isNil(p))
	})

	t.Run("nil slice", func(t *testing.T) {
		var s []string
		assert.False(t, isNil(s))
	})

	t.Run("nil map", func(t *testing.T) {
		var m map[string]string
		assert.False(t, isNil(m))
	})

	t.Run("nil channel", func(t *testing.T) {
		var c chan string
		assert.False(t, isNil(c))
	})

	t.Run("nil function", func(t *testing.T) {
		var f func()
		assert.False(t, isNil(f))
	})

	t.Run("non-nil values", func(t *testing.T) {
		assert.False(t, isNil("string"))
		assert.False(t, isNil(42))
		assert.False(t, isNil([]string{"test"}))
		assert.False(t, isNil(map[string]string{"key": "value"}))
		assert.False(t, isNil(&testProcessor{}))
	})

	t.Run("nil interface with non-nil pointer", func(t *testing.T) {
		var i interface{} = (*testProcessor)(nil)
		assert.True(t, isNil(i))
	})

	t.Run("non-nil interface with nil value", func(t *testing.T) {
		var p *testProcessor
		var i interface{} = p
		assert.True(t, isNil(i))
	})
}

func TestServerStartup(t *testing.T) {
	t.Run("successful startup", func(t *testing.T) {
		processor := &testProcessor{}
		app := web.New(web.WithProcessors(processor))
		s := New(app, WithStartupTimeout(time.Second))

		ctx := context.Background()
		s.startup(ctx)

		assert.Equal(t, 1, processor.StartupCnt)
	})
}

func TestServerShutdown(t *testing.T) {
	t.Run("successful shutdown", func(t *testing.T) {
		processor := &testProcessor{}
		app := web.New(web.WithProcessors(processor))
		s := New(app, WithShutdownTimeout(time.Second))

		ctx := context.Background()
		s.shutdown(ctx)

		assert.Equal(t, 1, processor.ShutdownCnt)
	})

	t.Run("shutdown with metrics", func(t *testing.T) {
		processor := &testProcessor{}
		app := web.New(web.WithProcessors(processor))

		mockMetrics := &testMetrics{}
		s := New(app, WithMetrics(mockMetrics), WithShutdownTimeout(time.Second))

		ctx := context.Background()
		s.shutdown(ctx)

		assert.Equal(t, 1, processor.ShutdownCnt)
		assert.Equal(t, 1, mockMetrics.ShutdownCnt)
	})
}

func TestServerListenAndServe(t *testing.T) {
	t.Run("HTTP server", func(t *testing.T) {
		processor := &testProcessor{}
		app := web.New(web.WithProcessors(processor))
		s := New(app, WithAddr(":0"))

		assert.Empty(t, s.CertFile)
		assert.Empty(t, s.KeyFile)
	})

	t.Run("HTTPS server", func(t *testing.T) {
		processor := &testProcessor{}
		app := web.New(web.WithProcessors(processor))
		s := New(app, WithAddr(":0"))
		s.CertFile = "cert.pem"
		s.KeyFile = "key.pem"

		assert.NotEmpty(t, s.CertFile)
		assert.NotEmpty(t, s.KeyFile)
	})
}

func TestServerOptions(t *testing.T) {
	app := web.New(web.WithProcessors(&testProcessor{}))
	logger := zap.NewExample()

	s := New(app,
		WithAddress("localhost"), WithPort(9090),
		WithLogger(logger), WithDebug(true),
		WithStartupTimeout(5*time.Second), WithShutdownTimeout(15*time.Second))
	assert.Equal(t, "localhost", s.Address)
	assert.Equal(t, 9090, s.Port)
	assert.Equal(t, "localhost:9090", s.Addr)
	assert.Equal(t, logger, s.Logger)
	assert.True(t, s.Debug)
	assert.Equal(t, 5*time.Second, s.StartupTimeout)
	assert.Equal(t, 15*time.Second, s.ShutdownTimeout)

	s = New(app, WithAddr("localhost:8080"), WithLogger(nil),
		WithStartupTimeout(0), WithShutdownTimeout(0), WithMiddleware(nil))
	assert.Equal(t, "localhost:8080", s.Addr)
	assert.NotNil(t, s.Logger)
	assert.NotNil(t, s.Handler)
	assert.Equal(t, time.Second*10, s.StartupTimeout)
	assert.Equal(t, time.Second*10, s.ShutdownTimeout)

	s = New(app, WithMiddleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Magick-Test", "1")
			next.ServeHTTP(w, r)
		})
	}))
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "1", w.Header().Get("X-Magick-Test"))
}

func TestServerErrorLogWriter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	writer := &serverErrorLogWriter{Logger: zap.New(core)}
	for msg, level := range map[string]zapcore.Level{
		"http: TLS handshake error from 172.16.0.3:42672: EOF\n":   zapcore.DebugLevel,
		"http: URL query contains semicolon, which is deprecated\n": zapcore.DebugLevel,
		"http: superfluous response.WriteHeader call\n":            zapcore.WarnLevel,
	} {
		n, err := writer.Write([]byte(msg))
		require.NoError(t, err)
		assert.Equal(t, len(msg), n)
		entries := logs.TakeAll()
		if assert.Len(t, entries, 1, msg) {
			assert.Equal(t, "server", entries[0].Message)
			assert.Equal(t, level, entries[0].Level, msg)
		}
	}
}

func TestServerWithMetrics(t *testing.T) {
	processor := &testProcessor{}
	app := web.New(web.WithProcessors(processor))
	mockMetrics := &testMetrics{}

	t.Run("server with metrics", func(t *testing.T) {
		s := New(app, WithMetrics(mockMetrics))
		assert.Equal(t, mockMetrics, s.Metrics)
		assert.False(t, isNil(s.Metrics))
	})

	t.Run("server without metrics", func(t *testing.T) {
		s := New(app, WithMetrics(nil))
		assert.True(t, isNil(s.Metrics))
	})

	t.Run("metrics middleware integration", func(t *testing.T) {
		s := New(app, WithMetrics(mockMetrics))

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/test", nil)
		s.Handler.ServeHTTP(w, r)

		assert.Equal(t, 1, mockMetrics.HandleCnt)
	})
}

type testMetrics struct {
	StartupCnt  int
	ShutdownCnt int
	HandleCnt   int
}

func (m *testMetrics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HandleCnt++
		next.ServeHTTP(w, r)
	})
}

func (m *testMetrics) Startup(ctx context.Context) error {
	m.StartupCnt++
	return nil
}

func (m *testMetrics) Shutdown(ctx context.Context) error {
	m.ShutdownCnt++
	return nil
}

func TestNoopRequest(t *testing.T) {
	assert.True(t, isNoopRequest(httptest.NewRequest(http.MethodGet, "/healthcheck", nil)))
	assert.True(t, isNoopRequest(httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)))
	assert.False(t, isNoopRequest(httptest.NewRequest(http.MethodGet, "/unsafe/resize(10x10)/a.png", nil)))
	assert.False(t, isNoopRequest(httptest.NewRequest(http.MethodPost, "/healthcheck", nil)))

	w := httptest.NewRecorder()
	handleOk(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPanicHandler(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := New(web.New(web.WithProcessors(&testProcessor{})), WithLogger(zap.New(core)))

	for name, v := range map[string]any{
		"error":  fmt.Errorf("wand exhausted"),
		"string": "frame out of range",
	} {
		t.Run(name, func(t *testing.T) {
			handler := s.panicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(v)
			}))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, w.Body.String(), fmt.Sprint(v))
			entries := logs.TakeAll()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, "panic", entries[0].Message)
			}
		})
	}

	handler := s.panicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Empty(t, logs.All())
}

func TestHealth(t *testing.T) {
	s := New(web.New())
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"goroutines":`)
	assert.GreaterOrEqual(t, GetUptime(), int64(0))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(
		web.New(
			web.WithUnsafe(true),
			web.WithLoaders(loaderFunc(func(r *http.Request, image string) (*web.Blob, error) {
				if image == "missing.jpg" {
					return nil, web.ErrNotFound
				}
				return web.NewBlobFromBytes([]byte("foo")), nil
			})),
		),
		WithLogger(zap.New(core)),
		WithAccessLog(true),
	)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com/unsafe/foo.jpg", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1, 8.8.8.8")
	s.Handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/unsafe/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	entries := logs.FilterMessage("access").All()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, int64(200), ctx["status"])
		assert.Equal(t, "/unsafe/foo.jpg", ctx["uri"])
		assert.Equal(t, "8.8.8.8", ctx["ip"])
		assert.Equal(t, int64(404), entries[1].ContextMap()["status"])
	}
}
