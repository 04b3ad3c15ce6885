package httploader

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cshum/magick/web"
)

type testTransport map[string]string

func (t testTransport) RoundTrip(r *http.Request) (w *http.Response, err error) {
	if res, ok := t[r.URL.String()]; ok {
		w = &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"image/jpeg"}},
			Body:       io.NopCloser(strings.NewReader(res)),
		}
		return
	}
	w = &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("not found")),
	}
	return
}

type test struct {
	name   string
	target string
	result string
	err    string
}

func doTests(t *testing.T, loader web.Loader, tests []test) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "https://example.com/magick", nil)
			b, err := loader.Get(r, tt.target)
			if tt.err == "" {
				require.NoError(t, err)
				buf, err := b.ReadAll()
				require.NoError(t, err)
				assert.Equal(t, tt.result, string(buf))
			} else {
				assert.EqualError(t, err, tt.err)
			}
		})
	}
}

func TestWithAllowedSources(t *testing.T) {
	doTests(t, New(
		WithTransport(testTransport{
			"https://foo.bar/baz":   "baz",
			"https://foo.boo/boooo": "boom",
			"https://def.def/boo":   "boo",
			"https://foo.abc/bar":   "foobar",
		}),
		WithAllowedSources("foo.bar", "*.abc", "def.def,ghi.ghi"),
	), []test{
		{
			name:   "allowed source",
			target: "https://foo.bar/baz",
			result: "baz",
		},
		{
			name:   "allowed not found",
			target: "https://foo.bar/boooo",
			err:    "magick: 404 Not Found",
		},
		{
			name:   "not allowed source",
			target: "https://foo.boo/boooo",
			err:    "magick: pass",
		},
		{
			name:   "not allowed source suffix",
			target: "https://foo.barr/baz",
			err:    "magick: pass",
		},
		{
			name:   "not allowed source prefix",
			target: "https://boo.bar/baz",
			err:    "magick: pass",
		},
		{
			name:   "csv allowed source",
			target: "https://def.def/boo",
			result: "boo",
		},
		{
			name:   "glob allowed source",
			target: "https://foo.abc/bar",
			result: "foobar",
		},
	})
}

func TestWithDefaultScheme(t *testing.T) {
	trans := testTransport{
		"https://foo.bar/baz": "baz",
		"http://foo.boo/boo":  "boom",
	}
	doTests(t, New(
		WithTransport(trans),
	), []test{
		{
			name:   "default scheme found",
			target: "foo.bar/baz",
			result: "baz",
		},
		{
			name:   "default scheme not found http",
			target: "foo.boo/boo",
			err:    "magick: 404 Not Found",
		},
		{
			name:   "unsupported scheme",
			target: "ftp://foo.bar/baz",
			err:    "magick: pass",
		},
		{
			name:   "empty",
			target: "",
			err:    "magick: pass",
		},
	})
	doTests(t, New(
		WithTransport(trans),
		WithDefaultScheme("http"),
	), []test{
		{
			name:   "default scheme set http not found",
			target: "foo.bar/baz",
			err:    "magick: 404 Not Found",
		},
		{
			name:   "default scheme set http found",
			target: "foo.boo/boo",
			result: "boom",
		},
	})
	doTests(t, New(
		WithTransport(trans),
		WithDefaultScheme("nil"),
	), []test{
		{
			name:   "default scheme set nil not found",
			target: "foo.bar/baz",
			err:    "magick: pass",
		},
		{
			name:   "default scheme set nil found",
			target: "https://foo.bar/baz",
			result: "baz",
		},
	})
}

func TestWithAccept(t *testing.T) {
	trans := testTransport{"https://foo.bar/baz": "baz"}
	doTests(t, New(WithTransport(trans), WithAccept("image/*")), []test{
		{name: "accepted", target: "https://foo.bar/baz", result: "baz"},
	})
	doTests(t, New(WithTransport(trans), WithAccept("image/png, image/gif")), []test{
		{name: "not accepted", target: "https://foo.bar/baz", err: "magick: 406 unsupported format"},
	})
}

func TestWithMaxAllowedSize(t *testing.T) {
	trans := testTransport{
		"https://foo.bar/small": "1234",
		"https://foo.bar/large": "1234567890",
	}
	doTests(t, New(WithTransport(trans), WithMaxAllowedSize(5)), []test{
		{name: "within size", target: "https://foo.bar/small", result: "1234"},
		{name: "exceeded size", target: "https://foo.bar/large", err: "magick: 400 maximum size exceeded"},
	})
}

func TestHeaders(t *testing.T) {
	var header http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		w.Header().Set("ETag", `"abc"`)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	newReq := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "https://example.com/magick", nil)
		r.Header.Set("User-Agent", "client")
		r.Header.Set("X-Foo", "foo")
		r.Header.Set("X-Bar", "bar")
		return r
	}

	t.Run("default user agent", func(t *testing.T) {
		b, err := New().Get(newReq(), ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "magick/"+web.Version, header.Get("User-Agent"))
		assert.Empty(t, header.Get("X-Foo"))
		require.NotNil(t, b.Stat)
		assert.Equal(t, int64(2), b.Stat.Size)
		assert.Equal(t, `"abc"`, b.Stat.ETag)
		assert.Equal(t, 2015, b.Stat.ModifiedTime.Year())
	})
	t.Run("forward headers", func(t *testing.T) {
		_, err := New(
			WithForwardUserAgent(true),
			WithForwardHeaders("X-Foo"),
			WithOverrideHeader("X-Override", "override"),
		).Get(newReq(), ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "client", header.Get("User-Agent"))
		assert.Equal(t, "foo", header.Get("X-Foo"))
		assert.Empty(t, header.Get("X-Bar"))
		assert.Equal(t, "override", header.Get("X-Override"))
	})
	t.Run("forward all headers", func(t *testing.T) {
		_, err := New(WithForwardAllHeaders(true)).Get(newReq(), ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "foo", header.Get("X-Foo"))
		assert.Equal(t, "bar", header.Get("X-Bar"))
	})
	t.Run("custom user agent", func(t *testing.T) {
		_, err := New(WithUserAgent("bot/1.0")).Get(newReq(), ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "bot/1.0", header.Get("User-Agent"))
	})
}

func TestTransportOptions(t *testing.T) {
	h := New(WithInsecureSkipVerifyTransport(true))
	transport, ok := h.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)

	h = New(WithProxyTransport("http://proxy-a:8080, http://proxy-b:8080", "*.proxied.com"))
	transport, ok = h.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.Proxy)

	r := httptest.NewRequest(http.MethodGet, "https://img.proxied.com/a.jpg", nil)
	u, err := transport.Proxy(r)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Contains(t, []string{"proxy-a:8080", "proxy-b:8080"}, u.Host)

	r = httptest.NewRequest(http.MethodGet, "https://other.com/a.jpg", nil)
	u, err = transport.Proxy(r)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestParseContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", parseContentType("Image/JPEG; charset=utf-8"))
	assert.Equal(t, "image/png", parseContentType(" image/png "))
	assert.True(t, validateContentType("image/webp", []string{"image/*"}))
	assert.False(t, validateContentType("text/html", []string{"image/*"}))
	assert.True(t, validateContentType("text/html", nil))
}
