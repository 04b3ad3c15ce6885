package httploader

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cshum/magick/web"
)

// HTTPLoader loads source images over HTTP(S)
type HTTPLoader struct {
	// Transport used to request images, http.DefaultTransport when nil
	Transport http.RoundTripper

	// ForwardHeaders request headers forwarded to the source, "*" forwards all
	ForwardHeaders []string

	// OverrideHeaders headers set on every source request
	OverrideHeaders map[string]string

	// AllowedSources host names allowed to load from,
	// supports glob patterns such as *.google.com
	AllowedSources []string

	// Accepts content types accepted, supports glob patterns such as image/*
	Accepts []string

	// MaxAllowedSize maximum bytes of a source image
	MaxAllowedSize int

	// DefaultScheme scheme of images without scheme, "nil" disables
	DefaultScheme string

	// UserAgent default user agent of source requests
	UserAgent string
}

// New creates HTTPLoader
func New(options ...Option) *HTTPLoader {
	h := &HTTPLoader{
		OverrideHeaders: map[string]string{},
		DefaultScheme:   "https",
		UserAgent:       "magick/" + web.Version,
	}
	for _, option := range options {
		option(h)
	}
	if h.Transport == nil {
		h.Transport = http.DefaultTransport
	}
	return h
}

// Get implements web.Loader interface
func (h *HTTPLoader) Get(r *http.Request, image string) (*web.Blob, error) {
	if image == "" {
		return nil, web.ErrPass
	}
	u, err := url.Parse(image)
	if err != nil {
		return nil, web.ErrPass
	}
	if u.Host == "" || u.Scheme == "" {
		if h.DefaultScheme == "" || h.DefaultScheme == "nil" {
			return nil, web.ErrPass
		}
		image = h.DefaultScheme + "://" + image
		if u, err = url.Parse(image); err != nil {
			return nil, web.ErrPass
		}
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, web.ErrPass
	}
	if !isURLAllowed(u, h.AllowedSources) {
		return nil, web.ErrPass
	}
	client := &http.Client{Transport: h.Transport}
	req, err := h.newRequest(r, http.MethodGet, u.String())
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, web.NewErrorFromStatusCode(resp.StatusCode)
	}
	if !validateContentType(resp.Header.Get("Content-Type"), h.Accepts) {
		return nil, web.ErrUnsupportedFormat
	}
	if h.MaxAllowedSize > 0 {
		if size, _ := strconv.Atoi(resp.Header.Get("Content-Length")); size > h.MaxAllowedSize {
			return nil, web.ErrMaxSizeExceeded
		}
	}
	var body io.Reader = resp.Body
	if h.MaxAllowedSize > 0 {
		body = io.LimitReader(resp.Body, int64(h.MaxAllowedSize)+1)
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if h.MaxAllowedSize > 0 && len(buf) > h.MaxAllowedSize {
		return nil, web.ErrMaxSizeExceeded
	}
	blob := web.NewBlobFromBytes(buf)
	if modTime, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		blob.Stat = &web.Stat{
			ModifiedTime: modTime,
			Size:         int64(len(buf)),
			ETag:         resp.Header.Get("ETag"),
		}
	}
	return blob, nil
}

func (h *HTTPLoader) newRequest(r *http.Request, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(r.Context(), method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.UserAgent)
	for _, header := range h.ForwardHeaders {
		if header == "*" {
			req.Header = r.Header.Clone()
			req.Header.Del("Accept-Encoding")
			break
		}
		if _, ok := r.Header[http.CanonicalHeaderKey(header)]; ok {
			req.Header.Set(header, r.Header.Get(header))
		}
	}
	for key, value := range h.OverrideHeaders {
		req.Header.Set(key, value)
	}
	return req, nil
}
