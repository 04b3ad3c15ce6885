package httploader

import (
	"crypto/tls"
	"net/http"
	"strings"
)

// Option HTTPLoader option
type Option func(h *HTTPLoader)

// WithTransport with custom transport
func WithTransport(transport http.RoundTripper) Option {
	return func(h *HTTPLoader) {
		if transport != nil {
			h.Transport = transport
		}
	}
}

// WithInsecureSkipVerifyTransport with transport skipping TLS verification
func WithInsecureSkipVerifyTransport(enable bool) Option {
	return func(h *HTTPLoader) {
		if enable {
			transport := cloneTransport(h.Transport)
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			h.Transport = transport
		}
	}
}

// WithProxyTransport with proxy urls randomly picked for the allowed hosts,
// both arguments are comma separated
func WithProxyTransport(proxyURLs, hosts string) Option {
	return func(h *HTTPLoader) {
		if proxyURLs != "" {
			transport := cloneTransport(h.Transport)
			transport.Proxy = randomProxyFunc(proxyURLs, hosts)
			h.Transport = transport
		}
	}
}

func cloneTransport(rt http.RoundTripper) *http.Transport {
	if t, ok := rt.(*http.Transport); ok {
		return t.Clone()
	}
	return http.DefaultTransport.(*http.Transport).Clone()
}

// WithForwardHeaders with request headers forwarded to the source
func WithForwardHeaders(headers ...string) Option {
	return func(h *HTTPLoader) {
		for _, raw := range headers {
			for _, header := range strings.Split(raw, ",") {
				if header = strings.TrimSpace(header); header != "" {
					h.ForwardHeaders = append(h.ForwardHeaders, header)
				}
			}
		}
	}
}

// WithForwardUserAgent with forwarding the client user agent
func WithForwardUserAgent(enabled bool) Option {
	return func(h *HTTPLoader) {
		if enabled {
			h.ForwardHeaders = append(h.ForwardHeaders, "User-Agent")
		}
	}
}

// WithForwardAllHeaders with forwarding every client header
func WithForwardAllHeaders(enabled bool) Option {
	return func(h *HTTPLoader) {
		if enabled {
			h.ForwardHeaders = append(h.ForwardHeaders, "*")
		}
	}
}

// WithOverrideHeader with header set on every source request
func WithOverrideHeader(name, value string) Option {
	return func(h *HTTPLoader) {
		h.OverrideHeaders[name] = value
	}
}

// WithAllowedSources with allowed source hosts, comma separated or glob
func WithAllowedSources(hosts ...string) Option {
	return func(h *HTTPLoader) {
		for _, raw := range hosts {
			for _, host := range strings.Split(raw, ",") {
				if host = strings.TrimSpace(host); host != "" {
					h.AllowedSources = append(h.AllowedSources, host)
				}
			}
		}
	}
}

// WithAccept with accepted content types, comma separated or glob
func WithAccept(contentTypes string) Option {
	return func(h *HTTPLoader) {
		for _, t := range strings.Split(contentTypes, ",") {
			if t = parseContentType(t); t != "" {
				h.Accepts = append(h.Accepts, t)
			}
		}
	}
}

// WithMaxAllowedSize with maximum bytes of a source image
func WithMaxAllowedSize(maxAllowedSize int) Option {
	return func(h *HTTPLoader) {
		if maxAllowedSize > 0 {
			h.MaxAllowedSize = maxAllowedSize
		}
	}
}

// WithDefaultScheme with scheme of images without one, "nil" disables
func WithDefaultScheme(scheme string) Option {
	return func(h *HTTPLoader) {
		if scheme != "" {
			h.DefaultScheme = scheme
		}
	}
}

// WithUserAgent with user agent of source requests
func WithUserAgent(userAgent string) Option {
	return func(h *HTTPLoader) {
		if userAgent != "" {
			h.UserAgent = userAgent
		}
	}
}
