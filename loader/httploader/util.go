package httploader

import (
	"math/rand/v2"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
)

func splitTrim(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// randomProxyFunc proxies requests of allowed hosts through one of the proxy urls
func randomProxyFunc(proxyURLs, hosts string) func(*http.Request) (*url.URL, error) {
	var urls []*url.URL
	for _, s := range splitTrim(proxyURLs) {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			urls = append(urls, u)
		}
	}
	allowedHosts := splitTrim(hosts)
	return func(r *http.Request) (*url.URL, error) {
		if len(urls) == 0 || !isURLAllowed(r.URL, allowedHosts) {
			return nil, nil
		}
		return urls[rand.IntN(len(urls))], nil
	}
}

func isURLAllowed(u *url.URL, allowedSources []string) bool {
	if len(allowedSources) == 0 {
		return true
	}
	return slices.ContainsFunc(allowedSources, func(source string) bool {
		matched, err := path.Match(source, u.Hostname())
		return matched && err == nil
	})
}

func parseContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func validateContentType(contentType string, accepts []string) bool {
	if len(accepts) == 0 {
		return true
	}
	contentType = parseContentType(contentType)
	return slices.ContainsFunc(accepts, func(accept string) bool {
		ok, err := path.Match(accept, contentType)
		return ok && err == nil
	})
}
