package magickpath

import (
	"path"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// DefaultEscapeByte reports whether c is escaped by Normalize
func DefaultEscapeByte(c byte) bool {
	// alphanum
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '/': // path segment
		return false
	case '-', '_', '.', '~': // unreserved
		return false
	}
	return true
}

// escape is url.PathEscape with a custom escape func
func escape(s string, shouldEscape func(c byte) bool) string {
	hexCount := 0
	for i := 0; i < len(s); i++ {
		if c := s[i]; c != ' ' && shouldEscape(c) {
			hexCount++
		}
	}
	var b strings.Builder
	b.Grow(len(s) + 2*hexCount)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == ' ' && shouldEscape(c):
			b.WriteByte('+')
		case shouldEscape(c):
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Normalize image key to be file path friendly, escaping bytes
// with shouldEscape or DefaultEscapeByte when nil
func Normalize(image string, shouldEscape func(c byte) bool) string {
	image = path.Clean(image)
	image = strings.Trim(image, "/")
	if shouldEscape == nil {
		shouldEscape = DefaultEscapeByte
	}
	return escape(image, shouldEscape)
}
