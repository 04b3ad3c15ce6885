package magickpath

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

var pathRegex = regexp.MustCompile(
	"/*" +
		// params
		"(params/)?" +
		// hash
		"((unsafe/)|([A-Za-z0-9-_=]{8,})/)?" +
		// path
		"(.+)?",
)

var breaksCleaner = strings.NewReplacer("\r\n", "", "\r", "", "\n", "", "\v", "", "\f", "", "\u0085", "", "\u2028", "", "\u2029", "")

const opsPrefix = "ops:"

// Parse Params struct from magick endpoint URI
func Parse(path string) Params {
	var p Params
	return Apply(p, path)
}

// Apply Params struct from magick endpoint URI on top of existing Params
func Apply(p Params, path string) Params {
	match := pathRegex.FindStringSubmatch(breaksCleaner.Replace(path))
	if len(match) < 6 {
		return p
	}
	if match[1] != "" {
		p.Params = true
	}
	if match[3] == "unsafe/" {
		p.Unsafe = true
	} else if len(match[4]) > 8 {
		p.Hash = match[4]
	}
	p.Path = match[5]

	rest := p.Path
	if strings.HasPrefix(rest, "meta/") {
		p.Meta = true
		rest = strings.TrimLeft(rest[5:], "/")
	}
	ops, img := parseOps(rest)
	p.Ops = append(p.Ops, ops...)
	if img == "" {
		return p
	}
	if strings.HasPrefix(img, "b64:") {
		// base64url of RFC 4648 section 5
		if buf, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(img[4:], "=")); err == nil {
			img = string(buf)
			p.Base64Image = true
		}
	}
	p.Image = img
	if u, err := url.QueryUnescape(img); err == nil {
		p.Image = u
	}
	return p
}

// parseOps splits "ops:a(x):b(y)/image" into ops and the remaining image path.
// Parentheses may nest, ':' and '/' inside them belong to the args.
func parseOps(str string) (ops []Op, path string) {
	if !strings.HasPrefix(str, opsPrefix) {
		return nil, str
	}
	str = str[len(opsPrefix):]
	var s strings.Builder
	var depth int
	var name, args string
	flush := func() {
		if name == "" {
			name = s.String()
		}
		if name != "" {
			ops = append(ops, Op{Name: name, Args: args})
		}
		name, args = "", ""
		s.Reset()
	}
	for idx, ch := range str {
		switch {
		case ch == '(':
			if depth == 0 {
				name = s.String()
				s.Reset()
			} else {
				s.WriteRune(ch)
			}
			depth++
		case ch == ')' && depth > 0:
			depth--
			if depth == 0 {
				args = s.String()
				s.Reset()
			} else {
				s.WriteRune(ch)
			}
		case ch == '/' && depth == 0:
			flush()
			return ops, str[idx+1:]
		case ch == ':' && depth == 0:
			flush()
		default:
			s.WriteRune(ch)
		}
	}
	flush()
	return ops, ""
}
