package magickpath

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"strings"
)

// Signer magick URL signature signer
type Signer interface {
	Sign(path string) string
}

// NewDefaultSigner default signer using SHA1 with secret
func NewDefaultSigner(secret string) Signer {
	return NewHMACSigner(sha1.New, 0, secret)
}

// NewSigner signer by algorithm name sha1, sha256 or sha512.
// Unknown names fall back to sha1.
func NewSigner(alg string, truncate int, secret string) Signer {
	switch strings.ToLower(alg) {
	case "sha256":
		return NewHMACSigner(sha256.New, truncate, secret)
	case "sha512":
		return NewHMACSigner(sha512.New, truncate, secret)
	}
	return NewHMACSigner(sha1.New, truncate, secret)
}

// NewHMACSigner custom HMAC alg signer with secret and string length based truncate
func NewHMACSigner(alg func() hash.Hash, truncate int, secret string) Signer {
	return &hmacSigner{
		alg:      alg,
		truncate: truncate,
		secret:   []byte(secret),
	}
}

type hmacSigner struct {
	alg      func() hash.Hash
	truncate int
	secret   []byte
}

func (s *hmacSigner) Sign(path string) string {
	h := hmac.New(s.alg, s.secret)
	h.Write([]byte(path))
	sig := base64.URLEncoding.EncodeToString(h.Sum(nil))
	if s.truncate > 0 && len(sig) > s.truncate {
		return sig[:s.truncate]
	}
	return sig
}
