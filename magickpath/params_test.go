package magickpath

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGenerate(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		params Params
		secret string
	}{
		{
			name: "image only",
			uri:  "abc.jpg",
			params: Params{
				Path:  "abc.jpg",
				Image: "abc.jpg",
			},
		},
		{
			name: "unsafe ops",
			uri:  "unsafe/ops:resize(100x80):blur(2)/abc.jpg",
			params: Params{
				Path:   "ops:resize(100x80):blur(2)/abc.jpg",
				Image:  "abc.jpg",
				Unsafe: true,
				Ops:    Ops{{Name: "resize", Args: "100x80"}, {Name: "blur", Args: "2"}},
			},
		},
		{
			name: "signed ops",
			uri:  "HDBzlPfzbCWTe-bxLl96YJBaPU8=/ops:resize(100x80):blur(2)/abc.jpg",
			params: Params{
				Path:  "ops:resize(100x80):blur(2)/abc.jpg",
				Image: "abc.jpg",
				Hash:  "HDBzlPfzbCWTe-bxLl96YJBaPU8=",
				Ops:   Ops{{Name: "resize", Args: "100x80"}, {Name: "blur", Args: "2"}},
			},
			secret: "1234",
		},
		{
			name: "meta with url image",
			uri:  "unsafe/meta/ops:grayscale():format(png)/example.com/path/to/image.jpg",
			params: Params{
				Path:   "meta/ops:grayscale():format(png)/example.com/path/to/image.jpg",
				Image:  "example.com/path/to/image.jpg",
				Unsafe: true,
				Meta:   true,
				Ops:    Ops{{Name: "grayscale"}, {Name: "format", Args: "png"}},
			},
		},
		{
			name: "nested args",
			uri:  "unsafe/ops:composite(ops:resize(10x10)/logo.png,over):border(2x2)/a/b.png",
			params: Params{
				Path:   "ops:composite(ops:resize(10x10)/logo.png,over):border(2x2)/a/b.png",
				Image:  "a/b.png",
				Unsafe: true,
				Ops: Ops{
					{Name: "composite", Args: "ops:resize(10x10)/logo.png,over"},
					{Name: "border", Args: "2x2"},
				},
			},
		},
		{
			name: "query image",
			uri:  "unsafe/ops:flip()/https%3A%2F%2Fexample.com%2Fa.png%3Fx%3D1",
			params: Params{
				Path:   "ops:flip()/https%3A%2F%2Fexample.com%2Fa.png%3Fx%3D1",
				Image:  "https://example.com/a.png?x=1",
				Unsafe: true,
				Ops:    Ops{{Name: "flip"}},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := Parse(test.uri)
			respJSON, _ := json.Marshal(resp)
			expectedJSON, _ := json.Marshal(test.params)
			assert.JSONEq(t, string(expectedJSON), string(respJSON))
			signer := NewDefaultSigner(test.secret)
			if test.secret != "" {
				assert.Equal(t, signer.Sign(resp.Path), resp.Hash, "signature")
				assert.Equal(t, test.uri, Generate(test.params, signer))
			} else if test.params.Unsafe {
				assert.Equal(t, test.uri, GenerateUnsafe(test.params))
			} else {
				assert.Equal(t, test.uri, GeneratePath(test.params))
			}
		})
	}
}

func TestParseParamsEndpoint(t *testing.T) {
	p := Parse("/params/unsafe/ops:strip()/foo.png")
	assert.True(t, p.Params)
	assert.True(t, p.Unsafe)
	assert.Equal(t, "foo.png", p.Image)
	assert.Equal(t, Ops{{Name: "strip"}}, p.Ops)
}

func TestParseBase64Image(t *testing.T) {
	p := Parse("unsafe/ops:flop()/b64:aHR0cHM6Ly9leGFtcGxlLmNvbS9hLnBuZz94PTE")
	assert.True(t, p.Base64Image)
	assert.Equal(t, "https://example.com/a.png?x=1", p.Image)
}

func TestParseLineBreaks(t *testing.T) {
	p := Parse("unsafe/ops:resize(10x10)\r\n/foo.png")
	assert.Equal(t, "foo.png", p.Image)
	assert.Equal(t, Ops{{Name: "resize", Args: "10x10"}}, p.Ops)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Parse("unsafe/foo.png").Format())
	assert.Equal(t, "webp", Parse("unsafe/ops:format(png):format(webp)/foo.png").Format())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a/b+c/d%3Ae.png", Normalize("/a//b c/d:e.png/", nil))
	assert.Equal(t, "a/b c/d:e.png", Normalize("/a//b c/d:e.png/", func(c byte) bool {
		return DefaultEscapeByte(c) && c != ' ' && c != ':'
	}))
}

func TestHMACSigner(t *testing.T) {
	signer := NewHMACSigner(sha256.New, 28, "abcd")
	assert.Equal(t, "zb6uWXQxwJDOe_zOgxkuj96Etrsz", signer.Sign("assfasf"))
	assert.Equal(t, signer.Sign("assfasf"), NewSigner("SHA256", 28, "abcd").Sign("assfasf"))
	assert.Equal(t, NewDefaultSigner("1234").Sign("x"), NewSigner("unknown", 0, "1234").Sign("x"))
}
