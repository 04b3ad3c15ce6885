package magickpath

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigner(t *testing.T) {
	assert.Equal(t, "RrTsWGEXFU2s1J1mTl1j_ciO-1E=", NewDefaultSigner("foo").Sign("bar"))
	assert.Equal(t, "RrTsWGEXFU2s1J1mTl1j_ciO-1E=", NewSigner("unknown", 0, "foo").Sign("bar"))
	assert.Equal(t, "-TILrwJJFp5zhQzWFW3tAQbiu2rYyrAbe7vr5tEGUxc=", NewSigner("SHA256", 0, "foo").Sign("bar"))
	assert.Equal(t, "-TILrwJJFp5zhQzWFW3tAQbiu2rYyrAbe7vr5tEGUxc=", NewHMACSigner(sha256.New, 0, "foo").Sign("bar"))
	assert.Equal(t,
		"EUaCkUxdAX3-Wf3IBBGLVqOmUqC4hwdZz555LtdCawgZcHa_fQFkCxsGhN955LZ-N0hWaejOmNurYERfDblPzg==",
		NewSigner("sha512", 0, "foo").Sign("bar"))
	assert.Equal(t, "EUaCkUxdAX3-Wf3IBBGLVqOmUqC4hwdZ", NewSigner("sha512", 32, "foo").Sign("bar"))
	assert.Equal(t, "RrTsWGEXFU2s1J1mTl1j_ciO-1E=", NewSigner("sha1", 100, "foo").Sign("bar"))
	assert.NotEqual(t, NewDefaultSigner("foo").Sign("bar"), NewDefaultSigner("baz").Sign("bar"))
}
