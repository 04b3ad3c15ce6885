package s3storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixRouter(t *testing.T) {
	router := NewPrefixRouter([]PrefixRule{
		{Prefix: "media/", Bucket: "media"},
		{Prefix: "media/thumbs/", Bucket: "thumbs"},
		{Prefix: "user", Bucket: "users"},
	}, "fallback")
	for key, bucket := range map[string]string{
		"media/a.jpg":          "media",
		"media/thumbs/a.jpg":   "thumbs",
		"/media/thumbs/a.jpg":  "thumbs",
		"///media/a.jpg":       "media",
		"users/1/avatar.png":   "users",
		"user":                 "users",
		"other/a.jpg":          "fallback",
		"":                     "fallback",
		"thumbs/media/a.jpg":   "fallback",
		"mediathumbs/a.jpg":    "fallback",
		"media/thumbs":         "media",
		"media/thumbs/x/y.jpg": "thumbs",
	} {
		assert.Equal(t, bucket, router.BucketFor(key), key)
	}
	assert.Equal(t, "fallback", router.Fallback())
}

func TestNewPrefixRouterKeepsInput(t *testing.T) {
	rules := []PrefixRule{
		{Prefix: "b/", Bucket: "bucket-b"},
		{Prefix: "bbb/", Bucket: "bucket-bbb"},
	}
	router := NewPrefixRouter(rules, "")
	assert.Equal(t, "bucket-b", rules[0].Bucket)
	assert.Equal(t, "bucket-bbb", router.BucketFor("bbb/a.png"))
	assert.Equal(t, "", router.BucketFor("c/a.png"))
}

func TestParsePrefixRules(t *testing.T) {
	assert.Equal(t, []PrefixRule{
		{Prefix: "users/", Bucket: "avatars"},
		{Prefix: "media/", Bucket: "media"},
	}, ParsePrefixRules(" /users/=avatars, media/ = media ,invalid,empty="))
	assert.Empty(t, ParsePrefixRules(""))
}

func TestS3Storage_BucketFor(t *testing.T) {
	s := &S3Storage{Bucket: "default"}
	assert.Equal(t, "default", s.BucketFor("users/1.png"))

	s.BucketRouter = NewPrefixRouter(ParsePrefixRules("users/=avatars"), "")
	assert.Equal(t, "avatars", s.BucketFor("users/1.png"))
	assert.Equal(t, "default", s.BucketFor("other/1.png"))
}
