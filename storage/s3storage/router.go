package s3storage

import (
	"cmp"
	"slices"
	"strings"
)

// BucketRouter picks the bucket of a storage path
type BucketRouter interface {
	BucketFor(key string) string
}

// PrefixRule routes keys starting with Prefix to Bucket
type PrefixRule struct {
	Prefix string
	Bucket string
}

// PrefixRouter longest prefix first BucketRouter
type PrefixRouter struct {
	rules    []PrefixRule
	fallback string
}

// NewPrefixRouter creates PrefixRouter, rules are not modified
func NewPrefixRouter(rules []PrefixRule, fallback string) *PrefixRouter {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b PrefixRule) int {
		return cmp.Compare(len(b.Prefix), len(a.Prefix))
	})
	return &PrefixRouter{rules: sorted, fallback: fallback}
}

// ParsePrefixRules parses comma separated prefix=bucket pairs
func ParsePrefixRules(s string) []PrefixRule {
	var rules []PrefixRule
	for _, pair := range strings.Split(s, ",") {
		prefix, bucket, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || bucket == "" {
			continue
		}
		rules = append(rules, PrefixRule{
			Prefix: strings.TrimLeft(strings.TrimSpace(prefix), "/"),
			Bucket: strings.TrimSpace(bucket),
		})
	}
	return rules
}

// BucketFor implements BucketRouter
func (r *PrefixRouter) BucketFor(key string) string {
	key = strings.TrimLeft(key, "/")
	for _, rule := range r.rules {
		if strings.HasPrefix(key, rule.Prefix) {
			return rule.Bucket
		}
	}
	return r.fallback
}

// Fallback bucket when no prefix matches
func (r *PrefixRouter) Fallback() string {
	return r.fallback
}
