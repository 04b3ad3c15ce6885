package awsconfig

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cshum/magick/storage/s3storage"
)

type bucketRouterConfig struct {
	DefaultBucket string `yaml:"default_bucket"`
	Rules         []struct {
		Prefix string `yaml:"prefix"`
		Bucket string `yaml:"bucket"`
	} `yaml:"rules"`
}

// LoadBucketRouterFromYAML loads prefix bucket routing rules from a YAML file
func LoadBucketRouterFromYAML(path string) (*s3storage.PrefixRouter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseBucketRouter(data)
}

func parseBucketRouter(data []byte) (*s3storage.PrefixRouter, error) {
	var cfg bucketRouterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	rules := make([]s3storage.PrefixRule, 0, len(cfg.Rules))
	for i, r := range cfg.Rules {
		if r.Bucket == "" {
			return nil, fmt.Errorf("awsconfig: rule %d of prefix %q missing bucket", i, r.Prefix)
		}
		rules = append(rules, s3storage.PrefixRule{
			Prefix: strings.TrimLeft(r.Prefix, "/"),
			Bucket: r.Bucket,
		})
	}
	return s3storage.NewPrefixRouter(rules, cfg.DefaultBucket), nil
}
