package awsconfig

import (
	"context"
	"flag"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.uber.org/zap"

	"github.com/cshum/magick/storage/s3storage"
	"github.com/cshum/magick/web"
)

type credsFlags struct {
	region, accessKeyID, secretAccessKey, endpoint *string
}

func defineCreds(fs *flag.FlagSet, role, desc string) credsFlags {
	return credsFlags{
		region: fs.String("aws-"+role+"region", "",
			"AWS Region"+desc),
		accessKeyID: fs.String("aws-"+role+"access-key-id", "",
			"AWS Access Key ID"+desc),
		secretAccessKey: fs.String("aws-"+role+"secret-access-key", "",
			"AWS Secret Access Key"+desc),
		endpoint: fs.String("s3-"+role+"endpoint", "",
			"Optional S3 Endpoint"+desc),
	}
}

// merge role specific values over the shared ones
func (c credsFlags) merge(base credsFlags) (region, keyID, secret, endpoint string) {
	pick := func(v, fallback *string) string {
		if *v != "" {
			return *v
		}
		return *fallback
	}
	return pick(c.region, base.region),
		pick(c.accessKeyID, base.accessKeyID),
		pick(c.secretAccessKey, base.secretAccessKey),
		pick(c.endpoint, base.endpoint)
}

func newConfig(region, keyID, secret string) aws.Config {
	if keyID != "" && secret != "" {
		return aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(keyID, secret, ""),
		}
	}
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(region))
	if err != nil {
		panic(err)
	}
	return cfg
}

// WithAWS with AWS S3 loader, storage and result storage config option
func WithAWS(fs *flag.FlagSet, cb func() (*zap.Logger, bool)) web.Option {
	var (
		shared = defineCreds(fs, "",
			". Required if using S3 Loader or Storage")
		loaderCreds = defineCreds(fs, "loader-",
			" of S3 Loader, overrides the shared value")
		storageCreds = defineCreds(fs, "storage-",
			" of S3 Storage, overrides the shared value")
		resultStorageCreds = defineCreds(fs, "result-storage-",
			" of S3 Result Storage, overrides the shared value")

		s3ForcePathStyle = fs.Bool("s3-force-path-style", false,
			"S3 force the request to use path-style addressing s3.amazonaws.com/bucket/key, instead of bucket.s3.amazonaws.com/key")
		s3SafeChars = fs.String("s3-safe-chars", "",
			"S3 safe characters to be excluded from image key escape")
		s3BucketRouter = fs.String("s3-bucket-router", "",
			"S3 Loader and Storage bucket routing by key prefix csv e.g. users/=avatars,media/=media")
		s3BucketRouterConfig = fs.String("s3-bucket-router-config", "",
			"S3 Loader and Storage bucket routing YAML file, overrides -s3-bucket-router")

		s3LoaderBucket = fs.String("s3-loader-bucket", "",
			"S3 Bucket for S3 Loader. Enable S3 Loader only if this value present")
		s3LoaderBaseDir = fs.String("s3-loader-base-dir", "",
			"Base directory for S3 Loader")
		s3LoaderPathPrefix = fs.String("s3-loader-path-prefix", "",
			"Base path prefix for S3 Loader")

		s3StorageBucket = fs.String("s3-storage-bucket", "",
			"S3 Bucket for S3 Storage. Enable S3 Storage only if this value present")
		s3StorageBaseDir = fs.String("s3-storage-base-dir", "",
			"Base directory for S3 Storage")
		s3StoragePathPrefix = fs.String("s3-storage-path-prefix", "",
			"Base path prefix for S3 Storage")
		s3StorageACL = fs.String("s3-storage-acl", "public-read",
			"Upload ACL for S3 Storage")
		s3StorageClass = fs.String("s3-storage-class", "STANDARD",
			"S3 Storage Class e.g. STANDARD, STANDARD_IA, INTELLIGENT_TIERING")
		s3StorageExpiration = fs.Duration("s3-storage-expiration", 0,
			"S3 Storage expiration duration e.g. 24h. Default no expiration")

		s3ResultStorageBucket = fs.String("s3-result-storage-bucket", "",
			"S3 Bucket for S3 Result Storage. Enable S3 Result Storage only if this value present")
		s3ResultStorageBaseDir = fs.String("s3-result-storage-base-dir", "",
			"Base directory for S3 Result Storage")
		s3ResultStoragePathPrefix = fs.String("s3-result-storage-path-prefix", "",
			"Base path prefix for S3 Result Storage")
		s3ResultStorageACL = fs.String("s3-result-storage-acl", "public-read",
			"Upload ACL for S3 Result Storage")
		s3ResultStorageClass = fs.String("s3-result-storage-class", "STANDARD",
			"S3 Result Storage Class")
		s3ResultStorageExpiration = fs.Duration("s3-result-storage-expiration", 0,
			"S3 Result Storage expiration duration e.g. 24h. Default no expiration")

		logger, _ = cb()
	)
	return func(app *web.Web) {
		var router s3storage.BucketRouter
		if *s3BucketRouterConfig != "" {
			r, err := LoadBucketRouterFromYAML(*s3BucketRouterConfig)
			if err != nil {
				panic(err)
			}
			router = r
		} else if rules := s3storage.ParsePrefixRules(*s3BucketRouter); len(rules) > 0 {
			router = s3storage.NewPrefixRouter(rules, "")
		}
		create := func(creds credsFlags, bucket string, options ...s3storage.Option) *s3storage.S3Storage {
			region, keyID, secret, endpoint := creds.merge(shared)
			logger.Debug("s3", zap.String("bucket", bucket), zap.String("region", region))
			return s3storage.New(newConfig(region, keyID, secret), bucket, append([]s3storage.Option{
				s3storage.WithEndpoint(endpoint),
				s3storage.WithForcePathStyle(*s3ForcePathStyle),
				s3storage.WithSafeChars(*s3SafeChars),
			}, options...)...)
		}
		if *s3StorageBucket != "" {
			app.Storages = append(app.Storages,
				create(storageCreds, *s3StorageBucket,
					s3storage.WithPathPrefix(*s3StoragePathPrefix),
					s3storage.WithBaseDir(*s3StorageBaseDir),
					s3storage.WithACL(*s3StorageACL),
					s3storage.WithStorageClass(*s3StorageClass),
					s3storage.WithExpiration(*s3StorageExpiration),
					s3storage.WithBucketRouter(router),
				),
			)
		}
		// storages already load, a loader on the same location would be redundant
		if *s3LoaderBucket != "" && (*s3LoaderPathPrefix != *s3StoragePathPrefix ||
			*s3LoaderBucket != *s3StorageBucket ||
			*s3LoaderBaseDir != *s3StorageBaseDir) {
			app.Loaders = append(app.Loaders,
				create(loaderCreds, *s3LoaderBucket,
					s3storage.WithPathPrefix(*s3LoaderPathPrefix),
					s3storage.WithBaseDir(*s3LoaderBaseDir),
					s3storage.WithBucketRouter(router),
				),
			)
		}
		if *s3ResultStorageBucket != "" {
			app.ResultStorages = append(app.ResultStorages,
				create(resultStorageCreds, *s3ResultStorageBucket,
					s3storage.WithPathPrefix(*s3ResultStoragePathPrefix),
					s3storage.WithBaseDir(*s3ResultStorageBaseDir),
					s3storage.WithACL(*s3ResultStorageACL),
					s3storage.WithStorageClass(*s3ResultStorageClass),
					s3storage.WithExpiration(*s3ResultStorageExpiration),
				),
			)
		}
	}
}
