package gcloudconfig

import (
	"context"
	"flag"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/cshum/magick/storage/gcloudstorage"
	"github.com/cshum/magick/web"
)

// WithGCloud with Google Cloud Storage loader, storage and result storage config option.
// Credentials are resolved from GOOGLE_APPLICATION_CREDENTIALS unless disabled.
func WithGCloud(fs *flag.FlagSet, cb func() (*zap.Logger, bool)) web.Option {
	var (
		gcloudEndpoint = fs.String("gcloud-endpoint", "",
			"Optional Google Cloud Storage endpoint to override default")
		gcloudWithoutAuthentication = fs.Bool("gcloud-without-authentication", false,
			"Google Cloud Storage client without authentication, for public buckets")
		gcloudSafeChars = fs.String("gcloud-safe-chars", "",
			"Google Cloud safe characters to be excluded from image key escape")

		gcloudLoaderBucket = fs.String("gcloud-loader-bucket", "",
			"Bucket name for Google Cloud Storage Loader. Enable Google Cloud Loader only if this value present")
		gcloudLoaderBaseDir = fs.String("gcloud-loader-base-dir", "",
			"Base directory for Google Cloud Loader")
		gcloudLoaderPathPrefix = fs.String("gcloud-loader-path-prefix", "",
			"Base path prefix for Google Cloud Loader")

		gcloudStorageBucket = fs.String("gcloud-storage-bucket", "",
			"Bucket name for Google Cloud Storage. Enable Google Cloud Storage only if this value present")
		gcloudStorageBaseDir = fs.String("gcloud-storage-base-dir", "",
			"Base directory for Google Cloud Storage")
		gcloudStoragePathPrefix = fs.String("gcloud-storage-path-prefix", "",
			"Base path prefix for Google Cloud Storage")
		gcloudStorageACL = fs.String("gcloud-storage-acl", "",
			"Upload ACL for Google Cloud Storage")
		gcloudStorageExpiration = fs.Duration("gcloud-storage-expiration", 0,
			"Google Cloud Storage expiration duration e.g. 24h. Default no expiration")

		gcloudResultStorageBucket = fs.String("gcloud-result-storage-bucket", "",
			"Bucket name for Google Cloud Result Storage. Enable Google Cloud Result Storage only if this value present")
		gcloudResultStorageBaseDir = fs.String("gcloud-result-storage-base-dir", "",
			"Base directory for Google Cloud Result Storage")
		gcloudResultStoragePathPrefix = fs.String("gcloud-result-storage-path-prefix", "",
			"Base path prefix for Google Cloud Result Storage")
		gcloudResultStorageACL = fs.String("gcloud-result-storage-acl", "",
			"Upload ACL for Google Cloud Result Storage")
		gcloudResultStorageExpiration = fs.Duration("gcloud-result-storage-expiration", 0,
			"Google Cloud Result Storage expiration duration e.g. 24h. Default no expiration")

		logger, _ = cb()
	)
	return func(app *web.Web) {
		if *gcloudStorageBucket == "" && *gcloudLoaderBucket == "" && *gcloudResultStorageBucket == "" {
			return
		}
		var opts []option.ClientOption
		if *gcloudEndpoint != "" {
			opts = append(opts, option.WithEndpoint(*gcloudEndpoint))
		}
		if *gcloudWithoutAuthentication {
			opts = append(opts, option.WithoutAuthentication())
		}
		// panics if credentials are missing
		client, err := storage.NewClient(context.Background(), opts...)
		if err != nil {
			panic(err)
		}
		logger.Debug("gcloud",
			zap.String("loader_bucket", *gcloudLoaderBucket),
			zap.String("storage_bucket", *gcloudStorageBucket),
			zap.String("result_storage_bucket", *gcloudResultStorageBucket))
		if *gcloudStorageBucket != "" {
			app.Storages = append(app.Storages,
				gcloudstorage.New(client, *gcloudStorageBucket,
					gcloudstorage.WithPathPrefix(*gcloudStoragePathPrefix),
					gcloudstorage.WithBaseDir(*gcloudStorageBaseDir),
					gcloudstorage.WithACL(*gcloudStorageACL),
					gcloudstorage.WithSafeChars(*gcloudSafeChars),
					gcloudstorage.WithExpiration(*gcloudStorageExpiration),
				),
			)
		}
		// storages already load, a loader on the same location would be redundant
		if *gcloudLoaderBucket != "" && (*gcloudLoaderPathPrefix != *gcloudStoragePathPrefix ||
			*gcloudLoaderBucket != *gcloudStorageBucket ||
			*gcloudLoaderBaseDir != *gcloudStorageBaseDir) {
			app.Loaders = append(app.Loaders,
				gcloudstorage.New(client, *gcloudLoaderBucket,
					gcloudstorage.WithPathPrefix(*gcloudLoaderPathPrefix),
					gcloudstorage.WithBaseDir(*gcloudLoaderBaseDir),
					gcloudstorage.WithSafeChars(*gcloudSafeChars),
				),
			)
		}
		if *gcloudResultStorageBucket != "" {
			app.ResultStorages = append(app.ResultStorages,
				gcloudstorage.New(client, *gcloudResultStorageBucket,
					gcloudstorage.WithPathPrefix(*gcloudResultStoragePathPrefix),
					gcloudstorage.WithBaseDir(*gcloudResultStorageBaseDir),
					gcloudstorage.WithACL(*gcloudResultStorageACL),
					gcloudstorage.WithSafeChars(*gcloudSafeChars),
					gcloudstorage.WithExpiration(*gcloudResultStorageExpiration),
				),
			)
		}
	}
}
