package s3storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cshum/magick/magickpath"
	"github.com/cshum/magick/web"
)

// S3Storage AWS S3 loader, storage and result storage
type S3Storage struct {
	Client *s3.Client
	Bucket string

	BaseDir        string
	PathPrefix     string
	ACL            string
	SafeChars      string
	StorageClass   string
	Expiration     time.Duration
	Endpoint       string
	ForcePathStyle bool
	BucketRouter   BucketRouter

	safeChars map[byte]bool
}

// New creates S3Storage, bucket may carry a base dir e.g. mybucket/path/to
func New(cfg aws.Config, bucket string, options ...Option) *S3Storage {
	baseDir := "/"
	if idx := strings.Index(bucket, "/"); idx > -1 {
		baseDir = bucket[idx:]
		bucket = bucket[:idx]
	}
	s := &S3Storage{
		Bucket: bucket,

		BaseDir:      baseDir,
		PathPrefix:   "/",
		ACL:          string(types.ObjectCannedACLPublicRead),
		StorageClass: string(types.StorageClassStandard),
		safeChars:    map[byte]bool{},
	}
	for _, option := range options {
		option(s)
	}
	// https://docs.aws.amazon.com/AmazonS3/latest/userguide/object-keys.html#object-key-guidelines-safe-characters
	for _, c := range "!\"()*" + s.SafeChars {
		s.safeChars[byte(c)] = true
	}
	s.Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
		o.UsePathStyle = s.ForcePathStyle
	})
	return s
}

func (s *S3Storage) escapeByte(c byte) bool {
	return magickpath.DefaultEscapeByte(c) && !s.safeChars[c]
}

// Path transforms and validates image key for storage path
func (s *S3Storage) Path(image string) (string, bool) {
	image = "/" + magickpath.Normalize(image, s.escapeByte)
	if !strings.HasPrefix(image, s.PathPrefix) {
		return "", false
	}
	return filepath.Join(s.BaseDir, strings.TrimPrefix(image, s.PathPrefix)), true
}

// BucketFor bucket of the storage path
func (s *S3Storage) BucketFor(key string) string {
	if s.BucketRouter != nil {
		if bucket := s.BucketRouter.BucketFor(key); bucket != "" {
			return bucket
		}
	}
	return s.Bucket
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var res interface{ HTTPStatusCode() int }
	return errors.As(err, &res) && res.HTTPStatusCode() == http.StatusNotFound
}

// Get implements web.Loader interface
func (s *S3Storage) Get(r *http.Request, image string) (*web.Blob, error) {
	key, ok := s.Path(image)
	if !ok {
		return nil, web.ErrInvalid
	}
	out, err := s.Client.GetObject(r.Context(), &s3.GetObjectInput{
		Bucket: aws.String(s.BucketFor(key)),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, web.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	defer func() {
		_ = out.Body.Close()
	}()
	if s.Expiration > 0 && out.LastModified != nil &&
		time.Since(*out.LastModified) > s.Expiration {
		return nil, web.ErrExpired
	}
	buf, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	blob := web.NewBlobFromBytes(buf)
	blob.Stat = &web.Stat{
		Size:         int64(len(buf)),
		ETag:         aws.ToString(out.ETag),
		ModifiedTime: aws.ToTime(out.LastModified),
	}
	return blob, nil
}

// Put implements web.Storage interface
func (s *S3Storage) Put(ctx context.Context, image string, blob *web.Blob) error {
	key, ok := s.Path(image)
	if !ok {
		return web.ErrInvalid
	}
	buf, err := blob.ReadAll()
	if err != nil {
		return err
	}
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		ACL:           types.ObjectCannedACL(s.ACL),
		Body:          bytes.NewReader(buf),
		Bucket:        aws.String(s.BucketFor(key)),
		ContentType:   aws.String(blob.ContentType()),
		ContentLength: aws.Int64(int64(len(buf))),
		Key:           aws.String(key),
		StorageClass:  types.StorageClass(s.StorageClass),
	})
	return err
}

// Delete implements web.Storage interface
func (s *S3Storage) Delete(ctx context.Context, image string) error {
	key, ok := s.Path(image)
	if !ok {
		return web.ErrInvalid
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.BucketFor(key)),
		Key:    aws.String(key),
	})
	return err
}

// Stat implements web.Storage interface
func (s *S3Storage) Stat(ctx context.Context, image string) (*web.Stat, error) {
	key, ok := s.Path(image)
	if !ok {
		return nil, web.ErrInvalid
	}
	head, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.BucketFor(key)),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, web.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &web.Stat{
		Size:         aws.ToInt64(head.ContentLength),
		ETag:         aws.ToString(head.ETag),
		ModifiedTime: aws.ToTime(head.LastModified),
	}, nil
}
