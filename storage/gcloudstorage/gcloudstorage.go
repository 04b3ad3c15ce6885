package gcloudstorage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/cshum/magick/magickpath"
	"github.com/cshum/magick/web"
)

// GCloudStorage Google Cloud Storage loader, storage and result storage
type GCloudStorage struct {
	BaseDir    string
	PathPrefix string
	ACL        string
	SafeChars  string
	Expiration time.Duration
	Bucket     string

	client    *storage.Client
	safeChars map[byte]bool
}

// New creates GCloudStorage
func New(client *storage.Client, bucket string, options ...Option) *GCloudStorage {
	s := &GCloudStorage{
		client:    client,
		Bucket:    bucket,
		safeChars: map[byte]bool{},
	}
	for _, option := range options {
		option(s)
	}
	for _, c := range s.SafeChars {
		s.safeChars[byte(c)] = true
	}
	return s
}

func (s *GCloudStorage) escapeByte(c byte) bool {
	return magickpath.DefaultEscapeByte(c) && !s.safeChars[c]
}

// Path object name of the image key
func (s *GCloudStorage) Path(image string) (string, bool) {
	image = "/" + magickpath.Normalize(image, s.escapeByte)
	if !strings.HasPrefix(image, s.PathPrefix) {
		return "", false
	}
	joined := filepath.Join(s.BaseDir, strings.TrimPrefix(image, s.PathPrefix))
	// object names have no leading slash
	return strings.Trim(joined, "/"), true
}

// Get implements web.Loader interface
func (s *GCloudStorage) Get(r *http.Request, image string) (*web.Blob, error) {
	ctx := r.Context()
	attrs, err := s.attrs(ctx, image)
	if err != nil {
		return nil, err
	}
	if s.Expiration > 0 && time.Since(attrs.Updated) > s.Expiration {
		return nil, web.ErrExpired
	}
	reader, err := s.client.Bucket(s.Bucket).Object(attrs.Name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, web.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()
	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	blob := web.NewBlobFromBytes(buf)
	blob.Stat = &web.Stat{
		Size:         attrs.Size,
		ETag:         attrs.Etag,
		ModifiedTime: attrs.Updated,
	}
	return blob, nil
}

// Put implements web.Storage interface
func (s *GCloudStorage) Put(ctx context.Context, image string, blob *web.Blob) error {
	image, ok := s.Path(image)
	if !ok {
		return web.ErrInvalid
	}
	reader, _, err := blob.NewReader()
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()
	writer := s.client.Bucket(s.Bucket).Object(image).NewWriter(ctx)
	if s.ACL != "" {
		writer.PredefinedACL = s.ACL
	}
	writer.ContentType = blob.ContentType()
	if _, err := io.Copy(writer, reader); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Delete implements web.Storage interface
func (s *GCloudStorage) Delete(ctx context.Context, image string) error {
	image, ok := s.Path(image)
	if !ok {
		return web.ErrInvalid
	}
	err := s.client.Bucket(s.Bucket).Object(image).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return web.ErrNotFound
	}
	return err
}

// Stat implements web.Storage interface
func (s *GCloudStorage) Stat(ctx context.Context, image string) (*web.Stat, error) {
	attrs, err := s.attrs(ctx, image)
	if err != nil {
		return nil, err
	}
	return &web.Stat{
		Size:         attrs.Size,
		ETag:         attrs.Etag,
		ModifiedTime: attrs.Updated,
	}, nil
}

func (s *GCloudStorage) attrs(ctx context.Context, image string) (*storage.ObjectAttrs, error) {
	image, ok := s.Path(image)
	if !ok {
		return nil, web.ErrInvalid
	}
	attrs, err := s.client.Bucket(s.Bucket).Object(image).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, web.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return attrs, nil
}
