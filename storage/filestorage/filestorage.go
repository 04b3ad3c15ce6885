package filestorage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cshum/magick/magickpath"
	"github.com/cshum/magick/web"
)

var dotFileRegex = regexp.MustCompile("/\\.")

// FileStorage file system loader, storage and result storage
type FileStorage struct {
	BaseDir         string
	PathPrefix      string
	Blacklists      []*regexp.Regexp
	MkdirPermission os.FileMode
	WritePermission os.FileMode
	SaveErrIfExists bool
	SafeChars       string
	Expiration      time.Duration

	safeChars map[byte]bool
}

// New creates FileStorage rooted at baseDir
func New(baseDir string, options ...Option) *FileStorage {
	s := &FileStorage{
		BaseDir:         baseDir,
		PathPrefix:      "/",
		Blacklists:      []*regexp.Regexp{dotFileRegex},
		MkdirPermission: 0755,
		WritePermission: 0666,

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

func (s *FileStorage) escapeByte(c byte) bool {
	return magickpath.DefaultEscapeByte(c) && !s.safeChars[c]
}

// Path file path of the image key, false if not under the prefix or blacklisted
func (s *FileStorage) Path(image string) (string, bool) {
	image = "/" + magickpath.Normalize(image, s.escapeByte)
	for _, blacklist := range s.Blacklists {
		if blacklist.MatchString(image) {
			return "", false
		}
	}
	if !strings.HasPrefix(image, s.PathPrefix) {
		return "", false
	}
	return filepath.Join(s.BaseDir, strings.TrimPrefix(image, s.PathPrefix)), true
}

// Get implements web.Loader interface
func (s *FileStorage) Get(_ *http.Request, image string) (*web.Blob, error) {
	name, ok := s.Path(image)
	if !ok {
		return nil, web.ErrPass
	}
	stats, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, web.ErrNotFound
		}
		return nil, err
	}
	if s.Expiration > 0 && time.Since(stats.ModTime()) > s.Expiration {
		return nil, web.ErrExpired
	}
	return web.NewBlobFromFile(name), nil
}

// Put implements web.Storage interface
func (s *FileStorage) Put(_ context.Context, image string, blob *web.Blob) (err error) {
	name, ok := s.Path(image)
	if !ok {
		return web.ErrPass
	}
	if err = os.MkdirAll(filepath.Dir(name), s.MkdirPermission); err != nil {
		return
	}
	reader, _, err := blob.NewReader()
	if err != nil {
		return
	}
	defer func() {
		_ = reader.Close()
	}()
	flag := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if s.SaveErrIfExists {
		flag = os.O_RDWR | os.O_CREATE | os.O_EXCL
	}
	w, err := os.OpenFile(name, flag, s.WritePermission)
	if err != nil {
		return
	}
	defer func() {
		if e := w.Close(); e != nil && err == nil {
			err = e
		}
	}()
	_, err = io.Copy(w, reader)
	return
}

// Delete implements web.Storage interface
func (s *FileStorage) Delete(_ context.Context, image string) error {
	name, ok := s.Path(image)
	if !ok {
		return web.ErrPass
	}
	return os.Remove(name)
}

// Stat implements web.Storage interface
func (s *FileStorage) Stat(_ context.Context, image string) (*web.Stat, error) {
	name, ok := s.Path(image)
	if !ok {
		return nil, web.ErrPass
	}
	stats, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, web.ErrNotFound
		}
		return nil, err
	}
	return &web.Stat{
		Size:         stats.Size(),
		ModifiedTime: stats.ModTime(),
	}, nil
}
