package filestorage

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Option FileStorage option
type Option func(s *FileStorage)

// WithPathPrefix with path prefix the keys must start with, stripped from the file path
func WithPathPrefix(prefix string) Option {
	return func(s *FileStorage) {
		if prefix != "" {
			prefix = "/" + strings.Trim(prefix, "/")
			if prefix != "/" {
				prefix += "/"
			}
			s.PathPrefix = prefix
		}
	}
}

// WithBlacklist with blacklisted key pattern
func WithBlacklist(blacklist *regexp.Regexp) Option {
	return func(s *FileStorage) {
		if blacklist != nil {
			s.Blacklists = append(s.Blacklists, blacklist)
		}
	}
}

// WithMkdirPermission with directory permission, octal string e.g. 0755
func WithMkdirPermission(perm string) Option {
	return func(s *FileStorage) {
		if perm != "" {
			if fm, err := strconv.ParseUint(perm, 0, 32); err == nil {
				s.MkdirPermission = os.FileMode(fm)
			}
		}
	}
}

// WithWritePermission with file permission, octal string e.g. 0666
func WithWritePermission(perm string) Option {
	return func(s *FileStorage) {
		if perm != "" {
			if fm, err := strconv.ParseUint(perm, 0, 32); err == nil {
				s.WritePermission = os.FileMode(fm)
			}
		}
	}
}

// WithSaveErrIfExists with Put failing on existing files
func WithSaveErrIfExists(saveErrIfExists bool) Option {
	return func(s *FileStorage) {
		s.SaveErrIfExists = saveErrIfExists
	}
}

// WithSafeChars with chars not escaped in file names
func WithSafeChars(chars string) Option {
	return func(s *FileStorage) {
		if chars != "" {
			s.SafeChars = chars
		}
	}
}

// WithExpiration with expiration of files by modified time
func WithExpiration(exp time.Duration) Option {
	return func(s *FileStorage) {
		if exp > 0 {
			s.Expiration = exp
		}
	}
}
