package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskStorage writes images below a local directory served at a public URL prefix.
// It is used when no bucket is configured.
type DiskStorage struct {
	dir       string
	urlPrefix string
	maxSize   int64
}

// NewDiskStorage ensures dir exists. maxSize of zero disables the size check.
func NewDiskStorage(dir, urlPrefix string, maxSize int64) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		maxSize:   maxSize,
	}, nil
}

// Save writes r to dir/key and returns the URL path it is served from.
func (s *DiskStorage) Save(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	key = strings.TrimLeft(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	defer f.Close()

	reader := r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1)
	}

	written, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(target)
		return "", ErrTooLarge
	}

	return s.urlPrefix + "/" + key, nil
}

var _ ImageStore = (*DiskStorage)(nil)
