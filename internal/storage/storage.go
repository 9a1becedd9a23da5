package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrEmptyKey is returned when an object key is blank.
	ErrEmptyKey = errors.New("storage: empty key")
	// ErrTooLarge is returned when an image exceeds the configured size limit.
	ErrTooLarge = errors.New("storage: file too large")
	// ErrUnsupportedType is returned for files that are not images.
	ErrUnsupportedType = errors.New("storage: unsupported file type")
)

// ImageStore persists uploaded images and reports where they can be fetched from.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ObjectKey builds a collision-free key under prefix that keeps the original
// file extension. Filenames without an image extension are rejected.
func ObjectKey(prefix, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrUnsupportedType
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return uuid.NewString() + ext, nil
	}
	return prefix + "/" + uuid.NewString() + ext, nil
}

// ContentTypeFor returns the MIME type implied by the key's extension, or "".
func ContentTypeFor(key string) string {
	return allowedExtensions[strings.ToLower(filepath.Ext(key))]
}
