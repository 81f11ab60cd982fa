// Package upload stores avatar images and hands back their public URL. The
// concrete store is disk-backed; handlers depend only on the Store interface.
package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
)

// Store saves an uploaded file and returns its final asset URL.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// DiskStore writes uploads under a local directory served at a base URL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore constructs a DiskStore rooted at dir.
func NewDiskStore(dir, baseURL string) *DiskStore {
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// allowed image extensions for avatars.
var allowedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// Save writes the upload under a random name, keeping only the original
// extension. Any failure surfaces as unable_to_upload_image.
func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", apperrors.UnableToUploadImage()
	}

	if errMkdir := os.MkdirAll(s.dir, 0o755); errMkdir != nil {
		return "", apperrors.UnableToUploadImage()
	}
	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	out, errCreate := os.Create(path)
	if errCreate != nil {
		return "", apperrors.UnableToUploadImage()
	}
	defer func() { _ = out.Close() }()

	if _, errCopy := io.Copy(out, r); errCopy != nil {
		_ = os.Remove(path)
		return "", apperrors.UnableToUploadImage()
	}
	return s.baseURL + "/" + name, nil
}
