// Package local stores audio blobs as files in one directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/storage"
	"github.com/kbukum/voxrelay/util"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath, cfg.PublicBaseURL)
	})
}

// FilesRoute is the HTTP path prefix that serves local blobs.
const FilesRoute = "/files/"

// Storage implements storage.Storage on the local filesystem.
type Storage struct {
	basePath  string
	publicURL string
}

// NewStorage creates basePath if needed. publicURL may be empty, in which
// case URL fails with storage.ErrNoPublicURL.
func NewStorage(basePath, publicURL string) (*Storage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create base directory: %w", err)
	}
	return &Storage{basePath: abs, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// BasePath returns the absolute data directory.
func (s *Storage) BasePath() string { return s.basePath }

func (s *Storage) path(key string) (string, error) {
	if !util.SafeFileName(key) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	return filepath.Join(s.basePath, key), nil
}

// Upload writes r to <basePath>/<key> through a temp file and rename, so a
// concurrent reader never sees a partial blob.
func (s *Storage) Upload(_ context.Context, key string, r io.Reader) (int64, error) {
	full, err := s.path(key)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("storage: create file: %w", err)
	}
	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("storage: write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("storage: rename file: %w", err)
	}
	return n, nil
}

// Download opens the file for key.
func (s *Storage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open file: %w", err)
	}
	return f, nil
}

// Delete removes the file for key.
func (s *Storage) Delete(_ context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

// Exists reports whether the file for key exists.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	full, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("storage: stat file: %w", err)
	}
}

// URL returns <publicURL>/files/<key>.
func (s *Storage) URL(_ context.Context, key string) (string, error) {
	if !util.SafeFileName(key) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	if s.publicURL == "" {
		return "", storage.ErrNoPublicURL
	}
	return s.publicURL + FilesRoute + url.PathEscape(key), nil
}

var _ storage.Storage = (*Storage)(nil)
