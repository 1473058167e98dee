package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Download for a missing object.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidKey is returned for keys that are not a single path element.
	ErrInvalidKey = errors.New("storage: invalid key")
	// ErrNoPublicURL is returned by URL when the backend has no externally
	// reachable address configured.
	ErrNoPublicURL = errors.New("storage: no public url configured")
)

// Storage is an object store for audio blobs.
type Storage interface {
	// Upload writes the object and returns the number of bytes stored.
	Upload(ctx context.Context, key string, r io.Reader) (int64, error)
	// Download opens the object. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns an address an external service can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
}
