// Package testutil provides an in-memory storage.Storage for tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kbukum/voxrelay/storage"
)

// MemoryStorage keeps objects in a map and counts deletes per key.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes map[string]int
	BaseURL string
	// FailUpload makes every Upload fail with this error.
	FailUpload error
}

// NewMemoryStorage returns an empty store whose URLs start with baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{objects: map[string][]byte{}, deletes: map[string]int{}, BaseURL: baseURL}
}

func (m *MemoryStorage) Upload(_ context.Context, key string, r io.Reader) (int64, error) {
	if m.FailUpload != nil {
		return 0, m.FailUpload
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return int64(len(data)), nil
}

func (m *MemoryStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deletes[key]++
	return nil
}

func (m *MemoryStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStorage) URL(_ context.Context, key string) (string, error) {
	if m.BaseURL == "" {
		return "", storage.ErrNoPublicURL
	}
	return m.BaseURL + "/files/" + key, nil
}

// Deletes returns how many times key was deleted.
func (m *MemoryStorage) Deletes(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes[key]
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ storage.Storage = (*MemoryStorage)(nil)
