package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Sealer encrypts stored payloads. *encryption.Encryptor satisfies it.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// TypedStore stores JSON-encoded values of type C under "<prefix>:<key>".
type TypedStore[C any] struct {
	client    *Client
	keyPrefix string
	sealer    Sealer
}

// StoreOption configures a TypedStore.
type StoreOption func(*storeOptions)

type storeOptions struct{ sealer Sealer }

// WithSealer encrypts values at rest.
func WithSealer(s Sealer) StoreOption {
	return func(o *storeOptions) { o.sealer = s }
}

// NewTypedStore creates a store backed by client.
func NewTypedStore[C any](client *Client, keyPrefix string, opts ...StoreOption) *TypedStore[C] {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &TypedStore[C]{client: client, keyPrefix: keyPrefix, sealer: o.sealer}
}

// Key returns the full Redis key for key.
func (s *TypedStore[C]) Key(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load returns (nil, nil) when key does not exist.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.Key(key))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}
	if s.sealer != nil {
		if raw, err = s.sealer.Open(raw); err != nil {
			return nil, fmt.Errorf("typed store open %q: %w", key, err)
		}
	}

	var val C
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save stores val with ttl; 0 means no expiration.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	if s.sealer != nil {
		if data, err = s.sealer.Seal(data); err != nil {
			return fmt.Errorf("typed store seal %q: %w", key, err)
		}
	}
	if err := s.client.Set(ctx, s.Key(key), data, ttl); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.Key(key)); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}
