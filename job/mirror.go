package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/voxrelay/redis"
	"github.com/kbukum/voxrelay/util"
)

// Record is what a Mirror receives for each state change. Consumed marks the
// final record of a job that left the Store.
type Record struct {
	Job
	Consumed  bool      `json:"consumed,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Mirror is a best-effort copy of job state. It is never read back to decide
// job outcomes.
type Mirror interface {
	Write(ctx context.Context, rec Record) error
}

// Sealer encrypts mirror payloads. *encryption.Encryptor satisfies it.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type nopMirror struct{}

func (nopMirror) Write(context.Context, Record) error { return nil }

// FileMirror writes the terminal text of each job to "<dir>/<id>.txt". The
// file outlives the job so finished results can be inspected on disk.
type FileMirror struct {
	dir    string
	sealer Sealer
}

// NewFileMirror creates dir if needed. A nil sealer stores plain text.
func NewFileMirror(dir string, sealer Sealer) (*FileMirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file mirror: %w", err)
	}
	return &FileMirror{dir: dir, sealer: sealer}, nil
}

// Path returns the side-file path for id.
func (m *FileMirror) Path(id string) string {
	return filepath.Join(m.dir, id+".txt")
}

func (m *FileMirror) Write(_ context.Context, rec Record) error {
	if !rec.Status.IsTerminal() || rec.Consumed {
		return nil
	}
	if !util.SafeFileName(rec.ID + ".txt") {
		return fmt.Errorf("file mirror: unsafe id %q", rec.ID)
	}
	data := []byte(rec.Text)
	if m.sealer != nil {
		sealed, err := m.sealer.Seal(data)
		if err != nil {
			return fmt.Errorf("file mirror seal: %w", err)
		}
		data = sealed
	}

	tmp, err := os.CreateTemp(m.dir, rec.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("file mirror: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("file mirror: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file mirror: %w", err)
	}
	return os.Rename(tmp.Name(), m.Path(rec.ID))
}

// Read returns the mirrored text for id, opening it when sealed.
func (m *FileMirror) Read(id string) (string, error) {
	data, err := os.ReadFile(m.Path(id))
	if err != nil {
		return "", err
	}
	if m.sealer != nil {
		if data, err = m.sealer.Open(data); err != nil {
			return "", fmt.Errorf("file mirror open: %w", err)
		}
	}
	return string(data), nil
}

// RedisMirror stores each record as JSON under "<prefix>:<id>" with a TTL
// and deletes it once the job is consumed.
type RedisMirror struct {
	store *redis.TypedStore[Record]
	ttl   time.Duration
}

// NewRedisMirror creates a mirror over client. A nil sealer stores plain JSON.
func NewRedisMirror(client *redis.Client, keyPrefix string, ttl time.Duration, sealer Sealer) *RedisMirror {
	var opts []redis.StoreOption
	if sealer != nil {
		opts = append(opts, redis.WithSealer(sealer))
	}
	return &RedisMirror{store: redis.NewTypedStore[Record](client, keyPrefix, opts...), ttl: ttl}
}

func (m *RedisMirror) Write(ctx context.Context, rec Record) error {
	if rec.Consumed {
		return m.store.Delete(ctx, rec.ID)
	}
	return m.store.Save(ctx, rec.ID, &rec, m.ttl)
}

// Load returns the mirrored record, or nil when absent.
func (m *RedisMirror) Load(ctx context.Context, id string) (*Record, error) {
	return m.store.Load(ctx, id)
}

// MultiMirror writes to every mirror and joins their errors.
type MultiMirror []Mirror

func (mm MultiMirror) Write(ctx context.Context, rec Record) error {
	var errs []error
	for _, m := range mm {
		if err := m.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
