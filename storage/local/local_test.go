package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/voxrelay/storage"
)

func TestStorage_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, "http://relay.example:5000/")
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	ctx := context.Background()

	n, err := s.Upload(ctx, "job-1.m4a", strings.NewReader("AUDIO"))
	if err != nil || n != 5 {
		t.Fatalf("Upload: n=%d err=%v", n, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "job-1.m4a")); err != nil {
		t.Fatalf("file not on disk: %v", err)
	}

	rc, err := s.Download(ctx, "job-1.m4a")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "AUDIO" {
		t.Errorf("unexpected content %q", data)
	}

	u, err := s.URL(ctx, "job-1.m4a")
	if err != nil || u != "http://relay.example:5000/files/job-1.m4a" {
		t.Errorf("URL = %q, %v", u, err)
	}

	if err := s.Delete(ctx, "job-1.m4a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := s.Exists(ctx, "job-1.m4a"); ok {
		t.Error("file should be gone")
	}
	if err := s.Delete(ctx, "job-1.m4a"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	if _, err := s.Download(ctx, "job-1.m4a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_RejectsTraversal(t *testing.T) {
	s, _ := NewStorage(t.TempDir(), "")
	ctx := context.Background()
	for _, key := range []string{"../etc/passwd", "a/b.m4a", "..", ""} {
		if _, err := s.Upload(ctx, key, strings.NewReader("x")); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Upload(%q) = %v, want ErrInvalidKey", key, err)
		}
		if _, err := s.Download(ctx, key); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Download(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestStorage_URLWithoutPublicBase(t *testing.T) {
	s, _ := NewStorage(t.TempDir(), "")
	if _, err := s.URL(context.Background(), "a.m4a"); !errors.Is(err, storage.ErrNoPublicURL) {
		t.Errorf("expected ErrNoPublicURL, got %v", err)
	}
}

func TestFactoryRegistered(t *testing.T) {
	s, err := storage.New(storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if _, ok := s.(*Storage); !ok {
		t.Errorf("expected *local.Storage, got %T", s)
	}
}
