package s3

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/voxrelay/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(context.Background(), storage.Config{
		Provider:   storage.ProviderS3,
		Bucket:     "voxrelay-audio",
		Region:     "eu-west-1",
		Endpoint:   "http://minio.local:9000",
		AccessKey:  "AKIDEXAMPLE",
		SecretKey:  "secret",
		PresignTTL: 10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestStorage_PresignedURL(t *testing.T) {
	u, err := newTestStorage(t).URL(context.Background(), "job-1.m4a")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	for _, want := range []string{
		"http://minio.local:9000/voxrelay-audio/job-1.m4a",
		"X-Amz-Signature=",
		"X-Amz-Expires=600",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("presigned url %q missing %q", u, want)
		}
	}
}

func TestStorage_UploadRejectsInvalidKey(t *testing.T) {
	_, err := newTestStorage(t).Upload(context.Background(), "../x", strings.NewReader("a"))
	if !errors.Is(err, storage.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestConfig_S3RequiresBucket(t *testing.T) {
	cfg := storage.Config{Provider: storage.ProviderS3}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected bucket validation error")
	}
}
