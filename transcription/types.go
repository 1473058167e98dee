package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/httpclient"
	"github.com/kbukum/voxrelay/storage"
)

// EmptyText is the text stored for a transcription with no words.
const EmptyText = "Transcription is empty"

// AudioSource gives providers access to a stored clip, either as bytes or as
// a URL the provider fetches itself.
type AudioSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	URL(ctx context.Context) (string, error)
}

// Request holds parameters for a transcription call.
type Request struct {
	JobID       string
	FileName    string
	ContentType string
	Audio       AudioSource
	// Language is the expected language (e.g. "en"). Empty means detect.
	Language string
}

// Result holds the outcome of a transcription call.
type Result struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	// Provider names the backend that produced the text.
	Provider string `json:"provider"`
}

// DisplayText returns r.Text, or EmptyText when there is none.
func (r *Result) DisplayText() string {
	if r == nil || r.Text == "" {
		return EmptyText
	}
	return r.Text
}

// StorageSource reads the clip stored under key.
func StorageSource(st storage.Storage, key string) AudioSource {
	return &storageSource{st: st, key: key}
}

type storageSource struct {
	st  storage.Storage
	key string
}

func (s *storageSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.st.Download(ctx, s.key)
}

func (s *storageSource) URL(ctx context.Context) (string, error) {
	return s.st.URL(ctx, s.key)
}

// ErrorText flattens a provider failure into the text stored on a job.
// AppErrors contribute their message; anything else its Error string.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// CallError converts a failed provider HTTP call into an AppError whose
// message reads "<prefix>: <status> <body>", or "<prefix>: <cause>" when no
// response arrived.
func CallError(providerName, prefix string, err error) error {
	msg := prefix + ": " + err.Error()
	var hErr *httpclient.Error
	if errors.As(err, &hErr) {
		switch {
		case hErr.StatusCode > 0:
			msg = fmt.Sprintf("%s: %d %s", prefix, hErr.StatusCode, hErr.Message)
		default:
			msg = prefix + ": " + hErr.Message
		}
	}
	return apperrors.New(apperrors.ErrCodeExternalService, msg, http.StatusBadGateway).
		WithDetail("provider", providerName).
		WithCause(err)
}
