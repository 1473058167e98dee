// Package jobclient talks to the job API from the outside: it uploads a clip
// and polls its status with a growing interval until the job finishes.
package jobclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/httpclient"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/resilience"
)

// Job states reported by the service.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

var (
	// ErrJobNotFound means the service does not know the id, either because it
	// never existed or because its result was already collected.
	ErrJobNotFound = errors.New("jobclient: unknown job")
	// ErrEmptyTranscription is returned by Wait for a ready job without text.
	ErrEmptyTranscription = errors.New("jobclient: empty transcription")
	// ErrWaitTimeout is returned by Wait when the polling budget runs out.
	// The server side keeps working; there is nothing to cancel remotely.
	ErrWaitTimeout = errors.New("jobclient: timed out waiting for transcription")
)

// JobError carries the error text of a job that finished in the error state.
type JobError struct {
	Message string
}

func (e *JobError) Error() string { return "transcription failed: " + e.Message }

// JobMessage returns the job's error text as stored by the service.
func (e *JobError) JobMessage() string { return e.Message }

// StatusResponse mirrors GET /api/transcription/:id.
type StatusResponse struct {
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	Transcription string `json:"transcription,omitempty"`
}

// Client is a job API client.
type Client struct {
	upload  *httpclient.Client
	poll    *httpclient.Client
	cfg     Config
	backoff resilience.RetryConfig
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option { return func(c *Client) { c.log = l } }

// New creates a client for the service at cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var auth *httpclient.AuthConfig
	if cfg.Token != "" {
		auth = httpclient.BearerAuth(cfg.Token)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	up, err := httpclient.New(httpclient.Config{BaseURL: base, Timeout: cfg.UploadTimeout, Auth: auth})
	if err != nil {
		return nil, err
	}
	poll, err := httpclient.New(httpclient.Config{BaseURL: base, Timeout: cfg.RequestTimeout, Auth: auth})
	if err != nil {
		return nil, err
	}

	c := &Client{
		upload: up,
		poll:   poll,
		cfg:    cfg,
		backoff: resilience.RetryConfig{
			InitialBackoff: cfg.Polling.InitialInterval,
			MaxBackoff:     cfg.Polling.MaxInterval,
			BackoffFactor:  cfg.Polling.Multiplier,
		},
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("jobclient")
	return c, nil
}

// Upload submits a clip and returns its job id.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, audio io.Reader) (string, error) {
	type submitResponse struct {
		RecordingID string `json:"recording_id"`
	}
	auth, err := c.requestAuth()
	if err != nil {
		return "", err
	}
	resp, err := httpclient.DoJSON[submitResponse](ctx, c.upload, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/audio",
		Auth:   auth,
		Body: &httpclient.MultipartBody{Files: []httpclient.FileField{{
			FieldName:   "audio",
			FileName:    fileName,
			ContentType: contentType,
			Reader:      audio,
		}}},
	})
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", serverError(err))
	}
	if resp.RecordingID == "" {
		return "", apperrors.InvalidResponse("job service", "no recording_id in upload response")
	}
	c.log.WithContext(ctx).Debug("audio uploaded", logger.Fields(logger.FieldJobID, resp.RecordingID, logger.FieldFile, fileName))
	return resp.RecordingID, nil
}

// Status performs one status read. Reading a ready job consumes it on the
// server.
func (c *Client) Status(ctx context.Context, id string) (*StatusResponse, error) {
	auth, err := c.requestAuth()
	if err != nil {
		return nil, err
	}
	st, err := httpclient.DoJSON[StatusResponse](ctx, c.poll, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/api/transcription/" + url.PathEscape(id),
		Auth:   auth,
	})
	if httpclient.IsNotFound(err) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, serverError(err)
	}
	st.Status = strings.ToLower(st.Status)
	return &st, nil
}

// Wait polls until the job is ready or failed. It sleeps before every read,
// starting at Polling.InitialInterval and multiplying by Polling.Multiplier
// after each non-terminal answer, capped at Polling.MaxInterval. Transient
// read failures are retried within the same budget; an unknown job is not.
func (c *Client) Wait(ctx context.Context, id string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Polling.Timeout)
	defer cancel()
	log := c.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldJobID, id))
	started := time.Now()

	for attempt := 1; ; attempt++ {
		if err := sleep(ctx, resilience.Backoff(attempt, c.backoff)); err != nil {
			return "", c.waitErr(err)
		}

		st, err := c.Status(ctx, id)
		switch {
		case errors.Is(err, ErrJobNotFound):
			return "", err
		case err != nil:
			if ctx.Err() != nil {
				return "", c.waitErr(ctx.Err())
			}
			log.Warn("status read failed", logger.Fields(logger.FieldAttempt, attempt, logger.FieldError, err.Error()))
			continue
		}

		switch st.Status {
		case StatusReady:
			log.Debug("transcription collected", logger.DurationFields("wait", time.Since(started)))
			if st.Transcription == "" {
				return "", ErrEmptyTranscription
			}
			return st.Transcription, nil
		case StatusError:
			msg := st.Error
			if msg == "" {
				msg = "Transcription failed"
			}
			return "", &JobError{Message: msg}
		case StatusProcessing:
		default:
			log.Warn("unexpected job status", logger.Fields(logger.FieldStatus, st.Status))
		}
	}
}

// requestAuth returns per-request credentials from TokenSource, or nil to
// fall back to the client-level Token.
func (c *Client) requestAuth() (*httpclient.AuthConfig, error) {
	if c.cfg.TokenSource == nil {
		return nil, nil
	}
	token, err := c.cfg.TokenSource()
	if err != nil {
		return nil, fmt.Errorf("job client token: %w", err)
	}
	return httpclient.BearerAuth(token), nil
}

func (c *Client) waitErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrWaitTimeout, c.cfg.Polling.Timeout)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// serverError surfaces the service's {"error": "..."} message when present.
func serverError(err error) error {
	var he *httpclient.Error
	if !errors.As(err, &he) || len(he.Body) == 0 {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(he.Body, &body) != nil || body.Error == "" {
		return err
	}
	return fmt.Errorf("%s (HTTP %d): %w", body.Error, he.StatusCode, err)
}
