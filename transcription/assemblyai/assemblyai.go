// Package assemblyai implements transcription.Provider against the
// AssemblyAI v2 API: the provider fetches the clip from a URL and the
// transcript is polled until it settles.
package assemblyai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/httpclient"
	"github.com/kbukum/voxrelay/transcription"
)

const (
	// ProviderName is the name reported by the AssemblyAI provider.
	ProviderName = "assemblyai"

	defaultBaseURL      = "https://api.assemblyai.com"
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 600 * time.Second
	defaultTimeout      = 30 * time.Second

	transcriptPath = "/v2/transcript"
)

// Transcript statuses reported by the API.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Config holds configuration for the AssemblyAI provider.
type Config struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// APIKey is sent in the authorization header. Without it the provider is
	// unavailable.
	APIKey       string        `yaml:"-" mapstructure:"-"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`
	// Timeout bounds each HTTP call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Transcript is the subset of the transcript resource the provider reads.
type Transcript struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Text          string  `json:"text"`
	Error         string  `json:"error"`
	LanguageCode  string  `json:"language_code"`
	AudioDuration float64 `json:"audio_duration"`
}

type createRequest struct {
	AudioURL          string `json:"audio_url"`
	Punctuate         bool   `json:"punctuate"`
	FormatText        bool   `json:"format_text"`
	LanguageDetection bool   `json:"language_detection"`
}

// Provider implements transcription.Provider.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates an AssemblyAI provider.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()
	hcfg := httpclient.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}
	if cfg.APIKey != "" {
		hcfg.Auth = httpclient.HeaderAuth("authorization", cfg.APIKey)
	}
	client, err := httpclient.New(hcfg)
	if err != nil {
		return nil, fmt.Errorf("assemblyai: %w", err)
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key is configured.
func (p *Provider) IsAvailable(context.Context) bool { return p.cfg.APIKey != "" }

// Create starts a transcript for audioURL and returns its id.
func (p *Provider) Create(ctx context.Context, audioURL string) (string, error) {
	t, err := httpclient.PostJSON[Transcript](ctx, p.client, transcriptPath, createRequest{
		AudioURL:          audioURL,
		Punctuate:         true,
		FormatText:        true,
		LanguageDetection: true,
	})
	if err != nil {
		return "", transcription.CallError(ProviderName, "Create transcript failed", err)
	}
	if t.ID == "" {
		return "", apperrors.InvalidResponse(ProviderName, "create transcript returned no id")
	}
	return t.ID, nil
}

// Poll fetches the current state of a transcript once.
func (p *Provider) Poll(ctx context.Context, id string) (*Transcript, error) {
	t, err := httpclient.GetJSON[Transcript](ctx, p.client, transcriptPath+"/"+id, nil)
	if err != nil {
		return nil, transcription.CallError(ProviderName, "Poll failed", err)
	}
	t.Status = strings.ToLower(t.Status)
	return &t, nil
}

// Transcribe creates a transcript for the clip's URL and polls every
// PollInterval until it completes, fails, or PollTimeout elapses.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	if p.cfg.APIKey == "" {
		return nil, apperrors.ProviderUnavailable(ProviderName, "api key is missing")
	}
	if req.Audio == nil {
		return nil, apperrors.MissingField("audio")
	}
	audioURL, err := req.Audio.URL(ctx)
	if err != nil {
		return nil, apperrors.ProviderUnavailable(ProviderName, "audio has no public url").WithCause(err)
	}

	id, err := p.Create(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	deadline := time.NewTimer(p.cfg.PollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, apperrors.Timeout("assemblyai transcription").WithCause(ctx.Err())
		case <-deadline.C:
			return nil, apperrors.New(apperrors.ErrCodeTimeout, "Transcription timed out", http.StatusGatewayTimeout).
				WithDetail("transcript_id", id)
		case <-ticker.C:
		}

		t, err := p.Poll(ctx, id)
		if err != nil {
			return nil, err
		}
		switch t.Status {
		case StatusCompleted:
			return &transcription.Result{
				Text:     t.Text,
				Language: t.LanguageCode,
				Duration: t.AudioDuration,
				Provider: ProviderName,
			}, nil
		case StatusError:
			msg := t.Error
			if msg == "" {
				msg = "Transcription failed"
			}
			return nil, apperrors.New(apperrors.ErrCodeExternalService, msg, http.StatusBadGateway).
				WithDetail("transcript_id", id)
		}
	}
}
