// Package whisper implements transcription.Provider against the OpenAI
// audio transcriptions API.
package whisper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/httpclient"
	"github.com/kbukum/voxrelay/transcription"
	"github.com/kbukum/voxrelay/util"
)

const (
	// ProviderName is the name reported by the Whisper provider.
	ProviderName = "whisper"

	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "whisper-1"
	defaultTimeout = 60 * time.Second

	transcriptionsPath = "/v1/audio/transcriptions"
)

// Config holds configuration for the Whisper provider.
type Config struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// APIKey is the OpenAI key. Without it the provider is unavailable.
	APIKey   string        `yaml:"-" mapstructure:"-"`
	Model    string        `yaml:"transcription_model" mapstructure:"transcription_model"`
	Language string        `yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider implements transcription.Provider.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a Whisper provider.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()
	hcfg := httpclient.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}
	if cfg.APIKey != "" {
		hcfg.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	client, err := httpclient.New(hcfg)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key is configured.
func (p *Provider) IsAvailable(context.Context) bool { return p.cfg.APIKey != "" }

type response struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Transcribe uploads the clip as the multipart field "file".
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	if p.cfg.APIKey == "" {
		return nil, apperrors.ProviderUnavailable(ProviderName, "api key is missing")
	}
	if req.Audio == nil {
		return nil, apperrors.MissingField("audio")
	}

	audio, err := req.Audio.Open(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("open audio: %w", err))
	}
	defer audio.Close()

	fileName := req.FileName
	if fileName == "" {
		fileName = "audio." + util.DefaultAudioExt
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = util.AudioContentType(util.FileExt(fileName))
	}

	fields := map[string]string{"model": p.cfg.Model}
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	if lang != "" {
		fields["language"] = lang
	}

	resp, err := httpclient.DoJSON[response](ctx, p.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   transcriptionsPath,
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   "file",
				FileName:    fileName,
				ContentType: contentType,
				Reader:      audio,
			}},
		},
	})
	if err != nil {
		return nil, transcription.CallError(ProviderName, "Whisper request failed", err)
	}

	return &transcription.Result{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
		Provider: ProviderName,
	}, nil
}
