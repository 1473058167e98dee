package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kbukum/voxrelay/httpclient"
)

// ErrNoDialect is returned by NewWithDialect when given a nil dialect.
var ErrNoDialect = errors.New("llm: dialect is required")

// Adapter is a chat-completion client for one provider.
//
// It implements provider.RequestResponse[CompletionRequest, CompletionResponse]
// so it can be wrapped with provider middleware.
type Adapter struct {
	name      string
	client    *httpclient.Client
	dialect   Dialect
	hasKey    bool
	model     string
	temp      float64
	maxTokens int
}

// New creates an adapter using a dialect from the registry.
func New(cfg Config) (*Adapter, error) {
	cfg.ApplyDefaults()
	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return newAdapter(dialect, cfg)
}

// NewWithDialect creates an adapter with an explicit dialect.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	if cfg.Dialect == "" {
		cfg.Dialect = dialect.Name()
	}
	cfg.ApplyDefaults()
	return newAdapter(dialect, cfg)
}

func newAdapter(dialect Dialect, cfg Config) (*Adapter, error) {
	hcfg := httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Retry:   cfg.Retry,
	}
	if cfg.APIKey != "" {
		hcfg.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	client, err := httpclient.New(hcfg)
	if err != nil {
		return nil, fmt.Errorf("llm: create http client: %w", err)
	}
	return &Adapter{
		name:      cfg.Name,
		client:    client,
		dialect:   dialect,
		hasKey:    cfg.APIKey != "",
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// IsAvailable reports whether an API key is configured.
func (a *Adapter) IsAvailable(context.Context) bool { return a.hasKey }

// Dialect returns the adapter's dialect.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// Execute sends a completion request and returns the parsed reply.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	a.applyDefaults(&req)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: build request: %w", err)
	}

	raw, err := httpclient.DoJSON[json.RawMessage](ctx, a.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   a.dialect.ChatPath(),
		Body:   body,
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: execute: %w", err)
	}

	resp, err := a.dialect.ParseResponse(raw)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: parse response: %w", err)
	}
	return *resp, nil
}

// Complete sends a single question with an optional system prompt and
// returns the reply text.
func (a *Adapter) Complete(ctx context.Context, systemPrompt, question string, extra map[string]any) (string, error) {
	resp, err := a.Execute(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []Message{UserMessage(question)},
		Extra:        extra,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}
