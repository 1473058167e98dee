// Package openai registers the "openai" chat-completions dialect.
package openai

import (
	"encoding/json"
	"strings"

	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/llm"
)

// DialectName is the registry key.
const DialectName = "openai"

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect speaks the /v1/chat/completions API.
type Dialect struct{}

var _ llm.Dialect = (*Dialect)(nil)

func (d *Dialect) Name() string     { return DialectName }
func (d *Dialect) ChatPath() string { return "/v1/chat/completions" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message *struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

// BuildRequest returns a JSON object. Extra fields are merged at the top level
// and never override the core fields.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	messages := make([]llm.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, req.Messages...)

	body := chatRequest{Model: req.Model, Messages: messages, MaxTokens: req.MaxTokens}
	// Search-enabled models reject a sampling temperature.
	if _, search := req.Extra["web_search_options"]; !search {
		t := req.Temperature
		body.Temperature = &t
	}
	if len(req.Extra) == 0 {
		return body, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(req.Extra)+4)
	for k, v := range req.Extra {
		merged[k] = v
	}
	var core map[string]any
	if err := json.Unmarshal(raw, &core); err != nil {
		return nil, err
	}
	for k, v := range core {
		merged[k] = v
	}
	return merged, nil
}

// ParseResponse accepts only choices[0].message.content.
func (d *Dialect) ParseResponse(body json.RawMessage) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.InvalidResponse(DialectName, "body is not a chat completion object").WithCause(err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.InvalidResponse(DialectName, "no choices")
	}
	msg := resp.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return nil, apperrors.InvalidResponse(DialectName, "choices[0].message.content is missing")
	}
	content := strings.TrimSpace(*msg.Content)
	if content == "" {
		return nil, apperrors.InvalidResponse(DialectName, "choices[0].message.content is empty")
	}
	return &llm.CompletionResponse{Content: content, Model: resp.Model, Usage: resp.Usage}, nil
}
