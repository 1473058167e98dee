// Package chat relays free-text questions to a chat-completion model. Every
// outcome, failures included, is returned as displayable answer text.
package chat

import (
	"context"
	"strings"

	"github.com/kbukum/voxrelay/llm"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/provider"
)

// Answers returned instead of errors.
const (
	SystemPrompt       = "You answer user questions concisely and clearly."
	AnswerMissingQ     = "Error: question is missing"
	AnswerMissingKey   = "OpenAI API key is missing"
	chatErrorPrefix    = "Chat error: "
	defaultTemperature = 0.2
)

// Completer is the chat model as seen by the relay.
type Completer = provider.RequestResponse[llm.CompletionRequest, llm.CompletionResponse]

// Config controls the relay.
type Config struct {
	Model        string  `yaml:"model" mapstructure:"model"`
	Temperature  float64 `yaml:"temperature" mapstructure:"temperature"`
	UseWebSearch bool    `yaml:"use_web_search" mapstructure:"use_web_search"`
}

// Relay answers questions through a Completer.
type Relay struct {
	cfg       Config
	completer Completer
	log       *logger.Logger
}

// NewRelay creates a relay. A zero temperature defaults to 0.2.
func NewRelay(cfg Config, completer Completer, log *logger.Logger) *Relay {
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Relay{cfg: cfg, completer: completer, log: log.WithComponent("chat")}
}

// Ask returns the model's reply to question, or a textual explanation of why
// there is none.
func (r *Relay) Ask(ctx context.Context, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerMissingQ
	}
	if r.completer == nil || !r.completer.IsAvailable(ctx) {
		return AnswerMissingKey
	}

	req := llm.CompletionRequest{
		Model:        r.cfg.Model,
		SystemPrompt: SystemPrompt,
		Messages:     []llm.Message{llm.UserMessage(question)},
		Temperature:  r.cfg.Temperature,
	}
	if r.cfg.UseWebSearch {
		req.Extra = map[string]any{"web_search_options": map[string]any{}}
	}

	resp, err := r.completer.Execute(ctx, req)
	if err != nil {
		r.log.WithContext(ctx).Warn("chat completion failed", logger.Fields(logger.FieldError, err.Error()))
		return chatErrorPrefix + err.Error()
	}
	return resp.Content
}
