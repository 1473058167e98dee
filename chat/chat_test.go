package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/voxrelay/llm"
	"github.com/kbukum/voxrelay/provider"
)

type stubCompleter struct {
	available bool
	reply     string
	err       error
	got       llm.CompletionRequest
}

func (s *stubCompleter) Name() string                     { return "stub" }
func (s *stubCompleter) IsAvailable(context.Context) bool { return s.available }
func (s *stubCompleter) Execute(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	s.got = req
	if s.err != nil {
		return llm.CompletionResponse{}, s.err
	}
	return llm.CompletionResponse{Content: s.reply}, nil
}

var _ provider.RequestResponse[llm.CompletionRequest, llm.CompletionResponse] = (*stubCompleter)(nil)

func TestRelay_Ask(t *testing.T) {
	tests := []struct {
		name     string
		question string
		stub     *stubCompleter
		want     string
		prefix   bool
	}{
		{"empty question", "   ", &stubCompleter{available: true}, AnswerMissingQ, false},
		{"missing key", "hi", &stubCompleter{available: false}, AnswerMissingKey, false},
		{"answer", "capital of France?", &stubCompleter{available: true, reply: "Paris"}, "Paris", false},
		{"provider error", "hi", &stubCompleter{available: true, err: errors.New("HTTP 500")}, "Chat error: ", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRelay(Config{Model: "gpt-4o-mini"}, tc.stub, nil)
			got := r.Ask(context.Background(), tc.question)
			if tc.prefix {
				if !strings.HasPrefix(got, tc.want) {
					t.Errorf("Ask = %q, want prefix %q", got, tc.want)
				}
				return
			}
			if got != tc.want {
				t.Errorf("Ask = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRelay_RequestShape(t *testing.T) {
	stub := &stubCompleter{available: true, reply: "ok"}
	r := NewRelay(Config{Model: "gpt-4o-mini"}, stub, nil)
	r.Ask(context.Background(), "  question  ")

	if stub.got.SystemPrompt != SystemPrompt || stub.got.Temperature != 0.2 || stub.got.Model != "gpt-4o-mini" {
		t.Errorf("unexpected request %+v", stub.got)
	}
	if len(stub.got.Messages) != 1 || stub.got.Messages[0].Content != "question" {
		t.Errorf("unexpected messages %+v", stub.got.Messages)
	}
	if stub.got.Extra != nil {
		t.Error("web search must be off by default")
	}

	search := NewRelay(Config{UseWebSearch: true}, stub, nil)
	search.Ask(context.Background(), "news")
	if _, ok := stub.got.Extra["web_search_options"]; !ok {
		t.Error("expected web_search_options when enabled")
	}
}

func TestRelay_NilCompleter(t *testing.T) {
	r := NewRelay(Config{}, nil, nil)
	if got := r.Ask(context.Background(), "hi"); got != AnswerMissingKey {
		t.Errorf("Ask = %q", got)
	}
}
