package transcription

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/httpclient"
)

type stubProvider struct{ text string }

func (s *stubProvider) Name() string                     { return "stub" }
func (s *stubProvider) IsAvailable(context.Context) bool { return true }
func (s *stubProvider) Transcribe(context.Context, Request) (*Result, error) {
	return &Result{Text: s.text, Provider: "stub"}, nil
}

func TestWrap(t *testing.T) {
	rr := Wrap(&stubProvider{text: "hi"})
	if rr.Name() != "stub" || !rr.IsAvailable(context.Background()) {
		t.Fatal("wrapped provider must delegate Name and IsAvailable")
	}
	res, err := rr.Execute(context.Background(), Request{JobID: "j"})
	if err != nil || res.Text != "hi" {
		t.Fatalf("Execute = %+v, %v", res, err)
	}
}

func TestResult_DisplayText(t *testing.T) {
	if (&Result{Text: "x"}).DisplayText() != "x" {
		t.Error("non-empty text must be returned as-is")
	}
	if (&Result{}).DisplayText() != EmptyText {
		t.Error("empty text must become the sentinel")
	}
	var nilResult *Result
	if nilResult.DisplayText() != EmptyText {
		t.Error("nil result must become the sentinel")
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom"},
		{"app error", apperrors.ProviderUnavailable("whisper", "api key is missing"), "whisper is unavailable: api key is missing"},
		{"http status", CallError("p", "Poll failed", httpclient.ClassifyStatusCode(500, []byte("down"))), "Poll failed: 500 down"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorText(tc.err); got != tc.want {
				t.Errorf("ErrorText = %q, want %q", got, tc.want)
			}
		})
	}
}
