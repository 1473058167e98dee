package keycheck

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCheckOpenAI(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantValid bool
		wantInfo  string
	}{
		{"whisper visible", 200, `{"data":[{"id":"gpt-4o"},{"id":"whisper-1"}]}`, true, "whisper-1"},
		{"no whisper", 200, `{"data":[{"id":"gpt-4o"}]}`, true, "no whisper model"},
		{"unauthorized", 401, `{"error":{"message":"bad key"}}`, false, "401"},
		{"rate limited", 429, `{}`, false, "429"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				if r.URL.Path != "/v1/models" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			res := Checker{OpenAIBaseURL: srv.URL}.CheckOpenAI(context.Background(), " sk-test ")
			if res.Valid != tc.wantValid || !strings.Contains(res.Detail, tc.wantInfo) {
				t.Fatalf("result %+v", res)
			}
			if auth != "Bearer sk-test" {
				t.Errorf("authorization = %q", auth)
			}
		})
	}
}

func TestCheckOpenAI_EmptyKey(t *testing.T) {
	if res := (Checker{}).CheckOpenAI(context.Background(), "  "); res.Valid {
		t.Fatal("empty key must be invalid")
	}
}

func TestCheckAssemblyAI(t *testing.T) {
	tests := []struct {
		name       string
		createCode int
		polls      []string
		wantValid  bool
		wantInfo   string
	}{
		{"completed", 200, []string{`{"status":"queued"}`, `{"status":"completed","text":"hi"}`}, true, "completed: hi"},
		{"audio problem", 200, []string{`{"status":"error","error":"Download error, unable to download"}`}, true, "sample audio failed"},
		{"other error", 200, []string{`{"status":"error","error":"account suspended"}`}, false, "account suspended"},
		{"never finishes", 200, []string{`{"status":"processing"}`}, true, "not finished after 3 polls"},
		{"bad key", 401, nil, false, "401"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var polls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("authorization") != "aai-key" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				switch {
				case r.Method == http.MethodPost && r.URL.Path == "/v2/transcript":
					w.WriteHeader(tc.createCode)
					_, _ = io.WriteString(w, `{"id":"tr-1","status":"queued"}`)
				case r.Method == http.MethodGet && r.URL.Path == "/v2/transcript/tr-1":
					i := int(polls.Add(1)) - 1
					if i >= len(tc.polls) {
						i = len(tc.polls) - 1
					}
					_, _ = io.WriteString(w, `{"id":"tr-1",`+strings.TrimPrefix(tc.polls[i], "{"))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer srv.Close()

			c := Checker{AssemblyAIBaseURL: srv.URL, PollInterval: time.Millisecond, MaxPolls: 3}
			res := c.CheckAssemblyAI(context.Background(), "aai-key")
			if res.Valid != tc.wantValid || !strings.Contains(res.Detail, tc.wantInfo) {
				t.Fatalf("result %+v", res)
			}
			if int(polls.Load()) > c.MaxPolls {
				t.Errorf("polled %d times", polls.Load())
			}
		})
	}
}
