// Package keycheck verifies provider API keys with a few live calls.
package keycheck

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/kbukum/voxrelay/httpclient"
	"github.com/kbukum/voxrelay/transcription/assemblyai"
	"github.com/kbukum/voxrelay/util"
)

// SampleAudioURL is a public clip used to exercise the AssemblyAI key.
const SampleAudioURL = "https://storage.googleapis.com/aai-docs-samples/test.mp3"

// Result is the verdict for one key.
type Result struct {
	Provider string   `json:"provider"`
	Valid    bool     `json:"valid"`
	Detail   string   `json:"detail"`
	Models   []string `json:"models,omitempty"`
}

// Checker holds endpoints and polling limits. The zero value checks the
// public APIs.
type Checker struct {
	OpenAIBaseURL     string
	AssemblyAIBaseURL string
	SampleURL         string
	PollInterval      time.Duration
	MaxPolls          int
	Timeout           time.Duration
}

func (c Checker) withDefaults() Checker {
	c.OpenAIBaseURL = util.Coalesce(c.OpenAIBaseURL, "https://api.openai.com")
	c.AssemblyAIBaseURL = util.Coalesce(c.AssemblyAIBaseURL, "https://api.assemblyai.com")
	c.SampleURL = util.Coalesce(c.SampleURL, SampleAudioURL)
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// CheckOpenAI lists the models the key can see. The key is valid when the
// list succeeds; Models holds the visible whisper models.
func (c Checker) CheckOpenAI(ctx context.Context, key string) Result {
	c = c.withDefaults()
	res := Result{Provider: "openai"}
	key = strings.TrimSpace(key)
	if key == "" {
		res.Detail = "key is empty"
		return res
	}

	client, err := httpclient.New(httpclient.Config{
		BaseURL: c.OpenAIBaseURL,
		Timeout: c.Timeout,
		Auth:    httpclient.BearerAuth(key),
	})
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	type modelList struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	list, err := httpclient.GetJSON[modelList](ctx, client, "/v1/models", nil)
	if err != nil {
		res.Detail = describeFailure(err)
		return res
	}

	for _, m := range list.Data {
		if strings.Contains(strings.ToLower(m.ID), "whisper") {
			res.Models = append(res.Models, m.ID)
		}
	}
	sort.Strings(res.Models)
	res.Valid = true
	if len(res.Models) == 0 {
		res.Detail = fmt.Sprintf("key works, %d models visible but no whisper model", len(list.Data))
	} else {
		res.Detail = "key works, transcription models: " + strings.Join(res.Models, ", ")
	}
	return res
}

// CheckAssemblyAI creates a transcript for the sample clip and polls it a
// bounded number of times. A created transcript already proves the key, so
// errors about the audio itself and running out of polls still count as
// valid.
func (c Checker) CheckAssemblyAI(ctx context.Context, key string) Result {
	c = c.withDefaults()
	res := Result{Provider: "assemblyai"}
	key = strings.TrimSpace(key)
	if key == "" {
		res.Detail = "key is empty"
		return res
	}

	p, err := assemblyai.NewProvider(assemblyai.Config{BaseURL: c.AssemblyAIBaseURL, APIKey: key, Timeout: c.Timeout})
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	id, err := p.Create(ctx, c.SampleURL)
	if err != nil {
		res.Detail = describeFailure(err)
		return res
	}

	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()
	for attempt := 1; attempt <= c.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			res.Valid = true
			res.Detail = "transcript " + id + " created; stopped waiting: " + ctx.Err().Error()
			return res
		case <-ticker.C:
		}

		t, err := p.Poll(ctx, id)
		if err != nil {
			if httpclient.StatusCode(err) == http.StatusUnauthorized {
				res.Detail = describeFailure(err)
				return res
			}
			continue
		}
		switch t.Status {
		case assemblyai.StatusCompleted:
			res.Valid = true
			res.Detail = "transcription completed: " + truncate(t.Text, 100)
			return res
		case assemblyai.StatusError:
			if isAudioProblem(t.Error) {
				res.Valid = true
				res.Detail = "key works; sample audio failed: " + t.Error
				return res
			}
			res.Detail = "transcription error: " + t.Error
			return res
		}
	}
	res.Valid = true
	res.Detail = fmt.Sprintf("transcript %s created; not finished after %d polls", id, c.MaxPolls)
	return res
}

func isAudioProblem(msg string) bool {
	msg = strings.ToLower(msg)
	for _, w := range []string{"download", "file", "url"} {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

func describeFailure(err error) string {
	switch {
	case httpclient.StatusCode(err) == http.StatusUnauthorized:
		return "key is invalid or expired (401)"
	case httpclient.IsAuth(err):
		return "access denied (403)"
	case httpclient.IsRateLimit(err):
		return "rate limit or quota exceeded (429)"
	case httpclient.IsTimeout(err):
		return "request timed out: " + err.Error()
	}
	return err.Error()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
