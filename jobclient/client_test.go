package jobclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fastConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Polling: PollConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     4 * time.Millisecond,
			Multiplier:      1.5,
			Timeout:         time.Second,
		},
	}
}

func newClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{BaseURL: "http://backend:5000"}
	cfg.ApplyDefaults()
	if cfg.Polling.InitialInterval != 500*time.Millisecond || cfg.Polling.MaxInterval != 3*time.Second ||
		cfg.Polling.Multiplier != 1.5 || cfg.Polling.Timeout != 180*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg.Polling)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}

func TestUpload(t *testing.T) {
	var gotName, gotType, gotBody, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		f, fh, err := r.FormFile("audio")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Missing audio"}`)
			return
		}
		data, _ := io.ReadAll(f)
		gotName, gotType, gotBody = fh.Filename, fh.Header.Get("Content-Type"), string(data)
		_, _ = io.WriteString(w, `{"recording_id":"job-42"}`)
	}))
	defer srv.Close()

	cfg := fastConfig(srv.URL)
	cfg.Token = "tok"
	c := newClient(t, cfg)
	id, err := c.Upload(context.Background(), "audio.m4a", "audio/ogg", strings.NewReader("OggS"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "job-42" || gotName != "audio.m4a" || gotType != "audio/ogg" || gotBody != "OggS" {
		t.Fatalf("id=%q name=%q type=%q body=%q", id, gotName, gotType, gotBody)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("authorization = %q", gotAuth)
	}
}

func TestUpload_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"Transcription queue is full. Try again later."}`)
	}))
	defer srv.Close()

	_, err := newClient(t, fastConfig(srv.URL)).Upload(context.Background(), "a.m4a", "audio/m4a", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "queue is full") {
		t.Fatalf("err = %v", err)
	}
}

func TestUpload_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	if _, err := newClient(t, fastConfig(srv.URL)).Upload(context.Background(), "a.m4a", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected error")
	}
}

// scripted answers status reads from a fixed list, repeating the last entry.
type scripted struct {
	mu      sync.Mutex
	replies []reply
	reads   int
	times   []time.Time
}

type reply struct {
	code int
	body string
}

func (s *scripted) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i := s.reads
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	s.reads++
	s.times = append(s.times, time.Now())
	rep := s.replies[i]
	s.mu.Unlock()

	w.WriteHeader(rep.code)
	_, _ = io.WriteString(w, rep.body)
}

func TestWait(t *testing.T) {
	processing := reply{http.StatusOK, `{"status":"processing"}`}
	tests := []struct {
		name    string
		replies []reply
		want    string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "ready after processing",
			replies: []reply{processing, processing, {http.StatusOK, `{"status":"ready","transcription":"hello world"}`}},
			want:    "hello world",
		},
		{
			name:    "transient failure is retried",
			replies: []reply{{http.StatusBadGateway, `bad gateway`}, {http.StatusOK, `{"status":"READY","transcription":"ok"}`}},
			want:    "ok",
		},
		{
			name:    "job error",
			replies: []reply{processing, {http.StatusOK, `{"status":"error","error":"Whisper request failed: 500"}`}},
			check: func(t *testing.T, err error) {
				var je *JobError
				if !errors.As(err, &je) || je.Message != "Whisper request failed: 500" {
					t.Fatalf("err = %v", err)
				}
			},
		},
		{
			name:    "unknown job",
			replies: []reply{{http.StatusNotFound, `{"error":"Unknown job"}`}},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrJobNotFound) {
					t.Fatalf("err = %v", err)
				}
			},
		},
		{
			name:    "empty transcription",
			replies: []reply{{http.StatusOK, `{"status":"ready","transcription":""}`}},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyTranscription) {
					t.Fatalf("err = %v", err)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(&scripted{replies: tc.replies})
			defer srv.Close()

			text, err := newClient(t, fastConfig(srv.URL)).Wait(context.Background(), "job-1")
			if tc.check != nil {
				tc.check(t, err)
				return
			}
			if err != nil || text != tc.want {
				t.Fatalf("Wait = %q, %v", text, err)
			}
		})
	}
}

func TestWait_Timeout(t *testing.T) {
	srv := httptest.NewServer(&scripted{replies: []reply{{http.StatusOK, `{"status":"processing"}`}}})
	defer srv.Close()

	cfg := fastConfig(srv.URL)
	cfg.Polling.Timeout = 30 * time.Millisecond
	start := time.Now()
	_, err := newClient(t, cfg).Wait(context.Background(), "job-1")
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Wait overran its budget: %s", time.Since(start))
	}
}

func TestWait_IntervalsGrowAndCap(t *testing.T) {
	s := &scripted{replies: []reply{{http.StatusOK, `{"status":"processing"}`}}}
	srv := httptest.NewServer(s)
	defer srv.Close()

	cfg := fastConfig(srv.URL)
	cfg.Polling = PollConfig{InitialInterval: 20 * time.Millisecond, MaxInterval: 45 * time.Millisecond, Multiplier: 1.5, Timeout: 400 * time.Millisecond}
	_, _ = newClient(t, cfg).Wait(context.Background(), "job-1")

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.times) < 4 {
		t.Fatalf("only %d reads", len(s.times))
	}
	// 20ms, 30ms, 45ms, 45ms...
	gap := s.times[2].Sub(s.times[1])
	if gap < 25*time.Millisecond {
		t.Errorf("second gap %s did not grow", gap)
	}
	for i := 3; i < len(s.times); i++ {
		if g := s.times[i].Sub(s.times[i-1]); g < 40*time.Millisecond {
			t.Errorf("gap %d = %s, want capped interval", i, g)
		}
	}
}

func TestWait_CallerCancel(t *testing.T) {
	var reads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reads.Add(1)
		_, _ = io.WriteString(w, `{"status":"processing"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newClient(t, fastConfig(srv.URL)).Wait(ctx, "job-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if reads.Load() != 0 {
		t.Errorf("reads = %d", reads.Load())
	}
}
