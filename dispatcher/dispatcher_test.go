package dispatcher

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/voxrelay/component"
	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/job"
	"github.com/kbukum/voxrelay/provider"
	"github.com/kbukum/voxrelay/storage/testutil"
	"github.com/kbukum/voxrelay/transcription"
)

func fixed(name, text string, err error) Transcriber {
	return provider.Func(name, func(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
		if err != nil {
			return nil, err
		}
		return &transcription.Result{Text: text, Provider: name}, nil
	})
}

type unavailable struct{ Transcriber }

func (unavailable) IsAvailable(context.Context) bool { return false }

func newDispatcher(t *testing.T, cfg Config, providers ...Transcriber) (*Dispatcher, *job.Store, *testutil.MemoryStorage) {
	t.Helper()
	store := job.NewStore()
	st := testutil.NewMemoryStorage("http://backend.test")
	d := New(cfg, store, st, NewFallbackPolicy(nil, providers...))
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Stop(context.Background()) })
	return d, store, st
}

func waitTerminal(t *testing.T, store *job.Store, id string) job.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := store.Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if j.Status.IsTerminal() {
			return j
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return job.Job{}
}

func submit(t *testing.T, d *Dispatcher, body string) string {
	t.Helper()
	id, err := d.Submit(context.Background(), Upload{FileName: "audio.m4a", Body: strings.NewReader(body)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return id
}

func TestDispatcher_PrimarySucceeds(t *testing.T) {
	d, store, st := newDispatcher(t, Config{}, fixed("whisper", "hello world", nil), fixed("assemblyai", "unused", nil))
	id := submit(t, d, "clip")

	j := waitTerminal(t, store, id)
	if j.Status != job.StatusReady || j.Text != "hello world" {
		t.Fatalf("unexpected job %+v", j)
	}
	if j.AudioKey != id+".m4a" {
		t.Errorf("audio key = %q", j.AudioKey)
	}
	if ok, _ := st.Exists(context.Background(), j.AudioKey); !ok {
		t.Error("worker must not delete the audio")
	}
}

func TestDispatcher_FallbackToSecondary(t *testing.T) {
	d, store, _ := newDispatcher(t, Config{},
		fixed("whisper", "", errors.New("whisper down")),
		fixed("assemblyai", "from fallback", nil))
	id := submit(t, d, "clip")

	j := waitTerminal(t, store, id)
	if j.Status != job.StatusReady || j.Text != "from fallback" {
		t.Fatalf("unexpected job %+v", j)
	}
}

func TestDispatcher_SkipsUnconfiguredPrimary(t *testing.T) {
	d, store, _ := newDispatcher(t, Config{},
		unavailable{fixed("whisper", "never", nil)},
		fixed("assemblyai", "secondary text", nil))
	j := waitTerminal(t, store, submit(t, d, "clip"))
	if j.Status != job.StatusReady || j.Text != "secondary text" {
		t.Fatalf("unexpected job %+v", j)
	}
}

func TestDispatcher_NoProviders(t *testing.T) {
	d, store, _ := newDispatcher(t, Config{},
		unavailable{fixed("whisper", "", nil)},
		unavailable{fixed("assemblyai", "", nil)})
	j := waitTerminal(t, store, submit(t, d, "clip"))
	if j.Status != job.StatusError || j.Text != NoProviderText {
		t.Fatalf("unexpected job %+v", j)
	}
}

func TestDispatcher_BothFail(t *testing.T) {
	d, store, _ := newDispatcher(t, Config{},
		fixed("whisper", "", errors.New("whisper down")),
		fixed("assemblyai", "", apperrors.New(apperrors.ErrCodeTimeout, "Transcription timed out", 504)))
	j := waitTerminal(t, store, submit(t, d, "clip"))
	if j.Status != job.StatusError || j.Text != "Transcription timed out" {
		t.Fatalf("unexpected job %+v", j)
	}
}

func TestDispatcher_EmptyTranscription(t *testing.T) {
	d, store, _ := newDispatcher(t, Config{}, fixed("whisper", "", nil))
	j := waitTerminal(t, store, submit(t, d, "clip"))
	if j.Status != job.StatusReady || j.Text != transcription.EmptyText {
		t.Fatalf("unexpected job %+v", j)
	}
}

func TestDispatcher_PanicBecomesError(t *testing.T) {
	boom := provider.Func("whisper", func(context.Context, transcription.Request) (*transcription.Result, error) {
		panic("nil map write")
	})
	d, store, _ := newDispatcher(t, Config{}, boom)
	j := waitTerminal(t, store, submit(t, d, "clip"))
	if j.Status != job.StatusError || !strings.Contains(j.Text, "nil map write") {
		t.Fatalf("unexpected job %+v", j)
	}
}

func TestDispatcher_JobTimeout(t *testing.T) {
	slow := provider.Func("whisper", func(ctx context.Context, _ transcription.Request) (*transcription.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	d, store, _ := newDispatcher(t, Config{JobTimeout: 20 * time.Millisecond}, slow)
	j := waitTerminal(t, store, submit(t, d, "clip"))
	if j.Status != job.StatusError || j.Text != "transcription timed out" {
		t.Fatalf("unexpected job %+v", j)
	}
}

func TestDispatcher_ProviderReadsStoredAudio(t *testing.T) {
	var got atomic.Value
	reader := provider.Func("whisper", func(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
		rc, err := req.Audio.Open(ctx)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		got.Store(string(data))
		return &transcription.Result{Text: "ok"}, nil
	})
	d, store, _ := newDispatcher(t, Config{}, reader)
	waitTerminal(t, store, submit(t, d, "the bytes"))
	if got.Load() != "the bytes" {
		t.Errorf("provider read %v", got.Load())
	}
}

func TestDispatcher_SubmitValidation(t *testing.T) {
	d, store, st := newDispatcher(t, Config{}, fixed("whisper", "x", nil))
	ctx := context.Background()

	if _, err := d.Submit(ctx, Upload{FileName: "", Body: strings.NewReader("x")}); err != ErrEmptyFilename {
		t.Errorf("expected ErrEmptyFilename, got %v", err)
	}
	if _, err := d.Submit(ctx, Upload{FileName: "a.m4a", Body: strings.NewReader("")}); err != ErrEmptyAudio {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
	if store.Len() != 0 || st.Len() != 0 {
		t.Errorf("rejected uploads must leave nothing behind: jobs=%d objects=%d", store.Len(), st.Len())
	}
}

func TestDispatcher_QueueFullFailsFast(t *testing.T) {
	release := make(chan struct{})
	blocking := provider.Func("whisper", func(ctx context.Context, _ transcription.Request) (*transcription.Result, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return &transcription.Result{Text: "done"}, nil
	})
	d, store, st := newDispatcher(t, Config{Workers: 1, QueueSize: 1}, blocking)
	defer close(release)
	ctx := context.Background()

	first := submit(t, d, "a")
	// Wait until the single worker has taken the first job.
	deadline := time.Now().Add(time.Second)
	for d.QueueDepth() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	submit(t, d, "b")

	start := time.Now()
	_, err := d.Submit(ctx, Upload{FileName: "c.m4a", Body: strings.NewReader("c")})
	if !apperrors.HasCode(err, apperrors.ErrCodeQueueFull) {
		t.Fatalf("expected QUEUE_FULL, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Submit must not block when the queue is full")
	}
	if store.Len() != 2 || st.Len() != 2 {
		t.Errorf("rejected submission left state: jobs=%d objects=%d", store.Len(), st.Len())
	}
	if h := d.Health(ctx); h.Status != component.StatusDegraded {
		t.Errorf("health = %+v, want degraded", h)
	}
	if j, _ := store.Get(first); j.Status != job.StatusProcessing {
		t.Errorf("first job should still be processing, got %s", j.Status)
	}
}

func TestDispatcher_SubmitReturnsBeforeTranscription(t *testing.T) {
	release := make(chan struct{})
	slow := provider.Func("whisper", func(ctx context.Context, _ transcription.Request) (*transcription.Result, error) {
		<-release
		return &transcription.Result{Text: "late"}, nil
	})
	d, store, _ := newDispatcher(t, Config{}, slow)

	id := submit(t, d, "clip")
	j, err := store.Fetch(context.Background(), id)
	if err != nil || j.Status != job.StatusProcessing {
		t.Fatalf("expected processing right after submit, got %+v %v", j, err)
	}
	close(release)
	if j := waitTerminal(t, store, id); j.Text != "late" {
		t.Fatalf("unexpected job %+v", j)
	}
}

func TestDispatcher_Lifecycle(t *testing.T) {
	store := job.NewStore()
	st := testutil.NewMemoryStorage("")
	d := New(Config{}, store, st, NewFallbackPolicy(nil))
	ctx := context.Background()

	if _, err := d.Submit(ctx, Upload{FileName: "a.m4a", Body: strings.NewReader("x")}); !apperrors.HasCode(err, apperrors.ErrCodeServiceUnavailable) {
		t.Fatalf("submit before start must fail, got %v", err)
	}
	if h := d.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %+v", h)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := d.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %+v", h)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if _, err := d.Submit(ctx, Upload{FileName: "a.m4a", Body: strings.NewReader("x")}); err == nil {
		t.Fatal("submit after stop must fail")
	}
}
