package job

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/voxrelay/database"
	"github.com/kbukum/voxrelay/database/migration"
	"github.com/kbukum/voxrelay/encryption"
)

func newHistoryDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{Enabled: true, DSN: filepath.Join(t.TempDir(), "jobs.db")}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migration.Up(db, Migrations, MigrationsDir); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSQLMirror_Lifecycle(t *testing.T) {
	mirror := NewSQLMirror(newHistoryDB(t), nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(WithMirror(mirror), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if _, err := store.Create(ctx, "job-1", "job-1.m4a"); err != nil {
		t.Fatal(err)
	}
	rec, err := mirror.Load(ctx, "job-1")
	if err != nil || rec == nil || rec.Status != StatusProcessing {
		t.Fatalf("after create: %+v, %v", rec, err)
	}

	now = now.Add(time.Minute)
	if err := store.CompleteReady(ctx, "job-1", "hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Fetch(ctx, "job-1"); err != nil {
		t.Fatal(err)
	}

	rec, err = mirror.Load(ctx, "job-1")
	if err != nil || rec == nil {
		t.Fatalf("after fetch: %+v, %v", rec, err)
	}
	if rec.Status != StatusReady || rec.Text != "hello" || !rec.Consumed || rec.AudioKey != "job-1.m4a" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.CompletedAt.Equal(now) {
		t.Errorf("completed_at = %v, want %v", rec.CompletedAt, now)
	}

	if missing, err := mirror.Load(ctx, "nope"); err != nil || missing != nil {
		t.Errorf("missing = %+v, %v", missing, err)
	}
}

func TestSQLMirror_Recent(t *testing.T) {
	mirror := NewSQLMirror(newHistoryDB(t), nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		rec := Record{Job: Job{ID: id, AudioKey: id + ".m4a", Status: StatusProcessing, CreatedAt: base.Add(time.Duration(i) * time.Minute)}, UpdatedAt: base}
		if err := mirror.Write(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	recent, err := mirror.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestSQLMirror_Sealed(t *testing.T) {
	db := newHistoryDB(t)
	enc, err := encryption.New("history-key")
	if err != nil {
		t.Fatal(err)
	}
	mirror := NewSQLMirror(db, enc)
	ctx := context.Background()
	rec := Record{Job: Job{ID: "s", AudioKey: "s.m4a", Status: StatusError, Text: "provider exploded", CreatedAt: time.Now()}, UpdatedAt: time.Now()}
	if err := mirror.Write(ctx, rec); err != nil {
		t.Fatal(err)
	}

	var raw string
	if err := db.WithContext(ctx).Raw("SELECT text FROM job_records WHERE id = ?", "s").Scan(&raw).Error; err != nil {
		t.Fatal(err)
	}
	if strings.Contains(raw, "provider exploded") {
		t.Error("text stored in the clear")
	}
	got, err := mirror.Load(ctx, "s")
	if err != nil || got.Text != "provider exploded" {
		t.Errorf("load = %+v, %v", got, err)
	}
}
