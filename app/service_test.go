package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxrelay/chat"
)

func init() { gin.SetMode(gin.TestMode) }

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Jobs.DataDir = t.TempDir()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestBuild_Components(t *testing.T) {
	svc, err := Build(context.Background(), testConfig(t), nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var names []string
	for _, c := range svc.Components() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "dispatcher,http-server" {
		t.Errorf("components = %s", got)
	}
	if svc.Tokens != nil {
		t.Error("auth disabled but token service built")
	}
}

func TestBuild_InfoAndFiles(t *testing.T) {
	cfg := testConfig(t)
	svc, err := Build(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := svc.Store.Create(context.Background(), "job-1", "job-1.m4a"); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	svc.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("info status = %d", rec.Code)
	}
	var info struct {
		Service    string         `json:"service"`
		Jobs       map[string]int `json:"jobs"`
		QueueDepth *int           `json:"queue_depth"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Service != ServiceName || info.Jobs["processing"] != 1 || info.QueueDepth == nil {
		t.Errorf("info = %+v", info)
	}

	if err := os.WriteFile(filepath.Join(cfg.Jobs.DataDir, "job-1.m4a"), []byte("audio"), 0o600); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	svc.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/job-1.m4a", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "audio" {
		t.Errorf("files = %d %q", rec.Code, rec.Body.String())
	}
}

func TestBuild_AuthGuardsAPI(t *testing.T) {
	cfg := &Config{}
	cfg.Jobs.DataDir = t.TempDir()
	cfg.Auth.Enabled = true
	cfg.Auth.Secret = "test-secret"
	cfg.ApplyDefaults()

	svc, err := Build(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ask := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		svc.Server.Handler().ServeHTTP(rec, req)
		return rec
	}

	if rec := ask(""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", rec.Code)
	}
	token, err := svc.Tokens.Issue("tester", "client")
	if err != nil {
		t.Fatal(err)
	}
	rec := ask(token)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: status = %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != chat.AnswerMissingKey {
		t.Errorf("answer = %q", resp.Answer)
	}

	files := httptest.NewRecorder()
	svc.Server.Handler().ServeHTTP(files, httptest.NewRequest(http.MethodGet, "/files/missing.m4a", nil))
	if files.Code != http.StatusNotFound {
		t.Errorf("files route should bypass auth, got %d", files.Code)
	}
}

func TestBuild_Mirrors(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := &Config{}
	cfg.Jobs.DataDir = t.TempDir()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mini.Addr()
	cfg.Mirror.EncryptionKey = "mirror-passphrase"
	cfg.ApplyDefaults()

	svc, err := Build(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := svc.Components()[0].Name(); got != "redis" {
		t.Errorf("first component = %q, want redis", got)
	}

	ctx := context.Background()
	if _, err := svc.Store.Create(ctx, "job-1", "job-1.m4a"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Store.CompleteReady(ctx, "job-1", "hello world"); err != nil {
		t.Fatal(err)
	}

	if !mini.Exists("voxrelay:job:job-1") {
		t.Fatalf("redis mirror key missing, keys: %v", mini.Keys())
	}
	if raw, _ := mini.Get("voxrelay:job:job-1"); strings.Contains(raw, "hello world") {
		t.Error("redis payload should be sealed")
	}
	side, err := os.ReadFile(filepath.Join(cfg.Jobs.DataDir, "job-1.txt"))
	if err != nil {
		t.Fatalf("side file: %v", err)
	}
	if strings.Contains(string(side), "hello world") {
		t.Error("side file should be sealed")
	}

	if _, err := svc.Store.Consume(ctx, "job-1"); err != nil {
		t.Fatal(err)
	}
	if mini.Exists("voxrelay:job:job-1") {
		t.Error("consumed job should leave redis")
	}
	if _, err := os.Stat(filepath.Join(cfg.Jobs.DataDir, "job-1.txt")); err != nil {
		t.Errorf("side file should outlive the job: %v", err)
	}
}

func TestBuild_FileMirrorDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mirror.DisableFiles = true
	svc, err := Build(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_, _ = svc.Store.Create(ctx, "job-2", "job-2.m4a")
	_ = svc.Store.CompleteError(ctx, "job-2", "boom")
	if _, err := os.Stat(filepath.Join(cfg.Jobs.DataDir, "job-2.txt")); !os.IsNotExist(err) {
		t.Errorf("side file written with files disabled: %v", err)
	}
}

func TestBuild_HistoryRequiresAdmin(t *testing.T) {
	cfg := &Config{}
	cfg.Jobs.DataDir = t.TempDir()
	cfg.Database.Enabled = true
	cfg.Auth.Enabled = true
	cfg.Auth.Secret = "test-secret"
	cfg.ApplyDefaults()
	if cfg.Database.DSN != filepath.Join(cfg.Jobs.DataDir, "db", "jobs.db") {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}

	svc, err := Build(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() {
		for _, c := range svc.Components() {
			_ = c.Stop(context.Background())
		}
	})
	if svc.History == nil {
		t.Fatal("history mirror not built")
	}

	ctx := context.Background()
	_, _ = svc.Store.Create(ctx, "job-9", "job-9.m4a")
	_ = svc.Store.CompleteError(ctx, "job-9", "no provider")

	list := func(role string) *httptest.ResponseRecorder {
		token, err := svc.Tokens.Issue("tester", role)
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		svc.Server.Handler().ServeHTTP(rec, req)
		return rec
	}

	if rec := list("client"); rec.Code != http.StatusForbidden {
		t.Errorf("client: status = %d", rec.Code)
	}
	rec := list("admin")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Jobs []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].ID != "job-9" || resp.Jobs[0].Status != "error" {
		t.Errorf("jobs = %+v", resp.Jobs)
	}
}

func TestBuild_FilesServesOnlyLiveAudio(t *testing.T) {
	cfg := &Config{}
	cfg.Jobs.DataDir = t.TempDir()
	cfg.Database.Enabled = true
	cfg.Auth.Enabled = true
	cfg.Auth.Secret = "test-secret"
	cfg.ApplyDefaults()

	svc, err := Build(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() {
		for _, c := range svc.Components() {
			_ = c.Stop(context.Background())
		}
	})

	ctx := context.Background()
	_, _ = svc.Store.Create(ctx, "job-1", "job-1.m4a")
	if err := os.WriteFile(filepath.Join(cfg.Jobs.DataDir, "job-1.m4a"), []byte("audio"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := svc.Store.CompleteError(ctx, "job-1", "secret reason"); err != nil {
		t.Fatal(err)
	}
	// A database file dropped into data_dir must stay private too.
	if err := os.WriteFile(filepath.Join(cfg.Jobs.DataDir, "jobs.db"), []byte("sqlite"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Jobs.DataDir, "job-1.txt")); err != nil {
		t.Fatalf("side file missing: %v", err)
	}

	get := func(path string) int {
		rec := httptest.NewRecorder()
		svc.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}
	tests := []struct {
		path string
		want int
	}{
		{"/files/job-1.m4a", http.StatusOK},
		{"/files/jobs.db", http.StatusNotFound},
		{"/files/job-1.txt", http.StatusNotFound},
		{"/files/db", http.StatusNotFound},
		{"/api/jobs", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		if got := get(tt.path); got != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, got, tt.want)
		}
	}
}
