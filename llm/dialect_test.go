package llm

import (
	"encoding/json"
	"testing"
)

type mockDialect struct{ name string }

func (m *mockDialect) Name() string                                    { return m.name }
func (m *mockDialect) ChatPath() string                                { return "/chat" }
func (m *mockDialect) BuildRequest(req CompletionRequest) (any, error) { return req, nil }
func (m *mockDialect) ParseResponse(json.RawMessage) (*CompletionResponse, error) {
	return &CompletionResponse{Content: "ok"}, nil
}

func withCleanRegistry(t *testing.T) {
	t.Helper()
	dialectsMu.Lock()
	original := dialects
	dialects = map[string]Dialect{}
	dialectsMu.Unlock()
	t.Cleanup(func() {
		dialectsMu.Lock()
		dialects = original
		dialectsMu.Unlock()
	})
}

func TestRegisterDialect_And_GetDialect(t *testing.T) {
	withCleanRegistry(t)
	RegisterDialect("test-provider", &mockDialect{name: "test-provider"})

	got, err := GetDialect("test-provider")
	if err != nil {
		t.Fatalf("GetDialect() error: %v", err)
	}
	if got.Name() != "test-provider" {
		t.Errorf("Name() = %q, want %q", got.Name(), "test-provider")
	}
}

func TestGetDialect_Unknown(t *testing.T) {
	if _, err := GetDialect("nonexistent-dialect-xyz"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestDialects_ListsRegistered(t *testing.T) {
	withCleanRegistry(t)
	RegisterDialect("beta", &mockDialect{name: "beta"})
	RegisterDialect("alpha", &mockDialect{name: "alpha"})

	names := Dialects()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Dialects() = %v, want [alpha beta]", names)
	}
}

func TestNew_UnknownDialect(t *testing.T) {
	withCleanRegistry(t)
	if _, err := New(Config{Dialect: "missing"}); err == nil {
		t.Fatal("expected error for unregistered dialect")
	}
}

func TestNewWithDialect_Nil(t *testing.T) {
	if _, err := NewWithDialect(nil, Config{}); err != ErrNoDialect {
		t.Fatalf("expected ErrNoDialect, got %v", err)
	}
}
