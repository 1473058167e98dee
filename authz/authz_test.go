package authz

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern, required string
		want              bool
	}{
		{"*:*", "jobs:read", true},
		{"*", "anything", true},
		{"jobs:*", "jobs:submit", true},
		{"jobs:*", "chat:ask", false},
		{"*:read", "jobs:read", true},
		{"*:read", "jobs:submit", false},
		{"jobs:read", "jobs:read", true},
		{"jobs:read", "jobs:history", false},
		{"jobs", "jobs:read", false},
		{"admin", "admin", true},
	}
	for _, tt := range tests {
		if got := MatchPattern(tt.pattern, tt.required); got != tt.want {
			t.Errorf("MatchPattern(%q, %q) = %v, want %v", tt.pattern, tt.required, got, tt.want)
		}
	}
}

func TestDefaultGrants(t *testing.T) {
	c := NewMapChecker(DefaultGrants())
	tests := []struct {
		role, perm string
		want       bool
	}{
		{"client", JobsSubmit, true},
		{"client", JobsRead, true},
		{"client", ChatAsk, true},
		{"client", JobsHistory, false},
		{"admin", JobsHistory, true},
		{"admin", ChatAsk, true},
		{"guest", JobsRead, false},
		{"", JobsRead, false},
	}
	for _, tt := range tests {
		if got := c.HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestCheckerFunc(t *testing.T) {
	var c Checker = CheckerFunc(func(subject, _ string) bool { return subject == "root" })
	if !c.HasPermission("root", JobsHistory) || c.HasPermission("client", JobsHistory) {
		t.Error("CheckerFunc did not delegate")
	}
}
