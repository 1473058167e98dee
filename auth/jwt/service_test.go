package jwt

import (
	"strings"
	"testing"
	"time"
)

func newService(t *testing.T, cfg Config) *Service {
	t.Helper()
	svc, err := NewService(&cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestService_IssueAndParse(t *testing.T) {
	svc := newService(t, Config{Secret: "shared", Audience: "voxrelay-api"})
	token, err := svc.Issue("voxbot", RoleClient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "voxbot" || claims.Role != RoleClient || claims.Issuer != "voxrelay" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestService_RejectsWrongSecret(t *testing.T) {
	token, _ := newService(t, Config{Secret: "a"}).Issue("x", RoleClient)
	if _, err := newService(t, Config{Secret: "b"}).Parse(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestService_RejectsExpired(t *testing.T) {
	svc := newService(t, Config{Secret: "s", TokenTTL: time.Minute})
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _ := svc.Issue("x", RoleClient)

	svc.now = time.Now
	_, err := svc.Parse(token)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestService_RejectsOtherMethod(t *testing.T) {
	token, _ := newService(t, Config{Secret: "s", Method: HS512}).Issue("x", RoleClient)
	if _, err := newService(t, Config{Secret: "s"}).Parse(token); err == nil {
		t.Fatal("expected method mismatch error")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{Secret: "s"}, true},
		{"missing secret", Config{}, false},
		{"rsa unsupported", Config{Secret: "s", Method: "RS256"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			if err := tt.cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
