package auth

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_DisabledSkipsChecks(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.TokenTTL != 0 {
		t.Errorf("TokenTTL = %v, want untouched when disabled", c.TokenTTL)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfig_Enabled(t *testing.T) {
	c := Config{Enabled: true}
	c.ApplyDefaults()
	if c.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", c.TokenTTL)
	}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "secret is required") {
		t.Fatalf("Validate() = %v, want missing secret", err)
	}

	c.Secret = "s3cret"
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
