package app

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Name != ServiceName {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Backend.Port != 5000 || cfg.Backend.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("backend = %d %q", cfg.Backend.Port, cfg.Backend.BaseURL)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" || cfg.OpenAI.TranscriptionModel != "whisper-1" {
		t.Errorf("openai = %+v", cfg.OpenAI)
	}
	if cfg.Storage.BasePath != cfg.Jobs.DataDir || cfg.Storage.PublicBaseURL != cfg.Backend.BaseURL {
		t.Errorf("storage = %q %q", cfg.Storage.BasePath, cfg.Storage.PublicBaseURL)
	}
	p := cfg.Polling
	if p.InitialInterval != 500*time.Millisecond || p.MaxInterval != 3*time.Second || p.Multiplier != 1.5 || p.Timeout != 180*time.Second {
		t.Errorf("polling = %+v", p)
	}
	if cfg.Redis.KeyPrefix != "" {
		t.Errorf("disabled redis should keep zero config, got prefix %q", cfg.Redis.KeyPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestConfig_BaseURLFollowsPort(t *testing.T) {
	cfg := Config{}
	cfg.Backend.Port = 8080
	cfg.ApplyDefaults()
	if cfg.Backend.BaseURL != "http://127.0.0.1:8080" {
		t.Errorf("base url = %q", cfg.Backend.BaseURL)
	}

	cfg = Config{}
	cfg.Backend.BaseURL = "https://vox.example.com/"
	cfg.ApplyDefaults()
	if cfg.Backend.BaseURL != "https://vox.example.com" {
		t.Errorf("trailing slash not trimmed: %q", cfg.Backend.BaseURL)
	}
	if cc := cfg.ClientConfig(); cc.BaseURL != "https://vox.example.com" {
		t.Errorf("client base url = %q", cc.BaseURL)
	}
}

func TestConfig_OptionalBackends(t *testing.T) {
	cfg := Config{}
	cfg.Redis.Enabled = true
	cfg.Kafka.Enabled = true
	cfg.ApplyDefaults()
	if cfg.Redis.KeyPrefix != "voxrelay:job" {
		t.Errorf("redis prefix = %q", cfg.Redis.KeyPrefix)
	}
	if cfg.Kafka.Topic != "voxrelay.jobs" {
		t.Errorf("kafka topic = %q", cfg.Kafka.Topic)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true }, "secret is required"},
		{"bad port", func(c *Config) { c.Backend.Port = 70000 }, "backend"},
		{"s3 without bucket", func(c *Config) { c.Storage.Provider = "s3" }, "bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			tt.mutate(&cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestWhisperPolicy(t *testing.T) {
	tests := []struct {
		name        string
		retries     int
		failures    int
		wantRetry   bool
		wantBreaker bool
	}{
		{"retry only", 2, 0, true, false},
		{"disabled", 1, 0, false, false},
		{"breaker", 1, 3, false, true},
		{"both", 3, 5, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.OpenAI.RetryAttempts = tt.retries
			cfg.OpenAI.CircuitFailures = tt.failures
			cfg.ApplyDefaults()

			rc := whisperPolicy(&cfg, nil)
			if (rc.Retry != nil) != tt.wantRetry {
				t.Errorf("retry = %v, want %v", rc.Retry != nil, tt.wantRetry)
			}
			if (rc.CircuitBreaker != nil) != tt.wantBreaker {
				t.Fatalf("breaker = %v, want %v", rc.CircuitBreaker != nil, tt.wantBreaker)
			}
			if tt.wantBreaker && rc.CircuitBreaker.Timeout != 30*time.Second {
				t.Errorf("cooldown = %v", rc.CircuitBreaker.Timeout)
			}
			if tt.wantRetry && rc.Retry.MaxAttempts != tt.retries {
				t.Errorf("attempts = %d", rc.Retry.MaxAttempts)
			}
		})
	}
}
