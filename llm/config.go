package llm

import (
	"time"

	"github.com/kbukum/voxrelay/resilience"
)

const (
	defaultDialect = "openai"
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
)

// Config holds configuration for creating an Adapter.
type Config struct {
	// Name identifies the adapter in logs and metrics. Defaults to "<dialect>-llm".
	Name    string `yaml:"name" mapstructure:"name"`
	Dialect string `yaml:"dialect" mapstructure:"dialect"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// APIKey is sent as a bearer token. An empty key leaves the adapter unavailable.
	APIKey      string        `yaml:"-" mapstructure:"-"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Retry enables retries of transient failures.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Dialect == "" {
		c.Dialect = defaultDialect
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" {
		c.Name = c.Dialect + "-llm"
	}
}
