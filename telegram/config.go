package telegram

import (
	"errors"
	"time"
)

// ErrNoToken is returned by New when no bot token is configured.
var ErrNoToken = errors.New("telegram: bot token is not configured")

// Config configures the bot.
type Config struct {
	Token string `yaml:"-" mapstructure:"-"`
	// BaseURL is the Bot API endpoint.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// PollTimeout is the getUpdates long-poll duration.
	PollTimeout time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`
	// MaxConcurrent bounds the number of updates handled at once.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// ErrorBackoff is the first delay after a failed getUpdates; it doubles
	// up to one minute.
	ErrorBackoff time.Duration `yaml:"error_backoff" mapstructure:"error_backoff"`
	// KeepPending processes updates queued while the bot was offline. By
	// default they are dropped on start.
	KeepPending bool `yaml:"keep_pending" mapstructure:"keep_pending"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.telegram.org"
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Second
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = time.Second
	}
}
