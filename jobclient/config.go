package jobclient

import (
	"time"

	"github.com/kbukum/voxrelay/validation"
)

// PollConfig shapes the status polling backoff.
type PollConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval" mapstructure:"initial_interval" validate:"gt=0"`
	MaxInterval     time.Duration `yaml:"max_interval" mapstructure:"max_interval" validate:"gtefield=InitialInterval"`
	Multiplier      float64       `yaml:"multiplier" mapstructure:"multiplier" validate:"gte=1"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// Config configures a Client.
type Config struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	// Token is sent as a bearer token when set.
	Token string `yaml:"-" mapstructure:"-"`
	// TokenSource, when set, is called per request and overrides Token.
	TokenSource    func() (string, error) `yaml:"-" mapstructure:"-"`
	UploadTimeout  time.Duration          `yaml:"upload_timeout" mapstructure:"upload_timeout"`
	RequestTimeout time.Duration          `yaml:"request_timeout" mapstructure:"request_timeout"`
	Polling        PollConfig             `yaml:"polling" mapstructure:"polling"`
}

// ApplyDefaults fills zero fields: 0.5s growing by 1.5 up to 3s, for at most
// 180s.
func (c *Config) ApplyDefaults() {
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = 30 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.Polling.InitialInterval <= 0 {
		c.Polling.InitialInterval = 500 * time.Millisecond
	}
	if c.Polling.MaxInterval <= 0 {
		c.Polling.MaxInterval = 3 * time.Second
	}
	if c.Polling.Multiplier == 0 {
		c.Polling.Multiplier = 1.5
	}
	if c.Polling.Timeout <= 0 {
		c.Polling.Timeout = 180 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
