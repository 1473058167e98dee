package auth

import (
	"fmt"

	"github.com/kbukum/voxrelay/auth/jwt"
)

// Config guards /api with bearer tokens.
type Config struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	jwt.Config `yaml:",inline" mapstructure:",squash"`
}

// ApplyDefaults sets token defaults when auth is enabled.
func (c *Config) ApplyDefaults() {
	if c.Enabled {
		c.Config.ApplyDefaults()
	}
}

// Validate checks the token settings only when auth is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := c.Config.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}
