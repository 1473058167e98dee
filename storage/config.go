package storage

import (
	"errors"
	"fmt"
	"time"
)

// Provider names.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Config selects and configures the storage backend.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider"`

	// BasePath is the local data directory; defaults to jobs.data_dir.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
	// PublicBaseURL is how external services reach this process; local
	// storage builds "<PublicBaseURL>/files/<key>" from it.
	PublicBaseURL string `yaml:"-" mapstructure:"-"`

	Bucket         string        `yaml:"bucket" mapstructure:"bucket"`
	Region         string        `yaml:"region" mapstructure:"region"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey      string        `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string        `yaml:"secret_key" mapstructure:"secret_key"`
	ForcePathStyle bool          `yaml:"force_path_style" mapstructure:"force_path_style"`
	PresignTTL     time.Duration `yaml:"presign_ttl" mapstructure:"presign_ttl"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.BasePath == "" {
		c.BasePath = "data"
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.PresignTTL <= 0 {
		c.PresignTTL = time.Hour
	}
}

// Validate checks the fields the selected provider needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		if c.Bucket == "" {
			return errors.New("storage: bucket is required for s3 provider")
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
