package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/voxrelay/auth"
	"github.com/kbukum/voxrelay/config"
	"github.com/kbukum/voxrelay/database"
	"github.com/kbukum/voxrelay/dispatcher"
	"github.com/kbukum/voxrelay/jobclient"
	"github.com/kbukum/voxrelay/kafka"
	"github.com/kbukum/voxrelay/observability"
	"github.com/kbukum/voxrelay/redis"
	"github.com/kbukum/voxrelay/server"
	"github.com/kbukum/voxrelay/storage"
	"github.com/kbukum/voxrelay/telegram"
	"github.com/kbukum/voxrelay/transcription/assemblyai"
)

// ServiceName is the default service name and config file stem.
const ServiceName = "voxrelay"

// Config is the configuration shared by the voxrelay binaries. It is built
// once at startup and passed down explicitly.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	APIKeys       APIKeys              `yaml:"api_keys" mapstructure:"api_keys"`
	OpenAI        OpenAIConfig         `yaml:"openai" mapstructure:"openai"`
	AssemblyAI    assemblyai.Config    `yaml:"assemblyai" mapstructure:"assemblyai"`
	Backend       BackendConfig        `yaml:"backend" mapstructure:"backend"`
	Jobs          JobsConfig           `yaml:"jobs" mapstructure:"jobs"`
	Polling       jobclient.PollConfig `yaml:"polling" mapstructure:"polling"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Mirror        MirrorConfig         `yaml:"mirror" mapstructure:"mirror"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Kafka         kafka.Config         `yaml:"kafka" mapstructure:"kafka"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Telegram      telegram.Config      `yaml:"telegram" mapstructure:"telegram"`
}

// APIKeys holds provider credentials. A missing key disables its provider.
type APIKeys struct {
	OpenAI     string `yaml:"openai" mapstructure:"openai"`
	AssemblyAI string `yaml:"assemblyai" mapstructure:"assemblyai"`
	Telegram   string `yaml:"telegram" mapstructure:"telegram"`
}

// OpenAIConfig covers both the Whisper transcription and chat endpoints.
type OpenAIConfig struct {
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url"`
	Model              string        `yaml:"model" mapstructure:"model"`
	Temperature        float64       `yaml:"temperature" mapstructure:"temperature"`
	UseWebSearch       bool          `yaml:"use_web_search" mapstructure:"use_web_search"`
	TranscriptionModel string        `yaml:"transcription_model" mapstructure:"transcription_model"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RetryAttempts retries transient provider failures; 1 disables retry.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	// CircuitFailures opens a breaker around Whisper after that many
	// consecutive transient failures, sending jobs straight to the fallback.
	// Zero disables the breaker.
	CircuitFailures int           `yaml:"circuit_failures" mapstructure:"circuit_failures"`
	CircuitCooldown time.Duration `yaml:"circuit_cooldown" mapstructure:"circuit_cooldown"`
}

// BackendConfig is the HTTP listener plus the URL the outside world uses to
// reach it.
type BackendConfig struct {
	server.Config `yaml:",inline" mapstructure:",squash"`
	// BaseURL is the externally reachable address. The URL-fetching
	// transcription provider and the bot both use it.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JobsConfig sizes the dispatcher and locates job data.
type JobsConfig struct {
	dispatcher.Config `yaml:",inline" mapstructure:",squash"`
	DataDir           string `yaml:"data_dir" mapstructure:"data_dir"`
}

// MirrorConfig controls the diagnostic copies of job results.
type MirrorConfig struct {
	// DisableFiles turns off the <data_dir>/<id>.txt side files.
	DisableFiles bool `yaml:"disable_files" mapstructure:"disable_files"`
	// EncryptionKey seals mirrored payloads when set.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
}

// ApplyDefaults fills zero fields in every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()

	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.OpenAI.RetryAttempts <= 0 {
		c.OpenAI.RetryAttempts = 2
	}
	if c.OpenAI.CircuitFailures > 0 && c.OpenAI.CircuitCooldown <= 0 {
		c.OpenAI.CircuitCooldown = 30 * time.Second
	}
	c.AssemblyAI.ApplyDefaults()

	if c.Backend.Port == 0 {
		c.Backend.Port = 5000
	}
	c.Backend.Config.ApplyDefaults()
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", c.Backend.Port)
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")

	c.Jobs.Config.ApplyDefaults()
	if c.Jobs.DataDir == "" {
		c.Jobs.DataDir = "data"
	}

	poll := jobclient.Config{BaseURL: c.Backend.BaseURL, Polling: c.Polling}
	poll.ApplyDefaults()
	c.Polling = poll.Polling

	if c.Storage.BasePath == "" {
		c.Storage.BasePath = c.Jobs.DataDir
	}
	c.Storage.PublicBaseURL = c.Backend.BaseURL
	c.Storage.ApplyDefaults()

	if c.Redis.Enabled {
		c.Redis.ApplyDefaults()
		if c.Redis.KeyPrefix == "" {
			c.Redis.KeyPrefix = ServiceName + ":job"
		}
	}
	if c.Database.Enabled {
		if c.Database.DSN == "" {
			// A subdirectory: /files only resolves names directly under data_dir.
			c.Database.DSN = filepath.Join(c.Jobs.DataDir, "db", "jobs.db")
		}
		c.Database.ApplyDefaults()
	}
	if c.Kafka.Enabled {
		c.Kafka.ApplyDefaults()
	}
	c.Auth.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Telegram.ApplyDefaults()
}

// Validate checks every section that is in use.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ServiceConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Backend.Config.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	if err := c.Jobs.Config.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("jobs: %w", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Redis.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Kafka.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ClientConfig returns the job API client settings for the bot.
func (c *Config) ClientConfig() jobclient.Config {
	return jobclient.Config{BaseURL: c.Backend.BaseURL, Polling: c.Polling}
}
