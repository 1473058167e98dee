package dispatcher

import (
	"fmt"
	"time"
)

const (
	defaultWorkers    = 4
	defaultQueueSize  = 64
	defaultJobTimeout = 15 * time.Minute
)

// Config sizes the worker pool.
type Config struct {
	Workers   int `yaml:"workers" mapstructure:"workers"`
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
	// JobTimeout bounds one job across all providers, including the
	// secondary provider's poll window.
	JobTimeout time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("jobs.queue_size must be positive")
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("jobs.job_timeout must be positive")
	}
	return nil
}
