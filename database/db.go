package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/resilience"
)

// DB wraps a GORM handle with logging and an idempotent Close.
type DB struct {
	gorm *gorm.DB
	log  *logger.Logger
	cfg  Config

	mu     sync.Mutex
	closed bool
}

// Open connects to cfg.DSN, pinging before it returns. Failed attempts are
// retried with backoff up to cfg.MaxRetries.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("database")
	if dir := fileDir(cfg.DSN); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("database: create directory: %w", err)
		}
	}

	gormCfg := &gorm.Config{Logger: newGormLogger(log, cfg.SlowQueryThreshold, parseLogLevel(cfg.LogLevel))}
	retry := resilience.RetryConfig{
		MaxAttempts:    cfg.MaxRetries,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Warn("database connection failed, retrying", logger.Fields(
				logger.FieldAttempt, attempt, logger.FieldError, err.Error(), "backoff", backoff.String()))
		},
	}

	gdb, err := resilience.Retry(ctx, retry, func(ctx context.Context) (*gorm.DB, error) {
		gdb, err := gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return gdb, nil
	})
	if err != nil {
		return nil, fmt.Errorf("database: connect after %d attempts: %w", cfg.MaxRetries, err)
	}

	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("database opened", logger.Fields("dsn", cfg.DSN))
	return &DB{gorm: gdb, log: log, cfg: cfg}, nil
}

// fileDir returns the directory of a plain file DSN, or "" for in-memory and
// URI DSNs.
func fileDir(dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	return filepath.Dir(dsn)
}

// WithContext returns a GORM session scoped to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.gorm.WithContext(ctx)
}

// SQL returns the underlying pool.
func (d *DB) SQL() (*sql.DB, error) {
	return d.gorm.DB()
}

// PingContext verifies the connection is alive.
func (d *DB) PingContext(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool. Later calls are no-ops.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	d.log.Info("closing database")
	return sqlDB.Close()
}
