package database

import (
	"context"
	"fmt"

	"github.com/kbukum/voxrelay/component"
)

// Component ties an opened DB to the application lifecycle. Start only
// verifies the connection; Stop closes it.
type Component struct {
	db  *DB
	dsn string
}

var _ component.Component = (*Component)(nil)

// NewComponent wraps db.
func NewComponent(db *DB) *Component {
	return &Component{db: db, dsn: db.cfg.DSN}
}

func (c *Component) Name() string { return "database" }

// Describe implements component.Describable.
func (c *Component) Describe() string { return "sqlite job history at " + c.dsn }

func (c *Component) Start(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	return nil
}

func (c *Component) Stop(context.Context) error { return c.db.Close() }

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if err := c.db.PingContext(ctx); err != nil {
		h.Status = component.StatusDegraded
		h.Message = err.Error()
		return h
	}
	if sqlDB, err := c.db.SQL(); err == nil {
		stats := sqlDB.Stats()
		h.Message = fmt.Sprintf("open=%d in_use=%d", stats.OpenConnections, stats.InUse)
	}
	return h
}
