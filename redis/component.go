package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/voxrelay/component"
	"github.com/kbukum/voxrelay/logger"
)

// Component manages a Client's lifecycle: Start pings, Stop closes.
type Component struct {
	client *Client
	addr   string
	log    *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent wraps an existing client.
func NewComponent(client *Client, cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	return &Component{client: client, addr: cfg.Addr, log: log.WithComponent("redis")}
}

func (c *Component) Name() string { return "redis" }

// Describe implements component.Describable.
func (c *Component) Describe() string { return "redis mirror at " + c.addr }

func (c *Component) Start(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	c.log.Info("redis connected", logger.Fields("addr", c.addr))
	return nil
}

func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if err := c.client.Ping(ctx); err != nil {
		h.Status = component.StatusDegraded
		h.Message = err.Error()
	}
	return h
}
