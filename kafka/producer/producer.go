// Package producer publishes kafka.Event values with a lazily created
// kafka-go writer, so the service starts even when the brokers are down.
package producer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/voxrelay/component"
	"github.com/kbukum/voxrelay/kafka"
	"github.com/kbukum/voxrelay/logger"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("kafka producer is closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes events to the configured topic.
type Producer struct {
	cfg    kafka.Config
	log    *logger.Logger
	mu     sync.Mutex
	writer messageWriter
	closed bool
}

var _ component.Component = (*Producer)(nil)

// New validates cfg; the writer is created on first Publish.
func New(cfg kafka.Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("kafka is disabled")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Producer{cfg: cfg, log: log.WithComponent("kafka.producer")}, nil
}

func (p *Producer) getWriter() (messageWriter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.writer != nil {
		return p.writer, nil
	}

	transport, err := kafka.CreateTransport(&p.cfg)
	if err != nil {
		return nil, err
	}
	p.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(p.cfg.Brokers...),
		Topic:                  p.cfg.Topic,
		Transport:              transport,
		Balancer:               &kafkago.Hash{},
		BatchSize:              p.cfg.BatchSize,
		BatchTimeout:           p.cfg.BatchTimeout,
		WriteTimeout:           p.cfg.WriteTimeout,
		RequiredAcks:           kafkago.RequiredAcks(p.cfg.RequiredAcks),
		Compression:            kafka.ResolveCompression(p.cfg.Compression),
		AllowAutoTopicCreation: true,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			p.log.Error("writer: " + fmt.Sprintf(msg, args...))
		}),
	}
	p.log.Info("kafka producer initialized", logger.Fields("brokers", p.cfg.Brokers, "topic", p.cfg.Topic))
	return p.writer, nil
}

// Publish writes one event keyed by its subject.
func (p *Producer) Publish(ctx context.Context, event kafka.Event) error {
	w, err := p.getWriter()
	if err != nil {
		return err
	}
	data, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: event.Timestamp,
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the writer. Safe to call more than once.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *Producer) Name() string { return "kafka" }

// Describe implements component.Describable.
func (p *Producer) Describe() string { return "kafka events to " + p.cfg.Topic }

// Start is a no-op; the writer connects lazily.
func (p *Producer) Start(context.Context) error { return nil }

func (p *Producer) Stop(context.Context) error { return p.Close() }

func (p *Producer) Health(context.Context) component.Health {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return component.Health{Name: p.Name(), Status: component.StatusUnhealthy, Message: "closed"}
	}
	return component.Health{Name: p.Name(), Status: component.StatusHealthy}
}
