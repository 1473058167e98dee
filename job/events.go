package job

import "context"

// EventSink publishes job lifecycle events. Errors are logged by the Store
// and never change job state.
type EventSink interface {
	Emit(ctx context.Context, eventType string, j Job) error
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(context.Context, string, Job) error { return nil }

// SinkFunc adapts a function into an EventSink.
type SinkFunc func(ctx context.Context, eventType string, j Job) error

func (f SinkFunc) Emit(ctx context.Context, eventType string, j Job) error {
	return f(ctx, eventType, j)
}
