package app

import (
	"context"

	"github.com/kbukum/voxrelay/job"
	"github.com/kbukum/voxrelay/kafka"
)

// Publisher sends one event. *producer.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// NewEventSink turns job transitions into kafka events. Transcript text is
// not published; ready events carry its length and error events the reason.
func NewEventSink(pub Publisher, source string) job.EventSink {
	return job.SinkFunc(func(ctx context.Context, eventType string, j job.Job) error {
		data := map[string]any{
			"status":     string(j.Status),
			"audio_key":  j.AudioKey,
			"created_at": j.CreatedAt,
		}
		switch j.Status {
		case job.StatusReady:
			data["text_length"] = len(j.Text)
		case job.StatusError:
			data["reason"] = j.Text
		}
		if !j.CompletedAt.IsZero() {
			data["completed_at"] = j.CompletedAt
		}
		return pub.Publish(ctx, kafka.NewEvent(eventType, source, j.ID, data))
	})
}
