package job

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// IsTerminal reports whether s is ready or error.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

var (
	// ErrNotFound is returned for ids that were never created or are consumed.
	ErrNotFound = errors.New("job: unknown job")
	// ErrNotProcessing is returned when completing a job twice.
	ErrNotProcessing = errors.New("job: not in processing state")
	// ErrDuplicateID is returned when Create is given an id already in use.
	ErrDuplicateID = errors.New("job: duplicate id")
)

// Job is a snapshot of one job record.
type Job struct {
	ID string `json:"id"`
	// AudioKey is the storage key of the submitted clip.
	AudioKey string `json:"audio_key"`
	Status   Status `json:"status"`
	// Text holds the transcription when ready and the reason when error.
	Text        string    `json:"text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Event types published to an EventSink.
const (
	EventCreated  = "job.created"
	EventReady    = "job.ready"
	EventError    = "job.error"
	EventConsumed = "job.consumed"
)
