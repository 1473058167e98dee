package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/voxrelay/logger"
)

// Store is the process-wide job table. All methods are safe for concurrent
// use; each is atomic with respect to the others.
type Store struct {
	mu   sync.Mutex
	turn *sync.Cond
	jobs map[string]*entry

	mirror Mirror
	events EventSink
	log    *logger.Logger
	now    func() time.Time
}

// entry tracks a job and the order of its mirror and event writes. Each state
// change takes a ticket under mu; publishes for one job run in ticket order.
type entry struct {
	Job
	issued uint64
	done   uint64
}

// Option configures a Store.
type Option func(*Store)

// WithMirror copies every state change to m.
func WithMirror(m Mirror) Option { return func(s *Store) { s.mirror = m } }

// WithEventSink publishes lifecycle events to sink.
func WithEventSink(sink EventSink) Option { return func(s *Store) { s.events = sink } }

// WithLogger sets the logger used for mirror and sink failures.
func WithLogger(l *logger.Logger) Option { return func(s *Store) { s.log = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		jobs:   make(map[string]*entry),
		mirror: nopMirror{},
		events: NopSink{},
		log:    logger.Nop(),
		now:    time.Now,
	}
	s.turn = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("job-store")
	return s
}

// NewID returns a fresh random 128-bit identifier.
func (s *Store) NewID() string { return uuid.NewString() }

// Create inserts a processing job. The record is visible to Get before
// Create returns.
func (s *Store) Create(ctx context.Context, id, audioKey string) (Job, error) {
	if id == "" {
		return Job{}, fmt.Errorf("job: empty id")
	}
	s.mu.Lock()
	if _, exists := s.jobs[id]; exists {
		s.mu.Unlock()
		return Job{}, ErrDuplicateID
	}
	e := &entry{Job: Job{ID: id, AudioKey: audioKey, Status: StatusProcessing, CreatedAt: s.now()}}
	s.jobs[id] = e
	snapshot, ticket := e.Job, e.ticket()
	s.mu.Unlock()

	s.publish(ctx, e, ticket, EventCreated, snapshot, false)
	return snapshot, nil
}

// Get returns a snapshot of the job.
func (s *Store) Get(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return e.Job, nil
}

// CompleteReady moves a processing job to ready with text.
func (s *Store) CompleteReady(ctx context.Context, id, text string) error {
	return s.complete(ctx, id, StatusReady, text)
}

// CompleteError moves a processing job to error with reason.
func (s *Store) CompleteError(ctx context.Context, id, reason string) error {
	return s.complete(ctx, id, StatusError, reason)
}

func (s *Store) complete(ctx context.Context, id string, status Status, text string) error {
	s.mu.Lock()
	e, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if e.Status != StatusProcessing {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotProcessing, id, e.Status)
	}
	e.Status = status
	e.Text = text
	e.CompletedAt = s.now()
	snapshot, ticket := e.Job, e.ticket()
	s.mu.Unlock()

	eventType := EventReady
	if status == StatusError {
		eventType = EventError
	}
	s.publish(ctx, e, ticket, eventType, snapshot, false)
	return nil
}

// Fetch is the status read. A ready job is removed in the same critical
// section, so exactly one caller observes it; processing and error jobs stay.
func (s *Store) Fetch(ctx context.Context, id string) (Job, error) {
	s.mu.Lock()
	e, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return Job{}, ErrNotFound
	}
	snapshot := e.Job
	if snapshot.Status != StatusReady {
		s.mu.Unlock()
		return snapshot, nil
	}
	delete(s.jobs, id)
	ticket := e.ticket()
	s.mu.Unlock()

	s.publish(ctx, e, ticket, EventConsumed, snapshot, true)
	return snapshot, nil
}

// Consume removes the job regardless of state and returns its last snapshot.
func (s *Store) Consume(ctx context.Context, id string) (Job, error) {
	s.mu.Lock()
	e, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return Job{}, ErrNotFound
	}
	delete(s.jobs, id)
	snapshot, ticket := e.Job, e.ticket()
	s.mu.Unlock()

	s.publish(ctx, e, ticket, EventConsumed, snapshot, true)
	return snapshot, nil
}

// Len returns the number of tracked jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Counts returns the number of tracked jobs per status.
func (s *Store) Counts() map[Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[Status]int{StatusProcessing: 0, StatusReady: 0, StatusError: 0}
	for _, e := range s.jobs {
		counts[e.Status]++
	}
	return counts
}

// ticket must be called with s.mu held.
func (e *entry) ticket() uint64 {
	t := e.issued
	e.issued++
	return t
}

// publish waits until every earlier change of the same job has been written,
// so mirrors never see a consumed record before the ready one.
func (s *Store) publish(ctx context.Context, e *entry, ticket uint64, eventType string, j Job, consumed bool) {
	s.mu.Lock()
	for e.done != ticket {
		s.turn.Wait()
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		e.done++
		s.mu.Unlock()
		s.turn.Broadcast()
	}()

	rec := Record{Job: j, Consumed: consumed, UpdatedAt: s.now()}
	if err := s.mirror.Write(ctx, rec); err != nil {
		s.log.Warn("mirror write failed", logger.Fields(logger.FieldJobID, j.ID, logger.FieldStatus, string(j.Status), logger.FieldError, err.Error()))
	}
	if err := s.events.Emit(ctx, eventType, j); err != nil {
		s.log.Warn("event publish failed", logger.Fields(logger.FieldJobID, j.ID, "event", eventType, logger.FieldError, err.Error()))
	}
}
