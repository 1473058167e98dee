package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/kbukum/voxrelay/component"
	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/job"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/observability"
	"github.com/kbukum/voxrelay/storage"
	"github.com/kbukum/voxrelay/transcription"
	"github.com/kbukum/voxrelay/util"
)

// Submission rejections. They are AppErrors with status 400 so HTTP handlers
// can return them directly.
var (
	ErrEmptyFilename = apperrors.New(apperrors.ErrCodeInvalidInput, "Empty filename", 400)
	ErrEmptyAudio    = apperrors.New(apperrors.ErrCodeInvalidInput, "Empty audio", 400)
)

// Upload is one submitted clip.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

type task struct {
	jobID       string
	audioKey    string
	fileName    string
	contentType string
}

// Dispatcher owns the job queue and its workers. It is a component.Component.
type Dispatcher struct {
	cfg     Config
	store   *job.Store
	storage storage.Storage
	policy  *FallbackPolicy
	metrics *observability.Metrics
	log     *logger.Logger

	mu      sync.RWMutex
	queue   chan task
	running bool
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	baseCtx context.Context

	inFlight atomic.Int64
}

var _ component.Component = (*Dispatcher)(nil)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(d *Dispatcher) { d.log = l } }

// WithMetrics records queue depth and job outcomes.
func WithMetrics(m *observability.Metrics) Option { return func(d *Dispatcher) { d.metrics = m } }

// New creates a stopped dispatcher.
func New(cfg Config, store *job.Store, st storage.Storage, policy *FallbackPolicy, opts ...Option) *Dispatcher {
	cfg.ApplyDefaults()
	d := &Dispatcher{
		cfg:     cfg,
		store:   store,
		storage: st,
		policy:  policy,
		log:     logger.Nop(),
		queue:   make(chan task, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithComponent("dispatcher")
	return d
}

// Name implements component.Component.
func (d *Dispatcher) Name() string { return "dispatcher" }

// Describe implements component.Describable.
func (d *Dispatcher) Describe() string {
	return fmt.Sprintf("%d workers, queue %d, job timeout %s", d.cfg.Workers, d.cfg.QueueSize, d.cfg.JobTimeout)
}

// Start launches the workers. Jobs run on a context detached from ctx so a
// finished startup does not cancel them; Stop cancels it.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}
	if d.stopped {
		return fmt.Errorf("dispatcher: already stopped")
	}
	d.baseCtx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.running = true
	return nil
}

// Stop refuses new work, lets workers drain the queue and waits for them.
// When ctx expires first, in-flight jobs are cancelled and finish as errors.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.stopped = true
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return fmt.Errorf("dispatcher: stop: %w", ctx.Err())
	}
}

// Health reports degraded while the queue is full.
func (d *Dispatcher) Health(context.Context) component.Health {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()

	h := component.Health{Name: d.Name(), Status: component.StatusHealthy}
	depth := len(d.queue)
	h.Message = fmt.Sprintf("queued %d/%d, in flight %d", depth, cap(d.queue), d.inFlight.Load())
	switch {
	case !running:
		h.Status = component.StatusUnhealthy
		h.Message = "not running"
	case depth >= cap(d.queue):
		h.Status = component.StatusDegraded
	}
	return h
}

// QueueDepth returns the number of jobs waiting for a worker.
func (d *Dispatcher) QueueDepth() int { return len(d.queue) }

// Submit stores the clip, creates a processing job and enqueues it. It never
// waits for transcription. A full queue rejects the upload with QUEUE_FULL
// and leaves no job or stored audio behind.
func (d *Dispatcher) Submit(ctx context.Context, up Upload) (string, error) {
	if up.FileName == "" {
		return "", ErrEmptyFilename
	}
	if !d.isRunning() {
		return "", apperrors.ServiceUnavailable("transcription dispatcher")
	}
	if len(d.queue) >= cap(d.queue) {
		d.metrics.RecordJob(ctx, "rejected")
		return "", apperrors.QueueFull(cap(d.queue))
	}

	id := d.store.NewID()
	ext := util.FileExt(up.FileName)
	if !util.IsAudioExt(ext) {
		ext = util.DefaultAudioExt
	}
	key := id + "." + ext
	contentType := up.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = util.AudioContentType(ext)
	}

	n, err := d.storage.Upload(ctx, key, up.Body)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("store audio: %w", err))
	}
	if n == 0 {
		d.deleteAudio(ctx, key)
		return "", ErrEmptyAudio
	}

	if _, err := d.store.Create(ctx, id, key); err != nil {
		d.deleteAudio(ctx, key)
		return "", apperrors.Internal(err)
	}

	t := task{jobID: id, audioKey: key, fileName: key, contentType: contentType}
	if err := d.enqueue(t); err != nil {
		_, _ = d.store.Consume(ctx, id)
		d.deleteAudio(ctx, key)
		d.metrics.RecordJob(ctx, "rejected")
		return "", err
	}

	d.metrics.RecordJob(ctx, "submitted")
	d.metrics.AddQueueDepth(ctx, 1)
	d.log.Info("job submitted", logger.Fields(logger.FieldJobID, id, logger.FieldFile, key, logger.FieldBytes, n))
	return id, nil
}

func (d *Dispatcher) isRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

func (d *Dispatcher) enqueue(t task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		return apperrors.ServiceUnavailable("transcription dispatcher")
	}
	select {
	case d.queue <- t:
		return nil
	default:
		return apperrors.QueueFull(cap(d.queue))
	}
}

func (d *Dispatcher) deleteAudio(ctx context.Context, key string) {
	if err := d.storage.Delete(ctx, key); err != nil {
		d.log.Warn("audio cleanup failed", logger.Fields(logger.FieldFile, key, logger.FieldError, err.Error()))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.queue {
		d.metrics.AddQueueDepth(d.baseCtx, -1)
		d.run(t)
	}
}

// run processes one job and always leaves it in a terminal state.
func (d *Dispatcher) run(t task) {
	d.inFlight.Add(1)
	defer d.inFlight.Add(-1)

	ctx, cancel := context.WithTimeout(d.baseCtx, d.cfg.JobTimeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "dispatcher.job")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrJobID, t.jobID)

	// Store updates must land even after the job context expires.
	storeCtx := context.WithoutCancel(ctx)
	log := d.log.WithFields(logger.Fields(logger.FieldJobID, t.jobID))

	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("Critical transcription error: %v", r)
			log.Error("worker panic", logger.Fields(logger.FieldError, fmt.Sprint(r)))
			d.finishError(storeCtx, t.jobID, reason, log)
		}
	}()

	req := transcription.Request{
		JobID:       t.jobID,
		FileName:    t.fileName,
		ContentType: t.contentType,
		Audio:       transcription.StorageSource(d.storage, t.audioKey),
	}
	text, err := d.policy.Run(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !apperrors.HasCode(err, apperrors.ErrCodeTimeout) {
			err = apperrors.Timeout("transcription").WithCause(err)
		}
		observability.SetSpanError(ctx, err)
		d.finishError(storeCtx, t.jobID, transcription.ErrorText(err), log)
		return
	}

	if err := d.store.CompleteReady(storeCtx, t.jobID, text); err != nil {
		log.Warn("complete ready failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	d.metrics.RecordJob(storeCtx, string(job.StatusReady))
	log.Info("job ready")
}

func (d *Dispatcher) finishError(ctx context.Context, id, reason string, log *logger.Logger) {
	if err := d.store.CompleteError(ctx, id, reason); err != nil {
		log.Warn("complete error failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	d.metrics.RecordJob(ctx, string(job.StatusError))
	log.Warn("job failed", logger.Fields(logger.FieldStatus, string(job.StatusError), "reason", reason))
}
