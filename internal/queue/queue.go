// Package queue implements the in-process work queue feeding the card
// generation pipeline: priority plus FIFO ordering, delayed delivery,
// exclusive leases, bounded retry with exponential backoff, and a typed
// lifecycle event stream consumed by the reconciler.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"container/heap"

	"github.com/google/uuid"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed  = errors.New("work queue is closed")
	ErrNotLeased    = errors.New("item is not leased")
	ErrDuplicateJob = errors.New("job is already enqueued")
)

// Config holds queue tuning parameters.
type Config struct {
	// EventBufferSize is the capacity of the lifecycle event channel.
	EventBufferSize int

	// DefaultMaxAttempts applies to items enqueued without an explicit
	// retry budget.
	DefaultMaxAttempts int

	// DefaultBackoffBase applies to items enqueued without an explicit
	// backoff policy.
	DefaultBackoffBase time.Duration

	// CompletedRetention and FailedRetention bound how long terminal item
	// records are kept for diagnostics.
	CompletedRetention time.Duration
	FailedRetention    time.Duration

	// CompletedKeep and FailedKeep are the number of most recent terminal
	// records that survive pruning regardless of age.
	CompletedKeep int
	FailedKeep    int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		EventBufferSize:    256,
		DefaultMaxAttempts: 3,
		DefaultBackoffBase: 30 * time.Second,
		CompletedRetention: 24 * time.Hour,
		FailedRetention:    7 * 24 * time.Hour,
		CompletedKeep:      100,
		FailedKeep:         100,
	}
}

// terminalRecord remembers a finished item for diagnostics until the
// janitor prunes it.
type terminalRecord struct {
	jobID   uuid.UUID
	failed  bool
	reason  string
	settled time.Time
}

// Queue is an in-process work queue. Pending items are ordered by priority
// (higher first) and insertion order among equal priorities; delayed items
// become eligible once their delay elapses. Each item is leased to at most
// one worker at a time and is settled with Ack, Nack or Fail.
//
// The queue itself holds no durable state; durability comes from the job
// store records the reconciler maintains, which the pipeline re-enqueues
// from at startup.
type Queue struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	ready    readyHeap
	delayed  delayHeap
	leased   map[uuid.UUID]*item
	pending  map[uuid.UUID]struct{} // jobs currently in ready or delayed
	terminal []terminalRecord
	seq      uint64
	closed   bool

	events chan Event
	signal chan struct{}

	// now is the clock; replaceable in tests.
	now func() time.Time
}

// New creates a work queue with the given configuration.
func New(cfg Config, logger *slog.Logger) *Queue {
	def := DefaultConfig()
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = def.EventBufferSize
	}
	if cfg.DefaultMaxAttempts <= 0 {
		cfg.DefaultMaxAttempts = def.DefaultMaxAttempts
	}
	if cfg.DefaultBackoffBase <= 0 {
		cfg.DefaultBackoffBase = def.DefaultBackoffBase
	}
	if cfg.CompletedRetention <= 0 {
		cfg.CompletedRetention = def.CompletedRetention
	}
	if cfg.FailedRetention <= 0 {
		cfg.FailedRetention = def.FailedRetention
	}

	return &Queue{
		cfg:     cfg,
		logger:  logger.With("component", "work_queue"),
		leased:  make(map[uuid.UUID]*item),
		pending: make(map[uuid.UUID]struct{}),
		events:  make(chan Event, cfg.EventBufferSize),
		signal:  make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Events returns the lifecycle event channel. It is closed by Close.
// The channel has a single intended consumer (the reconciler); events for
// one job are emitted in lifecycle order.
func (q *Queue) Events() <-chan Event {
	return q.events
}

// Enqueue adds a work item for the given job. The job ID doubles as the
// item identity so lifecycle events can be mirrored onto the job record.
// Returns ErrQueueClosed after Close, and ErrDuplicateJob if the job is
// already pending or leased.
func (q *Queue) Enqueue(jobID uuid.UUID, jobType string, payload []byte, opts Options) error {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = q.cfg.DefaultMaxAttempts
	}
	backoffBase := opts.BackoffBase
	if backoffBase <= 0 {
		backoffBase = q.cfg.DefaultBackoffBase
	}

	now := q.now()
	it := &item{
		jobID:       jobID,
		jobType:     jobType,
		payload:     payload,
		priority:    opts.Priority,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		readyAt:     now.Add(opts.Delay),
		enqueuedAt:  now,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if _, dup := q.pending[jobID]; dup {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateJob, jobID)
	}
	if _, dup := q.leased[jobID]; dup {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateJob, jobID)
	}

	// The enqueued event must precede any started event for the same job,
	// so emit it before the item becomes eligible for delivery.
	q.emitLocked(Event{JobID: jobID, Type: EventEnqueued, At: now})

	q.seq++
	it.seq = q.seq
	q.pending[jobID] = struct{}{}
	q.push(it, now)
	q.mu.Unlock()

	q.wake()

	q.logger.Debug("item enqueued",
		"job_id", jobID,
		"job_type", jobType,
		"priority", opts.Priority,
		"delay", opts.Delay)
	return nil
}

// Dequeue blocks until the highest-priority eligible item can be leased,
// the context is cancelled, or the queue is closed. The caller owns the
// returned lease exclusively and must settle it.
func (q *Queue) Dequeue(ctx context.Context) (*Lease, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}

		now := q.now()
		q.promote(now)

		if q.ready.Len() > 0 {
			it := heap.Pop(&q.ready).(*item)
			delete(q.pending, it.jobID)
			it.attempts++
			q.leased[it.jobID] = it
			q.emitLocked(Event{
				JobID:   it.jobID,
				Type:    EventStarted,
				Attempt: it.attempts,
				At:      now,
			})
			q.mu.Unlock()
			return &Lease{it: it}, nil
		}

		// Nothing eligible. Sleep until the next delayed item matures,
		// a new item arrives, or the caller gives up.
		var timer *time.Timer
		var timeout <-chan time.Time
		if q.delayed.Len() > 0 {
			timer = time.NewTimer(q.delayed[0].readyAt.Sub(now))
			timeout = timer.C
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, ctx.Err()
		case <-q.signal:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Ack settles a lease as successfully completed and emits the terminal
// completed event with the given result payload.
func (q *Queue) Ack(lease *Lease, result json.RawMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.takeLeaseLocked(lease); err != nil {
		return err
	}

	now := q.now()
	q.terminal = append(q.terminal, terminalRecord{
		jobID:   lease.JobID(),
		settled: now,
	})
	q.emitLocked(Event{
		JobID:   lease.JobID(),
		Type:    EventCompleted,
		Attempt: lease.Attempt(),
		Result:  result,
		At:      now,
	})

	q.logger.Debug("item completed", "job_id", lease.JobID(), "attempts", lease.Attempt())
	return nil
}

// Nack settles a lease as failed for a retryable reason. While retry
// budget remains the item is requeued with exponential backoff; once
// attempts reach the item's maximum it is terminally failed instead, and
// never redelivered.
func (q *Queue) Nack(lease *Lease, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.takeLeaseLocked(lease); err != nil {
		return err
	}

	it := lease.it
	now := q.now()

	if it.attempts >= it.maxAttempts {
		return q.failLocked(it, cause, now)
	}

	backoff := it.nextBackoff()
	it.readyAt = now.Add(backoff)
	q.pending[it.jobID] = struct{}{}
	q.push(it, now)
	q.wake()

	q.logger.Info("item requeued after failure",
		"job_id", it.jobID,
		"attempt", it.attempts,
		"max_attempts", it.maxAttempts,
		"backoff", backoff,
		"error", cause)
	return nil
}

// Fail settles a lease as terminally failed without consuming the
// remaining retry budget. Used for permanent errors such as malformed
// source material, where retrying cannot help.
func (q *Queue) Fail(lease *Lease, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.takeLeaseLocked(lease); err != nil {
		return err
	}

	return q.failLocked(lease.it, cause, q.now())
}

// Progress emits an advisory progress event for a leased item.
// Progress reporting never affects the item's lifecycle.
func (q *Queue) Progress(lease *Lease, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.leased[lease.JobID()]; !ok {
		return ErrNotLeased
	}

	q.emitLocked(Event{
		JobID:    lease.JobID(),
		Type:     EventProgressed,
		Attempt:  lease.Attempt(),
		Progress: percent,
		At:       q.now(),
	})
	return nil
}

// PruneTerminal drops terminal records that are past their retention
// window, always keeping the configured number of most recent completed
// and failed records. Returns how many records were pruned.
func (q *Queue) PruneTerminal() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var completedSeen, failedSeen int
	// Walk newest-first so the keep limits protect the most recent records.
	kept := make([]terminalRecord, 0, len(q.terminal))
	for i := len(q.terminal) - 1; i >= 0; i-- {
		rec := q.terminal[i]
		keep := false
		if rec.failed {
			failedSeen++
			keep = failedSeen <= q.cfg.FailedKeep ||
				now.Sub(rec.settled) <= q.cfg.FailedRetention
		} else {
			completedSeen++
			keep = completedSeen <= q.cfg.CompletedKeep ||
				now.Sub(rec.settled) <= q.cfg.CompletedRetention
		}
		if keep {
			kept = append(kept, rec)
		}
	}

	pruned := len(q.terminal) - len(kept)

	// Restore chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	q.terminal = kept

	return pruned
}

// RetainedTerminal reports how many completed and failed records are
// currently retained for diagnostics.
func (q *Queue) RetainedTerminal() (completed, failed int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, rec := range q.terminal {
		if rec.failed {
			failed++
		} else {
			completed++
		}
	}
	return completed, failed
}

// Close shuts the queue down: pending Dequeue calls return ErrQueueClosed
// and the event channel is closed once. Callers must stop all workers
// before closing so no settles race the channel close.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.events)
	q.mu.Unlock()

	q.wake()
	q.logger.Info("work queue closed")
}

// failLocked records a terminal failure and emits the failed event.
// Callers must hold q.mu and have already removed the lease.
func (q *Queue) failLocked(it *item, cause error, now time.Time) error {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	q.terminal = append(q.terminal, terminalRecord{
		jobID:   it.jobID,
		failed:  true,
		reason:  reason,
		settled: now,
	})
	q.emitLocked(Event{
		JobID:   it.jobID,
		Type:    EventFailed,
		Attempt: it.attempts,
		Error:   reason,
		At:      now,
	})

	q.logger.Warn("item terminally failed",
		"job_id", it.jobID,
		"attempts", it.attempts,
		"error", reason)
	return nil
}

// takeLeaseLocked validates and releases the lease for settling.
// Callers must hold q.mu.
func (q *Queue) takeLeaseLocked(lease *Lease) error {
	if lease == nil || lease.it == nil {
		return ErrNotLeased
	}
	current, ok := q.leased[lease.JobID()]
	if !ok || current != lease.it {
		return fmt.Errorf("%w: %s", ErrNotLeased, lease.JobID())
	}
	delete(q.leased, lease.JobID())
	return nil
}

// push places an item on the ready or delayed heap depending on its
// readiness. Callers must hold q.mu.
func (q *Queue) push(it *item, now time.Time) {
	if it.readyAt.After(now) {
		heap.Push(&q.delayed, it)
	} else {
		heap.Push(&q.ready, it)
	}
}

// promote moves matured delayed items onto the ready heap.
// Callers must hold q.mu.
func (q *Queue) promote(now time.Time) {
	for q.delayed.Len() > 0 && !q.delayed[0].readyAt.After(now) {
		heap.Push(&q.ready, heap.Pop(&q.delayed))
	}
}

// emitLocked sends a lifecycle event. Enqueued, started and terminal
// events block until the consumer accepts them (the reconciler never
// calls back into the queue, so this cannot deadlock); advisory progress
// events are dropped when the buffer is full rather than stalling a
// worker. Callers must hold q.mu.
func (q *Queue) emitLocked(ev Event) {
	if q.closed {
		return
	}

	if ev.Type == EventProgressed {
		select {
		case q.events <- ev:
		default:
			q.logger.Warn("event buffer full, dropping progress event",
				"job_id", ev.JobID,
				"progress", ev.Progress)
		}
		return
	}

	q.events <- ev
}

// wake nudges one blocked Dequeue without requiring the caller to hold
// the lock.
func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
