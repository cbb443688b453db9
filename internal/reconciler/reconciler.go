// Package reconciler mirrors queue lifecycle events onto durable job
// records. It is the sole consumer of the queue's event stream: each event
// becomes a partial job update applied through the job store. Writes are
// best effort; a failed write is logged and dropped rather than blocking
// the stream, and events arriving after a job is terminal are ignored.
package reconciler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/queue"
	"github.com/lexa-learn/lexa-api/internal/store"
)

// Reconciler applies queue lifecycle events to upload job records.
type Reconciler struct {
	jobs   store.UploadJobStore
	events <-chan queue.Event
	logger *slog.Logger
}

// New creates a reconciler consuming the given event stream.
func New(jobs store.UploadJobStore, events <-chan queue.Event, logger *slog.Logger) (*Reconciler, error) {
	if jobs == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if events == nil {
		return nil, errors.New("event channel cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		jobs:   jobs,
		events: events,
		logger: logger.With(slog.String("component", "reconciler")),
	}, nil
}

// Run consumes events until the context is cancelled or the event channel
// is closed. It never returns an error from individual writes; the event
// stream must keep draining so the queue cannot stall on a full buffer.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-r.events:
			if !ok {
				r.logger.Debug("event stream closed, reconciler stopping")
				return nil
			}
			r.apply(ctx, ev)
		}
	}
}

// apply maps one lifecycle event to a job record update.
func (r *Reconciler) apply(ctx context.Context, ev queue.Event) {
	var update store.JobUpdate

	switch ev.Type {
	case queue.EventEnqueued:
		update.Status = statusPtr(domain.JobStatusQueued)
	case queue.EventStarted:
		update.Status = statusPtr(domain.JobStatusActive)
		update.StartedAt = &ev.At
	case queue.EventProgressed:
		progress := ev.Progress
		update.Progress = &progress
	case queue.EventCompleted:
		update.Status = statusPtr(domain.JobStatusCompleted)
		update.Progress = intPtr(100)
		update.Result = ev.Result
		update.CompletedAt = &ev.At
	case queue.EventFailed:
		update.Status = statusPtr(domain.JobStatusFailed)
		update.Error = &ev.Error
		update.CompletedAt = &ev.At
	default:
		r.logger.Warn("unknown event type", "event_type", ev.Type, "job_id", ev.JobID)
		return
	}

	err := r.jobs.Apply(ctx, ev.JobID, update)
	if err == nil {
		return
	}

	if errors.Is(err, store.ErrUpdateFailed) {
		// The job settled already; late or duplicate events are expected
		// under at-least-once delivery.
		r.logger.Debug("ignoring event for terminal job",
			"job_id", ev.JobID,
			"event_type", ev.Type)
		return
	}

	r.logger.Error("failed to apply lifecycle event",
		"job_id", ev.JobID,
		"event_type", ev.Type,
		"error", err)
}

func statusPtr(s domain.JobStatus) *domain.JobStatus { return &s }

func intPtr(v int) *int { return &v }
