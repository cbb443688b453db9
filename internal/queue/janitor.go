package queue

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Janitor periodically prunes terminal item records from a queue.
// Prune failures are logged and never propagated; retention is a
// diagnostics concern and must not disturb the pipeline.
type Janitor struct {
	queue     *Queue
	scheduler *gocron.Scheduler
	interval  time.Duration
	logger    *slog.Logger
}

// NewJanitor creates a janitor that prunes the given queue at the given
// interval. An interval of zero defaults to one hour.
func NewJanitor(queue *Queue, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{
		queue:     queue,
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		logger:    logger.With("component", "queue_janitor"),
	}
}

// Start begins pruning in the background.
func (j *Janitor) Start() error {
	if _, err := j.scheduler.Every(j.interval).Do(j.prune); err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop terminates the pruning schedule.
func (j *Janitor) Stop() {
	j.scheduler.Stop()
}

func (j *Janitor) prune() {
	defer func() {
		if p := recover(); p != nil {
			j.logger.Error("prune panicked", "panic", p)
		}
	}()

	if pruned := j.queue.PruneTerminal(); pruned > 0 {
		j.logger.Info("pruned terminal queue records", "count", pruned)
	}
}
