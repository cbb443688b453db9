// Package main implements the entry point for the lexa API server, which
// turns uploaded study material into spaced repetition card sets and
// schedules reviews.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/lexa-learn/lexa-api/internal/config"
	"github.com/lexa-learn/lexa-api/internal/domain/srs"
	"github.com/lexa-learn/lexa-api/internal/extract"
	"github.com/lexa-learn/lexa-api/internal/pipeline"
	"github.com/lexa-learn/lexa-api/internal/platform/gemini"
	"github.com/lexa-learn/lexa-api/internal/platform/logger"
	"github.com/lexa-learn/lexa-api/internal/platform/postgres"
	"github.com/lexa-learn/lexa-api/internal/queue"
	"github.com/lexa-learn/lexa-api/internal/reconciler"
	"github.com/lexa-learn/lexa-api/internal/service"
)

// janitorInterval is how often terminal queue records are pruned.
const janitorInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("starting lexa-api",
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Pipeline.WorkerCount)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db, appLogger); err != nil {
		return err
	}

	app, err := buildApp(ctx, cfg, db, appLogger)
	if err != nil {
		return err
	}

	return app.run(ctx, appLogger)
}

// app holds the wired application components.
type app struct {
	queue      *queue.Queue
	janitor    *queue.Janitor
	pipeline   *pipeline.Pipeline
	reconciler *reconciler.Reconciler

	uploads service.UploadService
	jobs    service.JobService
	reviews service.ReviewService
	session service.SessionService
}

// buildApp wires stores, the queue and the services together.
func buildApp(ctx context.Context, cfg *config.Config, db *sql.DB, appLogger *slog.Logger) (*app, error) {
	uploadStore := postgres.NewPostgresUploadStore(db, appLogger)
	jobStore := postgres.NewPostgresUploadJobStore(db, appLogger)
	cardStore := postgres.NewPostgresCardStore(db, appLogger)
	reviewStore := postgres.NewPostgresReviewStateStore(db, appLogger)
	progressStore := postgres.NewPostgresChapterProgressStore(db, appLogger)

	workQueue := queue.New(queue.Config{
		EventBufferSize:    cfg.Queue.EventBufferSize,
		DefaultMaxAttempts: cfg.Queue.MaxAttempts,
		DefaultBackoffBase: cfg.Queue.BackoffBase,
		CompletedRetention: cfg.Queue.CompletedRetention,
		FailedRetention:    cfg.Queue.FailedRetention,
		CompletedKeep:      cfg.Queue.CompletedKeep,
		FailedKeep:         cfg.Queue.FailedKeep,
	}, appLogger)

	generator, err := gemini.NewGeminiGenerator(ctx, appLogger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	extractor := extract.New(cfg.Pipeline.FetchTimeout)

	pipe, err := pipeline.New(
		workQueue, extractor, generator,
		pipeline.NewTxCardPersister(db, cardStore),
		jobStore, uploadStore,
		cfg.Pipeline, appLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	rec, err := reconciler.New(jobStore, workQueue.Events(), appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciler: %w", err)
	}

	return &app{
		queue:      workQueue,
		janitor:    queue.NewJanitor(workQueue, janitorInterval, appLogger),
		pipeline:   pipe,
		reconciler: rec,
		uploads:    service.NewUploadService(uploadStore, jobStore, workQueue, appLogger),
		jobs:       service.NewJobService(jobStore, appLogger),
		reviews:    service.NewReviewService(cardStore, reviewStore, progressStore, srs.NewDefaultService(), appLogger),
		session:    service.NewSessionService(cardStore, reviewStore, appLogger),
	}, nil
}

// run starts the background components and blocks until shutdown. The
// reconciler outlives the workers so every event emitted before Close is
// still applied to the job store.
func (a *app) run(ctx context.Context, appLogger *slog.Logger) error {
	if err := a.janitor.Start(); err != nil {
		return fmt.Errorf("failed to start janitor: %w", err)
	}
	defer a.janitor.Stop()

	// Reconciler first so recovery events are consumed immediately.
	recDone := make(chan error, 1)
	go func() {
		recDone <- a.reconciler.Run(context.WithoutCancel(ctx))
	}()

	if err := a.pipeline.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover unfinished jobs: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.pipeline.Run(gctx)
	})

	appLogger.Info("lexa-api running")
	err := g.Wait()

	// Closing the queue ends the event stream, which stops the reconciler
	// once it has drained everything already emitted.
	a.queue.Close()
	if recErr := <-recDone; recErr != nil && err == nil {
		err = recErr
	}

	if err != nil && ctx.Err() != nil {
		// Normal signal-driven shutdown.
		appLogger.Info("lexa-api stopped")
		return nil
	}

	return err
}
