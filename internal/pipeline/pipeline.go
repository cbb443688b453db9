package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lexa-learn/lexa-api/internal/config"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/extract"
	"github.com/lexa-learn/lexa-api/internal/generation"
	"github.com/lexa-learn/lexa-api/internal/queue"
	"github.com/lexa-learn/lexa-api/internal/store"
)

// Progress milestones reported while a job moves through the pipeline.
const (
	progressExtracted = 25
	progressGenerated = 75
	progressPersisted = 100
)

// TextExtractor turns an upload source into plain text. Satisfied by
// *extract.Extractor.
type TextExtractor interface {
	Text(ctx context.Context, sourceType domain.SourceType, sourceRef string) (string, error)
}

// CardPersister saves a generated card set atomically.
type CardPersister interface {
	SaveCards(ctx context.Context, cards []*domain.Card) error
}

// txCardPersister persists a card set inside a database transaction.
type txCardPersister struct {
	db    *sql.DB
	cards store.CardStore
}

// NewTxCardPersister creates the production CardPersister: all cards of a
// set are written in one transaction.
func NewTxCardPersister(db *sql.DB, cards store.CardStore) CardPersister {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil {
		panic("card store cannot be nil")
	}
	return &txCardPersister{db: db, cards: cards}
}

func (p *txCardPersister) SaveCards(ctx context.Context, cards []*domain.Card) error {
	return store.RunInTransaction(ctx, p.db, func(ctx context.Context, tx *sql.Tx) error {
		return p.cards.WithTx(tx).CreateMultiple(ctx, cards)
	})
}

// Pipeline processes card generation jobs leased from the work queue.
type Pipeline struct {
	queue       *queue.Queue
	extractor   TextExtractor
	generator   generation.Generator
	persister   CardPersister
	jobStore    store.UploadJobStore
	uploadStore store.UploadStore
	cfg         config.PipelineConfig
	logger      *slog.Logger
}

// New creates a pipeline. All dependencies are required; a nil logger
// falls back to the default logger.
func New(
	q *queue.Queue,
	extractor TextExtractor,
	generator generation.Generator,
	persister CardPersister,
	jobStore store.UploadJobStore,
	uploadStore store.UploadStore,
	cfg config.PipelineConfig,
	logger *slog.Logger,
) (*Pipeline, error) {
	if q == nil {
		return nil, errors.New("queue cannot be nil")
	}
	if extractor == nil {
		return nil, errors.New("extractor cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if persister == nil {
		return nil, errors.New("persister cannot be nil")
	}
	if jobStore == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if uploadStore == nil {
		return nil, errors.New("upload store cannot be nil")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		queue:       q,
		extractor:   extractor,
		generator:   generator,
		persister:   persister,
		jobStore:    jobStore,
		uploadStore: uploadStore,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "pipeline")),
	}, nil
}

// Run starts the worker pool and blocks until the context is cancelled or
// the queue is closed. Individual job failures are settled on the queue
// and never stop the pool.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	p.logger.Info("starting pipeline workers", "worker_count", p.cfg.WorkerCount)

	for i := 0; i < p.cfg.WorkerCount; i++ {
		workerID := i
		g.Go(func() error {
			return p.runWorker(ctx, workerID)
		})
	}

	return g.Wait()
}

func (p *Pipeline) runWorker(ctx context.Context, workerID int) error {
	log := p.logger.With(slog.Int("worker_id", workerID))
	log.Debug("worker started")

	for {
		lease, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || ctx.Err() != nil {
				log.Debug("worker stopping", "reason", err.Error())
				return nil
			}
			return fmt.Errorf("worker %d: dequeue: %w", workerID, err)
		}

		p.process(ctx, lease)
	}
}

// process runs one leased job through extract, generate and persist, then
// settles the lease. Every failure path classifies the error and settles
// exactly once.
func (p *Pipeline) process(ctx context.Context, lease *queue.Lease) {
	log := p.logger.With(
		slog.String("job_id", lease.JobID().String()),
		slog.Int("attempt", lease.Attempt()))

	payload, err := unmarshalPayload(lease.Payload())
	if err != nil {
		// A payload that cannot be decoded will not decode next time either.
		log.Error("invalid job payload", "error", err)
		p.fail(lease, err, log)
		return
	}

	log = log.With(slog.String("upload_id", payload.UploadID.String()))

	text, err := p.extractor.Text(ctx, payload.SourceType, payload.SourceRef)
	if err != nil {
		log.Warn("source extraction failed", "error", err, "source_type", payload.SourceType)
		p.settle(lease, err, extract.IsPermanent(err), log)
		return
	}
	p.reportProgress(lease, progressExtracted, log)

	genCtx := ctx
	if p.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.cfg.GenerateTimeout)
		defer cancel()
	}

	cards, err := p.generator.GenerateCardSet(genCtx, text, payload.UserID, payload.UploadID, payload.ChapterID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: generation timed out: %v", generation.ErrTransientFailure, err)
		}
		log.Warn("card generation failed", "error", err)
		p.settle(lease, err, generation.IsPermanent(err), log)
		return
	}
	p.reportProgress(lease, progressGenerated, log)

	if err := p.persister.SaveCards(ctx, cards); err != nil {
		// Persistence failures are transient; the generated cards are
		// discarded and the whole job is retried.
		log.Warn("failed to persist cards", "error", err)
		p.nack(lease, err, log)
		return
	}
	p.reportProgress(lease, progressPersisted, log)

	result := GenerationResult{Count: len(cards)}
	for _, card := range cards {
		result.CardIDs = append(result.CardIDs, card.ID)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		log.Error("failed to marshal job result", "error", err)
		resultJSON = nil
	}

	if err := p.queue.Ack(lease, resultJSON); err != nil {
		log.Error("failed to ack job", "error", err)
		return
	}

	log.Info("card generation completed", "card_count", len(cards))
}

// settle routes an error to Fail or Nack depending on classification.
func (p *Pipeline) settle(lease *queue.Lease, cause error, permanent bool, log *slog.Logger) {
	if permanent {
		p.fail(lease, cause, log)
		return
	}
	p.nack(lease, cause, log)
}

func (p *Pipeline) fail(lease *queue.Lease, cause error, log *slog.Logger) {
	if err := p.queue.Fail(lease, cause); err != nil {
		log.Error("failed to fail job", "error", err)
	}
}

func (p *Pipeline) nack(lease *queue.Lease, cause error, log *slog.Logger) {
	if err := p.queue.Nack(lease, cause); err != nil {
		log.Error("failed to nack job", "error", err)
	}
}

func (p *Pipeline) reportProgress(lease *queue.Lease, percent int, log *slog.Logger) {
	if err := p.queue.Progress(lease, percent); err != nil {
		log.Warn("failed to report progress", "error", err, "percent", percent)
	}
}

// Recover re-enqueues jobs that were queued or active when the process
// last stopped. Jobs already pending in the queue are skipped, so Recover
// is safe to call more than once.
func (p *Pipeline) Recover(ctx context.Context) error {
	jobs, err := p.jobStore.ListUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unfinished jobs: %w", err)
	}

	recovered := 0
	for _, job := range jobs {
		upload, err := p.uploadStore.GetByID(ctx, job.UploadID)
		if err != nil {
			p.logger.Error("cannot recover job, upload lookup failed",
				"job_id", job.ID,
				"upload_id", job.UploadID,
				"error", err)
			continue
		}

		payload, err := NewPayloadFromUpload(upload).Marshal()
		if err != nil {
			p.logger.Error("cannot recover job, payload marshal failed",
				"job_id", job.ID,
				"error", err)
			continue
		}

		err = p.queue.Enqueue(job.ID, JobTypeCardGeneration, payload, queue.Options{})
		if err != nil {
			if errors.Is(err, queue.ErrDuplicateJob) {
				continue
			}
			return fmt.Errorf("failed to re-enqueue job %s: %w", job.ID, err)
		}
		recovered++
	}

	if recovered > 0 {
		p.logger.Info("recovered unfinished jobs", "count", recovered)
	}

	return nil
}
