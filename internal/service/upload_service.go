package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/pipeline"
	"github.com/lexa-learn/lexa-api/internal/platform/logger"
	"github.com/lexa-learn/lexa-api/internal/queue"
	"github.com/lexa-learn/lexa-api/internal/store"
)

// UploadService accepts source material and kicks off asynchronous card
// generation.
type UploadService interface {
	// SubmitUpload persists the upload, creates a queued job record and
	// enqueues the generation work item. Callers poll the returned job
	// for progress.
	SubmitUpload(
		ctx context.Context,
		userID, chapterID uuid.UUID,
		sourceType domain.SourceType,
		sourceRef string,
	) (*domain.UploadJob, error)
}

// Verify interface compliance at compile time
var _ UploadService = (*uploadServiceImpl)(nil)

type uploadServiceImpl struct {
	uploads store.UploadStore
	jobs    store.UploadJobStore
	queue   *queue.Queue
	logger  *slog.Logger
}

// NewUploadService creates a new UploadService implementation.
func NewUploadService(
	uploads store.UploadStore,
	jobs store.UploadJobStore,
	q *queue.Queue,
	logger *slog.Logger,
) UploadService {
	if uploads == nil {
		panic("upload store cannot be nil")
	}
	if jobs == nil {
		panic("job store cannot be nil")
	}
	if q == nil {
		panic("queue cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &uploadServiceImpl{
		uploads: uploads,
		jobs:    jobs,
		queue:   q,
		logger:  logger.With(slog.String("component", "upload_service")),
	}
}

// SubmitUpload implements UploadService.SubmitUpload.
func (s *uploadServiceImpl) SubmitUpload(
	ctx context.Context,
	userID, chapterID uuid.UUID,
	sourceType domain.SourceType,
	sourceRef string,
) (*domain.UploadJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	upload, err := domain.NewUpload(userID, chapterID, sourceType, sourceRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	if err := s.uploads.Create(ctx, upload); err != nil {
		return nil, NewServiceError("submit_upload", "failed to save upload", err)
	}

	job, err := domain.NewUploadJob(upload.ID, userID)
	if err != nil {
		return nil, NewServiceError("submit_upload", "failed to create job", err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, NewServiceError("submit_upload", "failed to save job", err)
	}

	payload, err := pipeline.NewPayloadFromUpload(upload).Marshal()
	if err != nil {
		return nil, NewServiceError("submit_upload", "failed to build work item", err)
	}

	err = s.queue.Enqueue(job.ID, pipeline.JobTypeCardGeneration, payload, queue.Options{})
	if err != nil {
		// The job record exists but nothing will process it until the
		// next startup recovery pass picks it up.
		log.Error("failed to enqueue generation job",
			slog.String("job_id", job.ID.String()),
			slog.String("upload_id", upload.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("submit_upload", "failed to enqueue job", err)
	}

	log.Info("upload submitted",
		slog.String("upload_id", upload.ID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("source_type", string(sourceType)))

	return job, nil
}

// JobService exposes job status to polling clients.
type JobService interface {
	// GetJobStatus returns the current job record.
	// Returns ErrJobNotFound if the job does not exist.
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (*domain.UploadJob, error)

	// ListJobsForUpload returns all jobs for an upload ordered by creation
	// time.
	ListJobsForUpload(ctx context.Context, uploadID uuid.UUID) ([]*domain.UploadJob, error)
}

// Verify interface compliance at compile time
var _ JobService = (*jobServiceImpl)(nil)

type jobServiceImpl struct {
	jobs   store.UploadJobStore
	logger *slog.Logger
}

// NewJobService creates a new JobService implementation.
func NewJobService(jobs store.UploadJobStore, logger *slog.Logger) JobService {
	if jobs == nil {
		panic("job store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		jobs:   jobs,
		logger: logger.With(slog.String("component", "job_service")),
	}
}

// GetJobStatus implements JobService.GetJobStatus.
func (s *jobServiceImpl) GetJobStatus(ctx context.Context, jobID uuid.UUID) (*domain.UploadJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, NewServiceError("get_job_status", "failed to get job", err)
	}
	return job, nil
}

// ListJobsForUpload implements JobService.ListJobsForUpload.
func (s *jobServiceImpl) ListJobsForUpload(ctx context.Context, uploadID uuid.UUID) ([]*domain.UploadJob, error) {
	jobs, err := s.jobs.ListByUpload(ctx, uploadID)
	if err != nil {
		return nil, NewServiceError("list_jobs", "failed to list jobs", err)
	}
	return jobs, nil
}
