package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
)

// JobUpdate describes one reconciler write against a job record. Nil
// fields are left untouched; status transitions are applied monotonically
// (a terminal record is never regressed or overwritten).
type JobUpdate struct {
	Status      *domain.JobStatus
	Progress    *int
	Result      json.RawMessage
	Error       *string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// UploadJobStore defines the interface for upload job persistence.
// Version: 1.0
type UploadJobStore interface {
	// Create persists a new job record.
	// Returns ErrDuplicate if a job with the same ID already exists.
	Create(ctx context.Context, job *domain.UploadJob) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UploadJob, error)

	// ListByUpload retrieves all jobs for an upload, ordered by creation
	// time ascending. Returns an empty slice when the upload has no jobs.
	ListByUpload(ctx context.Context, uploadID uuid.UUID) ([]*domain.UploadJob, error)

	// ListUnfinished retrieves all jobs whose status is queued or active,
	// used at startup to re-enqueue work interrupted by a crash.
	ListUnfinished(ctx context.Context) ([]*domain.UploadJob, error)

	// Apply mutates a job record with the given update. Implementations
	// must enforce monotonic status transitions: once a job is terminal,
	// Apply is a no-op returning ErrUpdateFailed so callers can detect
	// the discarded write. Returns ErrJobNotFound for unknown IDs.
	Apply(ctx context.Context, id uuid.UUID, update JobUpdate) error
}

// UploadStore defines the interface for upload persistence.
// Version: 1.0
type UploadStore interface {
	// Create persists a new upload.
	Create(ctx context.Context, upload *domain.Upload) error

	// GetByID retrieves an upload by its unique ID.
	// Returns ErrUploadNotFound if the upload does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Upload, error)
}
