package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of an upload job.
// Transitions are monotonic: queued -> active -> {completed | failed}.
type JobStatus string

// Possible job status values
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Common validation errors for UploadJob
var (
	ErrEmptyJobID       = errors.New("job ID cannot be empty")
	ErrEmptyJobUploadID = errors.New("job upload ID cannot be empty")
	ErrEmptyJobUserID   = errors.New("job user ID cannot be empty")
	ErrInvalidJobStatus = errors.New("invalid job status")
	ErrInvalidProgress  = errors.New("job progress must be between 0 and 100")
)

// UploadJob is the durable record of one background card-generation job.
// It is created when a user submits content and from then on mutated only
// by the reconciler, which mirrors work-queue lifecycle events into it.
// Jobs are never deleted; retrying an upload creates a new job.
type UploadJob struct {
	ID          uuid.UUID       `json:"id"`
	UploadID    uuid.UUID       `json:"upload_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Status      JobStatus       `json:"status"`
	Progress    int             `json:"progress"` // 0-100
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewUploadJob creates a new queued job for the given upload.
// Returns an error if validation fails.
func NewUploadJob(uploadID, userID uuid.UUID) (*UploadJob, error) {
	job := &UploadJob{
		ID:        uuid.New(),
		UploadID:  uploadID,
		UserID:    userID,
		Status:    JobStatusQueued,
		Progress:  0,
		CreatedAt: time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the UploadJob has valid data.
func (j *UploadJob) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.UploadID == uuid.Nil {
		return ErrEmptyJobUploadID
	}

	if j.UserID == uuid.Nil {
		return ErrEmptyJobUserID
	}

	if !IsValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	if j.Progress < 0 || j.Progress > 100 {
		return ErrInvalidProgress
	}

	return nil
}

// IsTerminal reports whether the job has reached a terminal status.
func (j *UploadJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// IsValidJobStatus checks if the given status is a valid JobStatus.
func IsValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusQueued, JobStatusActive, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}
