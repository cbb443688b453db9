package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/store"
)

// PostgresUploadJobStore implements the store.UploadJobStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUploadJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUploadJobStore creates a new PostgreSQL implementation of
// the UploadJobStore interface. If logger is nil, a default logger is used.
func NewPostgresUploadJobStore(db store.DBTX, logger *slog.Logger) *PostgresUploadJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUploadJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "upload_job_store")),
	}
}

// Ensure PostgresUploadJobStore implements store.UploadJobStore
var _ store.UploadJobStore = (*PostgresUploadJobStore)(nil)

const jobColumns = `id, upload_id, user_id, status, progress, result, error_message,
	created_at, started_at, completed_at`

// Create implements store.UploadJobStore.Create.
func (s *PostgresUploadJobStore) Create(ctx context.Context, job *domain.UploadJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO upload_jobs (id, upload_id, user_id, status, progress, result,
			error_message, created_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.UploadID,
		job.UserID,
		job.Status,
		job.Progress,
		[]byte(job.Result),
		job.Error,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// GetByID implements store.UploadJobStore.GetByID.
func (s *PostgresUploadJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.UploadJob, error) {
	query := `SELECT ` + jobColumns + ` FROM upload_jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, MapError(err)
	}

	return job, nil
}

// ListByUpload implements store.UploadJobStore.ListByUpload.
func (s *PostgresUploadJobStore) ListByUpload(ctx context.Context, uploadID uuid.UUID) ([]*domain.UploadJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM upload_jobs
		WHERE upload_id = $1
		ORDER BY created_at ASC`

	return s.queryJobs(ctx, query, uploadID)
}

// ListUnfinished implements store.UploadJobStore.ListUnfinished.
func (s *PostgresUploadJobStore) ListUnfinished(ctx context.Context) ([]*domain.UploadJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM upload_jobs
		WHERE status IN ($1, $2)
		ORDER BY created_at ASC`

	return s.queryJobs(ctx, query, domain.JobStatusQueued, domain.JobStatusActive)
}

// Apply implements store.UploadJobStore.Apply. The WHERE clause excludes
// terminal rows, which is what makes reconciler writes idempotent with
// respect to duplicate terminal events: the second application matches
// zero rows and surfaces as ErrUpdateFailed.
func (s *PostgresUploadJobStore) Apply(ctx context.Context, id uuid.UUID, update store.JobUpdate) error {
	query := `
		UPDATE upload_jobs
		SET status = COALESCE($2, status),
			progress = COALESCE($3, progress),
			result = COALESCE($4, result),
			error_message = COALESCE($5, error_message),
			started_at = COALESCE($6, started_at),
			completed_at = COALESCE($7, completed_at)
		WHERE id = $1 AND status NOT IN ($8, $9)
	`

	var result []byte
	if update.Result != nil {
		result = []byte(update.Result)
	}

	res, err := s.db.ExecContext(ctx, query,
		id,
		update.Status,
		update.Progress,
		result,
		update.Error,
		update.StartedAt,
		update.CompletedAt,
		domain.JobStatusCompleted,
		domain.JobStatusFailed,
	)
	if err != nil {
		return MapError(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		// Either the job does not exist or it is already terminal.
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: job %s is terminal", store.ErrUpdateFailed, id)
	}

	return nil
}

func (s *PostgresUploadJobStore) queryJobs(ctx context.Context, query string, args ...any) ([]*domain.UploadJob, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	jobs := []*domain.UploadJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, MapError(err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return jobs, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.UploadJob, error) {
	var job domain.UploadJob
	var result []byte
	var errMsg sql.NullString

	err := row.Scan(
		&job.ID,
		&job.UploadID,
		&job.UserID,
		&job.Status,
		&job.Progress,
		&result,
		&errMsg,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(result) > 0 {
		job.Result = result
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}

	return &job, nil
}
