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

// PostgresUploadStore implements the store.UploadStore interface using a
// PostgreSQL database as the storage backend.
type PostgresUploadStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUploadStore creates a new PostgreSQL implementation of the
// UploadStore interface. If logger is nil, a default logger is used.
func NewPostgresUploadStore(db store.DBTX, logger *slog.Logger) *PostgresUploadStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUploadStore{
		db:     db,
		logger: logger.With(slog.String("component", "upload_store")),
	}
}

// Ensure PostgresUploadStore implements store.UploadStore
var _ store.UploadStore = (*PostgresUploadStore)(nil)

// Create implements store.UploadStore.Create.
func (s *PostgresUploadStore) Create(ctx context.Context, upload *domain.Upload) error {
	if err := upload.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO uploads (id, user_id, chapter_id, source_type, source_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		upload.ID,
		upload.UserID,
		upload.ChapterID,
		upload.SourceType,
		upload.SourceRef,
		upload.CreatedAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// GetByID implements store.UploadStore.GetByID.
func (s *PostgresUploadStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Upload, error) {
	query := `
		SELECT id, user_id, chapter_id, source_type, source_ref, created_at
		FROM uploads
		WHERE id = $1
	`

	var upload domain.Upload
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&upload.ID,
		&upload.UserID,
		&upload.ChapterID,
		&upload.SourceType,
		&upload.SourceRef,
		&upload.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUploadNotFound
		}
		return nil, MapError(err)
	}

	return &upload, nil
}
