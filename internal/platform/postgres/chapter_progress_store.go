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

// PostgresChapterProgressStore implements the store.ChapterProgressStore
// interface using a PostgreSQL database as the storage backend.
type PostgresChapterProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresChapterProgressStore creates a new PostgreSQL implementation of
// the ChapterProgressStore interface. If logger is nil, a default logger is
// used.
func NewPostgresChapterProgressStore(db store.DBTX, logger *slog.Logger) *PostgresChapterProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresChapterProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "chapter_progress_store")),
	}
}

// Ensure PostgresChapterProgressStore implements store.ChapterProgressStore
var _ store.ChapterProgressStore = (*PostgresChapterProgressStore)(nil)

// Get implements store.ChapterProgressStore.Get.
func (s *PostgresChapterProgressStore) Get(ctx context.Context, userID, chapterID uuid.UUID) (*domain.ChapterProgress, error) {
	query := `
		SELECT user_id, chapter_id,
			flashcards_completed, flashcards_total,
			quizzes_completed, quizzes_total,
			summaries_completed, summaries_total,
			completion_percentage, last_accessed, created_at, updated_at
		FROM chapter_progress
		WHERE user_id = $1 AND chapter_id = $2
	`

	var progress domain.ChapterProgress
	err := s.db.QueryRowContext(ctx, query, userID, chapterID).Scan(
		&progress.UserID,
		&progress.ChapterID,
		&progress.Flashcards.Completed,
		&progress.Flashcards.Total,
		&progress.Quizzes.Completed,
		&progress.Quizzes.Total,
		&progress.Summaries.Completed,
		&progress.Summaries.Total,
		&progress.CompletionPercentage,
		&progress.LastAccessed,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrChapterProgressNotFound
		}
		return nil, MapError(err)
	}

	return &progress, nil
}

// Save implements store.ChapterProgressStore.Save. The write is an upsert
// keyed on (user_id, chapter_id).
func (s *PostgresChapterProgressStore) Save(ctx context.Context, progress *domain.ChapterProgress) error {
	if progress.UserID == uuid.Nil || progress.ChapterID == uuid.Nil {
		return fmt.Errorf("%w: user ID and chapter ID are required", store.ErrInvalidEntity)
	}

	query := `
		INSERT INTO chapter_progress (user_id, chapter_id,
			flashcards_completed, flashcards_total,
			quizzes_completed, quizzes_total,
			summaries_completed, summaries_total,
			completion_percentage, last_accessed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, chapter_id) DO UPDATE SET
			flashcards_completed = EXCLUDED.flashcards_completed,
			flashcards_total = EXCLUDED.flashcards_total,
			quizzes_completed = EXCLUDED.quizzes_completed,
			quizzes_total = EXCLUDED.quizzes_total,
			summaries_completed = EXCLUDED.summaries_completed,
			summaries_total = EXCLUDED.summaries_total,
			completion_percentage = EXCLUDED.completion_percentage,
			last_accessed = EXCLUDED.last_accessed,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		progress.UserID,
		progress.ChapterID,
		progress.Flashcards.Completed,
		progress.Flashcards.Total,
		progress.Quizzes.Completed,
		progress.Quizzes.Total,
		progress.Summaries.Completed,
		progress.Summaries.Total,
		progress.CompletionPercentage,
		progress.LastAccessed,
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}
