package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/store"
)

// PostgresCardStore implements the store.CardStore interface using a
// PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. If logger is nil, a default logger is used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx. The returned store shares the
// receiver's logger but routes all queries through the transaction.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

const cardColumns = "id, upload_id, user_id, chapter_id, type, position, content, source_chunks, created_at, updated_at"

// CreateMultiple implements store.CardStore.CreateMultiple. Each card is
// validated before any row is written, so a bad card rejects the whole batch.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	if len(cards) == 0 {
		return nil
	}

	for i, card := range cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: card %d: %v", store.ErrInvalidEntity, i, err)
		}
	}

	query := `
		INSERT INTO cards (id, upload_id, user_id, chapter_id, type, position, content, source_chunks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, card := range cards {
		sourceChunks, err := json.Marshal(card.SourceChunks)
		if err != nil {
			return fmt.Errorf("failed to marshal source chunks for card %s: %w", card.ID, err)
		}

		_, err = s.db.ExecContext(ctx, query,
			card.ID,
			card.UploadID,
			card.UserID,
			card.ChapterID,
			card.Type,
			card.Position,
			card.Content,
			sourceChunks,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			return MapError(err)
		}
	}

	s.logger.DebugContext(ctx, "created cards",
		slog.Int("count", len(cards)),
		slog.String("chapter_id", cards[0].ChapterID.String()))

	return nil
}

// GetByID implements store.CardStore.GetByID.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := "SELECT " + cardColumns + " FROM cards WHERE id = $1"

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, MapError(err)
	}

	return card, nil
}

// ListByChapter implements store.CardStore.ListByChapter. Cards come back in
// session order: flashcards first, then quizzes, then summaries, each phase
// ordered by position.
func (s *PostgresCardStore) ListByChapter(ctx context.Context, chapterID uuid.UUID) ([]*domain.Card, error) {
	query := "SELECT " + cardColumns + ` FROM cards
		WHERE chapter_id = $1
		ORDER BY CASE type
			WHEN 'FLASHCARD' THEN 0
			WHEN 'QUIZ' THEN 1
			ELSE 2
		END, position`

	rows, err := s.db.QueryContext(ctx, query, chapterID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return cards, nil
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var sourceChunks []byte

	err := row.Scan(
		&card.ID,
		&card.UploadID,
		&card.UserID,
		&card.ChapterID,
		&card.Type,
		&card.Position,
		&card.Content,
		&sourceChunks,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(sourceChunks) > 0 {
		if err := json.Unmarshal(sourceChunks, &card.SourceChunks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source chunks: %w", err)
		}
	}

	return &card, nil
}
