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

// PostgresReviewStateStore implements the store.ReviewStateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStateStore creates a new PostgreSQL implementation of the
// ReviewStateStore interface. If logger is nil, a default logger is used.
func NewPostgresReviewStateStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_state_store")),
	}
}

// Ensure PostgresReviewStateStore implements store.ReviewStateStore
var _ store.ReviewStateStore = (*PostgresReviewStateStore)(nil)

const reviewStateColumns = `user_id, card_id, status, attempts, is_known, review_count,
	streak, repetitions, difficulty, interval_days, next_review, last_reviewed, created_at, updated_at`

// Get implements store.ReviewStateStore.Get.
func (s *PostgresReviewStateStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error) {
	query := "SELECT " + reviewStateColumns + " FROM review_states WHERE user_id = $1 AND card_id = $2"

	state, err := scanReviewState(s.db.QueryRowContext(ctx, query, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewStateNotFound
		}
		return nil, MapError(err)
	}

	return state, nil
}

// Save implements store.ReviewStateStore.Save. The write is an upsert keyed
// on (user_id, card_id) so first and repeat reviews go through the same path.
func (s *PostgresReviewStateStore) Save(ctx context.Context, state *domain.ReviewState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_states (user_id, card_id, status, attempts, is_known, review_count,
			streak, repetitions, difficulty, interval_days, next_review, last_reviewed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			is_known = EXCLUDED.is_known,
			review_count = EXCLUDED.review_count,
			streak = EXCLUDED.streak,
			repetitions = EXCLUDED.repetitions,
			difficulty = EXCLUDED.difficulty,
			interval_days = EXCLUDED.interval_days,
			next_review = EXCLUDED.next_review,
			last_reviewed = EXCLUDED.last_reviewed,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		state.UserID,
		state.CardID,
		state.Status,
		state.Attempts,
		state.IsKnown,
		state.ReviewCount,
		state.Streak,
		state.Repetitions,
		state.Difficulty,
		state.Interval,
		state.NextReview,
		state.LastReviewed,
		state.CreatedAt,
		state.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// ListForCards implements store.ReviewStateStore.ListForCards. Cards the
// user has never reviewed have no entry in the returned map.
func (s *PostgresReviewStateStore) ListForCards(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]*domain.ReviewState, error) {
	states := make(map[uuid.UUID]*domain.ReviewState, len(cardIDs))
	if len(cardIDs) == 0 {
		return states, nil
	}

	query := "SELECT " + reviewStateColumns + " FROM review_states WHERE user_id = $1 AND card_id = ANY($2::uuid[])"

	ids := make([]string, len(cardIDs))
	for i, id := range cardIDs {
		ids[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx, query, userID, ids)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		state, err := scanReviewState(rows)
		if err != nil {
			return nil, MapError(err)
		}
		states[state.CardID] = state
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return states, nil
}

func scanReviewState(row rowScanner) (*domain.ReviewState, error) {
	var state domain.ReviewState

	err := row.Scan(
		&state.UserID,
		&state.CardID,
		&state.Status,
		&state.Attempts,
		&state.IsKnown,
		&state.ReviewCount,
		&state.Streak,
		&state.Repetitions,
		&state.Difficulty,
		&state.Interval,
		&state.NextReview,
		&state.LastReviewed,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &state, nil
}
