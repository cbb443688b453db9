package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
)

// ReviewStateStore defines the interface for review state persistence.
// There is at most one state per (user, card) pair.
// Version: 1.0
type ReviewStateStore interface {
	// Get retrieves the review state for a user and card.
	// Returns ErrReviewStateNotFound if the pair has no state yet;
	// callers treat that as a signal to create one lazily.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error)

	// Save creates or replaces the review state for its (user, card)
	// pair. Single-entity atomic write.
	Save(ctx context.Context, state *domain.ReviewState) error

	// ListForCards retrieves the user's states for the given cards,
	// keyed by card ID. Cards without state are simply absent from the map.
	ListForCards(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]*domain.ReviewState, error)
}

// ChapterProgressStore defines the interface for chapter progress
// persistence. Progress records are derived state; callers may overwrite
// them wholesale on every recompute.
// Version: 1.0
type ChapterProgressStore interface {
	// Get retrieves a user's progress for a chapter.
	// Returns ErrChapterProgressNotFound if no record exists yet.
	Get(ctx context.Context, userID, chapterID uuid.UUID) (*domain.ChapterProgress, error)

	// Save creates or replaces a progress record.
	Save(ctx context.Context, progress *domain.ChapterProgress) error
}
