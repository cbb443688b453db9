package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
)

// CardStore defines the interface for card data persistence.
// Version: 1.0
type CardStore interface {
	// CreateMultiple saves multiple cards to the store. This method MUST
	// be run within a transaction for atomicity; use WithTx together with
	// store.RunInTransaction. All cards must be valid according to domain
	// validation rules.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByChapter retrieves all of a chapter's cards, ordered by type
	// phase (flashcards, quizzes, summaries) and position within the
	// type. Returns an empty slice for unknown chapters.
	ListByChapter(ctx context.Context, chapterID uuid.UUID) ([]*domain.Card, error)

	// WithTx returns a new CardStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) CardStore
}
