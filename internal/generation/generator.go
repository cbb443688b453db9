package generation

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
)

// Generator defines the interface for turning extracted source text into
// a structured card set. This interface is the boundary between the
// pipeline and external AI/LLM services; the pipeline only depends on the
// input/output contract and the error classification in errors.go.
type Generator interface {
	// GenerateCardSet creates flashcard, quiz and summary cards from the
	// given source text.
	//
	// Parameters:
	//   - ctx: Context for the operation; cancellation and deadlines are
	//     honored and surface as transient failures
	//   - sourceText: The extracted plain text of the source material
	//   - userID: Owner of the resulting cards
	//   - uploadID: The upload the cards are derived from
	//   - chapterID: The chapter the cards belong to
	//
	// Returns the generated cards, or an error wrapping one of the
	// sentinel errors in errors.go so callers can classify it.
	GenerateCardSet(
		ctx context.Context,
		sourceText string,
		userID, uploadID, chapterID uuid.UUID,
	) ([]*domain.Card, error)
}
