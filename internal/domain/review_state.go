package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CardAction represents what the user did with a card during review.
type CardAction string

// Possible card action values
const (
	CardActionKnown   CardAction = "known"
	CardActionUnknown CardAction = "unknown"
	CardActionSkip    CardAction = "skip"
)

// ReviewStatus represents a user's mastery state for one card.
type ReviewStatus string

// Possible review status values
const (
	ReviewStatusNotStarted  ReviewStatus = "not_started"
	ReviewStatusInProgress  ReviewStatus = "in_progress"
	ReviewStatusCompleted   ReviewStatus = "completed"
	ReviewStatusNeedsReview ReviewStatus = "needs_review"
)

// DefaultDifficulty is the starting difficulty (ease factor) for a card
// the user has never reviewed.
const DefaultDifficulty = 2.5

// Common validation errors for ReviewState
var (
	ErrEmptyStateUserID   = errors.New("review state user ID cannot be empty")
	ErrEmptyStateCardID   = errors.New("review state card ID cannot be empty")
	ErrInvalidInterval    = errors.New("interval must be greater than or equal to 1")
	ErrInvalidDifficulty  = errors.New("difficulty must be greater than 1.0")
	ErrInvalidCardAction  = errors.New("invalid card action")
	ErrInvalidReviewState = errors.New("invalid review status")
)

// ReviewState tracks a user's spaced repetition mastery for a specific
// card. There is exactly one ReviewState per (user, card) pair; it is
// created lazily on the first interaction and mutated exactly once per
// recorded action.
type ReviewState struct {
	UserID       uuid.UUID    `json:"user_id"`
	CardID       uuid.UUID    `json:"card_id"`
	Status       ReviewStatus `json:"status"`
	Attempts     int          `json:"attempts"`     // total recorded actions, including skips
	IsKnown      bool         `json:"is_known"`     // last outcome was known
	ReviewCount  int          `json:"review_count"` // known/unknown actions only
	Streak       int          `json:"streak"`       // consecutive known
	Repetitions  int          `json:"repetitions"`  // successful reviews in a row (SM-2 n)
	Difficulty   float64      `json:"difficulty"`   // ease factor, bounded below
	Interval     int          `json:"interval"`     // days until next due, >= 1
	NextReview   time.Time    `json:"next_review"`
	LastReviewed *time.Time   `json:"last_reviewed,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewReviewState creates review state for a user and card with default
// values. New cards are due immediately.
func NewReviewState(userID, cardID uuid.UUID) (*ReviewState, error) {
	now := time.Now().UTC()
	state := &ReviewState{
		UserID:     userID,
		CardID:     cardID,
		Status:     ReviewStatusNotStarted,
		IsKnown:    false,
		Difficulty: DefaultDifficulty,
		Interval:   1,
		NextReview: now, // due immediately
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks if the ReviewState has valid data.
func (s *ReviewState) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyStateUserID
	}

	if s.CardID == uuid.Nil {
		return ErrEmptyStateCardID
	}

	if s.Interval < 1 {
		return ErrInvalidInterval
	}

	if s.Difficulty <= 1.0 {
		return ErrInvalidDifficulty
	}

	if !isValidReviewStatus(s.Status) {
		return ErrInvalidReviewState
	}

	return nil
}

// IsValidCardAction reports whether the given action is a known CardAction.
func IsValidCardAction(a CardAction) bool {
	switch a {
	case CardActionKnown, CardActionUnknown, CardActionSkip:
		return true
	default:
		return false
	}
}

func isValidReviewStatus(s ReviewStatus) bool {
	switch s {
	case ReviewStatusNotStarted, ReviewStatusInProgress,
		ReviewStatusCompleted, ReviewStatusNeedsReview:
		return true
	default:
		return false
	}
}
