package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/domain/srs"
	"github.com/lexa-learn/lexa-api/internal/platform/logger"
	"github.com/lexa-learn/lexa-api/internal/store"
)

// XP awarded per review action.
const (
	xpKnown   = 10
	xpUnknown = 2
	xpSkip    = 0
)

// ReviewResult is the outcome of recording a review action.
type ReviewResult struct {
	// State is the review state after applying the action.
	State *domain.ReviewState `json:"state"`
	// XPGained is the experience awarded for the action.
	XPGained int `json:"xp_gained"`
}

// ReviewService records user review actions and maintains the spaced
// repetition schedule.
type ReviewService interface {
	// RecordAction applies a review action to a card for a user and
	// returns the updated state plus the XP awarded.
	//
	// Returns ErrCardNotFound if the card does not exist and
	// ErrInvalidAction for an unrecognized action. A missing review state
	// for an existing card is not an error; one is created with defaults.
	//
	// Calls for the same (user, card) pair are serialized; calls for
	// different pairs run in parallel.
	RecordAction(
		ctx context.Context,
		userID uuid.UUID,
		cardID uuid.UUID,
		action domain.CardAction,
	) (*ReviewResult, error)
}

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	cards      store.CardStore
	reviews    store.ReviewStateStore
	progress   store.ChapterProgressStore
	srsService srs.Service
	locks      stripedLock
	logger     *slog.Logger

	// now is the clock; replaceable in tests.
	now func() time.Time
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(
	cards store.CardStore,
	reviews store.ReviewStateStore,
	progress store.ChapterProgressStore,
	srsService srs.Service,
	logger *slog.Logger,
) ReviewService {
	if cards == nil {
		panic("card store cannot be nil")
	}
	if reviews == nil {
		panic("review state store cannot be nil")
	}
	if progress == nil {
		panic("chapter progress store cannot be nil")
	}
	if srsService == nil {
		panic("srs service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		cards:      cards,
		reviews:    reviews,
		progress:   progress,
		srsService: srsService,
		logger:     logger.With(slog.String("component", "review_service")),
		now:        time.Now,
	}
}

// RecordAction implements ReviewService.RecordAction.
func (s *reviewServiceImpl) RecordAction(
	ctx context.Context,
	userID uuid.UUID,
	cardID uuid.UUID,
	action domain.CardAction,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !domain.IsValidCardAction(action) {
		log.Warn("invalid review action",
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()),
			slog.String("action", string(action)))
		return nil, ErrInvalidAction
	}

	mu := s.locks.lock(userID, cardID)
	defer mu.Unlock()

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Warn("card not found for review",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, ErrCardNotFound
		}
		return nil, NewServiceError("record_action", "failed to get card", err)
	}

	state, err := s.reviews.Get(ctx, userID, cardID)
	if err != nil {
		if !errors.Is(err, store.ErrReviewStateNotFound) {
			return nil, NewServiceError("record_action", "failed to get review state", err)
		}
		// First review of this card: start from defaults.
		state, err = domain.NewReviewState(userID, cardID)
		if err != nil {
			return nil, NewServiceError("record_action", "failed to create review state", err)
		}
	}

	updated, err := s.srsService.RecordAction(state, action, s.now().UTC())
	if err != nil {
		return nil, NewServiceError("record_action", "scheduling failed", err)
	}

	if err := s.reviews.Save(ctx, updated); err != nil {
		return nil, NewServiceError("record_action", "failed to save review state", err)
	}

	s.recomputeChapterProgress(ctx, userID, card.ChapterID, log)

	log.Debug("review action recorded",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("action", string(action)),
		slog.String("status", string(updated.Status)),
		slog.Int("interval", updated.Interval))

	return &ReviewResult{
		State:    updated,
		XPGained: xpForAction(action),
	}, nil
}

// recomputeChapterProgress rebuilds the derived chapter progress record
// from card and review state data. Failures are logged and swallowed; the
// review itself already succeeded and progress self-heals on the next
// recompute.
func (s *reviewServiceImpl) recomputeChapterProgress(
	ctx context.Context,
	userID, chapterID uuid.UUID,
	log *slog.Logger,
) {
	progress, err := computeChapterProgress(ctx, s.cards, s.reviews, userID, chapterID, s.now().UTC())
	if err != nil {
		log.Warn("failed to compute chapter progress",
			slog.String("user_id", userID.String()),
			slog.String("chapter_id", chapterID.String()),
			slog.String("error", err.Error()))
		return
	}

	if err := s.progress.Save(ctx, progress); err != nil {
		log.Warn("failed to save chapter progress",
			slog.String("user_id", userID.String()),
			slog.String("chapter_id", chapterID.String()),
			slog.String("error", err.Error()))
	}
}

// computeChapterProgress derives per-phase completion counts and the
// overall percentage for a chapter from current card and review data.
func computeChapterProgress(
	ctx context.Context,
	cards store.CardStore,
	reviews store.ReviewStateStore,
	userID, chapterID uuid.UUID,
	now time.Time,
) (*domain.ChapterProgress, error) {
	chapterCards, err := cards.ListByChapter(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapter cards: %w", err)
	}

	cardIDs := make([]uuid.UUID, len(chapterCards))
	for i, card := range chapterCards {
		cardIDs[i] = card.ID
	}

	states, err := reviews.ListForCards(ctx, userID, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list review states: %w", err)
	}

	progress, err := domain.NewChapterProgress(userID, chapterID)
	if err != nil {
		return nil, err
	}

	for _, card := range chapterCards {
		count := progress.CountFor(card.Type)
		count.Total++
		if state, ok := states[card.ID]; ok && state.Status == domain.ReviewStatusCompleted {
			count.Completed++
		}
		progress.SetCountFor(card.Type, count)
	}

	progress.RecomputePercentage()
	progress.LastAccessed = now
	progress.UpdatedAt = now

	return progress, nil
}

func xpForAction(action domain.CardAction) int {
	switch action {
	case domain.CardActionKnown:
		return xpKnown
	case domain.CardActionUnknown:
		return xpUnknown
	default:
		return xpSkip
	}
}
