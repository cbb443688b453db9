package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/platform/logger"
	"github.com/lexa-learn/lexa-api/internal/store"
)

// Progression describes where a user stands within a chapter.
type Progression struct {
	// CurrentPhase is the card type the user should study next. Empty
	// when the chapter is fully completed.
	CurrentPhase domain.CardType `json:"current_phase,omitempty"`
	// CompletionPercentage weights each non-empty phase equally.
	CompletionPercentage float64 `json:"completion_percentage"`
}

// Session is one study session for a chapter: the cards to serve next and
// the user's progression.
type Session struct {
	ChapterID   uuid.UUID      `json:"chapter_id"`
	Cards       []*domain.Card `json:"cards"`
	Progression Progression    `json:"progression"`
}

// SessionService assembles study sessions.
type SessionService interface {
	// GetSession returns the cards the user should study next in the
	// chapter. Phases progress flashcards, then quizzes, then summaries;
	// a phase stays current until every card in it is completed. Within
	// the current phase, cards due for review come before cards that are
	// not yet due, each group in position order. A non-positive limit
	// returns all remaining cards of the phase.
	//
	// When every phase is complete the session has no cards and reports
	// 100 percent completion.
	GetSession(ctx context.Context, userID, chapterID uuid.UUID, limit int) (*Session, error)
}

// Verify interface compliance at compile time
var _ SessionService = (*sessionServiceImpl)(nil)

type sessionServiceImpl struct {
	cards   store.CardStore
	reviews store.ReviewStateStore
	logger  *slog.Logger

	// now is the clock; replaceable in tests.
	now func() time.Time
}

// NewSessionService creates a new SessionService implementation.
func NewSessionService(
	cards store.CardStore,
	reviews store.ReviewStateStore,
	logger *slog.Logger,
) SessionService {
	if cards == nil {
		panic("card store cannot be nil")
	}
	if reviews == nil {
		panic("review state store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &sessionServiceImpl{
		cards:   cards,
		reviews: reviews,
		logger:  logger.With(slog.String("component", "session_service")),
		now:     time.Now,
	}
}

// GetSession implements SessionService.GetSession.
func (s *sessionServiceImpl) GetSession(
	ctx context.Context,
	userID, chapterID uuid.UUID,
	limit int,
) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now().UTC()

	chapterCards, err := s.cards.ListByChapter(ctx, chapterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			chapterCards = nil
		} else {
			return nil, NewServiceError("get_session", "failed to list chapter cards", err)
		}
	}

	cardIDs := make([]uuid.UUID, len(chapterCards))
	for i, card := range chapterCards {
		cardIDs[i] = card.ID
	}

	states, err := s.reviews.ListForCards(ctx, userID, cardIDs)
	if err != nil {
		return nil, NewServiceError("get_session", "failed to list review states", err)
	}

	byType := make(map[domain.CardType][]*domain.Card, len(domain.PhaseOrder))
	for _, card := range chapterCards {
		byType[card.Type] = append(byType[card.Type], card)
	}

	session := &Session{
		ChapterID: chapterID,
		Cards:     []*domain.Card{},
		Progression: Progression{
			CompletionPercentage: completionPercentage(chapterCards, states),
		},
	}

	// The current phase is the first non-empty phase with incomplete cards.
	for _, phase := range domain.PhaseOrder {
		remaining := incompleteCards(byType[phase], states)
		if len(remaining) == 0 {
			continue
		}

		orderDueFirst(remaining, states, now)
		if limit > 0 && len(remaining) > limit {
			remaining = remaining[:limit]
		}

		session.Progression.CurrentPhase = phase
		session.Cards = remaining
		break
	}

	log.Debug("assembled session",
		slog.String("user_id", userID.String()),
		slog.String("chapter_id", chapterID.String()),
		slog.String("phase", string(session.Progression.CurrentPhase)),
		slog.Int("card_count", len(session.Cards)))

	return session, nil
}

// incompleteCards returns the cards the user has not completed, preserving
// input order.
func incompleteCards(cards []*domain.Card, states map[uuid.UUID]*domain.ReviewState) []*domain.Card {
	var remaining []*domain.Card
	for _, card := range cards {
		state, ok := states[card.ID]
		if ok && state.Status == domain.ReviewStatusCompleted {
			continue
		}
		remaining = append(remaining, card)
	}
	return remaining
}

// orderDueFirst sorts cards so that cards due for review (never reviewed,
// or next review at or before now) come before cards that are not yet due,
// keeping position order within each group.
func orderDueFirst(cards []*domain.Card, states map[uuid.UUID]*domain.ReviewState, now time.Time) {
	due := func(card *domain.Card) bool {
		state, ok := states[card.ID]
		return !ok || !state.NextReview.After(now)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		di, dj := due(cards[i]), due(cards[j])
		if di != dj {
			return di
		}
		return cards[i].Position < cards[j].Position
	})
}

// completionPercentage computes the equal-phase-weight completion
// percentage across the chapter's non-empty phases.
func completionPercentage(cards []*domain.Card, states map[uuid.UUID]*domain.ReviewState) float64 {
	var progress domain.ChapterProgress
	for _, card := range cards {
		count := progress.CountFor(card.Type)
		count.Total++
		if state, ok := states[card.ID]; ok && state.Status == domain.ReviewStatusCompleted {
			count.Completed++
		}
		progress.SetCountFor(card.Type, count)
	}

	progress.RecomputePercentage()
	return progress.CompletionPercentage
}
