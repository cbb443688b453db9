package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/domain/srs"
)

type sessionFixture struct {
	cards   *memCardStore
	reviews *memReviewStore
	svc     SessionService
	review  ReviewService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		cards:   newMemCardStore(),
		reviews: newMemReviewStore(),
	}
	f.svc = NewSessionService(f.cards, f.reviews, setupTestLogger())
	f.review = NewReviewService(f.cards, f.reviews, newMemProgressStore(), srs.NewDefaultService(), setupTestLogger())
	return f
}

// seedChapter creates two flashcards, two quizzes and a summary.
func (f *sessionFixture) seedChapter(t *testing.T, chapterID uuid.UUID) (flashcards, quizzes, summaries []*domain.Card) {
	t.Helper()

	flashcards = []*domain.Card{
		makeCard(t, chapterID, domain.CardTypeFlashcard, 0),
		makeCard(t, chapterID, domain.CardTypeFlashcard, 1),
	}
	quizzes = []*domain.Card{
		makeCard(t, chapterID, domain.CardTypeQuiz, 0),
		makeCard(t, chapterID, domain.CardTypeQuiz, 1),
	}
	summaries = []*domain.Card{
		makeCard(t, chapterID, domain.CardTypeSummary, 0),
	}
	f.cards.add(flashcards...)
	f.cards.add(quizzes...)
	f.cards.add(summaries...)
	return flashcards, quizzes, summaries
}

func (f *sessionFixture) complete(t *testing.T, userID uuid.UUID, cards ...*domain.Card) {
	t.Helper()
	for _, card := range cards {
		_, err := f.review.RecordAction(context.Background(), userID, card.ID, domain.CardActionKnown)
		require.NoError(t, err)
	}
}

func TestGetSessionPhaseProgression(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	chapterID := uuid.New()
	userID := uuid.New()
	flashcards, quizzes, summaries := f.seedChapter(t, chapterID)
	ctx := context.Background()

	// Fresh chapter: flashcards first.
	session, err := f.svc.GetSession(ctx, userID, chapterID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.CardTypeFlashcard, session.Progression.CurrentPhase)
	assert.Len(t, session.Cards, 2)
	assert.Equal(t, 0.0, session.Progression.CompletionPercentage)

	// Completing flashcards moves the session to quizzes.
	f.complete(t, userID, flashcards...)
	session, err = f.svc.GetSession(ctx, userID, chapterID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.CardTypeQuiz, session.Progression.CurrentPhase)
	assert.Len(t, session.Cards, 2)

	// Then summaries.
	f.complete(t, userID, quizzes...)
	session, err = f.svc.GetSession(ctx, userID, chapterID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.CardTypeSummary, session.Progression.CurrentPhase)
	assert.Len(t, session.Cards, 1)

	// Everything done: empty session, 100 percent.
	f.complete(t, userID, summaries...)
	session, err = f.svc.GetSession(ctx, userID, chapterID, 0)
	require.NoError(t, err)
	assert.Empty(t, session.Cards)
	assert.Equal(t, domain.CardType(""), session.Progression.CurrentPhase)
	assert.InDelta(t, 100.0, session.Progression.CompletionPercentage, 0.01)
}

func TestGetSessionSkipsEmptyPhase(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	chapterID := uuid.New()

	// Chapter with quizzes only.
	quiz := makeCard(t, chapterID, domain.CardTypeQuiz, 0)
	f.cards.add(quiz)

	session, err := f.svc.GetSession(context.Background(), uuid.New(), chapterID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.CardTypeQuiz, session.Progression.CurrentPhase)
	assert.Len(t, session.Cards, 1)
}

func TestGetSessionNeedsReviewKeepsPhaseOpen(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	chapterID := uuid.New()
	userID := uuid.New()
	flashcards, _, _ := f.seedChapter(t, chapterID)
	ctx := context.Background()

	// One known, one unknown: the flashcard phase is not finished.
	f.complete(t, userID, flashcards[0])
	_, err := f.review.RecordAction(ctx, userID, flashcards[1].ID, domain.CardActionUnknown)
	require.NoError(t, err)

	session, err := f.svc.GetSession(ctx, userID, chapterID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.CardTypeFlashcard, session.Progression.CurrentPhase)
	require.Len(t, session.Cards, 1)
	assert.Equal(t, flashcards[1].ID, session.Cards[0].ID)
}

func TestGetSessionDueCardsFirst(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	chapterID := uuid.New()
	userID := uuid.New()
	ctx := context.Background()

	cards := []*domain.Card{
		makeCard(t, chapterID, domain.CardTypeFlashcard, 0),
		makeCard(t, chapterID, domain.CardTypeFlashcard, 1),
		makeCard(t, chapterID, domain.CardTypeFlashcard, 2),
	}
	f.cards.add(cards...)

	// Card 0 was reviewed and is not due again until tomorrow; cards 1
	// and 2 are unseen and therefore due now.
	state, err := domain.NewReviewState(userID, cards[0].ID)
	require.NoError(t, err)
	state.Status = domain.ReviewStatusNeedsReview
	state.NextReview = time.Now().UTC().Add(24 * time.Hour)
	require.NoError(t, f.reviews.Save(ctx, state))

	session, err := f.svc.GetSession(ctx, userID, chapterID, 0)
	require.NoError(t, err)
	require.Len(t, session.Cards, 3)
	assert.Equal(t, cards[1].ID, session.Cards[0].ID)
	assert.Equal(t, cards[2].ID, session.Cards[1].ID)
	assert.Equal(t, cards[0].ID, session.Cards[2].ID, "not-yet-due card is served last")
}

func TestGetSessionLimit(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	chapterID := uuid.New()
	f.seedChapter(t, chapterID)

	session, err := f.svc.GetSession(context.Background(), uuid.New(), chapterID, 1)
	require.NoError(t, err)
	assert.Len(t, session.Cards, 1)
}

func TestGetSessionEmptyChapter(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)

	session, err := f.svc.GetSession(context.Background(), uuid.New(), uuid.New(), 0)
	require.NoError(t, err)
	assert.Empty(t, session.Cards)
	assert.Equal(t, 0.0, session.Progression.CompletionPercentage)
}
