package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChapterProgress(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	chapterID := uuid.New()

	progress, err := NewChapterProgress(userID, chapterID)
	require.NoError(t, err)
	assert.Equal(t, userID, progress.UserID)
	assert.Equal(t, chapterID, progress.ChapterID)
	assert.Equal(t, 0.0, progress.CompletionPercentage)

	_, err = NewChapterProgress(uuid.Nil, chapterID)
	assert.ErrorIs(t, err, ErrEmptyProgressUserID)

	_, err = NewChapterProgress(userID, uuid.Nil)
	assert.ErrorIs(t, err, ErrEmptyProgressChapterID)
}

func TestRecomputePercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flashcards PhaseCount
		quizzes    PhaseCount
		summaries  PhaseCount
		want       float64
	}{
		{
			name: "no cards at all",
			want: 0,
		},
		{
			name:       "nothing completed",
			flashcards: PhaseCount{Total: 5},
			quizzes:    PhaseCount{Total: 3},
			want:       0,
		},
		{
			name:       "everything completed",
			flashcards: PhaseCount{Completed: 5, Total: 5},
			quizzes:    PhaseCount{Completed: 3, Total: 3},
			summaries:  PhaseCount{Completed: 1, Total: 1},
			want:       100,
		},
		{
			name:       "one of two phases done weighs half",
			flashcards: PhaseCount{Completed: 4, Total: 4},
			quizzes:    PhaseCount{Total: 10},
			want:       50,
		},
		{
			name:       "empty phase is excluded from the weighting",
			flashcards: PhaseCount{Completed: 1, Total: 2},
			summaries:  PhaseCount{Total: 0},
			want:       50,
		},
		{
			name:       "mixed partial phases",
			flashcards: PhaseCount{Completed: 1, Total: 2},
			quizzes:    PhaseCount{Completed: 1, Total: 4},
			summaries:  PhaseCount{Completed: 0, Total: 1},
			want:       25, // (0.5 + 0.25 + 0) / 3 * 100
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			progress := &ChapterProgress{
				UserID:     uuid.New(),
				ChapterID:  uuid.New(),
				Flashcards: tc.flashcards,
				Quizzes:    tc.quizzes,
				Summaries:  tc.summaries,
			}
			progress.RecomputePercentage()
			assert.InDelta(t, tc.want, progress.CompletionPercentage, 0.001)
		})
	}
}

func TestCountForRoundTrip(t *testing.T) {
	t.Parallel()

	progress := &ChapterProgress{}
	for i, phase := range PhaseOrder {
		progress.SetCountFor(phase, PhaseCount{Completed: i, Total: i + 1})
	}
	for i, phase := range PhaseOrder {
		assert.Equal(t, PhaseCount{Completed: i, Total: i + 1}, progress.CountFor(phase))
	}
}
