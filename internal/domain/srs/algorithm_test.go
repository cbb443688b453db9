package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
)

func TestCalculateNewDifficulty(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		action   domain.CardAction
		expected float64
	}{
		{
			name:     "Known action should increase difficulty",
			current:  2.5,
			action:   domain.CardActionKnown,
			expected: 2.65, // 2.5 + 0.15
		},
		{
			name:     "Unknown action should decrease difficulty",
			current:  2.5,
			action:   domain.CardActionUnknown,
			expected: 2.3, // 2.5 - 0.20
		},
		{
			name:     "Known action clamps at upper bound",
			current:  2.95,
			action:   domain.CardActionKnown,
			expected: params.MaxDifficulty,
		},
		{
			name:     "Unknown action clamps at lower bound",
			current:  1.35,
			action:   domain.CardActionUnknown,
			expected: params.MinDifficulty,
		},
		{
			name:     "Skip leaves difficulty untouched",
			current:  2.1,
			action:   domain.CardActionSkip,
			expected: 2.1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateNewDifficulty(tc.current, tc.action, params)

			if diff := got - tc.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Expected difficulty %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()

	testCases := []struct {
		name       string
		current    int
		difficulty float64
		action     domain.CardAction
		expected   int
	}{
		{
			name:       "Unknown action resets interval",
			current:    10,
			difficulty: 2.3,
			action:     domain.CardActionUnknown,
			expected:   params.UnknownInterval,
		},
		{
			name:       "Known action grows interval by difficulty",
			current:    10,
			difficulty: 2.5,
			action:     domain.CardActionKnown,
			expected:   25, // 10 * 2.5
		},
		{
			name:       "Known action on new card",
			current:    1,
			difficulty: 2.65,
			action:     domain.CardActionKnown,
			expected:   3, // round(1 * 2.65)
		},
		{
			name:       "Known action rounds to nearest day",
			current:    3,
			difficulty: 2.3,
			action:     domain.CardActionKnown,
			expected:   7, // round(6.9)
		},
		{
			name:       "Skip keeps interval",
			current:    4,
			difficulty: 2.5,
			action:     domain.CardActionSkip,
			expected:   4,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateNewInterval(tc.current, tc.difficulty, tc.action, params)

			if got != tc.expected {
				t.Errorf("Expected interval %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestKnownIntervalMonotone(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	// Difficulty never drops below 1.3, so a known answer must never
	// shorten the interval.
	for interval := 1; interval <= 365; interval *= 3 {
		for _, difficulty := range []float64{params.MinDifficulty, 2.0, 2.5, params.MaxDifficulty} {
			next := calculateNewInterval(interval, difficulty, domain.CardActionKnown, params)
			if next < interval {
				t.Errorf("interval shrank after known answer: %d -> %d at difficulty %v",
					interval, next, difficulty)
			}
		}
	}
}

func TestCalculateNextState(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newState := func() *domain.ReviewState {
		state, err := domain.NewReviewState(uuid.New(), uuid.New())
		if err != nil {
			t.Fatalf("Failed to create review state: %v", err)
		}
		return state
	}

	t.Run("known action completes the card", func(t *testing.T) {
		prior := newState()
		next := calculateNextState(prior, domain.CardActionKnown, now, params)

		if next.Status != domain.ReviewStatusCompleted {
			t.Errorf("Expected status completed, got %s", next.Status)
		}
		if !next.IsKnown {
			t.Error("Expected IsKnown to be true")
		}
		if next.Repetitions != 1 || next.Streak != 1 || next.ReviewCount != 1 || next.Attempts != 1 {
			t.Errorf("Unexpected counters: repetitions=%d streak=%d reviewCount=%d attempts=%d",
				next.Repetitions, next.Streak, next.ReviewCount, next.Attempts)
		}
		if next.Interval < 2 {
			t.Errorf("Expected interval to grow beyond 1 day, got %d", next.Interval)
		}
		expectedReview := now.AddDate(0, 0, next.Interval)
		if !next.NextReview.Equal(expectedReview) {
			t.Errorf("Expected next review %v, got %v", expectedReview, next.NextReview)
		}
	})

	t.Run("unknown action resets progress", func(t *testing.T) {
		prior := newState()
		prior.Repetitions = 4
		prior.Streak = 4
		prior.Interval = 20
		prior.IsKnown = true
		prior.Status = domain.ReviewStatusCompleted

		next := calculateNextState(prior, domain.CardActionUnknown, now, params)

		if next.Status != domain.ReviewStatusNeedsReview {
			t.Errorf("Expected status needs_review, got %s", next.Status)
		}
		if next.IsKnown {
			t.Error("Expected IsKnown to be false")
		}
		if next.Repetitions != 0 || next.Streak != 0 {
			t.Errorf("Expected repetitions and streak reset, got %d and %d",
				next.Repetitions, next.Streak)
		}
		if next.Interval != params.UnknownInterval {
			t.Errorf("Expected interval %d, got %d", params.UnknownInterval, next.Interval)
		}
		if next.Difficulty >= prior.Difficulty {
			t.Errorf("Expected difficulty to drop from %v, got %v", prior.Difficulty, next.Difficulty)
		}
	})

	t.Run("skip only counts the attempt", func(t *testing.T) {
		prior := newState()
		prior.Interval = 7
		prior.Difficulty = 2.2
		prior.Status = domain.ReviewStatusNeedsReview

		next := calculateNextState(prior, domain.CardActionSkip, now, params)

		if next.Attempts != prior.Attempts+1 {
			t.Errorf("Expected attempts %d, got %d", prior.Attempts+1, next.Attempts)
		}
		if next.LastReviewed == nil || !next.LastReviewed.Equal(now) {
			t.Errorf("Expected last reviewed %v, got %v", now, next.LastReviewed)
		}
		if next.Interval != prior.Interval ||
			next.Difficulty != prior.Difficulty ||
			!next.NextReview.Equal(prior.NextReview) ||
			next.Status != prior.Status ||
			next.IsKnown != prior.IsKnown {
			t.Error("Skip must not change scheduling fields")
		}
	})

	t.Run("input state is not mutated", func(t *testing.T) {
		prior := newState()
		saved := *prior

		_ = calculateNextState(prior, domain.CardActionKnown, now, params)

		if prior.Attempts != saved.Attempts ||
			prior.Interval != saved.Interval ||
			prior.Status != saved.Status {
			t.Error("calculateNextState mutated its input")
		}
	})
}
