package srs

import (
	"math"
	"time"

	"github.com/lexa-learn/lexa-api/internal/domain"
)

// calculateNewDifficulty determines the new difficulty (ease factor) after
// a review outcome.
//
// A known outcome nudges the difficulty up so intervals grow faster; an
// unknown outcome pulls it down so the card comes back sooner. The result
// is always clamped between params.MinDifficulty and params.MaxDifficulty,
// so repeated failures can never collapse the difficulty to zero and
// repeated successes can never make intervals grow without bound.
func calculateNewDifficulty(
	current float64,
	action domain.CardAction,
	params *Params,
) float64 {
	var next float64
	switch action {
	case domain.CardActionKnown:
		next = current + params.KnownDifficultyStep
	case domain.CardActionUnknown:
		next = current + params.UnknownDifficultyStep
	default:
		// skip leaves difficulty untouched
		return current
	}

	if next < params.MinDifficulty {
		next = params.MinDifficulty
	}
	if next > params.MaxDifficulty {
		next = params.MaxDifficulty
	}

	return next
}

// calculateNewInterval determines the new interval in days after a review
// outcome.
//
// For a known outcome the interval grows multiplicatively by the new
// difficulty (interval = round(interval * difficulty)), which keeps growth
// monotone: difficulty is always above 1.0, so a known answer never
// shortens the interval. For an unknown outcome the interval resets to
// params.UnknownInterval. The result is never below 1.
func calculateNewInterval(
	currentInterval int,
	newDifficulty float64,
	action domain.CardAction,
	params *Params,
) int {
	switch action {
	case domain.CardActionUnknown:
		return params.UnknownInterval
	case domain.CardActionKnown:
		next := int(math.Round(float64(currentInterval) * newDifficulty))
		if next < 1 {
			next = 1
		}
		return next
	default:
		return currentInterval
	}
}

// calculateNextState creates a new ReviewState with updated values based
// on the recorded action.
//
// The function is pure: it never mutates the input state, and given the
// same prior state, action and clock it always produces the same result.
// Field updates per action:
//
//   - known: repetitions+1, streak+1, reviewCount+1, difficulty up,
//     interval grows, next review = now + interval days, status completed.
//   - unknown: repetitions and streak reset, reviewCount+1, difficulty
//     down, interval resets, next review = now + 1 day, status needs_review.
//   - skip: attempts+1 only; scheduling fields untouched.
//
// Every action, including skip, counts as an attempt and stamps
// LastReviewed.
func calculateNextState(
	state *domain.ReviewState,
	action domain.CardAction,
	now time.Time,
	params *Params,
) *domain.ReviewState {
	next := *state
	next.Attempts++
	next.LastReviewed = &now
	next.UpdatedAt = now

	switch action {
	case domain.CardActionKnown:
		next.Repetitions = state.Repetitions + 1
		next.Streak = state.Streak + 1
		next.ReviewCount = state.ReviewCount + 1
		next.Difficulty = calculateNewDifficulty(state.Difficulty, action, params)
		next.Interval = calculateNewInterval(state.Interval, next.Difficulty, action, params)
		next.NextReview = now.AddDate(0, 0, next.Interval)
		next.IsKnown = true
		next.Status = domain.ReviewStatusCompleted

	case domain.CardActionUnknown:
		next.Repetitions = 0
		next.Streak = 0
		next.ReviewCount = state.ReviewCount + 1
		next.Difficulty = calculateNewDifficulty(state.Difficulty, action, params)
		next.Interval = calculateNewInterval(state.Interval, next.Difficulty, action, params)
		next.NextReview = now.AddDate(0, 0, next.Interval)
		next.IsKnown = false
		next.Status = domain.ReviewStatusNeedsReview

	case domain.CardActionSkip:
		// Attempts and LastReviewed only. Interval, difficulty, next
		// review time, IsKnown and status all keep their prior values.
	}

	return &next
}
