// Package srs implements the spaced repetition scheduling algorithm that
// decides, after each recorded card action, when the card is next due.
package srs

// Params defines all configurable parameters for the scheduling algorithm.
type Params struct {
	// Difficulty bounds. The floor prevents intervals from collapsing
	// after repeated failures; the ceiling prevents runaway easy intervals.
	MinDifficulty float64
	MaxDifficulty float64

	// Additive difficulty adjustments per outcome.
	KnownDifficultyStep   float64 // applied on a known outcome, positive
	UnknownDifficultyStep float64 // applied on an unknown outcome, negative

	// UnknownInterval is the interval (in days) a card resets to after an
	// unknown outcome.
	UnknownInterval int
}

// ParamsConfig allows overriding the default parameters when creating a
// new Params instance.
type ParamsConfig struct {
	MinDifficulty         float64
	MaxDifficulty         float64
	KnownDifficultyStep   float64
	UnknownDifficultyStep float64
	UnknownInterval       int
}

// NewDefaultParams creates a new Params instance with default values.
// The defaults follow an SM-2 style curve: difficulty starts at 2.5,
// drifts up by 0.15 per known and down by 0.20 per unknown, clamped to
// [1.3, 3.0].
func NewDefaultParams() *Params {
	return &Params{
		MinDifficulty:         1.3,
		MaxDifficulty:         3.0,
		KnownDifficultyStep:   0.15,
		UnknownDifficultyStep: -0.20,
		UnknownInterval:       1,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero-valued fields keep their defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinDifficulty > 0 {
		params.MinDifficulty = config.MinDifficulty
	}
	if config.MaxDifficulty > 0 {
		params.MaxDifficulty = config.MaxDifficulty
	}
	if config.KnownDifficultyStep > 0 {
		params.KnownDifficultyStep = config.KnownDifficultyStep
	}
	if config.UnknownDifficultyStep < 0 {
		params.UnknownDifficultyStep = config.UnknownDifficultyStep
	}
	if config.UnknownInterval > 0 {
		params.UnknownInterval = config.UnknownInterval
	}

	return params
}
