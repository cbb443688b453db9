package generation

import "errors"

// Common errors returned by Generator implementations. The pipeline
// classifies every generation failure as either transient (retried per
// the queue's backoff policy) or permanent (terminal immediately, no
// retry budget consumed).
var (
	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry, such as network failures or rate limits.
	ErrTransientFailure = errors.New("transient error during card generation")

	// ErrPermanentFailure is returned for errors that no retry can fix,
	// such as unusable source material.
	ErrPermanentFailure = errors.New("permanent error during card generation")

	// ErrInvalidResponse is returned when the model response cannot be
	// parsed or is malformed. Treated as transient: regeneration may
	// produce a well-formed response.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due
	// to safety filters. Permanent: the same input will be blocked again.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// IsPermanent reports whether the given generation error cannot be fixed
// by retrying.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanentFailure) || errors.Is(err, ErrContentBlocked)
}
