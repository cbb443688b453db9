package srs

import (
	"errors"
	"time"

	"github.com/lexa-learn/lexa-api/internal/domain"
)

// Common errors
var (
	ErrNilState      = errors.New("review state cannot be nil")
	ErrInvalidAction = errors.New("invalid card action")
)

// Service defines the interface for scheduling algorithm operations.
type Service interface {
	// RecordAction computes the review state that results from applying
	// the given card action at the given time. The input state is not
	// modified.
	RecordAction(
		state *domain.ReviewState,
		action domain.CardAction,
		now time.Time,
	) (*domain.ReviewState, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// RecordAction implements the Service interface.
func (s *defaultService) RecordAction(
	state *domain.ReviewState,
	action domain.CardAction,
	now time.Time,
) (*domain.ReviewState, error) {
	if state == nil {
		return nil, ErrNilState
	}

	if !domain.IsValidCardAction(action) {
		return nil, ErrInvalidAction
	}

	return calculateNextState(state, action, now, s.params), nil
}
