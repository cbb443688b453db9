package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for ChapterProgress
var (
	ErrEmptyProgressUserID    = errors.New("chapter progress user ID cannot be empty")
	ErrEmptyProgressChapterID = errors.New("chapter progress chapter ID cannot be empty")
)

// PhaseCount holds completed/total card counts for one card type.
type PhaseCount struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// ChapterProgress aggregates a user's completion across one chapter.
// It is derived state: every field can be recomputed from the chapter's
// cards and the user's review states, so a stale copy self-heals on the
// next recompute. There is exactly one per (user, chapter) pair.
type ChapterProgress struct {
	UserID               uuid.UUID  `json:"user_id"`
	ChapterID            uuid.UUID  `json:"chapter_id"`
	Flashcards           PhaseCount `json:"flashcards"`
	Quizzes              PhaseCount `json:"quizzes"`
	Summaries            PhaseCount `json:"summaries"`
	CompletionPercentage float64    `json:"completion_percentage"`
	LastAccessed         time.Time  `json:"last_accessed"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewChapterProgress creates empty progress for a user and chapter.
func NewChapterProgress(userID, chapterID uuid.UUID) (*ChapterProgress, error) {
	now := time.Now().UTC()
	progress := &ChapterProgress{
		UserID:       userID,
		ChapterID:    chapterID,
		LastAccessed: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the ChapterProgress has valid data.
func (p *ChapterProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProgressUserID
	}

	if p.ChapterID == uuid.Nil {
		return ErrEmptyProgressChapterID
	}

	return nil
}

// CountFor returns the phase count for the given card type.
func (p *ChapterProgress) CountFor(t CardType) PhaseCount {
	switch t {
	case CardTypeFlashcard:
		return p.Flashcards
	case CardTypeQuiz:
		return p.Quizzes
	default:
		return p.Summaries
	}
}

// SetCountFor stores the phase count for the given card type.
func (p *ChapterProgress) SetCountFor(t CardType, c PhaseCount) {
	switch t {
	case CardTypeFlashcard:
		p.Flashcards = c
	case CardTypeQuiz:
		p.Quizzes = c
	case CardTypeSummary:
		p.Summaries = c
	}
}

// RecomputePercentage recalculates CompletionPercentage from the stored
// phase counts. Each non-empty phase carries equal weight; a chapter with
// no cards at all is 0% complete.
func (p *ChapterProgress) RecomputePercentage() {
	var sum float64
	var phases int
	for _, t := range PhaseOrder {
		c := p.CountFor(t)
		if c.Total == 0 {
			continue
		}
		phases++
		sum += float64(c.Completed) / float64(c.Total)
	}

	if phases == 0 {
		p.CompletionPercentage = 0
		return
	}
	p.CompletionPercentage = sum / float64(phases) * 100
}
