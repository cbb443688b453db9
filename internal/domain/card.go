package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CardType identifies the learning format of a card. Chapters progress
// through card types in a fixed phase order (flashcards, then quizzes,
// then summaries).
type CardType string

// Possible card type values, in phase order.
const (
	CardTypeFlashcard CardType = "FLASHCARD"
	CardTypeQuiz      CardType = "QUIZ"
	CardTypeSummary   CardType = "SUMMARY"
)

// PhaseOrder lists the card types in the order a chapter progresses
// through them.
var PhaseOrder = []CardType{CardTypeFlashcard, CardTypeQuiz, CardTypeSummary}

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardUploadIDEmpty is returned when a card's upload ID is empty or nil.
	ErrCardUploadIDEmpty = errors.New("card upload ID cannot be empty")

	// ErrCardTypeInvalid is returned when a card's type is not a known CardType.
	ErrCardTypeInvalid = errors.New("invalid card type")

	// ErrCardContentEmpty is returned when a card's content is empty.
	ErrCardContentEmpty = errors.New("card content cannot be empty")

	// ErrCardContentInvalid is returned when a card's content is not valid JSON.
	ErrCardContentInvalid = errors.New("card content must be valid JSON")
)

// Card represents a single unit of generated learning content. The content
// is stored as a JSONB structure whose shape depends on the card type;
// see FlashcardContent, QuizContent and SummaryContent.
type Card struct {
	ID        uuid.UUID       `json:"id"`
	UploadID  uuid.UUID       `json:"upload_id"`
	UserID    uuid.UUID       `json:"user_id"`
	ChapterID uuid.UUID       `json:"chapter_id"`
	Type      CardType        `json:"type"`
	Position  int             `json:"position"` // ordering index within the chapter
	Content   json.RawMessage `json:"content"`
	// SourceChunks records which chunks of the extracted source text the
	// card was derived from. Optional provenance, may be empty.
	SourceChunks []int     `json:"source_chunks,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FlashcardContent is the content shape for FLASHCARD cards.
type FlashcardContent struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Hint  string `json:"hint,omitempty"`
}

// QuizContent is the content shape for QUIZ cards.
type QuizContent struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      int      `json:"answer"` // index into Choices
	Explanation string   `json:"explanation,omitempty"`
}

// SummaryContent is the content shape for SUMMARY cards.
type SummaryContent struct {
	Body string `json:"body"`
}

// NewCard creates a new Card with the given ownership, type, position and
// content. It generates a new UUID for the card ID and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewCard(
	userID, uploadID, chapterID uuid.UUID,
	cardType CardType,
	position int,
	content json.RawMessage,
) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		UploadID:  uploadID,
		UserID:    userID,
		ChapterID: chapterID,
		Type:      cardType,
		Position:  position,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if c.UploadID == uuid.Nil {
		return ErrCardUploadIDEmpty
	}

	if !IsValidCardType(c.Type) {
		return ErrCardTypeInvalid
	}

	if len(c.Content) == 0 {
		return ErrCardContentEmpty
	}

	// Check if content is valid JSON
	var js json.RawMessage
	if err := json.Unmarshal(c.Content, &js); err != nil {
		return ErrCardContentInvalid
	}

	return nil
}

// IsValidCardType reports whether the given value is a known CardType.
func IsValidCardType(t CardType) bool {
	switch t {
	case CardTypeFlashcard, CardTypeQuiz, CardTypeSummary:
		return true
	default:
		return false
	}
}
