package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SourceType identifies what kind of source material an upload refers to.
type SourceType string

// Possible source type values
const (
	SourceTypePDF  SourceType = "pdf"
	SourceTypeURL  SourceType = "url"
	SourceTypeText SourceType = "text"
)

// Common validation errors for Upload
var (
	ErrEmptyUploadID     = errors.New("upload ID cannot be empty")
	ErrEmptyUploadUserID = errors.New("upload user ID cannot be empty")
	ErrEmptySourceRef    = errors.New("upload source reference cannot be empty")
	ErrInvalidSourceType = errors.New("invalid source type")
)

// Upload represents a piece of source material submitted by a user to be
// converted into cards. SourceRef is a file path for pdf sources, an
// address for url sources, and the raw text itself for text sources.
type Upload struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	ChapterID  uuid.UUID  `json:"chapter_id"`
	SourceType SourceType `json:"source_type"`
	SourceRef  string     `json:"source_ref"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewUpload creates a new Upload with the given user, chapter and source.
// Returns an error if validation fails.
func NewUpload(
	userID, chapterID uuid.UUID,
	sourceType SourceType,
	sourceRef string,
) (*Upload, error) {
	upload := &Upload{
		ID:         uuid.New(),
		UserID:     userID,
		ChapterID:  chapterID,
		SourceType: sourceType,
		SourceRef:  sourceRef,
		CreatedAt:  time.Now().UTC(),
	}

	if err := upload.Validate(); err != nil {
		return nil, err
	}

	return upload, nil
}

// Validate checks if the Upload has valid data.
func (u *Upload) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUploadID
	}

	if u.UserID == uuid.Nil {
		return ErrEmptyUploadUserID
	}

	if u.SourceRef == "" {
		return ErrEmptySourceRef
	}

	if !isValidSourceType(u.SourceType) {
		return ErrInvalidSourceType
	}

	return nil
}

func isValidSourceType(t SourceType) bool {
	switch t {
	case SourceTypePDF, SourceTypeURL, SourceTypeText:
		return true
	default:
		return false
	}
}
