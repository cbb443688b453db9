package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/domain"
)

// JobTypeCardGeneration is the queue job type for card generation work.
const JobTypeCardGeneration = "card_generation"

// CardGenerationPayload is the serialized work item payload for a card
// generation job. It carries everything a worker needs to process the
// upload without further lookups.
type CardGenerationPayload struct {
	UploadID   uuid.UUID         `json:"upload_id"`
	UserID     uuid.UUID         `json:"user_id"`
	ChapterID  uuid.UUID         `json:"chapter_id"`
	SourceType domain.SourceType `json:"source_type"`
	SourceRef  string            `json:"source_ref"`
}

// NewPayloadFromUpload builds a generation payload from an upload record.
func NewPayloadFromUpload(upload *domain.Upload) CardGenerationPayload {
	return CardGenerationPayload{
		UploadID:   upload.ID,
		UserID:     upload.UserID,
		ChapterID:  upload.ChapterID,
		SourceType: upload.SourceType,
		SourceRef:  upload.SourceRef,
	}
}

// Marshal serializes the payload for enqueueing.
func (p CardGenerationPayload) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal card generation payload: %w", err)
	}
	return data, nil
}

// unmarshalPayload deserializes a work item payload, validating the fields
// a worker cannot proceed without.
func unmarshalPayload(data []byte) (CardGenerationPayload, error) {
	var p CardGenerationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal card generation payload: %w", err)
	}
	if p.UploadID == uuid.Nil || p.UserID == uuid.Nil || p.ChapterID == uuid.Nil {
		return p, fmt.Errorf("card generation payload is missing identifiers")
	}
	return p, nil
}

// GenerationResult is the terminal result recorded for a completed card
// generation job.
type GenerationResult struct {
	CardIDs []uuid.UUID `json:"card_ids"`
	Count   int         `json:"count"`
}
