package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	uploadID := uuid.New()
	chapterID := uuid.New()
	content := json.RawMessage(`{"front":"What is Go?","back":"A programming language."}`)

	card, err := NewCard(userID, uploadID, chapterID, CardTypeFlashcard, 3, content)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, userID, card.UserID)
	assert.Equal(t, uploadID, card.UploadID)
	assert.Equal(t, chapterID, card.ChapterID)
	assert.Equal(t, CardTypeFlashcard, card.Type)
	assert.Equal(t, 3, card.Position)
	assert.Equal(t, content, card.Content)
	assert.False(t, card.CreatedAt.IsZero())
}

func TestCardValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Card {
		return &Card{
			ID:        uuid.New(),
			UploadID:  uuid.New(),
			UserID:    uuid.New(),
			ChapterID: uuid.New(),
			Type:      CardTypeQuiz,
			Content:   json.RawMessage(`{"question":"?"}`),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Card)
		wantErr error
	}{
		{name: "valid card", mutate: func(c *Card) {}, wantErr: nil},
		{name: "nil ID", mutate: func(c *Card) { c.ID = uuid.Nil }, wantErr: ErrCardIDEmpty},
		{name: "nil user ID", mutate: func(c *Card) { c.UserID = uuid.Nil }, wantErr: ErrCardUserIDEmpty},
		{name: "nil upload ID", mutate: func(c *Card) { c.UploadID = uuid.Nil }, wantErr: ErrCardUploadIDEmpty},
		{name: "unknown type", mutate: func(c *Card) { c.Type = "ESSAY" }, wantErr: ErrCardTypeInvalid},
		{name: "empty content", mutate: func(c *Card) { c.Content = nil }, wantErr: ErrCardContentEmpty},
		{name: "malformed content", mutate: func(c *Card) { c.Content = json.RawMessage(`{broken`) }, wantErr: ErrCardContentInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			card := valid()
			tc.mutate(card)
			err := card.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestPhaseOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []CardType{CardTypeFlashcard, CardTypeQuiz, CardTypeSummary}, PhaseOrder)
	for _, phase := range PhaseOrder {
		assert.True(t, IsValidCardType(phase))
	}
	assert.False(t, IsValidCardType("flashcard"), "card types are case sensitive")
}
