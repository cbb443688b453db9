package gemini

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"text/template"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexa-learn/lexa-api/internal/config"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/generation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// testGenerator builds a generator without an API client; only the prompt
// and response handling are exercised.
func testGenerator(t *testing.T) *GeminiGenerator {
	t.Helper()
	return &GeminiGenerator{
		logger:         testLogger(),
		promptTemplate: template.Must(template.New("cardset").Parse("Generate cards for: {{.SourceText}}")),
		model:          "gemini-2.0-flash",
	}
}

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardset.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewGeminiGeneratorConfigValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	templatePath := writeTemplate(t, "{{.SourceText}}")

	tests := []struct {
		name string
		cfg  config.LLMConfig
	}{
		{
			name: "missing api key",
			cfg:  config.LLMConfig{ModelName: "gemini-2.0-flash", PromptTemplatePath: templatePath},
		},
		{
			name: "missing model name",
			cfg:  config.LLMConfig{GeminiAPIKey: "key", PromptTemplatePath: templatePath},
		},
		{
			name: "missing template path",
			cfg:  config.LLMConfig{GeminiAPIKey: "key", ModelName: "gemini-2.0-flash"},
		},
		{
			name: "template file does not exist",
			cfg: config.LLMConfig{
				GeminiAPIKey:       "key",
				ModelName:          "gemini-2.0-flash",
				PromptTemplatePath: filepath.Join(t.TempDir(), "missing.tmpl"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewGeminiGenerator(ctx, testLogger(), tc.cfg)
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)
		})
	}
}

func TestNewGeminiGeneratorRejectsBadTemplate(t *testing.T) {
	t.Parallel()

	cfg := config.LLMConfig{
		GeminiAPIKey:       "key",
		ModelName:          "gemini-2.0-flash",
		PromptTemplatePath: writeTemplate(t, "{{.Unclosed"),
	}

	_, err := NewGeminiGenerator(context.Background(), testLogger(), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestCreatePrompt(t *testing.T) {
	t.Parallel()
	g := testGenerator(t)

	prompt, err := g.createPrompt(context.Background(), "photosynthesis notes")
	require.NoError(t, err)
	assert.Equal(t, "Generate cards for: photosynthesis notes", prompt)
}

func TestCreatePromptEmptySource(t *testing.T) {
	t.Parallel()
	g := testGenerator(t)

	_, err := g.createPrompt(context.Background(), "")
	assert.ErrorIs(t, err, generation.ErrPermanentFailure)
	assert.ErrorIs(t, err, ErrEmptySourceText)
}

func TestParseResponse(t *testing.T) {
	t.Parallel()
	g := testGenerator(t)
	ctx := context.Background()
	userID := uuid.New()
	uploadID := uuid.New()
	chapterID := uuid.New()

	response := &ResponseSchema{
		Flashcards: []FlashcardSchema{
			{Front: "What is ATP?", Back: "The cell's energy currency.", Hint: "Think energy."},
			{Front: "What is a chloroplast?", Back: "The organelle where photosynthesis happens."},
		},
		Quizzes: []QuizSchema{
			{
				Question: "Where does photosynthesis occur?",
				Choices:  []string{"Mitochondria", "Chloroplast", "Nucleus"},
				Answer:   1,
			},
		},
		Summary: "Plants convert light into chemical energy.",
	}

	cards, err := g.parseResponse(ctx, response, userID, uploadID, chapterID)
	require.NoError(t, err)
	require.Len(t, cards, 4)

	// Flashcards first, then quizzes, then the summary, each phase
	// positioned from zero.
	assert.Equal(t, domain.CardTypeFlashcard, cards[0].Type)
	assert.Equal(t, 0, cards[0].Position)
	assert.Equal(t, domain.CardTypeFlashcard, cards[1].Type)
	assert.Equal(t, 1, cards[1].Position)
	assert.Equal(t, domain.CardTypeQuiz, cards[2].Type)
	assert.Equal(t, 0, cards[2].Position)
	assert.Equal(t, domain.CardTypeSummary, cards[3].Type)
	assert.Equal(t, 0, cards[3].Position)

	for _, card := range cards {
		assert.Equal(t, userID, card.UserID)
		assert.Equal(t, uploadID, card.UploadID)
		assert.Equal(t, chapterID, card.ChapterID)
	}

	var fc domain.FlashcardContent
	require.NoError(t, json.Unmarshal(cards[0].Content, &fc))
	assert.Equal(t, "What is ATP?", fc.Front)
	assert.Equal(t, "Think energy.", fc.Hint)

	var quiz domain.QuizContent
	require.NoError(t, json.Unmarshal(cards[2].Content, &quiz))
	assert.Equal(t, 1, quiz.Answer)
	assert.Len(t, quiz.Choices, 3)

	var summary domain.SummaryContent
	require.NoError(t, json.Unmarshal(cards[3].Content, &summary))
	assert.Equal(t, "Plants convert light into chemical energy.", summary.Body)
}

func TestParseResponseValidation(t *testing.T) {
	t.Parallel()
	g := testGenerator(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		response *ResponseSchema
	}{
		{name: "nil response", response: nil},
		{name: "empty response", response: &ResponseSchema{}},
		{
			name: "flashcard missing front",
			response: &ResponseSchema{
				Flashcards: []FlashcardSchema{{Back: "back only"}},
			},
		},
		{
			name: "flashcard missing back",
			response: &ResponseSchema{
				Flashcards: []FlashcardSchema{{Front: "front only"}},
			},
		},
		{
			name: "quiz with one choice",
			response: &ResponseSchema{
				Quizzes: []QuizSchema{{Question: "?", Choices: []string{"only"}, Answer: 0}},
			},
		},
		{
			name: "quiz answer out of range",
			response: &ResponseSchema{
				Quizzes: []QuizSchema{{Question: "?", Choices: []string{"a", "b"}, Answer: 2}},
			},
		},
		{
			name: "quiz answer negative",
			response: &ResponseSchema{
				Quizzes: []QuizSchema{{Question: "?", Choices: []string{"a", "b"}, Answer: -1}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cards, err := g.parseResponse(ctx, tc.response, uuid.New(), uuid.New(), uuid.New())
			assert.ErrorIs(t, err, generation.ErrInvalidResponse)
			assert.Nil(t, cards)
		})
	}
}

func TestParseResponseSummaryOnly(t *testing.T) {
	t.Parallel()
	g := testGenerator(t)

	cards, err := g.parseResponse(context.Background(),
		&ResponseSchema{Summary: "Just a recap."}, uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, domain.CardTypeSummary, cards[0].Type)
}
