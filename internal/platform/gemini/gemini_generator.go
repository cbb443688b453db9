package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"github.com/google/uuid"
	"github.com/lexa-learn/lexa-api/internal/config"
	"github.com/lexa-learn/lexa-api/internal/domain"
	"github.com/lexa-learn/lexa-api/internal/generation"
	"google.golang.org/genai"
)

// ErrEmptySourceText is returned when the source text passed to the
// generator is empty.
var ErrEmptySourceText = errors.New("source text cannot be empty")

// ResponseSchema defines the JSON structure the model is instructed to
// return: a full card set covering all three study phases.
type ResponseSchema struct {
	Flashcards []FlashcardSchema `json:"flashcards"`
	Quizzes    []QuizSchema      `json:"quizzes"`
	Summary    string            `json:"summary"`
}

// FlashcardSchema is a single flashcard in the model response.
type FlashcardSchema struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Hint  string `json:"hint,omitempty"`
}

// QuizSchema is a single multiple-choice question in the model response.
type QuizSchema struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// promptData is the data passed to the prompt template.
type promptData struct {
	SourceText string
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate card sets from extracted source text.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// Ensure GeminiGenerator implements generation.Generator
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new instance of GeminiGenerator with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name, and the prompt template path
//
// Returns:
//   - A properly initialized GeminiGenerator or an error if initialization fails
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	// Validate configuration
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.PromptTemplatePath == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", generation.ErrInvalidConfig)
	}

	// Load and parse prompt template
	templateContent, err := os.ReadFile(cfg.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
			generation.ErrInvalidConfig, cfg.PromptTemplatePath, err)
	}

	promptTemplate, err := template.New("cardset").Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// GenerateCardSet implements generation.Generator.GenerateCardSet.
//
// Transient errors (network failures, rate limits, context deadlines) wrap
// generation.ErrTransientFailure; the caller's retry policy applies. Safety
// blocks wrap generation.ErrContentBlocked and are permanent. The generator
// itself never retries: retry scheduling belongs to the work queue.
func (g *GeminiGenerator) GenerateCardSet(
	ctx context.Context,
	sourceText string,
	userID, uploadID, chapterID uuid.UUID,
) ([]*domain.Card, error) {
	prompt, err := g.createPrompt(ctx, sourceText)
	if err != nil {
		return nil, err
	}

	response, err := g.callGemini(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response, userID, uploadID, chapterID)
}

// createPrompt generates a prompt string from the template with the provided
// source text. It returns an error if the source text is empty or the
// template execution fails.
func (g *GeminiGenerator) createPrompt(ctx context.Context, sourceText string) (string, error) {
	if sourceText == "" {
		return "", fmt.Errorf("%w: %v", generation.ErrPermanentFailure, ErrEmptySourceText)
	}

	g.logger.DebugContext(ctx, "generating prompt from template",
		"source_length", len(sourceText),
		"template_name", g.promptTemplate.Name())

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, promptData{SourceText: sourceText}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return promptBuffer.String(), nil
}

// callGemini makes a single call to the Gemini API and classifies the
// outcome against the generation package's sentinel errors.
func (g *GeminiGenerator) callGemini(ctx context.Context, prompt string) (*ResponseSchema, error) {
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	g.logger.InfoContext(ctx, "making Gemini API call", "model", g.model)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
	if err != nil {
		// API and transport errors are assumed transient; the queue's
		// backoff policy decides whether to try again.
		g.logger.ErrorContext(ctx, "Gemini API call error", "error", err)
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: response blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: no text in response", generation.ErrInvalidResponse)
	}

	var parsedResponse ResponseSchema
	if err := json.Unmarshal([]byte(text), &parsedResponse); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}

	g.logger.InfoContext(ctx, "Gemini API call successful",
		"flashcards", len(parsedResponse.Flashcards),
		"quizzes", len(parsedResponse.Quizzes))

	return &parsedResponse, nil
}

// parseResponse converts a ResponseSchema from the Gemini API into
// domain.Card objects. Flashcards come first, then quizzes, then the
// summary, each phase positioned from zero. If any card in the response
// fails validation, no cards are returned.
func (g *GeminiGenerator) parseResponse(
	ctx context.Context,
	response *ResponseSchema,
	userID, uploadID, chapterID uuid.UUID,
) ([]*domain.Card, error) {
	if response == nil {
		return nil, fmt.Errorf("%w: response is nil", generation.ErrInvalidResponse)
	}

	if len(response.Flashcards) == 0 && len(response.Quizzes) == 0 && response.Summary == "" {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	cards := make([]*domain.Card, 0, len(response.Flashcards)+len(response.Quizzes)+1)

	for i, fc := range response.Flashcards {
		if fc.Front == "" {
			return nil, fmt.Errorf("%w: flashcard %d missing front side", generation.ErrInvalidResponse, i)
		}
		if fc.Back == "" {
			return nil, fmt.Errorf("%w: flashcard %d missing back side", generation.ErrInvalidResponse, i)
		}

		content, err := json.Marshal(domain.FlashcardContent{
			Front: fc.Front,
			Back:  fc.Back,
			Hint:  fc.Hint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flashcard content: %w", err)
		}

		card, err := domain.NewCard(userID, uploadID, chapterID, domain.CardTypeFlashcard, i, content)
		if err != nil {
			return nil, fmt.Errorf("failed to create flashcard: %w", err)
		}
		cards = append(cards, card)
	}

	for i, q := range response.Quizzes {
		if q.Question == "" {
			return nil, fmt.Errorf("%w: quiz %d missing question", generation.ErrInvalidResponse, i)
		}
		if len(q.Choices) < 2 {
			return nil, fmt.Errorf("%w: quiz %d needs at least two choices", generation.ErrInvalidResponse, i)
		}
		if q.Answer < 0 || q.Answer >= len(q.Choices) {
			return nil, fmt.Errorf("%w: quiz %d answer index out of range", generation.ErrInvalidResponse, i)
		}

		content, err := json.Marshal(domain.QuizContent{
			Question:    q.Question,
			Choices:     q.Choices,
			Answer:      q.Answer,
			Explanation: q.Explanation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal quiz content: %w", err)
		}

		card, err := domain.NewCard(userID, uploadID, chapterID, domain.CardTypeQuiz, i, content)
		if err != nil {
			return nil, fmt.Errorf("failed to create quiz card: %w", err)
		}
		cards = append(cards, card)
	}

	if response.Summary != "" {
		content, err := json.Marshal(domain.SummaryContent{Body: response.Summary})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal summary content: %w", err)
		}

		card, err := domain.NewCard(userID, uploadID, chapterID, domain.CardTypeSummary, 0, content)
		if err != nil {
			return nil, fmt.Errorf("failed to create summary card: %w", err)
		}
		cards = append(cards, card)
	}

	g.logger.InfoContext(ctx, "parsed card set from API response",
		"created_cards", len(cards),
		"upload_id", uploadID.String())

	return cards, nil
}
