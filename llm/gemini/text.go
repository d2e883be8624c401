package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/c360studio/repodeck/deck"
	"google.golang.org/genai"
)

// DefaultTextModel is the model used for deck synthesis.
const DefaultTextModel = "gemini-3-flash-preview"

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// TextModel generates JSON text constrained by a response schema.
type TextModel struct {
	client *genai.Client
	model  string
	schema *genai.Schema
	opts   options
}

// NewTextModel creates a text model that answers with JSON matching schema.
func NewTextModel(client *genai.Client, model string, schema *genai.Schema, opts ...Option) *TextModel {
	if model == "" {
		model = DefaultTextModel
	}
	return &TextModel{
		client: client,
		model:  model,
		schema: schema,
		opts:   buildOptions(opts),
	}
}

// Generate sends prompt and returns the model's JSON text.
func (m *TextModel) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   m.schema,
		Temperature:      m.opts.temperature,
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	m.opts.logger.Debug("Gemini text response received", "model", m.model, "chars", len(text))
	return text, nil
}

// DeckSchema declares the deck wire format for Gemini's structured output.
func DeckSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}

	slide := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":           str,
			"kind":         {Type: genai.TypeString, Enum: deck.KindNames()},
			"title":        str,
			"bullets":      {Type: genai.TypeArray, Items: str},
			"speakerNotes": str,
			"visualPrompt": str,
			"highlight":    str,
		},
		Required:         []string{"kind", "title", "bullets", "speakerNotes", "visualPrompt"},
		PropertyOrdering: []string{"id", "kind", "title", "bullets", "speakerNotes", "visualPrompt", "highlight"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"projectName": str,
			"tagline":     str,
			"slides":      {Type: genai.TypeArray, Items: slide},
		},
		Required:         []string{"projectName", "tagline", "slides"},
		PropertyOrdering: []string{"projectName", "tagline", "slides"},
	}
}
