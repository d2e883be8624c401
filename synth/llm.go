package synth

import (
	"context"
	"fmt"

	"github.com/c360studio/repodeck/llm"
)

// Completer is the chat-completion surface of llm.Client.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// LLMGenerator adapts a chat-completion backend to TextGenerator. The
// response schema is sent both as the provider's native structured-output
// schema and in the system prompt, and the JSON object is extracted from the
// reply.
type LLMGenerator struct {
	client      Completer
	system      string
	schema      *llm.Schema
	temperature *float64
	maxTokens   int
}

// NewLLMGenerator builds a generator over client. Temperature and maxTokens
// are passed through when non-zero.
func NewLLMGenerator(client Completer, temperature float64, maxTokens int) (*LLMGenerator, error) {
	schema, err := ResponseSchemaJSON()
	if err != nil {
		return nil, fmt.Errorf("render response schema: %w", err)
	}
	g := &LLMGenerator{
		client:    client,
		system:    fmt.Sprintf(schemaSystemPrompt, schema),
		schema:    &llm.Schema{Name: schemaName, Description: schemaDescription, JSON: schema},
		maxTokens: maxTokens,
	}
	if temperature != 0 {
		g.temperature = &temperature
	}
	return g, nil
}

// Generate implements TextGenerator.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: g.system},
			{Role: "user", Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Schema:      g.schema,
	})
	if err != nil {
		return "", err
	}
	return llm.ExtractJSON(resp.Content), nil
}
