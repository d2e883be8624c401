package providers

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/repodeck/llm"
)

// chatCompletions encodes the OpenAI chat completions wire format shared by
// OpenAI, OpenRouter, Ollama and vLLM.
type chatCompletions struct {
	// completionTokens sends max_completion_tokens instead of the
	// deprecated max_tokens.
	completionTokens bool
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	Temperature         *float64        `json:"temperature,omitempty"`
	MaxTokens           *int            `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int            `json:"max_completion_tokens,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat is either {"type":"json_object"} or a named json_schema.
type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	// Strict mode needs every property required, which the deck schema's
	// optional id and highlight fields do not satisfy.
	Strict bool `json:"strict"`
}

// BuildRequestBody encodes req. Every request asks for JSON output: with a
// schema when one is given, a bare JSON object otherwise.
func (c chatCompletions) BuildRequestBody(model string, req llm.Request) ([]byte, error) {
	messages := make([]chatMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	body := chatRequest{
		Model:          model,
		Messages:       messages,
		Temperature:    req.Temperature, // nil = use default, 0 = deterministic
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	if s := req.Schema; s != nil {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:        s.Name,
				Description: s.Description,
				Schema:      s.JSON,
			},
		}
	}

	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		if c.completionTokens {
			body.MaxCompletionTokens = &maxTokens
		} else {
			body.MaxTokens = &maxTokens
		}
	}

	return json.Marshal(body)
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ParseResponse returns the first choice. A refusal is reported as a fatal
// error since submitting the same README again will be refused again.
func (c chatCompletions) ParseResponse(body []byte, _ string) (*llm.Response, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, llm.NewFatalError(fmt.Errorf("model refused: %s", choice.Message.Refusal))
	}

	return &llm.Response{
		Content: choice.Message.Content,
		Model:   resp.Model,
		Usage: llm.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		FinishReason: choice.FinishReason,
	}, nil
}
