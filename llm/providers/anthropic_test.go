package providers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/c360studio/repodeck/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deckSchema = &llm.Schema{
	Name:        "pitch_deck",
	Description: "An investor pitch deck",
	JSON:        json.RawMessage(`{"type":"object","properties":{"projectName":{"type":"string"}}}`),
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func TestAnthropicProvider_BuildURL(t *testing.T) {
	p := &AnthropicProvider{}

	assert.Equal(t, "https://api.anthropic.com/v1/messages", p.BuildURL(""))
	assert.Equal(t, "https://proxy.internal.dev/v1/messages", p.BuildURL("https://proxy.internal.dev/"))
}

func TestAnthropicProvider_SetHeaders(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	p := &AnthropicProvider{}

	req := httptest.NewRequest("POST", "https://api.anthropic.com/v1/messages", nil)
	p.SetHeaders(req)

	assert.Equal(t, "sk-test", req.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, req.Header.Get("anthropic-version"))
}

func TestAnthropicProvider_BuildRequestBody(t *testing.T) {
	p := &AnthropicProvider{}

	temp := 0.4
	body, err := p.BuildRequestBody("claude-sonnet", llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a venture capital analyst."},
			{Role: "user", Content: "Build a pitch deck for acme/widget."},
		},
		Temperature: &temp,
		MaxTokens:   2048,
	})
	require.NoError(t, err)

	m := decodeBody(t, body)
	assert.Equal(t, "You are a venture capital analyst.", m["system"])
	assert.Equal(t, "claude-sonnet", m["model"])
	assert.EqualValues(t, 2048, m["max_tokens"])
	assert.EqualValues(t, 0.4, m["temperature"])
	assert.NotContains(t, m, "tools")

	messages := m["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestAnthropicProvider_BuildRequestBody_Defaults(t *testing.T) {
	p := &AnthropicProvider{}

	body, err := p.BuildRequestBody("claude-sonnet", llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "deck"}},
	})
	require.NoError(t, err)

	m := decodeBody(t, body)
	assert.EqualValues(t, defaultAnthropicMaxTokens, m["max_tokens"])
	assert.NotContains(t, m, "temperature")
	assert.NotContains(t, m, "system")
}

func TestAnthropicProvider_BuildRequestBody_SchemaForcesTool(t *testing.T) {
	p := &AnthropicProvider{}

	body, err := p.BuildRequestBody("claude-sonnet", llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "deck"}},
		Schema:   deckSchema,
	})
	require.NoError(t, err)

	m := decodeBody(t, body)
	tools := m["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "pitch_deck", tool["name"])
	assert.Equal(t, "object", tool["input_schema"].(map[string]any)["type"])
	assert.Equal(t, map[string]any{"type": "tool", "name": "pitch_deck"}, m["tool_choice"])
}

func TestAnthropicProvider_ParseResponse_Text(t *testing.T) {
	p := &AnthropicProvider{}

	resp, err := p.ParseResponse([]byte(`{
		"id": "msg_123",
		"type": "message",
		"role": "assistant",
		"content": [
			{"type": "text", "text": "{\"projectName\": "},
			{"type": "text", "text": "\"widget\"}"}
		],
		"model": "claude-sonnet-20250514",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 15, "output_tokens": 8}
	}`), "claude-sonnet")
	require.NoError(t, err)

	assert.Equal(t, `{"projectName": "widget"}`, resp.Content)
	assert.Equal(t, "claude-sonnet-20250514", resp.Model)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, llm.TokenUsage{PromptTokens: 15, CompletionTokens: 8, TotalTokens: 23}, resp.Usage)
}

func TestAnthropicProvider_ParseResponse_ToolUse(t *testing.T) {
	p := &AnthropicProvider{}

	resp, err := p.ParseResponse([]byte(`{
		"model": "claude-sonnet-20250514",
		"content": [
			{"type": "text", "text": "Here is the deck."},
			{"type": "tool_use", "id": "toolu_1", "name": "pitch_deck", "input": {"projectName":"widget"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`), "claude-sonnet")
	require.NoError(t, err)

	assert.JSONEq(t, `{"projectName":"widget"}`, resp.Content)
	assert.Equal(t, "tool_use", resp.FinishReason)
}

func TestAnthropicProvider_ParseResponse_InvalidJSON(t *testing.T) {
	p := &AnthropicProvider{}

	_, err := p.ParseResponse([]byte(`not json`), "claude-sonnet")
	assert.Error(t, err)
}
