package providers

import (
	"net/http/httptest"
	"testing"

	"github.com/c360studio/repodeck/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Name(t *testing.T) {
	assert.Equal(t, "openai", llm.GetProvider("openai").Name())
}

func TestOpenAIProvider_BuildURL(t *testing.T) {
	p := llm.GetProvider("openai")

	assert.Equal(t, "https://api.openai.com/v1/chat/completions", p.BuildURL(""))
	assert.Equal(t, "https://openrouter.ai/api/v1/chat/completions", p.BuildURL("https://openrouter.ai/api/v1"))
}

func TestOpenAIProvider_SetHeaders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("OPENROUTER_SITE_URL", "https://repodeck.dev")
	t.Setenv("OPENROUTER_SITE_NAME", "repodeck")

	req := httptest.NewRequest("POST", "https://openrouter.ai/api/v1/chat/completions", nil)
	llm.GetProvider("openai").SetHeaders(req)

	assert.Equal(t, "Bearer sk-openai", req.Header.Get("Authorization"))
	assert.Equal(t, "https://repodeck.dev", req.Header.Get("HTTP-Referer"))
	assert.Equal(t, "repodeck", req.Header.Get("X-Title"))
}

func TestOpenAIProvider_CompletionTokens(t *testing.T) {
	body, err := llm.GetProvider("openai").BuildRequestBody("gpt-5", llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: "x"}},
		MaxTokens: 1000,
	})
	require.NoError(t, err)

	m := decodeBody(t, body)
	assert.EqualValues(t, 1000, m["max_completion_tokens"])
	assert.NotContains(t, m, "max_tokens")
}
