package providers

import (
	"net/http"
	"os"

	"github.com/c360studio/repodeck/llm"
)

const defaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIProvider talks to the hosted OpenAI API or OpenRouter. Unlike
// OllamaProvider it caps output with max_completion_tokens, which reasoning
// models require.
type OpenAIProvider struct {
	chatCompletions
}

func init() {
	llm.RegisterProvider(&OpenAIProvider{chatCompletions{completionTokens: true}})
}

// Name returns "openai".
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// BuildURL defaults to the OpenAI API.
func (o *OpenAIProvider) BuildURL(baseURL string) string {
	return chatURL(baseURL, defaultOpenAIURL)
}

// SetHeaders adds the bearer token and the optional OpenRouter attribution
// headers.
func (o *OpenAIProvider) SetHeaders(req *http.Request) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if siteURL := os.Getenv("OPENROUTER_SITE_URL"); siteURL != "" {
		req.Header.Set("HTTP-Referer", siteURL)
	}
	if siteName := os.Getenv("OPENROUTER_SITE_NAME"); siteName != "" {
		req.Header.Set("X-Title", siteName)
	}
}
