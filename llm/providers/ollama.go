package providers

import (
	"net/http"
	"os"
	"strings"

	"github.com/c360studio/repodeck/llm"
)

// defaultOllamaURL is Ollama's OpenAI-compatible API on the local host.
const defaultOllamaURL = "http://localhost:11434/v1"

// OllamaProvider talks to self-hosted OpenAI-compatible servers such as
// Ollama and vLLM.
type OllamaProvider struct {
	chatCompletions
}

func init() {
	llm.RegisterProvider(&OllamaProvider{})
}

// Name returns "ollama".
func (o *OllamaProvider) Name() string {
	return "ollama"
}

// BuildURL appends /chat/completions unless baseURL already ends with it.
func (o *OllamaProvider) BuildURL(baseURL string) string {
	return chatURL(baseURL, defaultOllamaURL)
}

// SetHeaders sends OPENAI_API_KEY as a bearer token when set, for gateways
// in front of the server.
func (o *OllamaProvider) SetHeaders(req *http.Request) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

func chatURL(baseURL, fallback string) string {
	if baseURL == "" {
		baseURL = fallback
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}
