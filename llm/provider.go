package llm

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// Schema is a named JSON schema the reply must satisfy. Providers map it to
// their native structured-output feature.
type Schema struct {
	// Name identifies the schema on the wire; letters, digits, _ and - only.
	Name string

	// Description tells the model what the object is for.
	Description string

	// JSON is the schema document. The root must describe an object.
	JSON json.RawMessage
}

// Provider translates a Request into one vendor's HTTP dialect.
type Provider interface {
	// Name returns the registry key (e.g. "anthropic", "ollama").
	Name() string

	// BuildURL returns the completion endpoint for baseURL, or the vendor
	// default when baseURL is empty.
	BuildURL(baseURL string) string

	// SetHeaders adds authentication and version headers.
	SetHeaders(req *http.Request)

	// BuildRequestBody encodes req for model.
	BuildRequestBody(model string, req Request) ([]byte, error)

	// ParseResponse decodes a 2xx body. When the request carried a Schema,
	// Content is the structured JSON object.
	ParseResponse(body []byte, model string) (*Response, error)
}

var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

// RegisterProvider adds a provider to the registry, replacing any provider
// with the same name.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider returns the provider registered under name, or nil.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns the registered provider names, sorted.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
