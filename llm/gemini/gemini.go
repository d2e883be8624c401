// Package gemini adapts Google's Gemini API (via google.golang.org/genai)
// to deck synthesis and slide image generation.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"google.golang.org/genai"
)

// Config configures the underlying genai client.
type Config struct {
	// APIKey authenticates against the Gemini API. Empty falls back to
	// GEMINI_API_KEY, then API_KEY.
	APIKey string

	// BaseURL overrides the API host, e.g. for a local mock server.
	BaseURL string

	// HTTPClient is used for all calls when set.
	HTTPClient *http.Client
}

// NewClient builds a genai client for the Gemini developer API.
func NewClient(ctx context.Context, cfg Config) (*genai.Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		key = os.Getenv("API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("gemini: no API key (set GEMINI_API_KEY)")
	}

	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

// Option configures a TextModel or ImageModel.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	temperature *float32
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTemperature sets an explicit sampling temperature.
func WithTemperature(t float32) Option {
	return func(o *options) {
		o.temperature = &t
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
