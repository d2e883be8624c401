// Package config provides configuration loading and management for repodeck.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/repodeck/export"
	"github.com/c360studio/repodeck/llm/gemini"
	"github.com/c360studio/repodeck/source"
)

// ProviderGemini selects the native Gemini text model.
const ProviderGemini = "gemini"

// Config represents the complete repodeck configuration
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Generation GenerationConfig `yaml:"generation"`
	Export     ExportConfig     `yaml:"export"`
	Server     ServerConfig     `yaml:"server"`
	NATS       NATSConfig       `yaml:"nats"`
}

// ModelConfig configures the generative models
type ModelConfig struct {
	// Provider selects the text backend: gemini, or a registered chat
	// provider (anthropic, ollama, openai).
	Provider string `yaml:"provider"`
	// APIKey authenticates against Gemini. Usually supplied by GEMINI_API_KEY.
	APIKey string `yaml:"api_key,omitempty"`
	// BaseURL overrides the API host of the text provider.
	BaseURL string `yaml:"base_url,omitempty"`
	// Text is the model that writes the deck.
	Text string `yaml:"text"`
	// Image is the Gemini model that renders slide backgrounds. Empty disables images.
	Image string `yaml:"image"`
	// Temperature controls randomness of the text model (0 = provider default)
	Temperature float64 `yaml:"temperature"`
	// MaxTokens limits the text response (0 = provider default)
	MaxTokens int `yaml:"max_tokens"`
}

// FetchConfig configures documentation fetching
type FetchConfig struct {
	// Timeout bounds a single page or README fetch
	Timeout time.Duration `yaml:"timeout"`
	// RawBaseURL is where GitHub README files are read from
	RawBaseURL string `yaml:"raw_base_url"`
	// Branches are tried in order
	Branches []string `yaml:"branches"`
	// UserAgent is sent with web page fetches
	UserAgent string `yaml:"user_agent,omitempty"`
	// MaxPageSize caps web page bodies in bytes
	MaxPageSize int64 `yaml:"max_page_size"`
	// DocPatterns are doublestar patterns for local documentation discovery
	DocPatterns []string `yaml:"doc_patterns"`
}

// GenerationConfig configures deck and image generation
type GenerationConfig struct {
	// AnalyzeDelay is the pause between fetching and synthesis
	AnalyzeDelay time.Duration `yaml:"analyze_delay"`
	// DeckTimeout bounds one deck synthesis call
	DeckTimeout time.Duration `yaml:"deck_timeout"`
	// ImageTimeout bounds one image generation call
	ImageTimeout time.Duration `yaml:"image_timeout"`
	// EagerTitleImage requests the first slide's image as soon as a deck exists
	EagerTitleImage bool `yaml:"eager_title_image"`
}

// ExportConfig configures deck export
type ExportConfig struct {
	// Format is the default export format (pptx, json, md)
	Format string `yaml:"format"`
	// Dir is where the CLI writes exported files
	Dir string `yaml:"dir"`
	// Concurrency bounds image generation during export
	Concurrency int `yaml:"concurrency"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	// Addr is the listen address
	Addr string `yaml:"addr"`
	// ReadHeaderTimeout bounds request header reads
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NATSConfig configures status event publishing
type NATSConfig struct {
	// URL is the NATS server URL (empty = events disabled)
	URL string `yaml:"url"`
	// SubjectPrefix is prepended to the session id
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider: ProviderGemini,
			Text:     gemini.DefaultTextModel,
			Image:    gemini.DefaultImageModel,
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			RawBaseURL:  source.DefaultRawBaseURL,
			Branches:    append([]string(nil), source.DefaultBranches...),
			MaxPageSize: 5 * 1024 * 1024,
			DocPatterns: append([]string(nil), source.DefaultDocPatterns...),
		},
		Generation: GenerationConfig{
			AnalyzeDelay:    800 * time.Millisecond,
			DeckTimeout:     2 * time.Minute,
			ImageTimeout:    time.Minute,
			EagerTitleImage: true,
		},
		Export: ExportConfig{
			Format:      string(export.FormatPPTX),
			Dir:         ".",
			Concurrency: 2,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		NATS: NATSConfig{
			SubjectPrefix: "repodeck.status",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error
	if c.Model.Provider == "" {
		errs = append(errs, errors.New("model.provider is required"))
	}
	if c.Model.Text == "" {
		errs = append(errs, errors.New("model.text is required"))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, errors.New("model.temperature must be between 0 and 2"))
	}
	if c.Model.MaxTokens < 0 {
		errs = append(errs, errors.New("model.max_tokens must not be negative"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}
	if len(c.Fetch.Branches) == 0 {
		errs = append(errs, errors.New("fetch.branches must not be empty"))
	}
	if c.Generation.AnalyzeDelay < 0 {
		errs = append(errs, errors.New("generation.analyze_delay must not be negative"))
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		errs = append(errs, fmt.Errorf("export.format: %w", err))
	}
	if c.Export.Concurrency < 1 {
		errs = append(errs, errors.New("export.concurrency must be at least 1"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.NATS.URL != "" && c.NATS.SubjectPrefix == "" {
		errs = append(errs, errors.New("nats.subject_prefix is required when nats.url is set"))
	}
	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file on fs, overlaying it on
// the defaults.
func LoadFromFile(fs afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.overlay(fs, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay decodes the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) overlay(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
