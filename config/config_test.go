package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderGemini, cfg.Model.Provider)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Model.Text)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.Model.Image)
	assert.Equal(t, []string{"main", "master"}, cfg.Fetch.Branches)
	assert.Equal(t, 800*time.Millisecond, cfg.Generation.AnalyzeDelay)
	assert.True(t, cfg.Generation.EagerTitleImage)
	assert.Equal(t, "pptx", cfg.Export.Format)
	assert.Empty(t, cfg.NATS.URL)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "missing provider",
			modify:  func(c *Config) { c.Model.Provider = "" },
			wantErr: "model.provider",
		},
		{
			name:    "missing text model",
			modify:  func(c *Config) { c.Model.Text = "" },
			wantErr: "model.text",
		},
		{
			name:    "temperature too high",
			modify:  func(c *Config) { c.Model.Temperature = 2.5 },
			wantErr: "model.temperature",
		},
		{
			name:    "no branches",
			modify:  func(c *Config) { c.Fetch.Branches = nil },
			wantErr: "fetch.branches",
		},
		{
			name:    "unknown export format",
			modify:  func(c *Config) { c.Export.Format = "pdf" },
			wantErr: "export.format",
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.Export.Concurrency = 0 },
			wantErr: "export.concurrency",
		},
		{
			name: "nats without prefix",
			modify: func(c *Config) {
				c.NATS.URL = "nats://localhost:4222"
				c.NATS.SubjectPrefix = ""
			},
			wantErr: "nats.subject_prefix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
model:
  provider: ollama
  text: "llama3"
  temperature: 0.4
generation:
  analyze_delay: 2s
  eager_title_image: false
nats:
  url: "nats://localhost:4222"
`
	require.NoError(t, afero.WriteFile(fs, "/cfg/repodeck.yaml", []byte(content), 0644))

	cfg, err := LoadFromFile(fs, "/cfg/repodeck.yaml")
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "llama3", cfg.Model.Text)
	assert.Equal(t, 0.4, cfg.Model.Temperature)
	assert.Equal(t, 2*time.Second, cfg.Generation.AnalyzeDelay)
	assert.False(t, cfg.Generation.EagerTitleImage)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)

	// untouched keys keep their defaults
	assert.Equal(t, "gemini-2.5-flash-image", cfg.Model.Image)
	assert.Equal(t, "repodeck.status", cfg.NATS.SubjectPrefix)
}

func TestLoadFromFile_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadFromFile(fs, "/missing.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("model: [unclosed"), 0644))
	_, err = LoadFromFile(fs, "/bad.yaml")
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := DefaultConfig()
	cfg.Server.Addr = ":9090"

	require.NoError(t, cfg.SaveToFile(fs, "/home/u/.config/repodeck/config.yaml"))

	loaded, err := LoadFromFile(fs, "/home/u/.config/repodeck/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
