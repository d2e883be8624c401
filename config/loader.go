package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "repodeck.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/repodeck"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Environment variables read by the loader.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvAPIKey       = "API_KEY"
	EnvNATSURL      = "REPODECK_NATS_URL"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	fs      afero.Fs
	logger  *slog.Logger
	homeDir string
	workDir string
	getenv  func(string) string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFs reads configuration files from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) LoaderOption {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithHomeDir sets the directory the user config is resolved against.
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.homeDir = dir
	}
}

// WithWorkDir sets the directory the project config search starts from.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.workDir = dir
	}
}

// WithEnv replaces os.Getenv.
func WithEnv(getenv func(string) string) LoaderOption {
	return func(l *Loader) {
		l.getenv = getenv
	}
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		fs:     afero.NewOsFs(),
		logger: logger,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.homeDir == "" {
		l.homeDir, _ = os.UserHomeDir()
	}
	if l.workDir == "" {
		l.workDir, _ = os.Getwd()
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/repodeck/config.yaml)
// 3. Project config (repodeck.yaml in current or parent directories)
// 4. Explicit file (--config), which must exist when given
// 5. Environment variables
func (l *Loader) Load(explicit string) (*Config, error) {
	config := DefaultConfig()

	if path := l.UserConfigPath(); path != "" {
		if err := config.overlay(l.fs, path); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", path))
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	if path := l.findProjectConfig(); path != "" {
		if err := config.overlay(l.fs, path); err != nil {
			l.logger.Warn("Failed to load project config", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			l.logger.Debug("Loaded project config", slog.String("path", path))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if explicit != "" {
		if err := config.overlay(l.fs, explicit); err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", explicit))
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) applyEnv(c *Config) {
	if c.Model.APIKey == "" {
		c.Model.APIKey = l.getenv(EnvGeminiAPIKey)
	}
	if c.Model.APIKey == "" {
		c.Model.APIKey = l.getenv(EnvAPIKey)
	}
	if url := l.getenv(EnvNATSURL); url != "" {
		c.NATS.URL = url
	}
}

// EnsureUserConfig creates the user config file with defaults if it doesn't
// exist and returns its path.
func (l *Loader) EnsureUserConfig() (string, error) {
	path := l.UserConfigPath()
	if path == "" {
		return "", errors.New("no home directory")
	}
	if _, err := l.fs.Stat(path); err == nil {
		return path, nil
	}

	if err := DefaultConfig().SaveToFile(l.fs, path); err != nil {
		return "", err
	}
	l.logger.Info("Created default user config", slog.String("path", path))
	return path, nil
}

// UserConfigPath returns the path to the user config file
func (l *Loader) UserConfigPath() string {
	if l.homeDir == "" {
		return ""
	}
	return filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for repodeck.yaml in the working directory
// and its parents
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := l.fs.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
