package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"google.golang.org/genai"

	"github.com/c360studio/repodeck/config"
	"github.com/c360studio/repodeck/events"
	"github.com/c360studio/repodeck/export"
	"github.com/c360studio/repodeck/llm"
	"github.com/c360studio/repodeck/llm/gemini"
	"github.com/c360studio/repodeck/metrics"
	"github.com/c360studio/repodeck/presentation"
	"github.com/c360studio/repodeck/source"
	"github.com/c360studio/repodeck/synth"
	"github.com/c360studio/repodeck/visual"
	"github.com/c360studio/repodeck/workflow"
)

// App wires the pipeline components from configuration.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	fs       afero.Fs
	registry *prometheus.Registry
	metrics  *metrics.Provider

	local    *source.LocalFetcher
	fetcher  source.Fetcher
	deck     *synth.Synthesizer
	visual   *visual.Synthesizer
	exporter *export.Exporter

	natsConn *nats.Conn
}

// appDeps lets tests replace the model backends.
type appDeps struct {
	fs    afero.Fs
	text  synth.TextGenerator
	image visual.ImageGenerator
}

// NewApp builds the components described by cfg. Model clients are created
// here; nothing is contacted until the first call.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps appDeps) (*App, error) {
	fs := deps.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	registry := prometheus.NewRegistry()
	a := &App{
		cfg:      cfg,
		logger:   logger,
		fs:       fs,
		registry: registry,
		metrics:  metrics.New(registry),
	}

	a.local = source.NewLocalFetcher(fs,
		source.WithPatterns(cfg.Fetch.DocPatterns...),
		source.WithLocalLogger(logger))
	a.fetcher = &source.Router{
		GitHub: source.NewGitHubFetcher(
			source.WithRawBaseURL(cfg.Fetch.RawBaseURL),
			source.WithBranches(cfg.Fetch.Branches...),
			source.WithGitHubLogger(logger)),
		Web: source.NewWebFetcher(cfg.Fetch.Timeout,
			source.WithUserAgent(cfg.Fetch.UserAgent),
			source.WithMaxPageSize(cfg.Fetch.MaxPageSize),
			source.WithWebLogger(logger)),
		Local: a.local,
	}

	text, image := deps.text, deps.image
	if text == nil || image == nil {
		t, i, err := a.buildModels(ctx)
		if err != nil {
			return nil, err
		}
		if text == nil {
			text = t
		}
		if image == nil && i != nil {
			image = i
		}
	}

	a.deck = synth.New(text,
		synth.WithTimeout(cfg.Generation.DeckTimeout),
		synth.WithMetrics(a.metrics),
		synth.WithLogger(logger))
	a.visual = visual.New(image,
		visual.WithTimeout(cfg.Generation.ImageTimeout),
		visual.WithMetrics(a.metrics),
		visual.WithLogger(logger))
	a.exporter = export.New(
		export.WithConcurrency(cfg.Export.Concurrency),
		export.WithMetrics(a.metrics),
		export.WithLogger(logger))
	return a, nil
}

// buildModels creates the configured text backend and, when an image model
// is configured and a Gemini key is available, the image backend.
func (a *App) buildModels(ctx context.Context) (synth.TextGenerator, visual.ImageGenerator, error) {
	m := a.cfg.Model

	var client *genai.Client
	if m.Provider == config.ProviderGemini || m.Image != "" {
		gc := gemini.Config{APIKey: m.APIKey}
		if m.Provider == config.ProviderGemini {
			gc.BaseURL = m.BaseURL
		}
		c, err := gemini.NewClient(ctx, gc)
		switch {
		case err == nil:
			client = c
		case m.Provider == config.ProviderGemini:
			return nil, nil, err
		default:
			a.logger.Warn("Slide images disabled", "error", err)
		}
	}

	var text synth.TextGenerator
	if m.Provider == config.ProviderGemini {
		var opts []gemini.Option
		opts = append(opts, gemini.WithLogger(a.logger))
		if m.Temperature != 0 {
			opts = append(opts, gemini.WithTemperature(float32(m.Temperature)))
		}
		text = gemini.NewTextModel(client, m.Text, gemini.DeckSchema(), opts...)
	} else {
		if llm.GetProvider(m.Provider) == nil {
			return nil, nil, fmt.Errorf("unknown model provider %q (available: gemini, %v)", m.Provider, llm.ListProviders())
		}
		chat := llm.NewClient(llm.Endpoint{Provider: m.Provider, URL: m.BaseURL, Model: m.Text}, llm.WithLogger(a.logger))
		gen, err := synth.NewLLMGenerator(chat, m.Temperature, m.MaxTokens)
		if err != nil {
			return nil, nil, err
		}
		text = gen
	}

	var image visual.ImageGenerator
	if client != nil && m.Image != "" {
		image = gemini.NewImageModel(client, m.Image, gemini.WithLogger(a.logger))
	}
	return text, image, nil
}

// NewAnalyzer creates an analyzer wired to the app's components. opts are
// applied after the configured ones.
func (a *App) NewAnalyzer(opts ...workflow.AnalyzerOption) *workflow.Analyzer {
	base := []workflow.AnalyzerOption{
		workflow.WithAnalyzeDelay(a.cfg.Generation.AnalyzeDelay),
		workflow.WithMetrics(a.metrics),
		workflow.WithLogger(a.logger),
		workflow.WithPresentationOptions(
			presentation.WithEagerTitleImage(a.cfg.Generation.EagerTitleImage)),
	}
	return workflow.NewAnalyzer(a.fetcher, a.deck, a.visual, append(base, opts...)...)
}

// Publisher returns the NATS event publisher, connecting on first use, or
// nil when no NATS URL is configured.
func (a *App) Publisher() (events.Publisher, error) {
	if a.cfg.NATS.URL == "" {
		return nil, nil
	}
	if a.natsConn == nil {
		conn, err := events.Connect(a.cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		a.natsConn = conn
		a.logger.Info("Publishing status events to NATS", "url", a.cfg.NATS.URL, "prefix", a.cfg.NATS.SubjectPrefix)
	}
	return events.NewNATSPublisher(a.natsConn,
		events.WithSubjectPrefix(a.cfg.NATS.SubjectPrefix),
		events.WithLogger(a.logger)), nil
}

// Close releases connections.
func (a *App) Close() {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Warn("NATS drain failed", "error", err)
		}
		a.natsConn = nil
	}
}
