// Package visual generates slide artwork from short visual prompts.
// Failures never escape this package: callers see an absent image.
package visual

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/metrics"
)

// AspectRatio is requested for every image.
const AspectRatio = "16:9"

// DefaultTimeout bounds one image generation.
const DefaultTimeout = 2 * time.Minute

const stylePreamble = "Generate a high quality, professional, abstract business background image. Style: Modern, Minimalist, Tech, Corporate Memorable. Context: "

// ImageGenerator calls an image model.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (deck.Image, error)
}

// Synthesizer wraps an ImageGenerator with the house style and absorbs
// its failures.
type Synthesizer struct {
	gen     ImageGenerator
	timeout time.Duration
	metrics *metrics.Provider
	logger  *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.timeout = d
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m *metrics.Provider) Option {
	return func(s *Synthesizer) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// New creates a synthesizer over gen.
func New(gen ImageGenerator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		gen:     gen,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StylePrompt wraps a visual prompt in the fixed style preamble.
func StylePrompt(visualPrompt string) string {
	return stylePreamble + visualPrompt
}

// Generate makes one attempt at an image for visualPrompt. The boolean is
// false when the model errored or returned no image data.
func (s *Synthesizer) Generate(ctx context.Context, visualPrompt string) (deck.Image, bool) {
	if s == nil || s.gen == nil {
		return deck.Image{}, false
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	img, err := s.gen.GenerateImage(ctx, StylePrompt(visualPrompt), AspectRatio)
	s.metrics.ObserveAICall(metrics.CallImage, time.Since(start))

	switch {
	case err != nil:
		s.logger.Warn("Image generation failed", "prompt", visualPrompt, "error", err)
		s.metrics.ImageGenerated(metrics.ResultFailure)
		return deck.Image{}, false
	case img.IsZero():
		s.logger.Warn("Image generation returned no data", "prompt", visualPrompt)
		s.metrics.ImageGenerated(metrics.ResultEmpty)
		return deck.Image{}, false
	}

	s.logger.Debug("Image generated", "prompt", visualPrompt, "bytes", len(img.Data), "mime", img.MIMEType)
	s.metrics.ImageGenerated(metrics.ResultSuccess)
	return img, true
}
