// Package synth turns repository documentation into a validated pitch deck
// using a schema-constrained generative text model.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/metrics"
)

// MaxDocChars caps the documentation sent to the model, in characters.
// Content past the cap is never seen.
const MaxDocChars = 20000

// DefaultTimeout bounds one synthesis call.
const DefaultTimeout = 2 * time.Minute

// ErrSynthesis is returned for any failed or non-conforming generation.
// No partial deck accompanies it.
var ErrSynthesis = errors.New("deck synthesis failed")

// UserMessage is the user-facing text for ErrSynthesis.
const UserMessage = "Failed to generate pitch deck. Please try again."

// TextGenerator sends a prompt to a model constrained to the deck response
// schema and returns the raw reply text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Synthesizer produces decks from documentation.
type Synthesizer struct {
	gen     TextGenerator
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
func New(gen TextGenerator, opts ...Option) *Synthesizer {
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

// Generate makes a single attempt to build a deck for repoName from docs.
// Every returned deck has positional slide ids slide-0..slide-N-1.
func (s *Synthesizer) Generate(ctx context.Context, repoName, docs string) (*deck.Deck, error) {
	prompt := BuildPrompt(repoName, Truncate(docs, MaxDocChars))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	s.metrics.ObserveAICall(metrics.CallDeck, time.Since(start))
	if err != nil {
		s.logger.Warn("Deck generation failed", "repo", repoName, "error", err)
		s.metrics.DeckGenerated(metrics.ResultFailure)
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	d, err := Decode(text)
	if err != nil {
		s.logger.Warn("Deck response rejected", "repo", repoName, "error", err)
		s.metrics.DeckGenerated(metrics.ResultFailure)
		return nil, err
	}

	s.logger.Info("Deck generated", "repo", repoName, "project", d.ProjectName, "slides", len(d.Slides))
	s.metrics.DeckGenerated(metrics.ResultSuccess)
	return d, nil
}

// BuildPrompt renders the analyst instruction.
func BuildPrompt(repoName, docs string) string {
	return formatDeckPrompt(repoName, docs, deck.KindNames())
}

// Truncate returns the first limit characters of s.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// Decode validates a raw model reply and converts it to a deck. Any missing
// required field or unknown kind rejects the whole reply. Slide ids from the
// reply are discarded and reassigned by position.
func Decode(text string) (*deck.Deck, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrSynthesis)
	}

	var w wireDeck
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrSynthesis, err)
	}

	switch {
	case w.ProjectName == nil:
		return nil, fmt.Errorf("%w: missing projectName", ErrSynthesis)
	case w.Tagline == nil:
		return nil, fmt.Errorf("%w: missing tagline", ErrSynthesis)
	case w.Slides == nil || len(*w.Slides) == 0:
		return nil, fmt.Errorf("%w: no slides", ErrSynthesis)
	}

	d := &deck.Deck{
		ProjectName: *w.ProjectName,
		Tagline:     *w.Tagline,
		Slides:      make([]deck.Slide, 0, len(*w.Slides)),
	}
	for i, ws := range *w.Slides {
		slide, err := ws.toSlide()
		if err != nil {
			return nil, fmt.Errorf("%w: slide %d: %w", ErrSynthesis, i, err)
		}
		d.Slides = append(d.Slides, slide)
	}
	d.AssignIDs()

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	return d, nil
}

func (ws wireSlide) toSlide() (deck.Slide, error) {
	var missing []string
	if ws.Kind == nil {
		missing = append(missing, "kind")
	}
	if ws.Title == nil {
		missing = append(missing, "title")
	}
	if ws.Bullets == nil {
		missing = append(missing, "bullets")
	}
	if ws.SpeakerNotes == nil {
		missing = append(missing, "speakerNotes")
	}
	if ws.VisualPrompt == nil {
		missing = append(missing, "visualPrompt")
	}
	if len(missing) > 0 {
		return deck.Slide{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	kind, err := deck.ParseKind(*ws.Kind)
	if err != nil {
		return deck.Slide{}, err
	}

	s := deck.Slide{
		Kind:         kind,
		Title:        *ws.Title,
		Bullets:      *ws.Bullets,
		SpeakerNotes: *ws.SpeakerNotes,
		VisualPrompt: *ws.VisualPrompt,
	}
	if ws.Highlight != nil {
		s.Highlight = *ws.Highlight
	}
	return s, nil
}
