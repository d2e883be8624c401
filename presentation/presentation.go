// Package presentation holds one generated deck together with its
// session-scoped image cache.
//
// Each slide id is generated at most once at a time. Entries are written
// only by successful generations, never change once written and are never
// evicted. Closing a presentation lets pending generations run to
// completion but drops their results.
package presentation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/metrics"
)

// Generator produces an image for a visual prompt, or reports absence.
// visual.Synthesizer satisfies it.
type Generator interface {
	Generate(ctx context.Context, visualPrompt string) (deck.Image, bool)
}

// Presentation is a deck plus its image cache.
type Presentation struct {
	deck *deck.Deck
	gen  Generator

	mu       sync.Mutex
	images   map[string]deck.Image
	inflight map[string]chan struct{}
	closed   bool

	eager    bool
	observer func(slideID string, img deck.Image)
	metrics  *metrics.Provider
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// Option configures a Presentation.
type Option func(*Presentation)

// WithEagerTitleImage controls whether Start requests the first slide's
// image. Enabled by default.
func WithEagerTitleImage(enabled bool) Option {
	return func(p *Presentation) {
		p.eager = enabled
	}
}

// WithObserver registers fn to be called after each image is cached.
func WithObserver(fn func(slideID string, img deck.Image)) Option {
	return func(p *Presentation) {
		p.observer = fn
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m *metrics.Provider) Option {
	return func(p *Presentation) {
		p.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Presentation) {
		p.logger = logger
	}
}

// New creates a presentation for d with an empty cache.
func New(d *deck.Deck, gen Generator, opts ...Option) *Presentation {
	p := &Presentation{
		deck:     d,
		gen:      gen,
		images:   make(map[string]deck.Image),
		inflight: make(map[string]chan struct{}),
		eager:    true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Deck returns the presentation's deck.
func (p *Presentation) Deck() *deck.Deck {
	return p.deck
}

// Start requests the title slide's image in the background. It does not
// wait for the result.
func (p *Presentation) Start() {
	if !p.eager || p.deck == nil || len(p.deck.Slides) == 0 {
		return
	}
	first := p.deck.Slides[0]
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.EnsureImage(context.Background(), first.ID, first.VisualPrompt)
	}()
}

// Wait blocks until background requests issued by Start have finished.
func (p *Presentation) Wait() {
	p.wg.Wait()
}

// EnsureImage returns the cached image for slideID, generating it if no
// entry exists. A request for a slide whose generation is already in
// flight is a no-op and reports absence.
func (p *Presentation) EnsureImage(ctx context.Context, slideID, visualPrompt string) (deck.Image, bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return deck.Image{}, false
	}
	if img, ok := p.images[slideID]; ok {
		p.mu.Unlock()
		p.metrics.ImageCacheHit()
		return img, true
	}
	if _, busy := p.inflight[slideID]; busy {
		p.mu.Unlock()
		p.logger.Debug("Image already generating", "slide", slideID)
		return deck.Image{}, false
	}
	done := make(chan struct{})
	p.inflight[slideID] = done
	p.mu.Unlock()

	return p.generate(ctx, slideID, visualPrompt, done)
}

// AwaitImage is EnsureImage for callers that need the result: when a
// generation for slideID is in flight it waits for that generation rather
// than starting another. Absence is reported if that generation fails or
// ctx ends first.
func (p *Presentation) AwaitImage(ctx context.Context, slideID, visualPrompt string) (deck.Image, bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return deck.Image{}, false
	}
	if img, ok := p.images[slideID]; ok {
		p.mu.Unlock()
		p.metrics.ImageCacheHit()
		return img, true
	}
	if pending, busy := p.inflight[slideID]; busy {
		p.mu.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return deck.Image{}, false
		}
		return p.Image(slideID)
	}
	done := make(chan struct{})
	p.inflight[slideID] = done
	p.mu.Unlock()

	return p.generate(ctx, slideID, visualPrompt, done)
}

// generate runs one generation for slideID, whose in-flight marker is done.
func (p *Presentation) generate(ctx context.Context, slideID, visualPrompt string, done chan struct{}) (deck.Image, bool) {
	img, ok := p.gen.Generate(ctx, visualPrompt)

	p.mu.Lock()
	delete(p.inflight, slideID)
	close(done)
	if p.closed {
		p.mu.Unlock()
		p.logger.Debug("Discarding image for closed presentation", "slide", slideID)
		return deck.Image{}, false
	}
	if !ok {
		p.mu.Unlock()
		return deck.Image{}, false
	}
	p.images[slideID] = img
	observer := p.observer
	p.mu.Unlock()

	p.logger.Debug("Image cached", "slide", slideID)
	if observer != nil {
		observer(slideID, img)
	}
	return img, true
}

// Image returns the cached image for slideID.
func (p *Presentation) Image(slideID string) (deck.Image, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return deck.Image{}, false
	}
	img, ok := p.images[slideID]
	return img, ok
}

// Images returns a snapshot of the cache.
func (p *Presentation) Images() map[string]deck.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]deck.Image, len(p.images))
	for id, img := range p.images {
		out[id] = img
	}
	return out
}

// Generating reports whether a generation for slideID is in flight.
func (p *Presentation) Generating(slideID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inflight[slideID]
	return ok
}

// Close disposes the presentation. The cache is emptied, later calls report
// absence and results of generations still in flight are dropped.
func (p *Presentation) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.images = make(map[string]deck.Image)
}

// Closed reports whether Close has been called.
func (p *Presentation) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
