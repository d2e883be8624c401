package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/metrics"
	"github.com/c360studio/repodeck/presentation"
	"github.com/c360studio/repodeck/source"
)

// DefaultAnalyzeDelay is the pause between finding documentation and
// starting synthesis.
const DefaultAnalyzeDelay = 800 * time.Millisecond

// DeckSynthesizer turns documentation into a deck. synth.Synthesizer
// satisfies it.
type DeckSynthesizer interface {
	Generate(ctx context.Context, repoName, docs string) (*deck.Deck, error)
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	Status  Status     `json:"status"`
	Message string     `json:"message,omitempty"`
	Ref     string     `json:"ref,omitempty"`
	Deck    *deck.Deck `json:"deck,omitempty"`
	// Images lists the slide ids with a cached image.
	Images []string `json:"images,omitempty"`
}

// Analyzer runs analyses for one session: at most one at a time, with the
// resulting deck held in a presentation until closed or replaced.
type Analyzer struct {
	machine *Machine
	fetcher source.Fetcher
	synth   DeckSynthesizer
	visual  presentation.Generator

	delay    time.Duration
	presOpts []presentation.Option
	metrics  *metrics.Provider
	logger   *slog.Logger

	mu   sync.Mutex
	ref  string
	pres *presentation.Presentation
	wg   sync.WaitGroup
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzeDelay sets the pause between fetching and synthesis.
func WithAnalyzeDelay(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.delay = d
	}
}

// WithPresentationOptions sets options applied to every presentation the
// analyzer creates.
func WithPresentationOptions(opts ...presentation.Option) AnalyzerOption {
	return func(a *Analyzer) {
		a.presOpts = append(a.presOpts, opts...)
	}
}

// WithMachine uses m instead of a fresh state machine.
func WithMachine(m *Machine) AnalyzerOption {
	return func(a *Analyzer) {
		a.machine = m
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m *metrics.Provider) AnalyzerOption {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer creates an analyzer in StatusIdle.
func NewAnalyzer(fetcher source.Fetcher, synth DeckSynthesizer, visual presentation.Generator, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		fetcher: fetcher,
		synth:   synth,
		visual:  visual,
		delay:   DefaultAnalyzeDelay,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.machine == nil {
		a.machine = NewMachine()
	}
	a.machine.OnTransition(func(t Transition) {
		a.metrics.StatusTransition(t.To.String())
		a.logger.Debug("Status transition", "from", t.From, "to", t.To)
	})
	return a
}

// Machine returns the analyzer's state machine.
func (a *Analyzer) Machine() *Machine {
	return a.machine
}

// Status returns the current status.
func (a *Analyzer) Status() Status {
	return a.machine.Status()
}

// Analyze runs a full analysis of ref and blocks until it completes or
// fails. A previous deck is closed first. The returned error is the cause;
// the machine carries the user-facing message.
func (a *Analyzer) Analyze(ctx context.Context, ref string) (*presentation.Presentation, error) {
	if err := a.begin(ref); err != nil {
		return nil, err
	}
	return a.run(ctx, ref)
}

// Start begins an analysis of ref in the background. ErrBusy is returned
// synchronously if one is already running.
func (a *Analyzer) Start(ctx context.Context, ref string) error {
	if err := a.begin(ref); err != nil {
		return err
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_, _ = a.run(ctx, ref)
	}()
	return nil
}

// Wait blocks until background analyses issued by Start have finished.
func (a *Analyzer) Wait() {
	a.wg.Wait()
}

func (a *Analyzer) begin(ref string) error {
	if err := a.machine.Begin(); err != nil {
		return err
	}
	a.mu.Lock()
	prev := a.pres
	a.pres = nil
	a.ref = ref
	a.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return nil
}

func (a *Analyzer) run(ctx context.Context, ref string) (*presentation.Presentation, error) {
	started := time.Now()
	a.logger.Info("Analysis started", "ref", ref)

	doc, err := a.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, a.fail(ref, fmt.Errorf("fetch %s: %w", ref, err))
	}
	if err := a.machine.Transition(StatusAnalyzing, ""); err != nil {
		return nil, err
	}

	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, a.fail(ref, ctx.Err())
		}
	}
	if err := a.machine.Transition(StatusGeneratingDeck, ""); err != nil {
		return nil, err
	}

	d, err := a.synth.Generate(ctx, doc.Name, doc.Content)
	if err != nil {
		return nil, a.fail(ref, err)
	}

	pres := presentation.New(d, a.visual, a.presentationOptions()...)
	a.mu.Lock()
	a.pres = pres
	a.mu.Unlock()

	if err := a.machine.Transition(StatusCompleted, ""); err != nil {
		pres.Close()
		return nil, err
	}
	pres.Start()

	a.logger.Info("Analysis completed",
		"ref", ref,
		"project", d.ProjectName,
		"slides", len(d.Slides),
		"duration", time.Since(started))
	return pres, nil
}

func (a *Analyzer) presentationOptions() []presentation.Option {
	opts := []presentation.Option{
		presentation.WithMetrics(a.metrics),
		presentation.WithLogger(a.logger),
	}
	return append(opts, a.presOpts...)
}

func (a *Analyzer) fail(ref string, err error) error {
	a.machine.Fail(err)
	a.logger.Warn("Analysis failed", "ref", ref, "error", err)
	return err
}

// Close returns a completed or failed session to StatusIdle and disposes
// of its deck.
func (a *Analyzer) Close() error {
	if err := a.machine.Transition(StatusIdle, ""); err != nil {
		return err
	}
	a.mu.Lock()
	pres := a.pres
	a.pres = nil
	a.ref = ""
	a.mu.Unlock()
	if pres != nil {
		pres.Close()
	}
	return nil
}

// Presentation returns the current presentation, or nil when no deck is
// available.
func (a *Analyzer) Presentation() *presentation.Presentation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pres
}

// Deck returns the current deck, or nil.
func (a *Analyzer) Deck() *deck.Deck {
	if p := a.Presentation(); p != nil {
		return p.Deck()
	}
	return nil
}

// Snapshot returns the session's visible state.
func (a *Analyzer) Snapshot() Snapshot {
	a.mu.Lock()
	ref, pres := a.ref, a.pres
	a.mu.Unlock()

	s := Snapshot{
		Status:  a.machine.Status(),
		Message: a.machine.Message(),
		Ref:     ref,
	}
	if pres != nil {
		s.Deck = pres.Deck()
		for _, slide := range s.Deck.Slides {
			if _, ok := pres.Image(slide.ID); ok {
				s.Images = append(s.Images, slide.ID)
			}
		}
	}
	return s
}
