// Package metrics exposes prometheus counters for deck generation, image
// generation, exports and status transitions.
//
// A nil *Provider is valid and records nothing, so components take one
// unconditionally and callers that do not serve /metrics pass nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultEmpty   = "empty"
)

// AI call label values.
const (
	CallDeck  = "deck"
	CallImage = "image"
)

// Provider records repodeck metrics.
type Provider struct {
	decks        *prometheus.CounterVec
	images       *prometheus.CounterVec
	cacheHits    prometheus.Counter
	exports      *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// New registers the repodeck collectors on registry. A nil registry yields
// a nil provider.
func New(registry *prometheus.Registry) *Provider {
	if registry == nil {
		return nil
	}

	p := &Provider{
		decks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repodeck_decks_generated_total",
				Help: "Deck synthesis attempts by result",
			},
			[]string{"result"},
		),
		images: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repodeck_image_generations_total",
				Help: "Image generation attempts by result",
			},
			[]string{"result"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "repodeck_image_cache_hits_total",
				Help: "Image requests served from the session cache",
			},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repodeck_exports_total",
				Help: "Deck exports by format and result",
			},
			[]string{"format", "result"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repodeck_status_transitions_total",
				Help: "Generation status transitions by target status",
			},
			[]string{"status"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "repodeck_ai_call_duration_seconds",
				Help:    "Latency of generative model calls",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"call"},
		),
	}

	registry.MustRegister(p.decks, p.images, p.cacheHits, p.exports, p.transitions, p.callDuration)
	return p
}

// DeckGenerated counts a synthesis attempt.
func (p *Provider) DeckGenerated(result string) {
	if p != nil {
		p.decks.WithLabelValues(result).Inc()
	}
}

// ImageGenerated counts an image generation attempt.
func (p *Provider) ImageGenerated(result string) {
	if p != nil {
		p.images.WithLabelValues(result).Inc()
	}
}

// ImageCacheHit counts a cache hit.
func (p *Provider) ImageCacheHit() {
	if p != nil {
		p.cacheHits.Inc()
	}
}

// Exported counts an export.
func (p *Provider) Exported(format, result string) {
	if p != nil {
		p.exports.WithLabelValues(format, result).Inc()
	}
}

// StatusTransition counts entry into status.
func (p *Provider) StatusTransition(status string) {
	if p != nil {
		p.transitions.WithLabelValues(status).Inc()
	}
}

// ObserveAICall records how long a model call took.
func (p *Provider) ObserveAICall(call string, d time.Duration) {
	if p != nil {
		p.callDuration.WithLabelValues(call).Observe(d.Seconds())
	}
}
