// Package deck defines the slide deck model shared by synthesis, the image
// cache and every exporter.
package deck

import (
	"errors"
	"fmt"
)

// Slide is one page of a deck.
type Slide struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"kind"`
	Title        string   `json:"title"`
	Bullets      []string `json:"bullets"`
	SpeakerNotes string   `json:"speakerNotes"`
	// VisualPrompt describes the image to generate for this slide.
	VisualPrompt string `json:"visualPrompt"`
	// Highlight is an optional emphasized statistic or phrase.
	Highlight string `json:"highlight,omitempty"`
}

// Layout returns the layout this slide renders with.
func (s Slide) Layout() Layout {
	return LayoutFor(s.Kind)
}

// Deck is a complete presentation. Slide order is presentation order.
type Deck struct {
	ProjectName string  `json:"projectName"`
	Tagline     string  `json:"tagline"`
	Slides      []Slide `json:"slides"`
}

// ErrEmptyDeck is returned by Validate for a deck without slides.
var ErrEmptyDeck = errors.New("deck has no slides")

// Validate checks the structural invariants of a deck.
func (d *Deck) Validate() error {
	if len(d.Slides) == 0 {
		return ErrEmptyDeck
	}
	seen := make(map[string]bool, len(d.Slides))
	for i, s := range d.Slides {
		if s.ID == "" {
			return fmt.Errorf("slide %d has no id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate slide id %q", s.ID)
		}
		seen[s.ID] = true
		if !s.Kind.Valid() {
			return fmt.Errorf("slide %d: unknown kind %q", i, s.Kind)
		}
	}
	return nil
}

// AssignIDs overwrites every slide id with its position ("slide-0", ...).
func (d *Deck) AssignIDs() {
	for i := range d.Slides {
		d.Slides[i].ID = SlideID(i)
	}
}

// SlideID is the positional id for the slide at index i.
func SlideID(i int) string {
	return fmt.Sprintf("slide-%d", i)
}

// Slide looks up a slide by id.
func (d *Deck) Slide(id string) (Slide, bool) {
	for _, s := range d.Slides {
		if s.ID == id {
			return s, true
		}
	}
	return Slide{}, false
}

// Subtitle is the line shown under the title slide heading: the tagline,
// or the slide's first bullet when the deck has none.
func (d *Deck) Subtitle(s Slide) string {
	if d.Tagline != "" {
		return d.Tagline
	}
	if len(s.Bullets) > 0 {
		return s.Bullets[0]
	}
	return ""
}
