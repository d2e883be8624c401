// Package events publishes generation status transitions, to in-process
// subscribers and optionally to NATS.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/c360studio/repodeck/workflow"
)

// StatusEvent is one status transition of a session.
type StatusEvent struct {
	Session string          `json:"session"`
	From    workflow.Status `json:"from"`
	To      workflow.Status `json:"to"`
	Message string          `json:"message,omitempty"`
	At      time.Time       `json:"at"`
}

// NewStatusEvent builds the event for a transition of session.
func NewStatusEvent(session string, t workflow.Transition) StatusEvent {
	return StatusEvent{
		Session: session,
		From:    t.From,
		To:      t.To,
		Message: t.Message,
		At:      t.At,
	}
}

// Publisher delivers status events.
type Publisher interface {
	Publish(ctx context.Context, ev StatusEvent) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, ev StatusEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Observe publishes every transition of m as an event for session.
// Delivery failures are logged and otherwise ignored.
func Observe(m *workflow.Machine, session string, p Publisher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	m.OnTransition(func(t workflow.Transition) {
		if err := p.Publish(context.Background(), NewStatusEvent(session, t)); err != nil {
			logger.Warn("Failed to publish status event", "session", session, "status", t.To, "error", err)
		}
	})
}
