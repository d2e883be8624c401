package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is prepended to the session id.
const DefaultSubjectPrefix = "repodeck.status"

// Conn is the publishing surface of *nats.Conn.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes status events as JSON to <prefix>.<session>.
type NATSPublisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
}

// NATSOption configures a NATSPublisher.
type NATSOption func(*NATSPublisher)

// WithSubjectPrefix sets the subject prefix.
func WithSubjectPrefix(prefix string) NATSOption {
	return func(p *NATSPublisher) {
		p.prefix = strings.TrimSuffix(prefix, ".")
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) NATSOption {
	return func(p *NATSPublisher) {
		p.logger = logger
	}
}

// NewNATSPublisher creates a publisher over conn.
func NewNATSPublisher(conn Conn, opts ...NATSOption) *NATSPublisher {
	p := &NATSPublisher{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials a NATS server for event publishing. The caller closes the
// returned connection.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("repodeck"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return conn, nil
}

// Subject returns the subject events of session are published on.
func (p *NATSPublisher) Subject(session string) string {
	return p.prefix + "." + session
}

// Publish implements Publisher. NATS publish does not take a context, so
// ctx is only checked before sending.
func (p *NATSPublisher) Publish(ctx context.Context, ev StatusEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	subject := p.Subject(ev.Session)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("Published status event", "subject", subject, "status", ev.To)
	return nil
}
