// Package events publishes evaluation lifecycle events over NATS so the
// surrounding application can react to finished runs without polling. The
// publisher is optional: a nil Publisher drops everything silently.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the outbound event boundary.
type Publisher interface {
	Publish(subject string, data interface{}) error
	Close()
}

// NATSPublisher publishes JSON payloads over a plain NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher connects with retry so a late-starting broker does not
// fail service startup.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, logger: logger}, nil
}

func (p *NATSPublisher) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, payload)
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

// Emit publishes on a possibly-nil publisher, logging failures instead of
// surfacing them: event delivery never blocks or fails an evaluation.
func Emit(pub Publisher, logger *slog.Logger, subject string, data interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(subject, data); err != nil {
		logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}
