package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NatsPublisher publishes events to a NATS server as JSON messages.
type NatsPublisher struct {
	conn *nats.Conn
}

// NewNatsPublisher connects to the NATS server at url.
func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("farmacia-marquez-backend"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NatsPublisher{conn: conn}, nil
}

// Publish marshals event to JSON and publishes it on subject.
func (p *NatsPublisher) Publish(ctx context.Context, subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and drops the connection.
func (p *NatsPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Flush()
		p.conn.Close()
	}
}
