package telemetry

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS-backed sink, matching the fields of
// messagebus.NATSConfig this implementation actually exercises.
type NATSConfig struct {
	URL     string
	Subject string
}

// DefaultNATSConfig mirrors messagebus.DefaultNATSConfig's URL default.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{URL: "nats://localhost:4222", Subject: "dx.kernel.events"}
}

// NATSSink publishes events to a NATS subject. Publish makes a single
// attempt with no retry and returns the client's error.
type NATSSink struct {
	cfg  NATSConfig
	conn *nats.Conn
}

// NewNATSSink dials url and returns a ready sink.
func NewNATSSink(cfg NATSConfig) (*NATSSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("telemetry: NATS URL is required")
	}
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("telemetry: connecting to NATS: %w", err)
	}
	return &NATSSink{cfg: cfg, conn: conn}, nil
}

// Publish encodes ev and fires it at the configured subject.
func (s *NATSSink) Publish(ctx context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	return s.conn.Publish(s.cfg.Subject, payload)
}

// Close drains and closes the underlying connection.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
