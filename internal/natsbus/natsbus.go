// Package natsbus publishes game events to NATS subjects table.{id}.events.
// Delivery is best-effort: the engine treats publish failures as non-fatal
// and the core does not require acknowledgement or replay.
package natsbus

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Bus implements engine.Bus over a NATS connection.
type Bus struct {
	nc *nats.Conn
}

// Connect dials the NATS server.
func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name("dealerd"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Bus{nc: nc}, nil
}

// Publish sends one event payload to a subject.
func (b *Bus) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

// Close drains and closes the connection.
func (b *Bus) Close() {
	_ = b.nc.Drain()
}

// Noop is a Bus that discards everything, used when NATS is disabled.
type Noop struct{}

// Publish discards the message.
func (Noop) Publish(string, []byte) error { return nil }
