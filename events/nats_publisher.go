package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// NATSPublisher forwards bus events to NATS as JSON so downstream consumers
// (notification jobs, analytics) can react without coupling to this process.
// Subjects follow the pattern bookie.events.{event_type}.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at the given URL
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("bookie"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// AttachTo subscribes the publisher to every outward-facing event type
func (p *NATSPublisher) AttachTo(bus *Bus) {
	for _, eventType := range []EventType{
		EventTypeUserRegistered,
		EventTypeWagerPlaced,
		EventTypeWagerSettled,
		EventTypeWagerCancelled,
		EventTypeEventSettled,
	} {
		bus.Subscribe(eventType, p.handle)
	}
}

func (p *NATSPublisher) handle(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal event for NATS")
		return
	}

	subject := fmt.Sprintf("bookie.events.%s", event.Type())
	if err := p.conn.Publish(subject, data); err != nil {
		// Non-fatal: the event log of record is the database
		log.WithError(err).WithField("subject", subject).Warn("Failed to publish event to NATS")
	}
}

// Close drains and closes the NATS connection
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain NATS connection")
	}
}
