package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lotto/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher sends raw bytes on a subject
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// EventEnvelope wraps every forwarded event
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventForwarder relays committed bus events to NATS
type NATSEventForwarder struct {
	publisher MessagePublisher
	now       func() time.Time
}

// NewNATSEventForwarder creates a forwarder over publisher
func NewNATSEventForwarder(publisher MessagePublisher) *NATSEventForwarder {
	return &NATSEventForwarder{publisher: publisher, now: time.Now}
}

// Attach subscribes the forwarder to every lottery event on bus
func (f *NATSEventForwarder) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypePlayCompleted, f.Handle)
	bus.Subscribe(events.EventTypeBalanceChange, f.Handle)
}

// Handle forwards one event; failures are logged since the ledger already committed
func (f *NATSEventForwarder) Handle(ctx context.Context, event events.Event) {
	subject := MapEventToSubject(event)
	if err := f.forward(subject, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"subject":   subject,
			"error":     err,
		}).Error("Failed to forward event to NATS")
		return
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"subject":   subject,
	}).Debug("Forwarded event to NATS")
}

func (f *NATSEventForwarder) forward(subject string, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now().UTC(),
		SourceService: "lotto",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	return f.publisher.Publish(subject, data)
}
