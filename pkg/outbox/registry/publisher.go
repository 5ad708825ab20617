package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/pkg/config"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox/payloads"
)

// MaxEnvelopeVersion is the newest envelope layout this publisher understands.
const MaxEnvelopeVersion = 1

// EventDescriptor routes one event type to a topic and payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is a decoded, validated outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that will fail the same way on every attempt.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry routes every order event to the orders topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, errors.New("orders topic is required")
	}
	reg := &EventRegistry{entries: map[enums.OutboxEventType]EventDescriptor{}}
	factories := map[enums.OutboxEventType]func() any{
		enums.EventOrderCreated:       func() any { return &payloads.OrderCreatedEvent{} },
		enums.EventOrderPaid:          func() any { return &payloads.OrderPaidEvent{} },
		enums.EventOrderStatusChanged: func() any { return &payloads.OrderStatusChangedEvent{} },
	}
	for eventType, factory := range factories {
		reg.entries[eventType] = EventDescriptor{
			EventType:      eventType,
			Topic:          cfg.OrdersTopic,
			PayloadFactory: factory,
		}
	}
	return reg, nil
}

// Resolve decodes the row's envelope and typed payload. Every failure here is
// non-retryable: the row bytes will not change between attempts.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if want := event.EventType.Aggregate(); want != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", want, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(errors.New("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	if envelope.Version < 1 || envelope.Version > MaxEnvelopeVersion {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported envelope version %d", envelope.Version))
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	if err := checkOrderID(data, event.AggregateID); err != nil {
		return nil, NewNonRetryableError(err)
	}

	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

// checkOrderID rejects payloads that describe a different order than the row.
func checkOrderID(data []byte, aggregateID uuid.UUID) error {
	var ref struct {
		OrderID uuid.UUID `json:"order_id"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("decode order reference: %w", err)
	}
	if ref.OrderID != aggregateID {
		return fmt.Errorf("payload order %s does not match aggregate %s", ref.OrderID, aggregateID)
	}
	return nil
}
