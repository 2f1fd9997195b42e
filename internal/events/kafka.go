package events

import (
	"context"
	"encoding/json"
	"fmt"

	"meetingroom/pkg/kafka"
	"meetingroom/pkg/middleware"
)

// MessageWriter is the part of kafka.Producer the publisher needs.
type MessageWriter interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher routes booking events and room events to separate topics,
// keyed by room id so one room's events stay ordered. The HTTP request id
// travels as the correlation id.
type KafkaPublisher struct {
	bookings MessageWriter
	rooms    MessageWriter
	source   string
}

func NewKafkaPublisher(bookings, rooms MessageWriter, source string) *KafkaPublisher {
	return &KafkaPublisher{
		bookings: bookings,
		rooms:    rooms,
		source:   source,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.CorrelationID == "" {
		event.CorrelationID = middleware.RequestID(ctx)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	msg := kafka.NewMessage().
		WithKey(event.RoomID).
		WithRawValue(payload).
		WithEventID(event.ID).
		WithEventType(string(event.Type)).
		WithCorrelationID(event.CorrelationID).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		Build()

	writer := p.rooms
	if event.IsBooking() {
		writer = p.bookings
	}
	if err := writer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}
