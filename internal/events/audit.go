package events

import (
	"context"

	"meetingroom/pkg/kafka"
	"meetingroom/pkg/logger"
)

// AuditRecorder persists or forwards a decoded event.
type AuditRecorder interface {
	Record(ctx context.Context, event Event) error
}

// LogRecorder writes each event as a structured log line.
type LogRecorder struct {
	log *logger.Logger
}

func NewLogRecorder(log *logger.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(_ context.Context, event Event) error {
	attrs := []any{
		"event_id", event.ID,
		"event_type", event.Type,
		"room_id", event.RoomID,
		"occurred_at", event.OccurredAt,
	}
	if event.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", event.CorrelationID)
	}
	if b := event.Booking; b != nil {
		attrs = append(attrs,
			"booking_id", b.ID,
			"organizer_email", b.OrganizerEmail,
			"start_datetime", b.StartDatetime,
			"end_datetime", b.EndDatetime,
			"is_cancelled", b.IsCancelled,
		)
	}
	r.log.Info("Audit event", attrs...)
	return nil
}

// NewAuditHandler decodes lifecycle events off the bus. Undecodable payloads
// are permanent failures so the consumer sends them to the DLQ.
func NewAuditHandler(recorder AuditRecorder) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("deserialization failed", err).
				WithDetail("event_id", msg.GetEventID())
		}
		if event.Type == "" {
			event.Type = Type(msg.GetEventType())
		}
		if event.CorrelationID == "" {
			event.CorrelationID = msg.GetCorrelationID()
		}
		return recorder.Record(ctx, event)
	}
}
