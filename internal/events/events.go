// Package events publishes booking and room lifecycle changes for audit
// consumers.
package events

import (
	"context"
	"time"

	"meetingroom/pkg/model"

	"github.com/google/uuid"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingUpdated   Type = "booking.updated"
	BookingCancelled Type = "booking.cancelled"
	RoomDeactivated  Type = "room.deactivated"
)

const SchemaVersion = "1"

type Event struct {
	ID            string         `json:"id"`
	Type          Type           `json:"type"`
	OccurredAt    time.Time      `json:"occurred_at"`
	RoomID        string         `json:"room_id"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Booking       *model.Booking `json:"booking,omitempty"`
	Room          *model.Room    `json:"room,omitempty"`
}

func NewBookingEvent(t Type, booking *model.Booking) Event {
	snapshot := *booking
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		RoomID:     booking.RoomID,
		Booking:    &snapshot,
	}
}

func NewRoomEvent(t Type, room *model.Room) Event {
	snapshot := *room
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		RoomID:     room.ID,
		Room:       &snapshot,
	}
}

// IsBooking reports whether the event belongs on the booking stream.
func (e Event) IsBooking() bool {
	return e.Booking != nil
}

// Publisher is called after a mutation commits. Failures never roll the
// mutation back.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
