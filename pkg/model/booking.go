package model

import (
	"strings"
	"time"

	"meetingroom/pkg/interval"
)

// DefaultParticipantCount applies when a create request omits participant_count.
const DefaultParticipantCount = 1

type Booking struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomID             string     `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	Title              string     `json:"title" bson:"title" validate:"required,min=1,max=300"`
	OrganizerName      string     `json:"organizer_name" bson:"organizer_name" validate:"required,min=1,max=100"`
	OrganizerEmail     string     `json:"organizer_email" bson:"organizer_email" validate:"required,email,max=100"`
	ParticipantCount   int        `json:"participant_count" bson:"participant_count" validate:"gt=0"`
	StartDatetime      time.Time  `json:"start_datetime" bson:"start_datetime" validate:"required"`
	EndDatetime        time.Time  `json:"end_datetime" bson:"end_datetime" validate:"required"`
	Description        *string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	Notes              *string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	IsCancelled        bool       `json:"is_cancelled" bson:"is_cancelled"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

type BookingUpdate struct {
	RoomID           *string    `json:"room_id,omitempty"`
	Title            *string    `json:"title,omitempty"`
	OrganizerName    *string    `json:"organizer_name,omitempty"`
	OrganizerEmail   *string    `json:"organizer_email,omitempty"`
	ParticipantCount *int       `json:"participant_count,omitempty"`
	StartDatetime    *time.Time `json:"start_datetime,omitempty"`
	EndDatetime      *time.Time `json:"end_datetime,omitempty"`
	Description      *string    `json:"description,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// ChangesSlot reports whether the update moves the booking in time or space.
func (u *BookingUpdate) ChangesSlot() bool {
	return u.RoomID != nil || u.StartDatetime != nil || u.EndDatetime != nil
}

type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (b *Booking) Interval() interval.Interval {
	return interval.New(b.StartDatetime, b.EndDatetime)
}

// BookingFilter narrows read-only booking queries. Zero values mean "any".
type BookingFilter struct {
	RoomID           string
	OrganizerEmail   string
	StartsFrom       *time.Time
	StartsBefore     *time.Time
	Text             string
	IncludeCancelled bool
	Descending       bool
}

// Matches evaluates the filter in memory. Text matches case-insensitively
// against title, organizer name and description.
func (f BookingFilter) Matches(b *Booking) bool {
	if !f.IncludeCancelled && b.IsCancelled {
		return false
	}
	if f.RoomID != "" && b.RoomID != f.RoomID {
		return false
	}
	if f.OrganizerEmail != "" && !strings.EqualFold(b.OrganizerEmail, f.OrganizerEmail) {
		return false
	}
	if f.StartsFrom != nil && b.StartDatetime.Before(*f.StartsFrom) {
		return false
	}
	if f.StartsBefore != nil && !b.StartDatetime.Before(*f.StartsBefore) {
		return false
	}
	if f.Text != "" {
		term := strings.ToLower(f.Text)
		description := ""
		if b.Description != nil {
			description = *b.Description
		}
		if !strings.Contains(strings.ToLower(b.Title), term) &&
			!strings.Contains(strings.ToLower(b.OrganizerName), term) &&
			!strings.Contains(strings.ToLower(description), term) {
			return false
		}
	}
	return true
}
