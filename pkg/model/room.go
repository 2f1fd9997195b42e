package model

import (
	"fmt"
	"time"

	"meetingroom/pkg/interval"
	"meetingroom/pkg/sanitizer"
)

type Room struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	NameKey     string    `json:"-" bson:"name_key"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"gt=0,max=10000"`
	Location    string    `json:"location" bson:"location" validate:"max=200"`
	Description *string   `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	StartTime   string    `json:"start_time" bson:"start_time" validate:"required,time_of_day"`
	EndTime     string    `json:"end_time" bson:"end_time" validate:"required,time_of_day"`
	IsActive    *bool     `json:"is_active,omitempty" bson:"is_active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

type RoomUpdate struct {
	Name        *string `json:"name,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Active treats a missing flag as active, matching the column default.
func (r *Room) Active() bool {
	return r.IsActive == nil || *r.IsActive
}

func (r *Room) SetActive(active bool) {
	r.IsActive = &active
}

// OperatingHours parses the room's HH:MM window.
func (r *Room) OperatingHours() (open, closing interval.TimeOfDay, err error) {
	open, err = interval.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("room %s start_time: %w", r.ID, err)
	}
	closing, err = interval.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("room %s end_time: %w", r.ID, err)
	}
	return open, closing, nil
}

// RoomNameKey is the case-insensitive identity used for name uniqueness.
func RoomNameKey(name string) string {
	return sanitizer.NormalizeNameForComparison(name)
}
