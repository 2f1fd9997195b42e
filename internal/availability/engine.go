// Package availability decides whether rooms are free for an interval.
package availability

import (
	"context"
	"errors"
	"time"

	roomserrors "meetingroom/internal/rooms/errors"
	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/interval"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/model"
)

type RoomReader interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	// FindActive returns active rooms with capacity >= minCapacity ordered by id.
	FindActive(ctx context.Context, minCapacity int) ([]*model.Room, error)
}

type Engine struct {
	rooms    RoomReader
	detector *ConflictDetector
	loc      *time.Location
	log      *logger.Logger
}

// NewEngine evaluates operating hours and calendar dates in loc.
func NewEngine(rooms RoomReader, detector *ConflictDetector, loc *time.Location, log *logger.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		rooms:    rooms,
		detector: detector,
		loc:      loc,
		log:      log,
	}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// CheckAvailability short-circuits in order: room exists and is active,
// interval is ordered, interval fits the room's hours on a single date, no
// conflicting bookings. The returned error is reserved for store failures.
func (e *Engine) CheckAvailability(ctx context.Context, roomID string, iv interval.Interval) (Verdict, error) {
	room, err := e.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return rejected(ReasonRoomInactiveOrNotFound, roomID, nil, iv), nil
		}
		e.log.Error("Failed to load room for availability check", "room_id", roomID, "error", err)
		return Verdict{}, apperrors.Internal("Failed to retrieve room", err)
	}
	return e.Evaluate(ctx, room, iv, "")
}

// Evaluate runs the same checks against an already loaded room.
func (e *Engine) Evaluate(ctx context.Context, room *model.Room, iv interval.Interval, excludeID string) (Verdict, error) {
	if !room.Active() {
		return rejected(ReasonRoomInactiveOrNotFound, room.ID, room, iv), nil
	}
	if !iv.Valid() {
		return rejected(ReasonInvalidInterval, room.ID, room, iv), nil
	}

	open, closing, err := room.OperatingHours()
	if err != nil {
		e.log.Error("Room has malformed operating hours", "room_id", room.ID, "error", err)
		return Verdict{}, apperrors.Internal("Room has malformed operating hours", err)
	}
	if !interval.WithinWindow(iv, open, closing, iv.Start, e.loc) {
		return rejected(ReasonOutsideOperatingHours, room.ID, room, iv), nil
	}

	conflicts, err := e.detector.FindConflicts(ctx, room.ID, iv, excludeID)
	if err != nil {
		e.log.Error("Failed to look up conflicting bookings", "room_id", room.ID, "error", err)
		return Verdict{}, apperrors.Internal("Failed to check booking conflicts", err)
	}
	if len(conflicts) > 0 {
		v := rejected(ReasonTimeConflict, room.ID, room, iv)
		v.Conflicts = conflicts
		return v, nil
	}

	return available(room, iv), nil
}

// FindAvailableRooms returns, ordered by id, every active room with at least
// minCapacity seats for which CheckAvailability would succeed.
func (e *Engine) FindAvailableRooms(ctx context.Context, iv interval.Interval, minCapacity int) ([]*model.Room, error) {
	if !iv.Valid() {
		return nil, apperrors.InvalidInterval(iv.Start, iv.End)
	}
	if minCapacity < 0 {
		minCapacity = 0
	}

	candidates, err := e.rooms.FindActive(ctx, minCapacity)
	if err != nil {
		e.log.Error("Failed to list active rooms", "error", err)
		return nil, apperrors.Internal("Failed to retrieve rooms", err)
	}

	free := make([]*model.Room, 0, len(candidates))
	for _, room := range candidates {
		if room.Capacity < minCapacity {
			continue
		}
		verdict, err := e.Evaluate(ctx, room, iv, "")
		if err != nil {
			return nil, err
		}
		if verdict.Available {
			free = append(free, room)
		}
	}

	e.log.Debug("Available rooms search completed",
		"start", iv.Start,
		"end", iv.End,
		"min_capacity", minCapacity,
		"candidates", len(candidates),
		"available", len(free),
	)
	return free, nil
}

// GetSchedule lists the room's non-cancelled bookings that start on date's
// calendar day, ordered by start.
func (e *Engine) GetSchedule(ctx context.Context, roomID string, date time.Time) ([]*model.Booking, error) {
	if _, err := e.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Room", roomID)
		}
		e.log.Error("Failed to load room for schedule", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}

	day := interval.DayBounds(date, e.loc)
	bookings, err := e.detector.FindConflicts(ctx, roomID, day, "")
	if err != nil {
		e.log.Error("Failed to load room schedule", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve schedule", err)
	}

	schedule := bookings[:0]
	for _, b := range bookings {
		if !b.StartDatetime.Before(day.Start) && b.StartDatetime.Before(day.End) {
			schedule = append(schedule, b)
		}
	}
	return schedule, nil
}
