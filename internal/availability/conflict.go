package availability

import (
	"context"
	"slices"

	"meetingroom/pkg/interval"
	"meetingroom/pkg/model"
)

// BookingReader is the query the detector needs from the booking store. It
// returns non-cancelled bookings of the room whose range intersects iv.
type BookingReader interface {
	FindActiveOverlapping(ctx context.Context, roomID string, iv interval.Interval) ([]*model.Booking, error)
}

type ConflictDetector struct {
	bookings BookingReader
}

func NewConflictDetector(bookings BookingReader) *ConflictDetector {
	return &ConflictDetector{bookings: bookings}
}

// FindConflicts lists every non-cancelled booking of roomID overlapping iv,
// ordered by start. excludeID, when set, is skipped so a booking never
// conflicts with itself during an update. For mutations it must be called
// inside the room lock.
func (d *ConflictDetector) FindConflicts(ctx context.Context, roomID string, iv interval.Interval, excludeID string) ([]*model.Booking, error) {
	candidates, err := d.bookings.FindActiveOverlapping(ctx, roomID, iv)
	if err != nil {
		return nil, err
	}

	conflicts := make([]*model.Booking, 0, len(candidates))
	for _, b := range candidates {
		if b.IsCancelled || b.RoomID != roomID {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if interval.Overlaps(b.Interval(), iv) {
			conflicts = append(conflicts, b)
		}
	}

	slices.SortStableFunc(conflicts, func(a, b *model.Booking) int {
		return a.StartDatetime.Compare(b.StartDatetime)
	})
	return conflicts, nil
}
