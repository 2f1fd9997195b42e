package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	bookingserrors "meetingroom/internal/bookings/errors"
	"meetingroom/pkg/interval"
	"meetingroom/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingRepository struct {
	store *Store
}

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	booking.ID = newID()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, bookingserrors.ErrInvalidID
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return cloneBooking(booking), nil
}

func (r *BookingRepository) Update(ctx context.Context, id string, booking *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !primitive.IsValidObjectID(id) {
		return bookingserrors.ErrInvalidID
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if existing.IsCancelled {
		return bookingserrors.ErrAlreadyCancelled
	}

	updated := cloneBooking(booking)
	updated.ID = id
	updated.IsCancelled = false
	updated.CancelledAt = nil
	updated.CancellationReason = nil
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	booking.UpdatedAt = updated.UpdatedAt
	s.bookings[id] = updated
	return nil
}

func (r *BookingRepository) Cancel(ctx context.Context, id string, at time.Time, reason *string) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, bookingserrors.ErrInvalidID
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if existing.IsCancelled {
		return nil, bookingserrors.ErrAlreadyCancelled
	}

	at = at.UTC()
	existing.IsCancelled = true
	existing.CancelledAt = &at
	existing.UpdatedAt = at
	if reason != nil {
		existing.CancellationReason = cloneString(reason)
	}
	return cloneBooking(existing), nil
}

func (r *BookingRepository) FindActiveOverlapping(ctx context.Context, roomID string, iv interval.Interval) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.collect(func(b *model.Booking) bool {
		return !b.IsCancelled && b.RoomID == roomID && interval.Overlaps(b.Interval(), iv)
	}, false), nil
}

func (r *BookingRepository) CountActiveStartingAfter(ctx context.Context, roomID string, after time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	matches := r.collect(func(b *model.Booking) bool {
		return !b.IsCancelled && b.RoomID == roomID && b.StartDatetime.After(after)
	}, false)
	return int64(len(matches)), nil
}

func (r *BookingRepository) Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return page(r.collect(filter.Matches, filter.Descending), limit, offset), nil
}

func (r *BookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(r.collect(filter.Matches, false))), nil
}

// collect returns clones of the matching bookings ordered by start, then id.
func (r *BookingRepository) collect(match func(*model.Booking) bool, descending bool) []*model.Booking {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Booking, 0)
	for _, b := range s.bookings {
		if match(b) {
			out = append(out, cloneBooking(b))
		}
	}

	slices.SortFunc(out, func(a, b *model.Booking) int {
		c := a.StartDatetime.Compare(b.StartDatetime)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if descending {
			return -c
		}
		return c
	})
	return out
}
