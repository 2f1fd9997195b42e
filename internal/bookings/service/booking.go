package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"meetingroom/internal/availability"
	bookingserrors "meetingroom/internal/bookings/errors"
	"meetingroom/internal/bookings/repository"
	"meetingroom/internal/bookings/validator"
	"meetingroom/internal/events"
	roomserrors "meetingroom/internal/rooms/errors"
	roomsrepo "meetingroom/internal/rooms/repository"
	"meetingroom/pkg/config"
	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/interval"
	"meetingroom/pkg/model"
	"meetingroom/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, id string, reason *string) (*model.Booking, error)
	Upcoming(ctx context.Context, days int) ([]*model.Booking, error)
	Today(ctx context.Context) ([]*model.Booking, error)
	ByOrganizer(ctx context.Context, email string) ([]*model.Booking, error)
	Search(ctx context.Context, term string) ([]*model.Booking, error)
}

// RoomFinder is the part of the room store bookings depend on.
type RoomFinder interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
}

// errStaleLockSet means the booking moved to a room outside the held locks
// between the unlocked read and the locked one.
var errStaleLockSet = errors.New("booking room changed while acquiring locks")

const maxLockAttempts = 3

type bookingService struct {
	repo      repository.BookingRepository
	rooms     RoomFinder
	locker    roomsrepo.RoomLocker
	engine    *availability.Engine
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms RoomFinder,
	locker roomsrepo.RoomLocker,
	engine *availability.Engine,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		rooms:     rooms,
		locker:    locker,
		engine:    engine,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	s.sanitize(booking)

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"room_id", booking.RoomID,
			"organizer_email", booking.OrganizerEmail,
			"error", err,
		)
		return err
	}

	err := s.locker.WithRoomLock(ctx, []string{booking.RoomID}, func(ctx context.Context) error {
		// A retried attempt must not reuse the id of an aborted insert.
		booking.ID = ""

		room, err := s.resolveRoom(ctx, booking.RoomID)
		if err != nil {
			return err
		}
		if booking.ParticipantCount > room.Capacity {
			return apperrors.CapacityExceeded(booking.ParticipantCount, room.Capacity)
		}
		if err := s.checkAvailability(ctx, room, booking.Interval(), ""); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, booking); err != nil {
			s.cfg.Log.Error("Failed to create booking",
				"room_id", booking.RoomID,
				"error", err,
			)
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.logRejection("create", booking.RoomID, err)
		return err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"start_datetime", booking.StartDatetime,
		"end_datetime", booking.EndDatetime,
	)
	s.publish(ctx, events.BookingCreated, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	return booking, nil
}

// GetAll lists bookings newest first with the total count of the filter.
func (s *bookingService) GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter.OrganizerEmail = sanitizer.NormalizeEmail(filter.OrganizerEmail)
	filter.Descending = true

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.Find(sharedCtx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

// Update merges updates into an active booking. Availability is re-checked
// only when the room or the interval changes, and capacity only when the
// room or the participant count changes.
func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if updates == nil {
		return nil, apperrors.InvalidInput("Update body cannot be empty")
	}
	s.sanitizeUpdate(updates)

	var merged *model.Booking
	var err error
	for attempt := 1; attempt <= maxLockAttempts; attempt++ {
		merged, err = s.updateOnce(ctx, id, updates)
		if !errors.Is(err, errStaleLockSet) {
			break
		}
		s.cfg.Log.Debug("Booking moved during update, retrying", "id", id, "attempt", attempt)
	}
	if errors.Is(err, errStaleLockSet) {
		return nil, apperrors.Internal("Booking changed concurrently, please retry", err)
	}
	if err != nil {
		s.logRejection("update", id, err)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully",
		"id", id,
		"room_id", merged.RoomID,
		"start_datetime", merged.StartDatetime,
		"end_datetime", merged.EndDatetime,
	)
	s.publish(ctx, events.BookingUpdated, merged)
	return merged, nil
}

func (s *bookingService) updateOnce(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	if existing.IsCancelled {
		return nil, apperrors.BookingCancelled(id)
	}

	lockSet := []string{existing.RoomID}
	if updates.RoomID != nil {
		lockSet = append(lockSet, *updates.RoomID)
	}

	var merged *model.Booking
	err = s.locker.WithRoomLock(ctx, lockSet, func(ctx context.Context) error {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return s.lookupError(id, err)
		}
		if current.IsCancelled {
			return apperrors.BookingCancelled(id)
		}

		merged = mergeBookingUpdates(current, updates)
		if !slices.Contains(lockSet, merged.RoomID) {
			return errStaleLockSet
		}
		if err := s.validator.Validate(merged); err != nil {
			s.cfg.Log.Warn("Booking validation failed", "id", id, "error", err)
			return err
		}

		roomChanged := merged.RoomID != current.RoomID
		slotChanged := updates.ChangesSlot() && (roomChanged ||
			!merged.StartDatetime.Equal(current.StartDatetime) ||
			!merged.EndDatetime.Equal(current.EndDatetime))
		capacityChanged := roomChanged || merged.ParticipantCount != current.ParticipantCount

		if slotChanged || capacityChanged {
			room, err := s.findRoom(ctx, merged.RoomID)
			if err != nil {
				return err
			}
			if capacityChanged && merged.ParticipantCount > room.Capacity {
				return apperrors.CapacityExceeded(merged.ParticipantCount, room.Capacity)
			}
			if slotChanged {
				if err := s.checkAvailability(ctx, room, merged.Interval(), id); err != nil {
					return err
				}
			}
		}

		if err := s.repo.Update(ctx, id, merged); err != nil {
			switch {
			case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
				return apperrors.BookingCancelled(id)
			case errors.Is(err, bookingserrors.ErrNotFound):
				return apperrors.NotFoundWithID("Booking", id)
			}
			s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Cancel is a conditional write, so of two racing cancels exactly one wins
// and the loser sees BookingCancelled with cancelled_at untouched.
func (s *bookingService) Cancel(ctx context.Context, id string, reason *string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.Cancel(ctx, id, s.now().UTC(), sanitizer.NormalizeOptional(reason))
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
			s.cfg.Log.Warn("Booking already cancelled", "id", id)
			return nil, apperrors.BookingCancelled(id)
		case errors.Is(err, bookingserrors.ErrNotFound), errors.Is(err, bookingserrors.ErrInvalidID):
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}

	s.cfg.Log.Info("Booking cancelled successfully",
		"id", id,
		"room_id", booking.RoomID,
	)
	s.publish(ctx, events.BookingCancelled, booking)
	return booking, nil
}

// Upcoming returns active bookings starting in [now, now+days), soonest first.
func (s *bookingService) Upcoming(ctx context.Context, days int) ([]*model.Booking, error) {
	if days <= 0 {
		days = s.cfg.UpcomingDefaultDays
	}
	if days > config.DefaultMaxUpcomingDays {
		return nil, apperrors.InvalidInput("days must not exceed 365")
	}

	now := s.now().UTC()
	until := now.AddDate(0, 0, days)
	return s.query(ctx, "upcoming", model.BookingFilter{StartsFrom: &now, StartsBefore: &until})
}

// Today returns active bookings starting on the current organization date.
func (s *bookingService) Today(ctx context.Context) ([]*model.Booking, error) {
	day := interval.DayBounds(s.now(), s.engine.Location())
	return s.query(ctx, "today", model.BookingFilter{StartsFrom: &day.Start, StartsBefore: &day.End})
}

func (s *bookingService) ByOrganizer(ctx context.Context, email string) ([]*model.Booking, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("email query parameter is required")
	}
	return s.query(ctx, "organizer", model.BookingFilter{OrganizerEmail: email, Descending: true})
}

// Search matches term literally, ignoring case, against title, organizer name
// and description.
func (s *bookingService) Search(ctx context.Context, term string) ([]*model.Booking, error) {
	term = sanitizer.TrimAndNormalize(term)
	if term == "" {
		return nil, apperrors.InvalidInput("q query parameter is required")
	}
	return s.query(ctx, "search", model.BookingFilter{Text: term, Descending: true})
}

func (s *bookingService) query(ctx context.Context, name string, filter model.BookingFilter) ([]*model.Booking, error) {
	bookings, err := s.repo.Find(ctx, filter, config.DefaultPaginationLimit, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to query bookings", "query", name, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

// --- Helpers ---

// resolveRoom loads the target of a new booking, which must exist and be
// active.
func (s *bookingService) resolveRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Active() {
		return nil, apperrors.RoomInactiveOrNotFound(roomID)
	}
	return room, nil
}

func (s *bookingService) findRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.RoomInactiveOrNotFound(roomID)
		}
		s.cfg.Log.Error("Failed to load room", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	return room, nil
}

func (s *bookingService) checkAvailability(ctx context.Context, room *model.Room, iv interval.Interval, excludeID string) error {
	verdict, err := s.engine.Evaluate(ctx, room, iv, excludeID)
	if err != nil {
		return err
	}
	return verdict.Err()
}

func (s *bookingService) lookupError(id string, err error) error {
	if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	s.cfg.Log.Error("Failed to get booking by ID", "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve booking", err)
}

// logRejection logs business rejections at Warn. Infrastructure failures are
// already logged where they happen.
func (s *bookingService) logRejection(op, ref string, err error) {
	if apperrors.HasCode(err, apperrors.CodeInternal) {
		return
	}
	s.cfg.Log.Warn("Booking request rejected",
		"operation", op,
		"ref", ref,
		"code", apperrors.CodeOf(err),
		"error", err,
	)
}

func (s *bookingService) publish(ctx context.Context, t events.Type, booking *model.Booking) {
	if err := s.publisher.Publish(ctx, events.NewBookingEvent(t, booking)); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"id", booking.ID,
			"event", t,
			"error", err,
		)
	}
}

func (s *bookingService) applyDefaults(b *model.Booking) {
	b.IsCancelled = false
	b.CancelledAt = nil
	b.CancellationReason = nil
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.RoomID = strings.TrimSpace(b.RoomID)
	b.Title = sanitizer.TrimAndNormalize(b.Title)
	b.OrganizerName = sanitizer.NormalizeName(b.OrganizerName)
	b.OrganizerEmail = sanitizer.NormalizeEmail(b.OrganizerEmail)
	b.Description = sanitizer.NormalizeOptional(b.Description)
	b.Notes = sanitizer.NormalizeOptional(b.Notes)
	b.StartDatetime = b.StartDatetime.UTC()
	b.EndDatetime = b.EndDatetime.UTC()
}

func (s *bookingService) sanitizeUpdate(u *model.BookingUpdate) {
	if u.RoomID != nil {
		roomID := strings.TrimSpace(*u.RoomID)
		u.RoomID = &roomID
	}
	if u.Title != nil {
		title := sanitizer.TrimAndNormalize(*u.Title)
		u.Title = &title
	}
	if u.OrganizerName != nil {
		name := sanitizer.NormalizeName(*u.OrganizerName)
		u.OrganizerName = &name
	}
	if u.OrganizerEmail != nil {
		email := sanitizer.NormalizeEmail(*u.OrganizerEmail)
		u.OrganizerEmail = &email
	}
	if u.StartDatetime != nil {
		start := u.StartDatetime.UTC()
		u.StartDatetime = &start
	}
	if u.EndDatetime != nil {
		end := u.EndDatetime.UTC()
		u.EndDatetime = &end
	}
}

func mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.RoomID != nil {
		merged.RoomID = *updates.RoomID
	}
	if updates.Title != nil {
		merged.Title = *updates.Title
	}
	if updates.OrganizerName != nil {
		merged.OrganizerName = *updates.OrganizerName
	}
	if updates.OrganizerEmail != nil {
		merged.OrganizerEmail = *updates.OrganizerEmail
	}
	if updates.ParticipantCount != nil {
		merged.ParticipantCount = *updates.ParticipantCount
	}
	if updates.StartDatetime != nil {
		merged.StartDatetime = *updates.StartDatetime
	}
	if updates.EndDatetime != nil {
		merged.EndDatetime = *updates.EndDatetime
	}
	if updates.Description != nil {
		merged.Description = sanitizer.NormalizeOptional(updates.Description)
	}
	if updates.Notes != nil {
		merged.Notes = sanitizer.NormalizeOptional(updates.Notes)
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
