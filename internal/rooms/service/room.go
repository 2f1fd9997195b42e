package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"meetingroom/internal/events"
	roomserrors "meetingroom/internal/rooms/errors"
	"meetingroom/internal/rooms/repository"
	"meetingroom/internal/rooms/validator"
	"meetingroom/pkg/config"
	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/model"
	"meetingroom/pkg/sanitizer"
)

type RoomService interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Room, int64, error)
	Update(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error)
	Deactivate(ctx context.Context, id string) (*model.Room, error)
}

// FutureBookingCounter is implemented by the booking store.
type FutureBookingCounter interface {
	CountActiveStartingAfter(ctx context.Context, roomID string, after time.Time) (int64, error)
}

type roomService struct {
	repo      repository.RoomRepository
	locker    repository.RoomLocker
	bookings  FutureBookingCounter
	validator *validator.RoomValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewRoomService(
	repo repository.RoomRepository,
	locker repository.RoomLocker,
	bookings FutureBookingCounter,
	validator *validator.RoomValidator,
	publisher events.Publisher,
	cfg *config.Config,
) RoomService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &roomService{
		repo:      repo,
		locker:    locker,
		bookings:  bookings,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *roomService) Create(ctx context.Context, room *model.Room) error {
	s.sanitize(room)
	room.ID = ""
	room.SetActive(true)

	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed",
			"name", room.Name,
			"error", err,
		)
		return err
	}

	if err := s.ensureUniqueName(ctx, room.Name, ""); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateName) {
			return apperrors.DuplicateName(room.Name)
		}
		s.cfg.Log.Error("Failed to create room",
			"name", room.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created successfully",
		"id", room.ID,
		"name", room.Name,
		"capacity", room.Capacity,
	)
	return nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	return room, nil
}

func (s *roomService) GetAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Room, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx, activeOnly)
		if err != nil {
			s.cfg.Log.Error("Failed to count rooms", "error", err)
			errCount = apperrors.Internal("Failed to count rooms", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		rooms, err = s.repo.FindAll(sharedCtx, activeOnly, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all rooms",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve rooms", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return rooms, count, nil
}

func (s *roomService) Update(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}
	if updates == nil {
		return nil, apperrors.InvalidInput("Update body cannot be empty")
	}
	return s.applyUpdate(ctx, id, updates)
}

// Deactivate soft-deletes the room. It is refused while non-cancelled
// bookings start after now, and never cancels them.
func (s *roomService) Deactivate(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}
	inactive := false
	return s.applyUpdate(ctx, id, &model.RoomUpdate{IsActive: &inactive})
}

func (s *roomService) applyUpdate(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error) {
	s.sanitizeUpdate(updates)

	var merged *model.Room
	var deactivated bool
	err := s.locker.WithRoomLock(ctx, []string{id}, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return s.lookupError(id, err)
		}

		merged = mergeRoomUpdates(existing, updates)
		if err := s.validator.Validate(merged); err != nil {
			s.cfg.Log.Warn("Room validation failed",
				"id", id,
				"name", merged.Name,
				"error", err,
			)
			return err
		}

		if merged.NameKey != model.RoomNameKey(merged.Name) {
			if err := s.ensureUniqueName(ctx, merged.Name, id); err != nil {
				return err
			}
		}

		deactivated = existing.Active() && !merged.Active()
		if deactivated {
			upcoming, err := s.bookings.CountActiveStartingAfter(ctx, id, s.now().UTC())
			if err != nil {
				s.cfg.Log.Error("Failed to count upcoming bookings",
					"room_id", id,
					"error", err,
				)
				return apperrors.Internal("Failed to check upcoming bookings", err)
			}
			if upcoming > 0 {
				s.cfg.Log.Warn("Room deactivation blocked by upcoming bookings",
					"id", id,
					"upcoming", upcoming,
				)
				return apperrors.HasFutureBookings(id, upcoming)
			}
		}

		if err := s.repo.Update(ctx, id, merged); err != nil {
			if errors.Is(err, roomserrors.ErrDuplicateName) {
				return apperrors.DuplicateName(merged.Name)
			}
			if errors.Is(err, roomserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Room", id)
			}
			s.cfg.Log.Error("Failed to update room",
				"id", id,
				"error", err,
			)
			return apperrors.Internal("Failed to update room", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Room updated successfully",
		"id", id,
		"name", merged.Name,
		"is_active", merged.Active(),
	)

	if deactivated {
		if err := s.publisher.Publish(ctx, events.NewRoomEvent(events.RoomDeactivated, merged)); err != nil {
			s.cfg.Log.Warn("Failed to publish room event",
				"id", id,
				"event", events.RoomDeactivated,
				"error", err,
			)
		}
	}
	return merged, nil
}

func (s *roomService) ensureUniqueName(ctx context.Context, name string, selfID string) error {
	existing, err := s.repo.FindByNameKey(ctx, model.RoomNameKey(name))
	switch {
	case errors.Is(err, roomserrors.ErrNotFound):
		return nil
	case err != nil:
		s.cfg.Log.Error("Failed to check room name", "name", name, "error", err)
		return apperrors.Internal("Failed to check for existing rooms", err)
	case existing.ID == selfID:
		return nil
	}
	s.cfg.Log.Warn("Room name already taken", "name", name, "existing_id", existing.ID)
	return apperrors.DuplicateName(name)
}

// lookupError translates repository lookup failures. Malformed ids are
// reported as not found.
func (s *roomService) lookupError(id string, err error) error {
	if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Room", id)
	}
	s.cfg.Log.Error("Failed to get room by ID",
		"id", id,
		"error", err,
	)
	return apperrors.Internal("Failed to retrieve room", err)
}

func (s *roomService) sanitize(room *model.Room) {
	room.Name = sanitizer.NormalizeName(room.Name)
	room.Location = sanitizer.TrimAndNormalize(room.Location)
	room.Description = sanitizer.NormalizeOptional(room.Description)
	room.StartTime = sanitizer.TrimAndNormalize(room.StartTime)
	room.EndTime = sanitizer.TrimAndNormalize(room.EndTime)
}

func (s *roomService) sanitizeUpdate(updates *model.RoomUpdate) {
	if updates.Name != nil {
		name := sanitizer.NormalizeName(*updates.Name)
		updates.Name = &name
	}
	if updates.Location != nil {
		location := sanitizer.TrimAndNormalize(*updates.Location)
		updates.Location = &location
	}
	if updates.StartTime != nil {
		start := sanitizer.TrimAndNormalize(*updates.StartTime)
		updates.StartTime = &start
	}
	if updates.EndTime != nil {
		end := sanitizer.TrimAndNormalize(*updates.EndTime)
		updates.EndTime = &end
	}
}

func mergeRoomUpdates(existing *model.Room, updates *model.RoomUpdate) *model.Room {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.Description != nil {
		merged.Description = sanitizer.NormalizeOptional(updates.Description)
	}
	if updates.StartTime != nil {
		merged.StartTime = *updates.StartTime
	}
	if updates.EndTime != nil {
		merged.EndTime = *updates.EndTime
	}
	if updates.IsActive != nil {
		merged.SetActive(*updates.IsActive)
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
