package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	roomserrors "meetingroom/internal/rooms/errors"
	"meetingroom/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomRepository struct {
	store *Store
}

func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.RoomNameKey(room.Name)
	if s.nameTaken(key, "") {
		return roomserrors.ErrDuplicateName
	}

	now := time.Now().UTC()
	room.ID = newID()
	room.NameKey = key
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.IsActive == nil {
		room.SetActive(true)
	}

	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

// nameTaken must be called with s.mu held.
func (s *Store) nameTaken(key, selfID string) bool {
	for id, existing := range s.rooms {
		if id != selfID && existing.NameKey == key {
			return true
		}
	}
	return false
}

func (r *RoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, roomserrors.ErrInvalidID
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (r *RoomRepository) FindByNameKey(ctx context.Context, nameKey string) (*model.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, room := range s.rooms {
		if room.NameKey == nameKey {
			return cloneRoom(room), nil
		}
	}
	return nil, roomserrors.ErrNotFound
}

func (r *RoomRepository) sorted(match func(*model.Room) bool) []*model.Room {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if match(room) {
			rooms = append(rooms, cloneRoom(room))
		}
	}
	slices.SortFunc(rooms, func(a, b *model.Room) int {
		return strings.Compare(a.ID, b.ID)
	})
	return rooms
}

func activeMatcher(activeOnly bool) func(*model.Room) bool {
	return func(room *model.Room) bool {
		return !activeOnly || room.Active()
	}
}

func (r *RoomRepository) FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return page(r.sorted(activeMatcher(activeOnly)), limit, offset), nil
}

func (r *RoomRepository) FindActive(ctx context.Context, minCapacity int) ([]*model.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.sorted(func(room *model.Room) bool {
		return room.Active() && room.Capacity >= minCapacity
	}), nil
}

func (r *RoomRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	match := activeMatcher(activeOnly)
	for _, room := range s.rooms {
		if match(room) {
			n++
		}
	}
	return n, nil
}

func (r *RoomRepository) Update(ctx context.Context, id string, room *model.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !primitive.IsValidObjectID(id) {
		return roomserrors.ErrInvalidID
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rooms[id]
	if !ok {
		return roomserrors.ErrNotFound
	}

	key := model.RoomNameKey(room.Name)
	if s.nameTaken(key, id) {
		return roomserrors.ErrDuplicateName
	}

	room.ID = id
	room.NameKey = key
	room.CreatedAt = existing.CreatedAt
	room.UpdatedAt = time.Now().UTC()
	room.SetActive(room.Active())

	s.rooms[id] = cloneRoom(room)
	return nil
}

func page[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
