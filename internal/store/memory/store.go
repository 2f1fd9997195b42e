// Package memory is an in-process implementation of the room and booking
// repositories and the room locker. It backs STORE_DRIVER=memory and the
// service tests.
package memory

import (
	"context"
	"slices"
	"sync"

	bookingsrepo "meetingroom/internal/bookings/repository"
	roomsrepo "meetingroom/internal/rooms/repository"
	"meetingroom/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ roomsrepo.RoomRepository       = (*RoomRepository)(nil)
	_ roomsrepo.RoomLocker           = (*RoomLocker)(nil)
	_ bookingsrepo.BookingRepository = (*BookingRepository)(nil)
)

// Store holds all documents behind one RWMutex. Per-room locks are separate
// so a held room lock never blocks reads.
type Store struct {
	mu       sync.RWMutex
	rooms    map[string]*model.Room
	bookings map[string]*model.Booking

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

func NewStore() *Store {
	return &Store{
		rooms:    make(map[string]*model.Room),
		bookings: make(map[string]*model.Booking),
		locks:    make(map[string]chan struct{}),
	}
}

func (s *Store) Rooms() *RoomRepository {
	return &RoomRepository{store: s}
}

func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

func (s *Store) Locker() *RoomLocker {
	return &RoomLocker{store: s}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func (s *Store) roomLock(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[id] = lock
	}
	return lock
}

// RoomLocker holds one lock per room for the whole of fn. Locks are taken in
// sorted order, so callers locking overlapping sets cannot deadlock. Writes
// made by fn before it fails are not rolled back.
type RoomLocker struct {
	store *Store
}

func (l *RoomLocker) WithRoomLock(ctx context.Context, roomIDs []string, fn func(ctx context.Context) error) error {
	ids := roomsrepo.LockOrder(roomIDs)

	held := make([]chan struct{}, 0, len(ids))
	defer func() {
		for _, lock := range slices.Backward(held) {
			<-lock
		}
	}()

	for _, id := range ids {
		lock := l.store.roomLock(id)
		select {
		case lock <- struct{}{}:
			held = append(held, lock)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fn(ctx)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneRoom(r *model.Room) *model.Room {
	c := *r
	c.Description = cloneString(r.Description)
	if r.IsActive != nil {
		c.SetActive(*r.IsActive)
	}
	return &c
}

func cloneBooking(b *model.Booking) *model.Booking {
	c := *b
	c.Description = cloneString(b.Description)
	c.Notes = cloneString(b.Notes)
	c.CancellationReason = cloneString(b.CancellationReason)
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}
