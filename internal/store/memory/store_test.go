package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bookingserrors "meetingroom/internal/bookings/errors"
	roomserrors "meetingroom/internal/rooms/errors"
	"meetingroom/pkg/interval"
	"meetingroom/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom(name string) *model.Room {
	return &model.Room{Name: name, Capacity: 6, StartTime: "08:00", EndTime: "18:00"}
}

func testBooking(roomID string, start time.Time) *model.Booking {
	return &model.Booking{
		RoomID:           roomID,
		Title:            "Sync",
		OrganizerName:    "Dana",
		OrganizerEmail:   "dana@example.com",
		ParticipantCount: 2,
		StartDatetime:    start,
		EndDatetime:      start.Add(time.Hour),
	}
}

func TestRoomRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Rooms()

	atlas := testRoom("Atlas")
	require.NoError(t, repo.Create(ctx, atlas))
	assert.NotEmpty(t, atlas.ID)
	assert.Equal(t, "atlas", atlas.NameKey)
	assert.True(t, atlas.Active())

	assert.ErrorIs(t, repo.Create(ctx, testRoom("ATLAS")), roomserrors.ErrDuplicateName)

	_, err := repo.FindByID(ctx, "bogus")
	assert.ErrorIs(t, err, roomserrors.ErrInvalidID)
	_, err = repo.FindByID(ctx, "65f0000000000000000000ff")
	assert.ErrorIs(t, err, roomserrors.ErrNotFound)

	found, err := repo.FindByNameKey(ctx, "atlas")
	require.NoError(t, err)
	assert.Equal(t, atlas.ID, found.ID)

	// Returned rooms are copies.
	found.Name = "mutated"
	again, err := repo.FindByID(ctx, atlas.ID)
	require.NoError(t, err)
	assert.Equal(t, "Atlas", again.Name)

	orion := testRoom("Orion")
	orion.Capacity = 20
	require.NoError(t, repo.Create(ctx, orion))

	rename := *atlas
	rename.Name = "orion"
	assert.ErrorIs(t, repo.Update(ctx, atlas.ID, &rename), roomserrors.ErrDuplicateName)

	big, err := repo.FindActive(ctx, 10)
	require.NoError(t, err)
	require.Len(t, big, 1)
	assert.Equal(t, orion.ID, big[0].ID)

	orion.SetActive(false)
	require.NoError(t, repo.Update(ctx, orion.ID, orion))

	active, err := repo.Count(ctx, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)

	all, err := repo.FindAll(ctx, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, atlas.ID, all[0].ID)

	rest, err := repo.FindAll(ctx, false, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestBookingRepository_GuardedWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bookings()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	b := testBooking("65f0000000000000000000aa", start)
	require.NoError(t, repo.Create(ctx, b))

	at := start.Add(-time.Hour)
	reason := "moved"
	cancelled, err := repo.Cancel(ctx, b.ID, at, &reason)
	require.NoError(t, err)
	assert.True(t, cancelled.IsCancelled)
	assert.Equal(t, at, *cancelled.CancelledAt)

	_, err = repo.Cancel(ctx, b.ID, at.Add(time.Hour), nil)
	assert.ErrorIs(t, err, bookingserrors.ErrAlreadyCancelled)

	assert.ErrorIs(t, repo.Update(ctx, b.ID, b), bookingserrors.ErrAlreadyCancelled)

	_, err = repo.Cancel(ctx, "65f0000000000000000000ff", at, nil)
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)

	stored, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, at, *stored.CancelledAt)
	assert.Equal(t, "moved", *stored.CancellationReason)
}

func TestBookingRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bookings()
	roomID := "65f0000000000000000000aa"
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	first := testBooking(roomID, start)
	second := testBooking(roomID, start.Add(time.Hour))
	elsewhere := testBooking("65f0000000000000000000bb", start)
	for _, b := range []*model.Booking{second, first, elsewhere} {
		require.NoError(t, repo.Create(ctx, b))
	}

	overlapping, err := repo.FindActiveOverlapping(ctx, roomID, interval.New(start.Add(30*time.Minute), start.Add(90*time.Minute)))
	require.NoError(t, err)
	require.Len(t, overlapping, 2)
	assert.Equal(t, first.ID, overlapping[0].ID)

	touching, err := repo.FindActiveOverlapping(ctx, roomID, interval.New(start.Add(2*time.Hour), start.Add(3*time.Hour)))
	require.NoError(t, err)
	assert.Empty(t, touching)

	upcoming, err := repo.CountActiveStartingAfter(ctx, roomID, start)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upcoming)

	desc, err := repo.Find(ctx, model.BookingFilter{RoomID: roomID, Descending: true}, 0, 0)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, second.ID, desc[0].ID)

	count, err := repo.Count(ctx, model.BookingFilter{OrganizerEmail: "DANA@example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestRoomLocker_SerializesSameRoom(t *testing.T) {
	locker := NewStore().Locker()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithRoomLock(context.Background(), []string{"b", "a"}, func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					seen := atomic.LoadInt32(&maxInside)
					if n <= seen || atomic.CompareAndSwapInt32(&maxInside, seen, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, maxInside)
}

func TestRoomLocker_OverlappingSetsDoNotDeadlock(t *testing.T) {
	locker := NewStore().Locker()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids := []string{"a", "b"}
			if i%2 == 0 {
				ids = []string{"b", "a"}
			}
			err := locker.WithRoomLock(ctx, ids, func(context.Context) error { return nil })
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestRoomLocker_HonoursContext(t *testing.T) {
	locker := NewStore().Locker()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = locker.WithRoomLock(context.Background(), []string{"a"}, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := locker.WithRoomLock(ctx, []string{"a"}, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}
