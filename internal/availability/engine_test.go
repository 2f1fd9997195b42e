package availability

import (
	"context"
	"testing"
	"time"

	"meetingroom/internal/store/memory"
	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/interval"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hhmm string) time.Time {
	return interval.MustParseTimeOfDay(hhmm).On(day, time.UTC)
}

func span(from, to string) interval.Interval {
	return interval.New(at(from), at(to))
}

type fixture struct {
	store  *memory.Store
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	engine := NewEngine(store.Rooms(), NewConflictDetector(store.Bookings()), time.UTC, logger.Discard())
	return &fixture{store: store, engine: engine}
}

func (f *fixture) room(t *testing.T, name string, capacity int, active bool) *model.Room {
	t.Helper()
	room := &model.Room{Name: name, Capacity: capacity, StartTime: "08:00", EndTime: "18:00"}
	room.SetActive(active)
	require.NoError(t, f.store.Rooms().Create(context.Background(), room))
	return room
}

func (f *fixture) booking(t *testing.T, roomID string, iv interval.Interval, cancelled bool) *model.Booking {
	t.Helper()
	b := &model.Booking{
		RoomID:           roomID,
		Title:            "Sync",
		OrganizerName:    "Dana",
		OrganizerEmail:   "dana@example.com",
		ParticipantCount: 2,
		StartDatetime:    iv.Start,
		EndDatetime:      iv.End,
	}
	require.NoError(t, f.store.Bookings().Create(context.Background(), b))
	if cancelled {
		_, err := f.store.Bookings().Cancel(context.Background(), b.ID, time.Now(), nil)
		require.NoError(t, err)
	}
	return b
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.room(t, "Atlas", 8, true)
	inactive := f.room(t, "Closet", 2, false)
	f.booking(t, room.ID, span("10:00", "11:00"), false)
	f.booking(t, room.ID, span("12:00", "13:00"), true)

	tests := []struct {
		name   string
		roomID string
		iv     interval.Interval
		want   Reason
	}{
		{name: "free slot", roomID: room.ID, iv: span("08:00", "09:00"), want: ReasonNone},
		{name: "touching previous booking", roomID: room.ID, iv: span("09:00", "10:00"), want: ReasonNone},
		{name: "touching next booking", roomID: room.ID, iv: span("11:00", "12:00"), want: ReasonNone},
		{name: "ends at closing time", roomID: room.ID, iv: span("17:00", "18:00"), want: ReasonNone},
		{name: "cancelled booking is ignored", roomID: room.ID, iv: span("12:00", "13:00"), want: ReasonNone},
		{name: "partial overlap", roomID: room.ID, iv: span("09:00", "10:30"), want: ReasonTimeConflict},
		{name: "starts before opening", roomID: room.ID, iv: span("07:30", "09:00"), want: ReasonOutsideOperatingHours},
		{name: "ends after closing", roomID: room.ID, iv: span("17:30", "18:30"), want: ReasonOutsideOperatingHours},
		{name: "crosses midnight", roomID: room.ID, iv: interval.New(at("17:00"), at("09:00").AddDate(0, 0, 1)), want: ReasonOutsideOperatingHours},
		{name: "end before start", roomID: room.ID, iv: span("10:00", "09:00"), want: ReasonInvalidInterval},
		{name: "empty interval", roomID: room.ID, iv: span("09:00", "09:00"), want: ReasonInvalidInterval},
		{name: "inactive room", roomID: inactive.ID, iv: span("09:00", "10:00"), want: ReasonRoomInactiveOrNotFound},
		{name: "unknown room", roomID: "65f0000000000000000000ff", iv: span("09:00", "10:00"), want: ReasonRoomInactiveOrNotFound},
		{name: "malformed room id", roomID: "nope", iv: span("09:00", "10:00"), want: ReasonRoomInactiveOrNotFound},
		{name: "inactive beats invalid interval", roomID: inactive.ID, iv: span("10:00", "09:00"), want: ReasonRoomInactiveOrNotFound},
		{name: "invalid interval beats hours", roomID: room.ID, iv: span("07:00", "06:00"), want: ReasonInvalidInterval},
		{name: "hours beat conflicts", roomID: room.ID, iv: span("10:00", "18:30"), want: ReasonOutsideOperatingHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := f.engine.CheckAvailability(ctx, tt.roomID, tt.iv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict.Reason)
			assert.Equal(t, tt.want == ReasonNone, verdict.Available)
		})
	}
}

func TestCheckAvailability_ReportsConflicts(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "Atlas", 8, true)
	late := f.booking(t, room.ID, span("11:00", "12:00"), false)
	early := f.booking(t, room.ID, span("09:00", "10:00"), false)

	verdict, err := f.engine.CheckAvailability(context.Background(), room.ID, span("09:30", "11:30"))
	require.NoError(t, err)
	require.False(t, verdict.Available)
	require.Len(t, verdict.Conflicts, 2)
	assert.Equal(t, early.ID, verdict.Conflicts[0].ID)
	assert.Equal(t, late.ID, verdict.Conflicts[1].ID)

	err = verdict.Err()
	require.True(t, apperrors.HasCode(err, apperrors.CodeTimeConflict))
	refs := apperrors.AsAppError(err).Details["conflicts"].([]apperrors.ConflictRef)
	assert.Equal(t, early.ID, refs[0].BookingID)
	assert.Equal(t, at("09:00"), refs[0].Start)
}

func TestEvaluate_ExcludesOwnBooking(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "Atlas", 8, true)
	own := f.booking(t, room.ID, span("09:00", "10:00"), false)

	verdict, err := f.engine.Evaluate(context.Background(), room, span("09:30", "10:30"), own.ID)
	require.NoError(t, err)
	assert.True(t, verdict.Available)

	verdict, err = f.engine.Evaluate(context.Background(), room, span("09:30", "10:30"), "")
	require.NoError(t, err)
	assert.Equal(t, ReasonTimeConflict, verdict.Reason)
}

func TestEvaluate_UsesOrganizationTimeZone(t *testing.T) {
	store := memory.NewStore()
	loc := time.FixedZone("UTC+3", 3*60*60)
	engine := NewEngine(store.Rooms(), NewConflictDetector(store.Bookings()), loc, logger.Discard())

	room := &model.Room{Name: "Atlas", Capacity: 4, StartTime: "08:00", EndTime: "18:00"}
	require.NoError(t, store.Rooms().Create(context.Background(), room))

	// 06:00Z is 09:00 local.
	start := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	verdict, err := engine.CheckAvailability(context.Background(), room.ID, interval.New(start, start.Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, verdict.Available)

	// 16:00Z is 19:00 local.
	start = time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
	verdict, err = engine.CheckAvailability(context.Background(), room.ID, interval.New(start, start.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideOperatingHours, verdict.Reason)
}

func TestVerdictErr(t *testing.T) {
	room := &model.Room{ID: "65f0000000000000000000aa", StartTime: "08:00", EndTime: "18:00"}
	iv := span("09:00", "10:00")

	tests := []struct {
		reason Reason
		want   apperrors.Code
	}{
		{reason: ReasonRoomInactiveOrNotFound, want: apperrors.CodeRoomInactiveOrNotFound},
		{reason: ReasonInvalidInterval, want: apperrors.CodeInvalidInterval},
		{reason: ReasonOutsideOperatingHours, want: apperrors.CodeOutsideOperatingHours},
		{reason: ReasonTimeConflict, want: apperrors.CodeTimeConflict},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			err := rejected(tt.reason, room.ID, room, iv).Err()
			assert.True(t, apperrors.HasCode(err, tt.want), "got %v", err)
		})
	}

	assert.NoError(t, available(room, iv).Err())
}

func TestFindAvailableRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	small := f.room(t, "Huddle", 4, true)
	large := f.room(t, "Board", 12, true)
	busy := f.room(t, "Busy", 10, true)
	f.room(t, "Retired", 20, false)
	f.booking(t, busy.ID, span("09:00", "10:00"), false)

	rooms, err := f.engine.FindAvailableRooms(ctx, span("09:30", "10:30"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{small.ID, large.ID}, roomIDs(rooms))

	rooms, err = f.engine.FindAvailableRooms(ctx, span("09:30", "10:30"), 6)
	require.NoError(t, err)
	assert.Equal(t, []string{large.ID}, roomIDs(rooms))

	rooms, err = f.engine.FindAvailableRooms(ctx, span("07:00", "08:30"), 0)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestFindAvailableRooms_AgreesWithCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var all []*model.Room
	for i, name := range []string{"A", "B", "C", "D"} {
		room := f.room(t, name, 4+i, true)
		all = append(all, room)
	}
	f.booking(t, all[0].ID, span("09:00", "10:00"), false)
	f.booking(t, all[2].ID, span("13:00", "15:00"), false)

	slots := []interval.Interval{span("08:00", "09:00"), span("09:30", "11:00"), span("14:00", "14:30"), span("17:59", "18:00")}
	for _, iv := range slots {
		free, err := f.engine.FindAvailableRooms(ctx, iv, 0)
		require.NoError(t, err)

		var want []string
		for _, room := range all {
			verdict, err := f.engine.CheckAvailability(ctx, room.ID, iv)
			require.NoError(t, err)
			if verdict.Available {
				want = append(want, room.ID)
			}
		}
		assert.Equal(t, want, roomIDs(free), "slot %s", iv)
	}
}

func TestFindAvailableRooms_InvalidInterval(t *testing.T) {
	f := newFixture(t)
	f.room(t, "Atlas", 8, true)

	_, err := f.engine.FindAvailableRooms(context.Background(), span("10:00", "09:00"), 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInterval))
}

func TestGetSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.room(t, "Atlas", 8, true)
	other := f.room(t, "Other", 8, true)
	second := f.booking(t, room.ID, span("13:00", "14:00"), false)
	first := f.booking(t, room.ID, span("09:00", "10:00"), false)
	f.booking(t, room.ID, span("11:00", "12:00"), true)
	f.booking(t, other.ID, span("09:00", "10:00"), false)
	f.booking(t, room.ID, interval.New(at("09:00").AddDate(0, 0, 1), at("10:00").AddDate(0, 0, 1)), false)

	schedule, err := f.engine.GetSchedule(ctx, room.ID, at("15:00"))
	require.NoError(t, err)
	require.Len(t, schedule, 2)
	assert.Equal(t, first.ID, schedule[0].ID)
	assert.Equal(t, second.ID, schedule[1].ID)
}

func TestGetSchedule_UnknownRoom(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.GetSchedule(context.Background(), "65f0000000000000000000ff", day)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestFindConflicts_SkipsExcludedAndCancelled(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "Atlas", 8, true)
	keep := f.booking(t, room.ID, span("09:00", "10:00"), false)
	skip := f.booking(t, room.ID, span("09:30", "10:30"), false)
	f.booking(t, room.ID, span("09:00", "11:00"), true)

	conflicts, err := NewConflictDetector(f.store.Bookings()).FindConflicts(context.Background(), room.ID, span("09:00", "11:00"), skip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, bookingIDs(conflicts))
}

func roomIDs(rooms []*model.Room) []string {
	var ids []string
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids
}

func bookingIDs(bookings []*model.Booking) []string {
	var ids []string
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	return ids
}
