package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meetingroom/internal/availability"
	"meetingroom/internal/rooms/service"
	"meetingroom/internal/rooms/validator"
	"meetingroom/internal/store/memory"
	"meetingroom/pkg/config"
	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data       json.RawMessage `json:"data"`
	TotalCount int64           `json:"total_count"`
	Code       apperrors.Code  `json:"code"`
	Error      string          `json:"error"`
}

type testServer struct {
	router *httprouter.Router
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{Log: log, ReadTimeout: 5 * time.Second}
	store := memory.NewStore()

	rooms := service.NewRoomService(store.Rooms(), store.Locker(), store.Bookings(), validator.NewRoomValidator(log), nil, cfg)
	engine := availability.NewEngine(store.Rooms(), availability.NewConflictDetector(store.Bookings()), time.UTC, log)

	router := httprouter.New()
	NewRoomHandler(rooms, engine, log).RegisterRoutes(router)
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func (s *testServer) createRoom(t *testing.T, body string) model.Room {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/rooms", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var room model.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))
	return room
}

func TestRoomHandler_CRUD(t *testing.T) {
	s := newTestServer(t)
	room := s.createRoom(t, `{"name":"Atlas","capacity":8,"location":"Floor 2","start_time":"08:00","end_time":"18:00"}`)
	require.NotEmpty(t, room.ID)

	w, env := s.do(t, http.MethodPost, "/api/v1/rooms", `{"name":"atlas","capacity":4,"start_time":"08:00","end_time":"18:00"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeDuplicateName, env.Code)

	w, env = s.do(t, http.MethodPatch, "/api/v1/rooms/id/"+room.ID, `{"capacity":12}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.Room
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 12, updated.Capacity)

	w, env = s.do(t, http.MethodGet, "/api/v1/rooms?active_only=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.TotalCount)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/rooms/id/"+room.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/rooms?active_only=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, env.TotalCount)

	w, env = s.do(t, http.MethodGet, "/api/v1/rooms/id/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeNotFound, env.Code)
}

func TestRoomHandler_BadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   apperrors.Code
	}{
		{name: "unknown field", method: http.MethodPost, target: "/api/v1/rooms", body: `{"name":"A","seats":3}`, wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "invalid capacity", method: http.MethodPost, target: "/api/v1/rooms", body: `{"name":"A","capacity":0,"start_time":"08:00","end_time":"18:00"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: apperrors.CodeInvalidCapacity},
		{name: "invalid hours", method: http.MethodPost, target: "/api/v1/rooms", body: `{"name":"A","capacity":2,"start_time":"18:00","end_time":"08:00"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: apperrors.CodeInvalidHours},
		{name: "bad limit", method: http.MethodGet, target: "/api/v1/rooms?limit=abc", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "bad active_only", method: http.MethodGet, target: "/api/v1/rooms?active_only=maybe", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "missing end", method: http.MethodGet, target: "/api/v1/rooms/available?start=2025-03-10T09:00:00Z", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "inverted interval", method: http.MethodGet, target: "/api/v1/rooms/available?start=2025-03-10T10:00:00Z&end=2025-03-10T09:00:00Z", wantStatus: http.StatusUnprocessableEntity, wantCode: apperrors.CodeInvalidInterval},
		{name: "bad date", method: http.MethodGet, target: "/api/v1/rooms/id/65f0000000000000000000ff/schedule?date=10-03-2025", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "schedule of unknown room", method: http.MethodGet, target: "/api/v1/rooms/id/65f0000000000000000000ff/schedule?date=2025-03-10", wantStatus: http.StatusNotFound, wantCode: apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}

func TestRoomHandler_AvailabilityAndSchedule(t *testing.T) {
	s := newTestServer(t)
	room := s.createRoom(t, `{"name":"Atlas","capacity":8,"start_time":"08:00","end_time":"18:00"}`)
	s.createRoom(t, `{"name":"Huddle","capacity":2,"start_time":"08:00","end_time":"18:00"}`)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	booking := &model.Booking{
		RoomID:           room.ID,
		Title:            "Standup",
		OrganizerName:    "Dana",
		OrganizerEmail:   "dana@example.com",
		ParticipantCount: 4,
		StartDatetime:    start,
		EndDatetime:      start.Add(time.Hour),
	}
	require.NoError(t, s.store.Bookings().Create(context.Background(), booking))

	w, env := s.do(t, http.MethodGet, "/api/v1/rooms/id/"+room.ID+"/availability?start=2025-03-10T09:30:00Z&end=2025-03-10T10:30:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	var verdict availability.Verdict
	require.NoError(t, json.Unmarshal(env.Data, &verdict))
	assert.False(t, verdict.Available)
	assert.Equal(t, availability.ReasonTimeConflict, verdict.Reason)
	require.Len(t, verdict.Conflicts, 1)
	assert.Equal(t, booking.ID, verdict.Conflicts[0].ID)

	w, env = s.do(t, http.MethodGet, "/api/v1/rooms/id/"+room.ID+"/availability?start=2025-03-10T17:00:00Z&end=2025-03-10T18:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	var free17 availability.Verdict
	require.NoError(t, json.Unmarshal(env.Data, &free17))
	assert.True(t, free17.Available)
	assert.Empty(t, free17.Reason)

	w, env = s.do(t, http.MethodGet, "/api/v1/rooms/available?start=2025-03-10T09:30:00Z&end=2025-03-10T10:30:00Z&min_capacity=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var free []model.Room
	require.NoError(t, json.Unmarshal(env.Data, &free))
	require.Len(t, free, 1)
	assert.Equal(t, "Huddle", free[0].Name)

	w, env = s.do(t, http.MethodGet, "/api/v1/rooms/id/"+room.ID+"/schedule?date=2025-03-10", "")
	require.Equal(t, http.StatusOK, w.Code)
	var schedule []model.Booking
	require.NoError(t, json.Unmarshal(env.Data, &schedule))
	require.Len(t, schedule, 1)
	assert.Equal(t, booking.ID, schedule[0].ID)

	w, env = s.do(t, http.MethodGet, "/api/v1/rooms/id/"+room.ID+"/schedule?date=2025-03-11", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &schedule))
	assert.Empty(t, schedule)
}
