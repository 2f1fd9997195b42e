package handler

import (
	"context"
	"net/http"
	"time"

	"meetingroom/internal/availability"
	"meetingroom/internal/rooms/service"
	apperrors "meetingroom/pkg/errors"
	httputil "meetingroom/pkg/http"
	"meetingroom/pkg/interval"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Availability is the read side of the availability engine.
type Availability interface {
	CheckAvailability(ctx context.Context, roomID string, iv interval.Interval) (availability.Verdict, error)
	FindAvailableRooms(ctx context.Context, iv interval.Interval, minCapacity int) ([]*model.Room, error)
	GetSchedule(ctx context.Context, roomID string, date time.Time) ([]*model.Booking, error)
	Location() *time.Location
}

type RoomHandler struct {
	service      service.RoomService
	availability Availability
	log          *logger.Logger
}

func NewRoomHandler(service service.RoomService, availability Availability, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service:      service,
		availability: availability,
		log:          log,
	}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var room model.Room
	if err := httputil.DecodeJSON(r, &room); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &room); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, room); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	activeOnly, err := httputil.QueryBool(r, "active_only", false)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	rooms, total, err := h.service.GetAll(r.Context(), activeOnly, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, rooms, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.RoomUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	room, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

// Deactivate is the DELETE verb. Rooms are never removed.
func (h *RoomHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.service.Deactivate(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Deactivate", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "Deactivate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	iv, err := queryInterval(r)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	verdict, err := h.availability.CheckAvailability(r.Context(), ps.ByName("id"), iv)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, verdict); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

// Schedule takes date as YYYY-MM-DD in the organization time zone and
// defaults to today.
func (h *RoomHandler) Schedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	loc := h.availability.Location()
	date := time.Now().In(loc)
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			h.writeError(w, "Schedule", apperrors.InvalidInput("invalid date parameter: expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	bookings, err := h.availability.GetSchedule(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "Schedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "Schedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Available(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	iv, err := queryInterval(r)
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}
	minCapacity, err := httputil.QueryInt(r, "min_capacity", 0)
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}

	rooms, err := h.availability.FindAvailableRooms(r.Context(), iv, minCapacity)
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "Available", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/rooms", h.Create)
	router.GET("/api/v1/rooms", h.GetAll)
	router.GET("/api/v1/rooms/available", h.Available)
	router.GET("/api/v1/rooms/id/:id", h.GetByID)
	router.PATCH("/api/v1/rooms/id/:id", h.Update)
	router.DELETE("/api/v1/rooms/id/:id", h.Deactivate)
	router.GET("/api/v1/rooms/id/:id/availability", h.Availability)
	router.GET("/api/v1/rooms/id/:id/schedule", h.Schedule)
}

func (h *RoomHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func queryInterval(r *http.Request) (interval.Interval, error) {
	start, err := httputil.RequiredQueryTime(r, "start")
	if err != nil {
		return interval.Interval{}, err
	}
	end, err := httputil.RequiredQueryTime(r, "end")
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.New(start, end), nil
}
