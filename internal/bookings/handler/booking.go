package handler

import (
	"net/http"

	"meetingroom/internal/bookings/service"
	httputil "meetingroom/pkg/http"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// createBookingRequest shadows participant_count so that an omitted count
// can be told apart from an explicit zero.
type createBookingRequest struct {
	model.Booking
	ParticipantCount *int `json:"participant_count"`
}

func (req *createBookingRequest) toBooking() *model.Booking {
	booking := req.Booking
	booking.ParticipantCount = model.DefaultParticipantCount
	if req.ParticipantCount != nil {
		booking.ParticipantCount = *req.ParticipantCount
	}
	return &booking
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking := req.toBooking()
	if err := h.service.Create(r.Context(), booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// GetAll accepts room_id, organizer_email, from, to (RFC 3339, start time in
// [from, to)), include_cancelled, limit and offset.
func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.BookingUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	booking, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

// Cancel takes an optional {"reason": "..."} body.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CancelRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, "Cancel", err)
			return
		}
	}

	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"), req.Reason)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Upcoming(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	days, err := httputil.QueryInt(r, "days", 0)
	if err != nil {
		h.writeError(w, "Upcoming", err)
		return
	}

	bookings, err := h.service.Upcoming(r.Context(), days)
	h.writeList(w, "Upcoming", bookings, err)
}

func (h *BookingHandler) Today(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.Today(r.Context())
	h.writeList(w, "Today", bookings, err)
}

func (h *BookingHandler) ByOrganizer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.ByOrganizer(r.Context(), r.URL.Query().Get("email"))
	h.writeList(w, "ByOrganizer", bookings, err)
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	h.writeList(w, "Search", bookings, err)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/upcoming", h.Upcoming)
	router.GET("/api/v1/bookings/today", h.Today)
	router.GET("/api/v1/bookings/organizer", h.ByOrganizer)
	router.GET("/api/v1/bookings/search", h.Search)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
}

func (h *BookingHandler) writeList(w http.ResponseWriter, handler string, bookings []*model.Booking, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func parseFilter(r *http.Request) (model.BookingFilter, error) {
	query := r.URL.Query()
	filter := model.BookingFilter{
		RoomID:         query.Get("room_id"),
		OrganizerEmail: query.Get("organizer_email"),
	}

	from, ok, err := httputil.QueryTime(r, "from")
	if err != nil {
		return filter, err
	}
	if ok {
		filter.StartsFrom = &from
	}

	to, ok, err := httputil.QueryTime(r, "to")
	if err != nil {
		return filter, err
	}
	if ok {
		filter.StartsBefore = &to
	}

	filter.IncludeCancelled, err = httputil.QueryBool(r, "include_cancelled", false)
	return filter, err
}
