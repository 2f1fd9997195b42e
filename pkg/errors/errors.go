package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Code is the closed set of error kinds surfaced to callers.
type Code string

const (
	CodeNotFound               Code = "NOT_FOUND"
	CodeDuplicateName          Code = "DUPLICATE_NAME"
	CodeInvalidCapacity        Code = "INVALID_CAPACITY"
	CodeInvalidHours           Code = "INVALID_HOURS"
	CodeHasFutureBookings      Code = "HAS_FUTURE_BOOKINGS"
	CodeInvalidInterval        Code = "INVALID_INTERVAL"
	CodeOutsideOperatingHours  Code = "OUTSIDE_OPERATING_HOURS"
	CodeTimeConflict           Code = "TIME_CONFLICT"
	CodeCapacityExceeded       Code = "CAPACITY_EXCEEDED"
	CodeInvalidEmail           Code = "INVALID_EMAIL"
	CodeBookingCancelled       Code = "BOOKING_CANCELLED"
	CodeRoomInactiveOrNotFound Code = "ROOM_INACTIVE_OR_NOT_FOUND"
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeInvalidInput           Code = "INVALID_INPUT"
	CodeTimeout                Code = "TIMEOUT"
	CodeUnavailable            Code = "SERVICE_UNAVAILABLE"
	CodeRateLimited            Code = "RATE_LIMITED"
	CodeInternal               Code = "INTERNAL_ERROR"
)

type AppError struct {
	Code       Code           `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	response := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	data, _ := json.Marshal(response)
	return data
}

type ErrorResponse struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code Code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code Code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func DuplicateName(name string) *AppError {
	return &AppError{
		Code:       CodeDuplicateName,
		Message:    fmt.Sprintf("room %q already exists", name),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"name": name},
	}
}

func InvalidCapacity(capacity int) *AppError {
	return &AppError{
		Code:       CodeInvalidCapacity,
		Message:    "capacity must be positive",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"capacity": capacity},
	}
}

func InvalidHours(startTime, endTime string) *AppError {
	return &AppError{
		Code:       CodeInvalidHours,
		Message:    "end_time must be after start_time and both must be in HH:MM 24-hour format",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"start_time": startTime, "end_time": endTime},
	}
}

func HasFutureBookings(roomID string, count int64) *AppError {
	return &AppError{
		Code:       CodeHasFutureBookings,
		Message:    fmt.Sprintf("room has %d upcoming booking(s) and cannot be deactivated", count),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"room_id": roomID, "future_bookings": count},
	}
}

func InvalidInterval(start, end time.Time) *AppError {
	return &AppError{
		Code:       CodeInvalidInterval,
		Message:    "end_datetime must be after start_datetime",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"start_datetime": start.Format(time.RFC3339),
			"end_datetime":   end.Format(time.RFC3339),
		},
	}
}

func OutsideOperatingHours(startTime, endTime string) *AppError {
	return &AppError{
		Code:       CodeOutsideOperatingHours,
		Message:    fmt.Sprintf("booking must fall within operating hours (%s - %s) of a single day", startTime, endTime),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"start_time": startTime, "end_time": endTime},
	}
}

// ConflictRef identifies a booking that blocks a request.
type ConflictRef struct {
	BookingID string    `json:"booking_id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start_datetime"`
	End       time.Time `json:"end_datetime"`
}

func TimeConflict(conflicts []ConflictRef) *AppError {
	message := "room is already booked for the requested time"
	if len(conflicts) > 0 {
		first := conflicts[0]
		message = fmt.Sprintf("room is already booked: %s (%s-%s)",
			first.Title, first.Start.Format("15:04"), first.End.Format("15:04"))
	}
	return &AppError{
		Code:       CodeTimeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"conflicts": conflicts},
	}
}

func CapacityExceeded(requested, capacity int) *AppError {
	return &AppError{
		Code:       CodeCapacityExceeded,
		Message:    fmt.Sprintf("participant count (%d) exceeds room capacity (%d)", requested, capacity),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"participant_count": requested, "capacity": capacity},
	}
}

func InvalidEmail(email string) *AppError {
	return &AppError{
		Code:       CodeInvalidEmail,
		Message:    "organizer_email must be a valid email address",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"organizer_email": email},
	}
}

func BookingCancelled(id string) *AppError {
	return &AppError{
		Code:       CodeBookingCancelled,
		Message:    "booking is already cancelled",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"id": id},
	}
}

func RoomInactiveOrNotFound(roomID string) *AppError {
	return &AppError{
		Code:       CodeRoomInactiveOrNotFound,
		Message:    "room does not exist or is not active",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"room_id": roomID},
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func RateLimited() *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError of the given kind.
func HasCode(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// CodeOf returns the kind of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return AsAppError(err).Code
}
