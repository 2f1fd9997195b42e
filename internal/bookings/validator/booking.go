package validator

import (
	"errors"

	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/model"
	"meetingroom/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize booking validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a complete booking before any store access. The organizer
// email is reported first, then the interval ordering, then a malformed room
// id, then every other field.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	err := validation.Struct(v.validate, booking)

	var verrs validation.ValidationErrors
	if err != nil && !errors.As(err, &verrs) {
		return apperrors.Internal("Booking validation failed", err)
	}

	if verrs.Has("organizer_email") {
		return apperrors.InvalidEmail(booking.OrganizerEmail)
	}

	bothSet := !booking.StartDatetime.IsZero() && !booking.EndDatetime.IsZero()
	if bothSet && !booking.Interval().Valid() {
		return apperrors.InvalidInterval(booking.StartDatetime, booking.EndDatetime)
	}

	if f := verrs.Find("room_id"); f != nil && f.Tag == "mongodb" {
		return apperrors.RoomInactiveOrNotFound(booking.RoomID)
	}

	if len(verrs) > 0 {
		return apperrors.Validation("Booking validation failed", verrs.Details())
	}
	return nil
}
