package validator

import (
	"errors"

	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/model"
	"meetingroom/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type RoomValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize room validator", "error", err)
	}

	return &RoomValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a complete room and maps failures onto the room error
// kinds: capacity first, then operating hours, then everything else.
func (v *RoomValidator) Validate(room *model.Room) error {
	err := validation.Struct(v.validate, room)

	var verrs validation.ValidationErrors
	if err != nil && !errors.As(err, &verrs) {
		return apperrors.Internal("Room validation failed", err)
	}

	if f := verrs.Find("capacity"); f != nil && f.Tag == "gt" {
		return apperrors.InvalidCapacity(room.Capacity)
	}
	if verrs.Has("start_time") || verrs.Has("end_time") {
		return apperrors.InvalidHours(room.StartTime, room.EndTime)
	}
	if len(verrs) > 0 {
		return apperrors.Validation("Room validation failed", verrs.Details())
	}

	open, closing, err := room.OperatingHours()
	if err != nil || closing <= open {
		return apperrors.InvalidHours(room.StartTime, room.EndTime)
	}

	return nil
}
