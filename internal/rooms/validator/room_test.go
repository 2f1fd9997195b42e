package validator

import (
	"testing"

	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/logger"
	"meetingroom/pkg/model"
)

func validRoom() *model.Room {
	return &model.Room{
		Name:      "Atlas",
		Capacity:  8,
		Location:  "Floor 2",
		StartTime: "08:00",
		EndTime:   "18:00",
	}
}

func TestRoomValidator_Validate(t *testing.T) {
	v := NewRoomValidator(logger.Discard())

	tests := []struct {
		name     string
		mutate   func(r *model.Room)
		wantCode apperrors.Code
	}{
		{name: "valid", mutate: func(r *model.Room) {}},
		{name: "zero capacity", mutate: func(r *model.Room) { r.Capacity = 0 }, wantCode: apperrors.CodeInvalidCapacity},
		{name: "negative capacity", mutate: func(r *model.Room) { r.Capacity = -3 }, wantCode: apperrors.CodeInvalidCapacity},
		{name: "end before start", mutate: func(r *model.Room) { r.StartTime, r.EndTime = "18:00", "08:00" }, wantCode: apperrors.CodeInvalidHours},
		{name: "end equals start", mutate: func(r *model.Room) { r.EndTime = "08:00" }, wantCode: apperrors.CodeInvalidHours},
		{name: "malformed time", mutate: func(r *model.Room) { r.StartTime = "8am" }, wantCode: apperrors.CodeInvalidHours},
		{name: "missing end time", mutate: func(r *model.Room) { r.EndTime = "" }, wantCode: apperrors.CodeInvalidHours},
		{name: "empty name", mutate: func(r *model.Room) { r.Name = "" }, wantCode: apperrors.CodeValidation},
		{name: "single digit hour", mutate: func(r *model.Room) { r.StartTime = "7:30" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := validRoom()
			tt.mutate(room)

			err := v.Validate(room)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestRoomValidator_CapacityBeatsHours(t *testing.T) {
	v := NewRoomValidator(logger.Discard())
	room := validRoom()
	room.Capacity = 0
	room.EndTime = "07:00"

	if err := v.Validate(room); !apperrors.HasCode(err, apperrors.CodeInvalidCapacity) {
		t.Errorf("expected INVALID_CAPACITY, got %v", err)
	}
}
