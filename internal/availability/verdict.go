package availability

import (
	apperrors "meetingroom/pkg/errors"
	"meetingroom/pkg/interval"
	"meetingroom/pkg/model"
)

// Reason explains a negative verdict. The zero value means available.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonRoomInactiveOrNotFound Reason = "ROOM_INACTIVE_OR_NOT_FOUND"
	ReasonInvalidInterval        Reason = "INVALID_INTERVAL"
	ReasonOutsideOperatingHours  Reason = "OUTSIDE_OPERATING_HOURS"
	ReasonTimeConflict           Reason = "TIME_CONFLICT"
)

type Verdict struct {
	Available bool              `json:"available"`
	Reason    Reason            `json:"reason,omitempty"`
	RoomID    string            `json:"room_id"`
	Interval  interval.Interval `json:"interval"`
	Room      *model.Room       `json:"room,omitempty"`
	Conflicts []*model.Booking  `json:"conflicts,omitempty"`
}

func available(room *model.Room, iv interval.Interval) Verdict {
	return Verdict{Available: true, RoomID: room.ID, Interval: iv, Room: room}
}

func rejected(reason Reason, roomID string, room *model.Room, iv interval.Interval) Verdict {
	return Verdict{Reason: reason, RoomID: roomID, Interval: iv, Room: room}
}

// Err converts a negative verdict into the matching error kind, or nil.
func (v Verdict) Err() error {
	switch v.Reason {
	case ReasonNone:
		return nil
	case ReasonRoomInactiveOrNotFound:
		return apperrors.RoomInactiveOrNotFound(v.RoomID)
	case ReasonInvalidInterval:
		return apperrors.InvalidInterval(v.Interval.Start, v.Interval.End)
	case ReasonOutsideOperatingHours:
		var start, end string
		if v.Room != nil {
			start, end = v.Room.StartTime, v.Room.EndTime
		}
		return apperrors.OutsideOperatingHours(start, end)
	case ReasonTimeConflict:
		refs := make([]apperrors.ConflictRef, 0, len(v.Conflicts))
		for _, b := range v.Conflicts {
			refs = append(refs, apperrors.ConflictRef{
				BookingID: b.ID,
				Title:     b.Title,
				Start:     b.StartDatetime,
				End:       b.EndDatetime,
			})
		}
		return apperrors.TimeConflict(refs)
	}
	return apperrors.Internal("unknown availability reason "+string(v.Reason), nil)
}
