// Package interval holds the half-open time ranges and time-of-day windows
// used by the availability engine.
package interval

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether End is strictly after Start.
func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// Overlaps reports whether a and b share any instant. Intervals that only
// touch at an endpoint do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// TimeOfDay is an offset from local midnight, independent of any date.
type TimeOfDay time.Duration

const (
	minTimeOfDay TimeOfDay = 0
	maxTimeOfDay           = TimeOfDay(24*time.Hour - time.Minute)
)

// ParseTimeOfDay accepts "H:MM" and "HH:MM" in 24-hour notation.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 ||
		!allDigits(parts[0]) || !allDigits(parts[1]) {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), nil
}

// MustParseTimeOfDay panics on malformed input. Meant for constants and tests.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// OfDay extracts the wall-clock offset of t in its own location.
func OfDay(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond()))
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (t TimeOfDay) Valid() bool {
	return t >= minTimeOfDay && t <= maxTimeOfDay
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// On anchors t to the calendar date of date in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(t))
}

// SameDate reports whether a and b fall on the same calendar date in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// WithinWindow reports whether both endpoints of iv fall on date and their
// time-of-day lies within [windowStart, windowEnd], inclusive on both ends.
func WithinWindow(iv Interval, windowStart, windowEnd TimeOfDay, date time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	if !SameDate(iv.Start, date, loc) || !SameDate(iv.End, date, loc) {
		return false
	}
	start := OfDay(iv.Start.In(loc))
	end := OfDay(iv.End.In(loc))
	return start >= windowStart && end <= windowEnd
}

// DayBounds returns [00:00, next day 00:00) for the calendar date of date in loc.
func DayBounds(date time.Time, loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}
