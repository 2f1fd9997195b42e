package interval

import (
	"testing"
	"time"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2025-03-10 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "touching end to start", a: New(at("09:00"), at("10:00")), b: New(at("10:00"), at("11:00")), want: false},
		{name: "touching start to end", a: New(at("10:00"), at("11:00")), b: New(at("09:00"), at("10:00")), want: false},
		{name: "partial overlap", a: New(at("09:00"), at("10:30")), b: New(at("10:00"), at("11:00")), want: true},
		{name: "containment", a: New(at("09:00"), at("12:00")), b: New(at("10:00"), at("11:00")), want: true},
		{name: "identical", a: New(at("09:00"), at("10:00")), b: New(at("09:00"), at("10:00")), want: true},
		{name: "disjoint", a: New(at("08:00"), at("09:00")), b: New(at("13:00"), at("14:00")), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps is not symmetric for %s and %s", tt.a, tt.b)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "08:00", want: "08:00"},
		{input: "9:30", want: "09:30"},
		{input: "23:59", want: "23:59"},
		{input: "00:00", want: "00:00"},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "12-00", wantErr: true},
		{input: "1200", wantErr: true},
		{input: "12:0", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWithinWindow(t *testing.T) {
	open := MustParseTimeOfDay("08:00")
	closing := MustParseTimeOfDay("18:00")
	date := at("00:00")

	tests := []struct {
		name string
		iv   Interval
		want bool
	}{
		{name: "inside", iv: New(at("09:00"), at("10:00")), want: true},
		{name: "ends exactly at close", iv: New(at("17:00"), at("18:00")), want: true},
		{name: "starts exactly at open", iv: New(at("08:00"), at("09:00")), want: true},
		{name: "starts before open", iv: New(at("07:30"), at("09:00")), want: false},
		{name: "ends after close", iv: New(at("17:00"), at("18:01")), want: false},
		{name: "ends seconds after close", iv: New(at("17:00"), at("18:00").Add(30*time.Second)), want: false},
		{name: "crosses midnight", iv: New(at("17:00"), at("09:00").AddDate(0, 0, 1)), want: false},
		{name: "other date", iv: New(at("09:00").AddDate(0, 0, 1), at("10:00").AddDate(0, 0, 1)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinWindow(tt.iv, open, closing, date, time.UTC); got != tt.want {
				t.Errorf("WithinWindow(%s) = %v, want %v", tt.iv, got, tt.want)
			}
		})
	}
}

func TestWithinWindow_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	// 02:00Z is 09:00 in UTC+7.
	start := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	iv := New(start, start.Add(time.Hour))

	if !WithinWindow(iv, MustParseTimeOfDay("08:00"), MustParseTimeOfDay("18:00"), start, loc) {
		t.Error("expected interval to fit the window in the organization time zone")
	}
	if WithinWindow(iv, MustParseTimeOfDay("08:00"), MustParseTimeOfDay("18:00"), start, time.UTC) {
		t.Error("expected interval to fall outside the window in UTC")
	}
}

func TestDayBounds(t *testing.T) {
	bounds := DayBounds(at("15:04"), time.UTC)
	if !bounds.Start.Equal(at("00:00")) {
		t.Errorf("unexpected start %s", bounds.Start)
	}
	if d := bounds.End.Sub(bounds.Start); d != 24*time.Hour {
		t.Errorf("unexpected duration %s", d)
	}
}
