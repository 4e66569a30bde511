package dates

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/taskmaster/todos/internal/domain/entities"
)

func day(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestIsOverdue(t *testing.T) {
	now := day(2024, 3, 10, 12, 0)

	tests := []struct {
		name string
		due  time.Time
		want bool
	}{
		{"timed one minute ago", day(2024, 3, 10, 11, 59), true},
		{"timed in the future", day(2024, 3, 10, 12, 1), false},
		{"timed exactly now", now, false},
		{"date-only today", day(2024, 3, 10, 0, 0), false},
		{"date-only yesterday", day(2024, 3, 9, 0, 0), true},
		{"date-only tomorrow", day(2024, 3, 11, 0, 0), false},
		{"only seconds set counts as date-only", time.Date(2024, 3, 9, 0, 0, 30, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.due, now); got != tt.want {
				t.Errorf("IsOverdue(%v) = %v, want %v", tt.due, got, tt.want)
			}
		})
	}
}

func TestIsOverdueUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, loc)
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, loc).UTC()

	if IsOverdue(due, now) {
		t.Error("midnight today in the local zone must not be overdue")
	}
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		rule   entities.Repeat
		want   time.Time
		wantOK bool
	}{
		{"daily", day(2024, 3, 7, 9, 30), entities.RepeatDaily, day(2024, 3, 8, 9, 30), true},
		{"weekly", day(2024, 3, 7, 0, 0), entities.RepeatWeekly, day(2024, 3, 14, 0, 0), true},
		{"weekdays thursday", day(2024, 3, 7, 0, 0), entities.RepeatWeekdays, day(2024, 3, 8, 0, 0), true},
		{"weekdays friday skips weekend", day(2024, 3, 8, 0, 0), entities.RepeatWeekdays, day(2024, 3, 11, 0, 0), true},
		{"weekdays saturday", day(2024, 3, 9, 0, 0), entities.RepeatWeekdays, day(2024, 3, 11, 0, 0), true},
		{"weekdays sunday", day(2024, 3, 10, 0, 0), entities.RepeatWeekdays, day(2024, 3, 11, 0, 0), true},
		{"never", day(2024, 3, 7, 0, 0), entities.RepeatNever, time.Time{}, false},
		{"empty rule", day(2024, 3, 7, 0, 0), "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextOccurrence(tt.from, tt.rule)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceKeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	from := time.Date(2024, 3, 9, 9, 0, 0, 0, ny)

	next, ok := NextOccurrence(from, entities.RepeatDaily)
	if !ok {
		t.Fatal("daily rule must produce an occurrence")
	}
	if next.Hour() != 9 || next.Day() != 10 {
		t.Errorf("next = %v, want 2024-03-10 09:00 local", next)
	}
}

func TestFormatDate(t *testing.T) {
	now := day(2024, 3, 10, 15, 0)

	tests := []struct {
		in   time.Time
		want string
	}{
		{day(2024, 3, 10, 0, 0), "Today"},
		{day(2024, 3, 11, 23, 59), "Tomorrow"},
		{day(2024, 3, 9, 8, 0), "Yesterday"},
		{day(2024, 3, 12, 0, 0), "Mar 12, 2024"},
		{day(2023, 12, 1, 0, 0), "Dec 1, 2023"},
	}

	for _, tt := range tests {
		if got := FormatDate(tt.in, now); got != tt.want {
			t.Errorf("FormatDate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := map[time.Time]string{
		day(2024, 3, 10, 9, 5):  "9:05",
		day(2024, 3, 10, 0, 0):  "0:00",
		day(2024, 3, 10, 23, 45): "23:45",
	}
	for in, want := range tests {
		if got := FormatTime(in); got != want {
			t.Errorf("FormatTime(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDateTimeAndDue(t *testing.T) {
	now := day(2024, 3, 10, 8, 0)
	if got := FormatDateTime(day(2024, 3, 10, 14, 5), now); got != "Mar 10, 2024 2:05 PM" {
		t.Errorf("FormatDateTime() = %q", got)
	}
	tokyo := now.In(time.FixedZone("UTC+9", 9*3600))
	if got := FormatDateTime(day(2024, 3, 10, 20, 5), tokyo); got != "Mar 11, 2024 5:05 AM" {
		t.Errorf("FormatDateTime(UTC+9) = %q", got)
	}

	if got := FormatDue(day(2024, 3, 11, 0, 0), now); got != "Tomorrow" {
		t.Errorf("FormatDue(date-only) = %q", got)
	}
	if got := FormatDue(day(2024, 3, 10, 17, 30), now); got != "Today 17:30" {
		t.Errorf("FormatDue(timed) = %q", got)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 10, 9, 30, 15, 123000000, time.FixedZone("X", 2*3600))

	s := FormatTimestamp(in)
	if s != "2024-03-10T07:30:15.123Z" {
		t.Fatalf("FormatTimestamp() = %q", s)
	}

	out, err := ParseTimestamp(s, time.UTC)
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !out.Equal(in) {
		t.Errorf("round trip = %v, want %v", out, in)
	}
}

func TestParseTimestampLocalForms(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)

	got, err := ParseTimestamp("2024-03-10", loc)
	if err != nil {
		t.Fatalf("date-only: %v", err)
	}
	if !got.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)) || !IsDateOnly(got) {
		t.Errorf("date-only parsed as %v", got)
	}

	got, err = ParseTimestamp("2024-03-10T18:45", loc)
	if err != nil {
		t.Fatalf("date-time: %v", err)
	}
	if got.Hour() != 18 || got.Minute() != 45 || got.Location() != loc {
		t.Errorf("date-time parsed as %v", got)
	}

	if _, err := ParseTimestamp("next tuesday", loc); !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("garbage input error = %v", err)
	}
}
