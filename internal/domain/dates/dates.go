// Package dates holds the calendar arithmetic and display formatting used for due dates.
//
// A due value whose hour and minute are both zero is date-only. All calendar
// comparisons happen in the location of the reference time passed in.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskmaster/todos/internal/domain/entities"
)

const (
	dateLayout      = "Jan 2, 2006"
	dateTimeLayout  = "Jan 2, 2006 3:04 PM"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// localLayouts are accepted by ParseTimestamp and read in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// IsDateOnly reports whether t carries no time of day.
func IsDateOnly(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0
}

// StartOfDay returns midnight of t's calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsOverdue reports whether due has passed at now. Timed values compare as
// instants; date-only values are overdue once their calendar date is before today.
func IsOverdue(due, now time.Time) bool {
	local := due.In(now.Location())
	if !IsDateOnly(local) {
		return local.Before(now)
	}
	return StartOfDay(local).Before(StartOfDay(now))
}

// NextOccurrence returns the next date for rule after t, on t's calendar.
// Wall-clock time is kept across daylight saving changes. The second result
// is false for never.
func NextOccurrence(t time.Time, rule entities.Repeat) (time.Time, bool) {
	switch rule {
	case entities.RepeatDaily:
		return t.AddDate(0, 0, 1), true
	case entities.RepeatWeekly:
		return t.AddDate(0, 0, 7), true
	case entities.RepeatWeekdays:
		next := t.AddDate(0, 0, 1)
		switch next.Weekday() {
		case time.Saturday:
			next = next.AddDate(0, 0, 2)
		case time.Sunday:
			next = next.AddDate(0, 0, 1)
		}
		return next, true
	default:
		return time.Time{}, false
	}
}

// FormatDate renders t relative to now: Today, Tomorrow, Yesterday, or "Jan 2, 2006".
func FormatDate(t, now time.Time) string {
	switch {
	case SameDay(t, now):
		return "Today"
	case SameDay(t, now.AddDate(0, 0, 1)):
		return "Tomorrow"
	case SameDay(t, now.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return t.In(now.Location()).Format(dateLayout)
	}
}

// FormatTime renders the 24-hour time of day without a leading zero on the hour.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}

// FormatDateTime renders t as an absolute date and 12-hour time in now's location.
func FormatDateTime(t, now time.Time) string {
	return t.In(now.Location()).Format(dateTimeLayout)
}

// FormatDue renders a due value for lists: the relative date, plus the time
// when the value is not date-only.
func FormatDue(due, now time.Time) string {
	local := due.In(now.Location())
	if IsDateOnly(local) {
		return FormatDate(local, now)
	}
	return FormatDate(local, now) + " " + FormatTime(local)
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with milliseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp accepts RFC 3339 timestamps and local date or date-time values,
// which are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
