// Package recurrence derives the follow-up todo created when a repeating todo is completed.
package recurrence

import (
	"time"

	"github.com/taskmaster/todos/internal/domain/dates"
	"github.com/taskmaster/todos/internal/domain/entities"
)

// Successor builds the next instance of src. It reports false when src does not
// repeat, has no due date, or its rule yields no next date. The successor never
// carries a reminder handle; callers request one through NeedsReminder.
//
// The next date is computed on now's calendar, so now must carry the user's
// location. Stored due dates come back in UTC.
func Successor(src entities.Todo, id string, now time.Time) (entities.Todo, bool) {
	rule := src.Repeat.Normalize()
	if rule == entities.RepeatNever || src.DueDate == nil {
		return entities.Todo{}, false
	}

	due, ok := dates.NextOccurrence(src.DueDate.In(now.Location()), rule)
	if !ok {
		return entities.Todo{}, false
	}

	next := entities.Todo{
		ID:            id,
		Title:         src.Title,
		Notes:         src.Notes,
		DueDate:       &due,
		CreatedAt:     now,
		UpdatedAt:     now,
		NotifyEnabled: src.NotifyEnabled,
		Repeat:        rule,
	}
	if src.ListID != nil {
		listID := *src.ListID
		next.ListID = &listID
	}
	return next, true
}

// NeedsReminder reports whether a reminder should be requested for t at now.
func NeedsReminder(t entities.Todo, now time.Time) bool {
	return t.WantsReminder(now)
}
