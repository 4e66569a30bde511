package entities

import (
	"errors"
	"testing"
	"time"
)

func TestTodoCompletionLifecycle(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(time.Hour)
	todo := Todo{ID: "a", Title: "water plants", DueDate: &due, NotifyEnabled: true, NotificationID: "7"}

	if got := todo.ReminderState(); got != ReminderScheduled {
		t.Fatalf("initial state = %s, want %s", got, ReminderScheduled)
	}

	todo.MarkCompleted(now)
	if !todo.Completed || todo.CompletedAt == nil || !todo.CompletedAt.Equal(now) {
		t.Fatalf("completion not stamped: %+v", todo)
	}
	if todo.HasReminder() {
		t.Errorf("completed todo still holds reminder %q", todo.NotificationID)
	}
	if got := todo.ReminderState(); got != ReminderCompleted {
		t.Errorf("state = %s, want %s", got, ReminderCompleted)
	}

	todo.MarkActive()
	if todo.Completed || todo.CompletedAt != nil {
		t.Fatalf("uncomplete left completion data: %+v", todo)
	}
	if got := todo.ReminderState(); got != ReminderNone {
		t.Errorf("state after uncomplete = %s, want %s", got, ReminderNone)
	}
}

func TestWantsReminder(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	tests := []struct {
		name string
		todo Todo
		want bool
	}{
		{"future due with notify", Todo{NotifyEnabled: true, DueDate: &future}, true},
		{"notify without due", Todo{NotifyEnabled: true}, false},
		{"past due", Todo{NotifyEnabled: true, DueDate: &past}, false},
		{"due equals now", Todo{NotifyEnabled: true, DueDate: &now}, false},
		{"notify disabled", Todo{DueDate: &future}, false},
		{"completed", Todo{NotifyEnabled: true, DueDate: &future, Completed: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.todo.WantsReminder(now); got != tt.want {
				t.Errorf("WantsReminder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTodoPatchApply(t *testing.T) {
	due := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	list := "l1"
	todo := Todo{ID: "a", Title: "old", Notes: "n", DueDate: &due, ListID: &list}

	title := "new"
	repeat := RepeatWeekly
	TodoPatch{Title: &title, Repeat: &repeat, ClearDueDate: true, ClearListID: true}.Apply(&todo)

	if todo.Title != "new" || todo.Repeat != RepeatWeekly {
		t.Errorf("fields not applied: %+v", todo)
	}
	if todo.DueDate != nil || todo.ListID != nil {
		t.Errorf("clear flags ignored: due=%v list=%v", todo.DueDate, todo.ListID)
	}
	if todo.Notes != "n" {
		t.Errorf("untouched field changed: notes=%q", todo.Notes)
	}
	if !(TodoPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	list := "l1"
	orig := Todo{ID: "a", DueDate: &due, ListID: &list}

	c := orig.Clone()
	*c.ListID = "other"
	*c.DueDate = due.AddDate(0, 0, 1)

	if *orig.ListID != "l1" || !orig.DueDate.Equal(due) {
		t.Errorf("clone shares pointers with original: %+v", orig)
	}
}

func TestInList(t *testing.T) {
	list := "work"
	assigned := Todo{ListID: &list}
	unassigned := Todo{}

	if !assigned.InList(EverythingListID) || !assigned.InList("") {
		t.Error("everything view must include assigned todos")
	}
	if assigned.InList("home") {
		t.Error("todo leaked into another list")
	}
	if !unassigned.InList("home") {
		t.Error("unassigned todos belong to every list")
	}
}

func TestParsers(t *testing.T) {
	if f, err := ParseFilter("completed"); err != nil || f != FilterDone {
		t.Errorf("ParseFilter(completed) = %q, %v", f, err)
	}
	if _, err := ParseFilter("someday"); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("ParseFilter(someday) error = %v", err)
	}
	if r, err := ParseRepeat(""); err != nil || r != RepeatNever {
		t.Errorf("ParseRepeat(\"\") = %q, %v", r, err)
	}
	if _, err := ParseRepeat("monthly"); !errors.Is(err, ErrInvalidRepeat) {
		t.Errorf("ParseRepeat(monthly) error = %v", err)
	}
	if s, err := ParseSortOrder("dueDate"); err != nil || s != SortDueDate {
		t.Errorf("ParseSortOrder(dueDate) = %q, %v", s, err)
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "required", "notes": "max"}}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("validation error should match ErrValidation")
	}
	want := "validation failed: notes: max; title: required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
