package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Common errors
var (
	ErrTodoNotFound         = errors.New("todo not found")
	ErrListNotFound         = errors.New("list not found")
	ErrValidation           = errors.New("validation failed")
	ErrDefaultListProtected = errors.New("the default list cannot be deleted")
	ErrDefaultListRequired  = errors.New("a default list is required")
	ErrInvalidRepeat        = errors.New("invalid repeat rule")
	ErrInvalidFilter        = errors.New("invalid filter")
	ErrInvalidSortOrder     = errors.New("invalid sort order")
)

// EverythingListID selects the virtual union of all lists. It is never persisted.
const EverythingListID = "__everything__"

// DefaultListName is the name given to the list created on first run.
const DefaultListName = "Personal"

type Repeat string

const (
	RepeatNever    Repeat = "never"
	RepeatDaily    Repeat = "daily"
	RepeatWeekdays Repeat = "weekdays"
	RepeatWeekly   Repeat = "weekly"
)

type Filter string

const (
	FilterToday Filter = "today"
	FilterAll   Filter = "all"
	FilterDone  Filter = "done"
)

type SortOrder string

const (
	SortDefault      SortOrder = "default"
	SortDueDate      SortOrder = "dueDate"
	SortAlphabetical SortOrder = "alphabetical"
)

// ReminderState is the reminder lifecycle position of a todo.
type ReminderState string

const (
	ReminderNone      ReminderState = "active_no_reminder"
	ReminderScheduled ReminderState = "active_reminder"
	ReminderCompleted ReminderState = "completed"
)

// Todo is a single task owned by the store.
type Todo struct {
	ID             string     `json:"id" yaml:"id" db:"id"`
	Title          string     `json:"title" yaml:"title" db:"title"`
	Notes          string     `json:"notes,omitempty" yaml:"notes,omitempty" db:"notes"`
	DueDate        *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty" db:"due_date"`
	CreatedAt      time.Time  `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" yaml:"updated_at" db:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty" db:"completed_at"`
	Completed      bool       `json:"completed" yaml:"completed" db:"completed"`
	NotifyEnabled  bool       `json:"notify_enabled" yaml:"notify_enabled" db:"notify_enabled"`
	NotificationID string     `json:"notification_id,omitempty" yaml:"notification_id,omitempty" db:"notification_id"`
	Repeat         Repeat     `json:"repeat" yaml:"repeat" db:"repeat"`
	ListID         *string    `json:"list_id,omitempty" yaml:"list_id,omitempty" db:"list_id"`
}

// List groups todos. Exactly one list is the default.
type List struct {
	ID        string    `json:"id" yaml:"id" db:"id"`
	Name      string    `json:"name" yaml:"name" db:"name"`
	IsDefault bool      `json:"is_default" yaml:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" db:"created_at"`
}

// TodoPatch carries the fields of a partial todo update. Nil fields are left untouched.
type TodoPatch struct {
	Title          *string
	Notes          *string
	DueDate        *time.Time
	ClearDueDate   bool
	CompletedAt    *time.Time
	ClearCompleted bool
	Completed      *bool
	NotifyEnabled  *bool
	NotificationID *string
	Repeat         *Repeat
	ListID         *string
	ClearListID    bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Notes == nil && p.DueDate == nil && !p.ClearDueDate &&
		p.CompletedAt == nil && !p.ClearCompleted && p.Completed == nil &&
		p.NotifyEnabled == nil && p.NotificationID == nil && p.Repeat == nil &&
		p.ListID == nil && !p.ClearListID
}

// Apply writes the patch onto t.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.ClearCompleted {
		t.CompletedAt = nil
	} else if p.CompletedAt != nil {
		c := *p.CompletedAt
		t.CompletedAt = &c
	}
	if p.NotifyEnabled != nil {
		t.NotifyEnabled = *p.NotifyEnabled
	}
	if p.NotificationID != nil {
		t.NotificationID = *p.NotificationID
	}
	if p.Repeat != nil {
		t.Repeat = *p.Repeat
	}
	if p.ClearListID {
		t.ListID = nil
	} else if p.ListID != nil {
		id := *p.ListID
		t.ListID = &id
	}
}

// ListPatch carries the fields of a partial list update.
type ListPatch struct {
	Name      *string
	IsDefault *bool
}

// Apply writes the patch onto l.
func (p ListPatch) Apply(l *List) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.IsDefault != nil {
		l.IsDefault = *p.IsDefault
	}
}

// ValidationError reports rejected input fields before any mutation happens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Business methods

// MarkCompleted completes the todo and stamps CompletedAt. A completed todo
// never holds a reminder handle.
func (t *Todo) MarkCompleted(now time.Time) {
	t.Completed = true
	completedAt := now
	t.CompletedAt = &completedAt
	t.NotificationID = ""
}

// MarkActive reverts a completion. The reminder is not restored.
func (t *Todo) MarkActive() {
	t.Completed = false
	t.CompletedAt = nil
}

func (t *Todo) HasReminder() bool {
	return t.NotificationID != ""
}

// WantsReminder reports whether the todo should hold a reminder at now.
func (t *Todo) WantsReminder(now time.Time) bool {
	return !t.Completed && t.NotifyEnabled && t.DueDate != nil && t.DueDate.After(now)
}

func (t *Todo) ReminderState() ReminderState {
	switch {
	case t.Completed:
		return ReminderCompleted
	case t.HasReminder():
		return ReminderScheduled
	default:
		return ReminderNone
	}
}

// InList reports whether the todo is visible when listID is selected.
// Unassigned todos belong to every list.
func (t *Todo) InList(listID string) bool {
	if listID == "" || listID == EverythingListID || t.ListID == nil {
		return true
	}
	return *t.ListID == listID
}

// Clone returns a deep copy of the todo.
func (t Todo) Clone() Todo {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	if t.ListID != nil {
		id := *t.ListID
		c.ListID = &id
	}
	return c
}

// Validation methods

func (r Repeat) IsValid() bool {
	switch r {
	case RepeatNever, RepeatDaily, RepeatWeekdays, RepeatWeekly:
		return true
	}
	return false
}

// Normalize maps the empty rule to never.
func (r Repeat) Normalize() Repeat {
	if r == "" {
		return RepeatNever
	}
	return r
}

// ParseRepeat parses a repeat rule; the empty string means never.
func ParseRepeat(s string) (Repeat, error) {
	r := Repeat(strings.TrimSpace(s)).Normalize()
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepeat, s)
	}
	return r, nil
}

func (f Filter) IsValid() bool {
	switch f {
	case FilterToday, FilterAll, FilterDone:
		return true
	}
	return false
}

// ParseFilter parses a filter name. The legacy name "completed" reads as done.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "completed" {
		return FilterDone, nil
	}
	f := Filter(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
	return f, nil
}

func (s SortOrder) IsValid() bool {
	switch s {
	case SortDefault, SortDueDate, SortAlphabetical:
		return true
	}
	return false
}

func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(strings.TrimSpace(s))
	if !o.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
	}
	return o, nil
}
