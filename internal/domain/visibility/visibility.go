// Package visibility turns the full todo collection into the ordered list a
// client displays. Apply is pure: it never mutates its input and returns the
// same result for the same inputs.
package visibility

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/taskmaster/todos/internal/domain/entities"
)

// Query describes one evaluation of the pipeline.
type Query struct {
	Text    string
	Filter  entities.Filter
	Sort    entities.SortOrder
	ListID  string
	Pending map[string]bool
	Now     time.Time
	// Language drives alphabetical collation. The zero tag means English.
	Language language.Tag
}

// Apply runs list scoping, text search, status filtering and ordering, in that order.
func Apply(todos []entities.Todo, q Query) []entities.Todo {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]entities.Todo, 0, len(todos))
	for _, t := range todos {
		if !t.InList(q.ListID) {
			continue
		}
		if text != "" && !matches(t, text) {
			continue
		}
		if !keep(t, q) {
			continue
		}
		out = append(out, t)
	}

	order(out, q)
	return out
}

func matches(t entities.Todo, text string) bool {
	return strings.Contains(strings.ToLower(t.Title), text) ||
		strings.Contains(strings.ToLower(t.Notes), text)
}

func keep(t entities.Todo, q Query) bool {
	switch q.Filter {
	case entities.FilterDone:
		return t.Completed
	case entities.FilterToday:
		if q.Pending[t.ID] {
			return true
		}
		return !t.Completed && t.DueDate != nil && !t.DueDate.After(q.Now)
	default:
		return q.Pending[t.ID] || !t.Completed
	}
}

// order sorts each run of todos between pending-removal entries on its own.
// Pending todos never move and nothing is moved across them.
func order(todos []entities.Todo, q Query) {
	less := comparator(q)
	start := 0
	for i := 0; i <= len(todos); i++ {
		if i < len(todos) && !q.Pending[todos[i].ID] {
			continue
		}
		run := todos[start:i]
		sort.SliceStable(run, func(a, b int) bool { return less(run[a], run[b]) })
		start = i + 1
	}
}

func comparator(q Query) func(a, b entities.Todo) bool {
	switch q.Sort {
	case entities.SortDueDate:
		return byDueDate
	case entities.SortAlphabetical:
		tag := q.Language
		if tag == language.Und {
			tag = language.English
		}
		c := collate.New(tag)
		return func(a, b entities.Todo) bool {
			return c.CompareString(a.Title, b.Title) < 0
		}
	default:
		return byDefault
	}
}

func byDefault(a, b entities.Todo) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}
	if !a.Completed {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return completedAt(a).Before(completedAt(b))
}

func completedAt(t entities.Todo) time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	return t.CreatedAt
}

func byDueDate(a, b entities.Todo) bool {
	switch {
	case a.DueDate == nil:
		return false
	case b.DueDate == nil:
		return true
	default:
		return a.DueDate.Before(*b.DueDate)
	}
}
