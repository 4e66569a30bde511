package ports

import (
	"context"
	"time"

	"github.com/taskmaster/todos/internal/domain/entities"
)

// TodoRepository defines the persistence operations for todos
type TodoRepository interface {
	// LoadAll returns every todo, newest first.
	LoadAll(ctx context.Context) ([]entities.Todo, error)
	Create(ctx context.Context, todo entities.Todo) error
	Update(ctx context.Context, id string, patch entities.TodoPatch) error
	Delete(ctx context.Context, id string) error
	// AssignUnlisted moves every todo without a list into listID.
	AssignUnlisted(ctx context.Context, listID string) (int64, error)
}

// ListRepository defines the persistence operations for lists
type ListRepository interface {
	// LoadAll returns every list, oldest first.
	LoadAll(ctx context.Context) ([]entities.List, error)
	Create(ctx context.Context, list entities.List) error
	Update(ctx context.Context, id string, patch entities.ListPatch) error
	Delete(ctx context.Context, id string) error
}

// ReminderScheduler arranges a one-shot reminder for a todo. Schedule returns
// an empty handle when due is not in the future.
type ReminderScheduler interface {
	Schedule(ctx context.Context, todoID, title string, due time.Time) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// ChangeFeed reports remote changes. Run blocks until ctx is done and calls
// onChange, without payload, for every change it observes.
type ChangeFeed interface {
	Run(ctx context.Context, onChange func()) error
}

// IDGenerator produces a unique opaque identifier per call.
type IDGenerator interface {
	NewID() string
}

// Clock is the single source of "now".
type Clock interface {
	Now() time.Time
}

// WriteOp is one deferred persistence call.
type WriteOp struct {
	Name     string
	EntityID string
	Run      func(ctx context.Context) error
}

// WriteQueue runs persistence calls off the caller's path, in enqueue order.
type WriteQueue interface {
	Enqueue(op WriteOp)
	// Flush blocks until every operation enqueued before the call has finished.
	Flush(ctx context.Context) error
}
