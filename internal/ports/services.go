package ports

import (
	"context"
	"time"

	"github.com/taskmaster/todos/internal/domain/entities"
)

// TodoService interface for todo store operations
type TodoService interface {
	Todos() []entities.Todo
	Get(id string) (entities.Todo, error)
	AddTodo(ctx context.Context, req CreateTodoRequest) (entities.Todo, error)
	UpdateTodo(ctx context.Context, id string, req UpdateTodoRequest) (entities.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	ToggleComplete(ctx context.Context, id string) (*ToggleResult, error)
	AddPendingRemoval(id string)
	RemovePendingRemoval(id string)
	PendingRemovals() []string
	View() ViewState
	UpdateView(req UpdateViewRequest) (ViewState, error)
	VisibleTodos() []entities.Todo
	Visible(opts ViewOptions) []entities.Todo
	Reload(ctx context.Context) error
}

// ListService interface for list store operations
type ListService interface {
	Lists() []entities.List
	SelectedListID() string
	SetSelectedList(id string) error
	AddList(ctx context.Context, req CreateListRequest) (entities.List, error)
	UpdateList(ctx context.Context, id string, req UpdateListRequest) (entities.List, error)
	DeleteList(ctx context.Context, id string) error
	Reload(ctx context.Context) error
}

// ListSelector exposes the currently selected list to the todo store.
type ListSelector interface {
	SelectedListID() string
}

// Request/Response Types

// Todo related types
type CreateTodoRequest struct {
	Title         string          `json:"title" validate:"required,max=200"`
	Notes         string          `json:"notes" validate:"max=1000"`
	DueDate       *time.Time      `json:"due_date"`
	NotifyEnabled bool            `json:"notify_enabled"`
	Repeat        entities.Repeat `json:"repeat" validate:"omitempty,oneof=never daily weekdays weekly"`
	ListID        *string         `json:"list_id"`
}

// UpdateTodoRequest is a partial update. Absent fields are left untouched;
// the Clear flags remove optional values.
type UpdateTodoRequest struct {
	Title         *string          `json:"title" validate:"omitempty,max=200"`
	Notes         *string          `json:"notes" validate:"omitempty,max=1000"`
	DueDate       *time.Time       `json:"due_date"`
	ClearDueDate  bool             `json:"clear_due_date"`
	NotifyEnabled *bool            `json:"notify_enabled"`
	Repeat        *entities.Repeat `json:"repeat" validate:"omitempty,oneof=never daily weekdays weekly"`
	ListID        *string          `json:"list_id"`
	ClearListID   bool             `json:"clear_list_id"`
}

type ToggleResult struct {
	Todo           entities.Todo  `json:"todo"`
	Successor      *entities.Todo `json:"successor,omitempty"`
	PendingRemoval bool           `json:"pending_removal"`
}

// ViewState is the store's current query, filter and sort selection.
type ViewState struct {
	Query  string             `json:"query"`
	Filter entities.Filter    `json:"filter"`
	Sort   entities.SortOrder `json:"sort"`
	ListID string             `json:"list_id"`
}

type UpdateViewRequest struct {
	Query  *string `json:"query" validate:"omitempty,max=200"`
	Filter *string `json:"filter" validate:"omitempty,oneof=today all done completed"`
	Sort   *string `json:"sort" validate:"omitempty,oneof=default dueDate alphabetical"`
}

// ViewOptions overrides the store's view state for a single evaluation.
// Zero fields fall back to the store's state.
type ViewOptions struct {
	Query  *string
	Filter entities.Filter
	Sort   entities.SortOrder
	ListID string
}

// List related types
type CreateListRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	IsDefault bool   `json:"is_default"`
}

type UpdateListRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=100"`
	IsDefault *bool   `json:"is_default"`
}

type SelectListRequest struct {
	ListID string `json:"list_id" validate:"required"`
}
