package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/ports"
)

const todoColumns = `id, title, notes, due_date, created_at, updated_at, completed_at,
	completed, notify_enabled, notification_id, repeat, list_id`

// TodoRepositoryImpl implements the TodoRepository interface. Queries are
// written with ? placeholders and rebound for the connection's driver.
type TodoRepositoryImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *sqlx.DB) ports.TodoRepository {
	return &TodoRepositoryImpl{db: db, now: time.Now}
}

func (r *TodoRepositoryImpl) LoadAll(ctx context.Context) ([]entities.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos ORDER BY created_at DESC`

	todos := []entities.Todo{}
	if err := r.db.SelectContext(ctx, &todos, query); err != nil {
		return nil, fmt.Errorf("load todos: %w", err)
	}

	for i := range todos {
		todos[i].Repeat = todos[i].Repeat.Normalize()
	}
	return todos, nil
}

func (r *TodoRepositoryImpl) Create(ctx context.Context, todo entities.Todo) error {
	query := r.db.Rebind(`
		INSERT INTO todos (` + todoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	updatedAt := todo.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}

	_, err := r.db.ExecContext(ctx, query,
		todo.ID, todo.Title, todo.Notes, utcPtr(todo.DueDate),
		todo.CreatedAt.UTC(), updatedAt.UTC(), utcPtr(todo.CompletedAt),
		todo.Completed, todo.NotifyEnabled, todo.NotificationID,
		string(todo.Repeat.Normalize()), nullString(todo.ListID),
	)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}

	return nil
}

// Update writes only the fields present in patch.
func (r *TodoRepositoryImpl) Update(ctx context.Context, id string, patch entities.TodoPatch) error {
	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	if patch.ClearDueDate {
		set("due_date", nil)
	} else if patch.DueDate != nil {
		set("due_date", patch.DueDate.UTC())
	}
	if patch.Completed != nil {
		set("completed", *patch.Completed)
	}
	if patch.ClearCompleted {
		set("completed_at", nil)
	} else if patch.CompletedAt != nil {
		set("completed_at", patch.CompletedAt.UTC())
	}
	if patch.NotifyEnabled != nil {
		set("notify_enabled", *patch.NotifyEnabled)
	}
	if patch.NotificationID != nil {
		set("notification_id", *patch.NotificationID)
	}
	if patch.Repeat != nil {
		set("repeat", string(patch.Repeat.Normalize()))
	}
	if patch.ClearListID {
		set("list_id", nil)
	} else if patch.ListID != nil {
		set("list_id", *patch.ListID)
	}
	set("updated_at", r.now().UTC())
	args = append(args, id)

	query := r.db.Rebind(`UPDATE todos SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTodoNotFound
	}

	return nil
}

func (r *TodoRepositoryImpl) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM todos WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTodoNotFound
	}

	return nil
}

func (r *TodoRepositoryImpl) AssignUnlisted(ctx context.Context, listID string) (int64, error) {
	query := r.db.Rebind(`UPDATE todos SET list_id = ?, updated_at = ? WHERE list_id IS NULL`)

	result, err := r.db.ExecContext(ctx, query, listID, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("assign unlisted todos: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
