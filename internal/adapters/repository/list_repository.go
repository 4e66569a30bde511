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

// ListRepositoryImpl implements the ListRepository interface
type ListRepositoryImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewListRepository creates a new list repository
func NewListRepository(db *sqlx.DB) ports.ListRepository {
	return &ListRepositoryImpl{db: db, now: time.Now}
}

func (r *ListRepositoryImpl) LoadAll(ctx context.Context) ([]entities.List, error) {
	query := `SELECT id, name, is_default, created_at FROM lists ORDER BY created_at ASC`

	lists := []entities.List{}
	if err := r.db.SelectContext(ctx, &lists, query); err != nil {
		return nil, fmt.Errorf("load lists: %w", err)
	}
	return lists, nil
}

func (r *ListRepositoryImpl) Create(ctx context.Context, list entities.List) error {
	query := r.db.Rebind(`
		INSERT INTO lists (id, name, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		list.ID, list.Name, list.IsDefault, list.CreatedAt.UTC(), r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}

	return nil
}

func (r *ListRepositoryImpl) Update(ctx context.Context, id string, patch entities.ListPatch) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{r.now().UTC()}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.IsDefault != nil {
		sets = append(sets, "is_default = ?")
		args = append(args, *patch.IsDefault)
	}
	args = append(args, id)

	query := r.db.Rebind(`UPDATE lists SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrListNotFound
	}

	return nil
}

// Delete removes the list. Todos keep their list_id.
func (r *ListRepositoryImpl) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM lists WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrListNotFound
	}

	return nil
}
