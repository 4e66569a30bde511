package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/testutil"
)

func strp(s string) *string { return &s }

func find(t *testing.T, todos []entities.Todo, id string) entities.Todo {
	t.Helper()
	for _, td := range todos {
		if td.ID == id {
			return td
		}
	}
	t.Fatalf("todo %s not found", id)
	return entities.Todo{}
}

func TestTodoRepositoryCreateAndLoad(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTodoRepository(db.DB)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	due := base.Add(26 * time.Hour)

	older := entities.Todo{ID: "older", Title: "Pay rent", CreatedAt: base, Repeat: entities.RepeatNever}
	newer := entities.Todo{
		ID:             "newer",
		Title:          "Dentist",
		Notes:          "bring card",
		DueDate:        &due,
		CreatedAt:      base.Add(time.Hour),
		NotifyEnabled:  true,
		NotificationID: "r-1",
		Repeat:         entities.RepeatWeekly,
		ListID:         strp("home"),
	}

	for _, td := range []entities.Todo{older, newer} {
		if err := repo.Create(ctx, td); err != nil {
			t.Fatalf("Create(%s) error = %v", td.ID, err)
		}
	}

	todos, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(todos) != 2 || todos[0].ID != "newer" || todos[1].ID != "older" {
		t.Fatalf("LoadAll() order = %+v, want newest first", todos)
	}

	got := todos[0]
	if got.Title != "Dentist" || got.Notes != "bring card" || !got.NotifyEnabled || got.NotificationID != "r-1" {
		t.Errorf("scalar fields lost: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", got.DueDate, due)
	}
	if got.Repeat != entities.RepeatWeekly || got.ListID == nil || *got.ListID != "home" {
		t.Errorf("repeat/list = %q/%v", got.Repeat, got.ListID)
	}
	if todos[1].DueDate != nil || todos[1].ListID != nil || todos[1].Completed {
		t.Errorf("optional fields should be empty: %+v", todos[1])
	}
}

func TestTodoRepositoryPartialUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTodoRepository(db.DB)
	ctx := context.Background()

	created := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	due := created.Add(time.Hour)
	if err := repo.Create(ctx, entities.Todo{ID: "a", Title: "Draft", Notes: "keep me", DueDate: &due, CreatedAt: created, ListID: strp("l1")}); err != nil {
		t.Fatal(err)
	}

	completed := true
	completedAt := created.Add(2 * time.Hour)
	patch := entities.TodoPatch{
		Title:        strp("Final"),
		Completed:    &completed,
		CompletedAt:  &completedAt,
		ClearDueDate: true,
		ClearListID:  true,
	}
	if err := repo.Update(ctx, "a", patch); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	todos, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := find(t, todos, "a")
	if got.Title != "Final" || got.Notes != "keep me" {
		t.Errorf("title/notes = %q/%q", got.Title, got.Notes)
	}
	if !got.Completed || got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Errorf("completion = %v/%v", got.Completed, got.CompletedAt)
	}
	if got.DueDate != nil || got.ListID != nil {
		t.Errorf("cleared fields survived: due=%v list=%v", got.DueDate, got.ListID)
	}

	uncompleted := false
	if err := repo.Update(ctx, "a", entities.TodoPatch{Completed: &uncompleted, ClearCompleted: true}); err != nil {
		t.Fatal(err)
	}
	todos, _ = repo.LoadAll(ctx)
	if got := find(t, todos, "a"); got.Completed || got.CompletedAt != nil {
		t.Errorf("uncomplete not persisted: %+v", got)
	}
}

func TestTodoRepositoryMissingRows(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTodoRepository(db.DB)
	ctx := context.Background()

	if err := repo.Update(ctx, "ghost", entities.TodoPatch{Title: strp("x")}); !errors.Is(err, entities.ErrTodoNotFound) {
		t.Errorf("Update(ghost) error = %v", err)
	}
	if err := repo.Delete(ctx, "ghost"); !errors.Is(err, entities.ErrTodoNotFound) {
		t.Errorf("Delete(ghost) error = %v", err)
	}
}

func TestTodoRepositoryDeleteAndAssignUnlisted(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTodoRepository(db.DB)
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	seed := []entities.Todo{
		{ID: "loose-1", Title: "a", CreatedAt: now},
		{ID: "loose-2", Title: "b", CreatedAt: now.Add(time.Second)},
		{ID: "placed", Title: "c", CreatedAt: now.Add(2 * time.Second), ListID: strp("work")},
		{ID: "gone", Title: "d", CreatedAt: now.Add(3 * time.Second)},
	}
	for _, td := range seed {
		if err := repo.Create(ctx, td); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	n, err := repo.AssignUnlisted(ctx, "personal")
	if err != nil {
		t.Fatalf("AssignUnlisted() error = %v", err)
	}
	if n != 2 {
		t.Errorf("AssignUnlisted() moved %d todos, want 2", n)
	}

	todos, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 3 {
		t.Fatalf("expected 3 todos after delete, got %d", len(todos))
	}
	if got := find(t, todos, "placed"); *got.ListID != "work" {
		t.Errorf("assigned todo moved to %q", *got.ListID)
	}
	if got := find(t, todos, "loose-1"); got.ListID == nil || *got.ListID != "personal" {
		t.Errorf("loose todo list = %v", got.ListID)
	}
}
