// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/taskmaster/todos/internal/infrastructure/database"
	"github.com/taskmaster/todos/internal/ports"
)

// NewTestDB opens an in-memory SQLite database with all migrations applied.
// It is closed automatically when the test completes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	if err := database.MigrateUp(db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	return db
}

// SequentialIDs issues "id-1", "id-2", ...
type SequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

// Reminder is one reminder held by FakeReminders.
type Reminder struct {
	TodoID string
	Title  string
	Due    time.Time
}

// FakeReminders is an in-memory ReminderScheduler. Scheduling at or before
// Now returns no handle, like a real scheduler.
type FakeReminders struct {
	mu        sync.Mutex
	Now       func() time.Time
	Fail      error
	next      int
	Active    map[string]Reminder
	Cancelled []string
}

func NewFakeReminders(now func() time.Time) *FakeReminders {
	return &FakeReminders{Now: now, Active: make(map[string]Reminder)}
}

func (f *FakeReminders) Schedule(_ context.Context, todoID, title string, due time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Fail != nil {
		return "", f.Fail
	}
	if !due.After(f.Now()) {
		return "", nil
	}
	f.next++
	handle := fmt.Sprintf("reminder-%d", f.next)
	f.Active[handle] = Reminder{TodoID: todoID, Title: title, Due: due}
	return handle, nil
}

func (f *FakeReminders) Cancel(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.Active, handle)
	f.Cancelled = append(f.Cancelled, handle)
	return nil
}

// ActiveCount returns the number of reminders that are still scheduled.
func (f *FakeReminders) ActiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Active)
}

// InlineQueue runs every WriteOp synchronously and records the outcome.
type InlineQueue struct {
	mu     sync.Mutex
	Ops    []string
	Errors []error
}

func (q *InlineQueue) Enqueue(op ports.WriteOp) {
	err := op.Run(context.Background())

	q.mu.Lock()
	defer q.mu.Unlock()
	q.Ops = append(q.Ops, op.Name+":"+op.EntityID)
	if err != nil {
		q.Errors = append(q.Errors, err)
	}
}

func (q *InlineQueue) Flush(context.Context) error { return nil }

// Snapshot returns the recorded operation names.
func (q *InlineQueue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.Ops...)
}
