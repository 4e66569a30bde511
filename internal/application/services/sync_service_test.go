package services

import (
	"context"
	"errors"
	"testing"

	"github.com/taskmaster/todos/internal/infrastructure/logger"
)

type feedFunc func(ctx context.Context, onChange func()) error

func (f feedFunc) Run(ctx context.Context, onChange func()) error { return f(ctx, onChange) }

type countingStore struct {
	name  string
	calls *[]string
	err   error
}

func (s countingStore) Reload(context.Context) error {
	*s.calls = append(*s.calls, s.name)
	return s.err
}

func TestSyncServiceReloadsEveryStoreOnChange(t *testing.T) {
	var calls []string
	feed := feedFunc(func(ctx context.Context, onChange func()) error {
		onChange()
		onChange()
		return nil
	})

	s := NewSyncService(feed, logger.NewNop(),
		countingStore{name: "lists", calls: &calls, err: errors.New("offline")},
		countingStore{name: "todos", calls: &calls},
	)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"lists", "todos", "lists", "todos"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestSyncServiceReturnsFeedError(t *testing.T) {
	boom := errors.New("listen failed")
	s := NewSyncService(feedFunc(func(context.Context, func()) error { return boom }), logger.NewNop())

	if err := s.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
}
