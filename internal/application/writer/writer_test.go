package writer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/infrastructure/config"
	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

func newQueue(t *testing.T, cfg config.WriterConfig) *Queue {
	t.Helper()

	q := New(cfg, logger.FromZap(zaptest.NewLogger(t)), prometheus.NewRegistry())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := q.Close(ctx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return q
}

func fastConfig() config.WriterConfig {
	return config.WriterConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestQueueRunsInEnqueueOrder(t *testing.T) {
	q := newQueue(t, fastConfig())

	var mu sync.Mutex
	var order []string
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("op-%02d", i)
		q.Enqueue(ports.WriteOp{Name: "update", EntityID: name, Run: func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}})
	}

	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 20 {
		t.Fatalf("ran %d ops, want 20", len(order))
	}
	for i, name := range order {
		if want := fmt.Sprintf("op-%02d", i); name != want {
			t.Fatalf("order[%d] = %s, want %s", i, name, want)
		}
	}
	if got := promtest.ToFloat64(q.metrics.operations.WithLabelValues("update", "success")); got != 20 {
		t.Errorf("success counter = %v, want 20", got)
	}
}

func TestQueueRetriesTransientFailures(t *testing.T) {
	q := newQueue(t, fastConfig())

	calls := 0
	q.Enqueue(ports.WriteOp{Name: "create", EntityID: "a", Run: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	}})
	if err := q.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if got := promtest.ToFloat64(q.metrics.retries); got != 2 {
		t.Errorf("retries = %v, want 2", got)
	}
	if got := promtest.ToFloat64(q.metrics.operations.WithLabelValues("create", "success")); got != 1 {
		t.Errorf("success counter = %v, want 1", got)
	}
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	q := newQueue(t, fastConfig())

	calls := 0
	q.Enqueue(ports.WriteOp{Name: "delete", EntityID: "a", Run: func(context.Context) error {
		calls++
		return errors.New("database down")
	}})
	after := false
	q.Enqueue(ports.WriteOp{Name: "create", EntityID: "b", Run: func(context.Context) error {
		after = true
		return nil
	}})
	if err := q.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !after {
		t.Error("queue stalled behind a failed operation")
	}
	if got := promtest.ToFloat64(q.metrics.operations.WithLabelValues("delete", "failure")); got != 1 {
		t.Errorf("failure counter = %v, want 1", got)
	}
}

func TestQueueDoesNotRetryMissingRows(t *testing.T) {
	q := newQueue(t, fastConfig())

	calls := 0
	q.Enqueue(ports.WriteOp{Name: "update", EntityID: "ghost", Run: func(context.Context) error {
		calls++
		return fmt.Errorf("update: %w", entities.ErrTodoNotFound)
	}})
	if err := q.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestQueueLogsAttemptThatFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int64
	}{
		{"missing row stops at first attempt", entities.ErrTodoNotFound, 1},
		{"transient error uses every attempt", errors.New("database down"), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			q := New(fastConfig(), logger.FromZap(zap.New(core)), prometheus.NewRegistry())
			defer q.Close(context.Background())

			q.Enqueue(ports.WriteOp{Name: "update", EntityID: "a", Run: func(context.Context) error {
				return tt.err
			}})
			if err := q.Flush(context.Background()); err != nil {
				t.Fatal(err)
			}

			failed := logs.FilterMessage("Persistence call failed").All()
			if len(failed) != 1 {
				t.Fatalf("failure logs = %d, want 1", len(failed))
			}
			if got := failed[0].ContextMap()["attempt"]; got != tt.want {
				t.Errorf("attempt = %v, want %d", got, tt.want)
			}
		})
	}
}

func TestQueueCloseDrainsAndRejects(t *testing.T) {
	q := New(fastConfig(), logger.NewNop(), nil)

	ran := 0
	for i := 0; i < 5; i++ {
		q.Enqueue(ports.WriteOp{Name: "create", Run: func(context.Context) error {
			ran++
			return nil
		}})
	}

	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if ran != 5 {
		t.Errorf("ran = %d, want 5 drained before close", ran)
	}

	q.Enqueue(ports.WriteOp{Name: "create", Run: func(context.Context) error {
		ran++
		return nil
	}})
	if ran != 5 {
		t.Error("operation ran after close")
	}
	if err := q.Flush(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush() after close error = %v, want ErrClosed", err)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	q := &Queue{cfg: config.WriterConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := q.backoff(i + 1); got != w {
			t.Errorf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}
