// Package writer runs persistence calls in the background so that store
// mutations never wait on I/O. Operations run one at a time in enqueue order.
// A failing operation is retried with exponential backoff; once attempts are
// exhausted the failure is logged and counted, and the queue moves on.
package writer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/infrastructure/config"
	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

var ErrClosed = errors.New("write queue closed")

type job struct {
	op      ports.WriteOp
	barrier chan struct{}
}

type metrics struct {
	operations *prometheus.CounterVec
	retries    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todos_persistence_operations_total",
				Help: "Background persistence operations by name and result",
			},
			[]string{"op", "result"},
		),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todos_persistence_retries_total",
			Help: "Persistence attempts that were retried",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.retries)
	}
	return m
}

// Queue is a single-worker FIFO of persistence operations.
type Queue struct {
	cfg     config.WriterConfig
	logger  *logger.Logger
	limiter *rate.Limiter
	metrics *metrics

	mu      sync.Mutex
	pending []job
	closed  bool
	wake    chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// New starts the worker. reg may be nil.
func New(cfg config.WriterConfig, log *logger.Logger, reg prometheus.Registerer) *Queue {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		cfg:     cfg,
		logger:  log.WithComponent("writer"),
		limiter: limiter,
		metrics: newMetrics(reg),
		wake:    make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go q.loop(ctx)
	return q
}

// Enqueue schedules op. It never blocks. Operations enqueued after Close are
// dropped and logged.
func (q *Queue) Enqueue(op ports.WriteOp) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Errorw("Dropping write after close", "op", op.Name, "entity_id", op.EntityID)
		q.metrics.operations.WithLabelValues(op.Name, "dropped").Inc()
		return
	}
	q.pending = append(q.pending, job{op: op})
	q.mu.Unlock()
	q.signal()
}

// Flush blocks until every operation enqueued before the call has finished.
func (q *Queue) Flush(ctx context.Context) error {
	barrier := make(chan struct{})

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, job{barrier: barrier})
	q.mu.Unlock()
	q.signal()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of operations waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close drains the queue and stops the worker. If ctx ends first, the
// remaining operations are abandoned.
func (q *Queue) Close(ctx context.Context) error {
	err := q.Flush(ctx)
	if errors.Is(err, ErrClosed) {
		return nil
	}

	q.mu.Lock()
	q.closed = true
	abandoned := len(q.pending)
	q.mu.Unlock()

	q.cancel()
	<-q.done

	if abandoned > 0 {
		q.logger.Warnw("Abandoned pending writes on close", "count", abandoned)
	}
	return err
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) next(ctx context.Context) (job, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			j := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return j, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return job{}, false
		}
	}
}

func (q *Queue) loop(ctx context.Context) {
	defer close(q.done)

	for {
		j, ok := q.next(ctx)
		if !ok {
			return
		}
		if j.barrier != nil {
			close(j.barrier)
			continue
		}
		q.run(ctx, j.op)
	}
}

func (q *Queue) run(ctx context.Context, op ports.WriteOp) {
	var err error
	tried := 0
attempts:
	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		if q.limiter != nil {
			if werr := q.limiter.Wait(ctx); werr != nil {
				err = werr
				break attempts
			}
		}

		err = op.Run(ctx)
		tried = attempt
		if err == nil {
			q.logger.LogPersistence(op.Name, op.EntityID, attempt, nil)
			q.metrics.operations.WithLabelValues(op.Name, "success").Inc()
			return
		}
		if permanent(err) || attempt == q.cfg.MaxAttempts {
			break attempts
		}

		q.metrics.retries.Inc()
		q.logger.Warnw("Retrying persistence call", "op", op.Name, "entity_id", op.EntityID, "attempt", attempt, "error", err)

		timer := time.NewTimer(q.backoff(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			err = ctx.Err()
			break attempts
		}
	}

	q.logger.LogPersistence(op.Name, op.EntityID, tried, err)
	q.metrics.operations.WithLabelValues(op.Name, "failure").Inc()
}

// backoff doubles BaseDelay per attempt, capped at MaxDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	d := q.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if q.cfg.MaxDelay > 0 && d >= q.cfg.MaxDelay {
			return q.cfg.MaxDelay
		}
	}
	return d
}

// Missing rows will not appear on retry.
func permanent(err error) bool {
	return errors.Is(err, entities.ErrTodoNotFound) || errors.Is(err, entities.ErrListNotFound)
}

var _ ports.WriteQueue = (*Queue)(nil)
