package reminder

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

// Reminder is a scheduled notification for one todo.
type Reminder struct {
	Handle string
	TodoID string
	Title  string
	Due    time.Time
}

// DeliverFunc is called when a reminder comes due.
type DeliverFunc func(Reminder)

// once fires a single time at a fixed instant.
type once struct {
	at time.Time
}

func (o once) Next(t time.Time) time.Time {
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}

type metrics struct {
	scheduled prometheus.Counter
	cancelled prometheus.Counter
	fired     prometheus.Counter
}

// CronScheduler implements ports.ReminderScheduler on top of robfig/cron.
// The handle is the cron entry id.
type CronScheduler struct {
	cron    *cron.Cron
	clock   ports.Clock
	logger  *logger.Logger
	deliver DeliverFunc
	metrics metrics

	mu      sync.Mutex
	entries map[cron.EntryID]Reminder
}

// NewCronScheduler creates a stopped scheduler. A nil deliver logs reminders.
func NewCronScheduler(clock ports.Clock, loc *time.Location, log *logger.Logger, reg prometheus.Registerer, deliver DeliverFunc) *CronScheduler {
	if loc == nil {
		loc = time.Local
	}
	s := &CronScheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		clock:   clock,
		logger:  log.WithComponent("reminders"),
		entries: make(map[cron.EntryID]Reminder),
		metrics: metrics{
			scheduled: prometheus.NewCounter(prometheus.CounterOpts{Name: "todos_reminders_scheduled_total", Help: "Reminders scheduled"}),
			cancelled: prometheus.NewCounter(prometheus.CounterOpts{Name: "todos_reminders_cancelled_total", Help: "Reminders cancelled before firing"}),
			fired:     prometheus.NewCounter(prometheus.CounterOpts{Name: "todos_reminders_fired_total", Help: "Reminders delivered"}),
		},
	}
	if reg != nil {
		reg.MustRegister(s.metrics.scheduled, s.metrics.cancelled, s.metrics.fired)
	}
	s.deliver = deliver
	if s.deliver == nil {
		s.deliver = s.logReminder
	}
	return s
}

func (s *CronScheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running deliveries.
func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Schedule registers a reminder. It returns an empty handle when due is not
// in the future.
func (s *CronScheduler) Schedule(_ context.Context, todoID, title string, due time.Time) (string, error) {
	if !due.After(s.clock.Now()) {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id cron.EntryID
	job := func() {
		s.mu.Lock()
		entryID := id
		s.mu.Unlock()
		s.fire(entryID)
	}
	id = s.cron.Schedule(once{at: due}, cron.FuncJob(job))
	handle := strconv.Itoa(int(id))
	s.entries[id] = Reminder{Handle: handle, TodoID: todoID, Title: title, Due: due}
	s.metrics.scheduled.Inc()

	s.logger.Debugw("Reminder scheduled", "todo_id", todoID, "handle", handle, "due", due)
	return handle, nil
}

// Cancel removes a pending reminder. Unknown handles are ignored.
func (s *CronScheduler) Cancel(_ context.Context, handle string) error {
	n, err := strconv.Atoi(handle)
	if err != nil {
		return fmt.Errorf("invalid reminder handle %q: %w", handle, err)
	}
	id := cron.EntryID(n)

	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if ok {
		s.cron.Remove(id)
		s.metrics.cancelled.Inc()
		s.logger.Debugw("Reminder cancelled", "handle", handle)
	}
	return nil
}

// Pending returns the reminders that have not fired or been cancelled.
func (s *CronScheduler) Pending() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reminder, 0, len(s.entries))
	for _, r := range s.entries {
		out = append(out, r)
	}
	return out
}

func (s *CronScheduler) fire(id cron.EntryID) {
	s.mu.Lock()
	r, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	s.cron.Remove(id)
	if !ok {
		return
	}

	s.metrics.fired.Inc()
	s.deliver(r)
}

func (s *CronScheduler) logReminder(r Reminder) {
	s.logger.Infow("Reminder due", "todo_id", r.TodoID, "title", r.Title, "due", r.Due)
}

var _ ports.ReminderScheduler = (*CronScheduler)(nil)
