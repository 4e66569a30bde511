package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

const fingerprintQuery = `
	SELECT
		(SELECT COUNT(*) FROM todos) || ':' ||
		(SELECT COALESCE(CAST(MAX(updated_at) AS TEXT), '') FROM todos) || ':' ||
		(SELECT COUNT(*) FROM lists) || ':' ||
		(SELECT COALESCE(CAST(MAX(updated_at) AS TEXT), '') FROM lists)`

// Poller detects changes made by other processes sharing a database that has
// no notification channel, such as SQLite. It compares a cheap fingerprint of
// the todos and lists tables on every tick.
type Poller struct {
	db        *sqlx.DB
	interval  time.Duration
	logger    *logger.Logger
	triggerCh chan struct{}

	mu        sync.Mutex
	last      string
	seeded    bool
	lastCheck time.Time
	lastErr   error
}

// NewPoller creates a poller. Intervals below 100ms are raised to 100ms.
func NewPoller(db *sqlx.DB, interval time.Duration, log *logger.Logger) *Poller {
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	return &Poller{
		db:        db,
		interval:  interval,
		logger:    log.WithComponent("poller"),
		triggerCh: make(chan struct{}, 1),
	}
}

// Run polls until ctx is done, calling onChange whenever the fingerprint
// moves. It also calls onChange once after the baseline is taken, covering
// writes made before polling began.
func (p *Poller) Run(ctx context.Context, onChange func()) error {
	if _, err := p.Check(ctx); err != nil {
		return err
	}
	onChange()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.triggerCh:
		}

		changed, err := p.Check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warnw("Change poll failed", "error", err)
			continue
		}
		if changed {
			onChange()
		}
	}
}

// Refresh asks a running poller to check immediately.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A check is already queued
	}
}

// Check reads the fingerprint and reports whether it differs from the last
// one seen. The first call only records a baseline.
func (p *Poller) Check(ctx context.Context) (bool, error) {
	var fp string
	err := p.db.GetContext(ctx, &fp, fingerprintQuery)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastCheck = time.Now()
	p.lastErr = err
	if err != nil {
		return false, fmt.Errorf("read change fingerprint: %w", err)
	}

	changed := p.seeded && fp != p.last
	p.last = fp
	p.seeded = true
	return changed, nil
}

// Status returns the time and error of the most recent check.
func (p *Poller) Status() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCheck, p.lastErr
}

var _ ports.ChangeFeed = (*Poller)(nil)
