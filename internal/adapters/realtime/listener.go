package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

const pingInterval = 90 * time.Second

// PQListener receives Postgres NOTIFY events raised by the schema triggers on
// the todos and lists tables.
type PQListener struct {
	dsn          string
	channel      string
	minReconnect time.Duration
	maxReconnect time.Duration
	logger       *logger.Logger
}

func NewPQListener(dsn, channel string, minReconnect, maxReconnect time.Duration, log *logger.Logger) *PQListener {
	return &PQListener{
		dsn:          dsn,
		channel:      channel,
		minReconnect: minReconnect,
		maxReconnect: maxReconnect,
		logger:       log.WithComponent("pq_listener"),
	}
}

// Run listens until ctx is done. Bursts of notifications are coalesced into a
// single onChange call. Subscribing and reconnecting also trigger onChange,
// since notifications sent while not listening are lost.
func (l *PQListener) Run(ctx context.Context, onChange func()) error {
	listener := pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, l.event)
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("listen on %q: %w", l.channel, err)
	}
	l.logger.Infow("Listening for changes", "channel", l.channel)
	onChange()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n != nil {
				l.logger.Debugw("Change notification", "payload", n.Extra)
			}
			drain(listener.Notify)
			onChange()
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.logger.Warnw("Listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (l *PQListener) event(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		l.logger.Warnw("Listener connection problem", "event", int(ev), "error", err)
	case pq.ListenerEventReconnected:
		l.logger.Infow("Listener reconnected")
	}
}

func drain(ch <-chan *pq.Notification) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

var _ ports.ChangeFeed = (*PQListener)(nil)
