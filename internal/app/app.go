// Package app assembles the todo store and its collaborators from config.
// Both the HTTP server and the CLI commands run on top of it.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/text/language"

	"github.com/taskmaster/todos/internal/adapters/realtime"
	"github.com/taskmaster/todos/internal/adapters/reminder"
	"github.com/taskmaster/todos/internal/adapters/repository"
	"github.com/taskmaster/todos/internal/application/services"
	"github.com/taskmaster/todos/internal/application/writer"
	"github.com/taskmaster/todos/internal/infrastructure/clock"
	"github.com/taskmaster/todos/internal/infrastructure/config"
	"github.com/taskmaster/todos/internal/infrastructure/database"
	"github.com/taskmaster/todos/internal/infrastructure/identity"
	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

// App owns the stores and the background workers behind them.
type App struct {
	Config   *config.Config
	DB       *database.DB
	Todos    *services.TodoService
	Lists    *services.ListService
	Writer   *writer.Queue
	Registry *prometheus.Registry
	Clock    ports.Clock
	Location *time.Location

	reminders *reminder.CronScheduler
	sync      *services.SyncService
	logger    *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options adjusts how New wires the app.
type Options struct {
	// Realtime starts the change feed. Short-lived CLI commands leave it off.
	Realtime bool
	// Deliver receives due reminders. Nil logs them.
	Deliver reminder.DeliverFunc
}

// New wires the app. Nothing runs until Start.
func New(cfg *config.Config, db *database.DB, log *logger.Logger, opts Options) (*App, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	tag, err := language.Parse(cfg.App.Locale)
	if err != nil {
		log.Warnw("Unknown locale, sorting titles as English", "locale", cfg.App.Locale, "error", err)
		tag = language.English
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clk := clock.NewSystem(loc)
	ids := identity.NewUUIDGenerator()
	todoRepo := repository.NewTodoRepository(db.DB)
	listRepo := repository.NewListRepository(db.DB)
	queue := writer.New(cfg.Writer, log, registry)

	a := &App{
		Config:   cfg,
		DB:       db,
		Writer:   queue,
		Registry: registry,
		Clock:    clk,
		Location: loc,
		logger:   log.WithComponent("app"),
	}

	// Left as a nil interface when disabled so the store skips reminders.
	var reminders ports.ReminderScheduler
	if cfg.Reminders.Enabled {
		a.reminders = reminder.NewCronScheduler(clk, loc, log, registry, opts.Deliver)
		reminders = a.reminders
	}

	a.Lists = services.NewListService(listRepo, todoRepo, queue, clk, ids, log)
	a.Todos = services.NewTodoService(todoRepo, reminders, queue, clk, ids, a.Lists, log, services.TodoOptions{
		RemovalGrace: cfg.Store.RemovalGrace,
		LoadTimeout:  cfg.Store.LoadTimeout,
		Language:     tag,
	})

	if opts.Realtime && cfg.Realtime.Enabled {
		a.sync = services.NewSyncService(changeFeed(cfg, db, log), log, a.Lists, a.Todos)
	}

	return a, nil
}

func changeFeed(cfg *config.Config, db *database.DB, log *logger.Logger) ports.ChangeFeed {
	if db.Driver == database.DriverPostgres {
		return realtime.NewPQListener(db.DSN(), cfg.Realtime.Channel, cfg.Realtime.MinReconnect, cfg.Realtime.MaxReconnect, log)
	}
	return realtime.NewPoller(db.DB, cfg.Realtime.PollInterval, log)
}

// Start loads lists then todos and starts the reminder scheduler and the
// realtime sync.
func (a *App) Start(ctx context.Context) error {
	if err := a.Lists.Initialize(ctx); err != nil {
		return err
	}
	if err := a.Todos.Initialize(ctx); err != nil {
		return err
	}

	if a.reminders != nil {
		a.reminders.Start()
		a.Todos.RestoreReminders(ctx)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.sync != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.sync.Run(runCtx); err != nil {
				a.logger.Errorw("Realtime sync stopped", "error", err)
			}
		}()
	}

	a.logger.Infow("Store ready",
		"todos", len(a.Todos.Todos()),
		"lists", len(a.Lists.Lists()),
		"realtime", a.sync != nil,
		"reminders", a.reminders != nil,
	)
	return nil
}

// Close stops the background workers and drains pending writes.
func (a *App) Close(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.reminders != nil {
		a.reminders.Stop()
	}

	if err := a.Writer.Close(ctx); err != nil && !errors.Is(err, writer.ErrClosed) {
		return fmt.Errorf("failed to drain writes: %w", err)
	}
	return nil
}
