package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/taskmaster/todos/internal/adapters/reminder"
	"github.com/taskmaster/todos/internal/app"
	"github.com/taskmaster/todos/internal/infrastructure/config"
	"github.com/taskmaster/todos/internal/infrastructure/database"
	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/infrastructure/server"
)

const shutdownTimeout = 10 * time.Second

// Build information, set with -ldflags at release time.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewRootCommand assembles the todos command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "todos",
		Short:         "Todos server and command line client",
		Long:          `Todos keeps todo lists with due dates, reminders and repeating todos. Run "todos serve" for the HTTP API or use the todos and lists commands directly against the database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringP("output", "o", formatTable, "output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at the configured level instead of warnings only")

	rootCmd.AddCommand(
		NewServeCommand(),
		NewMigrateCommand(),
		NewTodosCommand(),
		NewListsCommand(),
		NewVersionCommand(),
	)
	return rootCmd
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Todos API server",
		Long:  "Start the HTTP API with the realtime change feed and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrateFirst, _ := cmd.Flags().GetBool("migrate")
			return runServer(cmd, migrateFirst)
		},
	}
	cmd.Flags().Bool("migrate", true, "apply pending migrations before serving")
	return cmd
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion(cmd)
		},
	})

	return migrateCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Todos version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Todos %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

// loadConfig reads the --config file, the environment and .env.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// cliLogger keeps stdout free for command output.
func cliLogger(cmd *cobra.Command, cfg *config.Config) (*logger.Logger, error) {
	lc := cfg.Logger
	lc.Output = "stderr"
	lc.Format = "console"
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		lc.Level = "warn"
	}
	return logger.New(lc)
}

// session is an app opened for a single CLI command.
type session struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
	app *app.App
}

// openSession loads config, migrates and starts the store without the
// realtime feed or reminders, which only the server runs.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Reminders.Enabled = false

	log, err := cliLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	a, err := app.New(cfg, db, log, app.Options{})
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := a.Start(cmd.Context()); err != nil {
		db.Close()
		return nil, err
	}

	return &session{cfg: cfg, log: log, db: db, app: a}, nil
}

// Close drains pending writes before closing the database.
func (s *session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.app.Close(ctx)
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	_ = s.log.Close()
	return err
}

func runServer(cmd *cobra.Command, migrateFirst bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if migrateFirst {
		if err := database.MigrateUp(db); err != nil {
			return err
		}
	}

	reminderLog := appLogger.WithComponent("reminders")
	a, err := app.New(cfg, db, appLogger, app.Options{
		Realtime: true,
		Deliver: func(r reminder.Reminder) {
			reminderLog.Infow("Reminder due", "todo_id", r.TodoID, "title", r.Title, "due", r.Due)
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	srv, err := server.New(cfg, a, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting Todos API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"database", cfg.Database.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		appLogger.Errorw("Server shutdown failed", "error", serr)
	}
	if cerr := a.Close(shutdownCtx); cerr != nil {
		appLogger.Errorw("Store shutdown failed", "error", cerr)
		if err == nil {
			err = cerr
		}
	}
	return err
}

func openMigrator(cmd *cobra.Command) (*migrate.Migrate, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	m, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func runMigration(cmd *cobra.Command, direction string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	out := cmd.OutOrStdout()
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintln(out, "No migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintf(out, "Migration %s completed successfully\n", direction)
	return nil
}

func showMigrationVersion(cmd *cobra.Command) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
	fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
	return nil
}
