package services

import (
	"context"

	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

// Reloader replaces local state with the repository's contents.
type Reloader interface {
	Reload(ctx context.Context) error
}

// SyncService reloads the stores whenever the change feed reports a remote
// change. Each reload is a full replace; nothing is merged.
type SyncService struct {
	feed   ports.ChangeFeed
	stores []Reloader
	logger *logger.Logger
}

// NewSyncService creates a sync service. Stores reload in the given order,
// so pass lists before todos.
func NewSyncService(feed ports.ChangeFeed, logger *logger.Logger, stores ...Reloader) *SyncService {
	return &SyncService{
		feed:   feed,
		stores: stores,
		logger: logger.WithComponent("sync"),
	}
}

// Run blocks until ctx is done or the change feed fails.
func (s *SyncService) Run(ctx context.Context) error {
	s.logger.Info("Realtime sync started")
	defer s.logger.Info("Realtime sync stopped")

	return s.feed.Run(ctx, func() { s.Reload(ctx) })
}

// Reload reloads every store. Failures are logged and do not stop later
// stores from reloading.
func (s *SyncService) Reload(ctx context.Context) {
	for _, store := range s.stores {
		if err := store.Reload(ctx); err != nil {
			s.logger.Errorw("Reload after remote change failed", "error", err)
		}
	}
}
