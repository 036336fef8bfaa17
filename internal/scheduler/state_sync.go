package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/scout/internal/keypool"
	"github.com/MrSnakeDoc/scout/internal/logger"
	"github.com/MrSnakeDoc/scout/internal/tokencache"
)

// StateSyncer restores persisted core state on startup: the credential pool
// and the live continuation tokens.
type StateSyncer struct {
	keys   *keypool.Manager
	tokens *tokencache.Cache
	logger logger.Logger
}

// NewStateSyncer creates a new state syncer
func NewStateSyncer(keys *keypool.Manager, tokens *tokencache.Cache, log logger.Logger) *StateSyncer {
	return &StateSyncer{
		keys:   keys,
		tokens: tokens,
		logger: log,
	}
}

// Sync loads persisted state into the in-memory components
func (ss *StateSyncer) Sync(ctx context.Context) error {
	if err := ss.keys.Load(ctx); err != nil {
		return err
	}
	ss.logger.Info("restored credential pool",
		logger.Int("credentials", len(ss.keys.List())))

	if err := ss.tokens.Load(ctx); err != nil {
		return err
	}
	ss.logger.Info("restored page token cache",
		logger.Int("tokens", ss.tokens.Len()))

	return nil
}
