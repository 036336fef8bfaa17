package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/scout/internal/logger"
	"github.com/MrSnakeDoc/scout/internal/tokencache"
)

// TokenSweeper periodically purges expired continuation tokens. The cache
// already sweeps on access; this loop keeps the persisted blob small when
// nobody is searching.
type TokenSweeper struct {
	tokens   *tokencache.Cache
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewTokenSweeper creates a new token sweeper
func NewTokenSweeper(tokens *tokencache.Cache, log logger.Logger, interval time.Duration) *TokenSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &TokenSweeper{
		tokens:   tokens,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep process
func (ts *TokenSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(ts.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := ts.tokens.Sweep(ctx); removed > 0 {
					ts.logger.Debug("swept expired page tokens",
						logger.Int("removed", removed))
				}
			case <-ts.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (ts *TokenSweeper) Stop() {
	close(ts.stopCh)
}
