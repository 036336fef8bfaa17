package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/scout/internal/keypool"
	"github.com/MrSnakeDoc/scout/internal/logger"
)

// QuotaResetScheduler periodically applies the Pacific-day quota rollover.
// Selection already resets lazily; this loop just keeps the pool fresh on
// idle instances so the credentials API reflects reality.
type QuotaResetScheduler struct {
	keys     *keypool.Manager
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewQuotaResetScheduler creates a new quota reset scheduler
func NewQuotaResetScheduler(keys *keypool.Manager, log logger.Logger, interval time.Duration) *QuotaResetScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &QuotaResetScheduler{
		keys:     keys,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic reset process
func (qr *QuotaResetScheduler) Start(ctx context.Context) error {
	// Run immediately on start
	if err := qr.keys.ResetDaily(ctx); err != nil {
		qr.logger.Warn("initial quota reset failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(qr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := qr.keys.ResetDaily(ctx); err != nil {
					qr.logger.Error("quota reset failed",
						logger.Error(err))
				}
			case <-qr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the scheduler
func (qr *QuotaResetScheduler) Stop() {
	close(qr.stopCh)
}
