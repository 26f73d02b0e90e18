package background

import (
	"context"
	"log/slog"
	"time"
)

// PlaceholderStore is the subset of the user repository the sweep needs.
type PlaceholderStore interface {
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// placeholderMaxAge is how long an unverified registration placeholder may
// linger before it is considered abandoned.
const placeholderMaxAge = 1 * time.Hour

// CleanupManager periodically removes abandoned registration placeholders.
// Expired OTP codes need no sweep: they are rejected at verification time
// and overwritten by the next issuance.
type CleanupManager struct {
	store    PlaceholderStore
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(store PlaceholderStore, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		store:    store,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes abandoned placeholders from the database
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-placeholderMaxAge)

	rowsDeleted, err := cm.store.DeleteUnverifiedBefore(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to cleanup unverified placeholders", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("unverified placeholder cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
