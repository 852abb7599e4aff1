package idempotency

import (
	"context"
	"time"
)

// RunCleanup calls CleanupExpired every interval until ctx is cancelled.
func RunCleanup(ctx context.Context, store Store, interval time.Duration, batchSize int, logger Logger) {
	if store == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.CleanupExpired(ctx, now, batchSize)
			if logger == nil {
				continue
			}
			if err != nil {
				logger.Printf("idempotency: cleanup failed: %v", err)
			} else if removed > 0 {
				logger.Printf("idempotency: removed %d expired records", removed)
			}
		}
	}
}
