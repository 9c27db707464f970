package service

import (
	"context"
	"time"

	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/services/auth/internal/repository"
)

// RunCleanup purges spent verification codes and stale rate-limit rows every
// interval until ctx is cancelled.
func RunCleanup(ctx context.Context, interval time.Duration, codes repository.CodeRepository, limits repository.RateLimitRepository) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, codes, limits)
		}
	}
}

func sweep(ctx context.Context, codes repository.CodeRepository, limits repository.RateLimitRepository) {
	if n, err := codes.DeleteExpired(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to purge verification codes", "error", err)
	} else if n > 0 {
		logger.DebugContext(ctx, "Purged verification codes", "count", n)
	}
	if n, err := limits.CleanupExpired(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to purge rate limits", "error", err)
	} else if n > 0 {
		logger.DebugContext(ctx, "Purged rate limits", "count", n)
	}
}
