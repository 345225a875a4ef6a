package cleanup

import (
	"context"
	"time"

	"github.com/jakobkordez/wmm-reborn/internal/common/clock"
	"github.com/jakobkordez/wmm-reborn/internal/common/constants"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
	"github.com/jakobkordez/wmm-reborn/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StartRefreshTokenCleanup purges expired refresh token rows every interval
// until ctx is cancelled. Expired rows already fail validation; the purge
// only reclaims space.
func StartRefreshTokenCleanup(ctx context.Context, repo ExpiredDeleter, clk clock.Clock, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = constants.RefreshTokenCleanupInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunOnce(ctx, repo, clk, log)
		}
	}
}

func RunOnce(ctx context.Context, repo ExpiredDeleter, clk clock.Clock, log *logger.Logger) int64 {
	deleted, err := repo.DeleteExpired(ctx, clk.Now())
	if err != nil {
		log.Errorf("refresh token cleanup failed: %v", err)
		return 0
	}
	if deleted > 0 {
		metrics.RefreshTokensCleanupDeleted.Add(float64(deleted))
		log.Infof("refresh token cleanup: deleted %d expired tokens", deleted)
	}
	return deleted
}
