package utils

import (
	"context"
	"time"

	"github.com/vnkhanh/mente-abundante-backend/logger"
)

// SessionCleaner removes expired sessions and reports how many went.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

func cleanupExpiredSessions(ctx context.Context, cleaner SessionCleaner, log *logger.Logger) {
	n, err := cleaner.CleanupExpired(ctx)
	if err != nil {
		log.Error("session cleanup failed", "error", err)
		return
	}
	if n > 0 {
		log.Info("expired sessions removed", "count", n)
	}
}

// StartCleanupJob runs one pass immediately and then one per interval until
// ctx is cancelled. The returned channel closes when the job has stopped.
func StartCleanupJob(ctx context.Context, cleaner SessionCleaner, interval time.Duration, log *logger.Logger) <-chan struct{} {
	log = log.With("job", "session_cleanup")
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	done := make(chan struct{})

	cleanupExpiredSessions(ctx, cleaner, log)
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleanupExpiredSessions(ctx, cleaner, log)
			}
		}
	}()

	log.Info("cleanup job started", "interval", interval.String())
	return done
}
