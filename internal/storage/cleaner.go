package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunSessionCleaner deletes expired sessions every interval until ctx is done.
func (db *DB) RunSessionCleaner(ctx context.Context, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := db.CleanExpiredSessions(ctx)
			if err != nil {
				log.Error("failed to clean expired sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Info("cleaned expired sessions", zap.Int64("removed", removed))
			}
		}
	}
}
