// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/whosinapp/whosin/internal/app/store/oauthstate"
	"github.com/whosinapp/whosin/internal/app/system/cache"
	"go.uber.org/zap"
)

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// CacheFlushJob creates a job that snapshots the durable profile cache to
// disk so display-name fallbacks survive a restart.
func CacheFlushJob(profileCache *cache.Cache, logger *zap.Logger) Job {
	return Job{
		Name:     "profile-cache-flush",
		Interval: 30 * time.Second,
		Run: func(ctx context.Context) error {
			wrote, err := profileCache.Flush()
			if err != nil {
				return err
			}
			if wrote {
				logger.Debug("profile cache snapshot written",
					zap.Int("entries", profileCache.Len()))
			}
			return nil
		},
	}
}
