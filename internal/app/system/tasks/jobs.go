// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads a registry, keeping the last good one when a reload
// fails. *registryclient.Store implements it.
type Refresher interface {
	RefreshKeep(ctx context.Context) error
}

// Pruner deletes revisions beyond the newest keep.
// *revisions.Store implements it.
type Pruner interface {
	Prune(ctx context.Context, keep int64) (int64, error)
}

// RegistryRefreshJob reloads the server's registry store on an interval so
// a document changed behind the server (another replica, a direct S3 write)
// is picked up. A failed reload keeps serving the registry already loaded.
// The first run waits one interval since startup already loaded.
func RegistryRefreshJob(store Refresher, interval, timeout time.Duration) Job {
	return Job{
		Name:          "registry-refresh",
		Interval:      interval,
		Timeout:       timeout,
		SkipImmediate: true,
		Run: func(ctx context.Context) error {
			return store.RefreshKeep(ctx)
		},
	}
}

// RevisionPruneJob keeps only the newest keep revisions.
func RevisionPruneJob(revisions Pruner, keep int64, logger *zap.Logger) Job {
	return Job{
		Name:     "revision-prune",
		Interval: 6 * time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			deleted, err := revisions.Prune(ctx, keep)
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("pruned registry revisions",
					zap.Int64("deleted", deleted),
					zap.Int64("kept", keep))
			}
			return nil
		},
	}
}
