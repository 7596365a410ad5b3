// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/stratacatalog/internal/app/system/registrybackend"
	"github.com/dalemusser/stratacatalog/internal/app/system/tasks"
	"github.com/dalemusser/stratacatalog/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It applies the outbound timeouts, loads the published registry into the
// server's store, and starts the background refresh and prune tasks. A
// registry that has never been committed is not an error; the store stays
// empty until the first commit.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Request: appCfg.RequestTimeout,
		Commit:  appCfg.CommitTimeout,
	})
	cur := timeouts.Current()
	logger.Info("outbound timeouts configured",
		zap.Duration("request", cur.Request),
		zap.Duration("commit", cur.Commit))

	store := deps.Publisher.Store()
	if err := store.Activate(ctx); err != nil {
		if !errors.Is(err, registrybackend.ErrNotFound) {
			// The refresh task keeps retrying; catalog reads report unavailable until then.
			logger.Warn("initial registry load failed", zap.Error(err))
		} else {
			logger.Info("no registry published yet", zap.String("backend", deps.Publisher.Backend()))
		}
	} else {
		logger.Info("registry loaded",
			zap.String("backend", deps.Publisher.Backend()),
			zap.String("change_token", store.ChangeToken()))
	}

	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger, deps.Metrics)

	if appCfg.RegistryRefresh > 0 {
		taskRunner.Register(tasks.RegistryRefreshJob(deps.Publisher.Store(), appCfg.RegistryRefresh, timeouts.Request()))
	}
	if appCfg.RevisionRetention > 0 {
		taskRunner.Register(tasks.RevisionPruneJob(deps.Revisions, appCfg.RevisionRetention, logger))
	}

	taskRunner.Start()
}
