// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/whosinapp/whosin/internal/app/store/availability"
	"github.com/whosinapp/whosin/internal/app/store/oauthstate"
	profilestore "github.com/whosinapp/whosin/internal/app/store/profiles"
	"github.com/whosinapp/whosin/internal/app/system/cache"
	"github.com/whosinapp/whosin/internal/app/system/metrics"
	"github.com/whosinapp/whosin/internal/app/system/tasks"
	"go.uber.org/zap"
)

// runtime holds the long-lived application state built at startup and
// shared between BuildHandler and Shutdown.
type runtime struct {
	registry  *prometheus.Registry
	collector *metrics.Collector

	profileCache *cache.Cache
	profiles     *profilestore.Store
	resolver     *profilestore.Resolver
	days         *availability.Store
	board        *availability.Board
	states       *oauthstate.Store

	runner      *tasks.Runner
	watchCancel context.CancelFunc
}

var rt *runtime

// Startup builds the shared runtime: cache, stores, board, metrics, and
// background tasks. It runs after DB connections and schema setup, before
// the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	profileCache := cache.Open(appCfg.CachePath, logger)
	profiles := profilestore.New(deps.MongoDatabase)
	resolver := profilestore.NewResolver(profiles, profileCache, collector, logger)
	days := availability.New(deps.MongoDatabase)
	board := availability.NewBoard(days, collector, logger)
	states := oauthstate.New(deps.MongoDatabase)

	// The change stream outlives the startup context; Shutdown cancels it.
	watchCtx, watchCancel := context.WithCancel(context.Background())
	go func() {
		if err := board.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			// Standalone Mongo has no change streams; toggles made through
			// this process still broadcast locally.
			logger.Warn("availability change stream unavailable", zap.Error(err))
		}
	}()

	runner := tasks.NewRunner(logger,
		tasks.OAuthStateCleanupJob(states, logger),
		tasks.CacheFlushJob(profileCache, logger),
	)
	runner.Start()

	rt = &runtime{
		registry:     registry,
		collector:    collector,
		profileCache: profileCache,
		profiles:     profiles,
		resolver:     resolver,
		days:         days,
		board:        board,
		states:       states,
		runner:       runner,
		watchCancel:  watchCancel,
	}

	logger.Info("startup complete",
		zap.Int("cached_profiles", profileCache.Len()))
	return nil
}
