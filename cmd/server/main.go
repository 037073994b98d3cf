// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/centraldescuentos/internal/api"
	"github.com/tomtom215/centraldescuentos/internal/audit"
	"github.com/tomtom215/centraldescuentos/internal/auth"
	"github.com/tomtom215/centraldescuentos/internal/backup"
	"github.com/tomtom215/centraldescuentos/internal/breaker"
	"github.com/tomtom215/centraldescuentos/internal/cache"
	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/discounts"
	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/notify"
	"github.com/tomtom215/centraldescuentos/internal/recommend"
	"github.com/tomtom215/centraldescuentos/internal/routing"
	"github.com/tomtom215/centraldescuentos/internal/store"
	"github.com/tomtom215/centraldescuentos/internal/supervisor"
	"github.com/tomtom215/centraldescuentos/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "centraldescuentos",
	})
	metrics.SetAppInfo(version, runtime.Version())

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("store_driver", cfg.Store.Driver).
		Msg("Starting Central de Descuentos")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Str("driver", st.Name()).Msg("Store opened")

	discountSvc := discounts.NewService(st)

	recs := cache.NewRecommendationCache[recommend.Result](cache.WithTTL(cfg.Recommend.CacheTTL))
	ai := recommend.NewBreakerCompleter(recommend.NewClient(cfg.Recommend), breaker.DefaultSettings())
	engine := recommend.NewEngine(cfg.Recommend, recs, discountSvc, ai)
	if cfg.Recommend.APIKey == "" {
		logging.Warn().Msg("No AI API key configured; recommendations will report the missing key")
	}

	distance := routing.NewHandler(routing.NewBreakerDirectioner(routing.NewClient(cfg.Routing), breaker.DefaultSettings()))
	if cfg.Routing.APIKey == "" {
		logging.Warn().Msg("No routing API key configured; /api/distance will answer 503")
	}
	notifications := notify.NewHandler(notify.NewClient(cfg.Notify))

	trail := audit.NewLogger(audit.NewMemoryStore(5000), audit.DefaultConfig())
	defer func() { _ = trail.Close() }()

	deps := api.HandlerDeps{
		Store:       st,
		Users:       st,
		Documents:   st,
		Discounts:   discountSvc,
		Recommender: engine,
		Audit:       trail,
		Version:     version,
	}
	backups, err := backup.NewManager(cfg.Backup, st)
	if err != nil {
		logging.Warn().Err(err).Str("dir", cfg.Backup.Dir).Msg("Catalogue backups unavailable")
	} else {
		deps.Backups = backups
	}
	handler := api.NewHandler(deps)
	mwCfg := api.ChiMiddlewareConfigFrom(cfg.Security)
	switch {
	case mwCfg.AuthMode == auth.ModeNone:
		logging.Warn().Msg("Admin routes are UNAUTHENTICATED (AUTH_MODE=none)")
	case mwCfg.JWT == nil:
		logging.Warn().Msg("No JWT_SECRET configured; /api/v1/admin will answer 503")
	}
	chiMw := api.NewChiMiddleware(mwCfg)
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	router := api.NewRouter(handler, chiMw, distance, notifications)

	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.Timeout,
	})
	if err != nil {
		return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.Timeout))

	if badgerStore, ok := st.(*store.BadgerStore); ok && !cfg.Store.InMemory {
		tree.AddDataService(services.NewStoreGCService(badgerStore, cfg.Store.GCInterval))
	}

	if backups != nil && cfg.Backup.Enabled {
		tree.AddDataService(services.NewBackupService(backups, cfg.Backup.Interval))
		logging.Info().Dur("interval", cfg.Backup.Interval).Int("retain", cfg.Backup.Retain).Msg("Scheduled catalogue backups enabled")
	}

	logging.Info().Str("addr", addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	if report, _ := tree.UnstoppedServiceReport(); len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services failed to stop within timeout")
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	// A canceled ctx is the normal shutdown path.
	if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
