// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"golang.org/x/time/rate"

	"github.com/tomtom215/rpoengine/internal/api"
	"github.com/tomtom215/rpoengine/internal/cascade"
	"github.com/tomtom215/rpoengine/internal/config"
	"github.com/tomtom215/rpoengine/internal/events"
	"github.com/tomtom215/rpoengine/internal/filelock"
	"github.com/tomtom215/rpoengine/internal/fiscal"
	"github.com/tomtom215/rpoengine/internal/gamification"
	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/previsions"
	"github.com/tomtom215/rpoengine/internal/registry"
	"github.com/tomtom215/rpoengine/internal/rpo"
	"github.com/tomtom215/rpoengine/internal/store"
	"github.com/tomtom215/rpoengine/internal/supervisor"
	"github.com/tomtom215/rpoengine/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("storage", cfg.Storage.Path).
		Int("fiscal_year", cfg.Storage.FiscalYear).
		Str("cascade_mode", cfg.Cascade.Mode).
		Msg("Starting RPO engine")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("RPO engine stopped with error")
	}
	logging.Info().Msg("RPO engine stopped")
}

func run(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Storage.RPODir(), 0o755); err != nil {
		return fmt.Errorf("create rpo dir: %w", err)
	}

	users, err := registry.Open(cfg.Registry.ResolvedPath(cfg.Storage.Path), cfg.Registry.ReadOnly)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer func() {
		if err := users.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing registry")
		}
	}()

	cal := fiscal.NewCalendar(cfg.Storage.FiscalYear)
	docs := store.New(store.Options{
		Dir:          cfg.Storage.RPODir(),
		Calendar:     cal,
		Roles:        users,
		SaveRetries:  cfg.Storage.SaveRetries,
		RetryBackoff: cfg.Storage.SaveRetryBackoff,
	})

	var limiter *rate.Limiter
	if cfg.Sync.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Sync.RatePerSecond), max(cfg.Sync.Burst, 1))
	}

	engine := rpo.New(rpo.Options{
		Store: docs,
		Locks: filelock.NewManager(filelock.Options{
			Timeout:      cfg.Storage.LockTimeout,
			PollInterval: cfg.Storage.LockPollInterval,
		}),
		Events:      events.NewReader(cfg.Storage.Path),
		Registry:    users,
		Previsions:  previsions.NewStore(cfg.Storage.PrevisionsDir()),
		Calendar:    cal,
		SyncLimiter: limiter,
	})

	natsCfg := cfg.NATS
	if cfg.Cascade.Mode == cascade.ModeBus && cfg.Cascade.Transport == cascade.TransportNATS && natsCfg.EmbeddedServer {
		ns, err := cascade.StartEmbeddedNATS(natsCfg)
		if err != nil {
			return fmt.Errorf("start embedded nats: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Supervisor.ShutdownTimeout)
			defer cancel()
			if err := ns.Shutdown(ctx); err != nil {
				logging.Error().Err(err).Msg("Error stopping embedded NATS")
			}
		}()
		natsCfg.URL = ns.ClientURL()
	}

	cascader, bus, err := cascade.New(cfg.Cascade, natsCfg, users, engine,
		watermill.NewSlogLogger(logging.NewSlogLogger()))
	if err != nil {
		return fmt.Errorf("build cascade: %w", err)
	}
	engine.SetCascader(cascader)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("build supervisor tree: %w", err)
	}

	if bus != nil {
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing cascade bus")
			}
		}()
		tree.AddMessagingService(bus)
	}

	var badges api.BadgeReader
	if cfg.Gamification.Enabled {
		badgeStore, err := gamification.Open(cfg.Gamification.ResolvedPath(cfg.Storage.Path), cfg.Gamification.GCInterval)
		if err != nil {
			return fmt.Errorf("open badge store: %w", err)
		}
		defer func() {
			if err := badgeStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing badge store")
			}
		}()
		engine.SetBadgeHook(gamification.NewCapEvaluator(engine, badgeStore))
		tree.AddDataService(badgeStore)
		badges = badgeStore
	}

	handler := api.NewHandler(engine, badges, map[string]api.ReadinessCheck{
		"registry": users.Ping,
		"storage": func(context.Context) error {
			_, err := os.Stat(cfg.Storage.RPODir())
			return err
		},
	})
	router := api.NewRouter(handler, &api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		RateLimitDisabled:  cfg.Server.RateLimitDisabled,
	})
	server := services.NewHTTPServer(cfg.Server, router.SetupChi())
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tree.Run(ctx)
}
