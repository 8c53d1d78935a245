package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vportnov/balancetrack/config"
	"github.com/vportnov/balancetrack/internal/clients"
	"github.com/vportnov/balancetrack/internal/services/pricecache"
	"github.com/vportnov/balancetrack/internal/services/registry"
	"github.com/vportnov/balancetrack/internal/services/scheduler"
	"github.com/vportnov/balancetrack/internal/services/valuation"
	"github.com/vportnov/balancetrack/internal/storage/snapshots"
	"github.com/vportnov/balancetrack/internal/storage/users"
	"github.com/vportnov/balancetrack/internal/web"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := snapshots.NewWALStore(cfg.SnapshotDir)
	if err != nil {
		logger.Fatal("failed to open snapshot store", zap.Error(err))
	}
	defer store.Close()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Role != config.RoleServer {
		factory := func(ctx context.Context, apiKey, apiSecret string) (registry.Session, error) {
			return clients.NewBinanceSession(ctx, apiKey, apiSecret)
		}

		reg := registry.New(users.NewStore(cfg.UsersFile), factory, cfg.APIKey, cfg.APISecret, logger)
		if err := reg.Initialize(ctx); err != nil {
			logger.Fatal("failed to initialize exchange sessions", zap.Error(err))
		}

		cache := pricecache.New(reg.Global(), cfg.PriceRefreshInterval, logger)
		// Cold-start contract: no scheduler tick may ever see an empty cache.
		if err := cache.Refresh(ctx); err != nil {
			logger.Fatal("initial price refresh failed", zap.Error(err))
		}
		logger.Info("price cache warmed", zap.Int("pairs", cache.Len()))

		engine := valuation.NewEngine(cache)
		sched := scheduler.New(reg, engine, store, scheduler.SystemClock(), cfg.SnapshotInterval, logger)

		g.Go(func() error { return cache.Run(ctx) })
		g.Go(func() error { return sched.Run(ctx) })
	}

	if cfg.Role != config.RoleScheduler {
		server := web.NewServer(cfg.HTTPAddr, store, logger)
		g.Go(func() error { return server.Start(ctx) })
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("service stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
