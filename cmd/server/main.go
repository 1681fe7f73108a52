package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/findthemapp/findthem-core/internal/app"
	"github.com/findthemapp/findthem-core/internal/cache"
	"github.com/findthemapp/findthem-core/internal/config"
	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/events"
	"github.com/findthemapp/findthem-core/internal/facematch"
	"github.com/findthemapp/findthem-core/internal/logger"
	"github.com/findthemapp/findthem-core/internal/matching"
	"github.com/findthemapp/findthem-core/internal/notify"
	"github.com/findthemapp/findthem-core/internal/observer"
	"github.com/findthemapp/findthem-core/internal/photostore"
	"github.com/findthemapp/findthem-core/internal/push"
	"github.com/findthemapp/findthem-core/internal/repository"
	"github.com/findthemapp/findthem-core/internal/worker"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Init photo store
	photos, err := photostore.NewMinioStore(cfg)
	if err != nil {
		log.Error("failed to init photo store", "err", err)
		return
	}
	if err := photos.EnsureBucket(ctx); err != nil {
		log.Error("failed to ensure photo bucket", "err", err)
		return
	}

	bus := events.NewBus(log)
	appCtx := app.New(database, redisCache, photos, bus, log)

	if cfg.App.Env == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	// Repositories shared by the pipeline
	caseRepo := repository.NewCaseRepository(appCtx.DB)
	matchRepo := repository.NewMatchRepository(appCtx.DB)
	userRepo := repository.NewUserRepository(appCtx.DB)
	notificationRepo := repository.NewNotificationRepository(appCtx.DB)

	// Matching pipeline
	matcher := facematch.New(facematch.NewHTTPEmbedder(cfg))
	sweeper := matching.NewSweeper(caseRepo, matchRepo, appCtx.Photos, matcher, cfg.Match.MinScore, log)
	pool := worker.NewPool(cfg.Match.Workers, cfg.Match.QueueSize, log)
	runner := worker.NewRunner(pool, caseRepo, sweeper, appCtx.Bus,
		cfg.Match.LookupRetries, cfg.Match.RetryDelay, log)

	// Notification fan-out
	notifier := notify.New(notificationRepo, userRepo, appCtx.RedisCache, push.NewFCMClient(cfg), log)

	obs := observer.New(notifier, userRepo, caseRepo, notificationRepo,
		appCtx.RedisCache, runner, appCtx.Bus, log)
	obs.Register()

	pool.Start(ctx)
	log.Info("findthem core started",
		"env", cfg.App.Env, "workers", cfg.Match.Workers, "min_score", cfg.Match.MinScore)

	<-ctx.Done()
	log.Info("shutting down, draining match queue")
	pool.Wait()
	log.Info("shutdown complete")
}
