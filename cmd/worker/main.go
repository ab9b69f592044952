package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/config"
	"github.com/modguard/dashboard-api/internal/db"
	"github.com/modguard/dashboard-api/internal/events"
	"github.com/modguard/dashboard-api/internal/repositories"
	"github.com/modguard/dashboard-api/internal/services"
	"github.com/modguard/dashboard-api/internal/worker"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	activityRepo := repositories.NewActivityRepo(pool)
	activitySvc := services.NewActivityService(activityRepo, cfg.DedupWindow, nil, log)

	subscriber := events.NewRedisSubscriber(rdb, log)
	backfill := worker.NewBackfill(activityRepo, cfg.BackfillWorkers, log)
	backfill.Start(ctx)

	if err := subscriber.Subscribe(ctx, events.StreamUsernames, backfill.Handle); err != nil {
		log.Fatal("failed to subscribe to username events", zap.Error(err))
	}

	purger := worker.NewPurger(activitySvc, cfg.RetentionDays, cfg.PurgeInterval, log)

	log.Info("worker started",
		zap.Int("retention_days", cfg.RetentionDays),
		zap.Int("backfill_workers", cfg.BackfillWorkers),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go purger.Run(ctx)

	select {
	case <-sigCh:
		log.Info("shutting down worker")
		cancel()
	case <-ctx.Done():
	}
	backfill.Stop()
}
