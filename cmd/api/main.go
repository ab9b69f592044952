package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/auth"
	"github.com/modguard/dashboard-api/internal/config"
	"github.com/modguard/dashboard-api/internal/db"
	"github.com/modguard/dashboard-api/internal/discord"
	"github.com/modguard/dashboard-api/internal/events"
	apphttp "github.com/modguard/dashboard-api/internal/http"
	"github.com/modguard/dashboard-api/internal/http/dto"
	"github.com/modguard/dashboard-api/internal/http/handlers"
	"github.com/modguard/dashboard-api/internal/metrics"
	"github.com/modguard/dashboard-api/internal/repositories"
	"github.com/modguard/dashboard-api/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Discord gateway: the dashboard stays usable without it, guild and
	// username lookups just come back empty.
	gateway := discord.NewGateway(log)
	if cfg.BotToken != "" {
		if err := gateway.Connect(cfg.BotToken); err != nil {
			log.Warn("discord gateway unavailable", zap.Error(err))
		}
		defer gateway.Close()
	}

	m := metrics.New()

	// Repositories
	permRepo := repositories.NewPermissionRepo(pool)
	activityRepo := repositories.NewActivityRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	resolver := services.NewPermissionResolver(permRepo, gateway, log)
	activitySvc := services.NewActivityService(activityRepo, cfg.DedupWindow, m, log)
	enricher, err := services.NewEnricher(gateway, publisher, cfg.UsernameCacheSize, cfg.DisplayTimezone, cfg.LookupTimeout, m, log)
	if err != nil {
		log.Fatal("failed to build log enricher", zap.Error(err))
	}

	oauth := discord.NewOAuthClient(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL, log)
	codeGuard := auth.NewRedisCodeGuard(rdb)

	// Handlers
	authHandler := handlers.NewAuthHandler(oauth, gateway, activitySvc, codeGuard, cfg, log)
	logsHandler := handlers.NewLogsHandler(activitySvc, enricher, log)
	adminHandler := handlers.NewAdminHandler(permRepo, activitySvc, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			msg := "internal server error"
			if cfg.IsDevelopment() || code < fiber.StatusInternalServerError {
				msg = err.Error()
			}
			return c.Status(code).JSON(dto.ErrorResponse{Error: msg})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, resolver, authHandler, logsHandler, adminHandler)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting dashboard API", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
