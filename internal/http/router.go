package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/config"
	"github.com/modguard/dashboard-api/internal/http/handlers"
	"github.com/modguard/dashboard-api/internal/middleware"
	"github.com/modguard/dashboard-api/internal/perms"
	"github.com/modguard/dashboard-api/internal/services"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	resolver *services.PermissionResolver,
	authHandler *handlers.AuthHandler,
	logsHandler *handlers.LogsHandler,
	adminHandler *handlers.AdminHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	// Auth (public, rate limited)
	authGroup := api.Group("/auth", middleware.RateLimitMiddleware(rdb, cfg.AuthRateLimit, cfg.AuthRateLimitWindow))
	authGroup.Post("/discord/callback", authHandler.DiscordCallback)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, resolver, log))

	protected.Get("/auth/me", authHandler.Me)
	protected.Get("/guilds", authHandler.Guilds)

	// Activity logs
	logs := protected.Group("/dashboard-logs")
	logs.Get("", middleware.RequirePermission(perms.ViewLogs), logsHandler.List)
	logs.Post("", logsHandler.Create)
	logs.Get("/stats", middleware.RequirePermission(perms.ViewLogs), logsHandler.Stats)
	logs.Get("/recent", middleware.RequirePermission(perms.ViewLogs), logsHandler.Recent)
	logs.Get("/user/:userId", middleware.RequirePermission(perms.ViewLogs), logsHandler.UserLogs)
	logs.Delete("/cleanup", middleware.RequireAdmin(), logsHandler.Cleanup)

	// Admin
	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:userId", adminHandler.UpdateUser)
}
