package middleware

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/auth"
	"github.com/modguard/dashboard-api/internal/config"
	"github.com/modguard/dashboard-api/internal/http/dto"
	"github.com/modguard/dashboard-api/internal/perms"
	"github.com/modguard/dashboard-api/internal/services"
)

const (
	CtxUserID           = "user_id"
	CtxPermissions      = "server_permissions"
	CtxAccessibleGuilds = "accessible_servers"
	CtxSystemAdmin      = "is_system_admin"
)

// AuthMiddleware accepts either the pre-shared dashboard API key (plus an
// X-User-ID header naming the actor) or a signed dashboard JWT. On success
// the resolved per-guild permissions are attached to the request; on any
// failure the request ends here with 401.
func AuthMiddleware(cfg *config.Config, resolver *services.PermissionResolver, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "missing authorization header")
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return unauthorized(c, "invalid authorization format")
		}

		var userID, scopedGuild string
		if cfg.DashboardAPIKey != "" && tokenStr == cfg.DashboardAPIKey {
			userID = c.Get("X-User-ID")
			if userID == "" {
				return unauthorized(c, "X-User-ID header required with api key")
			}
			scopedGuild = c.Query("guild_id")
		} else {
			claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
			if err != nil {
				log.Debug("jwt parse error", zap.Error(err))
				return unauthorized(c, "invalid or expired token")
			}
			userID = claims.UserID
			scopedGuild = claims.GuildID
			if scopedGuild == "" {
				scopedGuild = c.Query("guild_id")
			}
		}

		permMap := map[string][]string{}
		if scopedGuild != "" {
			tokens, err := resolver.ForGuild(c.Context(), userID, scopedGuild)
			if err != nil {
				log.Error("permission resolution failed", zap.String("user_id", userID), zap.Error(err))
				return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
			}
			if len(tokens) > 0 {
				permMap[scopedGuild] = tokens
			}
		} else {
			permMap, _ = resolver.AllGuilds(c.Context(), userID)
		}

		accessible := make([]string, 0, len(permMap))
		for guildID := range permMap {
			accessible = append(accessible, guildID)
		}
		sort.Strings(accessible)

		c.Locals(CtxUserID, userID)
		c.Locals(CtxPermissions, permMap)
		c.Locals(CtxAccessibleGuilds, accessible)
		c.Locals(CtxSystemAdmin, cfg.IsSystemAdmin(userID))

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: msg})
}

func GetUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxUserID).(string)
	return id
}

func GetPermissions(c *fiber.Ctx) map[string][]string {
	m, _ := c.Locals(CtxPermissions).(map[string][]string)
	if m == nil {
		m = map[string][]string{}
	}
	return m
}

func GetAccessibleGuilds(c *fiber.Ctx) []string {
	g, _ := c.Locals(CtxAccessibleGuilds).([]string)
	return g
}

func IsSystemAdmin(c *fiber.Ctx) bool {
	v, _ := c.Locals(CtxSystemAdmin).(bool)
	return v
}

// HasPermissionAnywhere reports whether the caller holds the token in any
// accessible guild.
func HasPermissionAnywhere(c *fiber.Ctx, token string) bool {
	for _, tokens := range GetPermissions(c) {
		if perms.Has(tokens, token) {
			return true
		}
	}
	return false
}

// RequirePermission gates a route on a permission token. System admins from
// config pass unconditionally.
func RequirePermission(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsSystemAdmin(c) || HasPermissionAnywhere(c, token) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "insufficient permissions"})
	}
}

// RequireAdmin gates a route on an admin-grade token set.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsSystemAdmin(c) {
			return c.Next()
		}
		for _, tokens := range GetPermissions(c) {
			if perms.IsAdmin(tokens) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "admin access required"})
	}
}
