package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/auth"
	"github.com/modguard/dashboard-api/internal/config"
	"github.com/modguard/dashboard-api/internal/discord"
	"github.com/modguard/dashboard-api/internal/http/dto"
	"github.com/modguard/dashboard-api/internal/middleware"
	"github.com/modguard/dashboard-api/internal/models"
	"github.com/modguard/dashboard-api/internal/perms"
	"github.com/modguard/dashboard-api/internal/services"
)

// IdentityExchanger trades an OAuth authorization code for an identity.
type IdentityExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*discord.Identity, error)
}

// CodeGuard tracks consumed authorization codes.
type CodeGuard interface {
	MarkUsed(ctx context.Context, code string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, code string)
}

// GuildDirectory lists the guilds the bot currently sees.
type GuildDirectory interface {
	Guilds() map[string]string
}

type AuthHandler struct {
	oauth       IdentityExchanger
	gateway     GuildDirectory
	activitySvc *services.ActivityService
	guard       CodeGuard
	cfg         *config.Config
	log         *zap.Logger
}

func NewAuthHandler(
	oauth IdentityExchanger,
	gateway GuildDirectory,
	activitySvc *services.ActivityService,
	guard CodeGuard,
	cfg *config.Config,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		oauth:       oauth,
		gateway:     gateway,
		activitySvc: activitySvc,
		guard:       guard,
		cfg:         cfg,
		log:         log,
	}
}

// DiscordCallback exchanges an OAuth authorization code for an identity and
// issues a dashboard token. Codes are single use: a replay guard stops
// double submits from the callback page, released again if the exchange
// fails before the code was consumed.
func (h *AuthHandler) DiscordCallback(c *fiber.Ctx) error {
	var req dto.DiscordCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "code is required"})
	}

	fresh, err := h.guard.MarkUsed(c.Context(), req.Code, 5*time.Minute)
	if err != nil {
		h.log.Warn("oauth code guard unavailable", zap.Error(err))
	}
	if !fresh {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "code already used"})
	}

	identity, err := h.oauth.ExchangeCode(c.Context(), req.Code)
	if err != nil {
		// The code was never consumed; release the guard so a transient
		// failure does not block a retry.
		h.guard.Release(c.Context(), req.Code)
		h.log.Debug("oauth exchange failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "authorization code rejected"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, identity.ID, req.GuildID, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	ip := c.IP()
	ua := c.Get("User-Agent")
	h.activitySvc.Log(c.Context(), &models.ActivityLog{
		UserID:     identity.ID,
		Username:   &identity.Username,
		ActionType: "login",
		Page:       "login",
		IPAddress:  &ip,
		UserAgent:  &ua,
		Details:    "dashboard login via discord oauth",
		Success:    true,
	})

	return c.JSON(dto.OK(dto.AuthResponse{
		Token:    token,
		UserID:   identity.ID,
		Username: identity.Username,
	}))
}

// Me reports the authenticated caller's cross-guild permissions.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	permMap := middleware.GetPermissions(c)

	roleLabels := make(map[string]string, len(permMap))
	for guildID, tokens := range permMap {
		roleLabels[guildID] = perms.RoleLabel(tokens)
	}

	return c.JSON(dto.OK(dto.MeResponse{
		UserID:            middleware.GetUserID(c),
		IsSystemAdmin:     middleware.IsSystemAdmin(c),
		ServerPermissions: permMap,
		AccessibleServers: middleware.GetAccessibleGuilds(c),
		RoleLabels:        roleLabels,
	}))
}

// Guilds lists every guild the bot sees, annotated with the caller's access.
func (h *AuthHandler) Guilds(c *fiber.Ctx) error {
	permMap := middleware.GetPermissions(c)

	guilds := h.gateway.Guilds()
	out := make([]dto.GuildInfo, 0, len(guilds))
	for id, name := range guilds {
		tokens := permMap[id]
		out = append(out, dto.GuildInfo{
			ID:          id,
			Name:        name,
			Permissions: tokens,
			RoleLabel:   perms.RoleLabel(tokens),
		})
	}

	return c.JSON(dto.OK(out))
}
