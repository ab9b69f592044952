package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/http/dto"
	"github.com/modguard/dashboard-api/internal/middleware"
	"github.com/modguard/dashboard-api/internal/models"
	"github.com/modguard/dashboard-api/internal/perms"
	"github.com/modguard/dashboard-api/internal/services"
)

type AdminHandler struct {
	store       services.PermissionStore
	activitySvc *services.ActivityService
	log         *zap.Logger
}

func NewAdminHandler(store services.PermissionStore, activitySvc *services.ActivityService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{store: store, activitySvc: activitySvc, log: log}
}

// ListUsers returns every user with dashboard access in a guild.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	guildID := c.Query("guild_id")
	if guildID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "guild_id is required"})
	}

	grants, err := h.store.ListAll(c.Context(), guildID)
	if err != nil {
		h.log.Error("failed to list permission grants", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	out := make([]dto.GrantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, dto.GrantResponse{
			UserID:      g.UserID,
			GuildID:     g.GuildID,
			Permissions: g.Permissions,
			RoleLabel:   perms.RoleLabel(g.Permissions),
		})
	}
	return c.JSON(dto.OK(out))
}

// UpdateUser replaces a user's permission set in one guild. The body names
// an explicit token list, a role from the template map, or just the
// dashboardAccess switch. The change is audited with the before/after sets.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	targetUserID := c.Params("userId")
	if targetUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "userId is required"})
	}

	var req dto.UpdateUserPermissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.GuildID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "guildId is required"})
	}

	oldPerms, err := h.store.Get(c.Context(), targetUserID, req.GuildID)
	if err != nil {
		h.log.Error("failed to read current grant", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	// Resolution order: role template, then explicit token list (an explicit
	// empty list is a revoke), then the bare access switch. The access switch
	// alone never wipes a grant the user already holds.
	var newPerms []string
	switch {
	case req.Role != "":
		template, ok := perms.RoleTemplates[req.Role]
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "unknown role"})
		}
		newPerms = append([]string{}, template...)
	case req.Permissions != nil:
		for _, tok := range req.Permissions {
			if !perms.Valid(tok) {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "unknown permission token: " + tok})
			}
		}
		newPerms = perms.Normalize(req.Permissions)
	case req.DashboardAccess != nil:
		if !*req.DashboardAccess {
			newPerms = []string{}
		} else if len(oldPerms) > 0 {
			newPerms = oldPerms
		} else {
			newPerms = append([]string{}, perms.DefaultAccess...)
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "permissions, role, or dashboardAccess is required"})
	}

	if err := h.store.Save(c.Context(), targetUserID, req.GuildID, newPerms); err != nil {
		h.log.Error("failed to save grant",
			zap.String("target_user_id", targetUserID),
			zap.String("guild_id", req.GuildID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	oldJSON, _ := json.Marshal(oldPerms)
	newJSON, _ := json.Marshal(newPerms)
	oldVal, newVal := string(oldJSON), string(newJSON)
	targetType := "dashboard_user"
	ip := c.IP()
	ua := c.Get("User-Agent")
	h.activitySvc.Log(c.Context(), &models.ActivityLog{
		GuildID:    req.GuildID,
		UserID:     middleware.GetUserID(c),
		ActionType: "permission_update",
		Page:       "admin",
		TargetType: &targetType,
		TargetID:   &targetUserID,
		OldValue:   &oldVal,
		NewValue:   &newVal,
		IPAddress:  &ip,
		UserAgent:  &ua,
		Details:    "dashboard permissions replaced",
		Success:    true,
	})

	return c.JSON(dto.OK(dto.GrantResponse{
		UserID:      targetUserID,
		GuildID:     req.GuildID,
		Permissions: newPerms,
		RoleLabel:   perms.RoleLabel(newPerms),
	}))
}
