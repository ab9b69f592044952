package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/http/dto"
	"github.com/modguard/dashboard-api/internal/middleware"
	"github.com/modguard/dashboard-api/internal/models"
	"github.com/modguard/dashboard-api/internal/services"
)

const maxPageSize = 100

type LogsHandler struct {
	activitySvc *services.ActivityService
	enricher    *services.Enricher
	log         *zap.Logger
}

func NewLogsHandler(activitySvc *services.ActivityService, enricher *services.Enricher, log *zap.Logger) *LogsHandler {
	return &LogsHandler{activitySvc: activitySvc, enricher: enricher, log: log}
}

// List returns a filtered, paginated, enriched page of activity entries.
// Non-admin callers only ever see guilds they hold permissions in.
func (h *LogsHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > maxPageSize {
		limit = 50
	}

	filter := models.ActivityFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if v := c.Query("user_id"); v != "" {
		filter.UserID = &v
	}
	if v := c.Query("action_type"); v != "" {
		filter.ActionType = &v
	}
	if v := c.Query("page_token"); v != "" {
		filter.Page = &v
	}
	if v := c.Query("target_type"); v != "" {
		filter.TargetType = &v
	}
	if v := c.Query("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid success value"})
		}
		filter.Success = &b
	}
	if v := c.Query("start_date"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid start_date, want RFC3339"})
		}
		filter.Since = &ts
	}
	if v := c.Query("end_date"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid end_date, want RFC3339"})
		}
		filter.Until = &ts
	}

	if status := scopeGuildFilter(c, &filter); status != 0 {
		return c.Status(status).JSON(dto.ErrorResponse{Error: "guild not accessible"})
	}

	entries, total, err := h.activitySvc.GetLogs(c.Context(), filter)
	if err != nil {
		h.log.Error("failed to list activity logs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(dto.OK(dto.LogListResponse{
		Entries:    h.enricher.Enrich(c.Context(), entries),
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}))
}

// scopeGuildFilter restricts the filter to guilds the caller may read.
// Returns a non-zero HTTP status on rejection.
func scopeGuildFilter(c *fiber.Ctx, filter *models.ActivityFilter) int {
	requested := c.Query("guild_id")

	if middleware.IsSystemAdmin(c) {
		if requested != "" {
			filter.GuildID = &requested
		}
		return 0
	}

	accessible := middleware.GetAccessibleGuilds(c)
	if requested != "" {
		for _, g := range accessible {
			if g == requested {
				filter.GuildID = &requested
				return 0
			}
		}
		return fiber.StatusForbidden
	}

	// Entries logged outside any guild (logins) are visible to anyone who
	// passed the view_logs gate.
	filter.GuildIDs = append(append([]string{}, accessible...), models.GuildGlobal)
	return 0
}

// Create stores a manual log entry on behalf of the authenticated actor.
func (h *LogsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateLogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.ActionType == "" || req.Page == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "action_type and page are required"})
	}

	if req.GuildID != "" && !middleware.IsSystemAdmin(c) {
		allowed := false
		for _, g := range middleware.GetAccessibleGuilds(c) {
			if g == req.GuildID {
				allowed = true
				break
			}
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "guild not accessible"})
		}
	}

	success := true
	if req.Success != nil {
		success = *req.Success
	}

	ip := c.IP()
	ua := c.Get("User-Agent")
	entry := &models.ActivityLog{
		GuildID:      req.GuildID,
		UserID:       middleware.GetUserID(c),
		ActionType:   req.ActionType,
		Page:         req.Page,
		TargetType:   req.TargetType,
		TargetID:     req.TargetID,
		OldValue:     req.OldValue,
		NewValue:     req.NewValue,
		IPAddress:    &ip,
		UserAgent:    &ua,
		Details:      req.Details,
		Success:      success,
		ErrorMessage: req.ErrorMessage,
	}

	stored := h.activitySvc.Log(c.Context(), entry)
	return c.JSON(dto.OK(fiber.Map{"stored": stored}))
}

// Cleanup purges entries older than the given age. Admin only, irreversible.
func (h *LogsHandler) Cleanup(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "30"))
	if err != nil || days < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "days must be a positive integer"})
	}

	deleted, err := h.activitySvc.CleanOldLogs(c.Context(), days)
	if err != nil {
		h.log.Error("log cleanup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	ip := c.IP()
	ua := c.Get("User-Agent")
	daysStr := strconv.Itoa(days)
	h.activitySvc.Log(c.Context(), &models.ActivityLog{
		UserID:     middleware.GetUserID(c),
		ActionType: "log_cleanup",
		Page:       "logs",
		NewValue:   &daysStr,
		IPAddress:  &ip,
		UserAgent:  &ua,
		Details:    "purged " + strconv.FormatInt(deleted, 10) + " entries",
		Success:    true,
	})

	return c.JSON(dto.OK(dto.CleanupResponse{DeletedCount: deleted, DaysOld: days}))
}

// Stats aggregates the trailing window.
func (h *LogsHandler) Stats(c *fiber.Ctx) error {
	hours, _ := strconv.Atoi(c.Query("hours", "24"))
	stats, err := h.activitySvc.Stats(c.Context(), hours)
	if err != nil {
		h.log.Error("failed to compute activity stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(dto.OK(stats))
}

// Recent is a convenience listing of the last N hours.
func (h *LogsHandler) Recent(c *fiber.Ctx) error {
	hours, _ := strconv.Atoi(c.Query("hours", "24"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > maxPageSize {
		limit = 50
	}

	entries, err := h.activitySvc.GetRecentLogs(c.Context(), hours, limit)
	if err != nil {
		h.log.Error("failed to fetch recent logs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(dto.OK(h.enricher.Enrich(c.Context(), entries)))
}

// UserLogs lists one actor's recent entries.
func (h *LogsHandler) UserLogs(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "userId is required"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > maxPageSize {
		limit = 50
	}

	entries, err := h.activitySvc.GetUserLogs(c.Context(), userID, limit)
	if err != nil {
		h.log.Error("failed to fetch user logs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(dto.OK(h.enricher.Enrich(c.Context(), entries)))
}
