package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mssola/useragent"
	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/events"
	"github.com/modguard/dashboard-api/internal/metrics"
	"github.com/modguard/dashboard-api/internal/models"
)

// UserDirectory resolves Discord user ids to display names.
type UserDirectory interface {
	FetchUsername(ctx context.Context, userID string) (string, error)
}

// EnrichedLog is a display-ready activity entry.
type EnrichedLog struct {
	models.ActivityLog
	Username    string `json:"username"`
	ActionLabel string `json:"action_label"`
	PageLabel   string `json:"page_label"`
	Client      string `json:"client,omitempty"`
	DisplayTime string `json:"display_time"`
}

const displayTimeFormat = "2006-01-02 15:04:05"

// Enricher turns stored activity rows into display form: usernames from a
// bounded cache (negative results included), label mapping, client labels,
// and timestamps in one fixed display zone.
type Enricher struct {
	directory UserDirectory
	publisher events.Publisher
	cache     *lru.Cache[string, string]
	loc       *time.Location
	timeout   time.Duration
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewEnricher(
	directory UserDirectory,
	publisher events.Publisher,
	cacheSize int,
	timezone string,
	lookupTimeout time.Duration,
	m *metrics.Metrics,
	log *zap.Logger,
) (*Enricher, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid display timezone %q: %w", timezone, err)
	}

	if lookupTimeout <= 0 {
		lookupTimeout = 3 * time.Second
	}

	return &Enricher{
		directory: directory,
		publisher: publisher,
		cache:     cache,
		loc:       loc,
		timeout:   lookupTimeout,
		metrics:   m,
		log:       log,
	}, nil
}

// Enrich post-processes a page of entries. It never fails: unresolvable
// names fall back to a deterministic placeholder.
func (e *Enricher) Enrich(ctx context.Context, entries []models.ActivityLog) []EnrichedLog {
	// One lookup per distinct actor missing a stored name.
	resolved := map[string]string{}
	for _, entry := range entries {
		if entry.Username != nil && *entry.Username != "" {
			continue
		}
		if _, done := resolved[entry.UserID]; done {
			continue
		}
		resolved[entry.UserID] = e.resolveUsername(ctx, entry.UserID)
	}

	out := make([]EnrichedLog, 0, len(entries))
	for _, entry := range entries {
		name := ""
		if entry.Username != nil {
			name = *entry.Username
		}
		if name == "" {
			name = resolved[entry.UserID]
		}

		out = append(out, EnrichedLog{
			ActivityLog: entry,
			Username:    name,
			ActionLabel: ActionLabel(entry.ActionType),
			PageLabel:   PageLabel(entry.Page),
			Client:      clientLabel(entry.UserAgent),
			DisplayTime: entry.CreatedAt.In(e.loc).Format(displayTimeFormat),
		})
	}
	return out
}

// resolveUsername consults the cache, then the directory under a timeout.
// Failures are cached as the placeholder so the same dead id is not retried
// on every page load.
func (e *Enricher) resolveUsername(ctx context.Context, userID string) string {
	if name, ok := e.cache.Get(userID); ok {
		if e.metrics != nil {
			e.metrics.UsernameCacheHits.Inc()
		}
		return name
	}
	if e.metrics != nil {
		e.metrics.UsernameCacheMisses.Inc()
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	name, err := e.directory.FetchUsername(lookupCtx, userID)
	if err != nil || name == "" {
		if e.metrics != nil {
			e.metrics.UsernameLookupErrors.Inc()
		}
		name = PlaceholderName(userID)
		e.cache.Add(userID, name)
		return name
	}

	e.cache.Add(userID, name)
	e.publishBackfill(ctx, userID, name)
	return name
}

// publishBackfill hands a resolved name to the worker so stored rows get
// their username column filled. Best effort, but failures are visible in
// the logs rather than silently dropped.
func (e *Enricher) publishBackfill(ctx context.Context, userID, username string) {
	if e.publisher == nil {
		return
	}
	err := e.publisher.Publish(ctx, events.StreamUsernames, events.Event{
		Type: events.EventUsernameResolved,
		Payload: map[string]any{
			"user_id":  userID,
			"username": username,
		},
	})
	if err != nil {
		e.log.Warn("failed to publish username backfill",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// PlaceholderName is the fallback display name for unresolvable ids.
func PlaceholderName(userID string) string {
	tail := userID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "User " + tail
}

func clientLabel(rawUA *string) string {
	if rawUA == nil || *rawUA == "" {
		return ""
	}
	ua := useragent.New(*rawUA)
	browser, _ := ua.Browser()
	os := ua.OS()
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	default:
		return ""
	}
}

var actionLabels = map[string]string{
	"login":             "Login",
	"logout":            "Logout",
	"permission_update": "Permissions updated",
	"warning_added":     "Warning issued",
	"warning_removal":   "Warning removed",
	"ticket_close":      "Ticket closed",
	"level_reset":       "Level reset",
	"member_kick":       "Member kicked",
	"member_ban":        "Member banned",
	"settings_update":   "Settings updated",
	"log_cleanup":       "Log cleanup",
	"manual_log":        "Manual entry",
}

var pageLabels = map[string]string{
	"login":     "Login",
	"dashboard": "Dashboard",
	"warnings":  "Warnings",
	"tickets":   "Tickets",
	"leveling":  "Leveling",
	"members":   "Members",
	"settings":  "Settings",
	"logs":      "Activity logs",
	"admin":     "Administration",
}

// ActionLabel maps an action token to its display label; unknown tokens get
// a title-cased fallback.
func ActionLabel(action string) string {
	if label, ok := actionLabels[action]; ok {
		return label
	}
	return titleCase(action)
}

// PageLabel maps a page token; unknown tokens pass through unchanged.
func PageLabel(page string) string {
	if label, ok := pageLabels[page]; ok {
		return label
	}
	return page
}

func titleCase(token string) string {
	words := strings.Split(strings.ReplaceAll(token, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
