package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/metrics"
	"github.com/modguard/dashboard-api/internal/models"
)

// ActivityStore is the audit persistence surface.
type ActivityStore interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	HasRecentDuplicate(ctx context.Context, entry *models.ActivityLog, window time.Duration) (bool, error)
	List(ctx context.Context, f models.ActivityFilter) ([]models.ActivityLog, int, error)
	Stats(ctx context.Context, since time.Time) (*models.ActivityStats, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type ActivityService struct {
	store       ActivityStore
	dedupWindow time.Duration
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func NewActivityService(store ActivityStore, dedupWindow time.Duration, m *metrics.Metrics, log *zap.Logger) *ActivityService {
	if dedupWindow <= 0 {
		dedupWindow = 30 * time.Second
	}
	return &ActivityService{store: store, dedupWindow: dedupWindow, metrics: m, log: log}
}

// Log records one audit entry, suppressing structurally identical entries
// inside the dedup window. Returns true only when a row was stored. All
// failures are swallowed: audit logging must never abort the action it
// documents.
func (s *ActivityService) Log(ctx context.Context, entry *models.ActivityLog) bool {
	dup, err := s.store.HasRecentDuplicate(ctx, entry, s.dedupWindow)
	if err != nil {
		// Dedup is best effort; insert anyway.
		s.log.Warn("activity dedup check failed", zap.Error(err))
	} else if dup {
		if s.metrics != nil {
			s.metrics.DuplicatesSuppressed.Inc()
		}
		return false
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		if s.metrics != nil {
			s.metrics.LogInsertFailures.Inc()
		}
		s.log.Error("failed to store activity entry",
			zap.String("user_id", entry.UserID),
			zap.String("action_type", entry.ActionType),
			zap.Error(err),
		)
		return false
	}

	if s.metrics != nil {
		s.metrics.ActivitiesLogged.Inc()
	}
	return true
}

func (s *ActivityService) GetLogs(ctx context.Context, f models.ActivityFilter) ([]models.ActivityLog, int, error) {
	return s.store.List(ctx, f)
}

func (s *ActivityService) GetUserLogs(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	entries, _, err := s.store.List(ctx, models.ActivityFilter{
		UserID: &userID,
		Limit:  limit,
	})
	return entries, err
}

func (s *ActivityService) GetRecentLogs(ctx context.Context, hours, limit int) ([]models.ActivityLog, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	entries, _, err := s.store.List(ctx, models.ActivityFilter{
		Since: &since,
		Limit: limit,
	})
	return entries, err
}

func (s *ActivityService) Stats(ctx context.Context, hours int) (*models.ActivityStats, error) {
	if hours <= 0 {
		hours = 24
	}
	return s.store.Stats(ctx, time.Now().Add(-time.Duration(hours)*time.Hour))
}

// CleanOldLogs irreversibly deletes entries older than daysOld days.
func (s *ActivityService) CleanOldLogs(ctx context.Context, daysOld int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -daysOld)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("purged old activity entries",
			zap.Int64("deleted", deleted),
			zap.Int("days_old", daysOld),
		)
	}
	return deleted, nil
}
