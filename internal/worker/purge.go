package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/services"
)

// Purger deletes activity entries older than the retention window on a
// fixed interval.
type Purger struct {
	activitySvc   *services.ActivityService
	retentionDays int
	interval      time.Duration
	log           *zap.Logger
}

func NewPurger(activitySvc *services.ActivityService, retentionDays int, interval time.Duration, log *zap.Logger) *Purger {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Purger{
		activitySvc:   activitySvc,
		retentionDays: retentionDays,
		interval:      interval,
		log:           log,
	}
}

func (p *Purger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := p.activitySvc.CleanOldLogs(ctx, p.retentionDays)
			if err != nil {
				p.log.Error("retention purge failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				p.log.Info("retention purge complete", zap.Int64("deleted", deleted))
			}
		}
	}
}
