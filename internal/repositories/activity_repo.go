package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modguard/dashboard-api/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

// Insert stores one audit entry. created_at is assigned by the database.
func (r *ActivityRepo) Insert(ctx context.Context, entry *models.ActivityLog) error {
	if entry.GuildID == "" {
		entry.GuildID = models.GuildGlobal
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO dashboard_activity_logs
			(guild_id, user_id, username, action_type, page, target_type, target_id,
			 old_value, new_value, ip_address, user_agent, details, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`, entry.GuildID, entry.UserID, entry.Username, entry.ActionType, entry.Page,
		entry.TargetType, entry.TargetID, entry.OldValue, entry.NewValue,
		entry.IPAddress, entry.UserAgent, entry.Details, entry.Success, entry.ErrorMessage,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// HasRecentDuplicate reports whether an entry with the same
// (user, action, page, target type, target id) tuple exists within the
// window. The check and the later insert are separate statements; two
// concurrent identical requests can both pass, which is accepted for an
// audit trail.
func (r *ActivityRepo) HasRecentDuplicate(ctx context.Context, entry *models.ActivityLog, window time.Duration) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM dashboard_activity_logs
			WHERE user_id = $1
			  AND action_type = $2
			  AND page = $3
			  AND target_type IS NOT DISTINCT FROM $4
			  AND target_id IS NOT DISTINCT FROM $5
			  AND created_at > now() - make_interval(secs => $6)
		)
	`, entry.UserID, entry.ActionType, entry.Page, entry.TargetType, entry.TargetID,
		window.Seconds()).Scan(&exists)
	return exists, err
}

// List returns a filtered page of entries, newest first, plus the total
// count matching the filter.
func (r *ActivityRepo) List(ctx context.Context, f models.ActivityFilter) ([]models.ActivityLog, int, error) {
	where, args := buildActivityWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM dashboard_activity_logs" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, guild_id, user_id, username, action_type, page, target_type, target_id,
		       old_value, new_value, ip_address, user_agent, details, success, error_message, created_at
		FROM dashboard_activity_logs` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []models.ActivityLog
	for rows.Next() {
		var e models.ActivityLog
		if err := rows.Scan(&e.ID, &e.GuildID, &e.UserID, &e.Username, &e.ActionType, &e.Page,
			&e.TargetType, &e.TargetID, &e.OldValue, &e.NewValue, &e.IPAddress, &e.UserAgent,
			&e.Details, &e.Success, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// buildActivityWhere assembles a parameterized WHERE clause from the filter.
// Values only ever travel as positional args, never into the SQL text.
func buildActivityWhere(f models.ActivityFilter) (string, []any) {
	clauses := ""
	args := []any{}
	argIdx := 1

	add := func(cond string, val any) {
		if clauses == "" {
			clauses = " WHERE "
		} else {
			clauses += " AND "
		}
		clauses += fmt.Sprintf(cond, argIdx)
		args = append(args, val)
		argIdx++
	}

	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.GuildID != nil {
		add("guild_id = $%d", *f.GuildID)
	}
	if len(f.GuildIDs) > 0 {
		add("guild_id = ANY($%d)", f.GuildIDs)
	}
	if f.ActionType != nil {
		add("action_type = $%d", *f.ActionType)
	}
	if f.Page != nil {
		add("page = $%d", *f.Page)
	}
	if f.TargetType != nil {
		add("target_type = $%d", *f.TargetType)
	}
	if f.Success != nil {
		add("success = $%d", *f.Success)
	}
	if f.Since != nil {
		add("created_at >= $%d", *f.Since)
	}
	if f.Until != nil {
		add("created_at <= $%d", *f.Until)
	}

	return clauses, args
}

// Stats aggregates the trailing window ending now.
func (r *ActivityRepo) Stats(ctx context.Context, since time.Time) (*models.ActivityStats, error) {
	stats := &models.ActivityStats{
		ActionsByKind: map[string]int{},
		ActionsByPage: map[string]int{},
	}

	var successes int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_id), COUNT(*) FILTER (WHERE success)
		FROM dashboard_activity_logs WHERE created_at >= $1
	`, since).Scan(&stats.TotalActions, &stats.UniqueActors, &successes)
	if err != nil {
		return nil, err
	}

	if stats.TotalActions > 0 {
		stats.SuccessRatePercent = float64(successes) / float64(stats.TotalActions) * 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT action_type, COUNT(*) FROM dashboard_activity_logs
		WHERE created_at >= $1 GROUP BY action_type
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		stats.ActionsByKind[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pageRows, err := r.pool.Query(ctx, `
		SELECT page, COUNT(*) FROM dashboard_activity_logs
		WHERE created_at >= $1 GROUP BY page
	`, since)
	if err != nil {
		return nil, err
	}
	defer pageRows.Close()
	for pageRows.Next() {
		var page string
		var n int
		if err := pageRows.Scan(&page, &n); err != nil {
			return nil, err
		}
		stats.ActionsByPage[page] = n
	}
	return stats, pageRows.Err()
}

// DeleteOlderThan removes entries strictly older than the cutoff. An entry
// created exactly at the cutoff survives.
func (r *ActivityRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM dashboard_activity_logs WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SetUsername backfills the display name on entries that were stored before
// the actor's name was known.
func (r *ActivityRepo) SetUsername(ctx context.Context, userID, username string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE dashboard_activity_logs SET username = $1
		WHERE user_id = $2 AND username IS NULL
	`, username, userID)
	return err
}
