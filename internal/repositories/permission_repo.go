package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modguard/dashboard-api/internal/models"
)

type PermissionRepo struct {
	pool *pgxpool.Pool
}

func NewPermissionRepo(pool *pgxpool.Pool) *PermissionRepo {
	return &PermissionRepo{pool: pool}
}

// Get returns the permission tokens granted to a user in a guild.
// A missing row is an empty set, not an error.
func (r *PermissionRepo) Get(ctx context.Context, userID, guildID string) ([]string, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT permissions FROM dashboard_permissions
		WHERE user_id = $1 AND guild_id = $2
	`, userID, guildID).Scan(&raw)
	if err == pgx.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	return perms, nil
}

// Save replaces the full permission set for (user, guild). Upsert, no
// history: saving an empty set keeps the row so the grant stays addressable.
func (r *PermissionRepo) Save(ctx context.Context, userID, guildID string, permissions []string) error {
	if permissions == nil {
		permissions = []string{}
	}
	raw, err := json.Marshal(permissions)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO dashboard_permissions (user_id, guild_id, permissions, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, guild_id) DO UPDATE SET
			permissions = EXCLUDED.permissions,
			updated_at = now()
	`, userID, guildID, raw)
	return err
}

// ListAll returns every user holding at least one token in the guild.
func (r *PermissionRepo) ListAll(ctx context.Context, guildID string) ([]models.PermissionGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, guild_id, permissions, updated_at
		FROM dashboard_permissions
		WHERE guild_id = $1 AND jsonb_array_length(permissions) > 0
		ORDER BY updated_at DESC
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []models.PermissionGrant
	for rows.Next() {
		var g models.PermissionGrant
		var raw []byte
		if err := rows.Scan(&g.UserID, &g.GuildID, &raw, &g.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &g.Permissions); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
