package models

import "time"

// PermissionGrant is one dashboard-access row: the set of permission tokens a
// user holds inside a single guild. At most one row exists per (user, guild).
type PermissionGrant struct {
	UserID      string    `json:"user_id"`
	GuildID     string    `json:"guild_id"`
	Permissions []string  `json:"permissions"`
	UpdatedAt   time.Time `json:"updated_at"`
}
