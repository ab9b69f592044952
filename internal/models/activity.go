package models

import "time"

// GuildGlobal marks activity entries that are not scoped to any guild
// (logins, system-level admin actions).
const GuildGlobal = "global"

type ActivityLog struct {
	ID           int64     `json:"id"`
	GuildID      string    `json:"guild_id"`
	UserID       string    `json:"user_id"`
	Username     *string   `json:"username,omitempty"`
	ActionType   string    `json:"action_type"`
	Page         string    `json:"page"`
	TargetType   *string   `json:"target_type,omitempty"`
	TargetID     *string   `json:"target_id,omitempty"`
	OldValue     *string   `json:"old_value,omitempty"`
	NewValue     *string   `json:"new_value,omitempty"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	Details      string    `json:"details"`
	Success      bool      `json:"success"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActivityFilter narrows GetLogs. Nil fields are not applied. The date range
// is inclusive on both ends.
type ActivityFilter struct {
	UserID     *string
	GuildID    *string
	GuildIDs   []string // non-empty restricts to this guild set
	ActionType *string
	Page       *string
	TargetType *string
	Success    *bool
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

type ActivityStats struct {
	TotalActions       int            `json:"total_actions"`
	UniqueActors       int            `json:"unique_actors"`
	ActionsByKind      map[string]int `json:"actions_by_kind"`
	ActionsByPage      map[string]int `json:"actions_by_page"`
	SuccessRatePercent float64        `json:"success_rate_percent"`
}
