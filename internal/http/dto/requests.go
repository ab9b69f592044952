package dto

type DiscordCallbackRequest struct {
	Code    string `json:"code"`
	GuildID string `json:"guild_id,omitempty"`
}

type CreateLogRequest struct {
	GuildID      string  `json:"guild_id,omitempty"`
	ActionType   string  `json:"action_type"`
	Page         string  `json:"page"`
	TargetType   *string `json:"target_type,omitempty"`
	TargetID     *string `json:"target_id,omitempty"`
	OldValue     *string `json:"old_value,omitempty"`
	NewValue     *string `json:"new_value,omitempty"`
	Details      string  `json:"details,omitempty"`
	Success      *bool   `json:"success,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

type UpdateUserPermissionsRequest struct {
	GuildID         string   `json:"guildId"`
	Permissions     []string `json:"permissions,omitempty"`
	Role            string   `json:"role,omitempty"`
	DashboardAccess *bool    `json:"dashboardAccess,omitempty"`
}
