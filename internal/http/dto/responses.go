package dto

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func OK(data any) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}

type AuthResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type MeResponse struct {
	UserID            string              `json:"user_id"`
	IsSystemAdmin     bool                `json:"is_system_admin"`
	ServerPermissions map[string][]string `json:"server_permissions"`
	AccessibleServers []string            `json:"accessible_servers"`
	RoleLabels        map[string]string   `json:"role_labels"`
}

type GuildInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
	RoleLabel   string   `json:"role_label"`
}

type LogListResponse struct {
	Entries    any `json:"entries"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
}

type CleanupResponse struct {
	DeletedCount int64 `json:"deleted_count"`
	DaysOld      int   `json:"days_old"`
}

type GrantResponse struct {
	UserID      string   `json:"user_id"`
	GuildID     string   `json:"guild_id"`
	Permissions []string `json:"permissions"`
	RoleLabel   string   `json:"role_label"`
}
