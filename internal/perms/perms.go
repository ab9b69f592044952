package perms

import "sort"

// Permission token constants. Tokens are stored as plain strings for
// backward compatibility with existing grant rows; new tokens must be added
// here so typos fail validation instead of silently granting nothing.
const (
	ViewLogs       = "view_logs"
	ManageWarnings = "manage_warnings"
	ManageTickets  = "manage_tickets"
	ManageLevels   = "manage_levels"
	ManageMembers  = "manage_members"
	ManageSettings = "manage_settings"
	Admin          = "admin"
	SystemAdmin    = "system_admin"
)

// Role labels derived from a token set. Display convenience only, never an
// authorization input.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

var known = map[string]struct{}{
	ViewLogs:       {},
	ManageWarnings: {},
	ManageTickets:  {},
	ManageLevels:   {},
	ManageMembers:  {},
	ManageSettings: {},
	Admin:          {},
	SystemAdmin:    {},
}

// RoleTemplates expands a role name from the admin API into a full token set.
var RoleTemplates = map[string][]string{
	RoleAdmin: {
		Admin, ViewLogs, ManageWarnings, ManageTickets, ManageLevels,
		ManageMembers, ManageSettings,
	},
	RoleModerator: {
		ViewLogs, ManageWarnings, ManageTickets, ManageMembers,
	},
	RoleUser: {},
}

// DefaultAccess is the token set granted when access is switched on without
// naming explicit tokens or a role.
var DefaultAccess = []string{ViewLogs}

func Valid(token string) bool {
	_, ok := known[token]
	return ok
}

// Normalize drops unknown tokens and duplicates and returns a sorted set.
// An empty result is a valid grant (explicit no-access).
func Normalize(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !Valid(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func Has(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func IsAdmin(tokens []string) bool {
	return Has(tokens, Admin) || Has(tokens, SystemAdmin)
}

// RoleLabel classifies a token set for display. Priority-ordered, not a
// hierarchy: system_admin wins over everything, manage_tickets marks a
// moderator, anything else is a plain user.
func RoleLabel(tokens []string) string {
	if Has(tokens, SystemAdmin) {
		return RoleAdmin
	}
	if Has(tokens, ManageTickets) {
		return RoleModerator
	}
	return RoleUser
}
