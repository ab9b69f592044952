package perms

import (
	"reflect"
	"testing"
)

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		expected bool
	}{
		{"empty set", nil, false},
		{"admin token", []string{Admin}, true},
		{"system_admin token", []string{SystemAdmin}, true},
		{"both", []string{Admin, SystemAdmin}, true},
		{"moderator tokens only", []string{ViewLogs, ManageTickets}, false},
		{"unrelated token", []string{ManageWarnings}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdmin(tt.tokens); got != tt.expected {
				t.Errorf("IsAdmin(%v) = %v, want %v", tt.tokens, got, tt.expected)
			}
		})
	}
}

func TestRoleLabel(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		expected string
	}{
		{"empty set", nil, RoleUser},
		{"system_admin wins", []string{ManageTickets, SystemAdmin}, RoleAdmin},
		{"manage_tickets makes moderator", []string{ViewLogs, ManageTickets}, RoleModerator},
		{"plain admin without system_admin is not labeled admin", []string{Admin}, RoleUser},
		{"view_logs only", []string{ViewLogs}, RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleLabel(tt.tokens); got != tt.expected {
				t.Errorf("RoleLabel(%v) = %q, want %q", tt.tokens, got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]string{ManageTickets, "bogus", ViewLogs, ManageTickets, ""})
	want := []string{ManageTickets, ViewLogs}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}

	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) = %v, want empty", got)
	}
}

func TestRoleTemplatesAreValid(t *testing.T) {
	for role, tokens := range RoleTemplates {
		for _, tok := range tokens {
			if !Valid(tok) {
				t.Errorf("role template %q contains unknown token %q", role, tok)
			}
		}
	}
}
