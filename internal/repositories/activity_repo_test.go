package repositories

import (
	"strings"
	"testing"
	"time"

	"github.com/modguard/dashboard-api/internal/models"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestBuildActivityWhere_Empty(t *testing.T) {
	where, args := buildActivityWhere(models.ActivityFilter{})
	if where != "" {
		t.Errorf("where = %q, want empty", where)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestBuildActivityWhere_SingleFilter(t *testing.T) {
	where, args := buildActivityWhere(models.ActivityFilter{UserID: strPtr("42")})
	if where != " WHERE user_id = $1" {
		t.Errorf("where = %q", where)
	}
	if len(args) != 1 || args[0] != "42" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildActivityWhere_AllFilters(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)
	f := models.ActivityFilter{
		UserID:     strPtr("u1"),
		GuildID:    strPtr("g1"),
		ActionType: strPtr("login"),
		Page:       strPtr("login"),
		TargetType: strPtr("user"),
		Success:    boolPtr(true),
		Since:      &since,
		Until:      &until,
	}

	where, args := buildActivityWhere(f)

	if len(args) != 8 {
		t.Fatalf("args = %d, want 8", len(args))
	}
	// Placeholders must be sequential so values and positions stay aligned.
	for i := 1; i <= 8; i++ {
		if !strings.Contains(where, sprintfPlaceholder(i)) {
			t.Errorf("where missing $%d: %q", i, where)
		}
	}
	if strings.Count(where, " AND ") != 7 {
		t.Errorf("where has wrong AND count: %q", where)
	}
}

func sprintfPlaceholder(i int) string {
	return "$" + string(rune('0'+i))
}

func TestBuildActivityWhere_GuildSet(t *testing.T) {
	where, args := buildActivityWhere(models.ActivityFilter{GuildIDs: []string{"g1", "g2"}})
	if where != " WHERE guild_id = ANY($1)" {
		t.Errorf("where = %q", where)
	}
	if len(args) != 1 {
		t.Fatalf("args = %v", args)
	}
}

func TestBuildActivityWhere_NoValueInterpolation(t *testing.T) {
	// Filter values must never end up in the SQL text itself.
	hostile := "x'; DROP TABLE dashboard_activity_logs; --"
	where, args := buildActivityWhere(models.ActivityFilter{ActionType: &hostile})
	if strings.Contains(where, "DROP TABLE") {
		t.Fatalf("filter value leaked into SQL: %q", where)
	}
	if len(args) != 1 || args[0] != hostile {
		t.Errorf("args = %v", args)
	}
}
