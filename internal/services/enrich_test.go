package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/events"
	"github.com/modguard/dashboard-api/internal/models"
)

type fakeDirectory struct {
	names map[string]string
	calls int
}

func (f *fakeDirectory) FetchUsername(_ context.Context, userID string) (string, error) {
	f.calls++
	name, ok := f.names[userID]
	if !ok {
		return "", fmt.Errorf("unknown user")
	}
	return name, nil
}

type recordingPublisher struct {
	published []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	r.published = append(r.published, event)
	return nil
}

func newTestEnricher(t *testing.T, dir UserDirectory, pub events.Publisher) *Enricher {
	t.Helper()
	e, err := NewEnricher(dir, pub, 16, "UTC", time.Second, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}
	return e
}

func TestEnrich_ResolvesMissingUsernames(t *testing.T) {
	dir := &fakeDirectory{names: map[string]string{"100200300400": "alice"}}
	pub := &recordingPublisher{}
	e := newTestEnricher(t, dir, pub)

	out := e.Enrich(context.Background(), []models.ActivityLog{
		{UserID: "100200300400", ActionType: "login", Page: "login", CreatedAt: time.Now()},
	})

	if out[0].Username != "alice" {
		t.Errorf("Username = %q, want alice", out[0].Username)
	}
	if len(pub.published) != 1 {
		t.Errorf("backfill events = %d, want 1", len(pub.published))
	}
}

func TestEnrich_PlaceholderForUnresolvable(t *testing.T) {
	e := newTestEnricher(t, &fakeDirectory{}, nil)

	out := e.Enrich(context.Background(), []models.ActivityLog{
		{UserID: "999888777666", ActionType: "login", Page: "login", CreatedAt: time.Now()},
	})

	if out[0].Username != "User 7666" {
		t.Errorf("Username = %q, want placeholder 'User 7666'", out[0].Username)
	}
	if out[0].Username == "" {
		t.Error("enriched username must never be empty")
	}
}

func TestEnrich_CachesLookupsAcrossEntries(t *testing.T) {
	dir := &fakeDirectory{names: map[string]string{"u1": "bob"}}
	e := newTestEnricher(t, dir, nil)
	now := time.Now()

	page := []models.ActivityLog{
		{UserID: "u1", ActionType: "login", Page: "login", CreatedAt: now},
		{UserID: "u1", ActionType: "logout", Page: "login", CreatedAt: now},
	}

	e.Enrich(context.Background(), page)
	e.Enrich(context.Background(), page)

	if dir.calls != 1 {
		t.Errorf("directory calls = %d, want 1 (deduped and cached)", dir.calls)
	}
}

func TestEnrich_NegativeResultsCached(t *testing.T) {
	dir := &fakeDirectory{}
	e := newTestEnricher(t, dir, nil)

	entry := []models.ActivityLog{{UserID: "gone", ActionType: "login", Page: "login", CreatedAt: time.Now()}}
	e.Enrich(context.Background(), entry)
	e.Enrich(context.Background(), entry)

	if dir.calls != 1 {
		t.Errorf("directory calls = %d, want 1 (failed lookup cached)", dir.calls)
	}
}

func TestEnrich_KeepsStoredUsername(t *testing.T) {
	dir := &fakeDirectory{names: map[string]string{"u1": "fresh"}}
	e := newTestEnricher(t, dir, nil)
	stored := "stored-name"

	out := e.Enrich(context.Background(), []models.ActivityLog{
		{UserID: "u1", Username: &stored, ActionType: "login", Page: "login", CreatedAt: time.Now()},
	})

	if out[0].Username != "stored-name" {
		t.Errorf("Username = %q, want stored-name", out[0].Username)
	}
	if dir.calls != 0 {
		t.Errorf("directory calls = %d, want 0", dir.calls)
	}
}

func TestEnrich_DisplayTime(t *testing.T) {
	e, err := NewEnricher(&fakeDirectory{}, nil, 16, "Europe/Berlin", time.Second, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}

	// 12:00 UTC in January is 13:00 in Berlin (CET).
	created := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	name := "n"
	out := e.Enrich(context.Background(), []models.ActivityLog{
		{UserID: "u1", Username: &name, ActionType: "login", Page: "login", CreatedAt: created},
	})

	if out[0].DisplayTime != "2025-01-15 13:00:00" {
		t.Errorf("DisplayTime = %q, want 2025-01-15 13:00:00", out[0].DisplayTime)
	}
}

func TestNewEnricher_RejectsBadTimezone(t *testing.T) {
	if _, err := NewEnricher(&fakeDirectory{}, nil, 16, "Mars/Olympus", time.Second, nil, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestActionLabel(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"login", "Login"},
		{"warning_removal", "Warning removed"},
		{"some_new_action", "Some New Action"}, // title-cased fallback
	}
	for _, tt := range tests {
		if got := ActionLabel(tt.token); got != tt.expected {
			t.Errorf("ActionLabel(%q) = %q, want %q", tt.token, got, tt.expected)
		}
	}
}

func TestPageLabel_UnknownPassesThrough(t *testing.T) {
	if got := PageLabel("mystery_page"); got != "mystery_page" {
		t.Errorf("PageLabel = %q, want passthrough", got)
	}
	if got := PageLabel("warnings"); got != "Warnings" {
		t.Errorf("PageLabel = %q, want Warnings", got)
	}
}

func TestPlaceholderName_ShortID(t *testing.T) {
	if got := PlaceholderName("ab"); got != "User ab" {
		t.Errorf("PlaceholderName = %q", got)
	}
}

func TestClientLabel(t *testing.T) {
	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	if got := clientLabel(&chrome); got != "Chrome on Windows 10" {
		t.Errorf("clientLabel = %q, want Chrome on Windows 10", got)
	}
	if got := clientLabel(nil); got != "" {
		t.Errorf("clientLabel(nil) = %q, want empty", got)
	}
}
