package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/models"
)

type fakeActivityStore struct {
	entries   []models.ActivityLog
	dupErr    error
	insertErr error
	window    time.Duration
}

func (f *fakeActivityStore) Insert(_ context.Context, entry *models.ActivityLog) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	entry.ID = int64(len(f.entries) + 1)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityStore) HasRecentDuplicate(_ context.Context, entry *models.ActivityLog, window time.Duration) (bool, error) {
	f.window = window
	if f.dupErr != nil {
		return false, f.dupErr
	}
	cutoff := time.Now().Add(-window)
	for _, e := range f.entries {
		if e.UserID == entry.UserID &&
			e.ActionType == entry.ActionType &&
			e.Page == entry.Page &&
			strEq(e.TargetType, entry.TargetType) &&
			strEq(e.TargetID, entry.TargetID) &&
			e.CreatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func strEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakeActivityStore) List(_ context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	var out []models.ActivityLog
	for _, e := range f.entries {
		if filter.UserID != nil && e.UserID != *filter.UserID {
			continue
		}
		if filter.Since != nil && e.CreatedAt.Before(*filter.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeActivityStore) Stats(_ context.Context, _ time.Time) (*models.ActivityStats, error) {
	return &models.ActivityStats{}, nil
}

func (f *fakeActivityStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []models.ActivityLog
	var deleted int64
	for _, e := range f.entries {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

func TestLogActivity_DedupWithinWindow(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, 30*time.Second, nil, zap.NewNop())
	ctx := context.Background()

	entry := func() *models.ActivityLog {
		return &models.ActivityLog{UserID: "U2", ActionType: "login", Page: "login"}
	}

	if !svc.Log(ctx, entry()) {
		t.Fatal("first Log should store a row")
	}
	if svc.Log(ctx, entry()) {
		t.Fatal("second identical Log inside the window should be suppressed")
	}
	if len(store.entries) != 1 {
		t.Fatalf("stored rows = %d, want 1", len(store.entries))
	}

	// Same tuple outside the window stores again.
	store.entries[0].CreatedAt = time.Now().Add(-31 * time.Second)
	if !svc.Log(ctx, entry()) {
		t.Fatal("Log past the window should store a second row")
	}
	if len(store.entries) != 2 {
		t.Fatalf("stored rows = %d, want 2", len(store.entries))
	}
}

func TestLogActivity_DifferentTargetIsNotDuplicate(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, 30*time.Second, nil, zap.NewNop())
	ctx := context.Background()

	t1, t2 := "w1", "w2"
	a := &models.ActivityLog{UserID: "U1", ActionType: "warning_removal", Page: "warnings", TargetID: &t1}
	b := &models.ActivityLog{UserID: "U1", ActionType: "warning_removal", Page: "warnings", TargetID: &t2}

	if !svc.Log(ctx, a) || !svc.Log(ctx, b) {
		t.Fatal("entries with different targets should both store")
	}
}

func TestLogActivity_InsertFailureSwallowed(t *testing.T) {
	store := &fakeActivityStore{insertErr: fmt.Errorf("connection refused")}
	svc := NewActivityService(store, 30*time.Second, nil, zap.NewNop())

	if svc.Log(context.Background(), &models.ActivityLog{UserID: "U1", ActionType: "login", Page: "login"}) {
		t.Fatal("Log should return false on insert failure")
	}
	// No panic, no propagated error: that is the contract.
}

func TestLogActivity_DedupCheckFailureStillInserts(t *testing.T) {
	store := &fakeActivityStore{dupErr: fmt.Errorf("timeout")}
	svc := NewActivityService(store, 30*time.Second, nil, zap.NewNop())

	if !svc.Log(context.Background(), &models.ActivityLog{UserID: "U1", ActionType: "login", Page: "login"}) {
		t.Fatal("a failed dedup check should not block the insert")
	}
	if len(store.entries) != 1 {
		t.Fatalf("stored rows = %d, want 1", len(store.entries))
	}
}

func TestCleanOldLogs_Boundary(t *testing.T) {
	now := time.Now()
	store := &fakeActivityStore{entries: []models.ActivityLog{
		{ID: 1, UserID: "U1", ActionType: "login", CreatedAt: now.AddDate(0, 0, -31)},
		{ID: 2, UserID: "U1", ActionType: "login", CreatedAt: now.AddDate(0, 0, -29)},
	}}
	svc := NewActivityService(store, 30*time.Second, nil, zap.NewNop())

	deleted, err := svc.CleanOldLogs(context.Background(), 30)
	if err != nil {
		t.Fatalf("CleanOldLogs: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if len(store.entries) != 1 || store.entries[0].ID != 2 {
		t.Errorf("remaining = %+v, want only the 29-day-old entry", store.entries)
	}
}

func TestGetUserLogs_FiltersByUser(t *testing.T) {
	store := &fakeActivityStore{entries: []models.ActivityLog{
		{ID: 1, UserID: "U1", ActionType: "login", CreatedAt: time.Now()},
		{ID: 2, UserID: "U2", ActionType: "login", CreatedAt: time.Now()},
	}}
	svc := NewActivityService(store, 30*time.Second, nil, zap.NewNop())

	entries, err := svc.GetUserLogs(context.Background(), "U2", 10)
	if err != nil {
		t.Fatalf("GetUserLogs: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "U2" {
		t.Errorf("entries = %+v, want only U2", entries)
	}
}
