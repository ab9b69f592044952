package services

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/models"
)

type fakePermStore struct {
	grants map[string][]string // "user/guild" -> tokens
	errOn  map[string]error
}

func (f *fakePermStore) key(u, g string) string { return u + "/" + g }

func (f *fakePermStore) Get(_ context.Context, userID, guildID string) ([]string, error) {
	if err := f.errOn[f.key(userID, guildID)]; err != nil {
		return nil, err
	}
	perms, ok := f.grants[f.key(userID, guildID)]
	if !ok {
		return []string{}, nil
	}
	return perms, nil
}

func (f *fakePermStore) Save(_ context.Context, userID, guildID string, permissions []string) error {
	if f.grants == nil {
		f.grants = map[string][]string{}
	}
	f.grants[f.key(userID, guildID)] = permissions
	return nil
}

func (f *fakePermStore) ListAll(_ context.Context, _ string) ([]models.PermissionGrant, error) {
	return nil, nil
}

type fakeGuilds map[string]string

func (f fakeGuilds) Guilds() map[string]string { return f }

func TestResolverForGuild_MissingGrantIsEmpty(t *testing.T) {
	r := NewPermissionResolver(&fakePermStore{}, fakeGuilds{}, zap.NewNop())

	perms, err := r.ForGuild(context.Background(), "u1", "g1")
	if err != nil {
		t.Fatalf("ForGuild: %v", err)
	}
	if len(perms) != 0 {
		t.Errorf("perms = %v, want empty", perms)
	}
}

func TestResolverAllGuilds(t *testing.T) {
	store := &fakePermStore{grants: map[string][]string{
		"u1/g1": {"view_logs"},
		"u1/g2": {},
		"u1/g3": {"manage_tickets", "view_logs"},
	}}
	gateway := fakeGuilds{"g1": "Guild One", "g2": "Guild Two", "g3": "Guild Three"}
	r := NewPermissionResolver(store, gateway, zap.NewNop())

	got, err := r.AllGuilds(context.Background(), "u1")
	if err != nil {
		t.Fatalf("AllGuilds: %v", err)
	}

	var guilds []string
	for g := range got {
		guilds = append(guilds, g)
	}
	sort.Strings(guilds)
	if !reflect.DeepEqual(guilds, []string{"g1", "g3"}) {
		t.Errorf("guilds = %v, want [g1 g3] (empty grants omitted)", guilds)
	}
}

func TestResolverAllGuilds_GatewayDown(t *testing.T) {
	store := &fakePermStore{grants: map[string][]string{"u1/g1": {"view_logs"}}}
	r := NewPermissionResolver(store, fakeGuilds{}, zap.NewNop())

	got, err := r.AllGuilds(context.Background(), "u1")
	if err != nil {
		t.Fatalf("AllGuilds: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got = %v, want empty map when no guilds visible", got)
	}
}

func TestResolverAllGuilds_StoreFailureSkipsGuild(t *testing.T) {
	store := &fakePermStore{
		grants: map[string][]string{"u1/g1": {"view_logs"}},
		errOn:  map[string]error{"u1/g2": fmt.Errorf("connection refused")},
	}
	r := NewPermissionResolver(store, fakeGuilds{"g1": "One", "g2": "Two"}, zap.NewNop())

	got, err := r.AllGuilds(context.Background(), "u1")
	if err != nil {
		t.Fatalf("AllGuilds: %v", err)
	}
	if _, ok := got["g1"]; !ok {
		t.Error("g1 missing from result")
	}
	if _, ok := got["g2"]; ok {
		t.Error("failed guild g2 should be skipped, not included")
	}
}
