package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/modguard/dashboard-api/internal/models"
)

// PermissionStore is the grant persistence surface the resolver needs.
type PermissionStore interface {
	Get(ctx context.Context, userID, guildID string) ([]string, error)
	Save(ctx context.Context, userID, guildID string, permissions []string) error
	ListAll(ctx context.Context, guildID string) ([]models.PermissionGrant, error)
}

// GuildLister enumerates the guilds the bot currently sees. An empty map
// means the gateway is down; callers treat that as "no accessible guilds".
type GuildLister interface {
	Guilds() map[string]string
}

type PermissionResolver struct {
	store   PermissionStore
	gateway GuildLister
	log     *zap.Logger
}

func NewPermissionResolver(store PermissionStore, gateway GuildLister, log *zap.Logger) *PermissionResolver {
	return &PermissionResolver{store: store, gateway: gateway, log: log}
}

// ForGuild returns the caller's tokens in one guild. Missing grant is an
// empty set.
func (r *PermissionResolver) ForGuild(ctx context.Context, userID, guildID string) ([]string, error) {
	return r.store.Get(ctx, userID, guildID)
}

// AllGuilds resolves the user's permissions in every guild the bot is in.
// Guilds where the user holds nothing are omitted. A store failure for one
// guild skips that guild rather than failing the whole resolution.
func (r *PermissionResolver) AllGuilds(ctx context.Context, userID string) (map[string][]string, error) {
	result := map[string][]string{}

	for guildID := range r.gateway.Guilds() {
		perms, err := r.store.Get(ctx, userID, guildID)
		if err != nil {
			r.log.Warn("permission lookup failed",
				zap.String("user_id", userID),
				zap.String("guild_id", guildID),
				zap.Error(err),
			)
			continue
		}
		if len(perms) > 0 {
			result[guildID] = perms
		}
	}

	return result, nil
}
