package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCodeGuard marks OAuth authorization codes as used so a callback page
// double submit cannot replay one. Only a hash of the code is stored.
type RedisCodeGuard struct {
	rdb *redis.Client
}

func NewRedisCodeGuard(rdb *redis.Client) *RedisCodeGuard {
	return &RedisCodeGuard{rdb: rdb}
}

func codeKey(code string) string {
	digest := sha256.Sum256([]byte(code))
	return "oauth:code:" + hex.EncodeToString(digest[:])
}

// MarkUsed claims the code for this request. Returns false when the code was
// already claimed. A redis failure reports the code as fresh: rejecting every
// login during an outage is worse than a replay window.
func (g *RedisCodeGuard) MarkUsed(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	fresh, err := g.rdb.SetNX(ctx, codeKey(code), 1, ttl).Result()
	if err != nil {
		return true, err
	}
	return fresh, nil
}

// Release frees a claimed code so it can be retried. Called when the exchange
// fails before the code was consumed upstream.
func (g *RedisCodeGuard) Release(ctx context.Context, code string) {
	g.rdb.Del(ctx, codeKey(code))
}
