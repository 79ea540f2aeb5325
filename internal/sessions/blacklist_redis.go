package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRevokedPrefix namespaces revoked-token keys in a shared Redis.
const DefaultRevokedPrefix = "clinote:revoked:"

// RedisBlacklist keeps revoked tokens as expiring Redis keys, shared by all replicas.
type RedisBlacklist struct {
	client *redis.Client
	prefix string
}

func NewRedisBlacklist(client *redis.Client, prefix string) *RedisBlacklist {
	if prefix == "" {
		prefix = DefaultRevokedPrefix
	}
	return &RedisBlacklist{client: client, prefix: prefix}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.prefix+tokenDigest(token), "1", ttl).Err()
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+tokenDigest(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
