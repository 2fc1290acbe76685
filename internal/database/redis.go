package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pushp314/shortlink-backend/pkg/logger"
)

// NewRedis connects to Redis. A failed ping is logged but not fatal: token
// revocation degrades to a no-op when Redis is unavailable.
func NewRedis(addr, password string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis, token revocation disabled")
	} else {
		logger.Info().Str("addr", addr).Msg("Connected to Redis")
	}
	return client
}

// Blacklist stores revoked token IDs until their natural expiry.
type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

func (b *Blacklist) key(jti string) string {
	return "token_blacklist:" + jti
}

// Revoke marks a token ID as invalid for the remainder of its lifetime.
func (b *Blacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if b == nil || b.client == nil || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.key(jti), "revoked", ttl).Err()
}

// IsRevoked reports whether a token ID has been blacklisted. Errors are
// treated as not-revoked so a Redis outage does not lock every user out.
func (b *Blacklist) IsRevoked(ctx context.Context, jti string) bool {
	if b == nil || b.client == nil || jti == "" {
		return false
	}
	n, err := b.client.Exists(ctx, b.key(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
