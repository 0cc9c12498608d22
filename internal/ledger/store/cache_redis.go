package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	id "idledger/pkg/domain"
)

const (
	// Redis key prefix for registered accounts
	registeredKeyPrefix = "ledger:registered:"
)

// RedisRegistrationCache remembers accounts known to be registered.
//
// Only positive facts are cached: registration is one-way, so a cached true
// can never go stale. A miss means "ask the store", never "not registered".
type RedisRegistrationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisCacheOption configures a RedisRegistrationCache instance.
type RedisCacheOption func(*RedisRegistrationCache)

// WithCacheTTL expires cache entries after ttl. Zero keeps them forever.
func WithCacheTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisRegistrationCache) {
		c.ttl = ttl
	}
}

func NewRedisRegistrationCache(client *redis.Client, opts ...RedisCacheOption) *RedisRegistrationCache {
	c := &RedisRegistrationCache{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// IsRegistered reports a cache hit. false means unknown, not unregistered.
func (c *RedisRegistrationCache) IsRegistered(ctx context.Context, account id.Address) (bool, error) {
	_, err := c.client.Get(ctx, registeredKeyPrefix+account.String()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkRegistered records that account has an active identity.
func (c *RedisRegistrationCache) MarkRegistered(ctx context.Context, account id.Address) error {
	// Store "1" as a simple marker; the key existence is what matters
	return c.client.Set(ctx, registeredKeyPrefix+account.String(), "1", c.ttl).Err()
}
