package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// BalanceCache implements ports.BalanceCache using Redis. The whole
// balances map is stored as one JSON value under a single key and the
// key is deleted on every ledger append, so cached reads always match
// recomputation.
type BalanceCache struct {
	client *goredis.Client
	key    string
}

// NewBalanceCache creates a new Redis-backed balance cache.
func NewBalanceCache(client *goredis.Client) *BalanceCache {
	return &BalanceCache{
		client: client,
		key:    "ledger:balances",
	}
}

// Get retrieves the cached balances map.
// Returns nil, nil if nothing is cached.
func (c *BalanceCache) Get(ctx context.Context) (map[string]int64, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis balances get: %w", err)
	}

	var balances map[string]int64
	if err := json.Unmarshal(val, &balances); err != nil {
		return nil, fmt.Errorf("redis balances decode: %w", err)
	}
	return balances, nil
}

// Set stores the balances map with TTL.
func (c *BalanceCache) Set(ctx context.Context, balances map[string]int64, ttl time.Duration) error {
	data, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("redis balances encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis balances set: %w", err)
	}
	return nil
}

// Invalidate drops the cached balances.
func (c *BalanceCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis balances del: %w", err)
	}
	return nil
}
