package variants

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const optionCacheKey = "catalog:variant_options"

// OptionCache keeps the active-variant option list in Redis so the create
// and list pages do not hit the database on every render. Variant writes
// invalidate the entry.
type OptionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOptionCache constructs an OptionCache. A nil client disables caching.
func NewOptionCache(client *redis.Client, ttl time.Duration) *OptionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OptionCache{client: client, ttl: ttl}
}

// Get returns the cached option list, or ok=false on miss.
func (c *OptionCache) Get(ctx context.Context) ([]Option, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, optionCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var options []Option
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, false
	}
	return options, true
}

// Set stores the option list with the configured TTL.
func (c *OptionCache) Set(ctx context.Context, options []Option) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, optionCacheKey, data, c.ttl).Err()
}

// Invalidate drops the cached option list.
func (c *OptionCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, optionCacheKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
