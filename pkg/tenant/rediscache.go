package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// redisKeyPrefix namespaces schema mappings in a shared Redis instance.
const redisKeyPrefix = "tenant:schema:"

// RedisSchemaCache resolves tenant keys to schema names through Redis,
// backed by the Directory on miss. It offers the same contract as
// SchemaCache for deployments that run several processes and want them to
// share one resolution cache; bounding is by TTL and Redis's own eviction
// policy rather than an in-process entry count. Redis outages degrade to
// directory loads instead of failing resolution.
type RedisSchemaCache struct {
	dir    Directory
	client *redis.Client
	ttl    time.Duration

	group singleflight.Group
}

// NewRedisSchemaCache creates a Redis-backed schema cache. A non-positive
// ttl falls back to DefaultCacheTTL.
func NewRedisSchemaCache(dir Directory, client *redis.Client, ttl time.Duration) *RedisSchemaCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisSchemaCache{dir: dir, client: client, ttl: ttl}
}

// Resolve returns the physical schema name for the tenant key. Loads for the
// same missing key coalesce within this process; the GETEX refreshes the TTL
// so the window behaves as access expiry, matching SchemaCache. Unknown
// tenants are never stored.
func (c *RedisSchemaCache) Resolve(ctx context.Context, key string) (string, error) {
	schema, err := c.client.GetEx(ctx, redisKeyPrefix+key, c.ttl).Result()
	if err == nil && schema != "" {
		return schema, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		t, err := c.dir.FindByKey(ctx, key)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				return "", fmt.Errorf("%w: %s", ErrUnknownTenant, key)
			}
			return "", err
		}
		// Best effort: a failed write only costs the next caller a
		// directory round trip.
		_ = c.client.Set(ctx, redisKeyPrefix+key, t.Key, c.ttl).Err()
		return t.Key, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the mapping for a key.
func (c *RedisSchemaCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, redisKeyPrefix+key).Err()
}
