package tenant

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCacheSize is the default maximum number of cached mappings.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default access-expiry window. It bounds how
	// long a removed or renamed tenant's stale mapping could still be
	// served; the cache exists to avoid a directory round trip per
	// connection acquisition, not to add staleness tolerance.
	DefaultCacheTTL = 10 * time.Minute
)

// SchemaCache maps tenant keys to their physical schema names, backed by the
// Directory on miss. It is bounded by entry count with least-recently-accessed
// eviction, and entries expire after the access-expiry window. Concurrent
// misses for the same key coalesce into a single directory load; misses for
// distinct keys proceed independently.
type SchemaCache struct {
	dir     Directory
	maxSize int
	ttl     time.Duration

	mu       sync.Mutex
	items    map[string]*list.Element
	eviction *list.List // front = most recently accessed

	group singleflight.Group
}

type schemaEntry struct {
	key        string
	schema     string
	lastAccess time.Time
}

// CacheOption configures a SchemaCache.
type CacheOption func(*SchemaCache)

// WithCacheSize sets the maximum number of entries. Non-positive values are
// ignored and the default applies.
func WithCacheSize(n int) CacheOption {
	return func(c *SchemaCache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithCacheTTL sets the access-expiry window. Non-positive values are
// ignored and the default applies.
func WithCacheTTL(d time.Duration) CacheOption {
	return func(c *SchemaCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// NewSchemaCache creates a cache over the given directory.
func NewSchemaCache(dir Directory, opts ...CacheOption) *SchemaCache {
	c := &SchemaCache{
		dir:      dir,
		maxSize:  DefaultCacheSize,
		ttl:      DefaultCacheTTL,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the physical schema name for the tenant key. On a cold key
// it loads from the directory, with single-flight coalescing so the load for
// each missing key executes exactly once under concurrent callers. A failed
// load is never stored, so the next call for the same key retries.
// Returns ErrUnknownTenant if the key has no directory record.
func (c *SchemaCache) Resolve(ctx context.Context, key string) (string, error) {
	if schema, ok := c.get(key); ok {
		return schema, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under single flight: a racing caller may have populated
		// the entry between our miss and acquiring the flight.
		if schema, ok := c.get(key); ok {
			return schema, nil
		}
		t, err := c.dir.FindByKey(ctx, key)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				return "", fmt.Errorf("%w: %s", ErrUnknownTenant, key)
			}
			return "", err
		}
		c.put(key, t.Key)
		return t.Key, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the mapping for a key, forcing the next Resolve to load
// from the directory.
func (c *SchemaCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		delete(c.items, key)
		c.eviction.Remove(elem)
	}
}

// Len reports the current number of cached mappings.
func (c *SchemaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *SchemaCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return "", false
	}
	entry := elem.Value.(*schemaEntry)
	if time.Since(entry.lastAccess) > c.ttl {
		delete(c.items, key)
		c.eviction.Remove(elem)
		return "", false
	}
	entry.lastAccess = time.Now()
	c.eviction.MoveToFront(elem)
	return entry.schema, true
}

func (c *SchemaCache) put(key, schema string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*schemaEntry)
		entry.schema = schema
		entry.lastAccess = time.Now()
		c.eviction.MoveToFront(elem)
		return
	}

	if len(c.items) >= c.maxSize {
		if oldest := c.eviction.Back(); oldest != nil {
			entry := oldest.Value.(*schemaEntry)
			delete(c.items, entry.key)
			c.eviction.Remove(oldest)
		}
	}

	elem := c.eviction.PushFront(&schemaEntry{
		key:        key,
		schema:     schema,
		lastAccess: time.Now(),
	})
	c.items[key] = elem
}
