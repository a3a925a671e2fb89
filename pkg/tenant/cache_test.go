package tenant_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantkit/tenantkit/pkg/tenant"
)

// fakeDirectory is a map-backed Directory with hooks for observing and
// stalling loads.
type fakeDirectory struct {
	mu      sync.Mutex
	tenants map[string]tenant.Tenant
	loads   atomic.Int64
	onFind  func(key string) // runs before the lookup, outside the lock
	findErr error
}

func newFakeDirectory(keys ...string) *fakeDirectory {
	d := &fakeDirectory{tenants: make(map[string]tenant.Tenant)}
	for _, key := range keys {
		d.tenants[key] = tenant.Tenant{Key: key, Enabled: true}
	}
	return d
}

func (d *fakeDirectory) FindByKey(ctx context.Context, key string) (*tenant.Tenant, error) {
	d.loads.Add(1)
	if d.onFind != nil {
		d.onFind(key)
	}
	if d.findErr != nil {
		return nil, d.findErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tenants[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, key)
	}
	return &t, nil
}

func (d *fakeDirectory) FindAll(ctx context.Context) ([]tenant.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var all []tenant.Tenant
	for _, t := range d.tenants {
		all = append(all, t)
	}
	return all, nil
}

func (d *fakeDirectory) Save(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tenants[t.Key] = *t
	return t, nil
}

func TestSchemaCache_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("loads from directory on miss", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory("acme")
		cache := tenant.NewSchemaCache(dir)

		schema, err := cache.Resolve(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme", schema)
		assert.EqualValues(t, 1, dir.loads.Load())
	})

	t.Run("serves repeated resolutions from cache", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory("acme")
		cache := tenant.NewSchemaCache(dir)

		for range 5 {
			schema, err := cache.Resolve(context.Background(), "acme")
			require.NoError(t, err)
			assert.Equal(t, "acme", schema)
		}
		assert.EqualValues(t, 1, dir.loads.Load())
	})

	t.Run("unknown tenant fails and is not cached", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory()
		cache := tenant.NewSchemaCache(dir)

		_, err := cache.Resolve(context.Background(), "ghost")
		assert.ErrorIs(t, err, tenant.ErrUnknownTenant)

		// The failed load must not poison the cache: once the tenant
		// appears in the directory, the next resolve retries and succeeds.
		_, err = cache.Resolve(context.Background(), "ghost")
		assert.ErrorIs(t, err, tenant.ErrUnknownTenant)
		assert.EqualValues(t, 2, dir.loads.Load())

		dir.mu.Lock()
		dir.tenants["ghost"] = tenant.Tenant{Key: "ghost", Enabled: true}
		dir.mu.Unlock()

		schema, err := cache.Resolve(context.Background(), "ghost")
		require.NoError(t, err)
		assert.Equal(t, "ghost", schema)
	})

	t.Run("directory errors pass through untouched", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory("acme")
		dir.findErr = errors.New("connection refused")
		cache := tenant.NewSchemaCache(dir)

		_, err := cache.Resolve(context.Background(), "acme")
		require.Error(t, err)
		assert.NotErrorIs(t, err, tenant.ErrUnknownTenant)
	})

	t.Run("entries expire after the access window", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory("acme")
		cache := tenant.NewSchemaCache(dir, tenant.WithCacheTTL(30*time.Millisecond))

		_, err := cache.Resolve(context.Background(), "acme")
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)

		_, err = cache.Resolve(context.Background(), "acme")
		require.NoError(t, err)
		assert.EqualValues(t, 2, dir.loads.Load())
	})

	t.Run("access refreshes the expiry window", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory("acme")
		cache := tenant.NewSchemaCache(dir, tenant.WithCacheTTL(80*time.Millisecond))

		_, err := cache.Resolve(context.Background(), "acme")
		require.NoError(t, err)

		// Keep touching the entry; each access restarts the window.
		for range 4 {
			time.Sleep(40 * time.Millisecond)
			_, err = cache.Resolve(context.Background(), "acme")
			require.NoError(t, err)
		}
		assert.EqualValues(t, 1, dir.loads.Load())
	})

	t.Run("evicts least recently accessed beyond max size", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory("t1", "t2", "t3")
		cache := tenant.NewSchemaCache(dir, tenant.WithCacheSize(2))

		_, err := cache.Resolve(context.Background(), "t1")
		require.NoError(t, err)
		_, err = cache.Resolve(context.Background(), "t2")
		require.NoError(t, err)

		// Touch t1 so t2 is the eviction candidate.
		_, err = cache.Resolve(context.Background(), "t1")
		require.NoError(t, err)

		_, err = cache.Resolve(context.Background(), "t3")
		require.NoError(t, err)
		assert.Equal(t, 2, cache.Len())

		dir.loads.Store(0)
		_, err = cache.Resolve(context.Background(), "t1")
		require.NoError(t, err)
		assert.EqualValues(t, 0, dir.loads.Load(), "t1 should have survived eviction")

		_, err = cache.Resolve(context.Background(), "t2")
		require.NoError(t, err)
		assert.EqualValues(t, 1, dir.loads.Load(), "t2 should have been evicted")
	})

	t.Run("invalidate forces a reload", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory("acme")
		cache := tenant.NewSchemaCache(dir)

		_, err := cache.Resolve(context.Background(), "acme")
		require.NoError(t, err)

		cache.Invalidate("acme")

		_, err = cache.Resolve(context.Background(), "acme")
		require.NoError(t, err)
		assert.EqualValues(t, 2, dir.loads.Load())
	})
}

func TestSchemaCache_Concurrency(t *testing.T) {
	t.Parallel()

	t.Run("concurrent misses for one key load exactly once", func(t *testing.T) {
		t.Parallel()

		dir := newFakeDirectory("acme")
		dir.onFind = func(string) { time.Sleep(50 * time.Millisecond) }
		cache := tenant.NewSchemaCache(dir)

		const callers = 32
		start := make(chan struct{})
		var wg sync.WaitGroup
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				schema, err := cache.Resolve(context.Background(), "acme")
				assert.NoError(t, err)
				assert.Equal(t, "acme", schema)
			}()
		}
		close(start)
		wg.Wait()

		assert.EqualValues(t, 1, dir.loads.Load())
	})

	t.Run("distinct keys do not serialize on each other", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		dir := newFakeDirectory("slow", "fast")
		dir.onFind = func(key string) {
			if key == "slow" {
				<-release
			}
		}
		cache := tenant.NewSchemaCache(dir)

		slowDone := make(chan struct{})
		go func() {
			defer close(slowDone)
			_, err := cache.Resolve(context.Background(), "slow")
			assert.NoError(t, err)
		}()

		// While "slow" is stuck mid-load, "fast" must complete.
		fastDone := make(chan struct{})
		go func() {
			defer close(fastDone)
			schema, err := cache.Resolve(context.Background(), "fast")
			assert.NoError(t, err)
			assert.Equal(t, "fast", schema)
		}()

		select {
		case <-fastDone:
		case <-time.After(2 * time.Second):
			t.Fatal("resolution of a distinct key blocked behind an in-flight load")
		}

		close(release)
		<-slowDone
	})
}
