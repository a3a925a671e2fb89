// Package tenant routes data access in a multi-tenant application to
// per-tenant isolated Postgres schemas over one shared connection pool.
//
// Each tenant owns a physical schema named by its key; a single tenant
// directory in the shared "public" schema is the source of truth for which
// tenants exist. The package covers the full request path:
//
//  1. Context — the current tenant key travels on the context.Context of the
//     unit of work. Detach copies it onto a fresh background context for
//     hand-off to background tasks (copy-on-handoff; the detached context
//     dies with the task, which is the guaranteed clear).
//  2. SchemaCache — bounded, access-expiring cache of key → schema mappings,
//     loaded from the Directory with single-flight coalescing on miss.
//  3. Router — borrows a pooled connection, binds it to the resolved schema
//     before handing it out, and unbinds it before returning it to the pool.
//     The sentinel BootstrapKey yields unbound connections for startup work.
//  4. Row filter — entities that live in the shared schema instead of a
//     per-tenant namespace are partitioned by a tenant_key column; the
//     router attaches a session-scoped setting consumed by row-level
//     security policies, and Stamp writes the key on the write path.
//
// HTTP resolvers and middleware extract the identifier from requests,
// validate it and set the context; the middleware is also where the
// enabled flag is enforced — the router only routes.
//
// # Usage
//
//	pool, _ := pg.Connect(ctx, pgCfg)
//	dir := tenant.NewPgDirectory(pool)
//	cache := tenant.NewSchemaCache(dir,
//		tenant.WithCacheSize(1000),
//		tenant.WithCacheTTL(10*time.Minute),
//	)
//	router := tenant.NewRouter(tenant.PgxPool(pool), cache)
//
//	conn, err := router.Acquire(ctx, "acme")
//	if err != nil {
//		return err
//	}
//	defer router.Release(ctx, "acme", conn)
//	// all queries through conn now run against schema "acme"
//
// Tenants are created through the provision package; this package never
// writes to the directory except via the Directory interface.
package tenant
