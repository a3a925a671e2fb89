package tenant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the subset of *pgxpool.Conn the router hands out: enough to run
// queries and to give the connection back.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Release()
}

// Pool borrows physical connections from a shared pool. Acquire may block
// until a connection becomes available, bounded by the pool's own wait
// policy; the router adds no timeout of its own.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// PgxPool adapts a *pgxpool.Pool to the Pool interface.
func PgxPool(pool *pgxpool.Pool) Pool {
	return pgxPoolAdapter{pool}
}

type pgxPoolAdapter struct {
	pool *pgxpool.Pool
}

func (p pgxPoolAdapter) Acquire(ctx context.Context) (Conn, error) {
	return p.pool.Acquire(ctx)
}

// Router binds borrowed connections to a tenant's schema for the duration of
// a unit of work. Binding happens strictly after borrowing and strictly
// before the connection is handed to the caller, so no caller ever observes
// a connection bound to the wrong tenant; Release unbinds before the
// connection goes back to the pool, so a reused connection never retains the
// previous tenant's schema.
//
// The router does not enforce the tenant's enabled flag; that check belongs
// to the request-validation layer. Routing and authorization are separate
// concerns.
// SchemaResolver maps a tenant key to the schema it lives in. Both
// SchemaCache and RedisSchemaCache satisfy it.
type SchemaResolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

type Router struct {
	pool      Pool
	cache     SchemaResolver
	log       *slog.Logger
	rowFilter bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the router's logger.
func WithLogger(log *slog.Logger) RouterOption {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRowFilter controls whether Acquire activates the shared-schema row
// filter on every tenant-bound session. Enabled by default.
func WithRowFilter(enabled bool) RouterOption {
	return func(r *Router) {
		r.rowFilter = enabled
	}
}

// NewRouter creates a connection router over the shared pool and cache.
func NewRouter(pool Pool, cache SchemaResolver, opts ...RouterOption) *Router {
	r := &Router{
		pool:      pool,
		cache:     cache,
		log:       slog.Default(),
		rowFilter: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire resolves the tenant's schema, borrows a connection from the shared
// pool and binds it to that schema before returning it. The sentinel
// BootstrapKey skips resolution and binding, yielding an unbound connection
// for startup and administrative work. An unresolvable key fails with
// ErrUnknownTenant before the pool is touched.
func (r *Router) Acquire(ctx context.Context, key string) (Conn, error) {
	if key == BootstrapKey {
		return r.pool.Acquire(ctx)
	}

	schema, err := r.cache.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	bind := fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize())
	if _, err := conn.Exec(ctx, bind); err != nil {
		conn.Release()
		return nil, fmt.Errorf("bind connection to schema %q: %w", schema, err)
	}

	if r.rowFilter {
		if err := activateRowFilter(ctx, conn, key); err != nil {
			conn.Release()
			return nil, err
		}
	}

	r.log.DebugContext(ctx, "acquired tenant connection", "tenant_key", key, "schema", schema)
	return conn, nil
}

// AcquireCurrent acquires a connection for the tenant in the context,
// falling back to the bootstrap sentinel when none is set.
func (r *Router) AcquireCurrent(ctx context.Context) (Conn, error) {
	key, ok := KeyFromContext(ctx)
	if !ok {
		key = BootstrapKey
	}
	return r.Acquire(ctx, key)
}

// Release unbinds the connection's schema and returns it to the pool. The
// unbind runs first so a connection reused for a different tenant can never
// momentarily retain the previous tenant's schema. The connection goes back
// to the pool even if the unbind fails; the failure is logged and the pool's
// own health checking deals with the connection.
func (r *Router) Release(ctx context.Context, key string, conn Conn) {
	if conn == nil {
		return
	}
	if key != BootstrapKey {
		if _, err := conn.Exec(ctx, "RESET search_path"); err != nil {
			r.log.ErrorContext(ctx, "failed to unbind connection schema", "tenant_key", key, "error", err)
		}
		if r.rowFilter {
			if err := deactivateRowFilter(ctx, conn); err != nil {
				r.log.ErrorContext(ctx, "failed to clear row filter", "tenant_key", key, "error", err)
			}
		}
	}
	conn.Release()
	r.log.DebugContext(ctx, "released tenant connection", "tenant_key", key)
}
