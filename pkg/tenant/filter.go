package tenant

import (
	"context"
	"fmt"
)

// rowFilterSetting is the session setting consulted by row-level security
// policies on shared-schema tables:
//
//	USING (tenant_key = current_setting('app.tenant_key', true))
//
// Entities that live in the shared schema rather than a per-tenant namespace
// are distinguished by a tenant_key column; with the setting in place every
// query through the session is transparently restricted to the current
// tenant's rows.
const rowFilterSetting = "app.tenant_key"

// ActivateRowFilter attaches the session-scoped tenant predicate to a
// connection. It is meant to run once per session creation, after the
// session is otherwise ready. The tenant is read from the context; if none
// is set the call is a no-op, leaving the session unfiltered — bootstrap and
// administrative sessions (the tenant directory itself among them) must see
// all tenants' rows.
func ActivateRowFilter(ctx context.Context, conn Conn) error {
	key, ok := KeyFromContext(ctx)
	if !ok {
		return nil
	}
	return activateRowFilter(ctx, conn, key)
}

func activateRowFilter(ctx context.Context, conn Conn, key string) error {
	if _, err := conn.Exec(ctx, "SELECT set_config($1, $2, false)", rowFilterSetting, key); err != nil {
		return fmt.Errorf("activate row filter for tenant %q: %w", key, err)
	}
	return nil
}

func deactivateRowFilter(ctx context.Context, conn Conn) error {
	_, err := conn.Exec(ctx, "SELECT set_config($1, $2, false)", rowFilterSetting, "")
	return err
}

// TenantAware is implemented by entities stored in the shared schema whose
// rows are partitioned by a tenant_key column.
type TenantAware interface {
	SetTenantKey(key string)
}

// Stamp writes the current tenant key into an entity before it is persisted.
// It is the write-side counterpart of the read-side row filter: call it on
// every create, update and delete so stamping and filtering stay consistent.
// An entity stamped under one tenant and read under another is invisible by
// design. Returns ErrNoTenantInContext when no tenant is set, since an
// unstamped row would be invisible to everyone.
func Stamp(ctx context.Context, e TenantAware) error {
	key, ok := KeyFromContext(ctx)
	if !ok {
		return ErrNoTenantInContext
	}
	e.SetTenantKey(key)
	return nil
}
