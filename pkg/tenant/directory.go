package tenant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tenantkit/tenantkit/pkg/pg"
)

// DBTX is the query surface the directory needs. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so directory calls can join a caller's transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgDirectory is the Postgres-backed tenant directory. It lives in the
// shared "public" schema and is intentionally not row-filtered: directory
// queries run on unbound bootstrap connections and must see every tenant.
type PgDirectory struct {
	db DBTX
}

// NewPgDirectory creates a directory over the given query surface.
func NewPgDirectory(db DBTX) *PgDirectory {
	return &PgDirectory{db: db}
}

const tenantColumns = `id, tenant_id, key, url, credential_ref, enabled,
	created_by, created_on, last_updated_by, last_updated_on`

// FindByKey implements Directory.
func (d *PgDirectory) FindByKey(ctx context.Context, key string) (*Tenant, error) {
	row := d.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM public.tenant WHERE key = $1`, key)

	t, err := scanTenant(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, key)
		}
		return nil, fmt.Errorf("find tenant by key: %w", err)
	}
	return t, nil
}

// FindAll implements Directory. Disabled tenants are included; filtering by
// activation state is the caller's concern.
func (d *PgDirectory) FindAll(ctx context.Context) ([]Tenant, error) {
	rows, err := d.db.Query(ctx,
		`SELECT `+tenantColumns+` FROM public.tenant ORDER BY created_on, key`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("list tenants: %w", err)
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

// Save implements Directory as an insert-or-update by primary key. Only the
// mutable fields (enabled flag and audit trail) change on conflict; key and
// tenant_id are immutable after creation. A unique violation on the key
// column maps to ErrDuplicateTenant, which is also what resolves the benign
// registration race: two concurrent registrations for the same key may both
// pass the in-memory uniqueness check, but only one survives this commit.
func (d *PgDirectory) Save(ctx context.Context, t *Tenant) (*Tenant, error) {
	row := d.db.QueryRow(ctx, `
		INSERT INTO public.tenant (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			last_updated_by = EXCLUDED.last_updated_by,
			last_updated_on = EXCLUDED.last_updated_on
		RETURNING `+tenantColumns,
		t.ID, t.TenantID, t.Key, t.URL, t.CredentialRef, t.Enabled,
		t.CreatedBy, t.CreatedOn, t.LastUpdatedBy, t.LastUpdatedOn)

	saved, err := scanTenant(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTenant, t.Key)
		}
		return nil, fmt.Errorf("save tenant: %w", err)
	}
	return saved, nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.ID, &t.TenantID, &t.Key, &t.URL, &t.CredentialRef, &t.Enabled,
		&t.CreatedBy, &t.CreatedOn, &t.LastUpdatedBy, &t.LastUpdatedOn)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
