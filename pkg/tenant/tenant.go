package tenant

import (
	"context"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// BootstrapKey is the sentinel tenant identifier used when no tenant context
// is set. It permits borrowing connections for process-startup operations
// (populating the directory itself) that must work before any tenant exists.
const BootstrapKey = "BOOTSTRAP"

// ReservedKeys lists namespace names that may never be registered as tenants.
// The shared schema "public" always exists and hosts the tenant directory.
var ReservedKeys = []string{"public"}

// keyPattern constrains tenant keys to short lowercase alphanumerics. The key
// doubles as the physical schema name and is interpolated into DDL, so this
// check is also the injection defense for identifier-position SQL.
var keyPattern = regexp.MustCompile(`^[a-z0-9]{1,8}$`)

// Tenant is one record in the tenant directory: identity, activation state
// and audit trail of a single isolated namespace.
type Tenant struct {
	ID            uuid.UUID `json:"id"`
	TenantID      int64     `json:"tenant_id"`
	Key           string    `json:"key"`
	URL           string    `json:"url"`
	CredentialRef string    `json:"-"`
	Enabled       bool      `json:"enabled"`
	CreatedBy     string    `json:"created_by"`
	CreatedOn     time.Time `json:"created_on"`
	LastUpdatedBy string    `json:"last_updated_by"`
	LastUpdatedOn time.Time `json:"last_updated_on"`
}

// ValidateKey checks a tenant key against the format rule and the reserved
// list. Format violations return ErrInvalidTenantKey; reserved names return
// ErrReservedTenantKey so callers can surface them as conflicts rather than
// malformed input. The names in ReservedKeys are always reserved; additional
// names extend the list, they never replace it.
func ValidateKey(key string, reserved ...string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidTenantKey
	}
	if slices.Contains(ReservedKeys, key) || slices.Contains(reserved, key) {
		return ErrReservedTenantKey
	}
	return nil
}

// Directory is the authoritative store of tenant records. It is the backing
// source of truth for all lookups; callers that need cheap resolution go
// through SchemaCache instead of hitting the directory per acquisition.
type Directory interface {
	// FindByKey returns the tenant with the given key,
	// or ErrTenantNotFound if no such record exists.
	FindByKey(ctx context.Context, key string) (*Tenant, error)

	// FindAll returns every tenant record, including disabled ones,
	// in directory iteration order.
	FindAll(ctx context.Context) ([]Tenant, error)

	// Save inserts or updates a tenant by primary key. A unique-constraint
	// violation on the key column is reported as ErrDuplicateTenant.
	Save(ctx context.Context, t *Tenant) (*Tenant, error)
}
