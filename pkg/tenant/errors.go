package tenant

import "errors"

var (
	// ErrInvalidTenantKey is returned when a key fails the format rule.
	ErrInvalidTenantKey = errors.New("invalid tenant key")

	// ErrReservedTenantKey is returned when a key collides with a reserved
	// namespace name such as "public".
	ErrReservedTenantKey = errors.New("reserved tenant key")

	// ErrDuplicateTenant is returned when registration conflicts with an
	// already-registered key.
	ErrDuplicateTenant = errors.New("tenant already exists")

	// ErrUnknownTenant is returned by the cache and router when a key
	// resolves to no directory record.
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrTenantNotFound is returned by activate/deactivate on unknown keys.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrProvisioningFailed is returned when namespace creation or the
	// baseline migration fails during registration. The namespace is left
	// as-is for out-of-band reconciliation; there is no automatic rollback.
	ErrProvisioningFailed = errors.New("tenant provisioning failed")

	// ErrTenantDisabled is returned by the request-validation layer when a
	// resolved tenant exists but is not permitted to transact.
	ErrTenantDisabled = errors.New("tenant is disabled")

	// ErrNoTenantInContext is returned when an operation requires a tenant
	// context and none is set.
	ErrNoTenantInContext = errors.New("no tenant in context")
)
