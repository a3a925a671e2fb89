package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenantkit/tenantkit/pkg/tenant"
)

// Execer runs the namespace-creation DDL. *pgxpool.Pool satisfies it; the
// DDL runs on bootstrap connections, never tenant-bound ones.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Migrator applies the baseline migration set to one tenant schema.
type Migrator interface {
	ApplySchema(ctx context.Context, schema string) error
}

// RegisterParams carries the input of a tenant registration.
type RegisterParams struct {
	Key      string `json:"key"`
	TenantID int64  `json:"tenant_id"`
	Password string `json:"password"`
	Enabled  bool   `json:"enabled"`
}

// Service owns the tenant lifecycle: registration (namespace creation,
// baseline migration, directory commit, in that strict order), activation
// state transitions, and the bulk startup migration.
type Service struct {
	dir       tenant.Directory
	db        Execer
	migrator  Migrator
	templates Templates
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTemplates overrides the namespace-creation DDL templates.
func WithTemplates(t Templates) ServiceOption {
	return func(s *Service) { s.templates = t }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source used for audit stamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the provisioning service.
func NewService(dir tenant.Directory, db Execer, migrator Migrator, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		dir:       dir,
		db:        db,
		migrator:  migrator,
		templates: DefaultTemplates(),
		cfg:       cfg,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register provisions a new tenant. Steps run in strict order: key format
// and uniqueness checks before any DDL (the key is interpolated into the
// DDL, so validation is also the injection defense), then namespace
// creation, then the baseline migration, and only after the migration
// succeeds the directory commit. A record therefore exists in the directory
// if and only if its namespace is fully provisioned.
//
// Failure during namespace creation or migration returns
// ErrProvisioningFailed and leaves the orphaned namespace as-is for
// out-of-band reconciliation; DDL is not reliably transactional, so no
// automatic rollback is attempted. Two concurrent registrations for the
// same key are resolved by the directory's unique constraint: one of them
// fails here or at the final save with ErrDuplicateTenant.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*tenant.Tenant, error) {
	key := params.Key

	if err := tenant.ValidateKey(key, s.cfg.ReservedKeys...); err != nil {
		return nil, err
	}

	if _, err := s.dir.FindByKey(ctx, key); err == nil {
		return nil, fmt.Errorf("%w: %s", tenant.ErrDuplicateTenant, key)
	} else if !errors.Is(err, tenant.ErrTenantNotFound) {
		return nil, err
	}

	s.log.InfoContext(ctx, "creating tenant namespace", "tenant_key", key)
	if err := s.createNamespace(ctx, key, params.Password); err != nil {
		return nil, errors.Join(tenant.ErrProvisioningFailed, err)
	}

	s.log.InfoContext(ctx, "applying baseline migrations", "tenant_key", key)
	if err := s.migrator.ApplySchema(ctx, key); err != nil {
		return nil, errors.Join(tenant.ErrProvisioningFailed, err)
	}

	credentialRef, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Join(tenant.ErrProvisioningFailed, err)
	}

	now := s.now()
	record := &tenant.Tenant{
		ID:            uuid.New(),
		TenantID:      params.TenantID,
		Key:           key,
		URL:           s.cfg.URLPrefix + key,
		CredentialRef: string(credentialRef),
		Enabled:       params.Enabled,
		CreatedBy:     s.cfg.Actor,
		CreatedOn:     now,
		LastUpdatedBy: s.cfg.Actor,
		LastUpdatedOn: now,
	}

	saved, err := s.dir.Save(ctx, record)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "tenant registered", "tenant_key", key, "tenant_id", saved.TenantID)
	return saved, nil
}

func (s *Service) createNamespace(ctx context.Context, key, password string) error {
	stmts, err := s.templates.statements(key, password)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("namespace ddl failed: %w", err)
		}
	}
	return nil
}

// SetEnabled flips a tenant's activation flag and restamps its audit fields.
// Idempotent in effect: setting the current value again only refreshes the
// audit metadata. Returns ErrTenantNotFound for unknown keys.
func (s *Service) SetEnabled(ctx context.Context, key string, enabled bool) (*tenant.Tenant, error) {
	t, err := s.dir.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	t.Enabled = enabled
	t.LastUpdatedBy = s.cfg.Actor
	t.LastUpdatedOn = s.now()

	saved, err := s.dir.Save(ctx, t)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "tenant activation changed", "tenant_key", key, "enabled", enabled)
	return saved, nil
}

// Activate enables a tenant.
func (s *Service) Activate(ctx context.Context, key string) (*tenant.Tenant, error) {
	return s.SetEnabled(ctx, key, true)
}

// Deactivate disables a tenant. The namespace and its data stay in place;
// deactivation only withdraws permission to transact.
func (s *Service) Deactivate(ctx context.Context, key string) (*tenant.Tenant, error) {
	return s.SetEnabled(ctx, key, false)
}

// Exists reports whether a tenant with the given key is registered.
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := s.dir.FindByKey(ctx, key); err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns every tenant record, including disabled ones.
func (s *Service) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.dir.FindAll(ctx)
}

// MigrateAll applies the baseline migration set to every registered tenant's
// namespace, in directory order. Intended for process startup. The first
// failure aborts the remaining sequence and is returned to the caller as
// fatal: a broken migration must not leave some tenants silently un-migrated
// while the process starts serving traffic.
func (s *Service) MigrateAll(ctx context.Context) error {
	if s.cfg.MigrateAllTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.MigrateAllTimeout)
		defer cancel()
	}

	tenants, err := s.dir.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load tenant directory: %w", err)
	}

	for _, t := range tenants {
		s.log.InfoContext(ctx, "migrating tenant schema", "tenant_key", t.Key)
		if err := s.migrator.ApplySchema(ctx, t.Key); err != nil {
			return fmt.Errorf("migrate tenant %q: %w", t.Key, err)
		}
	}
	return nil
}
