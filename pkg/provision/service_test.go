package provision_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenantkit/tenantkit/pkg/provision"
	"github.com/tenantkit/tenantkit/pkg/tenant"
)

// memDirectory is a slice-backed Directory preserving insertion order, the
// way the real directory preserves its iteration order.
type memDirectory struct {
	records []tenant.Tenant
	saveErr error
}

func (d *memDirectory) FindByKey(ctx context.Context, key string) (*tenant.Tenant, error) {
	for i := range d.records {
		if d.records[i].Key == key {
			t := d.records[i]
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, key)
}

func (d *memDirectory) FindAll(ctx context.Context) ([]tenant.Tenant, error) {
	return append([]tenant.Tenant(nil), d.records...), nil
}

func (d *memDirectory) Save(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	if d.saveErr != nil {
		return nil, d.saveErr
	}
	for i := range d.records {
		if d.records[i].ID == t.ID {
			d.records[i] = *t
			saved := *t
			return &saved, nil
		}
	}
	for i := range d.records {
		if d.records[i].Key == t.Key {
			return nil, fmt.Errorf("%w: %s", tenant.ErrDuplicateTenant, t.Key)
		}
	}
	d.records = append(d.records, *t)
	saved := *t
	return &saved, nil
}

type fakeExecer struct {
	stmts []string
	err   error
}

func (e *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.stmts = append(e.stmts, sql)
	if e.err != nil {
		return pgconn.CommandTag{}, e.err
	}
	return pgconn.NewCommandTag("CREATE"), nil
}

type fakeMigrator struct {
	applied []string
	failOn  string
}

func (m *fakeMigrator) ApplySchema(ctx context.Context, schema string) error {
	if m.failOn == schema {
		return errors.New("migration failed")
	}
	m.applied = append(m.applied, schema)
	return nil
}

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestService(dir tenant.Directory, db *fakeExecer, m *fakeMigrator) *provision.Service {
	return provision.NewService(dir, db, m,
		provision.Config{
			URLPrefix:    "postgresql://db.internal:5432/",
			Actor:        "admin",
			ReservedKeys: []string{"public"},
		},
		provision.WithClock(func() time.Time { return fixedNow }),
	)
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	params := provision.RegisterParams{
		Key:      "acme",
		TenantID: 42,
		Password: "s3cret",
		Enabled:  true,
	}

	t.Run("provisions and registers a new tenant", func(t *testing.T) {
		t.Parallel()

		dir := &memDirectory{}
		db := &fakeExecer{}
		migrator := &fakeMigrator{}
		svc := newTestService(dir, db, migrator)

		created, err := svc.Register(context.Background(), params)
		require.NoError(t, err)

		assert.NotEqual(t, created.ID.String(), "00000000-0000-0000-0000-000000000000")
		assert.EqualValues(t, 42, created.TenantID)
		assert.Equal(t, "acme", created.Key)
		assert.Equal(t, "postgresql://db.internal:5432/acme", created.URL)
		assert.True(t, created.Enabled)
		assert.Equal(t, "admin", created.CreatedBy)
		assert.Equal(t, fixedNow, created.CreatedOn)
		assert.Equal(t, "admin", created.LastUpdatedBy)
		assert.Equal(t, fixedNow, created.LastUpdatedOn)

		// The credential reference is opaque: derived from the password but
		// never the password itself.
		assert.NotEmpty(t, created.CredentialRef)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.CredentialRef), []byte("s3cret")))

		require.Len(t, db.stmts, 4)
		assert.Equal(t, "CREATE SCHEMA acme", db.stmts[0])
		assert.Contains(t, db.stmts[1], "CREATE ROLE acme")
		assert.Equal(t, []string{"acme"}, migrator.applied)

		// Registry commit happened: the directory resolves the key now.
		found, err := dir.FindByKey(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("registering the same key twice conflicts", func(t *testing.T) {
		t.Parallel()

		dir := &memDirectory{}
		svc := newTestService(dir, &fakeExecer{}, &fakeMigrator{})

		_, err := svc.Register(context.Background(), params)
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), params)
		assert.ErrorIs(t, err, tenant.ErrDuplicateTenant)
	})

	t.Run("malformed key fails before any DDL", func(t *testing.T) {
		t.Parallel()

		for _, key := range []string{"AB", "toolongkey", "a b"} {
			db := &fakeExecer{}
			migrator := &fakeMigrator{}
			svc := newTestService(&memDirectory{}, db, migrator)

			_, err := svc.Register(context.Background(), provision.RegisterParams{Key: key})
			assert.ErrorIs(t, err, tenant.ErrInvalidTenantKey, "key %q", key)
			assert.Empty(t, db.stmts, "no namespace may be created for key %q", key)
			assert.Empty(t, migrator.applied)
		}
	})

	t.Run("reserved key fails before any DDL", func(t *testing.T) {
		t.Parallel()

		db := &fakeExecer{}
		svc := newTestService(&memDirectory{}, db, &fakeMigrator{})

		_, err := svc.Register(context.Background(), provision.RegisterParams{Key: "public"})
		assert.ErrorIs(t, err, tenant.ErrReservedTenantKey)
		assert.Empty(t, db.stmts)
	})

	t.Run("public is reserved even when the configured list omits it", func(t *testing.T) {
		t.Parallel()

		db := &fakeExecer{}
		svc := provision.NewService(&memDirectory{}, db, &fakeMigrator{},
			provision.Config{Actor: "admin", ReservedKeys: []string{"admin"}})

		_, err := svc.Register(context.Background(), provision.RegisterParams{Key: "public"})
		assert.ErrorIs(t, err, tenant.ErrReservedTenantKey)
		assert.Empty(t, db.stmts)
	})

	t.Run("namespace DDL failure surfaces as provisioning failure", func(t *testing.T) {
		t.Parallel()

		dir := &memDirectory{}
		db := &fakeExecer{err: errors.New("permission denied")}
		migrator := &fakeMigrator{}
		svc := newTestService(dir, db, migrator)

		_, err := svc.Register(context.Background(), params)
		assert.ErrorIs(t, err, tenant.ErrProvisioningFailed)
		assert.Empty(t, migrator.applied, "migration must not run after failed DDL")
		assert.Empty(t, dir.records, "no record may be committed")
	})

	t.Run("migration failure leaves no directory record", func(t *testing.T) {
		t.Parallel()

		// The orphaned namespace stays behind; that is surfaced, not hidden,
		// and reconciled out of band. What must never happen is a readable
		// record for a half-provisioned tenant.
		dir := &memDirectory{}
		db := &fakeExecer{}
		migrator := &fakeMigrator{failOn: "acme"}
		svc := newTestService(dir, db, migrator)

		_, err := svc.Register(context.Background(), params)
		assert.ErrorIs(t, err, tenant.ErrProvisioningFailed)
		assert.NotEmpty(t, db.stmts, "namespace creation had already run")
		assert.Empty(t, dir.records)
	})

	t.Run("losing the registration race surfaces the conflict", func(t *testing.T) {
		t.Parallel()

		// Both callers passed the uniqueness pre-check; the directory's own
		// constraint resolves the race at commit time.
		dir := &memDirectory{saveErr: fmt.Errorf("%w: acme", tenant.ErrDuplicateTenant)}
		svc := newTestService(dir, &fakeExecer{}, &fakeMigrator{})

		_, err := svc.Register(context.Background(), params)
		assert.ErrorIs(t, err, tenant.ErrDuplicateTenant)
	})
}

func TestService_SetEnabled(t *testing.T) {
	t.Parallel()

	seed := func() (*memDirectory, *provision.Service) {
		dir := &memDirectory{}
		svc := newTestService(dir, &fakeExecer{}, &fakeMigrator{})
		_, err := svc.Register(context.Background(), provision.RegisterParams{
			Key: "acme", TenantID: 42, Password: "pw", Enabled: true,
		})
		if err != nil {
			panic(err)
		}
		return dir, svc
	}

	t.Run("deactivate then reactivate restores the tenant", func(t *testing.T) {
		t.Parallel()

		_, svc := seed()

		deactivated, err := svc.Deactivate(context.Background(), "acme")
		require.NoError(t, err)
		assert.False(t, deactivated.Enabled)

		reactivated, err := svc.Activate(context.Background(), "acme")
		require.NoError(t, err)
		assert.True(t, reactivated.Enabled)
		assert.Equal(t, deactivated.Key, reactivated.Key)
		assert.Equal(t, deactivated.TenantID, reactivated.TenantID)
		assert.Equal(t, deactivated.ID, reactivated.ID)
	})

	t.Run("restamps audit metadata even when the value is unchanged", func(t *testing.T) {
		t.Parallel()

		dir := &memDirectory{}
		later := fixedNow
		svc := provision.NewService(dir, &fakeExecer{}, &fakeMigrator{},
			provision.Config{Actor: "ops", ReservedKeys: []string{"public"}},
			provision.WithClock(func() time.Time { return later }),
		)
		_, err := svc.Register(context.Background(), provision.RegisterParams{Key: "acme", Enabled: true})
		require.NoError(t, err)

		later = fixedNow.Add(time.Hour)
		updated, err := svc.SetEnabled(context.Background(), "acme", true)
		require.NoError(t, err)
		assert.True(t, updated.Enabled)
		assert.Equal(t, fixedNow.Add(time.Hour), updated.LastUpdatedOn)
		assert.Equal(t, fixedNow, updated.CreatedOn, "creation audit is immutable")
	})

	t.Run("unknown key fails with not found", func(t *testing.T) {
		t.Parallel()

		_, svc := seed()
		_, err := svc.Deactivate(context.Background(), "ghost")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})
}

func TestService_MigrateAll(t *testing.T) {
	t.Parallel()

	seedDirectory := func(keys ...string) *memDirectory {
		dir := &memDirectory{}
		for i, key := range keys {
			dir.records = append(dir.records, tenant.Tenant{
				TenantID: int64(i + 1), Key: key, Enabled: true,
			})
		}
		return dir
	}

	t.Run("migrates every tenant in directory order", func(t *testing.T) {
		t.Parallel()

		migrator := &fakeMigrator{}
		svc := newTestService(seedDirectory("t1", "t2", "t3"), &fakeExecer{}, migrator)

		require.NoError(t, svc.MigrateAll(context.Background()))
		assert.Equal(t, []string{"t1", "t2", "t3"}, migrator.applied)
	})

	t.Run("first failure aborts the remaining sequence", func(t *testing.T) {
		t.Parallel()

		// Fail fast: a broken migration must not let the process start
		// serving with some tenants silently un-migrated.
		migrator := &fakeMigrator{failOn: "t2"}
		svc := newTestService(seedDirectory("t1", "t2", "t3"), &fakeExecer{}, migrator)

		err := svc.MigrateAll(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"t2"`)
		assert.Equal(t, []string{"t1"}, migrator.applied, "t1 completed, t3 never attempted")
	})

	t.Run("empty directory is a no-op", func(t *testing.T) {
		t.Parallel()

		migrator := &fakeMigrator{}
		svc := newTestService(&memDirectory{}, &fakeExecer{}, migrator)
		require.NoError(t, svc.MigrateAll(context.Background()))
		assert.Empty(t, migrator.applied)
	})
}

func TestService_Exists(t *testing.T) {
	t.Parallel()

	dir := &memDirectory{records: []tenant.Tenant{{Key: "acme"}}}
	svc := newTestService(dir, &fakeExecer{}, &fakeMigrator{})

	ok, err := svc.Exists(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_List(t *testing.T) {
	t.Parallel()

	dir := &memDirectory{records: []tenant.Tenant{
		{Key: "acme", Enabled: true},
		{Key: "dormant", Enabled: false},
	}}
	svc := newTestService(dir, &fakeExecer{}, &fakeMigrator{})

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[1].Enabled, "disabled tenants are listed too")
}

func TestService_PasswordQuoting(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	svc := newTestService(&memDirectory{}, db, &fakeMigrator{})

	_, err := svc.Register(context.Background(), provision.RegisterParams{
		Key:      "acme",
		Password: "it's",
		Enabled:  true,
	})
	require.NoError(t, err)

	var roleStmt string
	for _, s := range db.stmts {
		if strings.Contains(s, "CREATE ROLE") {
			roleStmt = s
		}
	}
	assert.Contains(t, roleStmt, "'it''s'", "single quotes in the password must be doubled")
}
