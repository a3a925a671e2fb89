package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies the master migration set (the shared public schema,
// including the tenant directory table) using goose over the shared pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log logger) error {
	if cfg.MasterMigrationsPath == "" {
		return errors.Join(ErrFailedToApplyMigrations, ErrMigrationPathNotProvided)
	}
	if err := checkMigrationsDir(cfg.MasterMigrationsPath); err != nil {
		return err
	}

	// goose speaks database/sql; this wrapper shares the pool's connections
	// while exposing the standard library interface.
	db := stdlib.OpenDBFromPool(pool)
	defer closeDB(ctx, db, log)

	return runGoose(ctx, db, cfg.MasterMigrationsPath, cfg.MigrationsTable, log)
}

// MigrateSchema applies the baseline tenant migration set to one tenant
// schema. The connection is bound to the target schema through its
// search_path runtime parameter, so both the migration version table and
// every created object land inside the tenant's namespace.
func MigrateSchema(ctx context.Context, cfg Config, schema string, log logger) error {
	if cfg.TenantMigrationsPath == "" {
		return errors.Join(ErrFailedToApplyMigrations, ErrMigrationPathNotProvided)
	}
	if err := checkMigrationsDir(cfg.TenantMigrationsPath); err != nil {
		return err
	}

	connConfig, err := pgx.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return errors.Join(ErrFailedToParseDBConfig, err)
	}
	connConfig.RuntimeParams["search_path"] = schema

	db := stdlib.OpenDB(*connConfig)
	defer closeDB(ctx, db, log)

	return runGoose(ctx, db, cfg.TenantMigrationsPath, cfg.MigrationsTable, log)
}

func checkMigrationsDir(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Join(ErrMigrationsDirNotFound, err)
		}
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

func runGoose(ctx context.Context, db *sql.DB, path, table string, log logger) error {
	// Route goose output through the application logger instead of stdout.
	goose.SetLogger(newSlogAdapter(log))
	goose.SetTableName(table)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	if err := goose.UpContext(ctx, db, path); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

func closeDB(ctx context.Context, db *sql.DB, log logger) {
	if err := db.Close(); err != nil {
		log.ErrorContext(ctx, "Failed to close database connection", "error", err)
	}
}

// migrateSlogAdapter bridges goose's Printf-style logging to structured logging.
type migrateSlogAdapter struct {
	log logger
}

func newSlogAdapter(log logger) goose.Logger {
	return &migrateSlogAdapter{log: log}
}

func (a *migrateSlogAdapter) Fatalf(format string, v ...any) {
	a.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (a *migrateSlogAdapter) Printf(format string, v ...any) {
	a.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
