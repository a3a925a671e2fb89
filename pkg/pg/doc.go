// Package pg wires the shared PostgreSQL connection pool that every tenant
// schema is served from.
//
// It provides pool construction with retry (Connect), environment-driven
// configuration (Config), goose migration runners for both the master schema
// and individual tenant schemas (Migrate, MigrateSchema), error classifiers
// for the SQLSTATE conditions the tenancy layer cares about, and a pool
// health check.
//
// MigrateSchema binds its connection to the target schema via search_path,
// so the same baseline migration set can be replayed into any number of
// tenant namespaces while each keeps its own migration version table.
package pg
