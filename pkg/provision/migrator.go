package provision

import (
	"context"
	"log/slog"

	"github.com/tenantkit/tenantkit/pkg/pg"
)

// GooseMigrator applies the baseline goose migration set to tenant schemas.
type GooseMigrator struct {
	cfg pg.Config
	log *slog.Logger
}

// NewGooseMigrator creates a migrator over the shared database config.
func NewGooseMigrator(cfg pg.Config, log *slog.Logger) *GooseMigrator {
	if log == nil {
		log = slog.Default()
	}
	return &GooseMigrator{cfg: cfg, log: log}
}

// ApplySchema implements Migrator.
func (m *GooseMigrator) ApplySchema(ctx context.Context, schema string) error {
	return pg.MigrateSchema(ctx, m.cfg, schema, m.log)
}
