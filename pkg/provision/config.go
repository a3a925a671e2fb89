package provision

import "time"

type Config struct {
	URLPrefix         string        `env:"TENANT_URL_PREFIX" envDefault:"postgresql://localhost:5432/"` // URLPrefix is prepended to the tenant key to derive the tenant's connection target descriptor.
	Actor             string        `env:"TENANT_PROVISION_ACTOR" envDefault:"admin"`                   // Actor is stamped into the audit fields of records this process creates or mutates.
	ReservedKeys      []string      `env:"TENANT_RESERVED_KEYS"`                                        // ReservedKeys adds namespace names that can never be registered, on top of tenant.ReservedKeys.
	TemplatesFile     string        `env:"TENANT_DDL_TEMPLATES_FILE"`                                   // TemplatesFile optionally points to a YAML file overriding the namespace-creation DDL templates.
	MigrateAllTimeout time.Duration `env:"TENANT_MIGRATE_ALL_TIMEOUT" envDefault:"10m"`                 // MigrateAllTimeout bounds the startup bulk migration across all tenants.
}
