package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tenantkit/tenantkit/modules/tenants"
	"github.com/tenantkit/tenantkit/pkg/config"
	"github.com/tenantkit/tenantkit/pkg/httpserver"
	"github.com/tenantkit/tenantkit/pkg/logger"
	"github.com/tenantkit/tenantkit/pkg/pg"
	"github.com/tenantkit/tenantkit/pkg/provision"
	"github.com/tenantkit/tenantkit/pkg/redis"
	"github.com/tenantkit/tenantkit/pkg/requestid"
	"github.com/tenantkit/tenantkit/pkg/tenant"
)

type appConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	TenantHeader string `env:"TENANT_HEADER" envDefault:"X-Tenant-Key"`

	// CacheBackend selects where resolved schema names are kept:
	// "memory" for the in-process LRU, "redis" for a shared cache.
	CacheBackend string        `env:"TENANT_CACHE_BACKEND" envDefault:"memory"`
	CacheSize    int           `env:"TENANT_CACHE_SIZE" envDefault:"1000"`
	CacheTTL     time.Duration `env:"TENANT_CACHE_TTL" envDefault:"10m"`

	// MigrateOnStart runs the master migrations and the tenant baseline
	// set across all registered tenants before the server starts.
	MigrateOnStart bool `env:"TENANT_MIGRATE_ON_START" envDefault:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("tenantd exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var appCfg appConfig
	if err := config.Load(&appCfg); err != nil {
		return err
	}
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}
	var provCfg provision.Config
	if err := config.Load(&provCfg); err != nil {
		return err
	}
	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(appCfg.LogLevel)); err != nil {
		return fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	log := logger.New(
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(appCfg.LogFormat)),
		logger.WithContextExtractors(requestid.LoggerExtractor(), tenant.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	svcOpts := []provision.ServiceOption{provision.WithLogger(log)}
	if provCfg.TemplatesFile != "" {
		tpl, err := provision.LoadTemplates(provCfg.TemplatesFile)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, provision.WithTemplates(tpl))
	}

	dir := tenant.NewPgDirectory(pool)
	svc := provision.NewService(dir, pool, provision.NewGooseMigrator(pgCfg, log), provCfg, svcOpts...)

	if appCfg.MigrateOnStart {
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return err
		}
		if err := svc.MigrateAll(ctx); err != nil {
			return err
		}
	}

	readiness := []func(context.Context) error{pg.Healthcheck(pool)}

	var schemas tenant.SchemaResolver
	switch appCfg.CacheBackend {
	case "redis":
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		readiness = append(readiness, redis.Healthcheck(client))
		schemas = tenant.NewRedisSchemaCache(dir, client, appCfg.CacheTTL)
	default:
		schemas = tenant.NewSchemaCache(dir,
			tenant.WithCacheSize(appCfg.CacheSize),
			tenant.WithCacheTTL(appCfg.CacheTTL))
	}

	router := tenant.NewRouter(tenant.PgxPool(pool), schemas, tenant.WithLogger(log))

	mux := chi.NewRouter()
	mux.Use(requestid.Middleware)
	mux.Get("/livez", httpserver.Liveness())
	mux.Get("/readyz", httpserver.Readiness(log, readiness...))
	mux.Mount("/tenants", tenants.Router(svc))

	mux.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(tenant.NewHeaderResolver(appCfg.TenantHeader),
			tenant.WithDirectory(dir)))
		r.Use(tenant.RequireTenant(nil))
		r.Get("/whoami", whoami(router))
	})

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, mux)
}

// whoami reports the schema the caller's connection is bound to. It doubles
// as a smoke test for the full resolve-acquire-bind path.
func whoami(router *tenant.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := tenant.MustKeyFromContext(ctx)

		conn, err := router.Acquire(ctx, key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer router.Release(ctx, key, conn)

		var schema string
		if err := conn.QueryRow(ctx, "SELECT current_schema()").Scan(&schema); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "%s %s\n", key, schema)
	}
}
