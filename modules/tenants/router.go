package tenants

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/tenantkit/tenantkit/pkg/provision"
	"github.com/tenantkit/tenantkit/pkg/tenant"
)

// Service is the provisioning surface the module exposes over HTTP.
// *provision.Service satisfies it.
type Service interface {
	Register(ctx context.Context, params provision.RegisterParams) (*tenant.Tenant, error)
	List(ctx context.Context) ([]tenant.Tenant, error)
	Activate(ctx context.Context, key string) (*tenant.Tenant, error)
	Deactivate(ctx context.Context, key string) (*tenant.Tenant, error)
}

// Router mounts the tenant administration endpoints.
//
//	r := chi.NewRouter()
//	r.Mount("/tenants", tenants.Router(svc))
func Router(svc Service) chi.Router {
	h := &handlers{svc: svc}

	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Get("/", h.list)
	r.Put("/{key}/activate", h.activate)
	r.Put("/{key}/deactivate", h.deactivate)
	return r
}
