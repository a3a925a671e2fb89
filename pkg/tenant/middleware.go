package tenant

import (
	"errors"
	"net/http"
	"strings"
)

// Middleware extracts the tenant identifier from incoming requests and sets
// it on the request context. This is the request-validation layer the
// connection router deliberately does not own: when a directory is
// configured, the identifier is checked against it and disabled tenants are
// rejected before any data access happens.
//
// Requests without an identifier continue without tenant context; handlers
// that require one should be wrapped with RequireTenant.
func Middleware(resolver Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			key, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if err := ValidateKey(key, cfg.reservedKeys...); err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			if cfg.directory != nil {
				t, err := cfg.directory.FindByKey(r.Context(), key)
				if err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
				if cfg.requireEnabled && !t.Enabled {
					cfg.errorHandler(w, r, ErrTenantDisabled)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithKey(r.Context(), key)))
		})
	}
}

// RequireTenant ensures a tenant key is present in the request context,
// for routes that cannot run in the bootstrap state.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := KeyFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound), errors.Is(err, ErrUnknownTenant):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrTenantDisabled):
		http.Error(w, "Tenant is disabled", http.StatusForbidden)
	case errors.Is(err, ErrInvalidTenantKey), errors.Is(err, ErrReservedTenantKey):
		http.Error(w, "Invalid tenant key", http.StatusBadRequest)
	case errors.Is(err, ErrNoTenantInContext):
		http.Error(w, "Tenant required", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
