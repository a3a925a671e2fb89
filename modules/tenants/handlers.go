package tenants

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tenantkit/tenantkit/pkg/binder"
	"github.com/tenantkit/tenantkit/pkg/provision"
	"github.com/tenantkit/tenantkit/pkg/tenant"
)

type handlers struct {
	svc Service
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var params provision.RegisterParams
	if err := binder.JSON()(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Register(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if all == nil {
		all = []tenant.Tenant{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *handlers) activate(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Activate(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handlers) deactivate(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Deactivate(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// writeServiceError maps the provisioning error taxonomy to HTTP statuses.
// Operators need to tell a data problem (conflict, malformed key, unknown
// tenant) from an infrastructure problem (provisioning failure), so each
// condition keeps its own status and message.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrDuplicateTenant), errors.Is(err, tenant.ErrReservedTenantKey):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, tenant.ErrInvalidTenantKey):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, tenant.ErrTenantNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tenant.ErrProvisioningFailed):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
