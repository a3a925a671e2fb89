package httpserver

import (
	"context"
	"log/slog"
	"net/http"
)

// Liveness returns a probe handler that reports process liveness:
// 200 OK with body "ALIVE", unconditionally.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ALIVE"))
	}
}

// Readiness returns a probe handler that runs the dependency checks (such as
// pg.Healthcheck and redis.Healthcheck) against the request context. If all
// pass it responds 200 OK with body "READY"; the first failure responds
// 500 with body "NOT_READY".
func Readiness(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}
