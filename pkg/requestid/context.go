package requestid

import "context"

type contextKey struct{}

// WithID returns a context carrying the request ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the request ID and whether one is set.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
