package tenant

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithKey returns a context carrying the given tenant key. The key is
// unit-of-work scoped: two concurrently executing requests or tasks each
// carry their own context and never observe each other's value.
func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, contextKey{}, key)
}

// KeyFromContext retrieves the tenant key from the context.
// Returns "", false if no tenant is set.
func KeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(contextKey{}).(string)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// MustKeyFromContext retrieves the tenant key from the context.
// Panics if no tenant is set. Use only in paths that cannot run without one.
func MustKeyFromContext(ctx context.Context) string {
	key, ok := KeyFromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return key
}

// Detach copies the current tenant key onto a fresh background context for
// hand-off to another goroutine. Hand-off is one-shot: the returned context
// carries only the tenant key, none of the parent's deadlines or values, and
// it dies with the task that consumed it, so the key can never bleed into
// the next task scheduled on the same worker. Call it at dispatch time, not
// inside the spawned goroutine, so the value captured is the dispatcher's.
func Detach(ctx context.Context) context.Context {
	key, ok := KeyFromContext(ctx)
	if !ok {
		return context.Background()
	}
	return WithKey(context.Background(), key)
}

// LoggerExtractor returns a context extractor for the logger that annotates
// every record with the current tenant key, when one is set.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if key, ok := KeyFromContext(ctx); ok {
			return slog.String("tenant_key", key), true
		}
		return slog.Attr{}, false
	}
}
