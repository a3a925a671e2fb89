package pg

import "context"

// logger is the interface required for migration logging. Compatible with
// slog; keeps goose output inside application logging.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
