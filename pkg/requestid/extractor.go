package requestid

import (
	"context"
	"log/slog"
)

// LoggerExtractor injects the request ID into every log record emitted with
// the request context. Register it via logger.WithContextExtractors.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
