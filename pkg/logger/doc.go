// Package logger builds the process logger on log/slog with context-driven
// attribute injection.
//
// Register tenant.LoggerExtractor() and every record emitted inside a
// tenant-scoped unit of work carries the tenant key automatically:
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatJSON),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
package logger
