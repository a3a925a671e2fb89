// Package requestid correlates the log records of a single HTTP request.
//
// Middleware picks an ID for every request (reusing a well-formed
// X-Request-ID header, generating a UUID otherwise), stores it in the
// request context and echoes it in the response. LoggerExtractor feeds the
// ID into the logger's context extractors, so every record written with the
// request context carries a request_id attribute alongside tenant_key.
//
//	mux.Use(requestid.Middleware)
//
//	log := logger.New(
//		logger.WithContextExtractors(requestid.LoggerExtractor(), tenant.LoggerExtractor()),
//	)
package requestid
