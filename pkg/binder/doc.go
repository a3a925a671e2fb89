// Package binder decodes HTTP request payloads into typed structs.
//
// A binder is a plain function with the shape func(r *http.Request, v any)
// error, so handlers stay decoupled from the decoding policy:
//
//	var params provision.RegisterParams
//	if err := binder.JSON()(r, &params); err != nil {
//		// respond with 400
//	}
//
// JSON binding is deliberately strict: it requires a correct Content-Type,
// rejects unknown fields and trailing data, and caps the body size. Malformed
// input fails the bind instead of silently producing a half-filled struct.
//
// All errors wrap the package sentinels (ErrFailedToParseJSON,
// ErrUnsupportedMediaType, ErrMissingContentType) so callers can classify
// failures with errors.Is.
package binder
