package tenant

import "net/http"

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// config holds middleware configuration.
type config struct {
	errorHandler   ErrorHandler
	skipPaths      []string
	reservedKeys   []string
	directory      Directory
	requireEnabled bool
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = paths
	}
}

// WithReservedKeys adds names to the reserved key list used for validation.
// ReservedKeys stays in force regardless.
func WithReservedKeys(keys ...string) Option {
	return func(c *config) {
		c.reservedKeys = keys
	}
}

// WithDirectory makes the middleware verify resolved identifiers against the
// tenant directory and reject disabled tenants. Without a directory the
// middleware only validates the key format.
func WithDirectory(dir Directory) Option {
	return func(c *config) {
		c.directory = dir
		c.requireEnabled = true
	}
}

// WithRequireEnabled controls rejection of disabled tenants when a directory
// is configured. Enabled by default with WithDirectory.
func WithRequireEnabled(require bool) Option {
	return func(c *config) {
		c.requireEnabled = require
	}
}
