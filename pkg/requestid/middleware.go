package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header is the canonical request-ID header.
const Header = "X-Request-ID"

// clientIDPattern bounds what a client-supplied ID may look like. The ID
// ends up in log records, so this is also the log-injection defense.
var clientIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

// Middleware attaches a request ID to every request. A well-formed
// client-supplied ID is kept so correlation can span services; anything else
// is replaced with a generated UUID. The chosen ID is stored in the request
// context and echoed back in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !clientIDPattern.MatchString(id) {
			id = uuid.New().String()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}
