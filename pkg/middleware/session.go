package middleware

import (
	"context"
	"net/http"

	"github.com/prbretas/JEWELRY/pkg/httputil"
	"github.com/prbretas/JEWELRY/pkg/logger"
)

// SessionHeader carries the opaque browser session id. It stands in for the
// storage origin of a browser: every session gets its own cart and wishlist.
const SessionHeader = "X-Session-ID"

type sessionKeyType string

const sessionIDKey sessionKeyType = "session_id"

// SessionValidator reports whether a session id is well formed.
type SessionValidator func(id string) error

// Session requires a valid X-Session-ID header and injects the id into the
// request context for handlers (SessionIDFromContext) and for logging.
func Session(validate SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if id == "" {
				writeSessionError(w, r, "missing "+SessionHeader+" header")
				return
			}
			if err := validate(id); err != nil {
				writeSessionError(w, r, "invalid "+SessionHeader+" header")
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, id)
			ctx = logger.WithSessionID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext extracts the session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

func writeSessionError(w http.ResponseWriter, r *http.Request, message string) {
	httputil.WriteErrorCode(w, r, http.StatusBadRequest, "INVALID_SESSION", message)
}
