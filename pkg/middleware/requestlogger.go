package middleware

import (
	"log/slog"
	"net/http"

	"github.com/prbretas/JEWELRY/pkg/logger"
)

// RequestLogger stores a logger carrying the correlation id, session id and
// trace ids in the request context; handlers fetch it with
// logger.FromContext. Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			// Unvalidated here; Session rejects bad ids on the routes that need one.
			if id := r.Header.Get(SessionHeader); id != "" && SessionIDFromContext(ctx) == "" && len(id) <= 64 {
				ctx = logger.WithSessionID(ctx, id)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
