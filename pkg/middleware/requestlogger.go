package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/reelreviews/pkg/logger"
)

// RequestLogger stores a logger enriched with the request's correlation id and
// trace ids in the context, for retrieval with logger.FromContext. Mount it
// after RequestLogging and Tracing. Handlers that learn the caller's identity
// later add user_id themselves.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
