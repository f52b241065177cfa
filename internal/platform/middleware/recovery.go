package middleware

import (
	"log/slog"
	"net/http"

	"vocalmind/pkg/requestcontext"
)

// Recovery logs a panic from a downstream handler at error severity and then
// rethrows it. The failure is surfaced unchanged rather than translated into
// a different status code; net/http terminates the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "handler panic",
						"request_id", requestcontext.RequestID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec,
					)
					panic(rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
