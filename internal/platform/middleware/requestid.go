package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"vocalmind/pkg/requestcontext"
)

// RequestIDHeader carries a caller-supplied request ID; one is generated when
// absent so every log line can be correlated.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a unique ID, stored in the context and
// echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
