package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"vocalmind/internal/token"
	"vocalmind/pkg/platform/httputil"
	"vocalmind/pkg/requestcontext"

	dErrors "vocalmind/pkg/domain-errors"
)

// TokenValidator validates bearer tokens into claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and puts the
// authenticated user ID into the context for handlers.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
					"error", err.Error(),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
