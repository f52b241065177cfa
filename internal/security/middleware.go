package security

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"vocalmind/internal/audit"
	"vocalmind/internal/platform/middleware"
	"vocalmind/internal/ratelimit/models"
	"vocalmind/pkg/platform/httputil"
	"vocalmind/pkg/requestcontext"
)

// RateLimiter decides admission for a client identity on an endpoint.
type RateLimiter interface {
	Check(ctx context.Context, identity, endpoint string) (*models.Result, error)
}

// rateLimitedResponse is the wire contract for rejected requests.
type rateLimitedResponse struct {
	Detail     string `json:"detail"`
	RetryAfter int    `json:"retry_after"`
}

const rateLimitedDetail = "Too many requests. Please try again later."

// Middleware wraps every inbound request: it derives the client identity,
// consults the rate limiter, rejects over-quota requests with a retry hint,
// and decorates forwarded responses with the hardening header set.
//
// Panics from downstream handlers are not intercepted here; the platform
// recovery middleware logs and rethrows them.
type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	auditor  audit.Publisher
	bypass   map[string]struct{}
	disabled bool
}

// Option configures the middleware.
type Option func(*Middleware)

// WithDisabled turns off rate limiting entirely (demo and test setups).
// Header decoration and audit logging remain active.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

// WithAuditPublisher attaches a publisher for the request audit trail.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(m *Middleware) { m.auditor = p }
}

// New creates the security middleware.
func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
		bypass:  models.BypassPaths(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Handler is the chi-compatible middleware constructor.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health, root and docs endpoints are forwarded untouched: no
		// counting, no header decoration.
		if _, ok := m.bypass[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		identity := requestcontext.ClientIP(ctx)
		if identity == "" {
			identity = middleware.ClientIPFromRequest(r)
		}

		// Audit trail entry before dispatch, independent of the rate-limit
		// outcome. Best effort: a logging failure must not fail the request.
		m.logRequest(ctx, r, identity)

		if !m.disabled {
			result, err := m.limiter.Check(ctx, identity, r.URL.Path)
			if err != nil {
				// Fail open: an unavailable limiter backend must not take
				// the API down with it.
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"error", err.Error(),
					"client", identity,
					"path", r.URL.Path,
				)
			} else if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, rateLimitedResponse{
					Detail:     rateLimitedDetail,
					RetryAfter: result.RetryAfter,
				})
				return
			}
		}

		setSecurityHeaders(w.Header())
		next.ServeHTTP(w, r)
	})
}

// setSecurityHeaders attaches the fixed hardening set. Microphone and camera
// stay same-origin scoped: the front-end records audio on our origin only.
func setSecurityHeaders(h http.Header) {
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-XSS-Protection", "1; mode=block")
	h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Permissions-Policy", "geolocation=(), microphone=(self), camera=()")
}

func (m *Middleware) logRequest(ctx context.Context, r *http.Request, identity string) {
	m.logger.InfoContext(ctx, "request",
		"request_id", requestcontext.RequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
		"client", identity,
	)
	if m.auditor != nil {
		_ = m.auditor.Emit(ctx, audit.Event{
			Action:   audit.ActionRequest,
			Subject:  identity,
			Detail:   r.Method + " " + r.URL.Path,
			ClientIP: identity,
			Device:   requestcontext.Device(ctx),
		})
	}
}
