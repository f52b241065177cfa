// Package httptransport assembles the chi router: platform middleware chain,
// the security middleware, and the domain handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	accounthandler "vocalmind/internal/account/handler"
	"vocalmind/internal/platform/metrics"
	"vocalmind/internal/platform/middleware"
	screeninghandler "vocalmind/internal/screening/handler"
	"vocalmind/internal/security"
	"vocalmind/pkg/platform/httputil"
)

// HealthCheck names a dependency probe run by the health endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the wired components the router mounts.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Security   *security.Middleware
	Accounts   *accounthandler.Handler
	Screenings *screeninghandler.Handler
	Health     []HealthCheck
}

// New builds the full router. Middleware order matters: recovery is
// outermost so it sees panics from everything below; client metadata runs
// before the security middleware so both read the same identity.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Instrument(deps.Metrics))
	r.Use(deps.Security.Handler)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth(deps.Health))
	r.Get("/api/docs", handleDocs)
	r.Get("/api/redoc", handleDocs)
	r.Get("/openapi.json", handleOpenAPI)

	deps.Accounts.Register(r)
	deps.Screenings.Register(r)

	return r
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"service": "vocalmind",
		"status":  "running",
	})
}

// handleHealth runs the dependency probes. Any failing probe degrades the
// response to 503 with per-check detail.
func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		detail := make(map[string]string, len(checks))
		for _, hc := range checks {
			if err := hc.Check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				detail[hc.Name] = err.Error()
				continue
			}
			detail[hc.Name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(detail) > 0 {
			body["checks"] = detail
		}
		httputil.WriteJSON(w, status, body)
	}
}

func handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html><head><title>vocalmind API</title></head>
<body><p>API description: <a href="/openapi.json">/openapi.json</a></p></body></html>`))
}

func handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"openapi": "3.0.3",
		"info": map[string]string{
			"title":   "vocalmind API",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/api/auth/register":        map[string]any{"post": map[string]string{"summary": "Register a new account"}},
			"/api/auth/login":           map[string]any{"post": map[string]string{"summary": "Log in and receive a session token"}},
			"/api/auth/forgot-password": map[string]any{"post": map[string]string{"summary": "Request a password reset"}},
			"/api/auth/reset-password":  map[string]any{"post": map[string]string{"summary": "Reset password with a token"}},
			"/api/users/me":             map[string]any{"get": map[string]string{"summary": "Current profile"}, "put": map[string]string{"summary": "Update profile"}},
			"/api/screenings":           map[string]any{"get": map[string]string{"summary": "List screening sessions"}, "post": map[string]string{"summary": "Create a screening session"}},
		},
	})
}
