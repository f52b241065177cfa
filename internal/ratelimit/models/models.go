// Package models holds the rate limiter's domain types and the static quota
// table for the public API surface.
package models

import (
	"fmt"
	"time"
)

// Quota bounds admitted requests per key: MaxRequests within a trailing
// Window.
type Quota struct {
	MaxRequests int
	Window      time.Duration
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Key builds the window-store key for a client identity and endpoint pair.
func Key(identity, endpoint string) string {
	return fmt.Sprintf("rl:%s:%s", identity, endpoint)
}

// DefaultQuota applies to any endpoint without an explicit entry.
var DefaultQuota = Quota{MaxRequests: 100, Window: time.Minute}

// EndpointQuotas maps exact request paths to quotas. There is no prefix or
// wildcard matching: a sub-path not listed falls through to DefaultQuota.
// The table is fixed at process start.
func EndpointQuotas() map[string]Quota {
	return map[string]Quota{
		"/api/auth/login":           {MaxRequests: 5, Window: time.Minute},
		"/api/auth/register":        {MaxRequests: 3, Window: time.Minute},
		"/api/auth/forgot-password": {MaxRequests: 3, Window: 5 * time.Minute},
	}
}

// BypassPaths are exempt from rate limiting and header decoration. Exact
// match only.
func BypassPaths() map[string]struct{} {
	return map[string]struct{}{
		"/health":       {},
		"/":             {},
		"/api/docs":     {},
		"/api/redoc":    {},
		"/openapi.json": {},
	}
}
