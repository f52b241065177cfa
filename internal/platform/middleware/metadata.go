package middleware

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"vocalmind/pkg/requestcontext"
)

// ClientMetadata extracts the client identity and User-Agent from the request
// and adds them to the context. Apply early in the chain so the security
// middleware and audit trail see the same identity.
//
// Trust boundary: the forwarding headers are spoofable by a client talking to
// this server directly. The deployment must sit behind a proxy that overwrites
// X-Forwarded-For authoritatively.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		ua := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, ua, deviceSummary(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest derives the rate-limiter partition key for a request:
// the first X-Forwarded-For entry, then X-Real-IP, then the peer address with
// its port stripped.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2).
		// The first entry is the original client.
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" for IPv4 and "[::1]:port" for IPv6.
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}

// deviceSummary condenses a User-Agent into "Browser/OS" for audit entries.
func deviceSummary(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, _ := parsed.Browser()
	os := parsed.OSInfo().Name
	if name == "" && os == "" {
		return ""
	}
	return name + "/" + os
}
