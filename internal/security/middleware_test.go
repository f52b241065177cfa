package security

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vocalmind/internal/ratelimit/models"
	ratelimitservice "vocalmind/internal/ratelimit/service"
	"vocalmind/internal/ratelimit/store/window"
)

var securityHeaders = map[string]string{
	"X-Frame-Options":           "DENY",
	"X-Content-Type-Options":    "nosniff",
	"X-XSS-Protection":          "1; mode=block",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Permissions-Policy":        "geolocation=(), microphone=(self), camera=()",
}

type MiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *MiddlewareSuite) newLimiter() *ratelimitservice.Service {
	svc, err := ratelimitservice.New(window.NewMemoryStore())
	s.Require().NoError(err)
	return svc
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func (s *MiddlewareSuite) do(h http.Handler, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (s *MiddlewareSuite) TestSecurityHeaders() {
	mw := New(s.newLimiter(), s.logger)
	h := mw.Handler(okHandler())

	s.Run("forwarded responses carry the full hardening set", func() {
		rec := s.do(h, http.MethodGet, "/api/screenings", "203.0.113.7:4000")
		s.Equal(http.StatusOK, rec.Code)
		for name, want := range securityHeaders {
			s.Equal(want, rec.Header().Get(name), "header %s", name)
		}
	})

	s.Run("bypass paths are forwarded without decoration", func() {
		for _, path := range []string{"/health", "/", "/api/docs", "/api/redoc", "/openapi.json"} {
			rec := s.do(h, http.MethodGet, path, "203.0.113.7:4000")
			s.Equal(http.StatusOK, rec.Code, "path %s", path)
			for name := range securityHeaders {
				s.Empty(rec.Header().Get(name), "path %s header %s", path, name)
			}
		}
	})
}

func (s *MiddlewareSuite) TestRateLimiting() {
	s.Run("over-quota requests get the exact 429 contract", func() {
		mw := New(s.newLimiter(), s.logger)
		h := mw.Handler(okHandler())

		for i := 0; i < 5; i++ {
			rec := s.do(h, http.MethodPost, "/api/auth/login", "198.51.100.1:9999")
			s.Require().Equal(http.StatusOK, rec.Code, "request %d", i+1)
		}

		rec := s.do(h, http.MethodPost, "/api/auth/login", "198.51.100.1:9999")
		s.Require().Equal(http.StatusTooManyRequests, rec.Code)

		var body struct {
			Detail     string `json:"detail"`
			RetryAfter int    `json:"retry_after"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("Too many requests. Please try again later.", body.Detail)
		s.GreaterOrEqual(body.RetryAfter, 1)

		s.Equal(strconv.Itoa(body.RetryAfter), rec.Header().Get("Retry-After"))
		s.Equal("application/json", rec.Header().Get("Content-Type"))
	})

	s.Run("rejections are not decorated with hardening headers", func() {
		mw := New(s.newLimiter(), s.logger)
		h := mw.Handler(okHandler())

		for i := 0; i < 6; i++ {
			s.do(h, http.MethodPost, "/api/auth/login", "198.51.100.2:9999")
		}
		rec := s.do(h, http.MethodPost, "/api/auth/login", "198.51.100.2:9999")
		s.Require().Equal(http.StatusTooManyRequests, rec.Code)
		s.Empty(rec.Header().Get("X-Frame-Options"))
	})

	s.Run("clients are isolated by identity", func() {
		mw := New(s.newLimiter(), s.logger)
		h := mw.Handler(okHandler())

		for i := 0; i < 6; i++ {
			s.do(h, http.MethodPost, "/api/auth/login", "198.51.100.3:1111")
		}
		rec := s.do(h, http.MethodPost, "/api/auth/login", "198.51.100.4:1111")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("forwarded-for header wins over remote address", func() {
		mw := New(s.newLimiter(), s.logger)
		h := mw.Handler(okHandler())

		for i := 0; i < 6; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if i == 5 {
				s.Equal(http.StatusTooManyRequests, rec.Code)
			}
		}

		// Same proxy, different origin client: separate counter.
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.51")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("bypass paths are never counted", func() {
		store := window.NewMemoryStore()
		svc, err := ratelimitservice.New(store)
		s.Require().NoError(err)
		mw := New(svc, s.logger)
		h := mw.Handler(okHandler())

		for i := 0; i < 500; i++ {
			rec := s.do(h, http.MethodGet, "/health", "198.51.100.5:1000")
			s.Require().Equal(http.StatusOK, rec.Code)
		}
		s.Equal(0, store.Keys())
	})
}

func (s *MiddlewareSuite) TestFailureModes() {
	s.Run("limiter errors fail open", func() {
		mw := New(&erroringLimiter{}, s.logger)
		h := mw.Handler(okHandler())

		rec := s.do(h, http.MethodPost, "/api/auth/login", "198.51.100.6:1000")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("DENY", rec.Header().Get("X-Frame-Options"))
	})

	s.Run("disabled mode skips counting but keeps headers", func() {
		limiter := &countingLimiter{}
		mw := New(limiter, s.logger, WithDisabled(true))
		h := mw.Handler(okHandler())

		rec := s.do(h, http.MethodPost, "/api/auth/login", "198.51.100.7:1000")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("DENY", rec.Header().Get("X-Frame-Options"))
		s.Equal(0, limiter.calls)
	})
}

type erroringLimiter struct{}

func (e *erroringLimiter) Check(context.Context, string, string) (*models.Result, error) {
	return nil, errors.New("backend unavailable")
}

type countingLimiter struct {
	calls int
}

func (c *countingLimiter) Check(context.Context, string, string) (*models.Result, error) {
	c.calls++
	return &models.Result{Allowed: true, Limit: 100, Remaining: 99, ResetAt: time.Now()}, nil
}
