// Package service implements the rate limiter: per-(client identity,
// endpoint) sliding-window admission against the static quota table.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vocalmind/internal/platform/metrics"
	"vocalmind/internal/ratelimit/models"
)

// WindowStore records request timestamps per key and decides admission.
// The memory store never returns an error; the Redis store can.
type WindowStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
	Count(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

// Service owns the quota table and delegates window bookkeeping to the store.
type Service struct {
	store   WindowStore
	quotas  map[string]models.Quota
	fallback models.Quota
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger for rejection audit entries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithQuotas replaces the endpoint quota table. The table is copied; it is
// immutable after construction.
func WithQuotas(quotas map[string]models.Quota, fallback models.Quota) Option {
	return func(s *Service) {
		s.quotas = make(map[string]models.Quota, len(quotas))
		for k, v := range quotas {
			s.quotas[k] = v
		}
		s.fallback = fallback
	}
}

// New creates a rate limiter service over the given window store.
func New(store WindowStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("window store is required")
	}
	s := &Service{
		store:    store,
		quotas:   models.EndpointQuotas(),
		fallback: models.DefaultQuota,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// QuotaFor returns the quota for an endpoint path. Exact match only; anything
// not listed falls through to the default quota.
func (s *Service) QuotaFor(endpoint string) models.Quota {
	if q, ok := s.quotas[endpoint]; ok {
		return q
	}
	return s.fallback
}

// Check admits or rejects a request for the given client identity and
// endpoint. Rejections carry a retry hint of at least one second. The window
// store is mutated on every call: pruning always happens, the timestamp is
// appended only on admission.
func (s *Service) Check(ctx context.Context, identity, endpoint string) (*models.Result, error) {
	quota := s.QuotaFor(endpoint)
	key := models.Key(identity, endpoint)

	result, err := s.store.Allow(ctx, key, quota.MaxRequests, quota.Window)
	if err != nil {
		return nil, fmt.Errorf("check rate limit: %w", err)
	}

	if !result.Allowed {
		if s.metrics != nil {
			s.metrics.RateLimitedTotal.WithLabelValues(endpoint).Inc()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				"client", identity,
				"endpoint", endpoint,
				"limit", quota.MaxRequests,
				"window_seconds", int(quota.Window.Seconds()),
				"retry_after", result.RetryAfter,
			)
		}
	}

	return result, nil
}

// Reset clears the counter for a client identity on one endpoint. Used by
// operational tooling and tests.
func (s *Service) Reset(ctx context.Context, identity, endpoint string) error {
	return s.store.Reset(ctx, models.Key(identity, endpoint))
}
