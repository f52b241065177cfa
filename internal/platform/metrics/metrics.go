// Package metrics registers the Prometheus instruments exposed on the
// metrics listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RateLimitedTotal   *prometheus.CounterVec
	MaliciousInput     prometheus.Counter
	UsersRegistered    prometheus.Counter
	LoginFailures      prometheus.Counter
	ScreeningsCreated  prometheus.Counter
	AuditPublishErrors prometheus.Counter
}

// New creates and registers all metrics on a fresh registry-backed set using
// the default registerer.
func New() *Metrics {
	return create(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers metrics on an isolated registry, for tests.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return create(reg)
}

func create(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vocalmind_http_requests_total",
			Help: "Total HTTP requests by method and status class.",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vocalmind_http_request_duration_seconds",
			Help:    "HTTP request latency by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		RateLimitedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vocalmind_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by endpoint.",
		}, []string{"endpoint"}),
		MaliciousInput: factory.NewCounter(prometheus.CounterOpts{
			Name: "vocalmind_malicious_input_total",
			Help: "Inputs rejected by the injection/XSS pattern matcher.",
		}),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "vocalmind_users_registered_total",
			Help: "Total user accounts created.",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "vocalmind_login_failures_total",
			Help: "Failed login attempts.",
		}),
		ScreeningsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vocalmind_screenings_created_total",
			Help: "Screening sessions created.",
		}),
		AuditPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "vocalmind_audit_publish_errors_total",
			Help: "Audit events that failed to publish to the broker.",
		}),
	}
}
