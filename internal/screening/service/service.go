// Package service implements screening-session bookkeeping. Report
// generation and audio processing happen in downstream workers; this service
// only tracks the session lifecycle.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vocalmind/internal/audit"
	"vocalmind/internal/platform/metrics"
	"vocalmind/internal/screening/models"
	"vocalmind/internal/screening/store"
	"vocalmind/internal/security"

	dErrors "vocalmind/pkg/domain-errors"
)

const maxDurationSeconds = 600

// Service owns the screening-session domain logic.
type Service struct {
	sessions store.SessionStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  audit.Publisher
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher attaches an audit sink.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the screening service.
func New(sessions store.SessionStore, logger *slog.Logger, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	s := &Service{sessions: sessions, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create opens a pending screening session for the user.
func (s *Service) Create(ctx context.Context, userID string, req *models.CreateSessionRequest) (*models.Session, error) {
	if _, err := security.Sanitize(req.Language); err != nil {
		return nil, err
	}
	if req.DurationSeconds < 0 || req.DurationSeconds > maxDurationSeconds {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "duration_seconds out of range")
	}

	session := &models.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          models.StatusPending,
		Language:        req.Language,
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ScreeningsCreated.Inc()
	}
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionScreeningCreated,
			Subject: userID,
			Detail:  session.ID,
		})
	}
	return session, nil
}

// Complete marks a session completed. Only the owning user may complete it.
func (s *Service) Complete(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	session, err := s.get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusCompleted {
		return session, nil
	}

	now := s.now()
	session.Status = models.StatusCompleted
	session.CompletedAt = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionScreeningCompleted,
			Subject: userID,
			Detail:  session.ID,
		})
	}
	return session, nil
}

// Get returns a session owned by the user.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	return s.get(ctx, userID, sessionID)
}

// ListByUser returns the user's sessions, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// get loads a session and enforces ownership. A foreign session reads as
// not-found so session IDs cannot be probed.
func (s *Service) get(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, dErrors.New(dErrors.CodeNotFound, "screening session not found")
	}
	return session, nil
}
