// Package service implements account management: registration, login,
// password reset and profile updates. All string inputs pass through the
// security pattern matcher before validation; passwords are stored as bcrypt
// hashes.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vocalmind/internal/account/models"
	"vocalmind/internal/account/store"
	"vocalmind/internal/audit"
	"vocalmind/internal/platform/metrics"
	"vocalmind/internal/security"
	"vocalmind/internal/token"
	"vocalmind/internal/validation"
	"vocalmind/pkg/requestcontext"

	dErrors "vocalmind/pkg/domain-errors"
)

const resetTokenTTL = 30 * time.Minute

// Service owns the account domain logic.
type Service struct {
	users   store.UserStore
	resets  store.ResetTokenStore
	tokens  *token.Manager
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Publisher
	now     func() time.Time
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

// New creates the account service.
func New(users store.UserStore, resets store.ResetTokenStore, tokens *token.Manager, logger *slog.Logger, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if resets == nil {
		return nil, fmt.Errorf("reset token store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}
	s := &Service{
		users:  users,
		resets: resets,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates and creates a new account.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if err := s.sanitize(ctx, map[string]string{
		"email":        req.Email,
		"full_name":    req.FullName,
		"phone_number": req.PhoneNumber,
	}); err != nil {
		return nil, err
	}

	if !validation.ValidateEmail(req.Email) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if !validation.ValidatePhone(req.PhoneNumber) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid phone number")
	}
	if ok, reason := validation.ValidatePassword(req.Password); !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, reason)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	s.emitAudit(ctx, audit.ActionUserRegistered, user.ID, user.Email)
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, s.loginRejected(ctx, req.Email)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		return nil, s.loginRejected(ctx, req.Email)
	}

	signed, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue session token")
	}

	s.emitAudit(ctx, audit.ActionLogin, user.ID, user.Email)
	return &models.LoginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		User:        user,
	}, nil
}

// loginRejected records the failure and returns the uniform rejection error.
// The same error is returned for unknown emails and wrong passwords so the
// endpoint cannot be used to enumerate accounts.
func (s *Service) loginRejected(ctx context.Context, email string) error {
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	s.emitAudit(ctx, audit.ActionLoginFailed, "", email)
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// ForgotPassword issues a single-use reset token for the account. Unknown
// emails succeed silently for the same enumeration reason as Login; the
// caller always receives the same acknowledgement.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return "", nil
		}
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "generate reset token")
	}
	tokenValue := hex.EncodeToString(raw)

	err = s.resets.Save(ctx, models.ResetToken{
		TokenHash: hashToken(tokenValue),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(resetTokenTTL),
	})
	if err != nil {
		return "", err
	}

	s.emitAudit(ctx, audit.ActionPasswordResetAsked, user.ID, user.Email)
	return tokenValue, nil
}

// ResetPassword consumes a reset token and installs a new password.
func (s *Service) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	if ok, reason := validation.ValidatePassword(newPassword); !ok {
		return dErrors.New(dErrors.CodeInvalidInput, reason)
	}

	reset, err := s.resets.Consume(ctx, hashToken(tokenValue))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid or expired reset token")
		}
		return err
	}
	if s.now().After(reset.ExpiresAt) {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid or expired reset token")
	}

	user, err := s.users.FindByID(ctx, reset.UserID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.emitAudit(ctx, audit.ActionPasswordReset, user.ID, user.Email)
	return nil
}

// Profile returns the account for an authenticated user ID.
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile changes the mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if err := s.sanitize(ctx, map[string]string{
		"full_name":    req.FullName,
		"phone_number": req.PhoneNumber,
	}); err != nil {
		return nil, err
	}
	if !validation.ValidatePhone(req.PhoneNumber) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid phone number")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.FullName = req.FullName
	user.PhoneNumber = req.PhoneNumber
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// sanitize runs the denylist matcher over the given fields, recording a
// rejection when anything matches. Detection is binary reject/accept; the
// input is never rewritten.
func (s *Service) sanitize(ctx context.Context, fields map[string]string) error {
	if err := security.SanitizeFields(fields); err != nil {
		if s.metrics != nil {
			s.metrics.MaliciousInput.Inc()
		}
		s.emitAudit(ctx, audit.ActionMaliciousInput, "", requestcontext.ClientIP(ctx))
		return err
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, userID, detail string) {
	if s.auditor == nil {
		return
	}
	subject := userID
	if subject == "" {
		subject = requestcontext.ClientIP(ctx)
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:   action,
		Subject:  subject,
		Detail:   detail,
		ClientIP: requestcontext.ClientIP(ctx),
		Device:   requestcontext.Device(ctx),
	})
}

func hashToken(tokenValue string) string {
	sum := sha256.Sum256([]byte(tokenValue))
	return hex.EncodeToString(sum[:])
}
