// Package handler exposes the account endpoints over chi.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vocalmind/internal/account/models"
	"vocalmind/pkg/platform/httputil"
	"vocalmind/pkg/requestcontext"

	dErrors "vocalmind/pkg/domain-errors"
)

// Service is the account operations surface the handler needs.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
}

// Handler handles account endpoints.
type Handler struct {
	accounts Service
	logger   *slog.Logger
	auth     func(http.Handler) http.Handler
}

// New creates the account handler. auth is the RequireAuth middleware applied
// to the profile routes.
func New(accounts Service, logger *slog.Logger, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{accounts: accounts, logger: logger, auth: auth}
}

// Register mounts the account routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/forgot-password", h.handleForgotPassword)
	r.Post("/api/auth/reset-password", h.handleResetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(h.auth)
		pr.Get("/api/users/me", h.handleProfile)
		pr.Put("/api/users/me", h.handleUpdateProfile)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.accounts.Register(ctx, &req)
	if err != nil {
		h.writeServiceError(ctx, w, "register failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.accounts.Login(ctx, &req)
	if err != nil {
		h.writeServiceError(ctx, w, "login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// The token is delivered out of band; the response is identical whether
	// or not the account exists.
	if _, err := h.accounts.ForgotPassword(ctx, req.Email); err != nil {
		h.writeServiceError(ctx, w, "forgot password failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"detail": "If the account exists, a reset link has been sent.",
	})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.accounts.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		h.writeServiceError(ctx, w, "reset password failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.accounts.Profile(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "load profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.accounts.UpdateProfile(ctx, requestcontext.UserID(ctx), &req)
	if err != nil {
		h.writeServiceError(ctx, w, "update profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// writeServiceError logs unexpected failures and converts everything to the
// standard envelope. Client-class errors stay at warn level.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err.Error())
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err.Error())
	}
	httputil.WriteError(w, err)
}
