// Package handler exposes the screening endpoints over chi. All routes
// require an authenticated session.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vocalmind/internal/screening/models"
	"vocalmind/pkg/platform/httputil"
	"vocalmind/pkg/requestcontext"

	dErrors "vocalmind/pkg/domain-errors"
)

// Service is the screening operations surface the handler needs.
type Service interface {
	Create(ctx context.Context, userID string, req *models.CreateSessionRequest) (*models.Session, error)
	Complete(ctx context.Context, userID, sessionID string) (*models.Session, error)
	Get(ctx context.Context, userID, sessionID string) (*models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Session, error)
}

// Handler handles screening endpoints.
type Handler struct {
	screenings Service
	logger     *slog.Logger
	auth       func(http.Handler) http.Handler
}

// New creates the screening handler.
func New(screenings Service, logger *slog.Logger, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{screenings: screenings, logger: logger, auth: auth}
}

// Register mounts the screening routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(h.auth)
		pr.Post("/api/screenings", h.handleCreate)
		pr.Get("/api/screenings", h.handleList)
		pr.Get("/api/screenings/{sessionID}", h.handleGet)
		pr.Post("/api/screenings/{sessionID}/complete", h.handleComplete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	session, err := h.screenings.Create(ctx, requestcontext.UserID(ctx), &req)
	if err != nil {
		h.writeServiceError(ctx, w, "create screening failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := h.screenings.ListByUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "list screenings failed", err)
		return
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	httputil.WriteJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.screenings.Get(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeServiceError(ctx, w, "load screening failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.screenings.Complete(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeServiceError(ctx, w, "complete screening failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err.Error())
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err.Error())
	}
	httputil.WriteError(w, err)
}
