// Package store persists screening sessions.
package store

import (
	"context"

	"vocalmind/internal/screening/models"
)

// SessionStore persists screening sessions. Implementations return
// CodeNotFound for missing sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
}
