// Package store provides user persistence: an in-memory implementation for
// tests and single-node setups, and a Postgres implementation for
// deployments.
package store

import (
	"context"

	"vocalmind/internal/account/models"
)

// UserStore persists accounts. Implementations return domain errors with
// CodeConflict for duplicate emails and CodeNotFound for missing users.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// ResetTokenStore persists pending password resets keyed by token hash.
// Consume removes the token so it is single use.
type ResetTokenStore interface {
	Save(ctx context.Context, token models.ResetToken) error
	Consume(ctx context.Context, tokenHash string) (*models.ResetToken, error)
}
