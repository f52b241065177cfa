package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vocalmind/internal/account/models"

	dErrors "vocalmind/pkg/domain-errors"
)

// PostgresStore persists accounts and reset tokens in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist. Deployments with
// managed migrations can skip this.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			email         TEXT NOT NULL,
			full_name     TEXT NOT NULL DEFAULT '',
			phone_number  TEXT NOT NULL DEFAULT '',
			password_hash BYTEA NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email));
		CREATE TABLE IF NOT EXISTS password_resets (
			token_hash TEXT PRIMARY KEY,
			user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			expires_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure account schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, full_name, phone_number, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.FullName, user.PhoneNumber, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `
		SELECT id, email, full_name, phone_number, password_hash, created_at, updated_at
		FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, `
		SELECT id, email, full_name, phone_number, password_hash, created_at, updated_at
		FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.FullName, &user.PhoneNumber,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) Update(ctx context.Context, user *models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET full_name = $2, phone_number = $3, password_hash = $4, updated_at = $5
		WHERE id = $1`,
		user.ID, user.FullName, user.PhoneNumber, user.PasswordHash, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, token models.ResetToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		token.TokenHash, token.UserID, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Consume(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	var token models.ResetToken
	err := s.pool.QueryRow(ctx, `
		DELETE FROM password_resets
		WHERE token_hash = $1
		RETURNING token_hash, user_id, expires_at`,
		tokenHash,
	).Scan(&token.TokenHash, &token.UserID, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "reset token not found")
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return &token, nil
}
