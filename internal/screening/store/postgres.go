package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vocalmind/internal/screening/models"

	dErrors "vocalmind/pkg/domain-errors"
)

// PostgresStore persists screening sessions in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS screening_sessions (
			id               UUID PRIMARY KEY,
			user_id          UUID NOT NULL,
			status           TEXT NOT NULL,
			language         TEXT NOT NULL DEFAULT '',
			duration_seconds INT NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL,
			completed_at     TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS screening_sessions_user_idx
			ON screening_sessions (user_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure screening schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO screening_sessions (id, user_id, status, language, duration_seconds, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.UserID, session.Status, session.Language,
		session.DurationSeconds, session.CreatedAt, session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, status, language, duration_seconds, created_at, completed_at
		FROM screening_sessions WHERE id = $1`, id,
	).Scan(&session.ID, &session.UserID, &session.Status, &session.Language,
		&session.DurationSeconds, &session.CreatedAt, &session.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "screening session not found")
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &session, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, status, language, duration_seconds, created_at, completed_at
		FROM screening_sessions WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(&session.ID, &session.UserID, &session.Status, &session.Language,
			&session.DurationSeconds, &session.CreatedAt, &session.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, session *models.Session) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE screening_sessions
		SET status = $2, completed_at = $3
		WHERE id = $1`,
		session.ID, session.Status, session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dErrors.New(dErrors.CodeNotFound, "screening session not found")
	}
	return nil
}
