//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vocalmind/internal/screening/models"
	"vocalmind/pkg/testutil/containers"

	dErrors "vocalmind/pkg/domain-errors"
)

type PostgresSessionSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresSessionSuite(t *testing.T) {
	suite.Run(t, new(PostgresSessionSuite))
}

func (s *PostgresSessionSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgresStore(s.pg.Pool)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresSessionSuite) SetupTest() {
	_, err := s.pg.Pool.Exec(s.ctx, "TRUNCATE screening_sessions")
	s.Require().NoError(err)
}

func (s *PostgresSessionSuite) newSession(userID string, createdAt time.Time) *models.Session {
	return &models.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          models.StatusPending,
		Language:        "hi",
		DurationSeconds: 120,
		CreatedAt:       createdAt.UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresSessionSuite) TestRoundTrip() {
	userID := uuid.NewString()
	session := s.newSession(userID, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, session))

	found, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.UserID, found.UserID)
	s.Equal(models.StatusPending, found.Status)
	s.Equal("hi", found.Language)
	s.Equal(120, found.DurationSeconds)
	s.Nil(found.CompletedAt)
}

func (s *PostgresSessionSuite) TestNotFound() {
	_, err := s.store.FindByID(s.ctx, uuid.NewString())
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))

	err = s.store.Update(s.ctx, s.newSession(uuid.NewString(), time.Now()))
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *PostgresSessionSuite) TestUpdateCompletion() {
	userID := uuid.NewString()
	session := s.newSession(userID, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, session))

	completedAt := time.Now().UTC().Truncate(time.Microsecond)
	session.Status = models.StatusCompleted
	session.CompletedAt = &completedAt
	s.Require().NoError(s.store.Update(s.ctx, session))

	found, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, found.Status)
	s.Require().NotNil(found.CompletedAt)
	s.True(found.CompletedAt.Equal(completedAt))
}

func (s *PostgresSessionSuite) TestListByUser() {
	userID := uuid.NewString()
	base := time.Now().Add(-time.Hour)

	older := s.newSession(userID, base)
	newer := s.newSession(userID, base.Add(time.Minute))
	foreign := s.newSession(uuid.NewString(), base)
	s.Require().NoError(s.store.Create(s.ctx, older))
	s.Require().NoError(s.store.Create(s.ctx, newer))
	s.Require().NoError(s.store.Create(s.ctx, foreign))

	sessions, err := s.store.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(newer.ID, sessions[0].ID)
	s.Equal(older.ID, sessions[1].ID)
}
