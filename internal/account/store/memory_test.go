package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vocalmind/internal/account/models"

	dErrors "vocalmind/pkg/domain-errors"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newUser(email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     "Asha Sharma",
		PasswordHash: []byte("$2a$10$fakehash"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *MemoryStoreSuite) TestUsers() {
	s.Run("create and find by id and email", func() {
		user := s.newUser("asha@example.com")
		s.Require().NoError(s.store.Create(s.ctx, user))

		byID, err := s.store.FindByID(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(user.Email, byID.Email)

		byEmail, err := s.store.FindByEmail(s.ctx, "asha@example.com")
		s.Require().NoError(err)
		s.Equal(user.ID, byEmail.ID)
	})

	s.Run("email lookup is case-insensitive", func() {
		user := s.newUser("Mixed@Example.COM")
		s.Require().NoError(s.store.Create(s.ctx, user))

		found, err := s.store.FindByEmail(s.ctx, "mixed@example.com")
		s.Require().NoError(err)
		s.Equal(user.ID, found.ID)
	})

	s.Run("duplicate email conflicts regardless of case", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newUser("dup@example.com")))

		err := s.store.Create(s.ctx, s.newUser("DUP@example.com"))
		s.Require().Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("unknown lookups are not found", func() {
		_, err := s.store.FindByID(s.ctx, "missing")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))

		_, err = s.store.FindByEmail(s.ctx, "nobody@example.com")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("update replaces mutable fields", func() {
		user := s.newUser("edit@example.com")
		s.Require().NoError(s.store.Create(s.ctx, user))

		user.FullName = "New Name"
		s.Require().NoError(s.store.Update(s.ctx, user))

		found, err := s.store.FindByID(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal("New Name", found.FullName)
	})

	s.Run("update of a missing user is not found", func() {
		err := s.store.Update(s.ctx, s.newUser("ghost@example.com"))
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("returned users are copies", func() {
		user := s.newUser("copy@example.com")
		s.Require().NoError(s.store.Create(s.ctx, user))

		found, err := s.store.FindByID(s.ctx, user.ID)
		s.Require().NoError(err)
		found.FullName = "mutated"

		again, err := s.store.FindByID(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal("Asha Sharma", again.FullName)
	})
}

func (s *MemoryStoreSuite) TestResetTokens() {
	s.Run("save then consume removes the token", func() {
		user := s.newUser("reset@example.com")
		s.Require().NoError(s.store.Create(s.ctx, user))

		token := models.ResetToken{
			TokenHash: "hash-1",
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(30 * time.Minute),
		}
		s.Require().NoError(s.store.Save(s.ctx, token))

		consumed, err := s.store.Consume(s.ctx, "hash-1")
		s.Require().NoError(err)
		s.Equal(user.ID, consumed.UserID)

		_, err = s.store.Consume(s.ctx, "hash-1")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("consuming an unknown hash is not found", func() {
		_, err := s.store.Consume(s.ctx, "never-saved")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}
