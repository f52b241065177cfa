package store

import (
	"context"
	"strings"
	"sync"

	"vocalmind/internal/account/models"

	dErrors "vocalmind/pkg/domain-errors"
)

// MemoryStore is a mutex-guarded in-memory UserStore and ResetTokenStore.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string // lowercased email -> user ID
	resets  map[string]models.ResetToken
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		resets:  make(map[string]models.ResetToken),
	}
}

func (s *MemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	}
	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[key] = user.ID
	return nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[user.ID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

func (s *MemoryStore) Save(_ context.Context, token models.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[token.TokenHash] = token
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, tokenHash string) (*models.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.resets[tokenHash]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "reset token not found")
	}
	delete(s.resets, tokenHash)
	return &token, nil
}
