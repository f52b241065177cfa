package store

import (
	"context"
	"sort"
	"sync"

	"vocalmind/internal/screening/models"

	dErrors "vocalmind/pkg/domain-errors"
)

// MemoryStore is a mutex-guarded in-memory SessionStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *MemoryStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "screening session not found")
	}
	cp := *session
	return &cp, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			cp := *session
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "screening session not found")
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}
