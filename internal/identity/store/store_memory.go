package store

import (
	"context"
	"fmt"
	"sync"

	"idregistry/internal/identity/models"
	"idregistry/pkg/platform/sentinel"
)

// InMemory keeps credential records in a mutex-guarded map. Records are
// deep-copied on the way in and out so callers never alias store state.
type InMemory struct {
	mu      sync.RWMutex
	records map[uint64]*models.Credential
}

// NewInMemory creates an empty in-memory credential store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[uint64]*models.Credential)}
}

func (s *InMemory) Create(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[credential.ID]; exists {
		return fmt.Errorf("credential %d already exists: %w", credential.ID, sentinel.ErrUnavailable)
	}
	s.records[credential.ID] = credential.Clone()
	return nil
}

func (s *InMemory) Find(_ context.Context, id uint64) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return credential.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[credential.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[credential.ID] = credential.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, id)
	return nil
}
