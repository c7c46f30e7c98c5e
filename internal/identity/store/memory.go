package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"parley/pkg/platform/sentinel"
)

// InMemoryUserStore holds user records in memory for tests/dev.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	records map[string]*UserRecord // keyed by subject ID
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemoryUserStore {
	return &InMemoryUserStore{records: make(map[string]*UserRecord)}
}

// Seed inserts or replaces records, keyed by subject ID.
func (s *InMemoryUserStore) Seed(records ...*UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.SubjectID] = r
	}
}

func (s *InMemoryUserStore) FindByLogin(_ context.Context, email string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if strings.EqualFold(r.Email, email) {
			clone := *r
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("user with email %q: %w", email, sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindBySubject(_ context.Context, subjectID string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[subjectID]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, fmt.Errorf("user with subject %q: %w", subjectID, sentinel.ErrNotFound)
}
