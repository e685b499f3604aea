package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashureev/orlo/internal/domain"
)

// MemoryStore implements Repository with an in-process map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.SessionState
	now      func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.SessionState),
		now:      time.Now,
	}
}

// GetSession retrieves a copy of the session state.
func (m *MemoryStore) GetSession(_ context.Context, sessionID string) (*domain.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionID].Clone(), nil
}

// CreateSession inserts state if the session does not exist yet.
func (m *MemoryStore) CreateSession(_ context.Context, state *domain.SessionState) (bool, error) {
	if state == nil || state.ID == "" {
		return false, fmt.Errorf("create session: missing session id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[state.ID]; exists {
		return false, nil
	}
	m.sessions[state.ID] = state.Clone()
	return true, nil
}

// SaveSession replaces state using optimistic version checking.
func (m *MemoryStore) SaveSession(_ context.Context, state *domain.SessionState, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[state.ID]
	if !ok {
		return ErrSessionNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("save session %s: %w", state.ID, ErrVersionConflict)
	}

	stored := state.Clone()
	stored.Version = expectedVersion + 1
	stored.CreatedAt = current.CreatedAt
	m.sessions[state.ID] = stored
	state.Version = stored.Version
	return nil
}

// DeleteSession removes session state.
func (m *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// GetExpiredSessions lists sessions idle for longer than ttl.
func (m *MemoryStore) GetExpiredSessions(_ context.Context, ttl time.Duration) ([]string, error) {
	threshold := m.now().Add(-ttl)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(threshold) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// PurgeAll removes every session.
func (m *MemoryStore) PurgeAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.sessions))
	m.sessions = make(map[string]*domain.SessionState)
	return n, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
