// Package store provides session state persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/orlo/internal/domain"
)

var (
	// ErrVersionConflict is returned by SaveSession when the stored version
	// no longer matches the expected version.
	ErrVersionConflict = errors.New("session version conflict")

	// ErrSessionNotFound is returned when saving a session that does not exist.
	ErrSessionNotFound = errors.New("session not found")
)

// Repository defines the interface for keeping per-session state.
// Implementations return copies; mutating a returned state never changes
// what is stored.
type Repository interface {
	// GetSession retrieves session state. Returns nil, nil when absent.
	GetSession(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// CreateSession stores state only if no state exists for its ID.
	// It reports whether the state was inserted.
	CreateSession(ctx context.Context, state *domain.SessionState) (bool, error)

	// SaveSession replaces session state if the stored version equals
	// expectedVersion, and stores it with Version = expectedVersion+1.
	SaveSession(ctx context.Context, state *domain.SessionState, expectedVersion int64) error

	// DeleteSession removes session state.
	DeleteSession(ctx context.Context, sessionID string) error

	// GetExpiredSessions lists sessions idle for longer than ttl.
	GetExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error)

	// PurgeAll removes every session. Used at start-up so that nothing
	// outlives the process.
	PurgeAll(ctx context.Context) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// New opens the repository for the named backend.
func New(backend, dbPath string) (Repository, error) {
	switch backend {
	case BackendSQLite:
		s, err := NewSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory, "":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown store backend: " + backend)
	}
}
