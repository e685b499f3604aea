package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
// The transcript is kept as a JSON column next to the plan.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open database: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode lets renders read while a commit is in flight.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		plan TEXT,
		messages_json TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSession retrieves session state by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	query := `
		SELECT session_id, plan, messages_json, version, created_at, updated_at
		FROM sessions WHERE session_id = ?`

	var state domain.SessionState
	var plan sql.NullString
	var messagesJSON string
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&state.ID, &plan, &messagesJSON, &state.Version, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	state.Plan = plan.String
	state.CreatedAt = time.UnixMilli(createdAt)
	state.UpdatedAt = time.UnixMilli(updatedAt)
	state.Transcript = []domain.Message{}
	if err := json.Unmarshal([]byte(messagesJSON), &state.Transcript); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	return &state, nil
}

// CreateSession inserts state if the session does not exist yet.
func (s *SQLiteStore) CreateSession(ctx context.Context, state *domain.SessionState) (bool, error) {
	if state == nil || state.ID == "" {
		return false, fmt.Errorf("create session: missing session id")
	}
	messagesJSON, err := encodeTranscript(state.Transcript)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO sessions (session_id, plan, messages_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`

	var inserted int64
	err = withBusyRetry(ctx, "create session", func() error {
		result, err := s.db.ExecContext(ctx, query,
			state.ID, nullablePlan(state.Plan), messagesJSON, state.Version,
			state.CreatedAt.UnixMilli(), state.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		inserted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted == 1, nil
}

// SaveSession replaces state using optimistic version checking.
func (s *SQLiteStore) SaveSession(ctx context.Context, state *domain.SessionState, expectedVersion int64) error {
	messagesJSON, err := encodeTranscript(state.Transcript)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET plan = ?, messages_json = ?, version = ?, updated_at = ?
		WHERE session_id = ? AND version = ?`

	var rows int64
	err = withBusyRetry(ctx, "save session", func() error {
		result, err := s.db.ExecContext(ctx, query,
			nullablePlan(state.Plan), messagesJSON, expectedVersion+1, state.UpdatedAt.UnixMilli(),
			state.ID, expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if rows == 0 {
		existing, err := s.GetSession(ctx, state.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrSessionNotFound
		}
		slog.Warn("SaveSession version mismatch", "session_id", state.ID, "expected_version", expectedVersion, "stored_version", existing.Version)
		return fmt.Errorf("save session %s: %w", state.ID, ErrVersionConflict)
	}

	state.Version = expectedVersion + 1
	return nil
}

// DeleteSession removes session state.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	return withBusyRetry(ctx, "delete session", func() error {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// GetExpiredSessions lists sessions idle for longer than ttl.
func (s *SQLiteStore) GetExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := time.Now().Add(-ttl).UnixMilli()
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close expired sessions rows", "error", closeErr)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired session row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}
	return ids, nil
}

// PurgeAll removes every session left over from a previous process.
func (s *SQLiteStore) PurgeAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func encodeTranscript(transcript []domain.Message) (string, error) {
	if transcript == nil {
		transcript = []domain.Message{}
	}
	data, err := json.Marshal(transcript)
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return string(data), nil
}

func nullablePlan(plan string) interface{} {
	if plan == "" {
		return nil
	}
	return plan
}

// withBusyRetry retries op with exponential backoff while SQLite reports
// the database as busy or locked.
func withBusyRetry(ctx context.Context, opName string, op func() error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = op()
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
		if i == maxRetries-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("SQLite busy, retrying", "op", opName, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", opName, maxRetries, err)
}
