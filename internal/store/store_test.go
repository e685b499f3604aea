package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Repository {
	t.Helper()
	sqliteStore, err := NewSQLite(filepath.Join(t.TempDir(), "orlo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Repository{
		BackendMemory: NewMemory(),
		BackendSQLite: sqliteStore,
	}
}

// ignoreTimes keeps comparisons independent of the millisecond column precision.
var ignoreTimes = cmpopts.IgnoreFields(domain.SessionState{}, "CreatedAt", "UpdatedAt")

func TestRepositoryCreateIsIdempotent(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()

			inserted, err := repo.CreateSession(ctx, domain.NewSessionState("s1", now))
			require.NoError(t, err)
			assert.True(t, inserted)

			withPlan := domain.NewSessionState("s1", now).WithPlan("should not overwrite", now)
			inserted, err = repo.CreateSession(ctx, withPlan)
			require.NoError(t, err)
			assert.False(t, inserted)

			got, err := repo.GetSession(ctx, "s1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.False(t, got.HasPlan())
			assert.Empty(t, got.Transcript)
		})
	}
}

func TestRepositoryGetMissingReturnsNil(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := repo.GetSession(context.Background(), "missing")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestRepositorySaveRoundTrip(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()
			_, err := repo.CreateSession(ctx, domain.NewSessionState("s1", now))
			require.NoError(t, err)

			next := domain.NewSessionState("s1", now).
				WithPlan("Day 1: review", now).
				WithExchange("Explain photosynthesis", "Light becomes sugar.", now)
			require.NoError(t, repo.SaveSession(ctx, next, 0))
			assert.Equal(t, int64(1), next.Version)

			got, err := repo.GetSession(ctx, "s1")
			require.NoError(t, err)
			if diff := cmp.Diff(next, got, ignoreTimes); diff != "" {
				t.Fatalf("stored state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepositorySaveDetectsConflict(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()
			_, err := repo.CreateSession(ctx, domain.NewSessionState("s1", now))
			require.NoError(t, err)

			first := domain.NewSessionState("s1", now).WithPlan("first", now)
			require.NoError(t, repo.SaveSession(ctx, first, 0))

			stale := domain.NewSessionState("s1", now).WithPlan("stale", now)
			err = repo.SaveSession(ctx, stale, 0)
			assert.ErrorIs(t, err, ErrVersionConflict)

			got, err := repo.GetSession(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "first", got.Plan)

			err = repo.SaveSession(ctx, domain.NewSessionState("nope", now), 0)
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestRepositoryReturnsCopies(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()
			_, err := repo.CreateSession(ctx, domain.NewSessionState("s1", now).WithExchange("a", "b", now))
			require.NoError(t, err)

			got, err := repo.GetSession(ctx, "s1")
			require.NoError(t, err)
			got.Transcript[0].Content = "mutated"
			got.Plan = "mutated"

			again, err := repo.GetSession(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "a", again.Transcript[0].Content)
			assert.False(t, again.HasPlan())
		})
	}
}

func TestRepositoryExpiry(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			old := time.Now().Add(-2 * time.Hour)
			_, err := repo.CreateSession(ctx, domain.NewSessionState("old", old))
			require.NoError(t, err)
			_, err = repo.CreateSession(ctx, domain.NewSessionState("fresh", time.Now()))
			require.NoError(t, err)

			ids, err := repo.GetExpiredSessions(ctx, time.Hour)
			require.NoError(t, err)
			assert.Equal(t, []string{"old"}, ids)

			require.NoError(t, repo.DeleteSession(ctx, "old"))

			gone, err := repo.GetSession(ctx, "old")
			require.NoError(t, err)
			assert.Nil(t, gone)

			n, err := repo.PurgeAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			require.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New("postgres", "")
	assert.Error(t, err)

	repo, err := New("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, repo)
}
