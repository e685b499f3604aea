package expiry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// Started by an init in the genai dependency tree.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type flakyExpirer struct {
	mu       sync.Mutex
	failures int
	err      error
	ended    []string
}

func (f *flakyExpirer) Expire(_ context.Context, sessionID string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return false, f.err
	}
	f.ended = append(f.ended, sessionID)
	return true, nil
}

// gatedGenerator blocks every call until release is closed.
type gatedGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	close(g.started)
	select {
	case <-g.release:
		return "reply to " + prompt, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type staticFinder []string

func (s staticFinder) GetExpiredSessions(context.Context, time.Duration) ([]string, error) {
	return s, nil
}

func TestSweepDiscardsOnlyIdleSessions(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	ctrl := session.NewController(repo, nil, session.WithLogger(quiet))

	old := domain.NewSessionState("old", time.Now().Add(-2*time.Hour))
	fresh := domain.NewSessionState("fresh", time.Now())
	for _, s := range []*domain.SessionState{old, fresh} {
		_, err := repo.CreateSession(ctx, s)
		require.NoError(t, err)
	}

	var expired []string
	w := NewWorker(repo, ctrl, time.Hour, time.Minute, func(id string) { expired = append(expired, id) }, quiet)

	assert.Equal(t, 1, w.Sweep(ctx))
	assert.Equal(t, []string{"old"}, expired)

	got, err := repo.GetSession(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = repo.GetSession(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSweepRetriesBusyErrors(t *testing.T) {
	expirer := &flakyExpirer{failures: 2, err: errors.New("database is locked (SQLITE_BUSY)")}
	w := NewWorker(staticFinder{"a"}, expirer, time.Hour, time.Minute, nil, quiet)

	assert.Equal(t, 1, w.Sweep(context.Background()))
	assert.Equal(t, []string{"a"}, expirer.ended)
}

func TestSweepSkipsNonRetryableErrors(t *testing.T) {
	expirer := &flakyExpirer{failures: 1, err: errors.New("disk I/O error")}
	called := false
	w := NewWorker(staticFinder{"a", "b"}, expirer, time.Hour, time.Minute, func(string) { called = true }, quiet)

	assert.Equal(t, 1, w.Sweep(context.Background()))
	assert.Equal(t, []string{"b"}, expirer.ended)
	assert.True(t, called)
}

func TestSweepKeepsSessionThatCommitsWhileListed(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	_, err := repo.CreateSession(ctx, domain.NewSessionState("busy", time.Now().Add(-2*time.Hour)))
	require.NoError(t, err)

	gen := &gatedGenerator{started: make(chan struct{}), release: make(chan struct{})}
	ctrl := session.NewController(repo, gen, session.WithLogger(quiet))

	chatDone := make(chan error, 1)
	go func() {
		_, _, err := ctrl.SubmitMessage(ctx, "busy", "still here")
		chatDone <- err
	}()
	<-gen.started

	var expired []string
	w := NewWorker(repo, ctrl, time.Hour, time.Minute, func(id string) { expired = append(expired, id) }, quiet)
	sweepDone := make(chan int, 1)
	go func() { sweepDone <- w.Sweep(ctx) }()

	// Let the sweep list the session and wait on its lock.
	time.Sleep(50 * time.Millisecond)
	close(gen.release)

	require.NoError(t, <-chatDone)
	assert.Equal(t, 0, <-sweepDone)
	assert.Empty(t, expired)

	got, err := repo.GetSession(ctx, "busy")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Transcript, 2)
}

func TestSweepRetriesOnNextPassAfterFailure(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	_, err := repo.CreateSession(ctx, domain.NewSessionState("stuck", time.Now().Add(-3*time.Hour)))
	require.NoError(t, err)

	expirer := &flakyExpirer{failures: 1, err: errors.New("disk I/O error")}
	w := NewWorker(repo, expirer, time.Hour, time.Minute, nil, quiet)

	assert.Equal(t, 0, w.Sweep(ctx))
	assert.Equal(t, 1, w.Sweep(ctx))
	assert.Equal(t, []string{"stuck"}, expirer.ended)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	expirer := &flakyExpirer{}
	w := NewWorker(staticFinder{"a"}, expirer, time.Hour, 5*time.Millisecond, nil, quiet)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		expirer.mu.Lock()
		defer expirer.mu.Unlock()
		return len(expirer.ended) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
