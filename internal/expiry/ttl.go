// Package expiry discards sessions that have been idle too long.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/orlo/internal/shared"
)

// Finder lists sessions idle for longer than ttl.
type Finder interface {
	GetExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error)
}

// Expirer discards one session if it is still idle for longer than ttl.
// The session controller satisfies it, so expiry waits for any in-flight
// event on the session and rechecks afterwards.
type Expirer interface {
	Expire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
}

// ExpireCallback is called after a session has been discarded.
type ExpireCallback func(sessionID string)

// Worker periodically sweeps idle sessions.
type Worker struct {
	finder   Finder
	expirer  Expirer
	ttl      time.Duration
	interval time.Duration
	onExpire ExpireCallback
	logger   *slog.Logger
}

// NewWorker creates a TTL worker. onExpire may be nil.
func NewWorker(finder Finder, expirer Expirer, ttl, interval time.Duration, onExpire ExpireCallback, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		finder:   finder,
		expirer:  expirer,
		ttl:      ttl,
		interval: interval,
		onExpire: onExpire,
		logger:   logger,
	}
}

// Run sweeps every interval until ctx is done. It always returns nil so it
// can run in an errgroup beside the server.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.logger.Info("TTL worker started", "interval", w.interval, "ttl", w.ttl)

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)
		case <-ctx.Done():
			w.logger.Info("TTL worker shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

// Sweep discards every expired session once and returns how many were removed.
func (w *Worker) Sweep(ctx context.Context) int {
	expired, err := w.finder.GetExpiredSessions(ctx, w.ttl)
	if err != nil {
		w.logger.Error("TTL worker failed to get expired sessions", "error", err)
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	w.logger.Info("TTL worker found expired sessions", "count", len(expired))

	// Sessions that fail here stay idle and are listed again next sweep.
	removed := 0
	for _, sessionID := range expired {
		ok, err := w.expireWithRetry(ctx, sessionID)
		if err != nil {
			w.logger.Warn("TTL worker failed to discard session", "error", err, "session_id", sessionID)
			continue
		}
		if !ok {
			w.logger.Debug("TTL worker kept session active since listing", "session_id", sessionID)
			continue
		}
		removed++
		if w.onExpire != nil {
			w.onExpire(sessionID)
		}
	}

	w.logger.Info("TTL worker cleanup completed", "cleaned", removed)
	return removed
}

// expireWithRetry retries SQLITE_BUSY and SQLITE_LOCKED failures with
// exponential backoff: 100ms, 200ms.
func (w *Worker) expireWithRetry(ctx context.Context, sessionID string) (bool, error) {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		var ok bool
		ok, err = w.expirer.Expire(ctx, sessionID, w.ttl)
		if err == nil {
			return ok, nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<i)
		w.logger.Debug("TTL worker: database locked, retrying", "session_id", sessionID, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(delay):
		}
	}
	return false, fmt.Errorf("discard session %s: %w", sessionID, err)
}
