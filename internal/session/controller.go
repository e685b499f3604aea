// Package session implements the session controller: it owns each
// session's state and mediates every call to the generation service.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/orlo/internal/agent"
	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/store"
)

// ErrEmptyMessage is returned when a chat message has no content.
var ErrEmptyMessage = errors.New("message is empty")

// Controller processes session events one at a time per session.
// A failed generation never changes stored state.
type Controller struct {
	repo   store.Repository
	gen    agent.Generator
	locks  *keyedMutex
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// NewController creates a controller over repo and gen.
func NewController(repo store.Repository, gen agent.Generator, opts ...Option) *Controller {
	c := &Controller{
		repo:   repo,
		gen:    gen,
		locks:  newKeyedMutex(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the controller's current time.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Initialize returns the session's state, creating the empty initial state
// on first use. Calling it again never resets existing state.
func (c *Controller) Initialize(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	unlock := c.locks.Lock(sessionID)
	defer unlock()
	return c.load(ctx, sessionID)
}

// SubmitPlan generates a study plan from req and stores it as the current plan.
// On failure the previous state is returned together with the error.
func (c *Controller) SubmitPlan(ctx context.Context, sessionID string, req domain.StudyPlanRequest) (*domain.SessionState, error) {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	state, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req = req.Normalize(c.now())
	plan, err := c.generate(ctx, req.Prompt())
	if err != nil {
		c.logger.Warn("Study plan generation failed", "session_id", sessionID, "kind", agent.KindOf(err), "error", err)
		return state, fmt.Errorf("generate study plan: %w", err)
	}

	next := state.WithPlan(plan, c.now())
	if err := c.repo.SaveSession(ctx, next, state.Version); err != nil {
		return state, fmt.Errorf("save study plan: %w", err)
	}

	c.logger.Info("Study plan generated", "session_id", sessionID, "subject", req.Subject, "plan_length", len(plan))
	return next, nil
}

// SubmitMessage sends text verbatim as a prompt and appends the user message
// and the reply as one pair. It returns the appended pair. On failure
// neither entry is recorded.
func (c *Controller) SubmitMessage(ctx context.Context, sessionID, text string) (*domain.SessionState, []domain.Message, error) {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	state, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(text) == "" {
		return state, nil, ErrEmptyMessage
	}

	reply, err := c.generate(ctx, text)
	if err != nil {
		c.logger.Warn("Chat generation failed", "session_id", sessionID, "kind", agent.KindOf(err), "error", err)
		return state, nil, fmt.Errorf("generate chat reply: %w", err)
	}

	next := state.WithExchange(text, reply, c.now())
	if err := c.repo.SaveSession(ctx, next, state.Version); err != nil {
		return state, nil, fmt.Errorf("save chat exchange: %w", err)
	}

	c.logger.Info("Chat exchange recorded", "session_id", sessionID, "transcript_length", len(next.Transcript))
	return next, next.Transcript[len(next.Transcript)-2:], nil
}

// End discards the session's state.
func (c *Controller) End(ctx context.Context, sessionID string) error {
	unlock := c.locks.Lock(sessionID)
	defer unlock()
	if err := c.repo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// Expire discards the session if it has been idle for longer than ttl.
// Idleness is checked again under the session lock, so an event that
// committed while the caller was waiting keeps the session alive.
func (c *Controller) Expire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	state, err := c.repo.GetSession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if state == nil || state.IdleFor(c.now()) <= ttl {
		return false, nil
	}
	if err := c.repo.DeleteSession(ctx, sessionID); err != nil {
		return false, fmt.Errorf("expire session: %w", err)
	}
	c.logger.Info("Session expired", "session_id", sessionID, "idle", state.IdleFor(c.now()))
	return true, nil
}

// generate rejects blank text so that an absent plan and a missing reply
// cannot be stored.
func (c *Controller) generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &agent.ServiceError{Kind: agent.KindMalformed, Err: agent.ErrEmptyResponse}
	}
	return text, nil
}

// load must be called with the session lock held.
func (c *Controller) load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("load session: missing session id")
	}

	state, err := c.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if state != nil {
		return state, nil
	}

	state = domain.NewSessionState(sessionID, c.now())
	inserted, err := c.repo.CreateSession(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("initialize session: %w", err)
	}
	if !inserted {
		// Another process created it first.
		state, err = c.repo.GetSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		if state == nil {
			return nil, fmt.Errorf("load session %s: %w", sessionID, store.ErrSessionNotFound)
		}
		return state, nil
	}

	c.logger.Info("Session initialized", "session_id", sessionID)
	return state, nil
}
