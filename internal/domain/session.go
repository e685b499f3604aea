package domain

import (
	"time"
)

// Role identifies the author of a transcript entry.
type Role string

// Transcript roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SessionState holds everything one session remembers between renders.
type SessionState struct {
	ID         string
	Plan       string // empty until the first successful plan generation
	Transcript []Message
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSessionState returns the initial state: no plan and an empty transcript.
func NewSessionState(id string, now time.Time) *SessionState {
	return &SessionState{
		ID:         id,
		Transcript: []Message{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// HasPlan reports whether a plan has been generated for this session.
// The controller never stores a blank plan.
func (s *SessionState) HasPlan() bool {
	return s.Plan != ""
}

// Clone returns a deep copy so that callers cannot alias the transcript.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	c := *s
	c.Transcript = make([]Message, len(s.Transcript))
	copy(c.Transcript, s.Transcript)
	return &c
}

// WithPlan returns a copy of the state with the plan replaced.
func (s *SessionState) WithPlan(plan string, now time.Time) *SessionState {
	c := s.Clone()
	c.Plan = plan
	c.UpdatedAt = now
	return c
}

// WithExchange returns a copy of the state with a user/assistant pair appended.
// Entries are only ever appended in matched pairs.
func (s *SessionState) WithExchange(userText, reply string, now time.Time) *SessionState {
	c := s.Clone()
	c.Transcript = append(c.Transcript,
		Message{Role: RoleUser, Content: userText},
		Message{Role: RoleAssistant, Content: reply},
	)
	c.UpdatedAt = now
	return c
}

// IdleFor returns how long the session has gone without a state change.
func (s *SessionState) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}
