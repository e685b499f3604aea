package domain

import (
	"testing"
	"time"
)

func TestNewSessionStateIsEmpty(t *testing.T) {
	s := NewSessionState("sess-1", today)
	if s.HasPlan() {
		t.Error("new session should have no plan")
	}
	if len(s.Transcript) != 0 {
		t.Errorf("new session transcript length = %d", len(s.Transcript))
	}
}

func TestWithExchangeAppendsPairWithoutAliasing(t *testing.T) {
	s := NewSessionState("sess-1", today).WithExchange("hi", "hello", today)
	next := s.WithExchange("Explain photosynthesis", "Plants make sugar.", today.Add(time.Minute))

	if len(s.Transcript) != 2 {
		t.Fatalf("original transcript mutated: len=%d", len(s.Transcript))
	}
	if len(next.Transcript) != 4 {
		t.Fatalf("next transcript len = %d, want 4", len(next.Transcript))
	}
	want := []Message{
		{RoleUser, "hi"},
		{RoleAssistant, "hello"},
		{RoleUser, "Explain photosynthesis"},
		{RoleAssistant, "Plants make sugar."},
	}
	for i, m := range want {
		if next.Transcript[i] != m {
			t.Errorf("entry %d = %+v, want %+v", i, next.Transcript[i], m)
		}
	}
}

func TestWithPlanLeavesTranscript(t *testing.T) {
	s := NewSessionState("sess-1", today).WithExchange("q", "a", today)
	p := s.WithPlan("Week 1: algebra", today)

	if !p.HasPlan() || p.Plan != "Week 1: algebra" {
		t.Fatalf("plan = %q", p.Plan)
	}
	if len(p.Transcript) != 2 {
		t.Fatalf("plan generation changed transcript: %d", len(p.Transcript))
	}
	if s.HasPlan() {
		t.Fatal("original state gained a plan")
	}
}
