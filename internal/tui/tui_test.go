package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/orlo/internal/agent"
	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/store"
	"github.com/ashureev/orlo/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

func newChat(t *testing.T, gen agent.Generator, ask AskPlanFunc) (*Chat, *store.MemoryStore) {
	t.Helper()
	repo := store.NewMemory()
	ctrl := session.NewController(repo, gen,
		session.WithClock(func() time.Time { return today }),
		session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return NewChat(ctrl, "terminal", NewPrinter(false, 80), ask), repo
}

func TestPlanFieldsRoundTrip(t *testing.T) {
	req := domain.DefaultStudyPlanRequest(today)
	assert.Equal(t, req, FieldsFromRequest(req).Request(today))
}

func TestPlanFieldsFallBackAndClamp(t *testing.T) {
	got := PlanFields{
		DaysUntilTest: "abc",
		Subject:       "Cooking",
		DailyHours:    "42",
		Goal:          "win",
		StartDate:     "2026-11-01",
		EndDate:       "",
	}.Request(today)

	assert.Equal(t, domain.DefaultDaysUntilTest, got.DaysUntilTest)
	assert.Equal(t, domain.SubjectMathematics, got.Subject)
	assert.Equal(t, domain.MaxDailyHours, got.DailyHours)
	assert.Equal(t, "2026-11-01", got.StartDate.Format(domain.DateLayout))
	assert.Equal(t, "2026-10-16", got.EndDate.Format(domain.DateLayout))
}

func TestValidators(t *testing.T) {
	v := rangeValidator(1, 10)
	assert.NoError(t, v("1"))
	assert.NoError(t, v("10"))
	assert.Error(t, v("0"))
	assert.Error(t, v("x"))

	assert.NoError(t, validateDate("2026-10-16"))
	assert.Error(t, validateDate("16/10/2026"))
}

func TestChatRunsMessagesAndPlan(t *testing.T) {
	gen := agent.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Create a study plan") {
			return "Week one: fractions", nil
		}
		return "reply to " + prompt, nil
	})
	ask := func(f *PlanFields) error {
		f.DaysUntilTest = "5"
		f.Subject = "Science"
		return nil
	}
	chat, repo := newChat(t, gen, ask)

	var out bytes.Buffer
	in := strings.NewReader("hello\n\n/plan\n/quit\nignored\n")
	require.NoError(t, chat.Run(context.Background(), in, &out))

	assert.Contains(t, out.String(), "reply to hello")
	assert.Contains(t, out.String(), view.PlanHeading)
	assert.Contains(t, out.String(), "Week one: fractions")

	state, err := repo.GetSession(context.Background(), "terminal")
	require.NoError(t, err)
	assert.Len(t, state.Transcript, 2)
	assert.Equal(t, "Week one: fractions", state.Plan)
}

func TestChatShowsNoticeOnFailure(t *testing.T) {
	gen := agent.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", &agent.ServiceError{Kind: agent.KindQuota, Err: errors.New("429")}
	})
	chat, repo := newChat(t, gen, nil)

	var out bytes.Buffer
	require.NoError(t, chat.Run(context.Background(), strings.NewReader("hi\n"), &out))

	assert.Contains(t, out.String(), "quota")
	state, err := repo.GetSession(context.Background(), "terminal")
	require.NoError(t, err)
	assert.Empty(t, state.Transcript)
}

func TestChatAbortedFormKeepsState(t *testing.T) {
	called := false
	gen := agent.GeneratorFunc(func(context.Context, string) (string, error) {
		called = true
		return "x", nil
	})
	ask := func(*PlanFields) error { return errors.New("user aborted") }
	chat, _ := newChat(t, gen, ask)

	var out bytes.Buffer
	require.NoError(t, chat.Run(context.Background(), strings.NewReader("/plan\n"), &out))
	assert.False(t, called)
	assert.Contains(t, out.String(), "form closed")
}

func TestPrinterPlainMarkdown(t *testing.T) {
	p := NewPrinter(false, 80)
	assert.Equal(t, "**bold**\n", p.Markdown("**bold**\n\n"))
	assert.Empty(t, p.Plan(view.Page{}))
	assert.Empty(t, p.Notice(view.Page{}))
}

func TestPrinterReplyShowsOnlyFreshAssistantEntries(t *testing.T) {
	p := NewPrinter(false, 80)
	page := view.Page{Transcript: []view.Entry{
		{Role: domain.RoleUser, Content: "old question"},
		{Role: domain.RoleAssistant, Content: "old answer"},
		{Role: domain.RoleUser, Content: "new question", Fresh: true},
		{Role: domain.RoleAssistant, Content: "new answer", Fresh: true},
	}}

	out := p.Reply(page)
	assert.Contains(t, out, "new answer")
	assert.NotContains(t, out, "new question")
	assert.NotContains(t, out, "old answer")
}
