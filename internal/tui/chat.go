package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/orlo/internal/agent"
	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/view"
)

// Commands recognized by the chat loop.
const (
	CommandPlan = "/plan"
	CommandQuit = "/quit"
)

// AskPlanFunc lets the user edit fields in place.
type AskPlanFunc func(fields *PlanFields) error

// Chat runs one terminal session against a controller.
type Chat struct {
	ctrl      *session.Controller
	sessionID string
	printer   *Printer
	askPlan   AskPlanFunc
	fields    *PlanFields
}

// NewChat creates a chat loop for sessionID. A nil askPlan uses the huh form.
func NewChat(ctrl *session.Controller, sessionID string, printer *Printer, askPlan AskPlanFunc) *Chat {
	if askPlan == nil {
		askPlan = func(f *PlanFields) error { return planForm(f).Run() }
	}
	return &Chat{
		ctrl:      ctrl,
		sessionID: sessionID,
		printer:   printer,
		askPlan:   askPlan,
	}
}

// Run reads lines from in until EOF, /quit or ctx is done.
func (c *Chat) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	state, err := c.ctrl.Initialize(ctx, c.sessionID)
	if err != nil {
		return err
	}
	page := view.Render(state, view.Flash{}, c.ctrl.Now())
	fmt.Fprint(out, c.printer.Header(page))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, StyleUser.Render(view.ChatLabel)+" ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case CommandQuit:
			return nil
		case CommandPlan:
			if err := c.plan(ctx, out); err != nil {
				return err
			}
		default:
			c.message(ctx, out, line)
		}
	}
}

func (c *Chat) plan(ctx context.Context, out io.Writer) error {
	today := c.ctrl.Now()
	if c.fields == nil {
		f := FieldsFromRequest(domain.DefaultStudyPlanRequest(today))
		c.fields = &f
	}
	if err := c.askPlan(c.fields); err != nil {
		// An aborted form leaves the session as it was.
		fmt.Fprintln(out, StyleDim.Render("Study plan form closed."))
		return nil
	}

	req := c.fields.Request(today)
	fmt.Fprintln(out, StyleDim.Render("Generating your study plan..."))
	state, err := c.ctrl.SubmitPlan(ctx, c.sessionID, req)
	if state == nil {
		return err
	}

	flash := view.Flash{Request: &req}
	if err != nil {
		flash.Notice = noticeFor(err)
	}
	page := view.Render(state, flash, today)
	fmt.Fprint(out, c.printer.Notice(page))
	if err == nil {
		fmt.Fprint(out, c.printer.Plan(page))
	}
	return nil
}

func (c *Chat) message(ctx context.Context, out io.Writer, text string) {
	state, pair, err := c.ctrl.SubmitMessage(ctx, c.sessionID, text)
	if errors.Is(err, session.ErrEmptyMessage) {
		return
	}
	if state == nil {
		fmt.Fprintln(out, StyleNotice.Render(err.Error()))
		return
	}

	flash := view.Flash{FreshCount: len(pair)}
	if err != nil {
		flash.Notice = noticeFor(err)
	}
	page := view.Render(state, flash, c.ctrl.Now())
	fmt.Fprint(out, c.printer.Notice(page))
	fmt.Fprint(out, c.printer.Reply(page))
}

func noticeFor(err error) *view.Notice {
	return &view.Notice{Kind: string(agent.KindOf(err)), Message: agent.NoticeFor(err)}
}
