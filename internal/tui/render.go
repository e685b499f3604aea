package tui

import (
	"strings"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/view"
	"github.com/charmbracelet/glamour"
)

// Printer formats page sections for the terminal.
type Printer struct {
	renderer *glamour.TermRenderer
}

// NewPrinter returns a printer. When styled is false, or the markdown
// renderer cannot be built, generated text is printed as is.
func NewPrinter(styled bool, width int) *Printer {
	if !styled {
		return &Printer{}
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &Printer{}
	}
	return &Printer{renderer: renderer}
}

// Markdown renders generated text.
func (p *Printer) Markdown(text string) string {
	if p.renderer == nil {
		return strings.TrimRight(text, "\n") + "\n"
	}
	out, err := p.renderer.Render(text)
	if err != nil {
		return strings.TrimRight(text, "\n") + "\n"
	}
	return out
}

// Header renders the title line and hint shown when the session starts.
func (p *Printer) Header(page view.Page) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(page.Title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(page.About.What))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("Type a message to chat, /plan to open the study plan form, /quit to leave."))
	b.WriteString("\n")
	return b.String()
}

// Plan renders the plan section, or nothing when the page has no plan.
func (p *Printer) Plan(page view.Page) string {
	if page.Plan == nil {
		return ""
	}
	return StyleHeading.Render(page.Plan.Heading) + "\n" + p.Markdown(page.Plan.Body)
}

// Reply renders the assistant entries appended by the last event. The
// user's own line is already on screen.
func (p *Printer) Reply(page view.Page) string {
	var b strings.Builder
	for _, e := range page.Transcript {
		if e.Fresh && e.Role == domain.RoleAssistant {
			b.WriteString(p.Entry(e))
		}
	}
	return b.String()
}

// Entry renders one transcript entry with its role label.
func (p *Printer) Entry(e view.Entry) string {
	label := StyleAssistant.Render(view.Icon + " Orlo")
	if e.Role == domain.RoleUser {
		label = StyleUser.Render(view.ChatLabel)
	}
	return label + "\n" + p.Markdown(e.Content)
}

// Notice renders a failure notice, or nothing.
func (p *Printer) Notice(page view.Page) string {
	if page.Notice == nil {
		return ""
	}
	return StyleNotice.Render(page.Notice.Message) + "\n"
}
