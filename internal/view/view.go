// Package view builds the UI description of a session.
// Every surface (HTML page, JSON API, WebSocket, terminal) renders from Page.
package view

import (
	"github.com/ashureev/orlo/internal/domain"
)

// Fixed page text.
const (
	Title        = "Orlo"
	Icon         = "🦉"
	FormHeading  = "Customize Your Study Plan"
	PlanHeading  = "Your Customized Study Plan"
	ChatLabel    = "You:"
	SubmitLabel  = "Generate Study Plan"
	SidebarHint  = "👈 Click here to open the sidebar!"
	AboutHeading = "About this app"
)

// Page is the complete UI description of one session at one moment.
type Page struct {
	Title      string       `json:"title"`
	Form       Form         `json:"form"`
	Plan       *PlanSection `json:"plan,omitempty"`
	Transcript []Entry      `json:"transcript"`
	Notice     *Notice      `json:"notice,omitempty"`
	About      About        `json:"about"`
}

// Form describes the sidebar widgets and their current values.
type Form struct {
	Heading       string `json:"heading"`
	DaysUntilTest Slider `json:"days_until_test"`
	Subject       Select `json:"subject"`
	DailyHours    Slider `json:"daily_hours"`
	Goal          string `json:"goal"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	SubmitLabel   string `json:"submit_label"`
	ChatLabel     string `json:"chat_label"`
}

// Slider is a bounded integer widget.
type Slider struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Value int    `json:"value"`
}

// Select is a single-choice widget.
type Select struct {
	Label   string   `json:"label"`
	Options []string `json:"options"`
	Value   string   `json:"value"`
}

// PlanSection is shown only once a plan exists.
type PlanSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Entry is one transcript display unit.
type Entry struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
	Fresh   bool        `json:"fresh,omitempty"`
}

// Notice is a visible failure message for the current interaction.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// About is the collapsible description of the app.
type About struct {
	Heading  string   `json:"heading"`
	What     string   `json:"what"`
	HowTo    string   `json:"how_to"`
	Behind   string   `json:"behind"`
	Features []string `json:"features"`
}

// Flash carries what belongs to the current interaction only: the submitted
// form values, the pair appended by this request and any failure notice.
// It is never stored in the session.
type Flash struct {
	Request    *domain.StudyPlanRequest
	FreshCount int
	Notice     *Notice
}
