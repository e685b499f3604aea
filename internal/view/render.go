package view

import (
	"time"

	"github.com/ashureev/orlo/internal/domain"
)

var about = About{
	Heading: AboutHeading,
	What:    "Orlo is a study planning app designed to help users create customized study plans to improve their test scores.",
	HowTo:   `To use Orlo, open the sidebar, enter your study preferences, and click "Generate Study Plan". The app will provide you with a detailed study plan based on the inputs you provide.`,
	Behind:  "This app leverages the power of Google Generative AI to create study plans tailored to individual needs.",
	Features: []string{
		"Customizable Study Plans: Input your subject, study duration, and goals to get a plan that suits your needs.",
		"AI-Powered Recommendations: Orlo uses Google's generative AI to generate a study plan based on your preferences.",
		"Simple and Intuitive Interface: Designed to be user-friendly and easy to navigate.",
	},
}

// Render describes the page for state. It reads state and never mutates it;
// identical inputs produce identical pages. today only seeds the default
// form dates.
func Render(state *domain.SessionState, flash Flash, today time.Time) Page {
	req := domain.DefaultStudyPlanRequest(today)
	if flash.Request != nil {
		req = *flash.Request
	}

	page := Page{
		Title:      Title + " " + Icon,
		Form:       renderForm(req),
		Transcript: []Entry{},
		Notice:     flash.Notice,
		About:      about,
	}
	if state == nil {
		return page
	}

	if state.HasPlan() {
		page.Plan = &PlanSection{Heading: PlanHeading, Body: state.Plan}
	}

	freshFrom := len(state.Transcript) - flash.FreshCount
	page.Transcript = make([]Entry, len(state.Transcript))
	for i, m := range state.Transcript {
		page.Transcript[i] = Entry{
			Role:    m.Role,
			Content: m.Content,
			Fresh:   flash.FreshCount > 0 && i >= freshFrom,
		}
	}
	return page
}

func renderForm(req domain.StudyPlanRequest) Form {
	subjects := domain.Subjects()
	options := make([]string, len(subjects))
	for i, s := range subjects {
		options[i] = string(s)
	}

	return Form{
		Heading: FormHeading,
		DaysUntilTest: Slider{
			Label: "Days until test/quiz",
			Min:   domain.MinDaysUntilTest,
			Max:   domain.MaxDaysUntilTest,
			Value: req.DaysUntilTest,
		},
		Subject: Select{
			Label:   "Select Subject",
			Options: options,
			Value:   string(req.Subject),
		},
		DailyHours: Slider{
			Label: "Daily Study Hours",
			Min:   domain.MinDailyHours,
			Max:   domain.MaxDailyHours,
			Value: req.DailyHours,
		},
		Goal:        req.Goal,
		StartDate:   req.StartDate.Format(domain.DateLayout),
		EndDate:     req.EndDate.Format(domain.DateLayout),
		SubmitLabel: SubmitLabel,
		ChatLabel:   ChatLabel,
	}
}
