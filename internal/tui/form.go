package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/view"
	"github.com/charmbracelet/huh"
)

// PlanFields holds the sidebar inputs as text, the way the form edits them.
type PlanFields struct {
	DaysUntilTest string
	Subject       string
	DailyHours    string
	Goal          string
	StartDate     string
	EndDate       string
}

// FieldsFromRequest formats req for editing.
func FieldsFromRequest(req domain.StudyPlanRequest) PlanFields {
	return PlanFields{
		DaysUntilTest: strconv.Itoa(req.DaysUntilTest),
		Subject:       string(req.Subject),
		DailyHours:    strconv.Itoa(req.DailyHours),
		Goal:          req.Goal,
		StartDate:     req.StartDate.Format(domain.DateLayout),
		EndDate:       req.EndDate.Format(domain.DateLayout),
	}
}

// Request parses the fields. Malformed values fall back to the defaults and
// the result is normalized.
func (f PlanFields) Request(today time.Time) domain.StudyPlanRequest {
	def := domain.DefaultStudyPlanRequest(today)
	req := domain.StudyPlanRequest{
		DaysUntilTest: domain.ParseFormInt(f.DaysUntilTest, def.DaysUntilTest),
		Subject:       domain.Subject(f.Subject),
		DailyHours:    domain.ParseFormInt(f.DailyHours, def.DailyHours),
		Goal:          f.Goal,
		StartDate:     domain.ParseFormDate(f.StartDate, def.StartDate),
		EndDate:       domain.ParseFormDate(f.EndDate, def.EndDate),
	}
	return req.Normalize(today)
}

// planForm builds the themed study plan form bound to f.
func planForm(f *PlanFields) *huh.Form {
	subjects := domain.Subjects()
	options := make([]huh.Option[string], len(subjects))
	for i, s := range subjects {
		options[i] = huh.NewOption(string(s), string(s))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Days until test/quiz (%d-%d)", domain.MinDaysUntilTest, domain.MaxDaysUntilTest)).
				Value(&f.DaysUntilTest).
				Validate(rangeValidator(domain.MinDaysUntilTest, domain.MaxDaysUntilTest)),
			huh.NewSelect[string]().
				Title("Select Subject").
				Options(options...).
				Value(&f.Subject),
			huh.NewInput().
				Title(fmt.Sprintf("Daily Study Hours (%d-%d)", domain.MinDailyHours, domain.MaxDailyHours)).
				Value(&f.DailyHours).
				Validate(rangeValidator(domain.MinDailyHours, domain.MaxDailyHours)),
			huh.NewInput().
				Title("Study Goal").
				Value(&f.Goal),
			huh.NewInput().
				Title("Start Date").
				Placeholder("2026-01-31").
				Value(&f.StartDate).
				Validate(validateDate),
			huh.NewInput().
				Title("End Date").
				Placeholder("2026-01-31").
				Value(&f.EndDate).
				Validate(validateDate),
		).Title(view.FormHeading),
	).WithTheme(orloHuhTheme()).WithShowHelp(false)
}

// rangeValidator accepts integers within [lo, hi].
func rangeValidator(lo, hi int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil || v < lo || v > hi {
			return fmt.Errorf("enter a number from %d to %d", lo, hi)
		}
		return nil
	}
}

func validateDate(s string) error {
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}
