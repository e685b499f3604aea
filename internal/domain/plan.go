// Package domain contains core domain types for the Orlo application.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in forms and prompts.
const DateLayout = "2006-01-02"

// Widget bounds and defaults for the study plan form.
const (
	MinDaysUntilTest     = 1
	MaxDaysUntilTest     = 365
	DefaultDaysUntilTest = 30

	MinDailyHours     = 1
	MaxDailyHours     = 10
	DefaultDailyHours = 2

	DefaultGoal = "Prepare for exam"
)

// Subject is the study subject selected in the form.
type Subject string

// Supported subjects, in display order.
const (
	SubjectMathematics Subject = "Mathematics"
	SubjectScience     Subject = "Science"
	SubjectHistory     Subject = "History"
	SubjectLanguage    Subject = "Language"
)

// Subjects returns the selectable subjects in display order.
func Subjects() []Subject {
	return []Subject{SubjectMathematics, SubjectScience, SubjectHistory, SubjectLanguage}
}

// ParseSubject maps a form value to a Subject. Matching is case-insensitive.
func ParseSubject(s string) (Subject, bool) {
	s = strings.TrimSpace(s)
	for _, subj := range Subjects() {
		if strings.EqualFold(s, string(subj)) {
			return subj, true
		}
	}
	return "", false
}

// StudyPlanRequest holds the form parameters for one plan generation.
// It is never stored; only the prompt derived from it leaves the process.
type StudyPlanRequest struct {
	DaysUntilTest int       `json:"days_until_test"`
	Subject       Subject   `json:"subject"`
	DailyHours    int       `json:"daily_hours"`
	Goal          string    `json:"goal"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// DefaultStudyPlanRequest returns the form defaults, with both dates set to today.
func DefaultStudyPlanRequest(today time.Time) StudyPlanRequest {
	day := truncateDay(today)
	return StudyPlanRequest{
		DaysUntilTest: DefaultDaysUntilTest,
		Subject:       SubjectMathematics,
		DailyHours:    DefaultDailyHours,
		Goal:          DefaultGoal,
		StartDate:     day,
		EndDate:       day,
	}
}

// Normalize applies widget-level clamping: numeric fields are clamped to
// their slider ranges, an unknown subject falls back to the first option and
// unset dates default to today. Date ordering is not checked.
func (r StudyPlanRequest) Normalize(today time.Time) StudyPlanRequest {
	r.DaysUntilTest = clamp(r.DaysUntilTest, MinDaysUntilTest, MaxDaysUntilTest)
	r.DailyHours = clamp(r.DailyHours, MinDailyHours, MaxDailyHours)
	if subj, ok := ParseSubject(string(r.Subject)); ok {
		r.Subject = subj
	} else {
		r.Subject = SubjectMathematics
	}
	if r.StartDate.IsZero() {
		r.StartDate = today
	}
	if r.EndDate.IsZero() {
		r.EndDate = today
	}
	r.StartDate = truncateDay(r.StartDate)
	r.EndDate = truncateDay(r.EndDate)
	return r
}

// Prompt assembles the templated sentence sent to the generation service.
// Every field value appears verbatim.
func (r StudyPlanRequest) Prompt() string {
	return fmt.Sprintf(
		"Create a study plan for a student who has %d days until their test. "+
			"The subject is %s. They can study for %d hours each day. "+
			"The goal is to %s. The study period is from %s to %s.",
		r.DaysUntilTest, r.Subject, r.DailyHours, r.Goal,
		r.StartDate.Format(DateLayout), r.EndDate.Format(DateLayout),
	)
}

// ParseFormInt parses a slider value, returning fallback when it is not a number.
func ParseFormInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// ParseFormDate parses a YYYY-MM-DD value, returning fallback when it is
// empty or malformed.
func ParseFormDate(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return fallback
	}
	return t
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
