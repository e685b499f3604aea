package domain

import "time"

// PlanInput is the wire form of the sidebar inputs used by the JSON and
// WebSocket surfaces. Dates use YYYY-MM-DD. Absent fields take the form
// defaults.
type PlanInput struct {
	DaysUntilTest *int    `json:"days_until_test,omitempty"`
	Subject       string  `json:"subject,omitempty"`
	DailyHours    *int    `json:"daily_hours,omitempty"`
	Goal          *string `json:"goal,omitempty"`
	StartDate     string  `json:"start_date,omitempty"`
	EndDate       string  `json:"end_date,omitempty"`
}

// Request converts the input, falling back to form defaults for anything
// missing or malformed. The result is not normalized.
func (p PlanInput) Request(today time.Time) StudyPlanRequest {
	req := DefaultStudyPlanRequest(today)
	if p.DaysUntilTest != nil {
		req.DaysUntilTest = *p.DaysUntilTest
	}
	if subj, ok := ParseSubject(p.Subject); ok {
		req.Subject = subj
	}
	if p.DailyHours != nil {
		req.DailyHours = *p.DailyHours
	}
	if p.Goal != nil {
		req.Goal = *p.Goal
	}
	req.StartDate = ParseFormDate(p.StartDate, req.StartDate)
	req.EndDate = ParseFormDate(p.EndDate, req.EndDate)
	return req
}
