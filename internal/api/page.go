package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/identity"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/view"
)

// GetPage renders the current session.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	state, err := h.ctrl.Initialize(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to initialize session", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	h.renderPage(w, http.StatusOK, state, view.Flash{})
}

// PostPlanForm handles the sidebar form submit.
func (h *Handler) PostPlanForm(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	now := h.ctrl.Now()
	req := planFromForm(r, now).Normalize(now)

	state, err := h.ctrl.SubmitPlan(r.Context(), sessionID, req)
	if state == nil {
		slog.Error("Failed to load session", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	flash := view.Flash{Request: &req}
	status := http.StatusOK
	if err != nil {
		flash.Notice = noticeFor(err)
		status = statusFor(err)
	}
	h.renderPage(w, status, state, flash)
}

// PostChatForm handles the free-text chat input.
func (h *Handler) PostChatForm(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	state, pair, err := h.ctrl.SubmitMessage(r.Context(), sessionID, r.PostFormValue("message"))
	if state == nil {
		slog.Error("Failed to load session", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	flash := view.Flash{FreshCount: len(pair)}
	status := http.StatusOK
	if err != nil && !errors.Is(err, session.ErrEmptyMessage) {
		flash.Notice = noticeFor(err)
		status = statusFor(err)
	}
	h.renderPage(w, status, state, flash)
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, state *domain.SessionState, flash view.Flash) {
	page := view.Render(state, flash, h.ctrl.Now())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, page); err != nil {
		slog.Error("Failed to render page", "error", err, "session_id", state.ID)
	}
}

// planFromForm reads the sidebar fields. Missing or malformed values fall
// back to the form defaults.
func planFromForm(r *http.Request, now time.Time) domain.StudyPlanRequest {
	def := domain.DefaultStudyPlanRequest(now)
	req := domain.StudyPlanRequest{
		DaysUntilTest: domain.ParseFormInt(r.PostFormValue("days_until_test"), def.DaysUntilTest),
		Subject:       def.Subject,
		DailyHours:    domain.ParseFormInt(r.PostFormValue("daily_hours"), def.DailyHours),
		Goal:          def.Goal,
		StartDate:     domain.ParseFormDate(r.PostFormValue("start_date"), def.StartDate),
		EndDate:       domain.ParseFormDate(r.PostFormValue("end_date"), def.EndDate),
	}
	if subj, ok := domain.ParseSubject(r.PostFormValue("subject")); ok {
		req.Subject = subj
	}
	if _, ok := r.PostForm["goal"]; ok {
		req.Goal = r.PostFormValue("goal")
	}
	return req
}
