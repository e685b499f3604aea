package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/identity"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/view"
)

// ChatPayload is a free-text chat message.
type ChatPayload struct {
	Message string `json:"message"`
}

// SessionResponse carries the rendered view of a session.
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	Page      view.Page        `json:"page"`
	Appended  []domain.Message `json:"appended,omitempty"`
}

// ErrorResponse is returned when an event fails. Page shows the unchanged
// session.
type ErrorResponse struct {
	Error string     `json:"error"`
	Kind  string     `json:"kind"`
	Page  *view.Page `json:"page,omitempty"`
}

// GetSession returns the session's view as JSON.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	state, err := h.ctrl.Initialize(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to initialize session", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusOK, SessionResponse{
		SessionID: sessionID,
		Page:      view.Render(state, view.Flash{}, h.ctrl.Now()),
	})
}

// PostPlan generates a study plan from a JSON payload.
func (h *Handler) PostPlan(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	var payload domain.PlanInput
	if !h.decode(w, r, &payload) {
		return
	}

	now := h.ctrl.Now()
	req := payload.Request(now).Normalize(now)

	state, err := h.ctrl.SubmitPlan(r.Context(), sessionID, req)
	if err != nil {
		h.writeFailure(w, sessionID, state, view.Flash{Request: &req}, err)
		return
	}

	JSON(w, http.StatusOK, SessionResponse{
		SessionID: sessionID,
		Page:      view.Render(state, view.Flash{Request: &req}, now),
	})
}

// PostChat sends one chat message and returns the appended pair.
func (h *Handler) PostChat(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	var payload ChatPayload
	if !h.decode(w, r, &payload) {
		return
	}

	state, pair, err := h.ctrl.SubmitMessage(r.Context(), sessionID, payload.Message)
	if errors.Is(err, session.ErrEmptyMessage) {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if err != nil {
		h.writeFailure(w, sessionID, state, view.Flash{}, err)
		return
	}

	JSON(w, http.StatusOK, SessionResponse{
		SessionID: sessionID,
		Page:      view.Render(state, view.Flash{FreshCount: len(pair)}, h.ctrl.Now()),
		Appended:  pair,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeFailure(w http.ResponseWriter, sessionID string, state *domain.SessionState, flash view.Flash, err error) {
	if state == nil {
		slog.Error("Failed to load session", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	notice := noticeFor(err)
	flash.Notice = notice
	page := view.Render(state, flash, h.ctrl.Now())
	JSON(w, statusFor(err), ErrorResponse{
		Error: notice.Message,
		Kind:  notice.Kind,
		Page:  &page,
	})
}
