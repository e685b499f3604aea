// Package api provides the HTTP handlers for the Orlo page and JSON API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/orlo/internal/agent"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/store"
	"github.com/ashureev/orlo/internal/ui"
	"github.com/ashureev/orlo/internal/view"
	"github.com/go-chi/chi/v5"
)

// Handler serves the page and JSON endpoints for one controller.
type Handler struct {
	ctrl     *session.Controller
	renderer *ui.Renderer
	maxBody  int64
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(ctrl *session.Controller, renderer *ui.Renderer, maxBody int64) *Handler {
	return &Handler{
		ctrl:     ctrl,
		renderer: renderer,
		maxBody:  maxBody,
	}
}

// RegisterRoutes registers page and API routes. Identity middleware must
// run before these handlers.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.GetPage)
	r.Post("/plan", h.PostPlanForm)
	r.Post("/chat", h.PostChatForm)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Post("/plan", h.PostPlan)
		r.Post("/chat", h.PostChat)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusFor maps a controller error to an HTTP status.
func statusFor(err error) int {
	var svcErr *agent.ServiceError
	switch {
	case errors.As(err, &svcErr):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// noticeFor builds the visible failure message for err.
func noticeFor(err error) *view.Notice {
	if errors.Is(err, store.ErrVersionConflict) {
		return &view.Notice{
			Kind:    "conflict",
			Message: "Your session changed while this request was running. Please try again.",
		}
	}
	return &view.Notice{Kind: string(agent.KindOf(err)), Message: agent.NoticeFor(err)}
}
