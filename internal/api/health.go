package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/orlo/internal/store"
	"github.com/go-chi/chi/v5"
)

// HealthHandler reports whether the session store is reachable.
type HealthHandler struct {
	repo    store.Repository
	backend string
	model   string
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(repo store.Repository, backend, model string) *HealthHandler {
	return &HealthHandler{repo: repo, backend: backend, model: model}
}

// RegisterHealth registers GET /health.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}

// Health pings the store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"store":  h.backend,
			"error":  "store unreachable",
		})
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  h.backend,
		"model":  h.model,
	})
}
