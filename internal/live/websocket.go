package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ashureev/orlo/internal/agent"
	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/identity"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/view"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 10 * time.Second

// Message types.
const (
	TypeMessage = "message"
	TypePlan    = "plan"
	TypePing    = "ping"
	TypePage    = "page"
	TypeError   = "error"
	TypePong    = "pong"
)

// Inbound is a client event.
type Inbound struct {
	Type    string            `json:"type"`
	Content string            `json:"content,omitempty"`
	Plan    *domain.PlanInput `json:"plan,omitempty"`
}

// Outbound is a server event. Page is sent after every event, including
// failed ones, so the client always shows the stored state.
type Outbound struct {
	Type  string     `json:"type"`
	Page  *view.Page `json:"page,omitempty"`
	Error string     `json:"error,omitempty"`
	Kind  string     `json:"kind,omitempty"`
}

// Handler upgrades /ws/chat requests and processes session events.
type Handler struct {
	ctrl           *session.Controller
	mgr            *Manager
	allowedOrigins []string
	isDev          bool
	readLimit      int64
}

// NewHandler creates a new WebSocket handler.
func NewHandler(ctrl *session.Controller, mgr *Manager, allowedOrigins []string, isDev bool, readLimit int64) *Handler {
	return &Handler{
		ctrl:           ctrl,
		mgr:            mgr,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
		readLimit:      readLimit,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("WebSocket connection request", "session_id", sessionID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()
	if h.readLimit > 0 {
		ws.SetReadLimit(h.readLimit)
	}

	h.mgr.Register(sessionID, ws)
	defer h.mgr.Unregister(sessionID, ws)

	ctx := r.Context()

	state, err := h.ctrl.Initialize(ctx, sessionID)
	if err != nil {
		slog.Error("Failed to initialize session", "error", err, "session_id", sessionID)
		_ = h.write(ctx, ws, Outbound{Type: TypeError, Error: "failed to load session", Kind: "internal"})
		return
	}
	if err := h.writePage(ctx, ws, state, view.Flash{}); err != nil {
		return
	}

	h.readLoop(ctx, ws, sessionID)
	slog.Info("Live session ended", "session_id", sessionID)
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, sessionID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket closed", "session_id", sessionID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "session_id", sessionID)
			}
			return
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := h.write(ctx, ws, Outbound{Type: TypeError, Error: "invalid message", Kind: "invalid"}); err != nil {
				return
			}
			continue
		}

		if err := h.dispatch(ctx, ws, sessionID, msg); err != nil {
			slog.Debug("WebSocket write failed", "error", err, "session_id", sessionID)
			return
		}
	}
}

// dispatch handles one event. It returns an error only when the
// connection can no longer be written to.
func (h *Handler) dispatch(ctx context.Context, ws *websocket.Conn, sessionID string, msg Inbound) error {
	switch msg.Type {
	case TypePing:
		return h.write(ctx, ws, Outbound{Type: TypePong})

	case TypeMessage:
		state, pair, err := h.ctrl.SubmitMessage(ctx, sessionID, msg.Content)
		if errors.Is(err, session.ErrEmptyMessage) {
			return h.write(ctx, ws, Outbound{Type: TypeError, Error: "message is required", Kind: "invalid"})
		}
		return h.reply(ctx, ws, state, view.Flash{FreshCount: len(pair)}, err)

	case TypePlan:
		var input domain.PlanInput
		if msg.Plan != nil {
			input = *msg.Plan
		}
		now := h.ctrl.Now()
		req := input.Request(now).Normalize(now)
		state, err := h.ctrl.SubmitPlan(ctx, sessionID, req)
		return h.reply(ctx, ws, state, view.Flash{Request: &req}, err)

	default:
		return h.write(ctx, ws, Outbound{Type: TypeError, Error: "unknown message type", Kind: "invalid"})
	}
}

func (h *Handler) reply(ctx context.Context, ws *websocket.Conn, state *domain.SessionState, flash view.Flash, err error) error {
	if state == nil {
		slog.Error("Failed to load session", "error", err)
		return h.write(ctx, ws, Outbound{Type: TypeError, Error: "failed to load session", Kind: "internal"})
	}
	if err != nil {
		notice := &view.Notice{Kind: string(agent.KindOf(err)), Message: agent.NoticeFor(err)}
		flash.Notice = notice
		if werr := h.write(ctx, ws, Outbound{Type: TypeError, Error: notice.Message, Kind: notice.Kind}); werr != nil {
			return werr
		}
	}
	return h.writePage(ctx, ws, state, flash)
}

func (h *Handler) writePage(ctx context.Context, ws *websocket.Conn, state *domain.SessionState, flash view.Flash) error {
	page := view.Render(state, flash, h.ctrl.Now())
	return h.write(ctx, ws, Outbound{Type: TypePage, Page: &page})
}

func (h *Handler) write(ctx context.Context, ws *websocket.Conn, msg Outbound) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, msg)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}
