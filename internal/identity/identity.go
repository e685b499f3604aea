// Package identity assigns every browser or API client its session ID.
package identity

import (
	"context"
	"net"
	"net/http"

	"github.com/google/uuid"
)

const (
	// SessionCookieName holds the browser session ID. It carries no Max-Age,
	// so it ends when the browser session ends.
	SessionCookieName = "orlo_session"
	// SessionHeaderName lets API and WebSocket clients pick their session.
	SessionHeaderName = "X-Orlo-Session-ID"
	// SessionQueryParam is the query fallback for clients that cannot set headers.
	SessionQueryParam = "session_id"
)

type contextKey int

const sessionIDKey contextKey = iota

// SessionIDFromContext extracts the session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID returns a context carrying sessionID.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// IsValidSessionID reports whether id is a canonical UUID.
func IsValidSessionID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

// sessionIDFromRequest returns the explicit ID if valid, then the cookie.
// explicit reports whether the ID came from the header or query.
func sessionIDFromRequest(r *http.Request) (id string, explicit bool) {
	sid := r.Header.Get(SessionHeaderName)
	if sid == "" {
		sid = r.URL.Query().Get(SessionQueryParam)
	}
	if IsValidSessionID(sid) {
		return sid, true
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && IsValidSessionID(c.Value) {
		return c.Value, false
	}
	return "", false
}

// Middleware attaches a session ID to every request, minting one when the
// client has none. secure controls the cookie's Secure flag.
func Middleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, explicit := sessionIDFromRequest(r)
			if sessionID == "" {
				sessionID = NewSessionID()
			}
			if !explicit {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   secure,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
