package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var got string
	h := Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestMiddlewareMintsSessionCookie(t *testing.T) {
	got, rec := serve(t, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, IsValidSessionID(got))
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, got, c.Value)
	assert.Zero(t, c.MaxAge)
	assert.True(t, c.Expires.IsZero())
	assert.True(t, c.HttpOnly)
}

func TestMiddlewareReusesCookie(t *testing.T) {
	id := NewSessionID()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id})

	got, _ := serve(t, req)
	assert.Equal(t, id, got)
}

func TestMiddlewareReplacesInvalidCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "../../etc/passwd"})

	got, rec := serve(t, req)
	assert.NotEqual(t, "../../etc/passwd", got)
	assert.True(t, IsValidSessionID(got))
	require.NotNil(t, sessionCookie(rec))
}

func TestMiddlewarePrefersHeaderThenQuery(t *testing.T) {
	headerID, queryID, cookieID := NewSessionID(), NewSessionID(), NewSessionID()

	req := httptest.NewRequest(http.MethodGet, "/?session_id="+queryID, nil)
	req.Header.Set(SessionHeaderName, headerID)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookieID})
	got, rec := serve(t, req)
	assert.Equal(t, headerID, got)
	assert.Nil(t, sessionCookie(rec))

	req = httptest.NewRequest(http.MethodGet, "/?session_id="+queryID, nil)
	got, _ = serve(t, req)
	assert.Equal(t, queryID, got)
}

func TestIsValidSessionID(t *testing.T) {
	assert.True(t, IsValidSessionID("0b7c3c52-4d4e-4f39-9a51-0d5f0c0f6a11"))
	assert.False(t, IsValidSessionID(""))
	assert.False(t, IsValidSessionID("default"))
	assert.False(t, IsValidSessionID("{0b7c3c52-4d4e-4f39-9a51-0d5f0c0f6a11}"))
}

func TestSessionIDFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, SessionIDFromContext(req.Context()))
}
