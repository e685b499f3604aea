package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashureev/orlo/internal/agent"
	"github.com/ashureev/orlo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetSessionJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeSession(t, rec)
	assert.Equal(t, testSessionID, resp.SessionID)
	assert.Nil(t, resp.Page.Plan)
	assert.Empty(t, resp.Page.Transcript)
	assert.Equal(t, 30, resp.Page.Form.DaysUntilTest.Value)
}

func TestPostPlanJSON(t *testing.T) {
	s := newTestServer(t)
	s.gen.fn = func(string) (string, error) { return "the plan", nil }

	rec := s.postJSON("/api/plan", `{"days_until_test":10,"subject":"Science","daily_hours":4,"goal":"learn cells","start_date":"2026-10-16","end_date":"2026-10-26"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeSession(t, rec)
	require.NotNil(t, resp.Page.Plan)
	assert.Equal(t, "the plan", resp.Page.Plan.Body)
	assert.Equal(t, "Science", resp.Page.Form.Subject.Value)
	assert.Contains(t, s.gen.prompts[0], "from 2026-10-16 to 2026-10-26")
}

func TestPostChatJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeSession(t, rec)
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "reply: hi"},
	}, resp.Appended)
	assert.Len(t, resp.Page.Transcript, 2)
}

func TestPostChatJSONRejectsEmptyMessage(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/api/chat", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.gen.prompts)
}

func TestPostChatJSONFailureReportsKind(t *testing.T) {
	s := newTestServer(t)
	s.gen.fail(agent.KindAuth)

	rec := s.postJSON("/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "auth", resp.Kind)
	assert.NotEmpty(t, resp.Error)
	require.NotNil(t, resp.Page)
	assert.Empty(t, resp.Page.Transcript)
}

func TestPostJSONRejectsBadBodies(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/api/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.postJSON("/api/chat", `{"message":"`+strings.Repeat("x", 2048)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
