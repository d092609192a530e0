package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/session"
)

// stageClient serves a full pipeline run by recognizing each stage's
// prompt.
type stageClient struct {
	classifyAll bool
}

func (c *stageClient) respond(prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "expert scholarship reviewer"):
		return `{
			"primary_values": ["Leadership", "Academics", "Community", "Innovation", "Resilience"],
			"weights": {"Leadership": 0.3, "Academics": 0.25, "Community": 0.2, "Innovation": 0.15, "Resilience": 0.1},
			"tone": "earnest",
			"fallback_query": "Tell us about a hard moment."
		}`, nil
	case strings.Contains(prompt, "classifying resume bullets"):
		if c.classifyAll {
			return `{"associations": [
				{"bullet_id": "b1", "categories": ["Leadership", "Resilience"]},
				{"bullet_id": "b2", "categories": ["Academics", "Community"]},
				{"bullet_id": "b3", "categories": ["Innovation"]}
			]}`, nil
		}
		return `{"associations": [
			{"bullet_id": "b1", "categories": ["Leadership"]},
			{"bullet_id": "b2", "categories": ["Academics", "Community"]},
			{"bullet_id": "b3", "categories": ["Innovation"]}
		]}`, nil
	case strings.Contains(prompt, "surface an experience"):
		return "When did you last push through a setback?", nil
	case strings.Contains(prompt, "rewriting resume bullets"):
		return `{"bullets": [
			{"original": "a", "optimized": "rewrite one", "rationale": "r"},
			{"original": "b", "optimized": "rewrite two", "rationale": "r"},
			{"original": "c", "optimized": "rewrite three", "rationale": "r"}
		]}`, nil
	case strings.Contains(prompt, "ghostwriting a scholarship essay"):
		return `{"text": "An essay of six words here.", "strategy_note": "note"}`, nil
	case strings.Contains(prompt, "short, polite email"):
		return `{"subject": "A question", "body": "Dear committee, ..."}`, nil
	}
	return "", fmt.Errorf("unrecognized prompt")
}

func (c *stageClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	return c.respond(prompt)
}

func (c *stageClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	return c.respond(prompt)
}

func (c *stageClient) Close() error { return nil }

func newTestServer(jwtSecret string, client llm.Client) (*Server, *session.MemoryStore) {
	store := session.NewMemoryStore()
	opts := session.DefaultOptions()
	opts.MaxRetries = 1
	opts.RetryBackoff = 1
	orch := session.NewOrchestrator(store, client, opts, nil)
	return New(Config{Port: 0, JWTSecret: jwtSecret}, orch, store, nil), store
}

func createBody(resumeSessionID string) map[string]any {
	return map[string]any{
		"resume_session_id": resumeSessionID,
		"scholarship_url":   "https://example.org/acme",
		"scholarship_text":  "The Acme Scholarship rewards students.",
		"scholarship_name":  "Acme Scholarship",
		"organization":      "Acme Foundation",
		"word_limit":        650,
		"resume_digest": map[string]any{
			"version":        1,
			"resume_summary": "Robotics captain",
			"bullets": []map[string]any{
				{"id": "b1", "text": "Captained the robotics team"},
				{"id": "b2", "text": "Tutored weekly"},
				{"id": "b3", "text": "Built a library app"},
			},
		},
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateSessionParksAtInterview(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{})
	handler := srv.Handler()

	rec := doJSON(t, handler, "POST", "/sessions", createBody("r1"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeSession(t, rec)
	assert.Equal(t, session.StageInterviewing, resp.Stage)
	assert.Equal(t, session.StatusInProgress, resp.Status)
	assert.NotEmpty(t, resp.InterviewQuestion)
	assert.Nil(t, resp.Essay)
	require.NotNil(t, resp.GapReport)
	require.NotNil(t, resp.GapReport.TargetGap)
	assert.Equal(t, "Resilience", *resp.GapReport.TargetGap)
}

func TestInterviewAnswerCompletesSession(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{})
	handler := srv.Handler()

	created := decodeSession(t, doJSON(t, handler, "POST", "/sessions", createBody("r1"), ""))

	rec := doJSON(t, handler, "POST", "/sessions/"+created.SessionID.String()+"/interview-answer",
		map[string]string{"answer": "I rebuilt our robot overnight."}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeSession(t, rec)
	assert.Equal(t, session.StatusCompleted, resp.Status)
	assert.True(t, resp.HadInterview)
	require.NotNil(t, resp.Essay)
	assert.Equal(t, 6, resp.Essay.WordCount)
}

func TestCreateSessionSkipsInterview(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{classifyAll: true})
	handler := srv.Handler()

	rec := doJSON(t, handler, "POST", "/sessions", createBody("r1"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeSession(t, rec)
	assert.Equal(t, session.StatusCompleted, resp.Status)
	assert.False(t, resp.HadInterview)
	assert.Empty(t, resp.InterviewQuestion)
	require.NotNil(t, resp.Essay)
}

func TestCreateSessionValidation(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{})
	handler := srv.Handler()

	body := createBody("r1")
	delete(body, "resume_digest")
	rec := doJSON(t, handler, "POST", "/sessions", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = createBody("r1")
	delete(body, "scholarship_text")
	delete(body, "scholarship_url")
	rec = doJSON(t, handler, "POST", "/sessions", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, "GET", "/sessions/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionNotFound(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{})
	rec := doJSON(t, srv.Handler(), "GET", "/sessions/6dd9a382-3c5e-4f60-9a0e-60cf2f2a9d1f", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelSession(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{})
	handler := srv.Handler()

	created := decodeSession(t, doJSON(t, handler, "POST", "/sessions", createBody("r1"), ""))
	path := "/sessions/" + created.SessionID.String() + "/cancel"

	rec := doJSON(t, handler, "POST", path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.StatusCancelled, decodeSession(t, rec).Status)

	rec = doJSON(t, handler, "POST", path, nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOutreachAfterCompletion(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{classifyAll: true})
	handler := srv.Handler()

	created := decodeSession(t, doJSON(t, handler, "POST", "/sessions", createBody("r1"), ""))
	require.Equal(t, session.StatusCompleted, created.Status)

	rec := doJSON(t, handler, "POST", "/sessions/"+created.SessionID.String()+"/outreach",
		map[string]any{"ambiguities": []string{"Is the deadline firm?"}}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeSession(t, rec)
	require.NotNil(t, resp.Outreach)
	assert.Equal(t, "A question", resp.Outreach.Subject)
}

func TestHistory(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{classifyAll: true})
	handler := srv.Handler()

	doJSON(t, handler, "POST", "/sessions", createBody("r1"), "")
	doJSON(t, handler, "POST", "/sessions", createBody("r1"), "")

	rec := doJSON(t, handler, "GET", "/history/r1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Sessions []session.Summary `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Sessions, 2)
	assert.InDelta(t, 1.0, out.Sessions[0].MatchScore, 0.0001)
	assert.False(t, out.Sessions[0].HadInterview)

	rec = doJSON(t, handler, "GET", "/history/unknown", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Empty(t, out.Sessions)
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer("secret", &stageClient{})
	handler := srv.Handler()

	rec := doJSON(t, handler, "POST", "/sessions", createBody("r1"), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOwnershipEnforced(t *testing.T) {
	srv, _ := newTestServer("secret", &stageClient{})
	handler := srv.Handler()

	jwtSvc := NewJWTService("secret", 1)
	tokenA, err := jwtSvc.GenerateToken("student-a")
	require.NoError(t, err)
	tokenB, err := jwtSvc.GenerateToken("student-b")
	require.NoError(t, err)

	rec := doJSON(t, handler, "POST", "/sessions", createBody("r1"), tokenA)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeSession(t, rec)

	rec = doJSON(t, handler, "GET", "/sessions/"+created.SessionID.String(), nil, tokenA)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, "GET", "/sessions/"+created.SessionID.String(), nil, tokenB)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer("", &stageClient{})
	rec := doJSON(t, srv.Handler(), "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
