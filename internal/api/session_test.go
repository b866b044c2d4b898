package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/negotium-labs/negotium/internal/agents"
	"github.com/negotium-labs/negotium/internal/domain"
	"github.com/negotium-labs/negotium/internal/identity"
	"github.com/negotium-labs/negotium/internal/provider"
	"github.com/negotium-labs/negotium/internal/session"
	"github.com/negotium-labs/negotium/internal/store"
)

type scriptedGen struct {
	mu        sync.Mutex
	responses []string
}

func (g *scriptedGen) Generate(_ context.Context, _, _ string, _ float32) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	r := g.responses[0]
	g.responses = g.responses[1:]
	return r, nil
}

type fixedVariance struct{}

func (fixedVariance) IntN(int) int { return 0 }

func newTestServer(t *testing.T, gen agents.Generator, aiEnabled bool) (*httptest.Server, *http.Client) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})

	suite := agents.NewSuite(gen, "test-model", "test-coach-model")
	orch := session.NewOrchestrator(session.NewMemoryRegistry(), repo, suite, fixedVariance{}, nil)

	base := NewHandler(repo, orch, aiEnabled)
	sessionHandler := NewSessionHandler(base)

	r := chi.NewRouter()
	r.Use(identity.Middleware(repo, true))
	sessionHandler.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	return srv, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("Failed to close response body: %v", err)
		}
	}()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		"not json",               // designer falls back to stock persona
		"Our budget is limited.", // opponent reply
		"Ask about constraints.", // coach tip
		// Analyst falls back to stock feedback.
	}}
	srv, client := newTestServer(t, gen, true)

	// Create.
	resp := postJSON(t, client, srv.URL+"/api/sessions", map[string]string{
		"scenario_type": "salary",
		"difficulty":    "beginner",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Create: expected 200, got %d", resp.StatusCode)
	}
	var created createSessionResponse
	decodeJSON(t, resp, &created)
	if created.SessionID == "" {
		t.Fatal("Expected session_id")
	}
	if created.OpponentPatience != 80 || created.InitialLeverage != 50 {
		t.Errorf("Expected patience 80 / leverage 50, got %d / %d",
			created.OpponentPatience, created.InitialLeverage)
	}
	if created.OpponentOpening == "" {
		t.Error("Expected opponent opening")
	}

	// Message.
	resp = postJSON(t, client, srv.URL+"/api/sessions/"+created.SessionID+"/message", map[string]string{
		"message": "What is your budget for this role?",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Message: expected 200, got %d", resp.StatusCode)
	}
	var turn session.TurnResult
	decodeJSON(t, resp, &turn)
	if turn.Patience != 83 || turn.Leverage != 50 {
		t.Errorf("Expected patience 83 / leverage 50, got %d / %d", turn.Patience, turn.Leverage)
	}
	if turn.OpponentResponse != "Our budget is limited." {
		t.Errorf("Unexpected opponent response: %q", turn.OpponentResponse)
	}

	// Turn history.
	resp, err := client.Get(srv.URL + "/api/sessions/" + created.SessionID + "/turns")
	if err != nil {
		t.Fatalf("GET turns failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Turns: expected 200, got %d", resp.StatusCode)
	}
	var turnsBody struct {
		Turns []domain.TurnRecord `json:"turns"`
	}
	decodeJSON(t, resp, &turnsBody)
	if len(turnsBody.Turns) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(turnsBody.Turns))
	}

	// End.
	resp = postJSON(t, client, srv.URL+"/api/sessions/"+created.SessionID+"/end", map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("End: expected 200, got %d", resp.StatusCode)
	}
	var endBody struct {
		SessionID string          `json:"session_id"`
		Feedback  domain.Analysis `json:"feedback"`
	}
	decodeJSON(t, resp, &endBody)
	if endBody.Feedback.Outcome != domain.OutcomePartialSuccess {
		t.Errorf("Expected partial_success, got %s", endBody.Feedback.Outcome)
	}

	// Analysis is retrievable afterwards.
	resp, err = client.Get(srv.URL + "/api/sessions/" + created.SessionID + "/analysis")
	if err != nil {
		t.Fatalf("GET analysis failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Analysis: expected 200, got %d", resp.StatusCode)
	}
	var analysisRecord domain.AnalysisRecord
	decodeJSON(t, resp, &analysisRecord)
	if analysisRecord.Feedback.Outcome != domain.OutcomePartialSuccess {
		t.Errorf("Persisted outcome mismatch: %s", analysisRecord.Feedback.Outcome)
	}

	// Further messages hit an ended session.
	resp = postJSON(t, client, srv.URL+"/api/sessions/"+created.SessionID+"/message", map[string]string{
		"message": "one more",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Message after end: expected 404, got %d", resp.StatusCode)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("Failed to close response body: %v", err)
	}

	// The session shows up in the user's history.
	resp, err = client.Get(srv.URL + "/api/me/sessions")
	if err != nil {
		t.Fatalf("GET sessions failed: %v", err)
	}
	var listBody struct {
		Sessions []domain.SessionRecord `json:"sessions"`
	}
	decodeJSON(t, resp, &listBody)
	if len(listBody.Sessions) != 1 || listBody.Sessions[0].Status != domain.SessionCompleted {
		t.Errorf("Expected one completed session, got %+v", listBody.Sessions)
	}
}

func TestMessageUnknownSessionReturns404(t *testing.T) {
	srv, client := newTestServer(t, &scriptedGen{}, true)

	resp := postJSON(t, client, srv.URL+"/api/sessions/sess_missing/message", map[string]string{
		"message": "hello",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("Failed to close response body: %v", err)
	}
}

func TestMessageWithoutProviderReturns503(t *testing.T) {
	srv, client := newTestServer(t, provider.Disabled{}, false)

	resp := postJSON(t, client, srv.URL+"/api/sessions", map[string]string{
		"scenario_type": "salary",
		"difficulty":    "beginner",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Create: expected 200 with stock persona, got %d", resp.StatusCode)
	}
	var created createSessionResponse
	decodeJSON(t, resp, &created)

	resp = postJSON(t, client, srv.URL+"/api/sessions/"+created.SessionID+"/message", map[string]string{
		"message": "hello",
	})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}
	var errBody map[string]string
	decodeJSON(t, resp, &errBody)
	if errBody["error"] != "ai_unavailable" {
		t.Errorf("Expected ai_unavailable, got %q", errBody["error"])
	}
}

func TestGetConfig(t *testing.T) {
	srv, client := newTestServer(t, &scriptedGen{}, false)

	resp, err := client.Get(srv.URL + "/api/config")
	if err != nil {
		t.Fatalf("GET config failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]bool
	decodeJSON(t, resp, &body)
	if body["ai_enabled"] {
		t.Error("Expected ai_enabled false")
	}
}

func TestGetMe(t *testing.T) {
	srv, client := newTestServer(t, &scriptedGen{}, true)

	resp, err := client.Get(srv.URL + "/api/me")
	if err != nil {
		t.Fatalf("GET me failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["user_id"] == "" || body["username"] == "" {
		t.Errorf("Expected identity fields, got %v", body)
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	srv, client := newTestServer(t, &scriptedGen{}, true)

	resp := postJSON(t, client, srv.URL+"/api/sessions/sess_x/message", map[string]string{
		"message": "",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("Failed to close response body: %v", err)
	}
}
