package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/negotium-labs/negotium/internal/domain"
	"github.com/negotium-labs/negotium/internal/identity"
	"github.com/negotium-labs/negotium/internal/provider"
	"github.com/negotium-labs/negotium/internal/session"
)

// SessionHandler handles negotiation session endpoints.
type SessionHandler struct {
	*Handler
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *Handler) *SessionHandler {
	return &SessionHandler{Handler: base}
}

// RegisterRoutes registers the session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/config", h.GetConfig)
		r.Get("/me/sessions", h.ListMySessions)
		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/message", h.PostMessage)
			r.Post("/end", h.EndSession)
			r.Get("/turns", h.ListTurns)
			r.Get("/analysis", h.GetAnalysis)
		})
	})
}

// GetMe returns the current user's information.
func (h *SessionHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  user.UserID,
		"username": user.Username,
	})
}

// GetConfig returns the server configuration for the frontend.
func (h *SessionHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"ai_enabled": h.aiEnabled,
	})
}

type createSessionRequest struct {
	ScenarioType string `json:"scenario_type"`
	Difficulty   string `json:"difficulty"`
}

type createSessionResponse struct {
	SessionID        string      `json:"session_id"`
	ScenarioType     string      `json:"scenario_type"`
	Difficulty       string      `json:"difficulty"`
	OpponentOpening  string      `json:"opponent_opening"`
	OpponentMood     domain.Mood `json:"opponent_mood"`
	OpponentPatience int         `json:"opponent_patience"`
	InitialLeverage  int         `json:"initial_leverage"`
}

// CreateSession starts a new negotiation session for the current user.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ScenarioType == "" {
		req.ScenarioType = "salary"
	}
	if req.Difficulty == "" {
		req.Difficulty = "intermediate"
	}

	sess, err := h.orch.Create(r.Context(), userID, req.ScenarioType, req.Difficulty)
	if err != nil {
		slog.Error("Failed to create session", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	JSON(w, http.StatusOK, createSessionResponse{
		SessionID:        sess.SessionID,
		ScenarioType:     sess.ScenarioType,
		Difficulty:       sess.Difficulty,
		OpponentOpening:  sess.History[0].Content,
		OpponentMood:     sess.Mood,
		OpponentPatience: sess.Patience,
		InitialLeverage:  sess.Leverage,
	})
}

type messageRequest struct {
	Message string `json:"message"`
}

// PostMessage processes one user message in an active session.
func (h *SessionHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		Error(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	result, err := h.orch.Message(r.Context(), sessionID, req.Message)
	if err != nil {
		h.writeSessionError(w, sessionID, err)
		return
	}

	JSON(w, http.StatusOK, result)
}

// EndSession finalizes a session and returns the coaching analysis.
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	analysis, err := h.orch.End(r.Context(), sessionID)
	if err != nil {
		h.writeSessionError(w, sessionID, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"feedback":   analysis,
	})
}

// GetSession returns the persisted session record.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, err := h.repo.GetSession(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to get session", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if record == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	JSON(w, http.StatusOK, record)
}

// ListTurns returns a session's turn history in turn order.
func (h *SessionHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, err := h.repo.GetSession(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to get session", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if record == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	turns, err := h.repo.ListTurns(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to list turns", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to list turns")
		return
	}
	if turns == nil {
		turns = []*domain.TurnRecord{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"turns":      turns,
	})
}

// GetAnalysis returns the end-of-session analysis for a completed session.
func (h *SessionHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, err := h.repo.GetAnalysis(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to get analysis", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}
	if record == nil {
		Error(w, http.StatusNotFound, "analysis not found")
		return
	}

	JSON(w, http.StatusOK, record)
}

// ListMySessions returns the current user's sessions, newest first.
func (h *SessionHandler) ListMySessions(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	records, err := h.repo.ListUserSessions(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list sessions", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if records == nil {
		records = []*domain.SessionRecord{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"sessions": records,
	})
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.Is(err, provider.ErrUnavailable):
		Error(w, http.StatusServiceUnavailable, "ai_unavailable")
	default:
		slog.Error("Session operation failed", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
