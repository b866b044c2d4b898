package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/negotium-labs/negotium/internal/agents"
	"github.com/negotium-labs/negotium/internal/domain"
	"github.com/negotium-labs/negotium/internal/engine"
	"github.com/negotium-labs/negotium/internal/live"
	"github.com/negotium-labs/negotium/internal/store"
)

// ErrSessionNotFound is returned for operations against an unknown or
// already-ended session id. Ended sessions leave the registry, so both cases
// surface identically to the caller.
var ErrSessionNotFound = errors.New("session not found")

// TurnResult is the caller-visible outcome of one processed user message.
type TurnResult struct {
	SessionID        string       `json:"session_id"`
	OpponentResponse string       `json:"opponent_response"`
	CoachingTip      string       `json:"coaching_tip,omitempty"`
	Mood             domain.Mood  `json:"opponent_mood"`
	Patience         int          `json:"opponent_patience"`
	Leverage         int          `json:"current_leverage"`
	TurnNumber       int          `json:"turn_number"`
	Stage            domain.Stage `json:"conversation_stage"`
}

// Orchestrator sequences the scoring engines for each incoming message and
// owns all session mutation. Updates to a single session are serialized with
// a per-session lock; distinct sessions proceed independently.
type Orchestrator struct {
	registry Registry
	repo     store.Repository
	agents   *agents.Suite
	variance engine.Variance
	hub      *live.Hub

	locks sync.Map // sessionID -> *sync.Mutex
}

// NewOrchestrator creates an orchestrator. The hub may be nil when no live
// feed is wired.
func NewOrchestrator(registry Registry, repo store.Repository, suite *agents.Suite, variance engine.Variance, hub *live.Hub) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		repo:     repo,
		agents:   suite,
		variance: variance,
		hub:      hub,
	}
}

func (o *Orchestrator) lockFor(sessionID string) *sync.Mutex {
	lock, _ := o.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func newSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Create designs a new scenario and registers the session. The scenario
// designer falls back to a stock persona when the provider is unavailable,
// so creation itself only fails on a persistence error.
func (o *Orchestrator) Create(ctx context.Context, userID, scenarioType, difficulty string) (*domain.Session, error) {
	scenarioType = strings.ToLower(strings.TrimSpace(scenarioType))
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))

	design := o.agents.DesignScenario(ctx, scenarioType, difficulty)
	now := time.Now()

	sess := &domain.Session{
		SessionID:          newSessionID(),
		UserID:             userID,
		ScenarioType:       scenarioType,
		Difficulty:         difficulty,
		Personality:        design.Personality,
		Constraints:        design.Constraints,
		BATNA:              design.BATNA,
		Mood:               domain.MoodCurious,
		Patience:           domain.InitialPatience(difficulty),
		Leverage:           domain.InitialLeverage,
		TurnNumber:         0,
		Stage:              domain.StageOpening,
		History:            []domain.Message{{Role: domain.RoleAssistant, Content: design.Opening}},
		LeverageTrajectory: []int{domain.InitialLeverage},
		MoodTrajectory:     []domain.Mood{domain.MoodCurious},
		CreatedAt:          now,
		LastActivity:       now,
	}

	record := &domain.SessionRecord{
		SessionID:    sess.SessionID,
		UserID:       userID,
		ScenarioType: scenarioType,
		Difficulty:   difficulty,
		Personality:  sess.Personality,
		Constraints:  sess.Constraints,
		BATNA:        sess.BATNA,
		Status:       domain.SessionActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := o.repo.CreateSession(ctx, record); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	o.registry.Put(sess)
	slog.Info("Session created",
		"session_id", sess.SessionID,
		"user_id", userID,
		"scenario_type", scenarioType,
		"difficulty", difficulty,
		"patience", sess.Patience)
	return sess, nil
}

// Message processes one user message: extract signals, update patience, mood,
// leverage, and stage, obtain the opponent reply, then commit everything
// atomically. A provider or persistence failure leaves the session unmutated.
func (o *Orchestrator) Message(ctx context.Context, sessionID, content string) (*TurnResult, error) {
	mu := o.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, ok := o.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sig := engine.Extract(content)
	newPatience := engine.NextPatience(sess.Patience, sig)
	newMood := engine.MoodFor(newPatience)
	newLeverage := engine.NextLeverage(sess.Leverage, sig, o.variance)

	stage := domain.StageClosing
	if newPatience > 30 {
		stage = domain.StageMiddle
	}

	reply, err := o.agents.OpponentReply(ctx, sess, content, newMood, newPatience)
	if err != nil {
		return nil, fmt.Errorf("opponent reply: %w", err)
	}

	// The coaching tip is best-effort; a failed tip never fails the turn.
	tip, err := o.agents.CoachTip(ctx, content, newLeverage, newMood, newPatience)
	if err != nil {
		slog.Warn("Coach tip generation failed", "error", err, "session_id", sessionID)
		tip = ""
	}

	now := time.Now()
	turn := &domain.TurnRecord{
		SessionID:        sessionID,
		TurnNumber:       sess.TurnNumber + 1,
		UserMessage:      content,
		OpponentResponse: reply,
		Mood:             newMood,
		Patience:         newPatience,
		Leverage:         newLeverage,
		Stage:            stage,
		CreatedAt:        now,
	}
	if err := o.repo.InsertTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("persist turn: %w", err)
	}

	// Commit. Nothing above mutated the session, so a failure on any earlier
	// step left it exactly as it was.
	sess.History = append(sess.History,
		domain.Message{Role: domain.RoleUser, Content: content},
		domain.Message{Role: domain.RoleAssistant, Content: reply},
	)
	sess.Patience = newPatience
	sess.Mood = newMood
	sess.Leverage = newLeverage
	sess.Stage = stage
	sess.TurnNumber++
	sess.LeverageTrajectory = append(sess.LeverageTrajectory, newLeverage)
	sess.MoodTrajectory = append(sess.MoodTrajectory, newMood)
	sess.LastActivity = now
	o.registry.Put(sess)

	if o.hub != nil {
		o.hub.Publish(live.TurnEvent{
			SessionID:  sessionID,
			TurnNumber: sess.TurnNumber,
			Mood:       newMood,
			Patience:   newPatience,
			Leverage:   newLeverage,
			Stage:      stage,
		})
	}

	return &TurnResult{
		SessionID:        sessionID,
		OpponentResponse: reply,
		CoachingTip:      tip,
		Mood:             newMood,
		Patience:         newPatience,
		Leverage:         newLeverage,
		TurnNumber:       sess.TurnNumber,
		Stage:            stage,
	}, nil
}

// End freezes the session, classifies the outcome, runs the analyst, and
// persists the analysis. The session leaves the registry and accepts no
// further mutation.
func (o *Orchestrator) End(ctx context.Context, sessionID string) (*domain.Analysis, error) {
	mu := o.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, ok := o.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	outcome := domain.ClassifyOutcome(sess.Leverage, sess.Patience)
	analysis := o.agents.Analyze(ctx, sess, outcome)
	analysis.LeverageTrajectory = sess.LeverageTrajectory
	analysis.MoodTrajectory = sess.MoodTrajectory

	now := time.Now()
	if err := o.repo.InsertAnalysis(ctx, &domain.AnalysisRecord{
		SessionID:   sessionID,
		Feedback:    analysis,
		GeneratedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}
	if err := o.repo.SetSessionStatus(ctx, sessionID, domain.SessionCompleted, now); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	sess.Stage = domain.StageEnded
	o.registry.Remove(sessionID)
	o.locks.Delete(sessionID)
	if o.hub != nil {
		o.hub.CloseSession(sessionID)
	}

	slog.Info("Session ended",
		"session_id", sessionID,
		"turns", sess.TurnNumber,
		"outcome", outcome,
		"final_leverage", sess.Leverage,
		"final_patience", sess.Patience)
	return &analysis, nil
}
