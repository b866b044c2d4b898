package domain

import "time"

// Outcome classifies a finished negotiation from its final scalars.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeFailure        Outcome = "failure"
)

// ClassifyOutcome derives the session outcome from final leverage and patience.
// The thresholds are deterministic so the analysis collaborator can never
// override them with a hallucinated verdict.
func ClassifyOutcome(leverage, patience int) Outcome {
	switch {
	case leverage >= 70 && patience >= 40:
		return OutcomeSuccess
	case leverage >= 50 || patience >= 30:
		return OutcomePartialSuccess
	default:
		return OutcomeFailure
	}
}

// AnalysisPoint is one titled observation in the end-of-session feedback.
type AnalysisPoint struct {
	Point       string `json:"point"`
	Explanation string `json:"explanation"`
}

// Analysis is the structured end-of-session coaching feedback.
type Analysis struct {
	Summary            string          `json:"summary"`
	Outcome            Outcome         `json:"outcome"`
	Strengths          []AnalysisPoint `json:"strengths"`
	Mistakes           []AnalysisPoint `json:"mistakes"`
	SkillGaps          []string        `json:"skill_gaps"`
	LeverageTrajectory []int           `json:"leverage_trajectory"`
	MoodTrajectory     []Mood          `json:"mood_trajectory"`
}

// SessionStatus is the persisted lifecycle state of a session record.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// SessionRecord is the persisted shape of a session.
type SessionRecord struct {
	SessionID    string         `json:"session_id"`
	UserID       string         `json:"user_id"`
	ScenarioType string         `json:"scenario_type"`
	Difficulty   string         `json:"difficulty"`
	Personality  string         `json:"personality"`
	Constraints  map[string]any `json:"constraints,omitempty"`
	BATNA        string         `json:"batna"`
	Status       SessionStatus  `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// TurnRecord is the append-only persisted shape of one completed turn.
type TurnRecord struct {
	SessionID        string    `json:"session_id"`
	TurnNumber       int       `json:"turn_number"`
	UserMessage      string    `json:"user_message"`
	OpponentResponse string    `json:"opponent_response"`
	Mood             Mood      `json:"opponent_mood"`
	Patience         int       `json:"opponent_patience"`
	Leverage         int       `json:"calculated_leverage"`
	Stage            Stage     `json:"conversation_stage"`
	CreatedAt        time.Time `json:"created_at"`
}

// AnalysisRecord is the persisted end-of-session analysis.
type AnalysisRecord struct {
	SessionID   string    `json:"session_id"`
	Feedback    Analysis  `json:"feedback"`
	GeneratedAt time.Time `json:"generated_at"`
}
