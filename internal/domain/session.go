// Package domain contains core domain types for the Negotium application.
package domain

import (
	"strings"
	"time"
)

// Role tags a history entry as spoken by the user or the opponent.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry in the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Mood is the opponent's discrete emotional state, derived solely from patience.
type Mood string

const (
	MoodCurious   Mood = "curious"
	MoodNeutral   Mood = "neutral"
	MoodDefensive Mood = "defensive"
	MoodHostile   Mood = "hostile"
)

// Stage is the coarse conversation phase, recomputed from patience every turn.
type Stage string

const (
	StageOpening Stage = "opening"
	StageMiddle  Stage = "middle"
	StageClosing Stage = "closing"
	StageEnded   Stage = "ended"
)

// Initial scalar values for a freshly designed session.
const (
	InitialLeverage        = 50
	DefaultInitialPatience = 70
)

var initialPatienceByDifficulty = map[string]int{
	"beginner":     80,
	"intermediate": 60,
	"advanced":     40,
}

// InitialPatience maps a difficulty label to the opponent's starting patience.
// Unrecognized difficulties fall back to the default rather than failing, so
// session creation is always computable.
func InitialPatience(difficulty string) int {
	if p, ok := initialPatienceByDifficulty[strings.ToLower(strings.TrimSpace(difficulty))]; ok {
		return p
	}
	return DefaultInitialPatience
}

// Session is the unit of orchestration: one user negotiating against one
// synthetic opponent. All mutation goes through the session orchestrator,
// which serializes updates per session.
type Session struct {
	SessionID    string
	UserID       string
	ScenarioType string
	Difficulty   string

	// Opponent persona, designed at creation time.
	Personality string
	Constraints map[string]any
	BATNA       string

	Mood       Mood
	Patience   int // 0-100
	Leverage   int // 10-90 after any turn; starts at 50
	TurnNumber int
	Stage      Stage

	History            []Message
	LeverageTrajectory []int
	MoodTrajectory     []Mood

	CreatedAt    time.Time
	LastActivity time.Time
}

// Ended reports whether the session no longer accepts mutation.
func (s *Session) Ended() bool {
	return s.Stage == StageEnded
}

// RecentHistory returns the last n history entries.
func (s *Session) RecentHistory(n int) []Message {
	if n >= len(s.History) {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// User represents an anonymous device identity that owns sessions.
type User struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
