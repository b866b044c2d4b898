package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/negotium-labs/negotium/internal/domain"
)

var moodInstructions = map[domain.Mood]string{
	domain.MoodCurious:   "You're interested and open to discussion. Ask clarifying questions.",
	domain.MoodNeutral:   "You're professional but reserved. Give measured responses.",
	domain.MoodDefensive: "You're starting to push back. Reference constraints and policies.",
	domain.MoodHostile:   "You're losing patience. Consider ending the conversation or giving ultimatums.",
}

const opponentPrompt = `You are a %s manager in a %s negotiation.

Your current state:
- Mood: %s (%s)
- Patience: %d/100
- Hidden constraints: %s
- BATNA: %s

Recent conversation:
%s

User just said: "%s"

Respond naturally in character. Keep it under 100 words. DO NOT reveal exact constraint numbers unless user has earned it through strong negotiation.`

// OpponentReply generates the opponent's in-character reply for the turn,
// conditioned on the already-updated mood and patience. Unlike the other
// agents it has no fallback: a failed reply fails the turn so the caller can
// leave session state untouched.
func (s *Suite) OpponentReply(ctx context.Context, sess *domain.Session, userMessage string, mood domain.Mood, patience int) (string, error) {
	instructions, ok := moodInstructions[mood]
	if !ok {
		instructions = "professional"
	}

	constraints, err := json.Marshal(sess.Constraints)
	if err != nil {
		constraints = []byte("{}")
	}

	prompt := fmt.Sprintf(opponentPrompt,
		sess.Personality,
		sess.ScenarioType,
		mood, instructions,
		patience,
		constraints,
		sess.BATNA,
		transcript(sess.RecentHistory(6)),
		userMessage,
	)

	reply, err := s.gen.Generate(ctx, s.model, prompt, 0.8)
	if err != nil {
		return "", fmt.Errorf("opponent agent: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// transcript renders history entries as "Manager:"/"User:" lines.
func transcript(history []domain.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		speaker := "User"
		if msg.Role == domain.RoleAssistant {
			speaker = "Manager"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
