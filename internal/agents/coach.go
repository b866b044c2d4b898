package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/negotium-labs/negotium/internal/domain"
)

const coachPrompt = `You are a negotiation coach. Analyze the user's message and give ONE short tactical tip (max 20 words).

User's message: "%s"

Context:
- Current leverage: %d/100
- Opponent mood: %s
- Opponent patience: %d/100

Provide a specific, actionable tip. Examples:
- "Anchor high - state a specific number first."
- "Ask about their constraints before revealing yours."
- "Mirror their language to build rapport."

Your tip (max 20 words):`

// CoachTip produces a one-line tactical tip from the cheaper coach model.
// Callers treat failures as a missing tip, never a failed turn.
func (s *Suite) CoachTip(ctx context.Context, userMessage string, leverage int, mood domain.Mood, patience int) (string, error) {
	prompt := fmt.Sprintf(coachPrompt, userMessage, leverage, mood, patience)

	tip, err := s.gen.Generate(ctx, s.coachModel, prompt, 0.5)
	if err != nil {
		return "", fmt.Errorf("coach agent: %w", err)
	}
	return strings.TrimSpace(tip), nil
}
