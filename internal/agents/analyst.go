package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/negotium-labs/negotium/internal/domain"
)

const analystPrompt = `You are an expert negotiation coach analyzing a completed %s session.

CONVERSATION TRANSCRIPT:
%s

FINAL METRICS:
- User Leverage: %d/100
- Opponent Patience: %d/100
- Total Turns: %d
- Leverage Trajectory: %v
- Mood Progression: %v

Provide structured coaching feedback in this EXACT JSON format:
{
  "summary": "2-3 sentence overall assessment of their negotiation approach and outcome. Focus on strategy quality, communication style, and whether they achieved a good result. Avoid just listing metrics.",
  "outcome": "%s",
  "strengths": [
    {"point": "Specific strength title", "explanation": "Why this was effective - include numbers/percentages when relevant"},
    {"point": "Another strength", "explanation": "Details with specific examples from transcript"}
  ],
  "mistakes": [
    {"point": "Critical error", "explanation": "Why this hurt their position - quantify impact if possible"},
    {"point": "Another mistake", "explanation": "Specific consequence with numbers"}
  ],
  "skill_gaps": ["Anchoring", "Active Listening", "BATNA Development"]
}

BE SPECIFIC. Use actual quotes from transcript. In the summary, focus on overall approach quality and negotiation outcome, NOT just listing final leverage/patience numbers. Output ONLY valid JSON, no markdown.`

// Analyze produces the end-of-session feedback. The outcome is always the
// deterministic classification passed in; whatever the model claims is
// overwritten. Provider or parse failures fall back to stock feedback, so
// ending a session never fails on the model.
func (s *Suite) Analyze(ctx context.Context, sess *domain.Session, outcome domain.Outcome) domain.Analysis {
	prompt := fmt.Sprintf(analystPrompt,
		sess.ScenarioType,
		fullTranscript(sess.History),
		sess.Leverage,
		sess.Patience,
		sess.TurnNumber,
		sess.LeverageTrajectory,
		sess.MoodTrajectory,
		outcome,
	)

	raw, err := s.gen.Generate(ctx, s.model, prompt, 0.3)
	if err != nil {
		slog.Warn("Analyst unavailable, using stock feedback", "error", err, "session_id", sess.SessionID)
		return fallbackAnalysis(sess, outcome)
	}

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &analysis); err != nil {
		slog.Warn("Analyst returned unparseable output, using stock feedback", "error", err, "session_id", sess.SessionID)
		return fallbackAnalysis(sess, outcome)
	}

	analysis.Outcome = outcome
	if analysis.Summary == "" {
		analysis.Summary = fallbackSummary(sess)
	}
	if len(analysis.Strengths) == 0 {
		analysis.Strengths = []domain.AnalysisPoint{
			{Point: "Session Completion", Explanation: "You completed the negotiation session."},
		}
	}
	if len(analysis.Mistakes) == 0 {
		analysis.Mistakes = []domain.AnalysisPoint{
			{Point: "Limited engagement", Explanation: "Session ended before full negotiation tactics could be demonstrated."},
		}
	}
	if len(analysis.SkillGaps) == 0 {
		analysis.SkillGaps = []string{"Anchoring", "Active Listening"}
	}
	return analysis
}

// fullTranscript renders the whole history with turn numbers, two entries per
// turn.
func fullTranscript(history []domain.Message) string {
	lines := make([]string, 0, len(history))
	for i, msg := range history {
		speaker := "User"
		if msg.Role == domain.RoleAssistant {
			speaker = "Manager"
		}
		lines = append(lines, fmt.Sprintf("Turn %d - %s: %s", i/2+1, speaker, msg.Content))
	}
	return strings.Join(lines, "\n")
}

func fallbackSummary(sess *domain.Session) string {
	return fmt.Sprintf("Completed %s negotiation with %d turns. Final leverage: %d%%.",
		sess.ScenarioType, sess.TurnNumber, sess.Leverage)
}

func fallbackAnalysis(sess *domain.Session, outcome domain.Outcome) domain.Analysis {
	return domain.Analysis{
		Summary: fallbackSummary(sess),
		Outcome: outcome,
		Strengths: []domain.AnalysisPoint{
			{Point: "Engagement", Explanation: "You actively participated in the negotiation."},
			{Point: "Persistence", Explanation: "You continued the dialogue through multiple turns."},
		},
		Mistakes: []domain.AnalysisPoint{
			{Point: "Analysis Error", Explanation: "Detailed analysis could not be generated. Try with more conversation turns."},
		},
		SkillGaps: []string{"Anchoring", "Active Listening", "BATNA Development"},
	}
}
