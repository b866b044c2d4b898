package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/negotium-labs/negotium/internal/domain"
)

func testSession() *domain.Session {
	return &domain.Session{
		SessionID:    "sess_test",
		ScenarioType: "salary",
		Leverage:     62,
		Patience:     45,
		TurnNumber:   3,
		History: []domain.Message{
			{Role: domain.RoleAssistant, Content: "What did you want to discuss?"},
			{Role: domain.RoleUser, Content: "My compensation."},
			{Role: domain.RoleAssistant, Content: "Go on."},
		},
		LeverageTrajectory: []int{50, 55, 62},
		MoodTrajectory:     []domain.Mood{domain.MoodCurious, domain.MoodCurious, domain.MoodNeutral},
	}
}

func TestAnalyzeForcesDeterministicOutcome(t *testing.T) {
	// The model claims success; the deterministic classification wins.
	suite := NewSuite(stubGen{response: `{
		"summary": "Decent effort.",
		"outcome": "success",
		"strengths": [{"point": "Evidence", "explanation": "Cited results."}],
		"mistakes": [{"point": "Slow anchor", "explanation": "Waited too long."}],
		"skill_gaps": ["Anchoring"]
	}`}, "m", "c")

	analysis := suite.Analyze(context.Background(), testSession(), domain.OutcomePartialSuccess)

	if analysis.Outcome != domain.OutcomePartialSuccess {
		t.Errorf("Expected forced outcome partial_success, got %s", analysis.Outcome)
	}
	if analysis.Summary != "Decent effort." {
		t.Errorf("Expected model summary to survive, got %q", analysis.Summary)
	}
	if len(analysis.Strengths) != 1 || analysis.Strengths[0].Point != "Evidence" {
		t.Errorf("Strengths mismatch: %v", analysis.Strengths)
	}
}

func TestAnalyzeFallsBackOnProviderError(t *testing.T) {
	suite := NewSuite(stubGen{err: errors.New("provider down")}, "m", "c")

	analysis := suite.Analyze(context.Background(), testSession(), domain.OutcomeFailure)

	if analysis.Outcome != domain.OutcomeFailure {
		t.Errorf("Expected outcome failure, got %s", analysis.Outcome)
	}
	if analysis.Summary == "" {
		t.Error("Expected stock summary")
	}
	if len(analysis.Strengths) == 0 || len(analysis.Mistakes) == 0 || len(analysis.SkillGaps) == 0 {
		t.Errorf("Expected stock feedback to be fully populated: %+v", analysis)
	}
}

func TestAnalyzeBackfillsEmptySections(t *testing.T) {
	suite := NewSuite(stubGen{response: `{"summary":"Short.","strengths":[],"mistakes":[],"skill_gaps":[]}`}, "m", "c")

	analysis := suite.Analyze(context.Background(), testSession(), domain.OutcomeSuccess)

	if analysis.Summary != "Short." {
		t.Errorf("Expected model summary, got %q", analysis.Summary)
	}
	if len(analysis.Strengths) == 0 || len(analysis.Mistakes) == 0 || len(analysis.SkillGaps) == 0 {
		t.Errorf("Expected backfilled sections: %+v", analysis)
	}
}

func TestFullTranscriptNumbersTurns(t *testing.T) {
	got := fullTranscript([]domain.Message{
		{Role: domain.RoleAssistant, Content: "Hello."},
		{Role: domain.RoleUser, Content: "Hi."},
		{Role: domain.RoleAssistant, Content: "Go on."},
	})

	want := "Turn 1 - Manager: Hello.\nTurn 1 - User: Hi.\nTurn 2 - Manager: Go on."
	if got != want {
		t.Errorf("fullTranscript mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}
