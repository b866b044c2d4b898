package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

const designerPrompt = `You are a negotiation scenario designer. Create a realistic %s scenario at %s difficulty level.

Design the opponent:
1. Personality archetype (choose from: collaborative, assertive, resistant, bureaucratic)
2. Initial patience level (0-100)
3. Hidden constraints (budget limits, company policies, market conditions)
4. BATNA (Best Alternative To Negotiated Agreement)
5. Opening statement (natural, in-character)

Return ONLY valid JSON in this exact format:
{
  "personality": "assertive",
  "patience": 75,
  "constraints": {
    "budget_max": 120000,
    "policy": "raises capped at 10%%"
  },
  "batna": "hire external candidate at market rate",
  "opening": "Hi! I understand you wanted to discuss your compensation?"
}`

// DesignScenario asks the model for an opponent persona. Any provider or
// parse failure falls back to a stock persona, so session creation always
// succeeds. The model's patience suggestion is ignored: initial patience is
// fixed by the difficulty mapping.
func (s *Suite) DesignScenario(ctx context.Context, scenarioType, difficulty string) ScenarioDesign {
	prompt := fmt.Sprintf(designerPrompt, scenarioType, difficulty)

	raw, err := s.gen.Generate(ctx, s.model, prompt, 0.7)
	if err != nil {
		slog.Warn("Scenario designer unavailable, using stock persona",
			"error", err,
			"scenario_type", scenarioType)
		return defaultDesign(scenarioType)
	}

	var design ScenarioDesign
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &design); err != nil {
		slog.Warn("Scenario designer returned unparseable output, using stock persona",
			"error", err,
			"scenario_type", scenarioType)
		return defaultDesign(scenarioType)
	}

	if design.Personality == "" {
		design.Personality = "collaborative"
	}
	if design.Opening == "" {
		design.Opening = defaultOpening
	}
	if design.Constraints == nil {
		design.Constraints = map[string]any{}
	}
	return design
}

const defaultOpening = "Thanks for making time today. What did you want to discuss?"

func defaultDesign(scenarioType string) ScenarioDesign {
	return ScenarioDesign{
		Personality: "collaborative",
		Constraints: map[string]any{
			"policy": "standard company policy applies",
		},
		BATNA:   "keep the current arrangement for the " + scenarioType + " discussion",
		Opening: defaultOpening,
	}
}
