// Package agents implements the LLM-backed collaborators around the scoring
// core: the scenario designer, the in-character opponent, the shadow coach,
// and the end-of-session analyst. Every agent degrades to a well-defined
// fallback when the provider returns something unparseable.
package agents

import "context"

// Generator is the text-generation provider boundary. Implementations must be
// safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, temperature float32) (string, error)
}

// ScenarioDesign is the structured output of the scenario designer.
type ScenarioDesign struct {
	Personality string         `json:"personality"`
	Patience    int            `json:"patience"`
	Constraints map[string]any `json:"constraints"`
	BATNA       string         `json:"batna"`
	Opening     string         `json:"opening"`
}

// Suite bundles the four agents over one generator. The main model drives the
// opponent, designer, and analyst; the cheaper coach model produces tips.
type Suite struct {
	gen        Generator
	model      string
	coachModel string
}

// NewSuite creates an agent suite.
func NewSuite(gen Generator, model, coachModel string) *Suite {
	return &Suite{gen: gen, model: model, coachModel: coachModel}
}
