package engine

import "math/rand/v2"

// Leverage bounds and the per-turn baseline attrition.
const (
	LeverageFloor     = 10
	LeverageCeiling   = 90
	baselineAttrition = 2
)

// Variance supplies the bounded random nudges in leverage scoring. It is
// injectable so tests can pin exact outputs.
type Variance interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
}

type systemVariance struct{}

func (systemVariance) IntN(n int) int { return rand.IntN(n) }

// SystemVariance returns a Variance backed by the process-wide PRNG.
func SystemVariance() Variance { return systemVariance{} }

type leverageRule struct {
	name  string
	match func(Signals) bool
	delta int
}

// harshRules are each independently additive. Any match short-circuits the
// refinement rules below: aggressive tone dominates the turn's scoring no
// matter what substance accompanies it.
var harshRules = []leverageRule{
	{"demanding", func(s Signals) bool { return s.Demanding }, -18},
	{"harsh_criticism", func(s Signals) bool { return s.HarshCriticism }, -15},
	// Exit threats ("competitor", "leaving") are forcing functions too and
	// carry the same penalty as explicit ultimatum phrasing.
	{"ultimatum", func(s Signals) bool { return s.Ultimatum || s.CompetitiveThreat }, -20},
	{"unjustified_entitlement", func(s Signals) bool { return s.UnjustifiedEntitlement }, -12},
	{"threatening_tone", func(s Signals) bool { return s.ThreateningTone }, -10},
}

// refinementRules are evaluated only when no harsh rule fired; each is
// independently additive. The two question rules are mutually exclusive.
var refinementRules = []leverageRule{
	{"multiple_questions", func(s Signals) bool { return s.QuestionCount >= 2 }, +6},
	{"single_question", func(s Signals) bool { return s.QuestionCount == 1 }, +4},
	{"evidence", func(s Signals) bool { return s.Evidence }, +8},
	{"numeric_with_metric", func(s Signals) bool { return s.NumericWithMetric }, +9},
	{"market_reference", func(s Signals) bool { return s.MarketReference }, +7},
	{"alternative_signal", func(s Signals) bool { return s.AlternativeSignal }, +6},
	{"apology", func(s Signals) bool { return s.Apology }, -8},
	{"submissive", func(s Signals) bool { return s.Submissive }, -6},
	{"weak_framing", func(s Signals) bool { return s.WeakFraming }, -4},
}

// NextLeverage computes the user's leverage after one utterance. The result
// is a pure function of (old, sig, the variance draw) and always lies in
// [10, 90].
func NextLeverage(old int, sig Signals, rng Variance) int {
	lev := old - baselineAttrition

	harsh := false
	for _, r := range harshRules {
		if r.match(sig) {
			lev += r.delta
			harsh = true
		}
	}
	if harsh {
		// Extra penalty in [-3, -1]; refinement rules are skipped entirely.
		lev += -3 + rng.IntN(3)
		return clampInt(lev, LeverageFloor, LeverageCeiling)
	}

	for _, r := range refinementRules {
		if r.match(sig) {
			lev += r.delta
		}
	}

	// Natural variance in [-2, 1], slightly negative bias.
	lev += -2 + rng.IntN(4)
	return clampInt(lev, LeverageFloor, LeverageCeiling)
}
