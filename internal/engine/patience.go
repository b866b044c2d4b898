package engine

// Patience bounds.
const (
	PatienceFloor   = 0
	PatienceCeiling = 100
)

type patienceRule struct {
	name  string
	match func(Signals) bool
	delta int
}

// patienceRules is evaluated in order; the first matching rule wins and
// exactly one delta applies per turn. Negative triggers come before positive
// ones so a message matching both classes nets out negative. Exit threats
// outrank plain demands when both match.
var patienceRules = []patienceRule{
	{"competitive_threat", func(s Signals) bool { return s.CompetitiveThreat }, -15},
	{"demanding_tone", func(s Signals) bool { return s.DemandingTone }, -10},
	{"self_focus", func(s Signals) bool { return s.SelfFocusCount > 5 }, -5},
	{"cooperative_empathy", func(s Signals) bool { return s.CooperativeEmpathy }, +5},
	{"question", func(s Signals) bool { return s.QuestionCount > 0 }, +3},
	{"cooperative_inclusive", func(s Signals) bool { return s.CooperativeInclusive }, +5},
}

// PatienceDelta returns the single first-match-wins delta for the turn, or
// zero when no rule matches.
func PatienceDelta(sig Signals) int {
	for _, r := range patienceRules {
		if r.match(sig) {
			return r.delta
		}
	}
	return 0
}

// NextPatience applies the turn delta and clamps the result to [0, 100].
func NextPatience(old int, sig Signals) int {
	return clampInt(old+PatienceDelta(sig), PatienceFloor, PatienceCeiling)
}
