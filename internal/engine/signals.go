// Package engine implements the deterministic negotiation scoring core:
// lexical signal extraction, the patience and leverage rule cascades, and the
// patience-to-mood classifier. Everything here is a total function; malformed
// or empty utterances simply match no rules.
package engine

import "strings"

// Signals is the flag set extracted from a single user utterance. It is the
// only input the patience and leverage engines see besides prior state.
type Signals struct {
	// Leverage-side harsh flags.
	Demanding              bool
	HarshCriticism         bool
	Ultimatum              bool
	UnjustifiedEntitlement bool
	ThreateningTone        bool

	// Leverage-side refinement flags.
	QuestionCount     int
	Evidence          bool
	NumericWithMetric bool
	MarketReference   bool
	AlternativeSignal bool
	Apology           bool
	Submissive        bool
	WeakFraming       bool

	// Patience-side flags.
	DemandingTone        bool // demand/deserve/must/will not
	CompetitiveThreat    bool // ultimatum/competitor/leaving
	SelfFocusCount       int
	CooperativeEmpathy   bool // understand/appreciate/help me understand
	CooperativeInclusive bool // we/together/both
}

// Keyword groups are substring-matched against the lowercased utterance.
var (
	demandingWords = []string{"demand", "must", "will not", "have to", "need to give me", "expect", "require", "insist"}
	harshWords     = []string{"unacceptable", "ridiculous", "joke", "insulting", "terrible", "pathetic", "stupid"}
	ultimatumWords = []string{"ultimatum", "or else", "final offer", "take it or leave it", "last chance"}

	evidenceWords    = []string{"achieved", "delivered", "increased", "saved", "results", "proven", "track record"}
	metricWords      = []string{"percent", "%", "increase", "revenue", "saved"}
	marketWords      = []string{"market rate", "industry standard", "benchmark", "comparable"}
	alternativeWords = []string{"alternative", "offer", "opportunity", "considering"}
	submissiveWords  = []string{"please", "really hope", "would appreciate", "beg"}
	weakFramingWords = []string{"fair", "reasonable", "just want"}

	demandingToneWords = []string{"demand", "deserve", "must", "will not"}
	threatExitWords    = []string{"ultimatum", "competitor", "leaving"}
	empathyWords       = []string{"understand", "appreciate", "help me understand"}
	inclusiveWords     = []string{"we", "together", "both"}
)

// Extract scans one user utterance and produces its signal flags. It is pure
// and idempotent: no state, no side effects.
func Extract(utterance string) Signals {
	lower := strings.ToLower(utterance)

	return Signals{
		Demanding:              containsAny(lower, demandingWords),
		HarshCriticism:         containsAny(lower, harshWords),
		Ultimatum:              containsAny(lower, ultimatumWords),
		UnjustifiedEntitlement: strings.Contains(lower, "deserve") && !strings.Contains(lower, "because"),
		ThreateningTone:        strings.Contains(lower, "you better"),

		QuestionCount:     strings.Count(utterance, "?"),
		Evidence:          containsAny(lower, evidenceWords),
		NumericWithMetric: containsDigit(utterance) && containsAny(lower, metricWords),
		MarketReference:   containsAny(lower, marketWords),
		AlternativeSignal: containsAny(lower, alternativeWords),
		Apology:           strings.Contains(lower, "sorry") || strings.Contains(lower, "apologize"),
		Submissive:        containsAny(lower, submissiveWords),
		WeakFraming:       containsAny(lower, weakFramingWords),

		DemandingTone:        containsAny(lower, demandingToneWords),
		CompetitiveThreat:    containsAny(lower, threatExitWords),
		SelfFocusCount:       strings.Count(lower, "i"),
		CooperativeEmpathy:   containsAny(lower, empathyWords),
		CooperativeInclusive: containsAny(lower, inclusiveWords),
	}
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
