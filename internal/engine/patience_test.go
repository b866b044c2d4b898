package engine

import "testing"

func TestPatienceDelta(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want int
	}{
		{"exit threat", "maybe a competitor will treat my work better", -15},
		{"exit threat outranks demand", "I demand a raise or I'm leaving", -15},
		{"demanding tone", "you must approve my request", -10},
		{"self focus", "This is my milestone; it is vital it is visible.", -5},
		{"cooperative empathy", "help me understand your constraints", 5},
		{"empathy outranks question", "I understand your position — can you help me understand the budget constraints?", 5},
		{"question", "could you share the budget range?", 3},
		{"inclusive language", "together both sides can land on a number", 5},
		{"no triggers", "let us talk tomorrow about salary", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PatienceDelta(Extract(tt.msg)); got != tt.want {
				t.Errorf("PatienceDelta(%q) = %d, want %d", tt.msg, got, tt.want)
			}
		})
	}
}

func TestNextPatience_Clamps(t *testing.T) {
	if got := NextPatience(5, Extract("I'm leaving for a competitor")); got != 0 {
		t.Errorf("NextPatience(5, threat) = %d, want 0", got)
	}
	if got := NextPatience(98, Extract("I appreciate your time")); got != 100 {
		t.Errorf("NextPatience(98, empathy) = %d, want 100", got)
	}
}

func TestNextPatience_RangeProperty(t *testing.T) {
	messages := []string{
		"",
		"I demand it, I'm leaving",
		"I appreciate you, can we find a path together?",
		"you must give me this",
		"what about the timeline?",
	}

	for p := 0; p <= 100; p++ {
		for _, msg := range messages {
			got := NextPatience(p, Extract(msg))
			if got < PatienceFloor || got > PatienceCeiling {
				t.Fatalf("NextPatience(%d, %q) = %d out of [0,100]", p, msg, got)
			}
		}
	}
}
