package domain

import "testing"

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		name     string
		leverage int
		patience int
		want     Outcome
	}{
		{"high leverage and patience", 70, 40, OutcomeSuccess},
		{"comfortable success", 85, 60, OutcomeSuccess},
		{"high leverage, exhausted opponent", 75, 20, OutcomePartialSuccess},
		{"leverage threshold alone", 50, 10, OutcomePartialSuccess},
		{"patience threshold alone", 20, 30, OutcomePartialSuccess},
		{"both below thresholds", 49, 29, OutcomeFailure},
		{"floor values", 10, 0, OutcomeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyOutcome(tt.leverage, tt.patience); got != tt.want {
				t.Errorf("ClassifyOutcome(%d, %d) = %s, want %s", tt.leverage, tt.patience, got, tt.want)
			}
		})
	}
}
