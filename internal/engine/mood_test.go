package engine

import (
	"testing"

	"github.com/negotium-labs/negotium/internal/domain"
)

func TestMoodFor(t *testing.T) {
	tests := []struct {
		patience int
		want     domain.Mood
	}{
		{100, domain.MoodCurious},
		{70, domain.MoodCurious},
		{69, domain.MoodNeutral},
		{50, domain.MoodNeutral},
		{49, domain.MoodDefensive},
		{30, domain.MoodDefensive},
		{29, domain.MoodHostile},
		{0, domain.MoodHostile},
	}

	for _, tt := range tests {
		if got := MoodFor(tt.patience); got != tt.want {
			t.Errorf("MoodFor(%d) = %s, want %s", tt.patience, got, tt.want)
		}
	}
}
