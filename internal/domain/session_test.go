package domain

import "testing"

func TestInitialPatience(t *testing.T) {
	tests := []struct {
		difficulty string
		want       int
	}{
		{"beginner", 80},
		{"intermediate", 60},
		{"advanced", 40},
		{"Beginner", 80},
		{"  ADVANCED  ", 40},
		{"nightmare", DefaultInitialPatience},
		{"", DefaultInitialPatience},
	}

	for _, tt := range tests {
		if got := InitialPatience(tt.difficulty); got != tt.want {
			t.Errorf("InitialPatience(%q) = %d, want %d", tt.difficulty, got, tt.want)
		}
	}
}

func TestRecentHistory(t *testing.T) {
	sess := &Session{
		History: []Message{
			{Role: RoleAssistant, Content: "a"},
			{Role: RoleUser, Content: "b"},
			{Role: RoleAssistant, Content: "c"},
		},
	}

	if got := sess.RecentHistory(2); len(got) != 2 || got[0].Content != "b" {
		t.Errorf("RecentHistory(2) = %v", got)
	}
	if got := sess.RecentHistory(10); len(got) != 3 {
		t.Errorf("RecentHistory(10) = %v", got)
	}
}

func TestEnded(t *testing.T) {
	sess := &Session{Stage: StageMiddle}
	if sess.Ended() {
		t.Error("Expected active session not to be ended")
	}
	sess.Stage = StageEnded
	if !sess.Ended() {
		t.Error("Expected ended session to report ended")
	}
}
