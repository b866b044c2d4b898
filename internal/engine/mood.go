package engine

import "github.com/negotium-labs/negotium/internal/domain"

// MoodFor maps an updated patience value to the opponent's mood. It is a pure
// step function with no hysteresis: mood can jump multiple bands in one turn.
func MoodFor(patience int) domain.Mood {
	switch {
	case patience >= 70:
		return domain.MoodCurious
	case patience >= 50:
		return domain.MoodNeutral
	case patience >= 30:
		return domain.MoodDefensive
	default:
		return domain.MoodHostile
	}
}
