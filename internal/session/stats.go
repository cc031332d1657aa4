package session

import (
	"math"

	"practice-service/internal/models"
)

// foldStats folds one answer outcome into the running session counters.
// All derived values round half-up to the nearest integer.
func foldStats(s models.SessionStats, isCorrect bool, xp int, elapsedMs int64) models.SessionStats {
	s.Answered++
	s.Remaining--
	if isCorrect {
		s.Correct++
	} else {
		s.Incorrect++
	}
	if s.Answered > 0 {
		s.Accuracy = int(math.Round(float64(s.Correct) / float64(s.Answered) * 100))
	} else {
		s.Accuracy = 0
	}
	s.TotalTimeSeconds += roundMsToSeconds(elapsedMs)
	if s.Answered > 0 {
		s.AverageTimeSeconds = int(math.Round(float64(s.TotalTimeSeconds) / float64(s.Answered)))
	} else {
		s.AverageTimeSeconds = 0
	}
	s.XPEarned += xp
	return s
}

func roundMsToSeconds(ms int64) int {
	return int(math.Round(float64(ms) / 1000.0))
}
