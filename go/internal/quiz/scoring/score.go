// Package scoring computes the local player's points for a single answer.
package scoring

import "github.com/mcdev12/tunequiz/go/internal/models"

// fastFraction is the share of the question time that must remain for the speed bonus
const fastFraction = 0.8

// Delta returns the points earned for one answer.
// The speed bonus applies only when strictly more than 80% of the time remains.
func Delta(isCorrect bool, timeRemaining int, settings models.RoundSettings) int {
	if !isCorrect {
		return 0
	}
	if float64(timeRemaining) > fastFraction*float64(settings.TimePerQuestion) {
		return settings.EggsPerCorrect + settings.SpeedBonus
	}
	return settings.EggsPerCorrect
}

// IsFast reports whether an answer at timeRemaining earns the speed bonus
func IsFast(timeRemaining int, settings models.RoundSettings) bool {
	return float64(timeRemaining) > fastFraction*float64(settings.TimePerQuestion)
}
