package models

import (
	"fmt"
	"time"
)

// TotalRounds is the fixed number of rounds in a session
const TotalRounds = 10

// OptionCount is the number of answer options in a round question
const OptionCount = 4

// RoundSettings is the scoring and timing snapshot taken at round start.
type RoundSettings struct {
	EggsPerCorrect  int `json:"eggs_per_correct" yaml:"eggs_per_correct"`
	SpeedBonus      int `json:"speed_bonus" yaml:"speed_bonus"`
	TimePerQuestion int `json:"time_per_question" yaml:"time_per_question"` // seconds
}

// DefaultRoundSettings returns the settings used when a room has none configured
func DefaultRoundSettings() RoundSettings {
	return RoundSettings{
		EggsPerCorrect:  10,
		SpeedBonus:      5,
		TimePerQuestion: 15,
	}
}

// Duration returns the per-question time as a time.Duration
func (s RoundSettings) Duration() time.Duration {
	return time.Duration(s.TimePerQuestion) * time.Second
}

// RoundQuestion is immutable once created and owned by the round embedding it.
type RoundQuestion struct {
	Song               SongRef  `json:"song"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

// Validate checks that the correct answer index points into the options
func (q *RoundQuestion) Validate() error {
	if len(q.Options) == 0 {
		return fmt.Errorf("question has no options")
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return fmt.Errorf("correct answer index %d out of range [0,%d)", q.CorrectAnswerIndex, len(q.Options))
	}
	return nil
}

// IsCorrect reports whether optionIndex is the correct answer
func (q *RoundQuestion) IsCorrect(optionIndex int) bool {
	return optionIndex == q.CorrectAnswerIndex
}

// Round represents the single active question-answer-reveal cycle
type Round struct {
	Number    int           `json:"round"`
	Question  RoundQuestion `json:"question"`
	StartedAt time.Time     `json:"started_at"`
	Settings  RoundSettings `json:"settings"`
}

// IsLast reports whether no further round may follow this one in a game of
// totalRounds rounds
func (r *Round) IsLast(totalRounds int) bool {
	return r.Number >= totalRounds
}
