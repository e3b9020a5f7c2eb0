// Package answers groups answer submissions by option for the current round.
package answers

import "github.com/mcdev12/tunequiz/go/internal/models"

// Aggregator holds at most one answer record per player for the current round.
// It is owned by a single session loop and is not safe for concurrent use.
type Aggregator struct {
	byPlayer map[string]models.AnswerRecord
	groups   map[int][]models.Player
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		byPlayer: make(map[string]models.AnswerRecord),
		groups:   make(map[int][]models.Player),
	}
}

// Add records an answer unless the player already answered this round.
// It returns false for duplicates.
func (a *Aggregator) Add(record models.AnswerRecord) bool {
	if _, exists := a.byPlayer[record.PlayerID]; exists {
		return false
	}
	a.byPlayer[record.PlayerID] = record
	a.groups[record.OptionIndex] = append(a.groups[record.OptionIndex], record.Player())
	return true
}

// Has reports whether playerID has a recorded answer
func (a *Aggregator) Has(playerID string) bool {
	_, exists := a.byPlayer[playerID]
	return exists
}

// Get returns the record for playerID
func (a *Aggregator) Get(playerID string) (models.AnswerRecord, bool) {
	record, exists := a.byPlayer[playerID]
	return record, exists
}

// Groups returns a copy of optionIndex -> players in the order they answered
func (a *Aggregator) Groups() map[int][]models.Player {
	out := make(map[int][]models.Player, len(a.groups))
	for option, players := range a.groups {
		out[option] = append([]models.Player(nil), players...)
	}
	return out
}

// Count returns the number of recorded answers
func (a *Aggregator) Count() int {
	return len(a.byPlayer)
}

// Reset clears every record; called on each new round
func (a *Aggregator) Reset() {
	a.byPlayer = make(map[string]models.AnswerRecord)
	a.groups = make(map[int][]models.Player)
}
