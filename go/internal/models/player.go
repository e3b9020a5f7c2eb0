package models

// Player is referenced by value inside broadcast messages.
// ID is a stable per-client identifier, not a server session id.
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Avatar      string `json:"avatar"`
}

// AnswerRecord is one answer per (round, player) pair
type AnswerRecord struct {
	Round       int    `json:"round"`
	OptionIndex int    `json:"answerIndex"`
	PlayerID    string `json:"participantId"`
	DisplayName string `json:"name"`
	Avatar      string `json:"avatar"`
}

// Player returns the player referenced by the record
func (a AnswerRecord) Player() Player {
	return Player{ID: a.PlayerID, DisplayName: a.DisplayName, Avatar: a.Avatar}
}

// LocalScore tracks points for the local player only
type LocalScore struct {
	PlayerEggs int `json:"playerEggs"`
	AnswerTime int `json:"answerTime"` // elapsed seconds at last submission
}
