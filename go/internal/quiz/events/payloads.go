package events

import (
	"time"

	"github.com/mcdev12/tunequiz/go/internal/models"
)

// Event payload types shared between the round session, channels and the gateway

// RoundStartPayload is the payload for a ROUND_START event
type RoundStartPayload struct {
	Question  models.RoundQuestion `json:"question"`
	Round     int                  `json:"round"`
	Settings  models.RoundSettings `json:"settings"`
	StartedAt int64                `json:"startedAt"` // host wall clock, unix millis
}

// StartTime returns StartedAt as a time.Time
func (p RoundStartPayload) StartTime() time.Time {
	return time.UnixMilli(p.StartedAt)
}

// ToRound builds the round record described by the payload
func (p RoundStartPayload) ToRound() *models.Round {
	return &models.Round{
		Number:    p.Round,
		Question:  p.Question,
		StartedAt: p.StartTime(),
		Settings:  p.Settings,
	}
}

// AnswerPayload is the payload for an ANSWER event
type AnswerPayload struct {
	AnswerIndex   int    `json:"answerIndex"`
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	Round         int    `json:"round,omitempty"` // 0 when the sender did not stamp it
}

// Record converts the payload into an answer record
func (p AnswerPayload) Record() models.AnswerRecord {
	return models.AnswerRecord{
		Round:       p.Round,
		OptionIndex: p.AnswerIndex,
		PlayerID:    p.ParticipantID,
		DisplayName: p.Name,
		Avatar:      p.Avatar,
	}
}

// RoundCompletePayload is the payload for a ROUND_COMPLETE event
type RoundCompletePayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerEggs int    `json:"playerEggs"`
	SessionID  string `json:"sessionId"`
	Completed  bool   `json:"completed"`
}
