package models

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one multiplayer game instance
type Session struct {
	RoomCode  string `json:"roomCode"`
	SessionID string `json:"sessionId"`
}

// Offline reports whether the session has no broadcast topic
func (s Session) Offline() bool {
	return s.SessionID == ""
}

// Room is a lobby identified by a human-entered code
type Room struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant links a client identifier to a room
type Participant struct {
	RoomID        uuid.UUID `json:"room_id"`
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Avatar        string    `json:"avatar"`
	IsHost        bool      `json:"is_host"`
	JoinedAt      time.Time `json:"joined_at"`
}
