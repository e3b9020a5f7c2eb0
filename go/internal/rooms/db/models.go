package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID        uuid.UUID
	Code      string
	CreatedAt time.Time
}

type RoomParticipant struct {
	RoomID        uuid.UUID
	ParticipantID string
	DisplayName   string
	Avatar        sql.NullString
	IsHost        bool
	JoinedAt      time.Time
}
