package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const getRoomIDByCode = `SELECT id FROM rooms WHERE code = $1`

func (q *Queries) GetRoomIDByCode(ctx context.Context, code string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRowContext(ctx, getRoomIDByCode, code).Scan(&id)
	return id, err
}

const isParticipantHost = `
SELECT is_host FROM room_participants
WHERE room_id = $1 AND participant_id = $2
`

type IsParticipantHostParams struct {
	RoomID        uuid.UUID
	ParticipantID string
}

func (q *Queries) IsParticipantHost(ctx context.Context, arg IsParticipantHostParams) (bool, error) {
	var isHost bool
	err := q.db.QueryRowContext(ctx, isParticipantHost, arg.RoomID, arg.ParticipantID).Scan(&isHost)
	return isHost, err
}

const createRoom = `
INSERT INTO rooms (code) VALUES ($1)
RETURNING id, code, created_at
`

func (q *Queries) CreateRoom(ctx context.Context, code string) (Room, error) {
	var i Room
	err := q.db.QueryRowContext(ctx, createRoom, code).Scan(&i.ID, &i.Code, &i.CreatedAt)
	return i, err
}

const addParticipant = `
INSERT INTO room_participants (room_id, participant_id, display_name, avatar, is_host)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (room_id, participant_id) DO UPDATE SET
    display_name = EXCLUDED.display_name,
    avatar       = EXCLUDED.avatar
RETURNING room_id, participant_id, display_name, avatar, is_host, joined_at
`

type AddParticipantParams struct {
	RoomID        uuid.UUID
	ParticipantID string
	DisplayName   string
	Avatar        sql.NullString
	IsHost        bool
}

func (q *Queries) AddParticipant(ctx context.Context, arg AddParticipantParams) (RoomParticipant, error) {
	row := q.db.QueryRowContext(ctx, addParticipant,
		arg.RoomID,
		arg.ParticipantID,
		arg.DisplayName,
		arg.Avatar,
		arg.IsHost,
	)
	var i RoomParticipant
	err := row.Scan(
		&i.RoomID,
		&i.ParticipantID,
		&i.DisplayName,
		&i.Avatar,
		&i.IsHost,
		&i.JoinedAt,
	)
	return i, err
}
