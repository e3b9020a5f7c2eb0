package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/rooms/db"
	"github.com/mcdev12/tunequiz/go/internal/sqlutil"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetRoomIDByCode(ctx context.Context, code string) (uuid.UUID, error)
	IsParticipantHost(ctx context.Context, arg db.IsParticipantHostParams) (bool, error)
	AddParticipant(ctx context.Context, arg db.AddParticipantParams) (db.RoomParticipant, error)
}

// Repository implements room and participant data access operations
type Repository struct {
	queries Querier
	db      *sql.DB
}

// NewRepository creates a new rooms repository
func NewRepository(querier Querier, database *sql.DB) *Repository {
	return &Repository{
		queries: querier,
		db:      database,
	}
}

// GetRoomIDByCode resolves a room code to its id
func (r *Repository) GetRoomIDByCode(ctx context.Context, code string) (uuid.UUID, error) {
	id, err := r.queries.GetRoomIDByCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrRoomNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get room by code: %w", err)
	}
	return id, nil
}

// IsParticipantHost reports whether participantID is the room's host.
// A participant that never joined is not the host.
func (r *Repository) IsParticipantHost(ctx context.Context, roomID uuid.UUID, participantID string) (bool, error) {
	isHost, err := r.queries.IsParticipantHost(ctx, db.IsParticipantHostParams{
		RoomID:        roomID,
		ParticipantID: participantID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check host flag: %w", err)
	}
	return isHost, nil
}

// CreateRoom inserts a room and its host participant in one transaction
func (r *Repository) CreateRoom(ctx context.Context, code string, host models.Participant) (*models.Room, error) {
	if r.db == nil {
		return nil, fmt.Errorf("rooms repository has no database for writes")
	}

	var room db.Room
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *db.Queries {
		return db.New(tx)
	}, func(q *db.Queries) error {
		var err error
		room, err = q.CreateRoom(ctx, code)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrRoomCodeTaken
			}
			return fmt.Errorf("failed to create room: %w", err)
		}
		_, err = q.AddParticipant(ctx, participantParams(room.ID, host, true))
		if err != nil {
			return fmt.Errorf("failed to add host participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.Room{ID: room.ID, Code: room.Code, CreatedAt: room.CreatedAt}, nil
}

// AddParticipant joins a non-host participant to a room; rejoining refreshes the profile
func (r *Repository) AddParticipant(ctx context.Context, participant models.Participant) (*models.Participant, error) {
	row, err := r.queries.AddParticipant(ctx, participantParams(participant.RoomID, participant, false))
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	return dbParticipantToModel(row), nil
}

func participantParams(roomID uuid.UUID, p models.Participant, isHost bool) db.AddParticipantParams {
	return db.AddParticipantParams{
		RoomID:        roomID,
		ParticipantID: p.ParticipantID,
		DisplayName:   p.DisplayName,
		Avatar:        sqlutil.ToNullString(p.Avatar),
		IsHost:        isHost,
	}
}

func dbParticipantToModel(row db.RoomParticipant) *models.Participant {
	return &models.Participant{
		RoomID:        row.RoomID,
		ParticipantID: row.ParticipantID,
		DisplayName:   row.DisplayName,
		Avatar:        sqlutil.FromNullString(row.Avatar, ""),
		IsHost:        row.IsHost,
		JoinedAt:      row.JoinedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
