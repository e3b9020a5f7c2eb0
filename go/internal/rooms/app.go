package rooms

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6

	// codeAlphabet leaves out characters that are easy to misread
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts = 5
)

// RoomRepository defines what the app needs from the repository layer
type RoomRepository interface {
	GetRoomIDByCode(ctx context.Context, code string) (uuid.UUID, error)
	IsParticipantHost(ctx context.Context, roomID uuid.UUID, participantID string) (bool, error)
	CreateRoom(ctx context.Context, code string, host models.Participant) (*models.Room, error)
	AddParticipant(ctx context.Context, participant models.Participant) (*models.Participant, error)
}

// App handles room business logic
type App struct {
	repo    RoomRepository
	newCode func() (string, error)
}

// NewApp creates a new rooms app
func NewApp(repo RoomRepository) *App {
	return &App{
		repo:    repo,
		newCode: GenerateCode,
	}
}

// NormalizeCode canonicalizes a human-entered room code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateCode returns a random room code
func GenerateCode() (string, error) {
	var b strings.Builder
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// ResolveRoom returns the id of the room with code
func (a *App) ResolveRoom(ctx context.Context, code string) (uuid.UUID, error) {
	code = NormalizeCode(code)
	if code == "" {
		return uuid.Nil, ErrInvalidRoomCode
	}
	return a.repo.GetRoomIDByCode(ctx, code)
}

// IsHost reports whether participantID hosts roomID
func (a *App) IsHost(ctx context.Context, roomID uuid.UUID, participantID string) (bool, error) {
	if participantID == "" {
		return false, ErrInvalidParticipant
	}
	return a.repo.IsParticipantHost(ctx, roomID, participantID)
}

// CreateRoom opens a new room hosted by host, retrying on code collisions
func (a *App) CreateRoom(ctx context.Context, host models.Player) (*models.Room, error) {
	if host.ID == "" {
		return nil, ErrInvalidParticipant
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := a.newCode()
		if err != nil {
			return nil, err
		}
		room, err := a.repo.CreateRoom(ctx, code, models.Participant{
			ParticipantID: host.ID,
			DisplayName:   host.DisplayName,
			Avatar:        host.Avatar,
			IsHost:        true,
		})
		if errors.Is(err, ErrRoomCodeTaken) {
			log.Debug().Str("code", code).Int("attempt", attempt).Msg("Room code collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Info().Str("room_code", room.Code).Str("host_id", host.ID).Msg("Created room")
		return room, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrRoomCodeTaken, maxCodeAttempts)
}

// JoinRoom adds player to the room with code and returns the room id
func (a *App) JoinRoom(ctx context.Context, code string, player models.Player) (uuid.UUID, error) {
	if player.ID == "" {
		return uuid.Nil, ErrInvalidParticipant
	}
	roomID, err := a.ResolveRoom(ctx, code)
	if err != nil {
		return uuid.Nil, err
	}
	_, err = a.repo.AddParticipant(ctx, models.Participant{
		RoomID:        roomID,
		ParticipantID: player.ID,
		DisplayName:   player.DisplayName,
		Avatar:        player.Avatar,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return roomID, nil
}
