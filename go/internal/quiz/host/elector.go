// Package host decides once per session attach whether the local client is the
// authoritative host.
package host

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RoomStore is what the elector needs from the room/participant store
type RoomStore interface {
	GetRoomIDByCode(ctx context.Context, roomCode string) (uuid.UUID, error)
	IsParticipantHost(ctx context.Context, roomID uuid.UUID, participantID string) (bool, error)
}

// DefaultLookupTimeout bounds the host lookup so a slow store cannot stall attach
const DefaultLookupTimeout = 5 * time.Second

// Elector resolves the host flag through a RoomStore
type Elector struct {
	store   RoomStore
	timeout time.Duration
}

// NewElector creates an elector over store
func NewElector(store RoomStore) *Elector {
	return &Elector{store: store, timeout: DefaultLookupTimeout}
}

// IsHost reports whether participantID is the host of roomCode.
// Every failure degrades to follower; followers cannot corrupt round state.
func (e *Elector) IsHost(ctx context.Context, roomCode, participantID string) bool {
	if e.store == nil || roomCode == "" || participantID == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	roomID, err := e.store.GetRoomIDByCode(ctx, roomCode)
	if err != nil {
		log.Warn().
			Err(err).
			Str("room_code", roomCode).
			Msg("room lookup failed; joining as follower")
		return false
	}

	isHost, err := e.store.IsParticipantHost(ctx, roomID, participantID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("room_id", roomID.String()).
			Str("participant_id", participantID).
			Msg("host lookup failed; joining as follower")
		return false
	}

	log.Info().
		Str("room_code", roomCode).
		Str("participant_id", participantID).
		Bool("is_host", isHost).
		Msg("resolved session role")

	return isHost
}

// Static is a RoomStore-free elector answer, used for offline play and tests
type Static bool

// IsHost returns the static value
func (s Static) IsHost(ctx context.Context, roomCode, participantID string) bool {
	return bool(s)
}
