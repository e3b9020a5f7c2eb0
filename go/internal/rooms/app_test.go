package rooms

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rooms        map[string]uuid.UUID
	hosts        map[uuid.UUID]string
	participants []models.Participant
	takenCodes   map[string]bool
	createCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rooms:      make(map[string]uuid.UUID),
		hosts:      make(map[uuid.UUID]string),
		takenCodes: make(map[string]bool),
	}
}

func (f *fakeRepo) GetRoomIDByCode(ctx context.Context, code string) (uuid.UUID, error) {
	id, ok := f.rooms[code]
	if !ok {
		return uuid.Nil, ErrRoomNotFound
	}
	return id, nil
}

func (f *fakeRepo) IsParticipantHost(ctx context.Context, roomID uuid.UUID, participantID string) (bool, error) {
	return f.hosts[roomID] == participantID, nil
}

func (f *fakeRepo) CreateRoom(ctx context.Context, code string, host models.Participant) (*models.Room, error) {
	f.createCalls++
	if f.takenCodes[code] {
		return nil, ErrRoomCodeTaken
	}
	id := uuid.New()
	f.rooms[code] = id
	f.hosts[id] = host.ParticipantID
	return &models.Room{ID: id, Code: code}, nil
}

func (f *fakeRepo) AddParticipant(ctx context.Context, participant models.Participant) (*models.Participant, error) {
	f.participants = append(f.participants, participant)
	return &participant, nil
}

func sequenceCodes(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		if i >= len(codes) {
			return "", errors.New("out of codes")
		}
		code := codes[i]
		i++
		return code, nil
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeCode("  abc123 "))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	require.Len(t, code, CodeLength)
	for _, r := range code {
		assert.Contains(t, codeAlphabet, string(r))
	}
}

func TestApp_CreateRoom(t *testing.T) {
	host := models.Player{ID: "host-1", DisplayName: "Hana", Avatar: "🦊"}

	tests := []struct {
		name      string
		taken     []string
		codes     []string
		wantCode  string
		wantCalls int
		wantErr   error
	}{
		{name: "first code free", codes: []string{"AAAAAA"}, wantCode: "AAAAAA", wantCalls: 1},
		{name: "collision retried", taken: []string{"AAAAAA"}, codes: []string{"AAAAAA", "BBBBBB"}, wantCode: "BBBBBB", wantCalls: 2},
		{
			name:      "gives up after max attempts",
			taken:     []string{"A", "B", "C", "D", "E"},
			codes:     []string{"A", "B", "C", "D", "E", "F"},
			wantCalls: maxCodeAttempts,
			wantErr:   ErrRoomCodeTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			for _, code := range tt.taken {
				repo.takenCodes[code] = true
			}
			app := NewApp(repo)
			app.newCode = sequenceCodes(tt.codes...)

			room, err := app.CreateRoom(context.Background(), host)
			assert.Equal(t, tt.wantCalls, repo.createCalls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, room.Code)

			isHost, err := app.IsHost(context.Background(), room.ID, host.ID)
			require.NoError(t, err)
			assert.True(t, isHost)
		})
	}
}

func TestApp_CreateRoomRequiresHostID(t *testing.T) {
	_, err := NewApp(newFakeRepo()).CreateRoom(context.Background(), models.Player{})
	assert.ErrorIs(t, err, ErrInvalidParticipant)
}

func TestApp_JoinRoom(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	roomID := uuid.New()
	repo.rooms["ROOM42"] = roomID
	app := NewApp(repo)

	got, err := app.JoinRoom(ctx, " room42 ", models.Player{ID: "p2", DisplayName: "Pia"})
	require.NoError(t, err)
	assert.Equal(t, roomID, got)
	require.Len(t, repo.participants, 1)
	assert.False(t, repo.participants[0].IsHost, "joiners never become host")

	_, err = app.JoinRoom(ctx, "NOPE", models.Player{ID: "p3"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = app.JoinRoom(ctx, "", models.Player{ID: "p3"})
	assert.ErrorIs(t, err, ErrInvalidRoomCode)

	_, err = app.JoinRoom(ctx, "ROOM42", models.Player{})
	assert.ErrorIs(t, err, ErrInvalidParticipant)
}
