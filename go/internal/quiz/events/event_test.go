package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundStartWireFormat(t *testing.T) {
	startedAt := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	payload := RoundStartPayload{
		Question: models.RoundQuestion{
			Song:               models.SongRef{ID: "song-1", Title: "Gamma", Artist: "Band", PreviewURL: "https://cdn/preview.mp3", DurationSec: 30},
			Options:            []string{"Alpha", "Beta", "Gamma", "Delta"},
			CorrectAnswerIndex: 2,
		},
		Round:     3,
		Settings:  models.DefaultRoundSettings(),
		StartedAt: startedAt.UnixMilli(),
	}

	event, err := NewEvent("session-1", "host", EventTypeRoundStart, payload, startedAt)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"question": {
			"song": {"id": "song-1", "title": "Gamma", "artist": "Band", "previewUrl": "https://cdn/preview.mp3", "duration": 30},
			"options": ["Alpha", "Beta", "Gamma", "Delta"],
			"correctAnswerIndex": 2
		},
		"round": 3,
		"settings": {"eggs_per_correct": 10, "speed_bonus": 5, "time_per_question": 15},
		"startedAt": 1748800800000
	}`, string(event.Data))

	round := payload.ToRound()
	assert.Equal(t, 3, round.Number)
	assert.True(t, round.StartedAt.Equal(startedAt))
}

func TestDecode(t *testing.T) {
	event, err := NewEvent("session-1", "p1", EventTypeAnswer, AnswerPayload{AnswerIndex: 1, ParticipantID: "p1", Name: "Ann"}, time.Now())
	require.NoError(t, err)
	data, err := event.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "p1", decoded.SenderID)

	_, err = Decode([]byte(`{"id":"x"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseEventPayload(t *testing.T) {
	tests := []struct {
		name    string
		typ     EventType
		data    string
		want    interface{}
		wantErr bool
	}{
		{
			name: "answer",
			typ:  EventTypeAnswer,
			data: `{"answerIndex":2,"participantId":"p1","name":"Ann","avatar":"🐥"}`,
			want: AnswerPayload{AnswerIndex: 2, ParticipantID: "p1", Name: "Ann", Avatar: "🐥"},
		},
		{
			name: "round complete",
			typ:  EventTypeRoundComplete,
			data: `{"roomCode":"ROOM42","playerEggs":40,"sessionId":"s1","completed":true}`,
			want: RoundCompletePayload{RoomCode: "ROOM42", PlayerEggs: 40, SessionID: "s1", Completed: true},
		},
		{
			name:    "malformed round start",
			typ:     EventTypeRoundStart,
			data:    `{"round":"three"}`,
			wantErr: true,
		},
		{
			name: "unknown type is ignored",
			typ:  EventType("CHAT"),
			data: `{"text":"hi"}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEventPayload(&Event{Type: tt.typ, Data: json.RawMessage(tt.data)})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
