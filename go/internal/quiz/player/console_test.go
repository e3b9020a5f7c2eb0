package player

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/quiz/round"
	"github.com/stretchr/testify/assert"
)

func testRound() *models.Round {
	return &models.Round{
		Number: 3,
		Question: models.RoundQuestion{
			Song:               models.SongRef{Title: "Gamma", Artist: "The Letters"},
			Options:            []string{"Alpha", "Beta", "Gamma", "Delta"},
			CorrectAnswerIndex: 2,
		},
		Settings: models.DefaultRoundSettings(),
	}
}

func TestConsole_Output(t *testing.T) {
	tests := []struct {
		name string
		emit func(c *Console)
		want string
	}{
		{
			name: "playing lists options",
			emit: func(c *Console) { c.OnPhase(round.PhasePlaying, testRound()) },
			want: "\nRound 3/10: name the song (15s)\n  1) Alpha\n  2) Beta\n  3) Gamma\n  4) Delta\n",
		},
		{
			name: "reveal shows the answer",
			emit: func(c *Console) { c.OnPhase(round.PhaseReveal, testRound()) },
			want: "Answer: 3) Gamma by The Letters\n",
		},
		{
			name: "ticks are sparse",
			emit: func(c *Console) {
				for _, remaining := range []int{15, 14, 10, 4, 3, 0} {
					c.OnTick(remaining)
				}
			},
			want: "  15s left\n  10s left\n  3s left\n  0s left\n",
		},
		{
			name: "notice",
			emit: func(c *Console) { c.OnNotice(errors.New("no active songs")) },
			want: "! no active songs\n",
		},
		{
			name: "answers in option order",
			emit: func(c *Console) {
				c.OnAnswers(map[int][]models.Player{
					2: {{DisplayName: "carol"}},
					0: {{DisplayName: "alice"}, {DisplayName: "bob"}},
				})
			},
			want: "  answers: 1) alice, bob  3) carol\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(&out, 10, nil)
			tt.emit(c)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestConsole_OnNavigateSignalsOnce(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, 10, nil)

	signal := round.NavigationSignal{RoomCode: "ABC123", PlayerEggs: 95, SessionID: "s1"}
	c.OnNavigate(signal)
	c.OnNavigate(signal)

	assert.Equal(t, signal, <-c.Finished)
	assert.Empty(t, c.Finished)
	assert.Contains(t, out.String(), "you earned 95 eggs")
}
