// Package player wires a round session for a terminal client: transport,
// host lookup, question source and a console observer.
package player

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/quiz/round"
)

// Console prints session signals for one player. It never blocks the session loop.
type Console struct {
	out         io.Writer
	totalRounds int
	bot         *Bot

	// Finished receives the navigation signal once the session ends
	Finished chan round.NavigationSignal
}

// NewConsole writes to out. bot may be nil for a human player.
func NewConsole(out io.Writer, totalRounds int, bot *Bot) *Console {
	return &Console{
		out:         out,
		totalRounds: totalRounds,
		bot:         bot,
		Finished:    make(chan round.NavigationSignal, 1),
	}
}

func (c *Console) OnPhase(phase round.Phase, r *models.Round) {
	switch phase {
	case round.PhasePlaying:
		fmt.Fprintf(c.out, "\nRound %d/%d: name the song (%ds)\n", r.Number, c.totalRounds, r.Settings.TimePerQuestion)
		for i, option := range r.Question.Options {
			fmt.Fprintf(c.out, "  %d) %s\n", i+1, option)
		}
		if c.bot != nil {
			c.bot.Answer(r)
		}
	case round.PhaseReveal:
		if r == nil {
			return
		}
		correct := r.Question.CorrectAnswerIndex
		fmt.Fprintf(c.out, "Answer: %d) %s by %s\n", correct+1, r.Question.Options[correct], r.Question.Song.Artist)
	case round.PhaseTransition:
		fmt.Fprintln(c.out, "Preparing next round...")
	}
}

func (c *Console) OnTick(remaining int) {
	if remaining <= 3 || remaining%5 == 0 {
		fmt.Fprintf(c.out, "  %ds left\n", remaining)
	}
}

func (c *Console) OnAnswers(groups map[int][]models.Player) {
	fmt.Fprintf(c.out, "  answers: %s\n", formatAnswers(groups))
}

func (c *Console) OnNotice(err error) {
	fmt.Fprintf(c.out, "! %v\n", err)
}

func (c *Console) OnNavigate(signal round.NavigationSignal) {
	fmt.Fprintf(c.out, "\nGame over in room %s: you earned %d eggs\n", signal.RoomCode, signal.PlayerEggs)
	select {
	case c.Finished <- signal:
	default:
	}
}

// formatAnswers renders groups as "1) alice, bob  3) carol" in option order
func formatAnswers(groups map[int][]models.Player) string {
	options := make([]int, 0, len(groups))
	for option := range groups {
		options = append(options, option)
	}
	sort.Ints(options)

	parts := make([]string, 0, len(options))
	for _, option := range options {
		names := make([]string, 0, len(groups[option]))
		for _, p := range groups[option] {
			names = append(names, p.DisplayName)
		}
		parts = append(parts, fmt.Sprintf("%d) %s", option+1, strings.Join(names, ", ")))
	}
	return strings.Join(parts, "  ")
}
