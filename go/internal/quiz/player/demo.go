package player

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/quiz/channel"
	"github.com/mcdev12/tunequiz/go/internal/quiz/host"
	"github.com/mcdev12/tunequiz/go/internal/quiz/round"
	"golang.org/x/sync/errgroup"
)

// DemoOptions configures an in-process game between bots
type DemoOptions struct {
	Round     round.Config // Session and Self are filled in per bot
	Bots      int          // followers next to the host bot
	MaxDelay  time.Duration
	Questions round.QuestionSource
	Out       io.Writer // receives the host's console
	Seed      int64
}

// DemoResult is one bot's final score
type DemoResult struct {
	Player models.Player
	Eggs   int
}

// RunDemo plays a full game between a host bot and opts.Bots followers over an
// in-memory channel and returns the scores, best first.
func RunDemo(ctx context.Context, opts DemoOptions) ([]DemoResult, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	clock := opts.Round.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := channel.NewMemoryHub()
	session := models.Session{RoomCode: "DEMO", SessionID: uuid.New().String()}
	totalRounds := opts.Round.TotalRounds
	if totalRounds <= 0 {
		totalRounds = models.TotalRounds
	}

	type seat struct {
		player  models.Player
		session *round.Session
		console *Console
	}
	seats := make([]seat, 0, opts.Bots+1)

	for i := 0; i <= opts.Bots; i++ {
		isHost := i == 0
		p := models.Player{ID: fmt.Sprintf("bot-%d", i), DisplayName: fmt.Sprintf("Bot %d", i)}
		if isHost {
			p.DisplayName = "Host"
		}

		out := io.Discard
		if isHost {
			out = opts.Out
		}
		bot := NewBot(ctx, clock, rand.New(rand.NewSource(opts.Seed+int64(i))), opts.MaxDelay)
		console := NewConsole(out, totalRounds, bot)

		cfg := opts.Round
		cfg.Session = session
		cfg.Self = p
		cfg.Clock = clock

		var questions round.QuestionSource
		if isHost {
			questions = opts.Questions
		}
		s := round.NewSession(cfg, hub.Channel(p.ID), host.Static(isHost), questions, console)
		bot.Attach(s)
		seats = append(seats, seat{player: p, session: s, console: console})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, st := range seats {
		s := st.session
		g.Go(func() error {
			if err := s.Run(gctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	// every bot must be subscribed before the first ROUND_START goes out
	for hub.Subscribers(session.SessionID) < len(seats) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := seats[0].session.Start(ctx); err != nil {
		return nil, fmt.Errorf("start demo: %w", err)
	}

	results := make([]DemoResult, 0, len(seats))
	for _, st := range seats {
		select {
		case signal := <-st.console.Finished:
			results = append(results, DemoResult{Player: st.player, Eggs: signal.PlayerEggs})
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	for _, st := range seats {
		st.session.Close()
	}
	cancel()
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Eggs > results[j].Eggs })
	return results, nil
}
