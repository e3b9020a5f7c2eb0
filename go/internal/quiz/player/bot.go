package player

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/quiz/round"
	"github.com/rs/zerolog/log"
)

// Submitter is the part of a round session a bot drives
type Submitter interface {
	SubmitRound(ctx context.Context, roundNumber, optionIndex int) (int, error)
}

// Bot answers every round with a random option after a random delay
type Bot struct {
	ctx      context.Context
	session  Submitter
	clock    clockwork.Clock
	rng      *rand.Rand
	maxDelay time.Duration
}

func NewBot(ctx context.Context, clock clockwork.Clock, rng *rand.Rand, maxDelay time.Duration) *Bot {
	return &Bot{ctx: ctx, clock: clock, rng: rng, maxDelay: maxDelay}
}

// Attach sets the session the bot submits to
func (b *Bot) Attach(session Submitter) {
	b.session = session
}

// Answer picks an option on the caller's goroutine and submits it later.
// Submitting has to happen off the session loop, which is the caller here.
func (b *Bot) Answer(r *models.Round) {
	if b.session == nil || len(r.Question.Options) == 0 {
		return
	}
	option := b.rng.Intn(len(r.Question.Options))
	var delay time.Duration
	if b.maxDelay > 0 {
		delay = time.Duration(b.rng.Int63n(int64(b.maxDelay)))
	}

	go func() {
		select {
		case <-b.ctx.Done():
			return
		case <-b.clock.After(delay):
		}
		delta, err := b.session.SubmitRound(b.ctx, r.Number, option)
		switch {
		case err == nil:
			log.Debug().Int("round", r.Number).Int("option", option).Int("delta", delta).Msg("bot answered")
		case errors.Is(err, round.ErrNotPlaying), errors.Is(err, round.ErrAlreadyAnswered), errors.Is(err, round.ErrClosed):
		default:
			log.Warn().Err(err).Int("round", r.Number).Msg("bot failed to answer")
		}
	}()
}
