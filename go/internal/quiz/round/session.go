// Package round drives one client's view of a quiz session: the round state
// machine, the local countdown, answer aggregation and scoring.
//
// All mutable state is owned by a single loop goroutine (Run). Channel events,
// timer ticks and caller commands are funnelled into that loop, so no handler ever
// observes a half-applied round.
package round

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"github.com/mcdev12/tunequiz/go/internal/quiz/answers"
	"github.com/mcdev12/tunequiz/go/internal/quiz/channel"
	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
	"github.com/mcdev12/tunequiz/go/internal/quiz/scoring"
	"github.com/mcdev12/tunequiz/go/internal/quiz/timer"
	"github.com/rs/zerolog/log"
)

const (
	inboundBuffer         = 64
	defaultPublishTimeout = 5 * time.Second
)

// QuestionSource produces the question for the next round
type QuestionSource interface {
	Generate(ctx context.Context) (*models.RoundQuestion, error)
}

// HostElector resolves whether a participant is the room host
type HostElector interface {
	IsHost(ctx context.Context, roomCode, participantID string) bool
}

// Config holds the per-session settings
type Config struct {
	Session models.Session
	Self    models.Player

	// Settings is the snapshot the host stamps into every ROUND_START
	Settings    models.RoundSettings
	TotalRounds int
	RevealDelay time.Duration

	// AllowStaleRounds applies every ROUND_START even if its round number
	// is not greater than the last one applied.
	AllowStaleRounds bool

	PublishTimeout time.Duration
	Clock          clockwork.Clock
}

func (c Config) withDefaults() Config {
	if c.Settings == (models.RoundSettings{}) {
		c.Settings = models.DefaultRoundSettings()
	}
	if c.TotalRounds <= 0 {
		c.TotalRounds = models.TotalRounds
	}
	if c.RevealDelay <= 0 {
		c.RevealDelay = timer.RevealDelay
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}

// Snapshot is a read-only copy of the session state
type Snapshot struct {
	Phase     Phase
	IsHost    bool
	Round     *models.Round
	Remaining int
	Answered  bool
	Score     models.LocalScore
	Answers   map[int][]models.Player
}

// Session is one client's round session
type Session struct {
	cfg       Config
	channel   channel.Channel
	elector   HostElector
	questions QuestionSource
	observer  Observer
	clock     clockwork.Clock

	inbound   chan *events.Event
	commands  chan func(ctx context.Context)
	done      chan struct{}
	stopped   chan struct{}
	running   atomic.Bool
	closeOnce sync.Once

	// loop-owned state
	offline     bool
	isHost      bool
	phase       Phase
	round       *models.Round
	lastApplied int
	answers     *answers.Aggregator
	answered    bool
	score       models.LocalScore
	countdown   *timer.Countdown
	revealAlarm *timer.Alarm
	sub         channel.Subscription
}

// NewSession wires a session. ch and elector may be nil for an offline session.
func NewSession(cfg Config, ch channel.Channel, elector HostElector, questions QuestionSource, observer Observer) *Session {
	cfg = cfg.withDefaults()
	if observer == nil {
		observer = NopObserver{}
	}
	return &Session{
		cfg:         cfg,
		channel:     ch,
		elector:     elector,
		questions:   questions,
		observer:    observer,
		clock:       cfg.Clock,
		inbound:     make(chan *events.Event, inboundBuffer),
		commands:    make(chan func(ctx context.Context)),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		offline:     cfg.Session.Offline() || ch == nil,
		phase:       PhaseIdle,
		answers:     answers.NewAggregator(),
		countdown:   timer.NewCountdown(cfg.Clock),
		revealAlarm: timer.NewAlarm(cfg.Clock),
	}
}

// Run attaches to the session and processes events until ctx is cancelled or
// Close is called. Subscription and timers are released before Run returns.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		// unblock handlers waiting in enqueue before unsubscribing
		s.closeOnce.Do(func() {
			close(s.done)
		})
		s.release()
		close(s.stopped)
	}()

	select {
	case <-s.done:
		return nil
	default:
	}

	if err := s.attach(ctx); err != nil {
		log.Error().Err(err).
			Str("session_id", s.cfg.Session.SessionID).
			Msg("Failed to attach to session channel")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case event := <-s.inbound:
			s.handleEvent(ctx, event)
		case cmd := <-s.commands:
			cmd(ctx)
		case <-s.countdown.C():
			s.handleTick()
		case <-s.revealAlarm.C():
			s.revealAlarm.Fired()
			s.handleRevealElapsed(ctx)
		}
	}
}

// Close stops the loop and waits for it to release the subscription and timers
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	if s.running.Load() {
		<-s.stopped
	}
	return nil
}

// Start begins the game. Only the host (or an offline player) may start.
func (s *Session) Start(ctx context.Context) error {
	return s.call(ctx, s.start)
}

// Retry re-attempts a host transition that stalled on question generation
func (s *Session) Retry(ctx context.Context) error {
	return s.call(ctx, s.retry)
}

// Submit records the local player's answer for whichever round is being
// played and returns the score delta it earned
func (s *Session) Submit(ctx context.Context, optionIndex int) (int, error) {
	return s.SubmitRound(ctx, 0, optionIndex)
}

// SubmitRound is Submit pinned to roundNumber. It returns ErrNotPlaying once
// that round has been replaced, so a delayed answer never lands in a later round.
// A zero roundNumber matches any round.
func (s *Session) SubmitRound(ctx context.Context, roundNumber, optionIndex int) (int, error) {
	var delta int
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		delta, err = s.submit(ctx, roundNumber, optionIndex)
		return err
	})
	return delta, err
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.call(ctx, func(context.Context) error {
		snap = s.snapshot()
		return nil
	})
	return snap, err
}

// call runs fn on the loop goroutine and waits for its result
func (s *Session) call(ctx context.Context, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	cmd := func(loopCtx context.Context) {
		result <- fn(loopCtx)
	}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-result
}

// enqueue is the channel handler; it hands events to the loop
func (s *Session) enqueue(event *events.Event) {
	select {
	case s.inbound <- event:
	case <-s.done:
	}
}

func (s *Session) attach(ctx context.Context) error {
	if s.offline {
		s.isHost = true
		log.Info().Str("player_id", s.cfg.Self.ID).Msg("Starting offline session")
		return nil
	}

	if s.elector != nil {
		s.isHost = s.elector.IsHost(ctx, s.cfg.Session.RoomCode, s.cfg.Self.ID)
	}

	sub, err := s.channel.Subscribe(ctx, s.cfg.Session.SessionID, s.enqueue)
	if err != nil {
		return err
	}
	s.sub = sub

	log.Info().
		Str("session_id", s.cfg.Session.SessionID).
		Str("room_code", s.cfg.Session.RoomCode).
		Str("player_id", s.cfg.Self.ID).
		Bool("is_host", s.isHost).
		Msg("Attached to session")
	return nil
}

func (s *Session) release() {
	s.countdown.Stop()
	s.revealAlarm.Disarm()
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Str("session_id", s.cfg.Session.SessionID).Msg("Failed to unsubscribe")
		}
		s.sub = nil
	}
}

func (s *Session) start(ctx context.Context) error {
	if s.phase != PhaseIdle {
		return ErrAlreadyStarted
	}
	if s.offline {
		return s.startOffline(ctx)
	}
	if !s.isHost {
		return ErrNotHost
	}
	s.setPhase(PhaseTransition)
	return s.advance(ctx)
}

func (s *Session) startOffline(ctx context.Context) error {
	question, err := s.questions.Generate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate offline question")
		s.observer.OnNotice(err)
		return err
	}
	s.applyRoundStart(s.roundStartPayload(1, question))
	return nil
}

func (s *Session) retry(ctx context.Context) error {
	if s.offline || !s.isHost || s.phase != PhaseTransition {
		return ErrNothingToRetry
	}
	return s.advance(ctx)
}

// advance moves the host from Transition to the next round, or completes the
// game when every round has been played.
func (s *Session) advance(ctx context.Context) error {
	if s.round != nil && s.round.IsLast(s.cfg.TotalRounds) {
		s.complete(ctx)
		return nil
	}
	next := s.lastApplied + 1

	question, err := s.questions.Generate(ctx)
	if err != nil {
		log.Error().Err(err).
			Str("session_id", s.cfg.Session.SessionID).
			Int("round", next).
			Msg("Failed to generate question")
		s.observer.OnNotice(err)
		return err
	}

	payload := s.roundStartPayload(next, question)
	event, err := events.NewEvent(s.cfg.Session.SessionID, s.cfg.Self.ID, events.EventTypeRoundStart, payload, s.clock.Now())
	if err != nil {
		s.observer.OnNotice(err)
		return err
	}

	// the host applies the same payload it broadcasts
	s.applyRoundStart(payload)
	s.publish(ctx, event)
	return nil
}

func (s *Session) roundStartPayload(number int, question *models.RoundQuestion) events.RoundStartPayload {
	return events.RoundStartPayload{
		Question:  *question,
		Round:     number,
		Settings:  s.cfg.Settings,
		StartedAt: s.clock.Now().UnixMilli(),
	}
}

func (s *Session) complete(ctx context.Context) {
	payload := events.RoundCompletePayload{
		RoomCode:   s.cfg.Session.RoomCode,
		PlayerEggs: s.score.PlayerEggs,
		SessionID:  s.cfg.Session.SessionID,
		Completed:  true,
	}
	event, err := events.NewEvent(s.cfg.Session.SessionID, s.cfg.Self.ID, events.EventTypeRoundComplete, payload, s.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build round complete event")
	} else {
		s.publish(ctx, event)
	}
	s.finish()
}

func (s *Session) finish() {
	if s.phase.Terminal() {
		return
	}
	s.countdown.Stop()
	s.revealAlarm.Disarm()
	if !s.setPhase(PhaseFinished) {
		return
	}
	log.Info().
		Str("session_id", s.cfg.Session.SessionID).
		Int("player_eggs", s.score.PlayerEggs).
		Msg("Session finished")
	s.observer.OnNavigate(NavigationSignal{
		RoomCode:   s.cfg.Session.RoomCode,
		PlayerEggs: s.score.PlayerEggs,
		SessionID:  s.cfg.Session.SessionID,
	})
}

func (s *Session) handleEvent(ctx context.Context, event *events.Event) {
	if event.SessionID != "" && event.SessionID != s.cfg.Session.SessionID {
		log.Debug().Str("event_session_id", event.SessionID).Msg("Dropping event for another session")
		return
	}

	payload, err := events.ParseEventPayload(event)
	if err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("Dropping malformed event")
		return
	}

	switch p := payload.(type) {
	case events.RoundStartPayload:
		if event.SenderID == s.cfg.Self.ID {
			return
		}
		s.applyRoundStart(p)
	case events.AnswerPayload:
		s.receiveAnswer(p)
	case events.RoundCompletePayload:
		if event.SenderID == s.cfg.Self.ID {
			return
		}
		s.finish()
	default:
		log.Debug().Str("event_type", string(event.Type)).Msg("Ignoring unknown event type")
	}
}

// applyRoundStart replaces the current round wholesale with the payload's
func (s *Session) applyRoundStart(payload events.RoundStartPayload) {
	if s.phase.Terminal() {
		return
	}
	if !s.cfg.AllowStaleRounds && payload.Round <= s.lastApplied {
		log.Debug().
			Int("round", payload.Round).
			Int("last_applied", s.lastApplied).
			Msg("Ignoring stale round start")
		return
	}
	if err := payload.Question.Validate(); err != nil {
		log.Warn().Err(err).Int("round", payload.Round).Msg("Ignoring round start with invalid question")
		return
	}
	if payload.Settings.TimePerQuestion < 1 {
		log.Warn().Int("round", payload.Round).Msg("Ignoring round start without a time limit")
		return
	}

	s.round = payload.ToRound()
	s.lastApplied = payload.Round
	s.answers.Reset()
	s.answered = false
	s.revealAlarm.Disarm()

	remaining := timer.InitialCountdown(payload.Settings.TimePerQuestion, payload.StartTime(), s.clock.Now())
	s.countdown.Start(remaining)

	log.Info().
		Str("session_id", s.cfg.Session.SessionID).
		Int("round", payload.Round).
		Int("remaining", remaining).
		Msg("Round started")

	s.setPhase(PhasePlaying)
	s.observer.OnTick(remaining)
	s.observer.OnAnswers(s.answers.Groups())
}

func (s *Session) receiveAnswer(p events.AnswerPayload) {
	if !s.phase.AcceptsAnswers() || s.round == nil {
		log.Debug().Str("participant_id", p.ParticipantID).Msg("Dropping answer outside playing phase")
		return
	}
	if p.Round != 0 && p.Round != s.round.Number {
		log.Debug().Int("round", p.Round).Int("current", s.round.Number).Msg("Dropping answer for another round")
		return
	}
	if p.AnswerIndex < 0 || p.AnswerIndex >= len(s.round.Question.Options) {
		log.Warn().Int("answer_index", p.AnswerIndex).Msg("Dropping answer with invalid option")
		return
	}

	record := p.Record()
	record.Round = s.round.Number
	if prior, exists := s.answers.Get(record.PlayerID); exists {
		log.Debug().
			Str("participant_id", record.PlayerID).
			Int("kept_answer_index", prior.OptionIndex).
			Msg("Dropping duplicate answer")
		return
	}
	s.answers.Add(record)
	log.Debug().
		Str("participant_id", record.PlayerID).
		Int("round", record.Round).
		Int("answers", s.answers.Count()).
		Msg("Answer received")
	s.observer.OnAnswers(s.answers.Groups())
}

func (s *Session) submit(ctx context.Context, roundNumber, optionIndex int) (int, error) {
	if !s.phase.AcceptsAnswers() || s.round == nil {
		return 0, ErrNotPlaying
	}
	if roundNumber != 0 && roundNumber != s.round.Number {
		return 0, ErrNotPlaying
	}
	if s.answered || s.answers.Has(s.cfg.Self.ID) {
		return 0, ErrAlreadyAnswered
	}
	if optionIndex < 0 || optionIndex >= len(s.round.Question.Options) {
		return 0, ErrInvalidOption
	}

	remaining := s.countdown.Remaining()
	s.answers.Add(models.AnswerRecord{
		Round:       s.round.Number,
		OptionIndex: optionIndex,
		PlayerID:    s.cfg.Self.ID,
		DisplayName: s.cfg.Self.DisplayName,
		Avatar:      s.cfg.Self.Avatar,
	})
	s.answered = true

	correct := s.round.Question.IsCorrect(optionIndex)
	delta := scoring.Delta(correct, remaining, s.round.Settings)
	s.score.PlayerEggs += delta
	s.score.AnswerTime = s.round.Settings.TimePerQuestion - remaining

	log.Info().
		Int("round", s.round.Number).
		Int("option", optionIndex).
		Bool("correct", correct).
		Bool("fast", correct && scoring.IsFast(remaining, s.round.Settings)).
		Int("delta", delta).
		Int("remaining", remaining).
		Msg("Answer submitted")

	s.observer.OnAnswers(s.answers.Groups())

	if !s.offline {
		payload := events.AnswerPayload{
			AnswerIndex:   optionIndex,
			ParticipantID: s.cfg.Self.ID,
			Name:          s.cfg.Self.DisplayName,
			Avatar:        s.cfg.Self.Avatar,
			Round:         s.round.Number,
		}
		event, err := events.NewEvent(s.cfg.Session.SessionID, s.cfg.Self.ID, events.EventTypeAnswer, payload, s.clock.Now())
		if err != nil {
			log.Error().Err(err).Msg("Failed to build answer event")
		} else {
			s.publish(ctx, event)
		}
	}
	return delta, nil
}

func (s *Session) handleTick() {
	remaining, expired := s.countdown.Tick()
	s.observer.OnTick(remaining)
	if !expired || s.phase != PhasePlaying {
		return
	}

	// arm before announcing Reveal so observers see a consistent host state
	if s.isHost && !s.offline {
		s.revealAlarm.Arm(s.cfg.RevealDelay)
	}
	s.setPhase(PhaseReveal)
}

func (s *Session) handleRevealElapsed(ctx context.Context) {
	if !s.isHost || s.phase != PhaseReveal {
		return
	}
	s.setPhase(PhaseTransition)
	// a generation failure leaves the host in Transition until Retry
	_ = s.advance(ctx)
}

// setPhase moves to phase if the move is legal and notifies the observer
func (s *Session) setPhase(phase Phase) bool {
	if !CanTransition(s.phase, phase) {
		log.Warn().
			Str("from", string(s.phase)).
			Str("to", string(phase)).
			Msg("Illegal phase transition")
		return false
	}
	s.phase = phase
	s.observer.OnPhase(phase, copyRound(s.round))
	return true
}

// publish broadcasts event; failures are logged and not retried
func (s *Session) publish(ctx context.Context, event *events.Event) {
	if s.offline {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()

	if err := s.channel.Publish(pctx, event); err != nil {
		log.Error().Err(err).
			Str("session_id", s.cfg.Session.SessionID).
			Str("event_type", string(event.Type)).
			Msg("Failed to publish event")
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Phase:     s.phase,
		IsHost:    s.isHost,
		Round:     copyRound(s.round),
		Remaining: s.countdown.Remaining(),
		Answered:  s.answered,
		Score:     s.score,
		Answers:   s.answers.Groups(),
	}
}

func copyRound(r *models.Round) *models.Round {
	if r == nil {
		return nil
	}
	c := *r
	c.Question.Options = append([]string(nil), r.Question.Options...)
	return &c
}
