// Package results records finished sessions on a JetStream stream consumed by
// the global scoring service.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// ErrNotCompletion is returned when Record is handed anything but ROUND_COMPLETE
var ErrNotCompletion = errors.New("event is not a session completion")

type Config struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	Replicas        int
	DuplicateWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:             nats.DefaultURL,
		StreamName:      "QUIZ_RESULTS",
		SubjectPrefix:   "quiz.results",
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		MaxAge:          30 * 24 * time.Hour,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
	}
}

// Result is the message body stored on the stream
type Result struct {
	SessionID  string    `json:"sessionId"`
	RoomCode   string    `json:"roomCode"`
	HostID     string    `json:"hostId"`
	HostEggs   int       `json:"hostEggs"`
	Completed  bool      `json:"completed"`
	FinishedAt time.Time `json:"finishedAt"`
	RecordedAt time.Time `json:"recordedAt"`
}

// publisher is the part of jetstream.JetStream the recorder needs
type publisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Recorder publishes session completions to JetStream
type Recorder struct {
	nc     *nats.Conn
	js     publisher
	config Config
	clock  clockwork.Clock
}

// NewRecorder connects to NATS and makes sure the results stream exists
func NewRecorder(ctx context.Context, cfg Config) (*Recorder, error) {
	opts := []nats.Option{
		nats.Name("tunequiz-results"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, streamConfig(cfg)); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	log.Info().Str("stream", cfg.StreamName).Msg("results stream ready")

	r := newRecorder(js, cfg, clockwork.NewRealClock())
	r.nc = nc
	return r, nil
}

func newRecorder(js publisher, cfg Config, clock clockwork.Clock) *Recorder {
	return &Recorder{js: js, config: cfg, clock: clock}
}

func streamConfig(cfg Config) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Finished tunequiz sessions for global scoring",
		Subjects:    []string{fmt.Sprintf("%s.>", cfg.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    cfg.Replicas,
		Duplicates:  cfg.DuplicateWindow,
	}
}

// Subject returns the subject a session's result is published on
func (r *Recorder) Subject(sessionID string) string {
	return fmt.Sprintf("%s.%s", r.config.SubjectPrefix, sessionID)
}

// Record publishes a ROUND_COMPLETE event. The event ID doubles as the
// JetStream message ID, so a completion relayed twice is stored once.
func (r *Recorder) Record(ctx context.Context, event *events.Event) error {
	if event.Type != events.EventTypeRoundComplete {
		return ErrNotCompletion
	}

	var payload events.RoundCompletePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode ROUND_COMPLETE payload: %w", err)
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = event.SessionID
	}
	result := Result{
		SessionID:  sessionID,
		RoomCode:   payload.RoomCode,
		HostID:     event.SenderID,
		HostEggs:   payload.PlayerEggs,
		Completed:  payload.Completed,
		FinishedAt: event.Timestamp,
		RecordedAt: r.clock.Now().UTC(),
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	subject := r.Subject(sessionID)
	ack, err := r.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Session-ID": []string{sessionID},
			"Event-ID":   []string{event.ID},
		},
	},
		jetstream.WithMsgID(event.ID),
		jetstream.WithExpectStream(r.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Info().
		Str("subject", subject).
		Str("session_id", sessionID).
		Uint64("sequence", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("recorded session result")

	return nil
}

func (r *Recorder) Close() error {
	if r.nc != nil {
		r.nc.Close()
	}
	return nil
}
