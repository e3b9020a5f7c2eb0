package results

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	msgs []*nats.Msg
	opts [][]jetstream.PublishOpt
	err  error
}

func (f *fakePublisher) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	f.opts = append(f.opts, opts)
	return &jetstream.PubAck{Stream: "QUIZ_RESULTS", Sequence: uint64(len(f.msgs))}, nil
}

var (
	finishedAt = time.Date(2025, 6, 1, 18, 5, 0, 0, time.UTC)
	recordedAt = time.Date(2025, 6, 1, 18, 5, 1, 0, time.UTC)
)

func completionEvent(t *testing.T, payload events.RoundCompletePayload) *events.Event {
	t.Helper()
	event, err := events.NewEvent("sess-1", "host-1", events.EventTypeRoundComplete, payload, finishedAt)
	require.NoError(t, err)
	return event
}

func TestRecorder_Record(t *testing.T) {
	pub := &fakePublisher{}
	r := newRecorder(pub, DefaultConfig(), clockwork.NewFakeClockAt(recordedAt))

	event := completionEvent(t, events.RoundCompletePayload{
		RoomCode:   "ABC123",
		PlayerEggs: 95,
		SessionID:  "sess-1",
		Completed:  true,
	})
	require.NoError(t, r.Record(context.Background(), event))

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, "quiz.results.sess-1", msg.Subject)
	assert.Equal(t, "sess-1", msg.Header.Get("Session-ID"))
	assert.Equal(t, event.ID, msg.Header.Get("Event-ID"))
	assert.Len(t, pub.opts[0], 2)

	var got Result
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, Result{
		SessionID:  "sess-1",
		RoomCode:   "ABC123",
		HostID:     "host-1",
		HostEggs:   95,
		Completed:  true,
		FinishedAt: finishedAt,
		RecordedAt: recordedAt,
	}, got)
}

func TestRecorder_RecordFallsBackToEnvelopeSession(t *testing.T) {
	pub := &fakePublisher{}
	r := newRecorder(pub, DefaultConfig(), clockwork.NewFakeClockAt(recordedAt))

	require.NoError(t, r.Record(context.Background(), completionEvent(t, events.RoundCompletePayload{RoomCode: "ABC123"})))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "quiz.results.sess-1", pub.msgs[0].Subject)
}

func TestRecorder_RecordErrors(t *testing.T) {
	answer, err := events.NewEvent("sess-1", "p1", events.EventTypeAnswer, events.AnswerPayload{}, finishedAt)
	require.NoError(t, err)

	garbled := completionEvent(t, events.RoundCompletePayload{})
	garbled.Data = json.RawMessage(`"not an object"`)

	tests := []struct {
		name    string
		event   *events.Event
		pubErr  error
		wantErr error
	}{
		{name: "not a completion", event: answer, wantErr: ErrNotCompletion},
		{name: "bad payload", event: garbled},
		{name: "publish fails", event: completionEvent(t, events.RoundCompletePayload{SessionID: "sess-1"}), pubErr: errors.New("no responders")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{err: tt.pubErr}
			r := newRecorder(pub, DefaultConfig(), clockwork.NewFakeClock())

			err := r.Record(context.Background(), tt.event)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, pub.msgs)
		})
	}
}

func TestStreamConfig(t *testing.T) {
	cfg := DefaultConfig()
	sc := streamConfig(cfg)

	assert.Equal(t, "QUIZ_RESULTS", sc.Name)
	assert.Equal(t, []string{"quiz.results.>"}, sc.Subjects)
	assert.Equal(t, jetstream.FileStorage, sc.Storage)
	assert.Equal(t, cfg.DuplicateWindow, sc.Duplicates)
}
