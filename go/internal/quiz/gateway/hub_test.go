package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/quiz/channel"
	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type testGateway struct {
	service *Service
	server  *httptest.Server
	clock   *clockwork.FakeClock
}

func newTestGateway(t *testing.T, sink ResultSink) *testGateway {
	t.Helper()

	clock := clockwork.NewFakeClock()
	cfg := DefaultConfig()
	cfg.Clock = clock
	service := NewService(cfg, sink)

	ctx, cancel := context.WithCancel(context.Background())
	go service.Start(ctx)

	server := httptest.NewServer(service.Handler())
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &testGateway{service: service, server: server, clock: clock}
}

func (g *testGateway) relayURL() string {
	return "ws" + strings.TrimPrefix(g.server.URL, "http") + "/ws/session"
}

type peer struct {
	ch     *channel.WebSocketChannel
	events chan *events.Event
}

func (g *testGateway) join(t *testing.T, participantID, sessionID string) *peer {
	t.Helper()

	cfg := channel.DefaultWebSocketConfig()
	cfg.URL = g.relayURL()
	cfg.ParticipantID = participantID
	p := &peer{
		ch:     channel.NewWebSocketChannel(cfg),
		events: make(chan *events.Event, 16),
	}
	t.Cleanup(func() { p.ch.Close() })

	_, err := p.ch.Subscribe(context.Background(), sessionID, func(event *events.Event) {
		p.events <- event
	})
	require.NoError(t, err)
	return p
}

func (g *testGateway) waitForConnections(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return g.service.Stats().TotalConnections == n
	}, waitFor, 5*time.Millisecond)
}

func newEvent(t *testing.T, sessionID, senderID string, eventType events.EventType, payload interface{}) *events.Event {
	t.Helper()
	event, err := events.NewEvent(sessionID, senderID, eventType, payload, time.Now())
	require.NoError(t, err)
	return event
}

func expectEvent(t *testing.T, ch <-chan *events.Event) *events.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func expectSilence(t *testing.T, ch <-chan *events.Event) {
	t.Helper()
	select {
	case event := <-ch:
		t.Fatalf("unexpected event %s", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeSink struct {
	recorded chan *events.Event
}

func (f *fakeSink) Record(ctx context.Context, event *events.Event) error {
	f.recorded <- event
	return nil
}

func TestRelay_FansOutToOtherConnectionsOfSession(t *testing.T) {
	g := newTestGateway(t, nil)

	alice := g.join(t, "alice", "s1")
	bob := g.join(t, "bob", "s1")
	carol := g.join(t, "carol", "s1")
	dave := g.join(t, "dave", "s2")
	g.waitForConnections(t, 4)

	sent := newEvent(t, "s1", "alice", events.EventTypeAnswer, events.AnswerPayload{AnswerIndex: 1})
	require.NoError(t, alice.ch.Publish(context.Background(), sent))

	for _, p := range []*peer{bob, carol} {
		got := expectEvent(t, p.events)
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, events.EventTypeAnswer, got.Type)
	}
	expectSilence(t, alice.events)
	expectSilence(t, dave.events)

	stats := g.service.Stats()
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, map[string]int{"s1": 3, "s2": 1}, stats.SessionConnections)
}

func TestRelay_DropsFramesForOtherSessions(t *testing.T) {
	g := newTestGateway(t, nil)

	bob := g.join(t, "bob", "s1")

	target := g.relayURL() + "?session_id=s1&participant_id=mallory"
	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	require.NoError(t, err)
	defer conn.Close()
	g.waitForConnections(t, 2)

	foreign, err := newEvent(t, "s2", "mallory", events.EventTypeAnswer, events.AnswerPayload{}).Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, foreign))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	valid := newEvent(t, "s1", "mallory", events.EventTypeAnswer, events.AnswerPayload{AnswerIndex: 3})
	data, err := valid.Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	// frames are relayed in order, so the first one through must be the valid one
	got := expectEvent(t, bob.events)
	assert.Equal(t, valid.ID, got.ID)
	expectSilence(t, bob.events)
}

func TestRelay_ForwardsCompletionsToResults(t *testing.T) {
	sink := &fakeSink{recorded: make(chan *events.Event, 4)}
	g := newTestGateway(t, sink)

	host := g.join(t, "host", "s1")
	follower := g.join(t, "follower", "s1")
	g.waitForConnections(t, 2)

	answer := newEvent(t, "s1", "host", events.EventTypeAnswer, events.AnswerPayload{})
	complete := newEvent(t, "s1", "host", events.EventTypeRoundComplete, events.RoundCompletePayload{
		RoomCode:   "ABC123",
		PlayerEggs: 40,
		SessionID:  "s1",
		Completed:  true,
	})
	require.NoError(t, host.ch.Publish(context.Background(), answer))
	require.NoError(t, host.ch.Publish(context.Background(), complete))

	expectEvent(t, follower.events)
	assert.Equal(t, complete.ID, expectEvent(t, follower.events).ID)

	select {
	case recorded := <-sink.recorded:
		assert.Equal(t, complete.ID, recorded.ID)
	case <-time.After(waitFor):
		t.Fatal("completion was not recorded")
	}
	select {
	case extra := <-sink.recorded:
		t.Fatalf("unexpected recording of %s", extra.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRelay_PingsOnInterval(t *testing.T) {
	g := newTestGateway(t, nil)

	target := g.relayURL() + "?session_id=s1&participant_id=p1"
	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	require.NoError(t, err)
	defer conn.Close()

	pings := make(chan struct{}, 4)
	conn.SetPingHandler(func(string) error {
		pings <- struct{}{}
		return nil
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, g.clock.BlockUntilContext(ctx, 1))

	g.clock.Advance(DefaultConnectionConfig().PingInterval)

	select {
	case <-pings:
	case <-time.After(waitFor):
		t.Fatal("no ping after the ping interval")
	}
}

func TestRelay_UnregistersClosedConnections(t *testing.T) {
	g := newTestGateway(t, nil)

	g.join(t, "alice", "s1")
	bob := g.join(t, "bob", "s1")
	g.waitForConnections(t, 2)

	require.NoError(t, bob.ch.Close())
	g.waitForConnections(t, 1)
	assert.Equal(t, 1, g.service.Stats().ActiveSessions)
}

func TestHub_HandleRelaySkipsSender(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	hub := NewHub(DefaultConnectionConfig(), clockwork.NewFakeClock(), metrics, nil)

	newConn := func(id, sessionID string) *Connection {
		conn := &Connection{ID: id, ParticipantID: id, SessionID: sessionID, Send: make(chan []byte, 1), hub: hub}
		hub.registerConnection(conn)
		return conn
	}
	a := newConn("a", "s1")
	b := newConn("b", "s1")
	c := newConn("c", "s2")

	event := newEvent(t, "s1", "a", events.EventTypeRoundStart, events.RoundStartPayload{})
	hub.handleRelay(relayMessage{From: a, Event: event, Data: []byte("frame")})

	assert.Equal(t, []byte("frame"), <-b.Send)
	assert.Empty(t, a.Send)
	assert.Empty(t, c.Send)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.relayed.WithLabelValues("ROUND_START")))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.connections))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.sessions))

	hub.unregisterConnection(b)
	hub.unregisterConnection(b)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.connections))
	_, open := <-b.Send
	assert.False(t, open)
}

func TestWebSocketHandler_RequiresIDs(t *testing.T) {
	g := newTestGateway(t, nil)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "no session", query: "?participant_id=p1", want: "session_id is required"},
		{name: "no participant", query: "?session_id=s1", want: "participant_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(g.server.URL + "/ws/session" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(body), tt.want)
		})
	}
}

func TestService_HTTPEndpoints(t *testing.T) {
	g := newTestGateway(t, nil)
	g.join(t, "alice", "s1")
	g.waitForConnections(t, 1)

	get := func(path string) (int, string) {
		resp, err := http.Get(g.server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	status, body := get("/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, body = get("/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "tunequiz_relay_connections 1")
	assert.Contains(t, body, "tunequiz_relay_sessions 1")

	status, body = get("/ws/stats")
	assert.Equal(t, http.StatusOK, status)
	var stats Stats
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	assert.Equal(t, Stats{TotalConnections: 1, ActiveSessions: 1, SessionConnections: map[string]int{"s1": 1}}, stats)
}

func TestService_MountsExtraHandlers(t *testing.T) {
	service := NewService(DefaultConfig(), nil)
	handler := service.Handler(Mount{
		Path: "/tunequiz.room.v1.RoomService/",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tunequiz.room.v1.RoomService/ResolveRoom", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
