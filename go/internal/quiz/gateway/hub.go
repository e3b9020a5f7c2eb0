package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
	"github.com/rs/zerolog/log"
)

// ResultSink receives relayed session completions
type ResultSink interface {
	Record(ctx context.Context, event *events.Event) error
}

// Hub relays frames between the WebSocket connections of a session
type Hub struct {
	// Connection pools organized by session ID
	sessions map[string]map[*Connection]bool
	mu       sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock
	metrics  *Metrics

	relayCh   chan relayMessage
	results   ResultSink
	resultsCh chan *events.Event
}

// Connection is one participant's socket in a session
type Connection struct {
	ID            string
	ParticipantID string
	SessionID     string
	Conn          *websocket.Conn
	Send          chan []byte
	ConnectedAt   time.Time

	hub *Hub
}

// ConnectionConfig holds configuration for relay connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	RelayBuffer     int
	RecordTimeout   time.Duration
	CheckOrigin     func(r *http.Request) bool
}

type relayMessage struct {
	From  *Connection
	Event *events.Event
	Data  []byte
}

// DefaultConnectionConfig returns default relay configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    54 * time.Second, // must be less than ReadTimeout
		MaxMessageSize:  16 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		RelayBuffer:     1000,
		RecordTimeout:   5 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			// Origin filtering happens in the CORS layer
			return true
		},
	}
}

// NewHub creates a relay hub. results may be nil.
func NewHub(config ConnectionConfig, clock clockwork.Clock, metrics *Metrics, results ResultSink) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:    config,
		clock:     clock,
		metrics:   metrics,
		relayCh:   make(chan relayMessage, config.RelayBuffer),
		results:   results,
		resultsCh: make(chan *events.Event, 64),
	}
}

// Start processes relayed frames until ctx is done
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("relay hub started")

	if h.results != nil {
		go h.recordResults(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("relay hub shutting down")
			h.closeAll()
			return
		case message := <-h.relayCh:
			h.handleRelay(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request and joins the session's pool
func (h *Hub) UpgradeConnection(w http.ResponseWriter, r *http.Request, participantID, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:            uuid.New().String(),
		ParticipantID: participantID,
		SessionID:     sessionID,
		Conn:          conn,
		Send:          make(chan []byte, h.config.SendBuffer),
		ConnectedAt:   h.clock.Now(),
		hub:           h,
	}

	h.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("participant_id", participantID).
		Str("session_id", sessionID).
		Msg("WebSocket connection established")

	return nil
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[conn.SessionID] == nil {
		h.sessions[conn.SessionID] = make(map[*Connection]bool)
		h.metrics.sessions.Inc()
	}
	h.sessions[conn.SessionID][conn] = true
	h.metrics.connections.Inc()

	log.Debug().
		Str("connection_id", conn.ID).
		Str("session_id", conn.SessionID).
		Int("session_connections", len(h.sessions[conn.SessionID])).
		Msg("connection registered")
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	connections, exists := h.sessions[conn.SessionID]
	if !exists || !connections[conn] {
		return
	}

	delete(connections, conn)
	close(conn.Send)
	h.metrics.connections.Dec()

	if len(connections) == 0 {
		delete(h.sessions, conn.SessionID)
		h.metrics.sessions.Dec()
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("participant_id", conn.ParticipantID).
		Str("session_id", conn.SessionID).
		Msg("connection unregistered")
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	var all []*Connection
	for _, connections := range h.sessions {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range all {
		h.unregisterConnection(conn)
	}
}

// relay queues a frame read from conn for the session's other connections
func (h *Hub) relay(from *Connection, data []byte) {
	event, err := events.Decode(data)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", from.ID).Msg("dropping malformed frame")
		return
	}
	if event.SessionID != from.SessionID {
		log.Warn().
			Str("connection_id", from.ID).
			Str("session_id", from.SessionID).
			Str("event_session_id", event.SessionID).
			Msg("dropping frame addressed to another session")
		return
	}

	select {
	case h.relayCh <- relayMessage{From: from, Event: event, Data: data}:
	default:
		h.metrics.dropped.Inc()
		log.Warn().Str("session_id", from.SessionID).Msg("relay channel full, dropping message")
	}
}

func (h *Hub) handleRelay(message relayMessage) {
	var slow []*Connection
	delivered := 0

	// Sends happen under the read lock so no Send channel is closed mid-loop
	h.mu.RLock()
	for conn := range h.sessions[message.From.SessionID] {
		if conn == message.From {
			continue
		}
		select {
		case conn.Send <- message.Data:
			delivered++
		default:
			slow = append(slow, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Str("participant_id", conn.ParticipantID).
			Msg("connection send buffer full, closing connection")
		h.metrics.slowConsumers.Inc()
		h.unregisterConnection(conn)
		conn.Conn.Close()
	}

	h.metrics.relayed.WithLabelValues(string(message.Event.Type)).Add(float64(delivered))

	if message.Event.Type == events.EventTypeRoundComplete && h.results != nil {
		select {
		case h.resultsCh <- message.Event:
		default:
			h.metrics.recorded.WithLabelValues("dropped").Inc()
			log.Warn().Str("session_id", message.Event.SessionID).Msg("results queue full, dropping completion")
		}
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("session_id", message.From.SessionID).
		Int("connections", delivered).
		Msg("event relayed")
}

func (h *Hub) recordResults(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-h.resultsCh:
			recordCtx, cancel := context.WithTimeout(ctx, h.config.RecordTimeout)
			err := h.results.Record(recordCtx, event)
			cancel()
			if err != nil {
				h.metrics.recorded.WithLabelValues("error").Inc()
				log.Error().Err(err).Str("session_id", event.SessionID).Msg("failed to record session result")
				continue
			}
			h.metrics.recorded.WithLabelValues("ok").Inc()
		}
	}
}

// Stats summarizes the open connections
type Stats struct {
	TotalConnections   int            `json:"total_connections"`
	ActiveSessions     int            `json:"active_sessions"`
	SessionConnections map[string]int `json:"session_connections"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{
		ActiveSessions:     len(h.sessions),
		SessionConnections: make(map[string]int, len(h.sessions)),
	}
	for sessionID, connections := range h.sessions {
		stats.TotalConnections += len(connections)
		stats.SessionConnections[sessionID] = len(connections)
	}
	return stats
}

// writePump sends queued frames and keepalive pings to the socket
func (c *Connection) writePump() {
	ticker := c.hub.clock.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.hub.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.Chan():
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump feeds frames from the socket into the hub
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		c.hub.relay(c, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}
