package channel

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
	"github.com/rs/zerolog/log"
)

// WebSocketConfig holds configuration for the relay gateway client
type WebSocketConfig struct {
	URL              string // e.g., ws://localhost:8081/ws/session
	ParticipantID    string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	MaxMessageSize   int64
}

// DefaultWebSocketConfig returns default relay client configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		URL:              "ws://localhost:8081/ws/session",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		MaxMessageSize:   16 * 1024,
	}
}

// WebSocketChannel talks to the relay gateway, one connection per session
type WebSocketChannel struct {
	config WebSocketConfig
	dialer *websocket.Dialer

	mu     sync.Mutex
	conns  map[string]*wsSession
	closed bool
}

type wsSession struct {
	sessionID string
	conn      *websocket.Conn
	owner     *WebSocketChannel

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewWebSocketChannel creates a relay client; connections open on Subscribe
func NewWebSocketChannel(config WebSocketConfig) *WebSocketChannel {
	return &WebSocketChannel{
		config: config,
		dialer: &websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout},
		conns:  make(map[string]*wsSession),
	}
}

func (c *WebSocketChannel) sessionURL(sessionID string) (string, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("session_id", sessionID)
	q.Set("participant_id", c.config.ParticipantID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe dials the relay for sessionID and starts delivering events to handler
func (c *WebSocketChannel) Subscribe(ctx context.Context, sessionID string, handler Handler) (Subscription, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	previous := c.conns[sessionID]
	c.mu.Unlock()

	if previous != nil {
		_ = previous.Unsubscribe()
	}

	target, err := c.sessionURL(sessionID)
	if err != nil {
		return nil, err
	}

	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay for session %s: %w", sessionID, err)
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	s := &wsSession{
		sessionID: sessionID,
		conn:      conn,
		owner:     c,
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	c.conns[sessionID] = s
	c.mu.Unlock()

	s.wg.Add(1)
	go s.readPump(handler)

	log.Debug().
		Str("session_id", sessionID).
		Str("participant_id", c.config.ParticipantID).
		Msg("connected to relay")

	return s, nil
}

// readPump decodes relay frames until the connection closes
func (s *wsSession) readPump(handler Handler) {
	defer s.wg.Done()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().
						Err(err).
						Str("session_id", s.sessionID).
						Msg("relay connection lost")
				}
			}
			return
		}

		event, err := events.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("session_id", s.sessionID).Msg("dropping malformed relay frame")
			continue
		}
		handler(event)
	}
}

// Publish writes event to the relay connection of its session
func (c *WebSocketChannel) Publish(ctx context.Context, event *events.Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	s := c.conns[event.SessionID]
	c.mu.Unlock()
	if s == nil {
		return ErrNotSubscribed
	}

	data, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(c.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s to relay: %w", event.Type, err)
	}
	return nil
}

// Unsubscribe closes the relay connection and waits for the read pump
func (s *wsSession) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		close(s.done)

		s.writeMu.Lock()
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		err = s.conn.Close()

		s.owner.mu.Lock()
		if s.owner.conns[s.sessionID] == s {
			delete(s.owner.conns, s.sessionID)
		}
		s.owner.mu.Unlock()
	})
	s.wg.Wait()
	return err
}

// Close drops every relay connection
func (c *WebSocketChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sessions := make([]*wsSession, 0, len(c.conns))
	for _, s := range c.conns {
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	for _, s := range sessions {
		_ = s.Unsubscribe()
	}
	return nil
}
