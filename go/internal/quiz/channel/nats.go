package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// subscribeAckTimeout bounds the round trip confirming a new subscription
const subscribeAckTimeout = 5 * time.Second

// NATSConfig holds configuration for the core NATS broadcast channel
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g., "tunequiz.session"
	Name          string // connection name shown by the server
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS channel configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "tunequiz.session",
		Name:          "tunequiz-player",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSChannel publishes session events on core NATS subjects.
// Core NATS is fire-and-forget, which matches the channel's delivery contract.
type NATSChannel struct {
	nc     *nats.Conn
	config NATSConfig

	mu     sync.Mutex
	closed bool
}

// NewNATSChannel connects to NATS and returns a channel
func NewNATSChannel(config NATSConfig) (*NATSChannel, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		// publishers never receive their own events
		nats.NoEcho(),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSChannel{nc: nc, config: config}, nil
}

// Subject returns the NATS subject for a session
func (c *NATSChannel) Subject(sessionID string) string {
	return subjectFor(c.config.SubjectPrefix, sessionID)
}

func subjectFor(prefix, sessionID string) string {
	return fmt.Sprintf("%s.%s", prefix, sessionID)
}

// Subscribe joins the session subject; the subscription is confirmed with a flush
func (c *NATSChannel) Subscribe(ctx context.Context, sessionID string, handler Handler) (Subscription, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	sub, err := c.nc.Subscribe(c.Subject(sessionID), deliver(handler))
	if err != nil {
		return nil, fmt.Errorf("subscribe to session %s: %w", sessionID, err)
	}
	flushCtx, cancel := context.WithTimeout(ctx, subscribeAckTimeout)
	defer cancel()
	if err := c.nc.FlushWithContext(flushCtx); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("confirm subscription to session %s: %w", sessionID, err)
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("subject", sub.Subject).
		Msg("subscribed to session channel")

	return sub, nil
}

// deliver adapts a Handler to a NATS message callback, dropping undecodable messages
func deliver(handler Handler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		event, err := events.Decode(msg.Data)
		if err != nil {
			log.Warn().
				Err(err).
				Str("subject", msg.Subject).
				Msg("dropping malformed session message")
			return
		}
		handler(event)
	}
}

// Publish sends event on its session subject
func (c *NATSChannel) Publish(ctx context.Context, event *events.Event) error {
	if c.isClosed() {
		return ErrClosed
	}

	data, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := c.nc.Publish(c.Subject(event.SessionID), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (c *NATSChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}

func (c *NATSChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
