package channel

import (
	"context"
	"sync"

	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
	"github.com/rs/zerolog/log"
)

// defaultMemoryBuffer is the per-subscriber queue depth before messages drop
const defaultMemoryBuffer = 64

// MemoryHub is an in-process pub/sub keyed by session id
type MemoryHub struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	buffer int
}

// NewMemoryHub creates an empty hub
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		subs:   make(map[string]map[*memorySub]struct{}),
		buffer: defaultMemoryBuffer,
	}
}

// Channel returns a new endpoint on the hub for one participant
func (h *MemoryHub) Channel(participantID string) *MemoryChannel {
	return &MemoryChannel{hub: h, participantID: participantID}
}

// Subscribers returns how many subscriptions exist for sessionID
func (h *MemoryHub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

func (h *MemoryHub) add(sub *memorySub) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sub.sessionID] == nil {
		h.subs[sub.sessionID] = make(map[*memorySub]struct{})
	}
	h.subs[sub.sessionID][sub] = struct{}{}
}

func (h *MemoryHub) remove(sub *memorySub) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[sub.sessionID], sub)
	if len(h.subs[sub.sessionID]) == 0 {
		delete(h.subs, sub.sessionID)
	}
}

func (h *MemoryHub) publish(from *MemoryChannel, event *events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[event.SessionID] {
		if sub.owner == from {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			log.Warn().
				Str("session_id", event.SessionID).
				Str("event_type", string(event.Type)).
				Msg("subscriber buffer full, dropping message")
		}
	}
}

// MemoryChannel is one participant's view of a MemoryHub
type MemoryChannel struct {
	hub           *MemoryHub
	participantID string

	mu     sync.Mutex
	subs   map[*memorySub]struct{}
	closed bool
}

type memorySub struct {
	sessionID string
	owner     *MemoryChannel
	ch        chan *events.Event
	done      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
}

// Subscribe joins sessionID; handler runs on a dedicated goroutine
func (c *MemoryChannel) Subscribe(ctx context.Context, sessionID string, handler Handler) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	sub := &memorySub{
		sessionID: sessionID,
		owner:     c,
		ch:        make(chan *events.Event, c.hub.buffer),
		done:      make(chan struct{}),
	}
	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		for {
			select {
			case <-sub.done:
				return
			case ev := <-sub.ch:
				handler(ev)
			}
		}
	}()

	c.hub.add(sub)
	if c.subs == nil {
		c.subs = make(map[*memorySub]struct{})
	}
	c.subs[sub] = struct{}{}
	return sub, nil
}

// Publish delivers event to every other subscriber of its session
func (c *MemoryChannel) Publish(ctx context.Context, event *events.Event) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	c.hub.publish(c, event)
	return nil
}

// Close releases every subscription made through this endpoint
func (c *MemoryChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for sub := range subs {
		_ = sub.Unsubscribe()
	}
	return nil
}

// Unsubscribe stops delivery and waits for the handler goroutine to exit
func (s *memorySub) Unsubscribe() error {
	s.once.Do(func() {
		s.owner.hub.remove(s)
		close(s.done)
		s.owner.mu.Lock()
		delete(s.owner.subs, s)
		s.owner.mu.Unlock()
	})
	s.wg.Wait()
	return nil
}
