// Package channel implements the per-session broadcast channel.
//
// Delivery is best-effort: no ordering across publishers, at most once per
// subscriber, and a client that is not subscribed at publish time misses the
// message for good.
package channel

import (
	"context"
	"errors"

	"github.com/mcdev12/tunequiz/go/internal/quiz/events"
)

var (
	// ErrClosed is returned after Close
	ErrClosed = errors.New("channel closed")
	// ErrNotSubscribed is returned when publishing to a session this channel never joined
	ErrNotSubscribed = errors.New("not subscribed to session")
)

// Handler receives events for a subscribed session
type Handler func(event *events.Event)

// Subscription is released by Unsubscribe
type Subscription interface {
	Unsubscribe() error
}

// Channel is a named bidirectional publish/subscribe topic per session
type Channel interface {
	Subscribe(ctx context.Context, sessionID string, handler Handler) (Subscription, error)
	Publish(ctx context.Context, event *events.Event) error
	Close() error
}
