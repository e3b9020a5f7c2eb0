package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope for every message on a session's broadcast channel
type Event struct {
	ID        string          `json:"id"`         // Event UUID
	SessionID string          `json:"session_id"` // Broadcast topic
	SenderID  string          `json:"sender_id"`  // Publishing participant
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of session event
type EventType string

const (
	EventTypeRoundStart    EventType = "ROUND_START"
	EventTypeAnswer        EventType = "ANSWER"
	EventTypeRoundComplete EventType = "ROUND_COMPLETE"
)

// NewEvent marshals payload into a new envelope
func NewEvent(sessionID, senderID string, eventType EventType, payload interface{}, now time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		SenderID:  senderID,
		Type:      eventType,
		Timestamp: now,
		Data:      data,
	}, nil
}

// Encode returns the JSON wire form of the event
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses the JSON wire form of an event
func Decode(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event envelope has no type")
	}
	return &event, nil
}

// ParseEventPayload parses event data into the appropriate payload struct.
// Unknown event types return a nil payload and no error.
func ParseEventPayload(event *Event) (interface{}, error) {
	switch event.Type {
	case EventTypeRoundStart:
		var payload RoundStartPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ROUND_START payload: %w", err)
		}
		return payload, nil

	case EventTypeAnswer:
		var payload AnswerPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ANSWER payload: %w", err)
		}
		return payload, nil

	case EventTypeRoundComplete:
		var payload RoundCompletePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ROUND_COMPLETE payload: %w", err)
		}
		return payload, nil

	default:
		return nil, nil
	}
}
