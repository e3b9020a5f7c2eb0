package rooms

import "errors"

var (
	// ErrRoomNotFound is returned when no room has the given code
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomCodeTaken is returned when a generated code collides with an existing room
	ErrRoomCodeTaken = errors.New("room code already in use")

	// ErrInvalidRoomCode is returned for an empty or malformed room code
	ErrInvalidRoomCode = errors.New("invalid room code")

	// ErrInvalidParticipant is returned when a participant id is missing
	ErrInvalidParticipant = errors.New("invalid participant")
)
