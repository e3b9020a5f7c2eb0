package round

import "errors"

var (
	// ErrClosed is returned by calls made after Close
	ErrClosed = errors.New("session closed")

	// ErrAlreadyRunning is returned by a second Run
	ErrAlreadyRunning = errors.New("session already running")

	// ErrNotHost is returned when a follower tries to drive the session
	ErrNotHost = errors.New("only the host can drive rounds")

	// ErrAlreadyStarted is returned when Start is called outside Idle
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNothingToRetry is returned by Retry outside the host's Transition phase
	ErrNothingToRetry = errors.New("no stalled transition to retry")

	// ErrNotPlaying is returned when answering outside the Playing phase
	ErrNotPlaying = errors.New("round is not accepting answers")

	// ErrAlreadyAnswered is returned for a second answer in the same round
	ErrAlreadyAnswered = errors.New("already answered this round")

	// ErrInvalidOption is returned for an option index outside the question
	ErrInvalidOption = errors.New("invalid option index")
)
