package capture

import "errors"

var (
	// ErrInactive is returned for events sent to a screen that has been detached.
	ErrInactive = errors.New("screen is not capturing")
	// ErrScreenNotFound is returned when no recorder exists for a screen id.
	ErrScreenNotFound = errors.New("screen not found")
	// ErrAlreadyCompleted is returned when a screen's task completion was already written.
	ErrAlreadyCompleted = errors.New("task already completed")
	// ErrInvalidEvent is returned for raw events that cannot be interpreted.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrClosed is returned when attaching after the registry has shut down.
	ErrClosed = errors.New("capture registry is closed")
)
