package state

import "errors"

// Errors returned by state operations.
var (
	// ErrInvalidState indicates a structural invariant does not hold.
	ErrInvalidState = errors.New("invalid editor state")

	// ErrInvalidSelection indicates a selection point does not resolve.
	ErrInvalidSelection = errors.New("invalid selection")
)
