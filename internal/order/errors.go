package order

import "errors"

var (
	ErrNotFound = errors.New("order not found")

	// ErrValidation covers malformed input: empty cart, incomplete address,
	// unknown customer, an unavailable catalog entry.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when the requested edge is not in the
	// status graph or the actor lacks authority for it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTerminalState rejects any mutation of a delivered or cancelled
	// order, and cancellation attempts after dispatch.
	ErrTerminalState = errors.New("order is in a terminal state")

	// ErrStale signals a lost conditional write: status moved under us.
	ErrStale = errors.New("order status changed concurrently")
)
