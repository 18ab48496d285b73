package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotAlreadyBooked is the expected conflict outcome of Reserve.
	ErrSlotAlreadyBooked = errors.New("slot already booked")

	// ErrStaleConfirmation marks a payment confirmation that arrived after
	// the hold expired or was cancelled. The booking is never resurrected;
	// callers must start a refund.
	ErrStaleConfirmation = errors.New("stale payment confirmation")

	// ErrStoreUnavailable wraps infrastructure failures during the atomic
	// hold attempt. Retrying the whole Reserve call is safe.
	ErrStoreUnavailable = errors.New("booking store unavailable")

	// ErrBookingNotFound is returned when a booking lookup matches nothing.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrHoldExpired is returned when an operation requires a live pending
	// hold and the hold has already lapsed.
	ErrHoldExpired = errors.New("hold expired")
)

// ConfigurationError reports malformed opening hours or slot duration.
// It is surfaced to center staff and never retried automatically.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid booking configuration: %s", e.Reason)
}
