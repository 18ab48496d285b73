package booking

import (
	"time"

	"github.com/reservalo/reservalo/internal/store"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// IsActive is the single hold-expiry predicate. Both the availability grid
// and the reservation conflict check go through it, so a pending booking
// past its expiry instant vacates the slot on every path at once even though
// the row is never eagerly deleted.
func IsActive(b store.Booking, now time.Time) bool {
	switch b.Status {
	case StatusConfirmed:
		return true
	case StatusCancelled:
		return false
	case StatusPending:
		return now.Before(b.ExpiresAt)
	default:
		return false
	}
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
