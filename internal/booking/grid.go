package booking

import (
	"time"

	"github.com/reservalo/reservalo/internal/store"
)

// GridCell marks one (court, slot) pair as free or taken.
type GridCell struct {
	CourtID   int64
	SlotStart time.Time
	SlotEnd   time.Time
	Taken     bool
}

// BuildGrid projects the slot sequence and the current booking set onto a
// free/taken grid. It is a pure read-side rendering: it never writes, and it
// tolerates a stale booking set because conflicts are only enforced inside
// the reservation transaction.
func BuildGrid(slots []Slot, courts []store.Court, bookings []store.Booking, now time.Time) []GridCell {
	byCourt := make(map[int64][]store.Booking, len(courts))
	for _, b := range bookings {
		if !IsActive(b, now) {
			continue
		}
		byCourt[b.CourtID] = append(byCourt[b.CourtID], b)
	}

	cells := make([]GridCell, 0, len(courts)*len(slots))
	for _, court := range courts {
		active := byCourt[court.ID]
		for _, slot := range slots {
			taken := false
			for _, b := range active {
				if Overlaps(b.StartTime, b.EndTime, slot.Start, slot.End) {
					taken = true
					break
				}
			}
			cells = append(cells, GridCell{
				CourtID:   court.ID,
				SlotStart: slot.Start,
				SlotEnd:   slot.End,
				Taken:     taken,
			})
		}
	}
	return cells
}
