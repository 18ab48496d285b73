package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservalo/reservalo/internal/booking"
	"github.com/reservalo/reservalo/internal/db"
)

const holdSweepTimeout = 30 * time.Second

// RegisterHoldSweep schedules the expired-hold sweep. The sweep is
// housekeeping only; reads and reservations already treat expired holds as
// gone, so a missed run never double-books a slot.
func RegisterHoldSweep(cronExpr string, database *db.DB) error {
	_, err := AddJob("expired-hold-sweep", cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), holdSweepTimeout)
		defer cancel()
		ctx = log.With().Str("job", "expired-hold-sweep").Logger().WithContext(ctx)

		if _, err := booking.SweepExpiredHolds(ctx, database, time.Now()); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Expired hold sweep failed")
		}
	})
	return err
}
