package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservalo/reservalo/internal/db"
)

// SweepExpiredHolds flips expired pending bookings to cancelled. Correctness
// never depends on it — expiry is enforced lazily by IsActive — so it runs
// only as scheduled maintenance to keep reporting honest and stop ghost
// pending rows accumulating.
func SweepExpiredHolds(ctx context.Context, database *db.DB, now time.Time) (int64, error) {
	if database == nil {
		return 0, fmt.Errorf("hold sweep requires database")
	}

	var swept int64
	err := database.RunInTx(ctx, func(txdb *db.DB) error {
		n, err := txdb.Queries.CancelExpiredHolds(ctx, now.UTC())
		if err != nil {
			return fmt.Errorf("cancel expired holds: %w", err)
		}
		swept = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		log.Ctx(ctx).Info().Int64("swept", swept).Msg("Expired holds cancelled")
	}
	return swept, nil
}
