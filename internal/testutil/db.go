package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/reservalo/reservalo/internal/db"
	"github.com/reservalo/reservalo/internal/store"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedCenter inserts a center with hours on every weekday.
func SeedCenter(t *testing.T, database *db.DB, timezone string, slotMinutes int64, opensAt, closesAt string) store.Center {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	center, err := database.Queries.CreateCenter(ctx, store.CreateCenterParams{
		Name:                "Test Center",
		Slug:                "test-center",
		Timezone:            timezone,
		SlotDurationMinutes: slotMinutes,
	})
	if err != nil {
		t.Fatalf("seed center: %v", err)
	}

	for day := int64(0); day < 7; day++ {
		if _, err := database.Queries.UpsertCenterHours(ctx, store.UpsertCenterHoursParams{
			CenterID:  center.ID,
			DayOfWeek: day,
			OpensAt:   opensAt,
			ClosesAt:  closesAt,
		}); err != nil {
			t.Fatalf("seed center hours: %v", err)
		}
	}
	return center
}

// SeedCourt inserts a published court for the center.
func SeedCourt(t *testing.T, database *db.DB, centerID int64, name string, priceCents int64) store.Court {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	court, err := database.Queries.CreateCourt(ctx, store.CreateCourtParams{
		CenterID:          centerID,
		Name:              name,
		Sport:             "padel",
		Indoor:            true,
		Surface:           "turf",
		PricePerHourCents: priceCents,
		Currency:          "USD",
		Published:         true,
	})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}
	return court
}
