package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/reservalo/reservalo/internal/booking"
	"github.com/reservalo/reservalo/internal/store"
	"github.com/reservalo/reservalo/internal/testutil"
)

const testHoldWindow = 10 * time.Minute

func newTestManager(t *testing.T) (*booking.Manager, store.Center, store.Court, *time.Time) {
	t.Helper()

	database := testutil.NewTestDB(t)
	center := testutil.SeedCenter(t, database, "America/New_York", 60, "09:00", "21:00")
	court := testutil.SeedCourt(t, database, center.ID, "Court 1", 4800)

	now := time.Date(2030, 5, 20, 8, 0, 0, 0, time.UTC)
	manager := booking.NewManager(database, testHoldWindow).WithClock(func() time.Time { return now })
	return manager, center, court, &now
}

func reserveAt(m *booking.Manager, center store.Center, court store.Court, startTime string) (store.Booking, error) {
	return m.Reserve(context.Background(), booking.ReserveRequest{
		CenterID:        center.ID,
		CourtID:         court.ID,
		Date:            "2030-05-20",
		StartTime:       startTime,
		DurationMinutes: 60,
		Customer: booking.Customer{
			Name:  "Dana Cruz",
			Email: "dana@example.com",
		},
	})
}

func TestReserveCreatesPendingHold(t *testing.T) {
	m, center, court, now := newTestManager(t)

	created, err := reserveAt(m, center, court, "10:00")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if created.Status != booking.StatusPending {
		t.Errorf("status = %s, want pending", created.Status)
	}
	if created.PublicID == "" {
		t.Error("public id should be set")
	}
	if !created.ExpiresAt.Equal(now.Add(testHoldWindow)) {
		t.Errorf("expires_at = %v, want %v", created.ExpiresAt, now.Add(testHoldWindow))
	}
	// 60 minutes at 4800 cents/hour.
	if created.AmountCents != 4800 {
		t.Errorf("amount = %d, want 4800", created.AmountCents)
	}

	// The wall-clock start is in the center's zone, stored as UTC instant.
	loc, _ := time.LoadLocation(center.Timezone)
	wantStart := time.Date(2030, 5, 20, 10, 0, 0, 0, loc)
	if !created.StartTime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", created.StartTime, wantStart)
	}
}

func TestReserveConflict(t *testing.T) {
	m, center, court, _ := newTestManager(t)

	if _, err := reserveAt(m, center, court, "10:00"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	_, err := reserveAt(m, center, court, "10:00")
	if !errors.Is(err, booking.ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
}

func TestReserveConcurrentExactlyOneWins(t *testing.T) {
	m, center, court, _ := newTestManager(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = reserveAt(m, center, court, "12:00")
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, booking.ErrSlotAlreadyBooked):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d (conflicts %d)", wins, conflicts)
	}
}

func TestReserveAfterHoldExpiryReleasesSlot(t *testing.T) {
	m, center, court, now := newTestManager(t)

	if _, err := reserveAt(m, center, court, "10:00"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	*now = now.Add(testHoldWindow + time.Minute)

	second, err := reserveAt(m, center, court, "10:00")
	if err != nil {
		t.Fatalf("reserve after expiry: %v", err)
	}
	if second.Status != booking.StatusPending {
		t.Errorf("status = %s, want pending", second.Status)
	}
}

func TestReserveOverlapTouchingEndpointsAllowed(t *testing.T) {
	m, center, court, _ := newTestManager(t)

	if _, err := reserveAt(m, center, court, "10:00"); err != nil {
		t.Fatalf("reserve 10:00: %v", err)
	}
	if _, err := reserveAt(m, center, court, "11:00"); err != nil {
		t.Fatalf("back-to-back slot should not conflict: %v", err)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	m, center, court, _ := newTestManager(t)

	created, err := reserveAt(m, center, court, "10:00")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := m.AttachPaymentRef(context.Background(), created.ID, "stripe", "cs_test_123"); err != nil {
		t.Fatalf("attach ref: %v", err)
	}

	first, err := m.Confirm(context.Background(), "stripe", "cs_test_123")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if first.Status != booking.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", first.Status)
	}

	second, err := m.Confirm(context.Background(), "stripe", "cs_test_123")
	if err != nil {
		t.Fatalf("second confirm should be a no-op: %v", err)
	}
	if second.Status != booking.StatusConfirmed {
		t.Errorf("status after repeat = %s, want confirmed", second.Status)
	}
}

func TestConfirmExpiredHoldIsStale(t *testing.T) {
	m, center, court, now := newTestManager(t)

	created, err := reserveAt(m, center, court, "10:00")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	*now = now.Add(testHoldWindow + time.Minute)

	_, err = m.ConfirmByPublicID(context.Background(), created.PublicID)
	if !errors.Is(err, booking.ErrStaleConfirmation) {
		t.Fatalf("expected ErrStaleConfirmation, got %v", err)
	}

	// The expired hold stays dead even after the confirmation attempt.
	b, err := m.Get(context.Background(), created.PublicID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Status != booking.StatusPending {
		t.Errorf("status = %s, expired hold must not be resurrected", b.Status)
	}
}

func TestConfirmCancelledBookingIsStale(t *testing.T) {
	m, center, court, _ := newTestManager(t)

	created, err := reserveAt(m, center, court, "10:00")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := m.Cancel(context.Background(), created.PublicID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err = m.ConfirmByPublicID(context.Background(), created.PublicID)
	if !errors.Is(err, booking.ErrStaleConfirmation) {
		t.Fatalf("expected ErrStaleConfirmation, got %v", err)
	}
}

func TestConfirmedSlotSurvivesHoldWindow(t *testing.T) {
	m, center, court, now := newTestManager(t)

	created, err := reserveAt(m, center, court, "10:00")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := m.ConfirmByPublicID(context.Background(), created.PublicID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	*now = now.Add(24 * time.Hour)

	_, err = reserveAt(m, center, court, "10:00")
	if !errors.Is(err, booking.ErrSlotAlreadyBooked) {
		t.Fatalf("confirmed booking must keep blocking, got %v", err)
	}
}

func TestCancelUnknownBooking(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	_, err := m.Cancel(context.Background(), "does-not-exist")
	if !errors.Is(err, booking.ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestAvailabilityMarksReservedSlot(t *testing.T) {
	m, center, court, _ := newTestManager(t)

	if _, err := reserveAt(m, center, court, "10:00"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	cells, err := m.Availability(context.Background(), center.ID, court.ID, "2030-05-20")
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	// 09:00 through 20:00 starts.
	if len(cells) != 12 {
		t.Fatalf("expected 12 cells, got %d", len(cells))
	}

	var takenCount int
	loc, _ := time.LoadLocation(center.Timezone)
	for _, cell := range cells {
		if cell.Taken {
			takenCount++
			if got := cell.SlotStart.In(loc).Format("15:04"); got != "10:00" {
				t.Errorf("taken slot = %s, want 10:00", got)
			}
		}
	}
	if takenCount != 1 {
		t.Fatalf("expected exactly one taken cell, got %d", takenCount)
	}
}

func TestAvailabilityFindsBookingsAtDayEdges(t *testing.T) {
	m, center, court, _ := newTestManager(t)

	// First and last slots of a non-UTC center's day. Both sit on the query
	// window's edges, where a zone-offset mismatch between the stored
	// instants and the window bounds would drop them.
	if _, err := reserveAt(m, center, court, "09:00"); err != nil {
		t.Fatalf("reserve 09:00: %v", err)
	}
	if _, err := reserveAt(m, center, court, "20:00"); err != nil {
		t.Fatalf("reserve 20:00: %v", err)
	}

	cells, err := m.Availability(context.Background(), center.ID, court.ID, "2030-05-20")
	if err != nil {
		t.Fatalf("availability: %v", err)
	}

	taken := make(map[string]bool)
	loc, _ := time.LoadLocation(center.Timezone)
	for _, cell := range cells {
		if cell.Taken {
			taken[cell.SlotStart.In(loc).Format("15:04")] = true
		}
	}
	if len(taken) != 2 || !taken["09:00"] || !taken["20:00"] {
		t.Fatalf("taken slots = %v, want exactly 09:00 and 20:00", taken)
	}
}

func TestPriceCents(t *testing.T) {
	cases := []struct {
		hourly, minutes, want int64
	}{
		{4800, 60, 4800},
		{4800, 90, 7200},
		{4800, 30, 2400},
		{5000, 45, 3750},
	}
	for _, tc := range cases {
		if got := booking.PriceCents(tc.hourly, tc.minutes); got != tc.want {
			t.Errorf("PriceCents(%d, %d) = %d, want %d", tc.hourly, tc.minutes, got, tc.want)
		}
	}
}

func TestSweepExpiredHolds(t *testing.T) {
	database := testutil.NewTestDB(t)
	center := testutil.SeedCenter(t, database, "UTC", 60, "09:00", "21:00")
	court := testutil.SeedCourt(t, database, center.ID, "Court 1", 4800)

	now := time.Date(2030, 5, 20, 8, 0, 0, 0, time.UTC)
	m := booking.NewManager(database, testHoldWindow).WithClock(func() time.Time { return now })

	created, err := m.Reserve(context.Background(), booking.ReserveRequest{
		CenterID:        center.ID,
		CourtID:         court.ID,
		Date:            "2030-05-20",
		StartTime:       "10:00",
		DurationMinutes: 60,
		Customer:        booking.Customer{Name: "Dana Cruz", Email: "dana@example.com"},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	swept, err := booking.SweepExpiredHolds(context.Background(), database, now.Add(testHoldWindow+time.Minute))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}

	b, err := m.Get(context.Background(), created.PublicID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Status != booking.StatusCancelled {
		t.Errorf("status = %s, want cancelled after sweep", b.Status)
	}

	// Sweeping again finds nothing.
	swept, err = booking.SweepExpiredHolds(context.Background(), database, now.Add(testHoldWindow+2*time.Minute))
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if swept != 0 {
		t.Errorf("second sweep = %d, want 0", swept)
	}
}
