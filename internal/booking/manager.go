package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/reservalo/reservalo/internal/db"
	"github.com/reservalo/reservalo/internal/store"
)

// Manager owns every Booking write. Reserve runs its read-then-insert as a
// single immediate transaction; Confirm and Cancel are compare-and-set
// transitions. No other component writes booking rows.
type Manager struct {
	database   *db.DB
	holdWindow time.Duration
	now        func() time.Time
}

func NewManager(database *db.DB, holdWindow time.Duration) *Manager {
	return &Manager{
		database:   database,
		holdWindow: holdWindow,
		now:        time.Now,
	}
}

// WithClock overrides the manager's time source. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Now is the manager's time source, shared with collaborators that make
// expiry decisions outside a manager call.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Customer identifies who a hold belongs to. Identity is supplied by the
// auth collaborator; the engine only stores it.
type Customer struct {
	Name   string
	Email  string
	Phone  string
	UserID string
}

// ReserveRequest asks for a hold on one court slot.
type ReserveRequest struct {
	CenterID        int64
	CourtID         int64
	Date            string // calendar date in the center's zone, YYYY-MM-DD
	StartTime       string // wall clock in the center's zone, HH:MM
	DurationMinutes int64
	Customer        Customer
}

// Reserve attempts the atomic check-and-insert of a new pending hold.
// Exactly one of N concurrent conflicting calls succeeds; the others get
// ErrSlotAlreadyBooked. The hold carries expiresAt = now + hold window and
// the price computed from the court's hourly rate in integer minor units.
func (m *Manager) Reserve(ctx context.Context, req ReserveRequest) (store.Booking, error) {
	if req.DurationMinutes <= 0 {
		return store.Booking{}, ConfigurationError{Reason: "duration must be positive"}
	}

	center, err := m.database.Queries.GetCenterByID(ctx, req.CenterID)
	if err != nil {
		return store.Booking{}, m.storeErr("load center", err)
	}
	court, err := m.database.Queries.GetCourtByID(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Booking{}, ErrBookingNotFound
		}
		return store.Booking{}, m.storeErr("load court", err)
	}
	if court.CenterID != center.ID {
		return store.Booking{}, ConfigurationError{Reason: "court does not belong to center"}
	}

	loc, err := time.LoadLocation(center.Timezone)
	if err != nil {
		return store.Booking{}, ConfigurationError{Reason: fmt.Sprintf("unknown time zone %q", center.Timezone)}
	}
	start, err := time.ParseInLocation(dateKeyLayout+" "+clockLayout, req.Date+" "+req.StartTime, loc)
	if err != nil {
		return store.Booking{}, ConfigurationError{Reason: "invalid date or start time"}
	}
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	phone, err := normalizePhone(req.Customer.Phone)
	if err != nil {
		return store.Booking{}, ConfigurationError{Reason: "invalid customer phone"}
	}

	now := m.now()
	amountCents := PriceCents(court.PricePerHourCents, req.DurationMinutes)

	var created store.Booking
	err = m.database.RunInTx(ctx, func(txdb *db.DB) error {
		// The window must be normalized to UTC like the stored instants:
		// sqlite compares TIMESTAMP text byte-wise, so a zone-offset mismatch
		// would silently miss every overlap.
		existing, err := txdb.Queries.ListCourtBookingsOverlapping(ctx, store.ListCourtBookingsOverlappingParams{
			CourtID:     court.ID,
			WindowEnd:   end.UTC(),
			WindowStart: start.UTC(),
		})
		if err != nil {
			return fmt.Errorf("list overlapping bookings: %w", err)
		}

		// Expired pending holds are vacated here, at read time, through the
		// shared policy predicate. No sweeper has to run first.
		for _, b := range existing {
			if IsActive(b, now) {
				return ErrSlotAlreadyBooked
			}
		}

		created, err = txdb.Queries.CreateBooking(ctx, store.CreateBookingParams{
			PublicID:       uuid.New().String(),
			CenterID:       center.ID,
			CourtID:        court.ID,
			DateKey:        start.Format(dateKeyLayout),
			StartTime:      start.UTC(),
			EndTime:        end.UTC(),
			Status:         StatusPending,
			ExpiresAt:      now.Add(m.holdWindow).UTC(),
			CustomerName:   strings.TrimSpace(req.Customer.Name),
			CustomerEmail:  strings.TrimSpace(req.Customer.Email),
			CustomerPhone:  phone,
			CustomerUserID: toNullString(req.Customer.UserID),
			AmountCents:    amountCents,
			Currency:       court.Currency,
		})
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotAlreadyBooked) {
			return store.Booking{}, ErrSlotAlreadyBooked
		}
		return store.Booking{}, m.storeErr("reserve", err)
	}

	log.Ctx(ctx).Info().
		Str("booking_id", created.PublicID).
		Int64("court_id", court.ID).
		Time("start", created.StartTime).
		Time("expires_at", created.ExpiresAt).
		Msg("Hold created")
	return created, nil
}

// Get returns a booking by its public identifier.
func (m *Manager) Get(ctx context.Context, publicID string) (store.Booking, error) {
	b, err := m.database.Queries.GetBookingByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Booking{}, ErrBookingNotFound
		}
		return store.Booking{}, m.storeErr("load booking", err)
	}
	return b, nil
}

// AttachPaymentRef records the provider session/preference id on a hold.
// Deliberately non-transactional with checkout creation: if it fails the
// hold stays pending and expires on its own.
func (m *Manager) AttachPaymentRef(ctx context.Context, bookingID int64, provider, ref string) error {
	updated, err := m.database.Queries.SetBookingPaymentRef(ctx, store.SetBookingPaymentRefParams{
		PaymentProvider: provider,
		PaymentRef:      ref,
		ID:              bookingID,
	})
	if err != nil {
		return m.storeErr("attach payment ref", err)
	}
	if updated == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// Confirm reconciles a provider confirmation with the hold carrying the
// given provider reference. A still-live pending hold becomes confirmed;
// confirming twice is a no-op; an expired or cancelled hold yields
// ErrStaleConfirmation and is never brought back.
func (m *Manager) Confirm(ctx context.Context, provider, ref string) (store.Booking, error) {
	return m.confirmWith(ctx, func(q *store.Queries) (store.Booking, error) {
		return q.GetBookingByPaymentRef(ctx, store.GetBookingByPaymentRefParams{
			PaymentProvider: provider,
			PaymentRef:      ref,
		})
	})
}

// ConfirmByPublicID is Confirm for providers whose confirmation event names
// the booking directly instead of the stored checkout reference.
func (m *Manager) ConfirmByPublicID(ctx context.Context, publicID string) (store.Booking, error) {
	return m.confirmWith(ctx, func(q *store.Queries) (store.Booking, error) {
		return q.GetBookingByPublicID(ctx, publicID)
	})
}

func (m *Manager) confirmWith(ctx context.Context, lookup func(*store.Queries) (store.Booking, error)) (store.Booking, error) {
	now := m.now()

	var confirmed store.Booking
	err := m.database.RunInTx(ctx, func(txdb *db.DB) error {
		b, err := lookup(txdb.Queries)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("load booking for confirmation: %w", err)
		}

		switch b.Status {
		case StatusConfirmed:
			confirmed = b
			return nil
		case StatusCancelled:
			return ErrStaleConfirmation
		}
		if !IsActive(b, now) {
			return ErrStaleConfirmation
		}

		if _, err := txdb.Queries.TransitionBookingStatus(ctx, b.ID, StatusPending, StatusConfirmed); err != nil {
			return fmt.Errorf("confirm booking: %w", err)
		}
		b.Status = StatusConfirmed
		confirmed = b
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrStaleConfirmation), errors.Is(err, ErrBookingNotFound):
			return store.Booking{}, err
		}
		return store.Booking{}, m.storeErr("confirm", err)
	}
	return confirmed, nil
}

// Cancel releases a booking on behalf of the customer. Cancelling an
// already-cancelled booking is a no-op.
func (m *Manager) Cancel(ctx context.Context, publicID string) (store.Booking, error) {
	var cancelled store.Booking
	err := m.database.RunInTx(ctx, func(txdb *db.DB) error {
		b, err := txdb.Queries.GetBookingByPublicID(ctx, publicID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("load booking: %w", err)
		}
		if b.Status == StatusCancelled {
			cancelled = b
			return nil
		}
		if _, err := txdb.Queries.TransitionBookingStatus(ctx, b.ID, b.Status, StatusCancelled); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		b.Status = StatusCancelled
		cancelled = b
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return store.Booking{}, err
		}
		return store.Booking{}, m.storeErr("cancel", err)
	}
	return cancelled, nil
}

// Availability renders the free/taken grid for a center's date. courtID 0
// means all published courts.
func (m *Manager) Availability(ctx context.Context, centerID, courtID int64, dateKey string) ([]GridCell, error) {
	center, err := m.database.Queries.GetCenterByID(ctx, centerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, m.storeErr("load center", err)
	}
	hours, err := m.database.Queries.GetCenterHours(ctx, centerID)
	if err != nil {
		return nil, m.storeErr("load center hours", err)
	}
	sched, err := ScheduleFromStore(center, hours)
	if err != nil {
		return nil, err
	}

	now := m.now()
	slots, err := SlotTimes(sched, dateKey, now)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}

	var courts []store.Court
	if courtID > 0 {
		court, err := m.database.Queries.GetCourtByID(ctx, courtID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrBookingNotFound
			}
			return nil, m.storeErr("load court", err)
		}
		courts = []store.Court{court}
	} else {
		courts, err = m.database.Queries.ListPublishedCourtsByCenter(ctx, centerID)
		if err != nil {
			return nil, m.storeErr("list courts", err)
		}
	}

	dayStart := slots[0].Start
	dayEnd := slots[len(slots)-1].End
	bookings, err := m.database.Queries.ListCenterBookingsOverlapping(ctx, store.ListCenterBookingsOverlappingParams{
		CenterID:    centerID,
		WindowEnd:   dayEnd.UTC(),
		WindowStart: dayStart.UTC(),
	})
	if err != nil {
		return nil, m.storeErr("list bookings", err)
	}

	return BuildGrid(slots, courts, bookings, now), nil
}

// PriceCents computes the hold amount in integer minor units from the
// court's hourly rate. Providers that bill in decimal major units convert
// at their own boundary.
func PriceCents(pricePerHourCents, durationMinutes int64) int64 {
	return pricePerHourCents * durationMinutes / 60
}

func (m *Manager) storeErr(op string, err error) error {
	if isRetryable(err) {
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isRetryable classifies infrastructure failures the caller may retry: a
// timed-out transaction or a write-lock contention loss. A timed-out
// transaction never half-commits, so a retry either finds the same conflict
// or succeeds once.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func normalizePhone(raw string) (sql.NullString, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullString{}, nil
	}
	parsed, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: phonenumbers.Format(parsed, phonenumbers.E164), Valid: true}, nil
}

func toNullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
