package store

import (
	"context"
	"database/sql"
	"time"
)

const bookingColumns = `
	id, public_id, center_id, court_id, date_key, start_time, end_time,
	status, expires_at, customer_name, customer_email, customer_phone,
	customer_user_id, amount_cents, currency, payment_provider, payment_ref,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.PublicID, &b.CenterID, &b.CourtID, &b.DateKey,
		&b.StartTime, &b.EndTime, &b.Status, &b.ExpiresAt,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.CustomerUserID,
		&b.AmountCents, &b.Currency, &b.PaymentProvider, &b.PaymentRef,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

const createBooking = `
INSERT INTO bookings (
	public_id, center_id, court_id, date_key, start_time, end_time,
	status, expires_at, customer_name, customer_email, customer_phone,
	customer_user_id, amount_cents, currency
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING` + bookingColumns

type CreateBookingParams struct {
	PublicID       string
	CenterID       int64
	CourtID        int64
	DateKey        string
	StartTime      time.Time
	EndTime        time.Time
	Status         string
	ExpiresAt      time.Time
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  sql.NullString
	CustomerUserID sql.NullString
	AmountCents    int64
	Currency       string
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	row := q.db.QueryRowContext(ctx, createBooking,
		arg.PublicID, arg.CenterID, arg.CourtID, arg.DateKey,
		arg.StartTime, arg.EndTime, arg.Status, arg.ExpiresAt,
		arg.CustomerName, arg.CustomerEmail, arg.CustomerPhone, arg.CustomerUserID,
		arg.AmountCents, arg.Currency,
	)
	return scanBooking(row)
}

const getBookingByPublicID = `
SELECT` + bookingColumns + `
FROM bookings
WHERE public_id = ?
`

func (q *Queries) GetBookingByPublicID(ctx context.Context, publicID string) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, getBookingByPublicID, publicID))
}

const getBookingByPaymentRef = `
SELECT` + bookingColumns + `
FROM bookings
WHERE payment_provider = ? AND payment_ref = ?
`

type GetBookingByPaymentRefParams struct {
	PaymentProvider string
	PaymentRef      string
}

func (q *Queries) GetBookingByPaymentRef(ctx context.Context, arg GetBookingByPaymentRefParams) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, getBookingByPaymentRef, arg.PaymentProvider, arg.PaymentRef))
}

// Conflict checks query by instant range, not by the date_key partition, so
// a booking spilling past midnight is still found from the following day.
const listCourtBookingsOverlapping = `
SELECT` + bookingColumns + `
FROM bookings
WHERE court_id = ?
  AND status IN ('pending', 'confirmed')
  AND start_time < ?
  AND end_time > ?
ORDER BY start_time
`

type ListCourtBookingsOverlappingParams struct {
	CourtID     int64
	WindowEnd   time.Time
	WindowStart time.Time
}

func (q *Queries) ListCourtBookingsOverlapping(ctx context.Context, arg ListCourtBookingsOverlappingParams) ([]Booking, error) {
	return q.scanBookings(ctx, listCourtBookingsOverlapping, arg.CourtID, arg.WindowEnd, arg.WindowStart)
}

const listCenterBookingsOverlapping = `
SELECT` + bookingColumns + `
FROM bookings
WHERE center_id = ?
  AND status IN ('pending', 'confirmed')
  AND start_time < ?
  AND end_time > ?
ORDER BY court_id, start_time
`

type ListCenterBookingsOverlappingParams struct {
	CenterID    int64
	WindowEnd   time.Time
	WindowStart time.Time
}

func (q *Queries) ListCenterBookingsOverlapping(ctx context.Context, arg ListCenterBookingsOverlappingParams) ([]Booking, error) {
	return q.scanBookings(ctx, listCenterBookingsOverlapping, arg.CenterID, arg.WindowEnd, arg.WindowStart)
}

func (q *Queries) scanBookings(ctx context.Context, query string, args ...interface{}) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

const setBookingPaymentRef = `
UPDATE bookings
SET payment_provider = ?, payment_ref = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type SetBookingPaymentRefParams struct {
	PaymentProvider string
	PaymentRef      string
	ID              int64
}

func (q *Queries) SetBookingPaymentRef(ctx context.Context, arg SetBookingPaymentRefParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setBookingPaymentRef, arg.PaymentProvider, arg.PaymentRef, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Status transitions are compare-and-set on the previous status so a stale
// writer can never blindly overwrite a concurrent transition.
const transitionBookingStatus = `
UPDATE bookings
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?
`

func (q *Queries) TransitionBookingStatus(ctx context.Context, id int64, fromStatus, toStatus string) (int64, error) {
	result, err := q.db.ExecContext(ctx, transitionBookingStatus, toStatus, id, fromStatus)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const cancelExpiredHolds = `
UPDATE bookings
SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
WHERE status = 'pending' AND expires_at <= ?
`

func (q *Queries) CancelExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, cancelExpiredHolds, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
