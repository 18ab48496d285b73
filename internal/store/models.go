package store

import (
	"database/sql"
	"time"
)

type Center struct {
	ID                  int64
	Name                string
	Slug                string
	Timezone            string
	SlotDurationMinutes int64
	CreatedAt           time.Time
}

// CenterHour is one weekday entry of a center's opening hours. A weekday
// without a row is closed.
type CenterHour struct {
	CenterID  int64
	DayOfWeek int64
	OpensAt   string
	ClosesAt  string
}

type Court struct {
	ID                int64
	CenterID          int64
	Name              string
	Sport             string
	Indoor            bool
	Surface           string
	PricePerHourCents int64
	Currency          string
	Published         bool
	CreatedAt         time.Time
}

type Booking struct {
	ID              int64
	PublicID        string
	CenterID        int64
	CourtID         int64
	DateKey         string
	StartTime       time.Time
	EndTime         time.Time
	Status          string
	ExpiresAt       time.Time
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   sql.NullString
	CustomerUserID  sql.NullString
	AmountCents     int64
	Currency        string
	PaymentProvider sql.NullString
	PaymentRef      sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
