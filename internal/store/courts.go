package store

import (
	"context"
)

const getCourtByID = `
SELECT id, center_id, name, sport, indoor, surface, price_per_hour_cents, currency, published, created_at
FROM courts
WHERE id = ?
`

func (q *Queries) GetCourtByID(ctx context.Context, id int64) (Court, error) {
	var c Court
	err := q.db.QueryRowContext(ctx, getCourtByID, id).Scan(
		&c.ID, &c.CenterID, &c.Name, &c.Sport, &c.Indoor, &c.Surface,
		&c.PricePerHourCents, &c.Currency, &c.Published, &c.CreatedAt,
	)
	return c, err
}

const listCourtsByCenter = `
SELECT id, center_id, name, sport, indoor, surface, price_per_hour_cents, currency, published, created_at
FROM courts
WHERE center_id = ?
ORDER BY name
`

func (q *Queries) ListCourtsByCenter(ctx context.Context, centerID int64) ([]Court, error) {
	return q.scanCourts(ctx, listCourtsByCenter, centerID)
}

const listPublishedCourtsByCenter = `
SELECT id, center_id, name, sport, indoor, surface, price_per_hour_cents, currency, published, created_at
FROM courts
WHERE center_id = ? AND published = 1
ORDER BY name
`

func (q *Queries) ListPublishedCourtsByCenter(ctx context.Context, centerID int64) ([]Court, error) {
	return q.scanCourts(ctx, listPublishedCourtsByCenter, centerID)
}

func (q *Queries) scanCourts(ctx context.Context, query string, args ...interface{}) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(
			&c.ID, &c.CenterID, &c.Name, &c.Sport, &c.Indoor, &c.Surface,
			&c.PricePerHourCents, &c.Currency, &c.Published, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

const createCourt = `
INSERT INTO courts (center_id, name, sport, indoor, surface, price_per_hour_cents, currency, published)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, center_id, name, sport, indoor, surface, price_per_hour_cents, currency, published, created_at
`

type CreateCourtParams struct {
	CenterID          int64
	Name              string
	Sport             string
	Indoor            bool
	Surface           string
	PricePerHourCents int64
	Currency          string
	Published         bool
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	var c Court
	err := q.db.QueryRowContext(ctx, createCourt,
		arg.CenterID, arg.Name, arg.Sport, arg.Indoor, arg.Surface,
		arg.PricePerHourCents, arg.Currency, arg.Published,
	).Scan(
		&c.ID, &c.CenterID, &c.Name, &c.Sport, &c.Indoor, &c.Surface,
		&c.PricePerHourCents, &c.Currency, &c.Published, &c.CreatedAt,
	)
	return c, err
}

const updateCourt = `
UPDATE courts
SET name = ?, sport = ?, indoor = ?, surface = ?, price_per_hour_cents = ?, currency = ?, published = ?
WHERE id = ?
RETURNING id, center_id, name, sport, indoor, surface, price_per_hour_cents, currency, published, created_at
`

type UpdateCourtParams struct {
	ID                int64
	Name              string
	Sport             string
	Indoor            bool
	Surface           string
	PricePerHourCents int64
	Currency          string
	Published         bool
}

func (q *Queries) UpdateCourt(ctx context.Context, arg UpdateCourtParams) (Court, error) {
	var c Court
	err := q.db.QueryRowContext(ctx, updateCourt,
		arg.Name, arg.Sport, arg.Indoor, arg.Surface,
		arg.PricePerHourCents, arg.Currency, arg.Published, arg.ID,
	).Scan(
		&c.ID, &c.CenterID, &c.Name, &c.Sport, &c.Indoor, &c.Surface,
		&c.PricePerHourCents, &c.Currency, &c.Published, &c.CreatedAt,
	)
	return c, err
}
