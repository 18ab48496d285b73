package store

import (
	"context"
)

const getCenterByID = `
SELECT id, name, slug, timezone, slot_duration_minutes, created_at
FROM centers
WHERE id = ?
`

func (q *Queries) GetCenterByID(ctx context.Context, id int64) (Center, error) {
	var c Center
	err := q.db.QueryRowContext(ctx, getCenterByID, id).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Timezone, &c.SlotDurationMinutes, &c.CreatedAt,
	)
	return c, err
}

const centerExists = `
SELECT COUNT(*) FROM centers WHERE id = ?
`

func (q *Queries) CenterExists(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, centerExists, id).Scan(&count)
	return count, err
}

const createCenter = `
INSERT INTO centers (name, slug, timezone, slot_duration_minutes)
VALUES (?, ?, ?, ?)
RETURNING id, name, slug, timezone, slot_duration_minutes, created_at
`

type CreateCenterParams struct {
	Name                string
	Slug                string
	Timezone            string
	SlotDurationMinutes int64
}

func (q *Queries) CreateCenter(ctx context.Context, arg CreateCenterParams) (Center, error) {
	var c Center
	err := q.db.QueryRowContext(ctx, createCenter,
		arg.Name, arg.Slug, arg.Timezone, arg.SlotDurationMinutes,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Timezone, &c.SlotDurationMinutes, &c.CreatedAt)
	return c, err
}

const getCenterHours = `
SELECT center_id, day_of_week, opens_at, closes_at
FROM center_hours
WHERE center_id = ?
ORDER BY day_of_week
`

func (q *Queries) GetCenterHours(ctx context.Context, centerID int64) ([]CenterHour, error) {
	rows, err := q.db.QueryContext(ctx, getCenterHours, centerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []CenterHour
	for rows.Next() {
		var h CenterHour
		if err := rows.Scan(&h.CenterID, &h.DayOfWeek, &h.OpensAt, &h.ClosesAt); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

const upsertCenterHours = `
INSERT INTO center_hours (center_id, day_of_week, opens_at, closes_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (center_id, day_of_week)
DO UPDATE SET opens_at = excluded.opens_at, closes_at = excluded.closes_at
RETURNING center_id, day_of_week, opens_at, closes_at
`

type UpsertCenterHoursParams struct {
	CenterID  int64
	DayOfWeek int64
	OpensAt   string
	ClosesAt  string
}

func (q *Queries) UpsertCenterHours(ctx context.Context, arg UpsertCenterHoursParams) (CenterHour, error) {
	var h CenterHour
	err := q.db.QueryRowContext(ctx, upsertCenterHours,
		arg.CenterID, arg.DayOfWeek, arg.OpensAt, arg.ClosesAt,
	).Scan(&h.CenterID, &h.DayOfWeek, &h.OpensAt, &h.ClosesAt)
	return h, err
}

const deleteCenterHours = `
DELETE FROM center_hours
WHERE center_id = ? AND day_of_week = ?
`

type DeleteCenterHoursParams struct {
	CenterID  int64
	DayOfWeek int64
}

func (q *Queries) DeleteCenterHours(ctx context.Context, arg DeleteCenterHoursParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCenterHours, arg.CenterID, arg.DayOfWeek)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
