package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type eventRepo struct {
	pool Querier
}

const eventColumns = `e.id, e.calendar_id, e.title, e.description, e.start_time, e.end_time,
	e.all_day, e.location, e.created_at, e.updated_at`

// Upsert inserts or replaces an event by its remote id. Running the same
// sync twice leaves the row unchanged apart from updated_at.
func (r *eventRepo) Upsert(ctx context.Context, event Event) error {
	defer observeDB(ctx, "events.upsert")()

	const q = `INSERT INTO events (id, calendar_id, title, description, start_time, end_time, all_day, location)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	calendar_id = EXCLUDED.calendar_id,
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	start_time = EXCLUDED.start_time,
	end_time = EXCLUDED.end_time,
	all_day = EXCLUDED.all_day,
	location = EXCLUDED.location,
	updated_at = NOW()`
	if _, err := r.pool.Exec(ctx, q,
		event.ID, event.CalendarID, event.Title, event.Description,
		event.StartTime, event.EndTime, event.AllDay, event.Location); err != nil {
		return storageErr("upsert event", err)
	}
	return nil
}

func (r *eventRepo) Create(ctx context.Context, event Event) (*Event, error) {
	defer observeDB(ctx, "events.create")()

	const q = `INSERT INTO events (id, calendar_id, title, description, start_time, end_time, all_day, location)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, calendar_id, title, description, start_time, end_time, all_day, location, created_at, updated_at`
	var created Event
	err := r.pool.QueryRow(ctx, q,
		event.ID, event.CalendarID, event.Title, event.Description,
		event.StartTime, event.EndTime, event.AllDay, event.Location,
	).Scan(&created.ID, &created.CalendarID, &created.Title, &created.Description,
		&created.StartTime, &created.EndTime, &created.AllDay, &created.Location,
		&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, storageErr("create event", err)
	}
	return &created, nil
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*Event, error) {
	defer observeDB(ctx, "events.get")()

	const q = `SELECT id, calendar_id, title, description, start_time, end_time, all_day, location, created_at, updated_at
FROM events WHERE id = $1`
	var event Event
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&event.ID, &event.CalendarID, &event.Title, &event.Description,
		&event.StartTime, &event.EndTime, &event.AllDay, &event.Location,
		&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get event", err)
	}
	return &event, nil
}

func (r *eventRepo) ListByCalendar(ctx context.Context, calendarID string) ([]Event, error) {
	defer observeDB(ctx, "events.list_by_calendar")()

	const q = `SELECT ` + eventColumns + `, c.name, c.color
FROM events e
JOIN calendars c ON e.calendar_id = c.id
WHERE e.calendar_id = $1 AND c.selected
ORDER BY e.start_time ASC`
	rows, err := r.pool.Query(ctx, q, calendarID)
	if err != nil {
		return nil, storageErr("list events by calendar", err)
	}
	defer rows.Close()

	return scanJoinedEvents(rows)
}

func (r *eventRepo) ListByRange(ctx context.Context, start, end, calendarID string) ([]Event, error) {
	defer observeDB(ctx, "events.list_by_range")()

	q := `SELECT ` + eventColumns + `, c.name, c.color
FROM events e
JOIN calendars c ON e.calendar_id = c.id
WHERE c.selected AND e.end_time >= $1 AND e.start_time <= $2`
	args := []any{start, end}
	if calendarID != "" {
		q += ` AND e.calendar_id = $3`
		args = append(args, calendarID)
	}
	q += ` ORDER BY e.start_time ASC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, storageErr("list events by range", err)
	}
	defer rows.Close()

	return scanJoinedEvents(rows)
}

func (r *eventRepo) ListToday(ctx context.Context) ([]Event, error) {
	defer observeDB(ctx, "events.list_today")()

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	const q = `SELECT ` + eventColumns + `, c.name, c.color
FROM events e
JOIN calendars c ON e.calendar_id = c.id
WHERE c.selected AND e.start_time < $1 AND e.end_time >= $2
ORDER BY e.start_time ASC`
	rows, err := r.pool.Query(ctx, q, endOfDay.UTC().Format(time.RFC3339), startOfDay.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, storageErr("list today's events", err)
	}
	defer rows.Close()

	return scanJoinedEvents(rows)
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "events.delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *eventRepo) DeleteByCalendar(ctx context.Context, calendarID string) (int64, error) {
	defer observeDB(ctx, "events.delete_by_calendar")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE calendar_id = $1`, calendarID)
	if err != nil {
		return 0, storageErr("delete events by calendar", err)
	}
	return tag.RowsAffected(), nil
}

func scanJoinedEvents(rows pgx.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID, &event.CalendarID, &event.Title, &event.Description,
			&event.StartTime, &event.EndTime, &event.AllDay, &event.Location,
			&event.CreatedAt, &event.UpdatedAt,
			&event.CalendarName, &event.CalendarColor); err != nil {
			return nil, storageErr("scan event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate events", err)
	}
	return events, nil
}
