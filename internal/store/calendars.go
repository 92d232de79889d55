package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type calendarRepo struct {
	pool Querier
}

const calendarColumns = `id, name, description, color, selected, created_at, updated_at`

func (r *calendarRepo) List(ctx context.Context) ([]Calendar, error) {
	defer observeDB(ctx, "calendars.list")()

	const q = `SELECT ` + calendarColumns + ` FROM calendars ORDER BY name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("list calendars", err)
	}
	defer rows.Close()

	return scanCalendars(rows)
}

func (r *calendarRepo) ListSelected(ctx context.Context) ([]Calendar, error) {
	defer observeDB(ctx, "calendars.list_selected")()

	const q = `SELECT ` + calendarColumns + ` FROM calendars WHERE selected ORDER BY name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("list selected calendars", err)
	}
	defer rows.Close()

	return scanCalendars(rows)
}

func (r *calendarRepo) GetByID(ctx context.Context, id string) (*Calendar, error) {
	defer observeDB(ctx, "calendars.get")()

	const q = `SELECT ` + calendarColumns + ` FROM calendars WHERE id = $1`
	cal, err := scanCalendar(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get calendar", err)
	}
	return cal, nil
}

func (r *calendarRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	defer observeDB(ctx, "calendars.ids")()

	rows, err := r.pool.Query(ctx, `SELECT id FROM calendars`)
	if err != nil {
		return nil, storageErr("list calendar ids", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan calendar id", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate calendar ids", err)
	}
	return ids, nil
}

func (r *calendarRepo) Create(ctx context.Context, cal Calendar) (*Calendar, error) {
	defer observeDB(ctx, "calendars.create")()

	const q = `INSERT INTO calendars (id, name, description, color, selected)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + calendarColumns
	created, err := scanCalendar(r.pool.QueryRow(ctx, q, cal.ID, cal.Name, cal.Description, cal.Color, cal.Selected))
	if err != nil {
		return nil, storageErr("create calendar", err)
	}
	return created, nil
}

// Upsert refreshes remote-owned fields while preserving the local selected
// flag. The COALESCE subquery keeps an existing selection; a fresh row
// defaults to not selected.
func (r *calendarRepo) Upsert(ctx context.Context, cal Calendar) error {
	defer observeDB(ctx, "calendars.upsert")()

	const q = `INSERT INTO calendars (id, name, description, color, selected)
VALUES ($1, $2, $3, $4,
	COALESCE((SELECT selected FROM calendars WHERE id = $1), FALSE))
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	color = EXCLUDED.color,
	updated_at = NOW()`
	if _, err := r.pool.Exec(ctx, q, cal.ID, cal.Name, cal.Description, cal.Color); err != nil {
		return storageErr("upsert calendar", err)
	}
	return nil
}

func (r *calendarRepo) ToggleSelected(ctx context.Context, id string) error {
	defer observeDB(ctx, "calendars.toggle")()

	const q = `UPDATE calendars SET selected = NOT selected, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return storageErr("toggle calendar", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *calendarRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "calendars.delete")()

	// Events cascade via the foreign key.
	tag, err := r.pool.Exec(ctx, `DELETE FROM calendars WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete calendar", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCalendar(row pgx.Row) (*Calendar, error) {
	var cal Calendar
	if err := row.Scan(&cal.ID, &cal.Name, &cal.Description, &cal.Color, &cal.Selected, &cal.CreatedAt, &cal.UpdatedAt); err != nil {
		return nil, err
	}
	return &cal, nil
}

func scanCalendars(rows pgx.Rows) ([]Calendar, error) {
	var calendars []Calendar
	for rows.Next() {
		cal, err := scanCalendar(rows)
		if err != nil {
			return nil, storageErr("scan calendar", err)
		}
		calendars = append(calendars, *cal)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate calendars", err)
	}
	return calendars, nil
}
