package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type syncLogRepo struct {
	pool Querier
}

const syncLogColumns = `id, status, message, events_synced, started_at, completed_at, created_at`

func (r *syncLogRepo) Create(ctx context.Context, status, message string) (*SyncLog, error) {
	defer observeDB(ctx, "sync_log.create")()

	const q = `INSERT INTO sync_log (status, message, started_at)
VALUES ($1, $2, NOW())
RETURNING ` + syncLogColumns
	entry, err := scanSyncLog(r.pool.QueryRow(ctx, q, status, message))
	if err != nil {
		return nil, storageErr("create sync log", err)
	}
	return entry, nil
}

func (r *syncLogRepo) Finish(ctx context.Context, id int64, status, message string, eventsSynced int) error {
	defer observeDB(ctx, "sync_log.finish")()

	const q = `UPDATE sync_log
SET status = $2, message = $3, events_synced = $4, completed_at = NOW()
WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, status, message, eventsSynced)
	if err != nil {
		return storageErr("finish sync log", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *syncLogRepo) Recent(ctx context.Context, limit int) ([]SyncLog, error) {
	defer observeDB(ctx, "sync_log.recent")()

	const q = `SELECT ` + syncLogColumns + ` FROM sync_log ORDER BY started_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, storageErr("list sync logs", err)
	}
	defer rows.Close()

	var logs []SyncLog
	for rows.Next() {
		entry, err := scanSyncLog(rows)
		if err != nil {
			return nil, storageErr("scan sync log", err)
		}
		logs = append(logs, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate sync logs", err)
	}
	return logs, nil
}

func (r *syncLogRepo) GetByID(ctx context.Context, id int64) (*SyncLog, error) {
	defer observeDB(ctx, "sync_log.get")()

	const q = `SELECT ` + syncLogColumns + ` FROM sync_log WHERE id = $1`
	entry, err := scanSyncLog(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get sync log", err)
	}
	return entry, nil
}

func scanSyncLog(row pgx.Row) (*SyncLog, error) {
	var entry SyncLog
	if err := row.Scan(&entry.ID, &entry.Status, &entry.Message, &entry.EventsSynced,
		&entry.StartedAt, &entry.CompletedAt, &entry.CreatedAt); err != nil {
		return nil, err
	}
	return &entry, nil
}
