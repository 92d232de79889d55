package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type settingsRepo struct {
	pool Querier
}

func (r *settingsRepo) Get(ctx context.Context, key string) (string, error) {
	defer observeDB(ctx, "settings.get")()

	const q = `SELECT value FROM admin_settings WHERE key = $1`
	var value string
	if err := r.pool.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", storageErr("get setting", err)
	}
	return value, nil
}

func (r *settingsRepo) Set(ctx context.Context, key, value string) error {
	defer observeDB(ctx, "settings.set")()

	const q = `INSERT INTO admin_settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := r.pool.Exec(ctx, q, key, value); err != nil {
		return storageErr("set setting", err)
	}
	return nil
}

func (r *settingsRepo) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	defer observeDB(ctx, "settings.get_many")()

	const q = `SELECT key, value FROM admin_settings WHERE key = ANY($1)`
	rows, err := r.pool.Query(ctx, q, keys)
	if err != nil {
		return nil, storageErr("get settings", err)
	}
	defer rows.Close()

	return scanSettings(rows)
}

func (r *settingsRepo) SetMany(ctx context.Context, values map[string]string) (int, error) {
	defer observeDB(ctx, "settings.set_many")()

	if len(values) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, storageErr("begin settings batch", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `INSERT INTO admin_settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	count := 0
	for key, value := range values {
		if _, err := tx.Exec(ctx, q, key, value); err != nil {
			return 0, storageErr("set settings batch", err)
		}
		count++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storageErr("commit settings batch", err)
	}
	return count, nil
}

func (r *settingsRepo) AllPublic(ctx context.Context) (map[string]string, error) {
	defer observeDB(ctx, "settings.all_public")()

	const q = `SELECT key, value FROM admin_settings
WHERE key NOT LIKE '%token%' AND key NOT LIKE '%secret%'`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("list settings", err)
	}
	defer rows.Close()

	return scanSettings(rows)
}

func scanSettings(rows pgx.Rows) (map[string]string, error) {
	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, storageErr("scan setting", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate settings", err)
	}
	return settings, nil
}
