package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// KVRepo stores opaque string values in the app_config table.
type KVRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db, now: time.Now}
}

func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM app_config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get app config %q: %w", key, err)
	}
	return value, true, nil
}

// Put overwrites the value under key in a single statement.
func (r *KVRepo) Put(ctx context.Context, key, value string) error {
	now := r.now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO app_config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		now,
	); err != nil {
		return fmt.Errorf("upsert app config %q: %w", key, err)
	}
	return nil
}
