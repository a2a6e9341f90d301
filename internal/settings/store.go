// Package settings provides the persisted key-value configuration that
// administrators can edit at runtime, most notably the SMTP overrides.
package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pm13/formation-backend/internal/errorz"
)

// Store provides settings storage on top of a sql database.
type Store struct {
	db *sql.DB
}

// New creates a new Store.
func New(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

// All returns every stored setting as a key-value map. No stored settings
// is not an error, the map is simply empty.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	const q = `SELECT key, value FROM settings`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", errorz.MapDBErr(err))
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return out, nil
}

// Get returns the value for a single key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM settings WHERE key = ?`

	var value string
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to get setting %q: %w", key, errorz.MapDBErr(err))
	}

	return value, nil
}

// Set stores the given key-value pairs, inserting new keys and overwriting
// existing ones. Keys not present in the map are left untouched.
func (s *Store) Set(ctx context.Context, values map[string]string) error {
	const q = `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	for key, value := range values {
		if _, err := tx.ExecContext(ctx, q, key, value); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("failed to rollback: %w (original error %v)", rbErr, err)
			}
			return fmt.Errorf("failed to set setting %q: %w", key, errorz.MapDBErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}
