package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/errorz"
)

// Store provides image record storage on top of a sql database.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

// CreateImage saves a new image record to the database.
func (s *Store) CreateImage(ctx context.Context, img Image) error {
	const q = `
INSERT INTO images (id, user_id, filename, path, created_at)
VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		img.ID, img.UserID, img.Filename, img.Path, img.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", errorz.MapDBErr(err))
	}

	return nil
}

// ImagesByUser returns a user's uploaded images, newest first.
func (s *Store) ImagesByUser(ctx context.Context, userID uuid.UUID) ([]Image, error) {
	const q = `
SELECT id, user_id, filename, path, created_at
FROM images
WHERE user_id = ?
ORDER BY created_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", errorz.MapDBErr(err))
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		var (
			img    Image
			userID sql.NullString
		)
		if err := rows.Scan(&img.ID, &userID, &img.Filename, &img.Path, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		if userID.Valid {
			id, err := uuid.Parse(userID.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse image user id: %w", err)
			}
			img.UserID = &id
		}
		out = append(out, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	return out, nil
}
