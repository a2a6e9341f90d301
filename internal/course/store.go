package course

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/errorz"
)

// Store provides module and training storage on top of a sql database.
type Store struct {
	db *sql.DB
}

// New creates a new Store.
func New(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

const moduleColumns = `id, title, description, icon, data, is_active, order_index`

// ActiveModules returns the active catalogue in display order.
func (s *Store) ActiveModules(ctx context.Context) ([]Module, error) {
	const q = `SELECT ` + moduleColumns + ` FROM modules WHERE is_active ORDER BY order_index ASC, id ASC`

	return s.queryModules(ctx, q)
}

// ModuleByID finds a single module by id.
func (s *Store) ModuleByID(ctx context.Context, id string) (Module, error) {
	const q = `SELECT ` + moduleColumns + ` FROM modules WHERE id = ?`

	var (
		m    Module
		data string
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.Title, &m.Description, &m.Icon, &data, &m.IsActive, &m.OrderIndex,
	)
	if err != nil {
		return Module{}, fmt.Errorf("failed to scan module: %w", errorz.MapDBErr(err))
	}
	m.Data = []byte(data)

	return m, nil
}

// CreateModule saves a new module to the database.
func (s *Store) CreateModule(ctx context.Context, m Module) error {
	const q = `INSERT INTO modules (` + moduleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		m.ID, m.Title, m.Description, m.Icon, string(m.Data), m.IsActive, m.OrderIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to insert module: %w", errorz.MapDBErr(err))
	}

	return nil
}

// UpdateModule applies a partial update to a module and returns the result.
func (s *Store) UpdateModule(ctx context.Context, id string, up ModuleUpdate) (Module, error) {
	m, err := s.ModuleByID(ctx, id)
	if err != nil {
		return Module{}, err
	}

	if up.Title != nil {
		m.Title = *up.Title
	}
	if up.Description != nil {
		m.Description = *up.Description
	}
	if up.Icon != nil {
		m.Icon = *up.Icon
	}
	if up.Data != nil {
		m.Data = up.Data
	}
	if up.IsActive != nil {
		m.IsActive = *up.IsActive
	}
	if up.OrderIndex != nil {
		m.OrderIndex = *up.OrderIndex
	}

	const q = `
UPDATE modules SET
	title = ?,
	description = ?,
	icon = ?,
	data = ?,
	is_active = ?,
	order_index = ?
WHERE id = ?`

	_, err = s.db.ExecContext(ctx, q,
		m.Title, m.Description, m.Icon, string(m.Data), m.IsActive, m.OrderIndex, m.ID,
	)
	if err != nil {
		return Module{}, fmt.Errorf("failed to update module: %w", errorz.MapDBErr(err))
	}

	return m, nil
}

// DeleteModule removes a module from the catalogue.
func (s *Store) DeleteModule(ctx context.Context, id string) error {
	const q = `DELETE FROM modules WHERE id = ?`

	result, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("failed to delete module: %w", errorz.MapDBErr(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if n == 0 {
		return errorz.ErrNotFound
	}

	return nil
}

// TrainingsByUser returns a user's training records joined with their
// module's catalogue fields, in the catalogue's display order.
func (s *Store) TrainingsByUser(ctx context.Context, userID uuid.UUID) ([]UserTraining, error) {
	const q = `
SELECT t.user_id, t.module_id, t.status, t.progress, t.updated_at, m.title, m.icon
FROM trainings t
JOIN modules m ON m.id = t.module_id
WHERE t.user_id = ?
ORDER BY m.order_index ASC, m.id ASC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trainings: %w", errorz.MapDBErr(err))
	}
	defer rows.Close()

	var out []UserTraining
	for rows.Next() {
		var ut UserTraining
		err := rows.Scan(
			&ut.UserID, &ut.ModuleID, &ut.Status, &ut.Progress, &ut.UpdatedAt,
			&ut.ModuleTitle, &ut.ModuleIcon,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training: %w", err)
		}
		out = append(out, ut)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trainings: %w", err)
	}

	return out, nil
}

// UpsertTraining inserts or overwrites the training record for the
// (user, module) pair.
func (s *Store) UpsertTraining(ctx context.Context, t Training) error {
	if !ValidStatus(t.Status) {
		return ErrInvalidStatus
	}

	const q = `
INSERT INTO trainings (user_id, module_id, status, progress, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, module_id) DO UPDATE SET
	status = excluded.status,
	progress = excluded.progress,
	updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, q, t.UserID, t.ModuleID, t.Status, t.Progress, t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert training: %w", errorz.MapDBErr(err))
	}

	return nil
}

func (s *Store) queryModules(ctx context.Context, q string, args ...any) ([]Module, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", errorz.MapDBErr(err))
	}
	defer rows.Close()

	var out []Module
	for rows.Next() {
		var (
			m    Module
			data string
		)
		err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Icon, &data, &m.IsActive, &m.OrderIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		m.Data = []byte(data)
		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate modules: %w", err)
	}

	return out, nil
}
