// Package db provides the sqlite-backed store for user accounts.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/auth"
	"github.com/pm13/formation-backend/internal/email"
	"github.com/pm13/formation-backend/internal/errorz"
)

// Store provides user storage on top of a sql database.
type Store struct {
	db *sql.DB
}

// New creates a new Store.
func New(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

const userColumns = `id, full_name, email, job_title, organization, city, role, password_hash, email_verified, verification_token_hash, verification_token_expires_at, registered_at, updated_at`

// CreateUser saves a new user to the database.
func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		u.ID,
		u.FullName,
		string(u.Email),
		u.JobTitle,
		u.Organization,
		u.City,
		string(u.Role),
		u.PasswordHash.String(),
		u.Verification,
		u.TokenHash,
		u.TokenExpiresAt,
		u.RegisteredAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", errorz.MapDBErr(err))
	}

	return nil
}

// UpdateUser saves the modified user to the database.
func (s *Store) UpdateUser(ctx context.Context, u *auth.User) error {
	const q = `
UPDATE users SET
	full_name = ?,
	email = ?,
	job_title = ?,
	organization = ?,
	city = ?,
	role = ?,
	password_hash = ?,
	email_verified = ?,
	verification_token_hash = ?,
	verification_token_expires_at = ?,
	updated_at = ?
WHERE id = ?`

	result, err := s.db.ExecContext(ctx, q,
		u.FullName,
		string(u.Email),
		u.JobTitle,
		u.Organization,
		u.City,
		string(u.Role),
		u.PasswordHash.String(),
		u.Verification,
		u.TokenHash,
		u.TokenExpiresAt,
		u.UpdatedAt.UTC(),
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", errorz.MapDBErr(err))
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

// UserByID finds a single user by id.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (auth.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	return s.scanUser(s.db.QueryRowContext(ctx, q, id))
}

// UserByEmail finds a single user by email address.
func (s *Store) UserByEmail(ctx context.Context, addr email.Address) (auth.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	return s.scanUser(s.db.QueryRowContext(ctx, q, string(addr)))
}

// UserByTokenHash finds the user that owns the verification token with the
// given storage hash.
func (s *Store) UserByTokenHash(ctx context.Context, hash string) (auth.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE verification_token_hash = ?`

	return s.scanUser(s.db.QueryRowContext(ctx, q, hash))
}

// ListUsers returns all users, most recently registered first.
func (s *Store) ListUsers(ctx context.Context) ([]auth.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY registered_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", errorz.MapDBErr(err))
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// row is implemented by both sql.Row and sql.Rows.
type row interface {
	Scan(dest ...any) error
}

func (s *Store) scanUser(r row) (auth.User, error) {
	var (
		u       auth.User
		addr    string
		role    string
		pwdHash string
	)

	err := r.Scan(
		&u.ID,
		&u.FullName,
		&addr,
		&u.JobTitle,
		&u.Organization,
		&u.City,
		&role,
		&pwdHash,
		&u.Verification,
		&u.TokenHash,
		&u.TokenExpiresAt,
		&u.RegisteredAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return auth.User{}, fmt.Errorf("failed to scan user: %w", errorz.MapDBErr(err))
	}

	u.Email = email.Address(addr)
	u.Role = auth.Role(role)

	hash, err := auth.ParseArgon2Hash(pwdHash)
	if err != nil {
		return auth.User{}, fmt.Errorf("failed to parse stored password hash: %w", err)
	}
	u.PasswordHash = hash

	return u, nil
}
