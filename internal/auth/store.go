package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/email"
)

// Store is the persistence boundary for user records.
//
// Lookups return errorz.ErrNotFound when no record matches. Updates are
// single-row writes, the store's own atomicity is all the coordination the
// service relies on.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id uuid.UUID) (User, error)
	UserByEmail(ctx context.Context, addr email.Address) (User, error)
	UserByTokenHash(ctx context.Context, hash string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}
