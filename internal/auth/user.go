package auth

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/email"
)

// Role is the access level of a user. It is only ever changed through the
// privileged admin path.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// VerificationState is the email verification state of a user.
//
// Accounts created before email verification existed have no explicit
// state recorded, this is represented by VerificationLegacyUnknown rather
// than overloading a nullable boolean.
type VerificationState int

const (
	// VerificationLegacyUnknown is the state of accounts that predate the
	// verification feature. By policy they are allowed to login.
	VerificationLegacyUnknown VerificationState = iota
	// VerificationUnverified means the account has an active or expired
	// verification token and may not login yet.
	VerificationUnverified
	// VerificationVerified is terminal: once verified, an account never
	// goes back.
	VerificationVerified
)

func (v VerificationState) String() string {
	switch v {
	case VerificationLegacyUnknown:
		return "legacy-unknown"
	case VerificationUnverified:
		return "unverified"
	case VerificationVerified:
		return "verified"
	}
	return fmt.Sprintf("unknown(%d)", int(v))
}

// Value implements driver.Valuer. LegacyUnknown maps to NULL, matching the
// records that were created before the nullable email_verified column was
// ever written.
func (v VerificationState) Value() (driver.Value, error) {
	switch v {
	case VerificationLegacyUnknown:
		return nil, nil
	case VerificationUnverified:
		return false, nil
	case VerificationVerified:
		return true, nil
	}
	return nil, fmt.Errorf("invalid verification state %d", int(v))
}

// Scan implements sql.Scanner, the inverse of Value.
func (v *VerificationState) Scan(src any) error {
	if src == nil {
		*v = VerificationLegacyUnknown
		return nil
	}

	switch b := src.(type) {
	case bool:
		if b {
			*v = VerificationVerified
		} else {
			*v = VerificationUnverified
		}
		return nil
	case int64:
		if b != 0 {
			*v = VerificationVerified
		} else {
			*v = VerificationUnverified
		}
		return nil
	}

	return fmt.Errorf("cannot scan %T into VerificationState", src)
}

// User contains the data for a user.
//
// TokenHash and TokenExpiresAt are either both nil or both set. They hold
// the storage hash and expiry of the active verification token and are
// cleared permanently once the account is verified.
type User struct {
	ID             uuid.UUID
	FullName       string
	Email          email.Address
	JobTitle       string
	Organization   string
	City           string
	Role           Role
	PasswordHash   Argon2Hash
	Verification   VerificationState
	TokenHash      *string
	TokenExpiresAt *time.Time
	RegisteredAt   time.Time
	UpdatedAt      time.Time
}
