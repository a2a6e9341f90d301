package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/email"
	"github.com/pm13/formation-backend/internal/errorz"
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong passwords,
	// they are deliberately indistinguishable to prevent user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountUnverified means the credentials were right but the account
	// has not confirmed its email address yet.
	ErrAccountUnverified = errors.New("account not verified")
	// ErrTokenExpired means the token was recognized but its validity
	// window has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrDuplicateEmail means an account with the same email already exists.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// Mailer is used to send the verification emails. Implemented by the email
// service.
type Mailer interface {
	SendVerification(ctx context.Context, to email.Address, displayName, token string) error
	SendResend(ctx context.Context, to email.Address, displayName, token string) error
}

// ErrFunc is a function that handles errors from worker goroutines.
type ErrFunc func(error)

// ServiceConfig is the configuration for the Service.
type ServiceConfig struct {
	// WorkerTimeout is the max duration worker goroutines are allowed
	// to take before they are cancelled.
	WorkerTimeout time.Duration
	// TokenTTL is the duration a verification token is valid.
	TokenTTL time.Duration
}

// Service provides the main rules for accounts: registration, login,
// email verification and the resend flow, plus the profile and admin
// mutations.
type Service struct {
	store      Store
	mailer     Mailer
	wg         *sync.WaitGroup
	errHandler ErrFunc
	cfg        ServiceConfig

	// comparisonHash is used to compare passwords when no user was found.
	comparisonHash Argon2Hash

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewService(s Store, mailer Mailer, errHandler ErrFunc, cfg ServiceConfig) (*Service, error) {
	tok, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	hash, err := hashBytes(tok[:])
	if err != nil {
		return nil, err
	}

	svc := &Service{
		store:          s,
		mailer:         mailer,
		wg:             &sync.WaitGroup{},
		errHandler:     errHandler,
		cfg:            cfg,
		comparisonHash: hash,
		NowFunc:        time.Now,
	}

	return svc, nil
}

// Wait waits for all open workers to finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Registration is the input for Register.
type Registration struct {
	FullName     string
	Email        email.Address
	JobTitle     string
	Organization string
	City         string
	Password     Password
}

// Credentials is the input for Login.
type Credentials struct {
	Email    email.Address
	Password Password
}

// Register creates a new unverified account and dispatches the verification
// email.
//
// The account is fully persisted before Register returns; only the email is
// sent on a worker goroutine. A delivery failure is reported to the error
// handler and never to the caller, the only recovery path for a user who
// did not receive the email is ResendVerification.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	pwdHash, err := reg.Password.Hash()
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := GenerateToken()
	if err != nil {
		return User{}, fmt.Errorf("failed to generate verification token: %w", err)
	}

	now := s.NowFunc()
	tokenHash := token.StorageHash()
	expiresAt := now.Add(s.cfg.TokenTTL)

	user := User{
		ID:             uuid.New(),
		FullName:       reg.FullName,
		Email:          reg.Email,
		JobTitle:       reg.JobTitle,
		Organization:   reg.Organization,
		City:           reg.City,
		Role:           RoleUser,
		PasswordHash:   pwdHash,
		Verification:   VerificationUnverified,
		TokenHash:      &tokenHash,
		TokenExpiresAt: &expiresAt,
		RegisteredAt:   now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, errorz.ErrConstraintViolated) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}

	s.dispatch(func(ctx context.Context) error {
		return s.mailer.SendVerification(ctx, user.Email, user.FullName, token.String())
	})

	return user, nil
}

// Login checks the provided credentials and verification state.
//
// Only accounts that are explicitly unverified are rejected with
// ErrAccountUnverified. Accounts in the legacy-unknown state predate the
// verification feature and are allowed to login.
func (s *Service) Login(ctx context.Context, c Credentials) (User, error) {
	user, err := s.store.UserByEmail(ctx, c.Email)
	if err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			// Even if no user is found we compare to a hash to prevent
			// timing differences that could result in user enumeration
			// attacks.
			_ = c.Password.Match(s.comparisonHash)
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if !c.Password.Match(user.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}

	if user.Verification == VerificationUnverified {
		return User{}, ErrAccountUnverified
	}

	return user, nil
}

// VerifyEmail consumes a verification token.
//
// An unknown or malformed token fails with ErrInvalidToken. A recognized
// but stale token fails with ErrTokenExpired and leaves the record
// unchanged, the token stays in place until a resend overwrites it. On
// success the account becomes verified and the token is cleared, so a
// second call with the same token fails with ErrInvalidToken.
func (s *Service) VerifyEmail(ctx context.Context, raw string) (User, error) {
	token, err := ParseToken(raw)
	if err != nil {
		return User{}, ErrInvalidToken
	}

	user, err := s.store.UserByTokenHash(ctx, token.StorageHash())
	if err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}

	now := s.NowFunc()
	if user.TokenExpiresAt == nil || now.After(*user.TokenExpiresAt) {
		return User{}, ErrTokenExpired
	}

	user.Verification = VerificationVerified
	user.TokenHash = nil
	user.TokenExpiresAt = nil
	user.UpdatedAt = now

	if err := s.store.UpdateUser(ctx, &user); err != nil {
		return User{}, err
	}

	return user, nil
}

// ResendVerification issues a fresh token for a not-yet-verified account
// and dispatches a new verification email. The previous token becomes
// permanently unusable, even if it had not expired.
//
// Resending for an account that is already verified is a harmless no-op:
// nothing is issued, nothing is sent and no error is returned.
func (s *Service) ResendVerification(ctx context.Context, addr email.Address) error {
	user, err := s.store.UserByEmail(ctx, addr)
	if err != nil {
		return err
	}

	if user.Verification == VerificationVerified {
		return nil
	}

	token, err := GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	now := s.NowFunc()
	tokenHash := token.StorageHash()
	expiresAt := now.Add(s.cfg.TokenTTL)

	user.TokenHash = &tokenHash
	user.TokenExpiresAt = &expiresAt
	user.UpdatedAt = now

	if err := s.store.UpdateUser(ctx, &user); err != nil {
		return err
	}

	s.dispatch(func(ctx context.Context) error {
		return s.mailer.SendResend(ctx, user.Email, user.FullName, token.String())
	})

	return nil
}

// ProfileUpdate is the input for UpdateProfile. Nil fields are left
// untouched.
type ProfileUpdate struct {
	FullName     *string
	JobTitle     *string
	Organization *string
	City         *string
	Password     *Password
}

// UpdateProfile applies a partial profile update to a user.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, up ProfileUpdate) (User, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if up.FullName != nil {
		user.FullName = *up.FullName
	}
	if up.JobTitle != nil {
		user.JobTitle = *up.JobTitle
	}
	if up.Organization != nil {
		user.Organization = *up.Organization
	}
	if up.City != nil {
		user.City = *up.City
	}
	if up.Password != nil {
		hash, err := up.Password.Hash()
		if err != nil {
			return User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.NowFunc()

	if err := s.store.UpdateUser(ctx, &user); err != nil {
		return User{}, err
	}

	return user, nil
}

// AdminUpdate is the input for AdminUpdateUser. Nil fields are left
// untouched.
type AdminUpdate struct {
	Role     *Role
	Password *Password
}

// AdminUpdateUser applies role and password changes through the privileged
// path.
func (s *Service) AdminUpdateUser(ctx context.Context, id uuid.UUID, up AdminUpdate) (User, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if up.Role != nil {
		user.Role = *up.Role
	}
	if up.Password != nil {
		hash, err := up.Password.Hash()
		if err != nil {
			return User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.NowFunc()

	if err := s.store.UpdateUser(ctx, &user); err != nil {
		return User{}, err
	}

	return user, nil
}

// UserByID returns a single user.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return s.store.UserByID(ctx, id)
}

// ListUsers returns all users, most recently registered first.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// dispatch runs f on a tracked worker goroutine with a bounded lifetime.
// Errors are only observed by the error handler.
func (s *Service) dispatch(f func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		wCtx, cancel := context.WithTimeout(context.Background(), s.cfg.WorkerTimeout)
		defer cancel()

		if err := f(wCtx); err != nil {
			s.errHandler(err)
		}
	}()
}
