package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/auth"
	"github.com/pm13/formation-backend/internal/email"
	"github.com/pm13/formation-backend/internal/errorz"
)

// userResponse is the external projection of a user. The credential hash
// never appears in it. EmailVerified is null for accounts that predate
// email verification.
type userResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	JobTitle     string    `json:"jobTitle"`
	Organization string    `json:"organization"`
	City         string    `json:"city"`
	Role         string    `json:"role"`
	Verified     *bool     `json:"emailVerified"`
	RegisteredAt time.Time `json:"registeredAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newUserResponse(u auth.User) userResponse {
	var verified *bool
	switch u.Verification {
	case auth.VerificationVerified:
		v := true
		verified = &v
	case auth.VerificationUnverified:
		v := false
		verified = &v
	}

	return userResponse{
		ID:           u.ID.String(),
		FullName:     u.FullName,
		Email:        string(u.Email),
		JobTitle:     u.JobTitle,
		Organization: u.Organization,
		City:         u.City,
		Role:         string(u.Role),
		Verified:     verified,
		RegisteredAt: u.RegisteredAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func newUserResponses(users []auth.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FullName     string `json:"fullName"`
		Email        string `json:"email"`
		JobTitle     string `json:"jobTitle"`
		Organization string `json:"organization"`
		City         string `json:"city"`
		Password     string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	var errs errorz.InvalidInput

	addr, err := email.ParseAddress(in.Email)
	if err != nil {
		errs = append(errs, errorz.Keyed{Key: "email", Err: err})
	}
	pwd, err := auth.ParsePassword(in.Password)
	if err != nil {
		errs = append(errs, errorz.Keyed{Key: "password", Err: err})
	}
	if in.FullName == "" {
		errs = append(errs, errorz.Keyed{Key: "fullName", Err: errors.New("is required")})
	}
	if len(errs) > 0 {
		s.respondErr(w, r, errs)
		return
	}

	user, err := s.auth.Register(r.Context(), auth.Registration{
		FullName:     in.FullName,
		Email:        addr,
		JobTitle:     in.JobTitle,
		Organization: in.Organization,
		City:         in.City,
		Password:     pwd,
	})
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			s.logger.Error("failed to create user", "error", err)
			s.respond(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to create user"})
			return
		}
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusCreated, newUserResponse(user))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	addr, err := email.ParseAddress(in.Email)
	if err != nil {
		// A malformed email can't match an account, treat it the same
		// as unknown credentials.
		s.respondErr(w, r, auth.ErrInvalidCredentials)
		return
	}
	pwd, err := auth.ParsePassword(in.Password)
	if err != nil {
		s.respondErr(w, r, auth.ErrInvalidCredentials)
		return
	}

	user, err := s.auth.Login(r.Context(), auth.Credentials{
		Email:    addr,
		Password: pwd,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, map[string]any{
		"user": newUserResponse(user),
	})
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	if _, err := s.auth.VerifyEmail(r.Context(), in.Token); err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, map[string]any{
		"success": true,
	})
}

func (s *Server) resendVerification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	addr, err := email.ParseAddress(in.Email)
	if err != nil {
		s.respondErr(w, r, errorz.ErrNotFound)
		return
	}

	if err := s.auth.ResendVerification(r.Context(), addr); err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, map[string]any{
		"message": "Verification email sent",
	})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, newUserResponses(users))
}

func (s *Server) userByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, errorz.ErrNotFound)
		return
	}

	user, err := s.auth.UserByID(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, newUserResponse(user))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, errorz.ErrNotFound)
		return
	}

	var in struct {
		FullName     *string `json:"fullName"`
		JobTitle     *string `json:"jobTitle"`
		Organization *string `json:"organization"`
		City         *string `json:"city"`
		Password     *string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	up := auth.ProfileUpdate{
		FullName:     in.FullName,
		JobTitle:     in.JobTitle,
		Organization: in.Organization,
		City:         in.City,
	}
	if in.Password != nil {
		pwd, err := auth.ParsePassword(*in.Password)
		if err != nil {
			s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "password", Err: err}})
			return
		}
		up.Password = &pwd
	}

	user, err := s.auth.UpdateProfile(r.Context(), id, up)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, newUserResponse(user))
}

func (s *Server) adminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, newUserResponses(users))
}

func (s *Server) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		s.respondErr(w, r, errorz.ErrNotFound)
		return
	}

	var in struct {
		Role     *string `json:"role"`
		Password *string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	var up auth.AdminUpdate
	if in.Role != nil {
		role := auth.Role(*in.Role)
		if role != auth.RoleUser && role != auth.RoleAdmin {
			s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "role", Err: errors.New("must be user or admin")}})
			return
		}
		up.Role = &role
	}
	if in.Password != nil {
		pwd, err := auth.ParsePassword(*in.Password)
		if err != nil {
			s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "password", Err: err}})
			return
		}
		up.Password = &pwd
	}

	user, err := s.auth.AdminUpdateUser(r.Context(), id, up)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, newUserResponse(user))
}
