package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pm13/formation-backend/internal/auth"
	"github.com/pm13/formation-backend/internal/errorz"
)

// decode reads the request body as JSON into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errorz.InvalidInput{errors.New("malformed json body")}
	}
	return nil
}

// respond writes v as a JSON response with the given status.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err, "path", r.URL.Path)
	}
}

// errorResponse is the envelope for all error responses.
type errorResponse struct {
	Error string `json:"error"`
}

// respondErr maps an error to its status code and user-facing message.
//
// Credential errors stay deliberately vague: login never reveals whether
// the email exists. Unclassified errors become an opaque 500, the cause
// only goes to the log.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var invalidInput errorz.InvalidInput

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.respond(w, r, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials"})
	case errors.Is(err, auth.ErrAccountUnverified):
		s.respond(w, r, http.StatusForbidden, errorResponse{Error: "Email not verified"})
	case errors.Is(err, auth.ErrTokenExpired):
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "Token expired"})
	case errors.Is(err, auth.ErrInvalidToken):
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "Invalid token"})
	case errors.Is(err, errorz.ErrNotFound):
		s.respond(w, r, http.StatusNotFound, errorResponse{Error: "Not found"})
	case errors.As(err, &invalidInput):
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: invalidInput.Error()})
	default:
		s.logger.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		s.respond(w, r, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}
