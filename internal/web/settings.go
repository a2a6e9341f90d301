package web

import (
	"errors"
	"net/http"

	"github.com/pm13/formation-backend/internal/errorz"
)

var errNoSettings = errors.New("no settings provided")

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	values, err := s.settings.All(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, values)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	if len(in) == 0 {
		s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "body", Err: errNoSettings}})
		return
	}

	if err := s.settings.Set(r.Context(), in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	// Changed SMTP overrides must take effect before the cache TTL runs
	// out.
	s.resolver.Invalidate()

	values, err := s.settings.All(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, values)
}
