package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/course"
	"github.com/pm13/formation-backend/internal/errorz"
)

type moduleResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Data        json.RawMessage `json:"data"`
	IsActive    bool            `json:"isActive"`
	OrderIndex  int             `json:"orderIndex"`
}

func newModuleResponse(m course.Module) moduleResponse {
	return moduleResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Icon:        m.Icon,
		Data:        m.Data,
		IsActive:    m.IsActive,
		OrderIndex:  m.OrderIndex,
	}
}

func (s *Server) listModules(w http.ResponseWriter, r *http.Request) {
	modules, err := s.courses.ActiveModules(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	out := make([]moduleResponse, 0, len(modules))
	for _, m := range modules {
		out = append(out, newModuleResponse(m))
	}

	s.respond(w, r, http.StatusOK, out)
}

func (s *Server) createModule(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Icon        string          `json:"icon"`
		Data        json.RawMessage `json:"data"`
		OrderIndex  int             `json:"orderIndex"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	m, err := course.NewModule(in.Title, in.Description, in.Icon, in.Data)
	if err != nil {
		s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "title", Err: errors.New("is required")}})
		return
	}
	m.OrderIndex = in.OrderIndex

	if err := s.courses.CreateModule(r.Context(), m); err != nil {
		if errors.Is(err, errorz.ErrConstraintViolated) {
			s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "title", Err: errors.New("module already exists")}})
			return
		}
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusCreated, newModuleResponse(m))
}

func (s *Server) updateModule(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		Icon        *string         `json:"icon"`
		Data        json.RawMessage `json:"data"`
		IsActive    *bool           `json:"isActive"`
		OrderIndex  *int            `json:"orderIndex"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	m, err := s.courses.UpdateModule(r.Context(), chi.URLParam(r, "id"), course.ModuleUpdate{
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		Data:        in.Data,
		IsActive:    in.IsActive,
		OrderIndex:  in.OrderIndex,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, newModuleResponse(m))
}

func (s *Server) deleteModule(w http.ResponseWriter, r *http.Request) {
	if err := s.courses.DeleteModule(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, map[string]any{
		"success": true,
	})
}

type trainingResponse struct {
	UserID      string    `json:"userId"`
	ModuleID    string    `json:"moduleId"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ModuleTitle string    `json:"moduleTitle,omitempty"`
	ModuleIcon  string    `json:"moduleIcon,omitempty"`
}

func (s *Server) userTrainings(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		s.respondErr(w, r, errorz.ErrNotFound)
		return
	}

	trainings, err := s.courses.TrainingsByUser(r.Context(), userID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	out := make([]trainingResponse, 0, len(trainings))
	for _, t := range trainings {
		out = append(out, trainingResponse{
			UserID:      t.UserID.String(),
			ModuleID:    t.ModuleID,
			Status:      t.Status,
			Progress:    t.Progress,
			UpdatedAt:   t.UpdatedAt,
			ModuleTitle: t.ModuleTitle,
			ModuleIcon:  t.ModuleIcon,
		})
	}

	s.respond(w, r, http.StatusOK, out)
}

func (s *Server) upsertTraining(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID   string `json:"userId"`
		ModuleID string `json:"moduleId"`
		Status   string `json:"status"`
		Progress int    `json:"progress"`
	}
	if err := decode(r, &in); err != nil {
		s.respondErr(w, r, err)
		return
	}

	userID, err := uuid.Parse(in.UserID)
	if err != nil {
		s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "userId", Err: errors.New("is not a valid id")}})
		return
	}

	t := course.Training{
		UserID:    userID,
		ModuleID:  in.ModuleID,
		Status:    in.Status,
		Progress:  in.Progress,
		UpdatedAt: time.Now(),
	}
	if err := s.courses.UpsertTraining(r.Context(), t); err != nil {
		switch {
		case errors.Is(err, course.ErrInvalidStatus):
			s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "status", Err: err}})
		case errors.Is(err, errorz.ErrConstraintViolated):
			// Unknown user or module id.
			s.respondErr(w, r, errorz.ErrNotFound)
		default:
			s.respondErr(w, r, err)
		}
		return
	}

	s.respond(w, r, http.StatusOK, trainingResponse{
		UserID:    t.UserID.String(),
		ModuleID:  t.ModuleID,
		Status:    t.Status,
		Progress:  t.Progress,
		UpdatedAt: t.UpdatedAt,
	})
}
