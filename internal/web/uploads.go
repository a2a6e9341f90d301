package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pm13/formation-backend/internal/errorz"
	"github.com/pm13/formation-backend/internal/storage"
)

// maxUploadSize bounds image uploads at 10 MiB.
const maxUploadSize = 10 << 20

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "body", Err: errors.New("is not a valid multipart form")}})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "image", Err: errors.New("file is required")}})
		return
	}
	defer file.Close()

	name := storage.UniqueName(header.Filename)
	path, err := s.blobs.Save(r.Context(), name, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	out := map[string]any{
		"path": path,
	}

	// The image row is only recorded for uploads attributed to a user.
	if raw := r.FormValue("userId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			s.respondErr(w, r, errorz.InvalidInput{errorz.Keyed{Key: "userId", Err: errors.New("is not a valid id")}})
			return
		}

		img := storage.Image{
			ID:        uuid.New(),
			UserID:    &userID,
			Filename:  header.Filename,
			Path:      path,
			CreatedAt: time.Now(),
		}
		if err := s.images.CreateImage(r.Context(), img); err != nil {
			s.respondErr(w, r, err)
			return
		}
		out["id"] = img.ID.String()
	}

	s.respond(w, r, http.StatusCreated, out)
}
