// Package web provides the JSON API of the platform.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pm13/formation-backend/internal/auth"
	"github.com/pm13/formation-backend/internal/course"
	"github.com/pm13/formation-backend/internal/email"
	"github.com/pm13/formation-backend/internal/settings"
	"github.com/pm13/formation-backend/internal/storage"
)

// Config contains the dependencies of the Server.
type Config struct {
	Logger   *slog.Logger
	Auth     *auth.Service
	Settings *settings.Store
	Courses  *course.Store
	Images   *storage.Store
	Blobs    storage.BlobStore
	Resolver *email.Resolver

	// AllowedOrigin is the frontend origin allowed to call the API from a
	// browser, with credentials.
	AllowedOrigin string

	// UploadDir is the directory served under /uploads/. Empty disables
	// static serving, uploaded paths then point at the blob store's own
	// public URLs.
	UploadDir string
}

// Server handles the HTTP requests of the platform.
type Server struct {
	logger   *slog.Logger
	router   chi.Router
	auth     *auth.Service
	settings *settings.Store
	courses  *course.Store
	images   *storage.Store
	blobs    storage.BlobStore
	resolver *email.Resolver
}

// NewServer creates a new Server with all routes registered.
func NewServer(cfg Config) *Server {
	s := &Server{
		logger:   cfg.Logger,
		auth:     cfg.Auth,
		settings: cfg.Settings,
		courses:  cfg.Courses,
		images:   cfg.Images,
		blobs:    cfg.Blobs,
		resolver: cfg.Resolver,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Post("/users", s.register)
		r.Get("/users", s.listUsers)
		r.Get("/users/{id}", s.userByID)
		r.Put("/users/{id}", s.updateUser)

		r.Post("/login", s.login)
		r.Post("/verify-email", s.verifyEmail)
		r.Post("/resend-verification", s.resendVerification)

		r.Get("/admin/users", s.adminListUsers)
		r.Put("/admin/users/{userId}", s.adminUpdateUser)

		r.Get("/modules", s.listModules)
		r.Post("/modules", s.createModule)
		r.Put("/modules/{id}", s.updateModule)
		r.Delete("/modules/{id}", s.deleteModule)

		r.Get("/trainings/user/{userId}", s.userTrainings)
		r.Post("/trainings", s.upsertTraining)

		r.Get("/settings", s.getSettings)
		r.Put("/settings", s.putSettings)

		r.Post("/upload", s.upload)
	})

	if cfg.UploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
