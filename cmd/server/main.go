package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/pm13/formation-backend/assets"
	"github.com/pm13/formation-backend/internal"
	"github.com/pm13/formation-backend/internal/auth"
	authdb "github.com/pm13/formation-backend/internal/auth/db"
	"github.com/pm13/formation-backend/internal/course"
	"github.com/pm13/formation-backend/internal/db"
	"github.com/pm13/formation-backend/internal/db/migrate"
	"github.com/pm13/formation-backend/internal/email"
	"github.com/pm13/formation-backend/internal/email/smtp"
	"github.com/pm13/formation-backend/internal/email/view"
	"github.com/pm13/formation-backend/internal/settings"
	"github.com/pm13/formation-backend/internal/storage"
	"github.com/pm13/formation-backend/internal/web"
	"github.com/pm13/formation-backend/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stderr))
}

func run(ctx context.Context, w io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		slog.New(slog.NewTextHandler(w, nil)).Error("failed to load config", "error", err)
		return 1
	}

	logger := newLogger(w, cfg.Env)

	sqlDB, err := db.OpenSQLite(cfg.DBFile, true)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer sqlDB.Close()

	migrated, err := migrate.RunFS(ctx, sqlDB, migrations.FS, migrate.Metadata{
		AppVersion: internal.BuildRevision,
		Timestamp:  internal.BuildRevisionTime,
	})
	if err != nil {
		logger.Error("failed to run migrations", "error", err)
		return 1
	}
	for _, m := range migrated {
		logger.Info("ran migration", "sequence", m.Sequence, "filename", m.Filename)
	}

	frontendURL, err := url.Parse(cfg.FrontendURL)
	if err != nil {
		logger.Error("failed to parse frontend url", "error", err)
		return 1
	}

	from, err := email.ParseAddress(cfg.SMTPFrom)
	if err != nil {
		logger.Error("failed to parse smtp from address", "error", err)
		return 1
	}

	settingsStore := settings.New(sqlDB)

	resolver := email.NewResolver(email.MailConfig{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		Secure: cfg.SMTPSecure,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPass,
		From:   from,
	}, settingsStore, cfg.MailConfigTTL, logger)

	mailSvc := email.NewService(resolver, view.NewFSRenderer(assets.EmailFS), func(c email.MailConfig) email.Sender {
		return smtp.NewSender(c)
	}, frontendURL)

	authSvc, err := auth.NewService(authdb.New(sqlDB), mailSvc, func(err error) {
		logger.Error("worker failed", "error", err)
	}, auth.ServiceConfig{
		WorkerTimeout: cfg.WorkerTimeout,
		TokenTTL:      cfg.VerifyTokenTTL,
	})
	if err != nil {
		logger.Error("failed to create auth service", "error", err)
		return 1
	}

	blobs, uploadDir, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to create blob store", "error", err)
		return 1
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		Handler: web.NewServer(web.Config{
			Logger:   logger,
			Auth:     authSvc,
			Settings: settingsStore,
			Courses:  course.New(sqlDB),
			Images:   storage.NewStore(sqlDB),
			Blobs:    blobs,
			Resolver: resolver,
			// Browsers send the origin without a path, strip any path the
			// frontend url carries.
			AllowedOrigin: frontendURL.Scheme + "://" + frontendURL.Host,
			UploadDir:     uploadDir,
		}),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.HTTPAddr,
			"env", cfg.Env,
			"buildRevision", internal.BuildRevision,
			"buildRevisionTime", internal.BuildRevisionTime,
			"buildLocalModified", internal.BuildLocalModified,
		)
		// ListenAndServe always returns a non-nil error, g will cancel
		// gCtx when an error is returned, so this also stops the other
		// goroutine.
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()

	// Let in-flight email dispatches finish before exiting.
	authSvc.Wait()

	if err != nil && err != http.ErrServerClosed {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped successfully")

	return 0
}

func newLogger(w io.Writer, env string) *slog.Logger {
	var h slog.Handler
	if env == "local" {
		h = tint.NewHandler(w, &tint.Options{
			TimeFormat: time.Kitchen,
		})
	} else {
		h = slog.NewJSONHandler(w, nil)
	}
	return slog.New(h)
}

func newBlobStore(ctx context.Context, cfg config) (storage.BlobStore, string, error) {
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		// S3 paths are absolute URLs, nothing to serve locally.
		return s3Store, "", err
	}

	dirStore, err := storage.NewDirStore(cfg.UploadDir)
	if err != nil {
		return nil, "", err
	}

	return dirStore, dirStore.Dir(), nil
}
