package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// config is the configuration for the server command.
type config struct {
	Env string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`

	HTTPAddr            string        `env:"HTTP_ADDR" envDefault:":8888" validate:"required"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	DBFile string `env:"DB_FILE" envDefault:"formation.db" validate:"required"`

	// FrontendURL is the base the verification links are built on.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173" validate:"required,url"`

	// SMTP defaults, overridable at runtime through the settings store.
	SMTPHost   string `env:"SMTP_HOST" envDefault:"localhost" validate:"required"`
	SMTPPort   int    `env:"SMTP_PORT" envDefault:"587" validate:"min=1,max=65535"`
	SMTPSecure bool   `env:"SMTP_SECURE" envDefault:"false"`
	SMTPUser   string `env:"SMTP_USER"`
	SMTPPass   string `env:"SMTP_PASS"`
	SMTPFrom   string `env:"SMTP_FROM" envDefault:"noreply@localhost.localdomain" validate:"required,email"`

	VerifyTokenTTL time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"24h" validate:"gt=0"`
	// MailConfigTTL must be positive: a zero TTL would make the go-cache
	// entries never expire instead of expiring immediately.
	MailConfigTTL time.Duration `env:"MAIL_CONFIG_TTL" envDefault:"30s" validate:"gt=0"`
	WorkerTimeout time.Duration `env:"WORKER_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	// UploadDir is where the filesystem blob store keeps images. Ignored
	// when an S3 bucket is configured.
	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`

	// S3Bucket switches image storage to S3 when set.
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY" validate:"required_with=S3Bucket"`
	S3SecretKey string `env:"S3_SECRET_KEY" validate:"required_with=S3Bucket"`
}

// loadConfig builds the config from the environment. A .env file in the
// working directory is loaded first if present.
func loadConfig() (config, error) {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
