package email

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// MailConfig is the outbound mail configuration for a single dispatch.
// It is built fresh from the resolver, callers should not hold on to it.
type MailConfig struct {
	Host   string
	Port   int
	Secure bool
	User   string
	Pass   string
	From   Address
}

// The settings store keys that may override the environment defaults.
const (
	settingSMTPHost = "smtp_host"
	settingSMTPPort = "smtp_port"
	settingSMTPUser = "smtp_user"
	settingSMTPPass = "smtp_pass"
	settingSMTPFrom = "smtp_from"
)

// SettingsSource provides the persisted settings overrides.
type SettingsSource interface {
	All(ctx context.Context) (map[string]string, error)
}

const resolvedConfigKey = "mail-config"

// Resolver merges environment-declared defaults with settings-store
// overrides into one MailConfig.
//
// Admins change SMTP settings through the API and expect them to take
// effect without a restart, so the merged result is only cached for a
// short TTL and the cache is invalidated whenever settings are written.
type Resolver struct {
	defaults MailConfig
	settings SettingsSource
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewResolver creates a Resolver that caches resolved configurations for ttl.
func NewResolver(defaults MailConfig, settings SettingsSource, ttl time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		defaults: defaults,
		settings: settings,
		cache:    cache.New(ttl, 2*ttl),
		logger:   logger,
	}
}

// Resolve returns the current outbound mail configuration.
//
// A settings store failure never fails resolution: the error is logged as a
// warning and the environment defaults are used. Callers can always send.
func (r *Resolver) Resolve(ctx context.Context) MailConfig {
	if v, ok := r.cache.Get(resolvedConfigKey); ok {
		return v.(MailConfig)
	}

	cfg := r.defaults

	overrides, err := r.settings.All(ctx)
	if err != nil {
		r.logger.Warn("failed to read settings overrides, using mail defaults", "error", err)
		return cfg
	}

	if v := overrides[settingSMTPHost]; v != "" {
		cfg.Host = v
	}
	if v := overrides[settingSMTPPort]; v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			r.logger.Warn("ignoring non-numeric smtp_port override", "value", v)
		} else {
			cfg.Port = port
		}
	}
	if v := overrides[settingSMTPUser]; v != "" {
		cfg.User = v
	}
	if v := overrides[settingSMTPPass]; v != "" {
		cfg.Pass = v
	}
	if v := overrides[settingSMTPFrom]; v != "" {
		from, err := ParseAddress(v)
		if err != nil {
			r.logger.Warn("ignoring invalid smtp_from override", "value", v)
		} else {
			cfg.From = from
		}
	}

	r.cache.SetDefault(resolvedConfigKey, cfg)

	return cfg
}

// Invalidate drops the cached configuration. It is called after settings
// writes so the next dispatch sees them immediately.
func (r *Resolver) Invalidate() {
	r.cache.Delete(resolvedConfigKey)
}
