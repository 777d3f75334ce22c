package common

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfig is returned when required settings are absent.
var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	Env           string
	DatabaseURL   string
	SQLitePath    string
	SessionSecret string
	Port          string
	BaseDomain    string
	CacheDir      string
	CacheMaxAge   time.Duration
	MediaDir      string
	SyncPacksDir  string
	TenantsDir    string
	CORSOrigins   []string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// LoadEnv reads .env.local and .env into the process environment. Values
// already set win, and .env.local wins over .env. Missing files are fine.
func LoadEnv() {
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// LoadConfig builds the configuration from the environment, filling in
// defaults. Required keys are checked by the Require* methods since not
// every entry point needs all of them.
func LoadConfig() (*Config, error) {
	LoadEnv()

	cfg := &Config{
		Env:           getenv("APP_ENV", "development"),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		SQLitePath:    getenv("SQLITE_DB", ""),
		SessionSecret: getenv("SESSION_SECRET", ""),
		Port:          getenv("PORT", "8080"),
		BaseDomain:    getenv("BASE_DOMAIN", "localhost"),
		CacheDir:      getenv("CACHE_DIR", "cache"),
		MediaDir:      getenv("MEDIA_DIR", "media-files"),
		SyncPacksDir:  getenv("SYNC_PACKS_DIR", "sync-packs"),
		TenantsDir:    getenv("TENANTS_DIR", "tenants"),
		SMTPHost:      getenv("SMTP_HOST", ""),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		SMTPUser:      getenv("SMTP_USER", ""),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      getenv("SMTP_FROM", ""),
	}

	maxAge, err := time.ParseDuration(getenv("CACHE_MAX_AGE", "10m"))
	if err != nil {
		return nil, fmt.Errorf("CACHE_MAX_AGE: %w", err)
	}
	cfg.CacheMaxAge = maxAge

	for _, origin := range strings.Split(getenv("CORS_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// RequireDatabase checks that a database is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return fmt.Errorf("%w: DATABASE_URL or SQLITE_DB must be set", ErrMissingConfig)
	}
	return nil
}

// RequireServer checks everything the HTTP server needs.
func (c *Config) RequireServer() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("%w: SESSION_SECRET must be set", ErrMissingConfig)
	}
	return nil
}
