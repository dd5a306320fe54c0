// Package config loads the AREA engine configuration from an optional TOML
// file and the process environment. Environment variables win over file
// values so container deployments can override everything without a file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that unmarshals from TOML strings like "60s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	DatabaseURL  string    `toml:"database_url"`
	JWTSecretKey string    `toml:"jwt_secret_key"`
	CORSOrigins  []string  `toml:"cors_origins"`
	FrontendURL  string    `toml:"frontend_url"`
	LogLevel     string    `toml:"log_level"`
	Scheduler    Scheduler `toml:"scheduler"`
	SMTP         SMTP      `toml:"smtp"`
	OAuth        OAuth     `toml:"oauth"`
}

type Scheduler struct {
	Enabled        bool     `toml:"enabled"`
	CheckInterval  Duration `toml:"check_interval"`
	Timezone       string   `toml:"timezone"`
	LockFile       string   `toml:"lock_file"`
	LookbackWindow Duration `toml:"lookback_window"`
	HTTPTimeout    Duration `toml:"http_timeout"`
}

type SMTP struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	FromEmail string `toml:"from_email"`
	UseTLS    bool   `toml:"use_tls"`
}

// OAuthApp holds one provider's application credentials, used only for
// silent refresh-token exchanges inside reaction/checker connection lookup.
type OAuthApp struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

type OAuth struct {
	Google   OAuthApp `toml:"google"`
	Facebook OAuthApp `toml:"facebook"`
	GitHub   OAuthApp `toml:"github"`
	Spotify  OAuthApp `toml:"spotify"`
}

// Defaults returns a Config with every default applied. TOML and env
// loading layer on top of this, so absent keys keep their defaults
// (including booleans that default to true).
func Defaults() *Config {
	return &Config{
		DatabaseURL: "area.db",
		CORSOrigins: []string{"*"},
		LogLevel:    "info",
		Scheduler: Scheduler{
			Enabled:        true,
			CheckInterval:  Duration{time.Minute},
			Timezone:       "UTC",
			LockFile:       "/tmp/area_scheduler.lock",
			LookbackWindow: Duration{5 * time.Minute},
			HTTPTimeout:    Duration{30 * time.Second},
		},
		SMTP: SMTP{
			Port:   587,
			UseTLS: true,
		},
	}
}

// SchedulerLocation resolves the configured scheduler timezone.
func (c *Config) SchedulerLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Scheduler.Timezone, err)
	}
	return loc, nil
}

// Load builds the configuration: defaults, then the TOML file at path if it
// exists, then environment overrides, then validation. An empty path skips
// the file layer entirely.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		cfg.JWTSecretKey = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitTrim(v)
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.FrontendURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SCHEDULER_ENABLED %q: %w", v, err)
		}
		cfg.Scheduler.Enabled = enabled
	}
	if v := os.Getenv("SCHEDULER_CHECK_INTERVAL_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 1 {
			return fmt.Errorf("invalid SCHEDULER_CHECK_INTERVAL_MINUTES %q", v)
		}
		cfg.Scheduler.CheckInterval = Duration{time.Duration(minutes) * time.Minute}
	}
	if v := os.Getenv("SCHEDULER_TIMEZONE"); v != "" {
		cfg.Scheduler.Timezone = v
	}
	if v := os.Getenv("SCHEDULER_LOCK_FILE"); v != "" {
		cfg.Scheduler.LockFile = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.SMTP.Port = port
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_FROM_EMAIL"); v != "" {
		cfg.SMTP.FromEmail = v
	}
	if v := os.Getenv("SMTP_USE_TLS"); v != "" {
		useTLS, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_USE_TLS %q: %w", v, err)
		}
		cfg.SMTP.UseTLS = useTLS
	}

	applyOAuthEnv(&cfg.OAuth.Google, "GOOGLE")
	applyOAuthEnv(&cfg.OAuth.Facebook, "FACEBOOK")
	applyOAuthEnv(&cfg.OAuth.GitHub, "GITHUB")
	applyOAuthEnv(&cfg.OAuth.Spotify, "SPOTIFY")

	return nil
}

func applyOAuthEnv(app *OAuthApp, prefix string) {
	if v := os.Getenv(prefix + "_CLIENT_ID"); v != "" {
		app.ClientID = v
	}
	if v := os.Getenv(prefix + "_CLIENT_SECRET"); v != "" {
		app.ClientSecret = v
	}
}

func validate(cfg *Config) error {
	if cfg.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url must not be empty")
	}
	if cfg.Scheduler.CheckInterval.Duration < time.Second {
		return fmt.Errorf("scheduler check_interval %s is below 1s", cfg.Scheduler.CheckInterval.Duration)
	}
	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	if cfg.SMTP.Port < 0 || cfg.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port %d out of range", cfg.SMTP.Port)
	}
	return nil
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
