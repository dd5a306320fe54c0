package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if !cfg.Scheduler.Enabled {
		t.Error("scheduler should default to enabled")
	}
	if cfg.Scheduler.CheckInterval.Duration != time.Minute {
		t.Errorf("check interval = %v, want 1m", cfg.Scheduler.CheckInterval.Duration)
	}
	if cfg.Scheduler.Timezone != "UTC" {
		t.Errorf("timezone = %s, want UTC", cfg.Scheduler.Timezone)
	}
	if cfg.Scheduler.LookbackWindow.Duration != 5*time.Minute {
		t.Errorf("lookback = %v, want 5m", cfg.Scheduler.LookbackWindow.Duration)
	}
	if cfg.SMTP.Port != 587 || !cfg.SMTP.UseTLS {
		t.Errorf("smtp defaults = %+v", cfg.SMTP)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("cors defaults = %v", cfg.CORSOrigins)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	if _, err := Load(""); err == nil {
		t.Fatal("missing JWT_SECRET_KEY should fail validation")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("DATABASE_URL", "/var/lib/area/area.db")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SCHEDULER_CHECK_INTERVAL_MINUTES", "2")
	t.Setenv("SCHEDULER_TIMEZONE", "Europe/Paris")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USE_TLS", "false")
	t.Setenv("GOOGLE_CLIENT_ID", "gid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "gsecret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DatabaseURL != "/var/lib/area/area.db" {
		t.Errorf("database url = %s", cfg.DatabaseURL)
	}
	if cfg.Scheduler.Enabled {
		t.Error("SCHEDULER_ENABLED=false not applied")
	}
	if cfg.Scheduler.CheckInterval.Duration != 2*time.Minute {
		t.Errorf("check interval = %v, want 2m", cfg.Scheduler.CheckInterval.Duration)
	}
	if cfg.Scheduler.Timezone != "Europe/Paris" {
		t.Errorf("timezone = %s", cfg.Scheduler.Timezone)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.SMTP.Host != "smtp.example.com" || cfg.SMTP.UseTLS {
		t.Errorf("smtp = %+v", cfg.SMTP)
	}
	if cfg.OAuth.Google.ClientID != "gid" || cfg.OAuth.Google.ClientSecret != "gsecret" {
		t.Errorf("oauth google = %+v", cfg.OAuth.Google)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	path := filepath.Join(t.TempDir(), "area.toml")
	content := `
database_url = "from-file.db"
log_level = "debug"

[scheduler]
check_interval = "30s"
timezone = "America/New_York"

[smtp]
host = "mail.example.com"
port = 2525
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseURL != "from-file.db" {
		t.Errorf("database url = %s", cfg.DatabaseURL)
	}
	if cfg.Scheduler.CheckInterval.Duration != 30*time.Second {
		t.Errorf("check interval = %v", cfg.Scheduler.CheckInterval.Duration)
	}
	if cfg.Scheduler.Timezone != "America/New_York" {
		t.Errorf("timezone = %s", cfg.Scheduler.Timezone)
	}
	if cfg.SMTP.Port != 2525 {
		t.Errorf("smtp port = %d", cfg.SMTP.Port)
	}
	// Defaults survive a partial file.
	if !cfg.Scheduler.Enabled {
		t.Error("enabled default lost")
	}

	loc, err := cfg.SchedulerLocation()
	if err != nil {
		t.Fatalf("SchedulerLocation: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("location = %s", loc)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("absent config file should not fail: %v", err)
	}
	if cfg.DatabaseURL != "area.db" {
		t.Errorf("defaults not applied: %s", cfg.DatabaseURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	t.Setenv("SCHEDULER_CHECK_INTERVAL_MINUTES", "zero")
	if _, err := Load(""); err == nil {
		t.Fatal("non-numeric interval should fail")
	}
	t.Setenv("SCHEDULER_CHECK_INTERVAL_MINUTES", "")

	t.Setenv("SCHEDULER_TIMEZONE", "Not/AZone")
	if _, err := Load(""); err == nil {
		t.Fatal("bogus timezone should fail validation")
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("parsed %v", d.Duration)
	}
	if err := d.UnmarshalText([]byte("not-a-duration")); err == nil {
		t.Fatal("invalid duration should error")
	}
}
