package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.RidesDir != "resources/rides" {
		t.Fatalf("expected default rides dir, got %q", cfg.RidesDir)
	}
	if cfg.UploadTimeout != 10*time.Second {
		t.Fatalf("expected default upload timeout, got %v", cfg.UploadTimeout)
	}
	if cfg.UploadURL == "" || cfg.LogLevel != "info" {
		t.Fatalf("expected upload and log defaults")
	}
}

func TestDefaultUploadTargetsOwnRideLibrary(t *testing.T) {
	cfg := Load()
	u, err := url.Parse(cfg.UploadURL)
	if err != nil {
		t.Fatalf("parse upload url: %v", err)
	}
	if ":"+u.Port() != cfg.ServerPort {
		t.Fatalf("upload url %q does not target server port %q", cfg.UploadURL, cfg.ServerPort)
	}
	if u.Path != "/api/rides/upload" {
		t.Fatalf("unexpected upload path %q", u.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RIDES_DIR", "/srv/rides")
	t.Setenv("UPLOAD_TIMEOUT", "3s")
	t.Setenv("OPERATOR_PASSWORD_HASH", "$2a$10$hash")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.RidesDir != "/srv/rides" || cfg.UploadTimeout != 3*time.Second {
		t.Fatalf("expected override rides dir and timeout")
	}
	if cfg.OperatorPasswordHash != "$2a$10$hash" {
		t.Fatalf("expected override operator hash")
	}
	if cfg.SentryDSN != "https://key@sentry.example/1" {
		t.Fatalf("expected override sentry dsn")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nSERVER_PORT=:7000\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()

	// set explicitly so the value wins over .env and is restored afterwards
	t.Setenv("SERVER_PORT", ":9100")
	t.Setenv("LOG_LEVEL", "")
	_ = os.Unsetenv("LOG_LEVEL")

	cfg := Load()
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected level from .env, got %q", cfg.LogLevel)
	}
	if cfg.ServerPort != ":9100" {
		t.Fatalf("expected environment to win over .env, got %q", cfg.ServerPort)
	}
	_ = os.Unsetenv("LOG_LEVEL")
}
