package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		setRequired(t)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.OtelEndpoint != "" || cfg.OtelServiceName != "waste-watch" {
			t.Errorf("unexpected tracing config: %q %q", cfg.OtelEndpoint, cfg.OtelServiceName)
		}
		if cfg.Store.MongoDB != "waste" || cfg.Store.AdminSource != AdminSourceMongo {
			t.Errorf("unexpected store config: %+v", cfg.Store)
		}
		if cfg.SessionTTL != 24*time.Hour || cfg.FetchRetryBackoff != 200*time.Millisecond {
			t.Errorf("unexpected durations: %v %v", cfg.SessionTTL, cfg.FetchRetryBackoff)
		}
		if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
			t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
		}
	})

	t.Run("Missing Required", func(t *testing.T) {
		t.Setenv("MONGO_URI", "")
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("JWT_SECRET", "secret")
		if _, err := Load(); err == nil {
			t.Fatal("expected error when MONGO_URI is empty")
		}
	})

	t.Run("Postgres Source Needs URL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ADMIN_SOURCE", "postgres")
		t.Setenv("POSTGRES_URL", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for postgres source without POSTGRES_URL")
		}
	})

	t.Run("Unknown Source", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ADMIN_SOURCE", "ldap")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown ADMIN_SOURCE")
		}
	})
}
