package config

import (
	"strings"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/crm")
	t.Setenv("ENV", "test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool defaults: max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.MigrationsDir != "./migrations" {
		t.Errorf("unexpected migrations dir: %s", cfg.MigrationsDir)
	}
}

func TestValidate_ProductionNeedsSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error without AUTH_SECRET in production")
	}
	if !strings.Contains(err.Error(), "AUTH_SECRET") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ShortSecretRejected(t *testing.T) {
	cfg := &Config{Env: "production", AuthSecret: "tooshort"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestValidate_DevWithoutSecretOK(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := &Config{Env: "development", DBMinConns: 10, DBMaxConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when min conns exceed max conns")
	}
}
