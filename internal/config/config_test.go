package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/digidocs_test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.JWTIssuer != "digidocs" {
		t.Errorf("expected default issuer digidocs, got %s", cfg.JWTIssuer)
	}
	if cfg.JWTTTLHours != 8 {
		t.Errorf("expected default TTL 8, got %d", cfg.JWTTTLHours)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected dev fallback JWT secret to be set")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")

	_, err := Load()
	if err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{Env: "production", JWTTTLHours: 8, DBMaxConns: 20, DBMinConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "super-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_TTL(t *testing.T) {
	cfg := &Config{Env: "development", JWTSecret: "x", JWTTTLHours: 0, DBMaxConns: 20}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive TTL")
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := &Config{Env: "development", JWTSecret: "x", JWTTTLHours: 8, DBMaxConns: 5, DBMinConns: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min conns exceed max conns")
	}
}

func TestIsDev(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Error("expected IsDev for development")
	}
	if (&Config{Env: "production"}).IsDev() {
		t.Error("did not expect IsDev for production")
	}
	if !(&Config{Env: "production"}).IsProduction() {
		t.Error("expected IsProduction for production")
	}
}
