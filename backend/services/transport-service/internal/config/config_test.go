package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USERNAME", "etup")
	t.Setenv("DB_PASSWORD", "p@ss word")
	t.Setenv("DB_DATABASE", "transporte")
	t.Setenv("DB_SSL", "true")
	t.Setenv("INGESTION_INTERVAL_MINUTES", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	dsn := cfg.DatabaseDSN()
	if !strings.HasPrefix(dsn, "postgres://etup:") || !strings.Contains(dsn, "@db.internal:5432/transporte") {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	if !strings.HasSuffix(dsn, "sslmode=require") {
		t.Fatalf("expected sslmode=require in %q", dsn)
	}
	if cfg.IngestionInterval() != 30*time.Minute {
		t.Fatalf("unexpected interval %v", cfg.IngestionInterval())
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "http://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Ingestion.BatchSize != 50 || cfg.HTTPAddress() != ":3000" {
		t.Fatalf("defaults not applied: batch=%d addr=%s", cfg.Ingestion.BatchSize, cfg.HTTPAddress())
	}
}

func TestLoadRequiresDatabase(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_DATABASE", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without database settings")
	}
}

func TestLoadRejectsAuthWithoutOperator(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DSN", "postgres://localhost/transporte")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("AUTH_OPERATOR_USERNAME", "")
	t.Setenv("AUTH_OPERATOR_PASSWORD_HASH", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for missing operator")
	}
}

func TestExplicitDSNWins(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "postgres://x/y"
	cfg.Database.Host = "ignored"
	if cfg.DatabaseDSN() != "postgres://x/y" {
		t.Fatalf("unexpected dsn %q", cfg.DatabaseDSN())
	}
}
