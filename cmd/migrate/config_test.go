package main

import (
	"os"
	"testing"

	"hubsync/internal/config"
)

func TestMigrationsDir_EnvOverride(t *testing.T) {
	os.Setenv("MIGRATIONS_DIR", "/custom/migrations")
	t.Cleanup(func() { _ = os.Unsetenv("MIGRATIONS_DIR") })

	if got := migrationsDir(); got != "/custom/migrations" {
		t.Fatalf("expected MIGRATIONS_DIR override, got %q", got)
	}
}

func TestMigrationsDir_Default(t *testing.T) {
	_ = os.Unsetenv("MIGRATIONS_DIR")

	if got := migrationsDir(); got != "db/migrations" {
		t.Fatalf("expected default migrations dir, got %q", got)
	}
}

func TestDatabaseDSN_PrefersDBDSN(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://u:p@elsewhere:5432/other")

	if got := databaseDSN(config.Default()); got != "postgres://u:p@elsewhere:5432/other" {
		t.Fatalf("expected DB_DSN to win, got %q", got)
	}
}

func TestDatabaseDSN_FromSettings(t *testing.T) {
	t.Setenv("DB_DSN", "")

	cfg := config.Default()
	cfg.DB.Password = "pw"
	if got := databaseDSN(cfg); got != "postgres://postgres:pw@localhost:5432/postgres?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", got)
	}
}
