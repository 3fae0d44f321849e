package main

import (
	"os"

	"hubsync/internal/config"
)

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return "db/migrations"
}

// databaseDSN prefers an explicit DB_DSN over the assembled DB_* settings.
func databaseDSN(cfg config.Config) string {
	if v := os.Getenv("DB_DSN"); v != "" {
		return v
	}
	return cfg.Store().ConnString()
}
