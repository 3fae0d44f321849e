package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"hubsync/internal/config"
	"hubsync/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
		cfgPath = flag.String("config", "", "optional YAML config file")
	)
	flag.Parse()

	dir := migrationsDir()
	if *command == "create" {
		if *name == "" {
			fatal("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			fatal("create migration", "error", err)
		}
		fmt.Printf("Migration created: %s\n", *name)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal("load config", "error", err)
	}
	logger := logging.Init(cfg.Log.Format, cfg.Log.Level)

	dsn := databaseDSN(cfg)
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fatal("connect to database", "dsn", logging.RedactDSN(dsn), "error", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		fatal("set dialect", "error", err)
	}

	switch *command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			fatal("run migrations", "error", err)
		}
		logger.Info("migrations applied")
	case "down":
		if err := goose.Down(db, dir); err != nil {
			fatal("rollback migrations", "error", err)
		}
		logger.Info("migrations rolled back")
	case "status":
		if err := goose.Status(db, dir); err != nil {
			fatal("check migration status", "error", err)
		}
	default:
		fatal("unknown command, use: up, down, status, create", "command", *command)
	}
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
