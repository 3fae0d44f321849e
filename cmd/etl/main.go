package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hubsync/internal/catalog"
	"hubsync/internal/config"
	"hubsync/internal/etl"
	"hubsync/internal/logging"
	"hubsync/internal/metrics"
	"hubsync/internal/platform/huggingface"
)

const pushJob = "hubsync_etl"

func main() {
	var (
		cfgPath = flag.String("config", "", "optional YAML config file")
		limit   = flag.Int("limit", 0, "override the configured fetch limit")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if *limit > 0 {
		cfg.Hub.Limit = *limit
	}
	logger := logging.Init(cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runOnce(ctx, cfg, logger); err != nil {
		os.Exit(1)
	}
}

// runOnce performs a single fetch-normalize-upsert cycle and, when a
// Pushgateway is configured, pushes the run metrics afterwards.
func runOnce(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store := cfg.Store()
	recorder := metrics.NewRecorder()

	svc := etl.NewService(
		huggingface.NewClient(cfg.HubClient()),
		catalog.NewNormalizer(catalog.FetchTimeFallback),
		catalog.NewPostgresRepo(catalog.PgxConnector(store), store.Table),
		etl.Config{Limit: cfg.Hub.Limit},
		etl.WithLogger(logger),
		etl.WithMetrics(recorder),
	)

	logger.Info("hubsync etl starting",
		"source", cfg.Hub.BaseURL,
		"limit", cfg.Hub.Limit,
		"store", logging.RedactDSN(store.ConnString()),
		"table", store.Table)

	_, runErr := svc.Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.Push(pushCtx, cfg.Metrics.PushgatewayURL, pushJob); err != nil {
			logger.Warn("push metrics failed", "error", err)
		}
	}
	return runErr
}
