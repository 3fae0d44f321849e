package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hubsync/internal/catalog"
	"hubsync/internal/config"
	"hubsync/internal/etl"
	"hubsync/internal/httpx"
	"hubsync/internal/logging"
	"hubsync/internal/metrics"
	"hubsync/internal/platform/huggingface"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cfg.Store()
	dbPool, err := openPool(ctx, store.ConnString())
	if err != nil {
		logger.Error("cannot reach database", "dsn", logging.RedactDSN(store.ConnString()), "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("database connection OK")

	recorder := metrics.NewRecorder()
	svc := etl.NewService(
		huggingface.NewClient(cfg.HubClient()),
		catalog.NewNormalizer(catalog.FetchTimeFallback),
		catalog.NewPostgresRepo(catalog.PgxConnector(store), store.Table),
		etl.Config{Limit: cfg.Hub.Limit},
		etl.WithLogger(logger),
		etl.WithMetrics(recorder),
	)
	handler := etl.NewHTTPHandler(svc, cfg.Server.InternalSecret)

	router := newRouter(routerDeps{
		trigger:    handler.Trigger,
		ready:      dbPool.Ping,
		metrics:    recorder.Handler(),
		logger:     logger,
		triggerRPS: cfg.Server.TriggerRPS,
	})

	httpServer := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     router,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", "addr", cfg.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type routerDeps struct {
	trigger    http.HandlerFunc
	ready      func(ctx context.Context) error
	metrics    http.Handler
	logger     *slog.Logger
	triggerRPS float64
}

func newRouter(d routerDeps) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.ready(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("/metrics", d.metrics)

	var trigger http.Handler = d.trigger
	if d.triggerRPS > 0 {
		trigger = httpx.NewRateLimitMiddleware(d.triggerRPS, 1).Middleware(trigger)
	}
	router.Handle("/internal/jobs/etl", trigger)

	var h http.Handler = router
	h = httpx.RecoveryMiddleware(d.logger)(h)
	h = httpx.AccessLogMiddleware(d.logger)(h)
	h = httpx.RequestIDMiddleware(h)
	return h
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
