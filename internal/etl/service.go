package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hubsync/internal/catalog"
	"hubsync/internal/metrics"
)

var ErrRunInProgress = errors.New("etl run already in progress")

type Fetcher interface {
	FetchModels(ctx context.Context, limit int) ([]json.RawMessage, error)
}

type Loader interface {
	Upsert(ctx context.Context, records []catalog.ModelRecord) error
}

type Config struct {
	Limit int
}

type Option func(*Service)

// WithClock replaces time.Now as the source of run and fetch timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = rec }
}

type Service struct {
	fetcher    Fetcher
	normalizer *catalog.Normalizer
	loader     Loader
	cfg        Config

	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu sync.Mutex
}

func NewService(fetcher Fetcher, normalizer *catalog.Normalizer, loader Loader, cfg Config, opts ...Option) *Service {
	s := &Service{
		fetcher:    fetcher,
		normalizer: normalizer,
		loader:     loader,
		cfg:        cfg,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one cycle with the configured limit.
func (s *Service) Run(ctx context.Context) (*Run, error) {
	return s.RunWithLimit(ctx, s.cfg.Limit)
}

// RunWithLimit fetches up to limit models, normalizes them and upserts the
// batch. Stages run strictly in order and the first failure ends the run.
// Concurrent calls are rejected with ErrRunInProgress.
func (s *Service) RunWithLimit(ctx context.Context, limit int) (run *Run, err error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	run = &Run{
		ID:        uuid.NewString(),
		Status:    StatusRunning,
		Limit:     limit,
		StartedAt: s.now(),
	}
	log := s.logger.With("run_id", run.ID)
	log.Info("etl run started", "limit", limit)

	defer func() {
		finished := s.now()
		run.FinishedAt = &finished
		if err != nil {
			run.Status = StatusFailed
			run.Error = err.Error()
			log.Error("etl run failed", "error", err, "fetched", run.Fetched, "normalized", run.Normalized)
		} else {
			run.Status = StatusCompleted
			log.Info("etl run completed",
				"fetched", run.Fetched,
				"upserted", run.Upserted,
				"recent", run.Recent,
				"duration_ms", finished.Sub(run.StartedAt).Milliseconds())
		}
		if s.metrics != nil {
			s.metrics.ObserveRun(run.Status, finished.Sub(run.StartedAt), finished)
		}
	}()

	items, err := s.fetcher.FetchModels(ctx, limit)
	if err != nil {
		return run, fmt.Errorf("extract: %w", err)
	}
	run.Fetched = len(items)
	s.count("fetched", run.Fetched)
	log.Debug("fetched models", "count", run.Fetched)

	run.FetchTime = s.now()
	raws, err := catalog.DecodeRecords(items)
	if err != nil {
		return run, fmt.Errorf("transform: %w", err)
	}
	records := s.normalizer.Normalize(raws, run.FetchTime)
	run.Normalized = len(records)
	for _, r := range records {
		if r.IsRecent {
			run.Recent++
		}
	}
	s.count("normalized", run.Normalized)

	if err := s.loader.Upsert(ctx, records); err != nil {
		return run, fmt.Errorf("load: %w", err)
	}
	run.Upserted = len(records)
	s.count("upserted", run.Upserted)

	return run, nil
}

func (s *Service) count(stage string, n int) {
	if s.metrics != nil {
		s.metrics.AddRecords(stage, n)
	}
}
