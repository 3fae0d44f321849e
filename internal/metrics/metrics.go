package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "hubsync"

// Recorder owns the ETL collectors and the registry they live in.
type Recorder struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	records     *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "ETL runs by terminal status",
	}, []string{"status"})
	r.records = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_total",
		Help:      "Records processed by stage",
	}, []string{"stage"})
	r.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of a full ETL run",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
	r.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last completed run",
	})

	r.registry.MustRegister(r.runs, r.records, r.duration, r.lastSuccess)
	return r
}

// ObserveRun records a finished run. Only COMPLETED runs move lastSuccess.
func (r *Recorder) ObserveRun(status string, elapsed time.Duration, finishedAt time.Time) {
	r.runs.WithLabelValues(status).Inc()
	r.duration.Observe(elapsed.Seconds())
	if status == "COMPLETED" {
		r.lastSuccess.Set(float64(finishedAt.Unix()))
	}
}

func (r *Recorder) AddRecords(stage string, n int) {
	if n <= 0 {
		return
	}
	r.records.WithLabelValues(stage).Add(float64(n))
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Push sends the current values to a Prometheus Pushgateway under job.
func (r *Recorder) Push(ctx context.Context, gatewayURL, job string) error {
	return push.New(gatewayURL, job).Gatherer(r.registry).PushContext(ctx)
}
