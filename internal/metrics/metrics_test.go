package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveRun(t *testing.T) {
	r := NewRecorder()
	finished := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	r.ObserveRun("COMPLETED", 2*time.Second, finished)
	r.ObserveRun("FAILED", time.Second, finished.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("FAILED")))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.lastSuccess))
	assert.Equal(t, 2, testutil.CollectAndCount(r.duration))
}

func TestRecorder_AddRecords(t *testing.T) {
	r := NewRecorder()
	r.AddRecords("fetched", 3)
	r.AddRecords("fetched", 2)
	r.AddRecords("upserted", 0)

	assert.Equal(t, 5.0, testutil.ToFloat64(r.records.WithLabelValues("fetched")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.records))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.AddRecords("normalized", 4)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `hubsync_records_total{stage="normalized"} 4`)
}

func TestRecorder_Push(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.ObserveRun("COMPLETED", time.Second, time.Now())

	require.NoError(t, r.Push(context.Background(), srv.URL, "hubsync_etl"))
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/hubsync_etl"), gotPath)
	assert.NotEmpty(t, gotBody)
}
