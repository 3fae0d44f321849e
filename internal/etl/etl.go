package etl

import (
	"time"
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Run summarises one fetch-normalize-upsert cycle. It is reported, not stored.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	FetchTime  time.Time  `json:"fetch_time"`
	Status     string     `json:"status"`
	Limit      int        `json:"limit"`
	Fetched    int        `json:"fetched"`
	Normalized int        `json:"normalized"`
	Recent     int        `json:"recent"`
	Upserted   int        `json:"upserted"`
	Error      string     `json:"error,omitempty"`
}
